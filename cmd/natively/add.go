package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var addTitle string

// addCmd represents the add command
var addCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Add a new link to your page",
	Long: `Add a new link at the end of your page.

Examples:
  natively add https://example.dev --title "Portfolio"`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVarP(&addTitle, "title", "t", "", "Display title for the link")
}

func runAdd(cmd *cobra.Command, args []string) error {
	url := args[0]

	a, err := newApp(true)
	if err != nil {
		return err
	}

	// The collection must be loaded so the new link lands at the end.
	if err := a.manager.Load(cmd.Context()); err != nil {
		return errReported
	}

	link, err := a.manager.Create(cmd.Context(), addTitle, url)
	if err != nil {
		if reportValidation(err) {
			return errReported
		}
		return errReported
	}

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(link)
	}

	fmt.Printf("  ID: %d\n", link.ID)
	fmt.Printf("  Title: %s\n", link.Title)
	fmt.Printf("  URL: %s\n", link.URL)
	return nil
}
