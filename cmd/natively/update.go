package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/natively/natively-cli/internal/models"
)

var (
	updateTitle string
	updateURL   string
)

// updateCmd represents the update command
var updateCmd = &cobra.Command{
	Use:   "update <id> [flags]",
	Short: "Edit a link's title or URL",
	Long: `Edit a link. Unspecified fields keep their current value.

Examples:
  natively update 123 --title "New Title"
  natively update 123 --url https://new.example.com`,
	Args: cobra.ExactArgs(1),
	RunE: runUpdate,
}

func init() {
	rootCmd.AddCommand(updateCmd)

	updateCmd.Flags().StringVarP(&updateTitle, "title", "t", "", "New title")
	updateCmd.Flags().StringVarP(&updateURL, "url-value", "u", "", "New destination URL")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid link ID: %s (must be a number)", args[0])
	}

	if !cmd.Flags().Changed("title") && !cmd.Flags().Changed("url-value") {
		return fmt.Errorf("nothing to update: pass --title and/or --url-value")
	}

	a, err := newApp(true)
	if err != nil {
		return err
	}

	if err := a.manager.Load(cmd.Context()); err != nil {
		return errReported
	}

	// The backend replaces both editable fields, so merge the current values
	// with whatever flags were given.
	var current *models.Link
	for _, link := range a.manager.Links() {
		if link.ID == id {
			l := link
			current = &l
			break
		}
	}
	if current == nil {
		return fmt.Errorf("no link with ID %d on your page", id)
	}

	title := current.Title
	url := current.URL
	if cmd.Flags().Changed("title") {
		title = updateTitle
	}
	if cmd.Flags().Changed("url-value") {
		url = updateURL
	}

	link, err := a.manager.Update(cmd.Context(), id, title, url)
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
