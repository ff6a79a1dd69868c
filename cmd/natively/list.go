package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the links on your page",
	Long: `Load your profile and list its links in display order, along with your
shareable page URL.

Examples:
  natively list
  natively list --json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}

	// Load failures (including the no-profile condition) have already been
	// surfaced through the notification channel.
	if err := a.manager.Load(cmd.Context()); err != nil {
		return errReported
	}

	profile := a.manager.Profile()
	links := a.manager.Links()

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(profile)
	}

	fmt.Printf("@%s", profile.User.Username)
	if profile.User.FirstName != "" || profile.User.LastName != "" {
		fmt.Printf(" (%s %s)", profile.User.FirstName, profile.User.LastName)
	}
	fmt.Println()
	fmt.Printf("Shareable URL: %s\n\n", shareableURL(a.cfg.URL, profile.Slug))

	if len(links) == 0 {
		fmt.Println("No links yet. Add one with 'natively add'.")
		return nil
	}

	fmt.Printf("%-6s %-6s %-8s %-30s %s\n", "ID", "POS", "CLICKS", "TITLE", "URL")
	for i, link := range links {
		fmt.Printf("%-6d %-6d %-8d %-30s %s\n", link.ID, i+1, link.ClickCount, truncate(link.Title, 30), link.URL)
	}
	return nil
}

// shareableURL builds the public page URL for a slug.
func shareableURL(baseURL, slug string) string {
	return fmt.Sprintf("%s/p/%s/", baseURL, slug)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
