package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var forceDelete bool

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a link from your page",
	Long: `Delete a link by ID. Requires confirmation unless --force or --json is set.

If the link was already deleted elsewhere, the local view is refreshed from
the backend instead of failing.

Examples:
  natively delete 123
  natively delete 123 --force`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().BoolVarP(&forceDelete, "force", "f", false, "skip confirmation prompt")
}

func runDelete(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid link ID: %s (must be a number)", args[0])
	}

	a, err := newApp(true)
	if err != nil {
		return err
	}

	if err := a.manager.Load(cmd.Context()); err != nil {
		return errReported
	}

	// Show link details and ask for confirmation (unless force or json mode)
	if !forceDelete && !jsonOutput {
		for _, link := range a.manager.Links() {
			if link.ID == id {
				fmt.Printf("About to delete link:\n")
				fmt.Printf("  ID:    %d\n", link.ID)
				fmt.Printf("  Title: %s\n", link.Title)
				fmt.Printf("  URL:   %s\n", link.URL)
				break
			}
		}
		fmt.Printf("\nAre you sure? (y/N): ")

		reader := bufio.NewReader(os.Stdin)
		response, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Println("Delete cancelled")
			return nil
		}
	}

	if err := a.manager.Delete(cmd.Context(), id); err != nil {
		return errReported
	}

	if jsonOutput {
		fmt.Printf("{\"deleted\": true, \"id\": %d}\n", id)
	}
	return nil
}
