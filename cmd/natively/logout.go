package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// logoutCmd represents the logout command
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and discard the stored API token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}

		if err := a.session.ClearCredential(); err != nil {
			return fmt.Errorf("failed to clear credential: %w", err)
		}

		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(map[string]string{"status": "logged_out"})
		}

		fmt.Println("✓ Logged out")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
