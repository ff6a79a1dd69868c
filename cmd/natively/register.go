package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/natively/natively-cli/internal/api/apierr"
	"github.com/natively/natively-cli/internal/models"
)

var registerEmail string

// registerCmd represents the register command
var registerCmd = &cobra.Command{
	Use:   "register <username>",
	Short: "Create a new Natively account",
	Long: `Create a new account and log in. The backend reports problems per field
(username, email, password).

Examples:
  natively register alice --email alice@example.com`,
	Args: cobra.ExactArgs(1),
	RunE: runRegister,
}

func init() {
	rootCmd.AddCommand(registerCmd)
	registerCmd.Flags().StringVarP(&registerEmail, "email", "e", "", "Email address")
}

func runRegister(cmd *cobra.Command, args []string) error {
	username := args[0]

	a, err := newApp(false)
	if err != nil {
		return err
	}

	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}

	result, err := a.client.Register(cmd.Context(), &models.RegisterRequest{
		Username: username,
		Email:    registerEmail,
		Password: password,
	})
	if err != nil {
		if fields := apierr.FieldsOf(err); len(fields) > 0 {
			printRegisterFieldErrors(fields)
			return errReported
		}
		return fmt.Errorf("registration failed: %w", err)
	}

	if result.Token != "" {
		if err := a.session.SetCredential(result.Token); err != nil {
			return fmt.Errorf("failed to store credential: %w", err)
		}
	}

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(result)
	}

	fmt.Printf("✓ Account created: %s\n", result.User.Username)
	if result.Token != "" {
		fmt.Println("  You are now logged in")
	}
	return nil
}

// printRegisterFieldErrors renders the backend's per-field messages, keeping
// non_field_errors last.
func printRegisterFieldErrors(fields map[string][]string) {
	names := make([]string, 0, len(fields))
	for name := range fields {
		if name != "non_field_errors" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if _, ok := fields["non_field_errors"]; ok {
		names = append(names, "non_field_errors")
	}

	for _, name := range names {
		for _, msg := range fields[name] {
			if name == "non_field_errors" {
				fmt.Fprintf(os.Stderr, "✗ %s\n", msg)
			} else {
				fmt.Fprintf(os.Stderr, "✗ %s: %s\n", name, msg)
			}
		}
	}
}
