package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/natively/natively-cli/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage Natively configuration",
	Long:  `Manage your Natively CLI configuration, including the backend URL.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration interactively",
	Long:  `Create a new configuration file by prompting for the Natively backend URL.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reader := bufio.NewReader(os.Stdin)

		// Get URL
		fmt.Print("Natively backend URL: ")
		url, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read URL: %w", err)
		}
		url = strings.TrimSpace(url)

		if url == "" {
			return fmt.Errorf("URL is required")
		}

		cfg := &config.Config{URL: url}

		// Determine config path
		configPath := cfgFile
		if configPath == "" {
			defaultPath, err := config.DefaultConfigPath()
			if err != nil {
				return err
			}
			configPath = defaultPath
		}

		if err := config.Save(cfg, configPath); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		if jsonOutput {
			output := map[string]string{
				"status": "success",
				"path":   configPath,
			}
			return json.NewEncoder(os.Stdout).Encode(output)
		}

		fmt.Printf("✓ Configuration saved to %s\n", configPath)
		fmt.Println("  Log in with 'natively login <username>'")
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	Long:  `Show the current configuration with the API token redacted for security.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}

		token := a.session.Token()
		if a.cfg.Token != "" {
			token = a.cfg.Token
		}

		if jsonOutput {
			output := map[string]string{
				"url":   a.cfg.URL,
				"token": redactToken(token),
			}
			return json.NewEncoder(os.Stdout).Encode(output)
		}

		fmt.Printf("URL: %s\n", a.cfg.URL)
		fmt.Printf("Token: %s\n", redactToken(token))
		return nil
	},
}

var configTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Test the connection to the Natively backend",
	Long:  `Verify that the configured URL and credential can reach the backend.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(true)
		if err != nil {
			return err
		}

		if err := a.client.TestConnection(cmd.Context()); err != nil {
			if jsonOutput {
				output := map[string]string{
					"status": "failed",
					"error":  err.Error(),
				}
				_ = json.NewEncoder(os.Stdout).Encode(output)
				return err
			}
			return fmt.Errorf("✗ Connection failed: %w", err)
		}

		if jsonOutput {
			output := map[string]string{
				"status": "success",
				"url":    a.cfg.URL,
			}
			return json.NewEncoder(os.Stdout).Encode(output)
		}

		fmt.Printf("✓ Successfully connected to %s\n", a.cfg.URL)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configTestCmd)
}

// redactToken masks most of the token for security
func redactToken(token string) string {
	if token == "" {
		return "(not logged in)"
	}
	if len(token) <= 8 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
