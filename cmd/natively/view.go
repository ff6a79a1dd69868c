package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/natively/natively-cli/internal/public"
)

var viewOpen int

// viewCmd represents the view command
var viewCmd = &cobra.Command{
	Use:   "view <slug>",
	Short: "View a public Natively page",
	Long: `Fetch a public page by its slug. No login required.

With --open, record a click for the given link and open its destination in
the browser. The destination opens even if click tracking fails.

Examples:
  natively view alice
  natively view alice --open 123`,
	Args: cobra.ExactArgs(1),
	RunE: runView,
}

func init() {
	rootCmd.AddCommand(viewCmd)
	viewCmd.Flags().IntVar(&viewOpen, "open", 0, "link ID to visit (records a click and opens the browser)")
}

func runView(cmd *cobra.Command, args []string) error {
	slug := args[0]

	a, err := newApp(false)
	if err != nil {
		return err
	}

	resolver := public.NewResolver(a.client, a.notifier, public.OpenerFunc(openBrowser), a.log)

	profile, err := resolver.ResolveSlug(cmd.Context(), slug)
	if err != nil {
		return err
	}

	if viewOpen > 0 {
		if err := resolver.VisitLink(cmd.Context(), profile, viewOpen); err != nil {
			return err
		}
		if !jsonOutput {
			fmt.Printf("✓ Opened link %d\n", viewOpen)
		}
		return nil
	}

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(profile)
	}

	fmt.Printf("@%s\n", profile.User.Username)
	if profile.User.FirstName != "" && profile.User.LastName != "" {
		fmt.Printf("%s %s\n", profile.User.FirstName, profile.User.LastName)
	}
	fmt.Println()

	if len(profile.Links) == 0 {
		fmt.Println("This user hasn't added any links yet.")
		return nil
	}

	for _, link := range profile.Links {
		fmt.Printf("%-6d %-30s %s\n", link.ID, truncate(link.Title, 30), link.URL)
	}
	return nil
}

// openBrowser opens a URL with the platform's default handler.
func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
