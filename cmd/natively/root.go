package main

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/natively/natively-cli/internal/api"
	"github.com/natively/natively-cli/internal/api/apierr"
	"github.com/natively/natively-cli/internal/collection"
	"github.com/natively/natively-cli/internal/config"
	"github.com/natively/natively-cli/internal/logging"
	"github.com/natively/natively-cli/internal/notify"
	"github.com/natively/natively-cli/internal/session"
)

var (
	cfgFile    string
	jsonOutput bool
	debugMode  bool
	flagURL    string
	flagToken  string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "natively",
	Short: "Natively CLI - Manage your link-in-bio page from the command line",
	Long: `natively is a command-line interface for the Natively link-in-bio service.

Configure your backend connection with 'natively config init' and log in with
'natively login', then use commands like 'natively add', 'natively list' and
'natively move' to manage the links on your page.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// errReported marks failures already surfaced through the notification
// channel or as inline field errors; Execute exits non-zero without
// repeating them.
var errReported = errors.New("error already reported")

// Execute runs the root command
func Execute() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default ~/.config/natively/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON instead of human-readable")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagURL, "url", "", "Natively backend URL (overrides config and env)")
	rootCmd.PersistentFlags().StringVar(&flagToken, "token", "", "API token (overrides config and env)")
}

// loadConfig loads the configuration from file and environment variables,
// then applies CLI flag overrides if provided.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)

	// If config loading failed but we have a URL from CLI flags, we can
	// proceed without a config file
	if err != nil {
		if flagURL != "" {
			return &config.Config{URL: flagURL, Token: flagToken}, nil
		}
		return nil, err
	}

	// Apply CLI flag overrides (highest precedence)
	if flagURL != "" {
		cfg.URL = flagURL
	}
	if flagToken != "" {
		cfg.Token = flagToken
	}

	return cfg, nil
}

// app bundles the wired components behind each command. Everything is
// constructed here and passed explicitly; no package-level state beyond the
// cobra plumbing above.
type app struct {
	cfg      *config.Config
	session  *session.Session
	client   *api.Client
	notifier *notify.Notifier
	manager  *collection.Manager
	log      *zap.Logger
}

// newApp wires configuration, session, client, notifier and manager. When
// requireAuth is set, a missing credential is an immediate error.
func newApp(requireAuth bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	store, err := config.NewTokenStore(cfgFile)
	if err != nil {
		return nil, err
	}
	sess, err := session.New(store)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	// A token from flag, env or config file overrides the persisted session
	// credential for this invocation only.
	token := sess.Token()
	if cfg.Token != "" {
		token = cfg.Token
	}
	if requireAuth && token == "" {
		return nil, fmt.Errorf("not logged in. Run 'natively login'")
	}

	logger, err := logging.New(debugMode)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	client := api.NewClient(cfg.URL, token)
	notifier := notify.New(0, printNotification)
	manager := collection.NewManager(client, sess, notifier, logger)
	// In a terminal the expiry message stays on screen, so the follow-up
	// guidance does not need the on-screen read delay.
	manager.SetAuthExpiryDelay(0)
	manager.SetAuthExpiredHook(func() {
		fmt.Fprintln(os.Stderr, "Run 'natively login' to start a new session")
	})

	return &app{
		cfg:      cfg,
		session:  sess,
		client:   client,
		notifier: notifier,
		manager:  manager,
		log:      logger,
	}, nil
}

// printNotification renders the notification channel onto the terminal.
// Successes go to stdout, warnings and errors to stderr.
func printNotification(n notify.Notification) {
	if !n.Open {
		return
	}
	switch n.Severity {
	case notify.SeveritySuccess:
		fmt.Printf("✓ %s\n", n.Message)
	case notify.SeverityWarning:
		fmt.Fprintf(os.Stderr, "⚠ %s\n", n.Message)
	default:
		fmt.Fprintf(os.Stderr, "✗ %s\n", n.Message)
	}
}

// reportValidation prints per-field validation messages inline and reports
// whether err was a validation failure. Validation problems never raise
// notifications.
func reportValidation(err error) bool {
	if !apierr.IsValidation(err) {
		return false
	}
	fields := apierr.FieldsOf(err)
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, msg := range fields[name] {
			fmt.Fprintf(os.Stderr, "✗ %s: %s\n", name, msg)
		}
	}
	return true
}
