package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/Jasonmellet/hogeye-seo-publisher-2026/pkg/buildinfo"
	"github.com/Jasonmellet/hogeye-seo-publisher-2026/pkg/exitcode"
	"github.com/Jasonmellet/hogeye-seo-publisher-2026/pkg/logger"
)

// newRootCommand creates a fresh root command instance. The factory
// pattern lets tests build isolated command trees without shared state.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publisher",
		Short: "Safety-first WordPress content publishing pipeline",
		Long: `Publisher turns structured content JSON into WordPress pages and posts:
it normalizes each item, resolves what already exists on the site, applies
idempotent layout mutations (TOC, FAQ, CTA, in-body images), validates the
result, and writes draft-first with a local backup before every update.

Examples:
   publisher publish content/posts/owl-care.json   # Publish one item (draft-first)
   publisher publish content/posts --dry-run       # Validate a batch, no writes
   publisher validate content/pages/about.json     # Local checks only
   publisher preflight                             # Verify target site guardrails`,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			initializeLogger(cmd)
		},
	}

	cmd.PersistentFlags().String("log-level", "info", "Set log level (debug|info|warn|error)")
	cmd.PersistentFlags().Bool("json", false, "Output logs in JSON format")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	cmd.PersistentFlags().String("env", "", "Path to dotenv file (default .env)")

	cmd.Version = buildinfo.BinaryVersion
	cmd.SetVersionTemplate("publisher {{.Version}}\n")

	return cmd
}

// registerSubcommands adds all subcommands to the root command.
func registerSubcommands(cmd *cobra.Command) {
	cmd.AddCommand(versionCmd)
	cmd.AddCommand(newPublishCmd())
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newLinksCmd())
	cmd.AddCommand(newPreflightCmd())
}

var rootCmd = newRootCommand()

// exitError carries a specific process exit code out of a RunE.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func exitWith(code int, err error) error {
	return &exitError{code: code, err: err}
}

// Execute runs the root command. Called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		code := exitcode.GeneralError
		var ee *exitError
		if errors.As(err, &ee) {
			code = ee.code
		}
		logger.Error("command failed", logger.Err(err))
		os.Exit(code)
	}
}

func init() {
	registerSubcommands(rootCmd)
}

func initializeLogger(cmd *cobra.Command) {
	levelStr, _ := cmd.Flags().GetString("log-level")
	jsonLogs, _ := cmd.Flags().GetBool("json")
	noColor, _ := cmd.Flags().GetBool("no-color")

	if err := logger.Initialize(logger.Config{
		Level:     logger.ParseLevel(levelStr),
		UseColor:  !noColor,
		JSON:      jsonLogs,
		Component: "publisher",
	}); err != nil {
		os.Stderr.WriteString("failed to initialize logger: " + err.Error() + "\n")
		os.Exit(exitcode.ConfigError)
	}
}
