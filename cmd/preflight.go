package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Jasonmellet/hogeye-seo-publisher-2026/internal/config"
	"github.com/Jasonmellet/hogeye-seo-publisher-2026/internal/preflight"
	"github.com/Jasonmellet/hogeye-seo-publisher-2026/internal/wp"
	"github.com/Jasonmellet/hogeye-seo-publisher-2026/pkg/exitcode"
	"github.com/Jasonmellet/hogeye-seo-publisher-2026/pkg/logger"
)

func newPreflightCmd() *cobra.Command {
	var (
		clientCfgPath string
		checkSite     bool
	)

	cmd := &cobra.Command{
		Use:   "preflight",
		Short: "Verify the configured target matches the committed guardrails",
		Long: `Preflight compares the environment's WP_SITE_URL against the committed
client.config.json and reports a mismatch before anything can be
published to the wrong site. With --check-site it also fetches the live
site title and compares it to expectedWpSiteName.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			envPath, _ := cmd.Flags().GetString("env")
			settings, err := config.Load(envPath)
			if err != nil {
				return exitWith(exitcode.ConfigError, err)
			}
			if err := settings.Validate(); err != nil {
				return exitWith(exitcode.ConfigError, err)
			}

			clientCfg, err := preflight.LoadClientConfig(clientCfgPath)
			if err != nil {
				return exitWith(exitcode.ConfigError, err)
			}
			if err := clientCfg.CheckTarget(settings.Site.URL); err != nil {
				return exitWith(exitcode.PublishBlocked, fmt.Errorf("publish blocked: %w", err))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "client:      %s (%s)\n", clientCfg.ClientName, clientCfg.Environment)
			fmt.Fprintf(out, "target:      %s\n", settings.Site.URL)
			fmt.Fprintf(out, "guardrails:  ok\n")

			if checkSite {
				client := wp.NewClient(wp.Config{
					SiteURL:     settings.Site.URL,
					Username:    settings.Site.Username,
					AppPassword: settings.Site.AppPassword,
					Timeout:     settings.Timeout,
				})
				title, err := client.SiteTitle(cmd.Context())
				if err != nil {
					return exitWith(exitcode.NetworkError, fmt.Errorf("fetching site title: %w", err))
				}
				fmt.Fprintf(out, "site title:  %s\n", title)
				if clientCfg.ExpectedWpSiteName != "" &&
					!strings.EqualFold(strings.TrimSpace(title), strings.TrimSpace(clientCfg.ExpectedWpSiteName)) {
					logger.Warn("site title does not match expectedWpSiteName",
						logger.String("detected", title),
						logger.String("expected", clientCfg.ExpectedWpSiteName))
					return exitWith(exitcode.PublishBlocked,
						fmt.Errorf("publish blocked: detected site name %q does not match expectedWpSiteName %q", title, clientCfg.ExpectedWpSiteName))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&clientCfgPath, "client-config", "", "Client guardrail config (default "+preflight.DefaultClientConfigPath+")")
	cmd.Flags().BoolVar(&checkSite, "check-site", false, "Fetch the live site title and compare to expectedWpSiteName")
	return cmd
}
