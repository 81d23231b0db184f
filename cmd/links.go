package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Jasonmellet/hogeye-seo-publisher-2026/internal/config"
	"github.com/Jasonmellet/hogeye-seo-publisher-2026/internal/links"
	"github.com/Jasonmellet/hogeye-seo-publisher-2026/internal/preflight"
	"github.com/Jasonmellet/hogeye-seo-publisher-2026/internal/wp"
	"github.com/Jasonmellet/hogeye-seo-publisher-2026/pkg/exitcode"
	"github.com/Jasonmellet/hogeye-seo-publisher-2026/pkg/logger"
)

func newLinksCmd() *cobra.Command {
	var (
		typeFlag      string
		resolve       bool
		clientCfgPath string
	)

	cmd := &cobra.Command{
		Use:   "links <path>",
		Short: "List or resolve {{link:...}} placeholders in content items",
		Long: `Links lists the internal-link placeholders each content item carries.
With --resolve it also builds the site's slug map over the REST API and
reports which targets resolve to live URLs and which are missing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, loadErrs := loadItems(args[0], typeFlag)
			for _, le := range loadErrs {
				logger.Error("skipping item", logger.Err(le))
			}
			if len(items) == 0 {
				return exitWith(exitcode.ValidationError, errors.New("no loadable content items found"))
			}

			var linkMap *links.Map
			if resolve {
				envPath, _ := cmd.Flags().GetString("env")
				settings, err := config.Load(envPath)
				if err != nil {
					return exitWith(exitcode.ConfigError, err)
				}
				if err := settings.Validate(); err != nil {
					return exitWith(exitcode.ConfigError, err)
				}
				var aliases map[string]string
				if clientCfg, err := preflight.LoadClientConfig(clientCfgPath); err == nil {
					aliases = clientCfg.LinkAliases
				}
				client := wp.NewClient(wp.Config{
					SiteURL:     settings.Site.URL,
					Username:    settings.Site.Username,
					AppPassword: settings.Site.AppPassword,
					Timeout:     settings.Timeout,
				})
				siteSlugs, err := wp.NewResolver(client).SlugMap(cmd.Context())
				if err != nil {
					return exitWith(exitcode.NetworkError, err)
				}
				linkMap = links.NewMap(siteSlugs, aliases)
				fmt.Fprintf(cmd.OutOrStdout(), "slug map: %d known target(s)\n", linkMap.Len())
			}

			unresolvedTotal := 0
			for _, item := range items {
				slugs := links.Placeholders(item.Body)
				if len(slugs) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: no placeholders\n", item.Slug)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d placeholder(s)\n", item.Slug, len(slugs))
				if linkMap == nil {
					for _, slug := range slugs {
						fmt.Fprintf(cmd.OutOrStdout(), "  {{link:%s}}\n", slug)
					}
					continue
				}
				_, unresolved := linkMap.Resolve(item.Body)
				for _, slug := range slugs {
					if url, ok := linkMap.URL(slug); ok {
						fmt.Fprintf(cmd.OutOrStdout(), "  %s -> %s\n", slug, url)
					}
				}
				for _, slug := range unresolved {
					unresolvedTotal++
					fmt.Fprintf(cmd.OutOrStdout(), "  %s -> UNRESOLVED\n", slug)
				}
			}

			if unresolvedTotal > 0 {
				return exitWith(exitcode.ValidationError, fmt.Errorf("%d unresolved link target(s)", unresolvedTotal))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&typeFlag, "type", "", "Content type: pages or posts (default inferred from path)")
	cmd.Flags().BoolVar(&resolve, "resolve", false, "Resolve targets against the live site's slug map")
	cmd.Flags().StringVar(&clientCfgPath, "client-config", "", "Client guardrail config for link aliases")
	return cmd
}
