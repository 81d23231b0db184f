package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Jasonmellet/hogeye-seo-publisher-2026/internal/config"
	"github.com/Jasonmellet/hogeye-seo-publisher-2026/internal/content"
	"github.com/Jasonmellet/hogeye-seo-publisher-2026/internal/preflight"
	"github.com/Jasonmellet/hogeye-seo-publisher-2026/internal/publish"
	"github.com/Jasonmellet/hogeye-seo-publisher-2026/internal/wp"
	"github.com/Jasonmellet/hogeye-seo-publisher-2026/pkg/exitcode"
	"github.com/Jasonmellet/hogeye-seo-publisher-2026/pkg/logger"
)

func newPublishCmd() *cobra.Command {
	var (
		typeFlag      string
		statusFlag    string
		profilePath   string
		clientCfgPath string
		dryRun        bool
		confirm       bool
		resolveLinks  bool
		minImages     int
		maxImages     int
	)

	cmd := &cobra.Command{
		Use:   "publish <path>",
		Short: "Publish a content JSON file or directory to WordPress",
		Long: `Publish runs the full pipeline for each content item: normalize,
resolve the existing entity by slug, apply idempotent layout mutations,
validate, and write. Updates snapshot the current remote state to the
backup directory before any write. Writes are draft-first: publishing
live content requires --confirm.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			envPath, _ := cmd.Flags().GetString("env")
			settings, err := config.Load(envPath)
			if err != nil {
				return exitWith(exitcode.ConfigError, err)
			}
			if err := settings.Validate(); err != nil {
				return exitWith(exitcode.ConfigError, err)
			}
			profile, err := config.LoadProfile(profilePath)
			if err != nil {
				return exitWith(exitcode.ConfigError, err)
			}
			applyProfileFlags(cmd.Flags(), profile, minImages, maxImages, 0)

			clientCfg, err := preflight.LoadClientConfig(clientCfgPath)
			if err != nil {
				return exitWith(exitcode.ConfigError, err)
			}
			if err := clientCfg.CheckTarget(settings.Site.URL); err != nil {
				return exitWith(exitcode.PublishBlocked, fmt.Errorf("publish blocked: %w", err))
			}

			status, err := parseStatus(statusFlag)
			if err != nil {
				return exitWith(exitcode.ConfigError, err)
			}

			items, loadErrs := loadItems(args[0], typeFlag)
			for _, le := range loadErrs {
				logger.Error("skipping item", logger.Err(le))
			}
			if len(items) == 0 {
				return exitWith(exitcode.ValidationError, errors.New("no loadable content items found"))
			}

			client := wp.NewClient(wp.Config{
				SiteURL:     settings.Site.URL,
				Username:    settings.Site.Username,
				AppPassword: settings.Site.AppPassword,
				Timeout:     settings.Timeout,
			})
			orchestrator := publish.New(publish.Deps{
				Client:    client,
				Resolver:  wp.NewResolver(client),
				Media:     wp.NewMediaFinder(client),
				Tax:       wp.NewTaxonomies(client),
				Profile:   profile,
				ClientCfg: clientCfg,
			}, publish.Options{
				Status:       status,
				Confirm:      confirm,
				DryRun:       dryRun || settings.DryRun,
				ResolveLinks: resolveLinks,
			})

			results := orchestrator.Run(cmd.Context(), items)
			publish.RenderReport(cmd.OutOrStdout(), results)

			return batchVerdict(results, len(loadErrs))
		},
	}

	cmd.Flags().StringVar(&typeFlag, "type", "", "Content type: pages or posts (default inferred from path)")
	cmd.Flags().StringVar(&statusFlag, "status", "draft", "Target status: draft, publish, pending, or private")
	cmd.Flags().StringVar(&profilePath, "profile", "", "Publish profile path (default "+config.DefaultProfilePath+")")
	cmd.Flags().StringVar(&clientCfgPath, "client-config", "", "Client guardrail config (default "+preflight.DefaultClientConfigPath+")")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Run everything except the WordPress write")
	cmd.Flags().BoolVar(&confirm, "confirm", false, "Allow status=publish writes (draft-first otherwise)")
	cmd.Flags().BoolVar(&resolveLinks, "resolve-links", false, "Resolve {{link:...}} placeholders against the site's slug map")
	cmd.Flags().IntVar(&minImages, "min-images", 0, "Minimum in-body images (overrides profile)")
	cmd.Flags().IntVar(&maxImages, "max-images", 0, "Maximum in-body images (overrides profile)")
	return cmd
}

// applyProfileFlags overlays explicitly set flags onto the loaded profile
// without clobbering file-configured values.
func applyProfileFlags(flags *pflag.FlagSet, profile *config.Profile, minImages, maxImages, faqCount int) {
	if flags.Changed("min-images") {
		profile.MinImages = minImages
	}
	if flags.Changed("max-images") {
		profile.MaxImages = maxImages
	}
	if flags.Changed("faq-count") {
		profile.FaqCountExact = faqCount
	}
}

func parseStatus(s string) (content.Status, error) {
	switch content.Status(strings.ToLower(s)) {
	case content.StatusDraft:
		return content.StatusDraft, nil
	case content.StatusPublish:
		return content.StatusPublish, nil
	case content.StatusPending:
		return content.StatusPending, nil
	case content.StatusPrivate:
		return content.StatusPrivate, nil
	}
	return "", fmt.Errorf("invalid status %q, want draft, publish, pending, or private", s)
}

// inferType picks the content type from an explicit flag or, failing
// that, from the conventional content/pages vs content/posts layout.
func inferType(flag, path string) (content.Type, error) {
	if flag != "" {
		ct := content.Type(flag)
		if !ct.Valid() {
			return "", fmt.Errorf("invalid content type %q, want pages or posts", flag)
		}
		return ct, nil
	}
	if strings.Contains(strings.ReplaceAll(path, "\\", "/"), "/pages") {
		return content.TypePage, nil
	}
	return content.TypePost, nil
}

func loadItems(path, typeFlag string) ([]*content.Item, []error) {
	ct, err := inferType(typeFlag, path)
	if err != nil {
		return nil, []error{err}
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, []error{err}
	}
	if info.IsDir() {
		return content.LoadDir(path, ct, nil)
	}
	item, err := content.Load(path, ct)
	if err != nil {
		return nil, []error{err}
	}
	return []*content.Item{item}, nil
}

// batchVerdict maps batch results to the process exit code: timeouts
// beat plain network trouble, which beats local filesystem trouble,
// which beats validation trouble. Full success is zero.
func batchVerdict(results []*publish.ItemResult, loadErrs int) error {
	var failed, network, timeouts, backups int
	for _, r := range results {
		if r.Err != nil {
			var be *publish.BackupError
			switch {
			case errors.Is(r.Err, wp.ErrTimeout):
				timeouts++
			case errors.Is(r.Err, wp.ErrUnavailable):
				network++
			case errors.As(r.Err, &be):
				backups++
			}
			failed++
			continue
		}
		if !r.OK() {
			failed++
		}
	}
	switch {
	case timeouts > 0:
		return exitWith(exitcode.TimeoutError, fmt.Errorf("%d item(s) timed out", timeouts))
	case network > 0:
		return exitWith(exitcode.NetworkError, fmt.Errorf("%d item(s) hit network errors", network))
	case backups > 0:
		return exitWith(exitcode.FileSystemError, fmt.Errorf("%d item(s) could not write a backup", backups))
	case failed > 0 || loadErrs > 0:
		return exitWith(exitcode.ValidationError, fmt.Errorf("%d of %d item(s) did not fully succeed", failed+loadErrs, len(results)+loadErrs))
	}
	return nil
}
