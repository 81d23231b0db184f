package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Jasonmellet/hogeye-seo-publisher-2026/internal/config"
	"github.com/Jasonmellet/hogeye-seo-publisher-2026/internal/gate"
	"github.com/Jasonmellet/hogeye-seo-publisher-2026/internal/markup"
	"github.com/Jasonmellet/hogeye-seo-publisher-2026/pkg/exitcode"
	"github.com/Jasonmellet/hogeye-seo-publisher-2026/pkg/logger"
)

func newValidateCmd() *cobra.Command {
	var (
		typeFlag    string
		profilePath string
		faqCount    int
		minImages   int
		maxImages   int
	)

	cmd := &cobra.Command{
		Use:   "validate <path>",
		Short: "Run the mutation and validation gate locally, no network",
		Long: `Validate loads content items, applies the same idempotent layout
mutations the publish pipeline would, and runs every validation check.
Nothing talks to WordPress, so unresolved link placeholders are
reported as-is.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := config.LoadProfile(profilePath)
			if err != nil {
				return exitWith(exitcode.ConfigError, err)
			}
			applyProfileFlags(cmd.Flags(), profile, minImages, maxImages, faqCount)

			items, loadErrs := loadItems(args[0], typeFlag)
			for _, le := range loadErrs {
				logger.Error("skipping item", logger.Err(le))
			}
			if len(items) == 0 {
				return exitWith(exitcode.ValidationError, errors.New("no loadable content items found"))
			}

			failedItems := 0
			for _, item := range items {
				body, report, err := markup.Apply(item.Body, item, markup.Options{
					EnableTOC:        item.EnableTOC,
					TOCWordThreshold: profile.TOCWordThreshold,
					MinImages:        profile.MinImages,
					MaxImages:        profile.MaxImages,
				})
				if err != nil {
					failedItems++
					fmt.Fprintf(cmd.OutOrStdout(), "%s: FAIL\n  %v\n", item.Slug, err)
					continue
				}

				verdict := gate.Run(&gate.Subject{Item: item, Body: body}, gate.Options{
					MinImages:     profile.MinImages,
					MaxImages:     profile.MaxImages,
					FaqCountExact: profile.FaqCountExact,
				})

				if verdict.Passed {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", item.Slug)
				} else {
					failedItems++
					fmt.Fprintf(cmd.OutOrStdout(), "%s: FAIL\n", item.Slug)
					for _, f := range verdict.Failures {
						fmt.Fprintf(cmd.OutOrStdout(), "  fail: %s\n", f)
					}
				}
				for _, w := range report.Warnings {
					fmt.Fprintf(cmd.OutOrStdout(), "  warn: %s\n", w)
				}
			}

			if failedItems > 0 || len(loadErrs) > 0 {
				return exitWith(exitcode.ValidationError,
					fmt.Errorf("%d of %d item(s) failed validation", failedItems+len(loadErrs), len(items)+len(loadErrs)))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&typeFlag, "type", "", "Content type: pages or posts (default inferred from path)")
	cmd.Flags().StringVar(&profilePath, "profile", "", "Publish profile path (default "+config.DefaultProfilePath+")")
	cmd.Flags().IntVar(&faqCount, "faq-count", 0, "Enforce an exact FAQ question count (0 disables)")
	cmd.Flags().IntVar(&minImages, "min-images", 0, "Minimum in-body images (overrides profile)")
	cmd.Flags().IntVar(&maxImages, "max-images", 0, "Maximum in-body images (overrides profile)")
	return cmd
}
