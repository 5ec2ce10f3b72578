package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/geo-sitemap-service/internal/config"
	"github.com/couchcryptid/geo-sitemap-service/internal/domain"
	"github.com/couchcryptid/geo-sitemap-service/internal/observability"
	"github.com/couchcryptid/geo-sitemap-service/internal/pipeline"
)

var geocodeCmd = &cobra.Command{
	Use:   "geocode",
	Short: "Resolve and write back coordinates for every location",
	Long: `
Resolves coordinates for locations that have none and writes them back to the
locations file. With --force every location is looked up again, bypassing the
cache.
`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		force, _ := cmd.Flags().GetBool("force")

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger := observability.NewCLILogger(cfg.LogLevel, cfg.LogFormat)
		ctx := cmd.Context()

		a, err := newApp(ctx, cfg, logger, observability.NewMetrics())
		if err != nil {
			return err
		}
		defer a.close()

		if !a.cache.Enabled() {
			logger.Warn("no geocode provider configured, only cached coordinates can be applied")
		}

		var bar *progressbar.ProgressBar
		if isatty.IsTerminal(os.Stderr.Fd()) {
			records, _, err := a.repo.Load(ctx)
			if err != nil {
				return err
			}
			bar = progressbar.NewOptions(len(records),
				progressbar.OptionSetDescription("Geocoding"),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}

		summary, err := a.pipeline.Backfill(ctx, force, func(domain.LocationRecord, pipeline.Outcome) {
			if bar != nil {
				_ = bar.Add(1)
			}
		})
		if bar != nil {
			_ = bar.Finish()
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%d locations: %d resolved, %d cached, %d failed, %d skipped\n",
			summary.Total, summary.Resolved, summary.Cached, summary.Failed, summary.Skipped)
		return nil
	},
}

var touchCmd = &cobra.Command{
	Use:   "touch",
	Short: "Record that the locations changed and notify subscribers",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger := observability.NewCLILogger(cfg.LogLevel, cfg.LogFormat)
		ctx := cmd.Context()

		a, err := newApp(ctx, cfg, logger, observability.NewMetrics())
		if err != nil {
			return err
		}
		defer a.close()

		return a.pipeline.MarkUpdated(ctx)
	},
}

func init() {
	geocodeCmd.Flags().Bool("force", false, "look up every location again, ignoring cached and stored coordinates")
	rootCmd.AddCommand(geocodeCmd, touchCmd)
}
