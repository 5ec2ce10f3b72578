package main

import (
	"context"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/geo-sitemap-service/internal/config"
	"github.com/couchcryptid/geo-sitemap-service/internal/observability"
)

var kmlCmd = &cobra.Command{
	Use:   "kml",
	Short: "Render the KML locations document",
	Long:  "Resolves missing coordinates through the geocode cache and writes the KML document.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) ([]byte, error) {
			doc, err := a.pipeline.RunKML(ctx)
			if err != nil {
				return nil, err
			}
			return doc.Render()
		})
	},
}

var sitemapCmd = &cobra.Command{
	Use:   "sitemap",
	Short: "Render the sitemap-index fragment, or the geo sitemap with --geo",
	RunE: func(cmd *cobra.Command, _ []string) error {
		geo, _ := cmd.Flags().GetBool("geo")
		return withApp(cmd, func(ctx context.Context, a *app) ([]byte, error) {
			if geo {
				return a.pipeline.RunGeoSitemap(ctx).Render()
			}
			return a.pipeline.RunSitemap(ctx).Render()
		})
	},
}

// withApp wires the service, renders one document and writes it to --output
// or stdout.
func withApp(cmd *cobra.Command, render func(context.Context, *app) ([]byte, error)) error {
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

	body, err := render(ctx, a)
	if err != nil {
		return err
	}
	out, _ := cmd.Flags().GetString("output")
	return writeOutput(cmd.OutOrStdout(), out, body)
}

func writeOutput(stdout io.Writer, path string, body []byte) error {
	if path == "" || path == "-" {
		_, err := stdout.Write(body)
		return eris.Wrap(err, "write document")
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return eris.Wrapf(err, "write %s", path)
	}
	return nil
}

func init() {
	for _, c := range []*cobra.Command{kmlCmd, sitemapCmd} {
		c.Flags().StringP("output", "o", "", "write to file instead of stdout")
		rootCmd.AddCommand(c)
	}
	sitemapCmd.Flags().Bool("geo", false, "render the geo sitemap instead of the index fragment")
}
