// Command geositemap serves and renders the geo sitemap, the sitemap-index
// fragment and the KML locations document for a site's business locations.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "geositemap",
	Short: "geo sitemap and KML locations for a business site",
	Long: `
geositemap reads business locations from a YAML file, resolves missing
coordinates through a cached geocoder and publishes a geo sitemap pointing
at a KML document with one placemark per location.

All settings come from the environment (SITE_URL, LOCATIONS_FILE,
GEOCODE_PROVIDER, GEOCODE_CACHE_BACKEND, ...).
`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
