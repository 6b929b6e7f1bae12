package main

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/urbanscope/citysearch/internal/export"
	"github.com/urbanscope/citysearch/internal/output"
	"github.com/urbanscope/citysearch/internal/paginate"
	"github.com/urbanscope/citysearch/pkg/geocode"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search cities by name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		page, _ := cmd.Flags().GetInt("page")
		perPage, _ := cmd.Flags().GetInt("per-page")
		format, _ := cmd.Flags().GetString("format")
		exportPath, _ := cmd.Flags().GetString("export")
		if perPage == 0 {
			perPage = cfg.Search.PerPage
		}

		query := strings.Join(args, " ")
		results := env.Client.SearchCities(ctx, query)
		zap.L().Debug("search complete", zap.String("query", query), zap.Int("results", len(results)))

		if exportPath != "" {
			if err := export.WriteFile(exportPath, results); err != nil {
				return err
			}
			output.NewPrinter(os.Stderr, os.Stderr, true).Success("wrote %d cities to %s", len(results), exportPath)
		}

		return writeSearch(os.Stdout, output.NewPrinter(os.Stdout, os.Stderr, true), query, results, page, perPage, format)
	},
}

// writeSearch renders one page of results in the requested format.
func writeSearch(w io.Writer, p *output.Printer, query string, results []geocode.CityResult, page, perPage int, format string) error {
	pg := paginate.Of(results, page, perPage)

	switch format {
	case "", "table":
		if len(results) == 0 {
			p.NoResults(query)
			return nil
		}
		if len(pg.Items) == 0 {
			p.Warning("page %d is past the last page (%d)", page, pg.LastPage)
			return nil
		}
		return output.Cities(w, pg)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(pg), "search: encode json")
	case "geojson":
		return export.GeoJSON(w, pg.Items)
	default:
		return eris.Errorf("search: unknown format %q (table, json, geojson)", format)
	}
}

func init() {
	searchCmd.Flags().Int("page", paginate.StartPage(), "result page")
	searchCmd.Flags().Int("per-page", 0, "results per page (default from config)")
	searchCmd.Flags().String("format", "table", "output format: table, json, geojson")
	searchCmd.Flags().String("export", "", "also write all results to a .shp, .geojson or .xlsx file")
	rootCmd.AddCommand(searchCmd)
}
