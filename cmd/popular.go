package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/urbanscope/citysearch/internal/output"
	"github.com/urbanscope/citysearch/pkg/geocode"
)

var popularCmd = &cobra.Command{
	Use:   "popular [prefix]",
	Short: "List the popular quick-pick cities",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := geocode.LoadPopularCities(cfg.Search.PopularCitiesFile)
		if err != nil {
			return err
		}
		if len(args) == 1 {
			list = geocode.FilterPopular(list, args[0])
		}
		if len(list) == 0 {
			output.NewPrinter(os.Stdout, os.Stderr, true).Warning("No popular city matches %q", args[0])
			return nil
		}
		return output.Popular(os.Stdout, list)
	},
}

func init() {
	rootCmd.AddCommand(popularCmd)
}
