package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/urbanscope/citysearch/internal/output"
	"github.com/urbanscope/citysearch/pkg/geocode"
)

var reverseCmd = &cobra.Command{
	Use:   "reverse <lat> <lon>",
	Short: "Find the city at a coordinate",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lat, lon, err := argCoordinates(args[0], args[1])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		writeReverse(os.Stdout, output.NewPrinter(os.Stdout, os.Stderr, true), lat, lon, env.Client.ReverseGeocode(ctx, lat, lon))
		return nil
	},
}

func writeReverse(w io.Writer, p *output.Printer, lat, lon float64, res *geocode.ReverseResult) {
	if res == nil {
		p.Warning("No city found at %s, %s", output.Coord(lat), output.Coord(lon))
		return
	}
	fmt.Fprintln(w, res.DisplayName) //nolint:errcheck
	if res.State != "" {
		p.Hint("%s / %s / %s", res.City, res.State, res.Country)
	}
}

func init() {
	rootCmd.AddCommand(reverseCmd)
}
