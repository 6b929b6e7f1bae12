package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/urbanscope/citysearch/pkg/geocode"
)

var distanceCmd = &cobra.Command{
	Use:   "distance <lat1> <lon1> <lat2> <lon2>",
	Short: "Great-circle distance between two points in km",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		km, err := distanceArgs(args)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%.1f km\n", km)
		return err
	},
}

func distanceArgs(args []string) (float64, error) {
	lat1, lon1, err := argCoordinates(args[0], args[1])
	if err != nil {
		return 0, err
	}
	lat2, lon2, err := argCoordinates(args[2], args[3])
	if err != nil {
		return 0, err
	}
	return geocode.DistanceChecked(lat1, lon1, lat2, lon2)
}

func init() {
	rootCmd.AddCommand(distanceCmd)
}
