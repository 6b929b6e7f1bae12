// Package export writes city search results to GeoJSON, ESRI shapefile and
// XLSX files.
package export

import (
	"encoding/json"
	"io"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/urbanscope/citysearch/pkg/geocode"
)

// FeatureCollection turns results into point features in lon/lat order.
func FeatureCollection(cities []geocode.CityResult) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(cities))}
	for i, c := range cities {
		f := &geojson.Feature{
			ID:       strconv.Itoa(i + 1),
			Geometry: geom.NewPointFlat(geom.XY, []float64{c.Lon, c.Lat}),
			Properties: map[string]any{
				"name":        c.Name,
				"city":        c.City,
				"state":       c.State,
				"country":     c.Country,
				"countryCode": c.CountryCode,
				"displayName": c.DisplayName,
				"flag":        geocode.CountryFlag(c.CountryCode),
			},
		}
		if b := bounds(c.BBox); b != nil {
			f.BBox = b
		}
		fc.Features = append(fc.Features, f)
	}
	return fc
}

// bounds converts the provider's [south, north, west, east] strings.
func bounds(bbox []string) *geom.Bounds {
	if len(bbox) != 4 {
		return nil
	}
	v := make([]float64, 4)
	for i, s := range bbox {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		v[i] = f
	}
	south, north, west, east := v[0], v[1], v[2], v[3]
	return geom.NewBounds(geom.XY).Set(west, south, east, north)
}

// GeoJSON writes results as an indented FeatureCollection.
func GeoJSON(w io.Writer, cities []geocode.CityResult) error {
	data, err := json.MarshalIndent(FeatureCollection(cities), "", "  ")
	if err != nil {
		return eris.Wrap(err, "export: encode geojson")
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return eris.Wrap(err, "export: write geojson")
	}
	return nil
}
