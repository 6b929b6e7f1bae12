package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbanscope/citysearch/internal/output"
	"github.com/urbanscope/citysearch/pkg/geocode"
)

func sampleCities(n int) []geocode.CityResult {
	out := make([]geocode.CityResult, n)
	for i := range out {
		out[i] = geocode.CityResult{
			Name:        "Springfield, Illinois, United States",
			City:        "Springfield",
			State:       "Illinois",
			Country:     "United States",
			CountryCode: "US",
			Lat:         39.7817,
			Lon:         -89.6501,
			DisplayName: "Springfield, Illinois, United States",
		}
	}
	return out
}

func plainPrinter(buf *bytes.Buffer) *output.Printer {
	return output.NewPrinter(buf, buf, false)
}

func TestWriteSearch_Table(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeSearch(&buf, plainPrinter(&buf), "springfield", sampleCities(5), 2, 3, "table"))

	out := buf.String()
	assert.Contains(t, out, "Springfield")
	assert.Contains(t, out, "39.7817, -89.6501")
	assert.Contains(t, out, "Page 2 of 2 (5 found)")
}

func TestWriteSearch_NoResults(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeSearch(&buf, plainPrinter(&buf), "Xyzzy", nil, 1, 8, "table"))
	assert.Contains(t, buf.String(), `No cities found for "Xyzzy"`)
}

func TestWriteSearch_PastLastPage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeSearch(&buf, plainPrinter(&buf), "springfield", sampleCities(3), 4, 3, ""))
	assert.Contains(t, buf.String(), "page 4 is past the last page (1)")
}

func TestWriteSearch_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeSearch(&buf, plainPrinter(&buf), "springfield", sampleCities(5), 1, 2, "json"))

	var page struct {
		Items    []geocode.CityResult `json:"items"`
		Page     int                  `json:"page"`
		LastPage int                  `json:"last_page"`
		Total    int                  `json:"total"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &page))
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 3, page.LastPage)
	assert.Equal(t, 5, page.Total)
}

func TestWriteSearch_GeoJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeSearch(&buf, plainPrinter(&buf), "springfield", sampleCities(1), 1, 8, "geojson"))
	assert.Contains(t, buf.String(), "FeatureCollection")
	assert.Contains(t, buf.String(), "-89.6501")
}

func TestWriteSearch_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := writeSearch(&buf, plainPrinter(&buf), "springfield", sampleCities(1), 1, 8, "csv")
	assert.ErrorContains(t, err, "unknown format")
}

func TestWriteReverse(t *testing.T) {
	var buf bytes.Buffer
	writeReverse(&buf, plainPrinter(&buf), 48.8566, 2.3522, &geocode.ReverseResult{
		City:        "Paris",
		State:       "Île-de-France",
		Country:     "France",
		DisplayName: "Paris, Île-de-France, France",
	})
	assert.Contains(t, buf.String(), "Paris, Île-de-France, France\n")
	assert.Contains(t, buf.String(), "Paris / Île-de-France / France")

	buf.Reset()
	writeReverse(&buf, plainPrinter(&buf), 0, 0, nil)
	assert.Equal(t, "! No city found at 0.0000, 0.0000\n", buf.String())
}

func TestDistanceArgs(t *testing.T) {
	km, err := distanceArgs([]string{"40.7128", "-74.0060", "51.5074", "-0.1278"})
	require.NoError(t, err)
	assert.InDelta(t, 5570, km, 20)

	_, err = distanceArgs([]string{"40.7128", "-74.0060", "51.5074", "181"})
	assert.ErrorIs(t, err, geocode.ErrValidation)
}

func TestDistanceCommand_Output(t *testing.T) {
	var buf bytes.Buffer
	distanceCmd.SetOut(&buf)
	t.Cleanup(func() { distanceCmd.SetOut(nil) })

	require.NoError(t, distanceCmd.RunE(distanceCmd, []string{"0", "0", "0", "0"}))
	assert.Equal(t, "0.0 km\n", buf.String())
}
