package geocode

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// searchEntry is one element of the provider's /search array.
type searchEntry struct {
	DisplayName string   `json:"display_name"`
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Lat         coord    `json:"lat"`
	Lon         coord    `json:"lon"`
	BoundingBox []string `json:"boundingbox"`
	Address     *address `json:"address"`
}

// reverseEntry is the provider's /reverse object. Error is set instead of an
// address when nothing is found.
type reverseEntry struct {
	DisplayName string   `json:"display_name"`
	Name        string   `json:"name"`
	Address     *address `json:"address"`
	Error       string   `json:"error"`
}

type address struct {
	City        string `json:"city"`
	Town        string `json:"town"`
	Village     string `json:"village"`
	State       string `json:"state"`
	Country     string `json:"country"`
	CountryCode string `json:"country_code"`
}

// coord accepts both the provider's quoted decimals and bare JSON numbers.
type coord struct {
	value float64
	valid bool
}

func (c *coord) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(strings.TrimSpace(s))
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		// Unparsable coordinates drop the entry, not the whole response.
		return nil
	}
	c.value, c.valid = v, true
	return nil
}

// cityPlaceTypes are the provider place types kept even without a
// city/town/village address component.
var cityPlaceTypes = map[string]bool{
	"city":           true,
	"town":           true,
	"village":        true,
	"administrative": true,
}

// isCity reports whether the entry names a settlement or administrative area.
func isCity(e searchEntry) bool {
	if e.Address != nil && e.Address.settlement() != "" {
		return true
	}
	return cityPlaceTypes[e.Type]
}

// settlement returns city > town > village.
func (a *address) settlement() string {
	if a == nil {
		return ""
	}
	switch {
	case a.City != "":
		return a.City
	case a.Town != "":
		return a.Town
	default:
		return a.Village
	}
}

// cityName prefers the address settlement, then the raw place name.
func cityName(a *address, name string) string {
	if s := a.settlement(); s != "" {
		return s
	}
	return name
}

// FormatDisplayName joins city, state and country, dropping the state when it
// is empty or repeats the city and the country when empty.
func FormatDisplayName(city, state, country string) string {
	parts := []string{city}
	if state != "" && state != city {
		parts = append(parts, state)
	}
	if country != "" {
		parts = append(parts, country)
	}
	return strings.Join(parts, ", ")
}

func normalizeResults(entries []searchEntry) []CityResult {
	results := make([]CityResult, 0, len(entries))
	for _, e := range entries {
		if !isCity(e) || !e.Lat.valid || !e.Lon.valid {
			continue
		}
		results = append(results, normalizeEntry(e))
	}
	return results
}

func normalizeEntry(e searchEntry) CityResult {
	var state, country, code string
	if e.Address != nil {
		state = e.Address.State
		country = e.Address.Country
		code = strings.ToUpper(e.Address.CountryCode)
	}
	city := cityName(e.Address, e.Name)
	return CityResult{
		Name:        e.DisplayName,
		City:        city,
		Country:     country,
		CountryCode: code,
		State:       state,
		Lat:         e.Lat.value,
		Lon:         e.Lon.value,
		BBox:        e.BoundingBox,
		DisplayName: FormatDisplayName(city, state, country),
	}
}

func normalizeReverse(e reverseEntry) *ReverseResult {
	r := &ReverseResult{
		City:        "Unknown",
		DisplayName: e.DisplayName,
	}
	if s := e.Address.settlement(); s != "" {
		r.City = s
	}
	if e.Address != nil {
		r.Country = e.Address.Country
		r.State = e.Address.State
	}
	return r
}
