package geocode

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// PopularCity is a fixed quick-pick entry shown before the user types.
type PopularCity struct {
	Name    string  `json:"name" yaml:"name"`
	Country string  `json:"country" yaml:"country"`
	Lat     float64 `json:"lat" yaml:"lat"`
	Lon     float64 `json:"lon" yaml:"lon"`
	Flag    string  `json:"flag" yaml:"flag"`
}

// Label is the text a search box shows once the city is chosen.
func (p PopularCity) Label() string {
	return p.Name + ", " + p.Country
}

var popularCities = []PopularCity{
	{Name: "New York", Country: "USA", Lat: 40.7128, Lon: -74.0060, Flag: "🇺🇸"},
	{Name: "London", Country: "UK", Lat: 51.5074, Lon: -0.1278, Flag: "🇬🇧"},
	{Name: "Tokyo", Country: "Japan", Lat: 35.6762, Lon: 139.6503, Flag: "🇯🇵"},
	{Name: "Delhi", Country: "India", Lat: 28.7041, Lon: 77.1025, Flag: "🇮🇳"},
	{Name: "São Paulo", Country: "Brazil", Lat: -23.5505, Lon: -46.6333, Flag: "🇧🇷"},
	{Name: "Mumbai", Country: "India", Lat: 19.0760, Lon: 72.8777, Flag: "🇮🇳"},
	{Name: "Paris", Country: "France", Lat: 48.8566, Lon: 2.3522, Flag: "🇫🇷"},
	{Name: "Berlin", Country: "Germany", Lat: 52.5200, Lon: 13.4050, Flag: "🇩🇪"},
	{Name: "Sydney", Country: "Australia", Lat: -33.8688, Lon: 151.2093, Flag: "🇦🇺"},
	{Name: "Dubai", Country: "UAE", Lat: 25.2048, Lon: 55.2708, Flag: "🇦🇪"},
	{Name: "Singapore", Country: "Singapore", Lat: 1.3521, Lon: 103.8198, Flag: "🇸🇬"},
	{Name: "Toronto", Country: "Canada", Lat: 43.6532, Lon: -79.3832, Flag: "🇨🇦"},
	{Name: "Mexico City", Country: "Mexico", Lat: 19.4326, Lon: -99.1332, Flag: "🇲🇽"},
	{Name: "Cairo", Country: "Egypt", Lat: 30.0444, Lon: 31.2357, Flag: "🇪🇬"},
	{Name: "Lagos", Country: "Nigeria", Lat: 6.5244, Lon: 3.3792, Flag: "🇳🇬"},
	{Name: "Shanghai", Country: "China", Lat: 31.2304, Lon: 121.4737, Flag: "🇨🇳"},
	{Name: "Seoul", Country: "South Korea", Lat: 37.5665, Lon: 126.9780, Flag: "🇰🇷"},
	{Name: "Istanbul", Country: "Turkey", Lat: 41.0082, Lon: 28.9784, Flag: "🇹🇷"},
	{Name: "Bangkok", Country: "Thailand", Lat: 13.7563, Lon: 100.5018, Flag: "🇹🇭"},
	{Name: "Los Angeles", Country: "USA", Lat: 34.0522, Lon: -118.2437, Flag: "🇺🇸"},
}

// PopularCities returns a copy of the built-in list.
func PopularCities() []PopularCity {
	return append([]PopularCity(nil), popularCities...)
}

type popularFile struct {
	Cities []PopularCity `yaml:"cities"`
}

// LoadPopularCities reads a replacement list from a YAML file of the form
//
//	cities:
//	  - {name: Lisbon, country: Portugal, lat: 38.72, lon: -9.14, flag: "🇵🇹"}
//
// An empty path returns the built-in list.
func LoadPopularCities(path string) ([]PopularCity, error) {
	if path == "" {
		return PopularCities(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: read popular cities %s", path)
	}
	var f popularFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "geocode: parse popular cities %s", path)
	}
	if len(f.Cities) == 0 {
		return nil, eris.Errorf("geocode: popular cities %s: no cities", path)
	}
	for i, c := range f.Cities {
		if strings.TrimSpace(c.Name) == "" {
			return nil, eris.Errorf("geocode: popular cities %s: entry %d has no name", path, i)
		}
		if !ValidateCoordinates(c.Lat, c.Lon) {
			return nil, eris.Wrapf(ErrValidation, "geocode: popular cities %s: %s", path, c.Name)
		}
	}
	return f.Cities, nil
}

// FilterPopular keeps the cities whose name or country starts with prefix,
// ignoring case and diacritics. An empty prefix keeps everything.
func FilterPopular(list []PopularCity, prefix string) []PopularCity {
	p := Fold(prefix)
	out := make([]PopularCity, 0, len(list))
	for _, c := range list {
		if p == "" || strings.HasPrefix(Fold(c.Name), p) || strings.HasPrefix(Fold(c.Country), p) {
			out = append(out, c)
		}
	}
	return out
}
