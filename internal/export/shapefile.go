package export

import (
	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"

	"github.com/urbanscope/citysearch/pkg/geocode"
)

// shapeFields is the DBF layout; names are limited to 10 characters.
var shapeFields = []shp.Field{
	shp.StringField("NAME", 254),
	shp.StringField("CITY", 80),
	shp.StringField("STATE", 80),
	shp.StringField("COUNTRY", 80),
	shp.StringField("CC", 2),
	shp.FloatField("LAT", 12, 6),
	shp.FloatField("LON", 12, 6),
}

// Shapefile writes results as an ESRI point shapefile. path names the .shp
// file; the .shx and .dbf siblings are created next to it.
func Shapefile(path string, cities []geocode.CityResult) error {
	w, err := shp.Create(path, shp.POINT)
	if err != nil {
		return eris.Wrapf(err, "export: create shapefile %s", path)
	}
	defer w.Close()

	if err := w.SetFields(shapeFields); err != nil {
		return eris.Wrap(err, "export: shapefile fields")
	}

	for _, c := range cities {
		row := int(w.Write(&shp.Point{X: c.Lon, Y: c.Lat}))
		values := []any{c.Name, c.City, c.State, c.Country, c.CountryCode, c.Lat, c.Lon}
		for field, v := range values {
			if err := w.WriteAttribute(row, field, v); err != nil {
				return eris.Wrapf(err, "export: shapefile attribute %s row %d", shapeFields[field].String(), row)
			}
		}
	}
	return nil
}
