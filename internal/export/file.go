package export

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/urbanscope/citysearch/pkg/geocode"
)

// WriteFile picks the format from the extension of path: .geojson/.json,
// .shp or .xlsx.
func WriteFile(path string, cities []geocode.CityResult) error {
	ext := strings.ToLower(filepath.Ext(path))
	var err error
	switch ext {
	case ".shp":
		err = Shapefile(path, cities)
	case ".geojson", ".json":
		err = writeWith(path, cities, GeoJSON)
	case ".xlsx":
		err = writeWith(path, cities, XLSX)
	default:
		return eris.Errorf("export: unsupported file type %q (want .geojson, .json, .shp or .xlsx)", ext)
	}
	if err != nil {
		return err
	}

	zap.L().Info("export: wrote results",
		zap.String("path", path),
		zap.Int("cities", len(cities)),
	)
	return nil
}

func writeWith(path string, cities []geocode.CityResult, enc func(io.Writer, []geocode.CityResult) error) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	if err := enc(f, cities); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	return eris.Wrapf(f.Close(), "export: close %s", path)
}
