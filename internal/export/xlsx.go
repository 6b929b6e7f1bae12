package export

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/urbanscope/citysearch/pkg/geocode"
)

var xlsxHeader = []string{"Display Name", "City", "State", "Country", "Country Code", "Lat", "Lon"}

func workbook(cities []geocode.CityResult) (*xlsx.File, error) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Cities")
	if err != nil {
		return nil, eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range xlsxHeader {
		header.AddCell().SetString(h)
	}
	for _, c := range cities {
		row := sheet.AddRow()
		for _, s := range []string{c.DisplayName, c.City, c.State, c.Country, c.CountryCode} {
			row.AddCell().SetString(s)
		}
		row.AddCell().SetFloat(c.Lat)
		row.AddCell().SetFloat(c.Lon)
	}
	return f, nil
}

// XLSX writes results as a single-sheet workbook.
func XLSX(w io.Writer, cities []geocode.CityResult) error {
	f, err := workbook(cities)
	if err != nil {
		return err
	}
	return eris.Wrap(f.Write(w), "export: write xlsx")
}
