// Package output renders search results and messages for the terminal.
package output

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/rotisserie/eris"

	"github.com/urbanscope/citysearch/internal/paginate"
	"github.com/urbanscope/citysearch/pkg/geocode"
)

// Table buffers rows and renders them borderless and left-aligned.
type Table struct {
	table  *tablewriter.Table
	header []string
	rows   [][]string
}

// NewTable creates a table writing to w.
func NewTable(w io.Writer, headers []string) *Table {
	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{ShowHeader: tw.Off},
			},
		}),
	)
	return &Table{table: table, header: headers}
}

// AddRow appends a row.
func (t *Table) AddRow(row ...string) {
	t.rows = append(t.rows, row)
}

// Render writes the header and all rows.
func (t *Table) Render() error {
	t.table.Header(t.header)
	if err := t.table.Bulk(t.rows); err != nil {
		return eris.Wrap(err, "output: table rows")
	}
	return eris.Wrap(t.table.Render(), "output: render table")
}

// Coord formats a coordinate the way the search dropdown shows it.
func Coord(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// Cities renders one page of search results. Row numbers count across pages
// so they can be passed back to a selection.
func Cities(w io.Writer, page paginate.Page[geocode.CityResult]) error {
	t := NewTable(w, []string{"#", "", "City", "Region", "Country", "Coordinates"})
	offset := (page.Page - 1) * page.PerPage
	for i, c := range page.Items {
		t.AddRow(
			strconv.Itoa(offset+i+1),
			geocode.CountryFlag(c.CountryCode),
			c.City,
			c.State,
			c.Country,
			Coord(c.Lat)+", "+Coord(c.Lon),
		)
	}
	if err := t.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\nPage %d of %d (%d found)\n", page.Page, page.LastPage, page.Total)
	return eris.Wrap(err, "output: page footer")
}

// Popular renders the quick-pick list.
func Popular(w io.Writer, cities []geocode.PopularCity) error {
	t := NewTable(w, []string{"#", "", "City", "Country", "Coordinates"})
	for i, c := range cities {
		t.AddRow(strconv.Itoa(i+1), c.Flag, c.Name, c.Country, Coord(c.Lat)+", "+Coord(c.Lon))
	}
	return t.Render()
}
