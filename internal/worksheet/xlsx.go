package worksheet

import (
	"io"

	"github.com/xuri/excelize/v2"
)

func init() { Register("xlsx", xlsxWriter{}) }

const xlsxSheet = "Tööleht"

var xlsxHeaders = []string{"Materjali ID", "Materjali Nimi", "Vajalik Kogus", "Tüüp", "Materjali Tüüp"}

type xlsxWriter struct{}

func (xlsxWriter) Ext() string { return "xlsx" }

func (xlsxWriter) Write(w io.Writer, s *Sheet) error {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	head, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Size: 11},
		Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 1}},
	})
	if err != nil {
		return err
	}

	c := &cells{f: f}
	// nagłówek zlecenia
	c.set("A1", "Projekti Number")
	c.set("B1", s.ProjectID)
	c.set("A2", "Projekti Nimi")
	c.set("B2", s.ProjectName)
	c.set("A3", "Kirjeldus")
	c.set("B3", s.Description)
	c.style("A1", "A3", bold)

	const headRow = 5
	for i, h := range xlsxHeaders {
		cell := c.name(i+1, headRow)
		c.set(cell, h)
		c.style(cell, cell, head)
	}
	for i, ln := range s.Lines {
		row := headRow + 1 + i
		for col, v := range []any{ln.MaterialID, ln.MaterialName, ln.Quantity, ln.Kind, ln.MaterialType} {
			c.set(c.name(col+1, row), v)
		}
	}

	for i, width := range []float64{15, 25, 15, 10, 15} {
		c.width(i+1, width)
	}
	if c.err != nil {
		return c.err
	}
	return f.Write(w)
}

// cells zapamiętuje pierwszy błąd excelize; kolejne wywołania są wtedy pomijane.
type cells struct {
	f   *excelize.File
	err error
}

func (c *cells) name(col, row int) string {
	if c.err != nil {
		return ""
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	c.err = err
	return cell
}

func (c *cells) set(cell string, v any) {
	if c.err == nil {
		c.err = c.f.SetCellValue(xlsxSheet, cell, v)
	}
}

func (c *cells) style(from, to string, id int) {
	if c.err == nil {
		c.err = c.f.SetCellStyle(xlsxSheet, from, to, id)
	}
}

func (c *cells) width(col int, w float64) {
	if c.err != nil {
		return
	}
	name, err := excelize.ColumnNumberToName(col)
	if err != nil {
		c.err = err
		return
	}
	c.err = c.f.SetColWidth(xlsxSheet, name, name, w)
}
