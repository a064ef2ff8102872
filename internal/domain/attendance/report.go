package attendance

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
)

var pdfColumns = []struct {
	title string
	width float64
}{
	{"Date", 28},
	{"Employee", 62},
	{"Clock in", 34},
	{"Clock out", 34},
	{"State", 22},
}

// WritePDF renders records as a single table, in the order given.
func WritePDF(w io.Writer, title string, generatedAt time.Time, records []Record) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, title)
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 9)
	pdf.Cell(0, 6, fmt.Sprintf("Generated %s, %d records", generatedAt.Format("2006-01-02 15:04"), len(records)))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 10)
	for _, col := range pdfColumns {
		pdf.CellFormat(col.width, 7, col.title, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, rec := range records {
		name := rec.EmployeeName
		if name == "" {
			name = fmt.Sprintf("#%d", rec.EmployeeID)
		}
		cells := []string{rec.Date.String(), name, clockText(rec.ClockIn), clockText(rec.ClockOut), rec.State().String()}
		for i, col := range pdfColumns {
			pdf.CellFormat(col.width, 6, cells[i], "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}

func clockText(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("15:04:05")
}
