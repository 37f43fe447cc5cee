package export

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// WritePDF renders a closure report: per polygon, the course table and the
// closure figures. No map is drawn.
func WritePDF(w io.Writer, r Report) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	unit := r.unit()

	for _, d := range r.Documents {
		v := d.View
		pdf.AddPage()
		pdf.SetFont("Arial", "B", 14)
		pdf.Cell(0, 8, tr(r.title()+": "+d.Name))
		pdf.Ln(10)

		pdf.SetFont("Arial", "", 10)
		tie := v.TiePoint.Coordinate
		lines := []string{
			fmt.Sprintf("Ellipsoid: %s", v.Ellipsoid),
			fmt.Sprintf("Tie point: %s %s", dmsLat(tie.Lat), dmsLon(tie.Lon)),
			fmt.Sprintf("Corners: %d", d.Summary.Corners),
			fmt.Sprintf("Closed: %t", v.Closed),
			fmt.Sprintf("Perimeter: %.3f %s", unit.FromMeters(d.Summary.Perimeter), unit),
		}
		if v.Closed {
			lines = append(lines, fmt.Sprintf("Area: %.1f m2", d.Summary.Area))
		} else {
			lines = append(lines, fmt.Sprintf("Misclosure: %.3f m", d.Summary.Misclosure))
		}
		if v.Monument != nil {
			m := v.Monument.Coordinate
			lines = append(lines, fmt.Sprintf("%s: %s %s", pointName(*v.Monument, 0), dmsLat(m.Lat), dmsLon(m.Lon)))
		}
		for _, l := range lines {
			pdf.Cell(0, 6, tr(l))
			pdf.Ln(5)
		}
		pdf.Ln(4)

		widths := []float64{12, 18, 18, 48, 32, 28, 24}
		header := []string{"Step", "From", "To", "Bearing", fmt.Sprintf("Distance (%s)", unit), "Method", "Closure"}
		pdf.SetFont("Arial", "B", 9)
		for i, h := range header {
			pdf.CellFormat(widths[i], 6, h, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 9)
		for _, s := range v.Steps {
			closure := ""
			if s.Closure {
				closure = "yes"
			}
			cells := []string{
				fmt.Sprintf("%d", s.Index),
				fmt.Sprintf("%d", s.FromPointID),
				fmt.Sprintf("%d", s.ToPointID),
				tr(quadrant(s.Bearing)),
				fmt.Sprintf("%.3f", unit.FromMeters(s.Distance)),
				string(s.Method),
				closure,
			}
			for i, c := range cells {
				align := "C"
				if i == 4 {
					align = "R"
				}
				pdf.CellFormat(widths[i], 6, c, "1", 0, align, false, 0, "")
			}
			pdf.Ln(-1)
		}
		pdf.Ln(4)
		pdf.SetFont("Arial", "I", 8)
		pdf.Cell(0, 5, fmt.Sprintf("Polygon %d, generated %s", v.PolygonID, time.Now().UTC().Format(time.RFC3339)))
	}
	if len(r.Documents) == 0 {
		pdf.AddPage()
	}
	return pdf.Output(w)
}
