package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	pointsSheet  = "Points"
	coursesSheet = "Courses"
	summarySheet = "Summary"
)

// WriteXLSX writes a workbook with a Points sheet (every registered point),
// a Courses sheet (the construction sequence of every polygon) and a
// Summary sheet.
func WriteXLSX(w io.Writer, r Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", pointsSheet); err != nil {
		return err
	}
	for _, s := range []string{coursesSheet, summarySheet} {
		if _, err := f.NewSheet(s); err != nil {
			return err
		}
	}
	unit := r.unit()

	rows := map[string]int{pointsSheet: 1, coursesSheet: 1, summarySheet: 1}
	put := func(sheet string, values ...any) error {
		cell, err := excelize.CoordinatesToCellName(1, rows[sheet])
		if err != nil {
			return err
		}
		rows[sheet]++
		return f.SetSheetRow(sheet, cell, &values)
	}

	if err := put(pointsSheet, "Polygon", "Point ID", "Role", "Name", "Latitude", "Longitude", "Latitude (DMS)", "Longitude (DMS)"); err != nil {
		return err
	}
	if err := put(coursesSheet, "Polygon", "Step", "From", "To", "Bearing (deg)", "Bearing",
		fmt.Sprintf("Distance (%s)", unit), "Distance (m)", "Method", "Closure"); err != nil {
		return err
	}
	if err := put(summarySheet, "Polygon", "Ellipsoid", "Closed", "Corners",
		fmt.Sprintf("Perimeter (%s)", unit), "Area (m2)", "Misclosure (m)"); err != nil {
		return err
	}

	for _, d := range r.Documents {
		v := d.View
		numbers := cornerNumbers(v)
		for _, p := range v.Points() {
			if err := put(pointsSheet, d.Name, p.ID, p.Role.String(), pointName(p, numbers[p.ID]),
				p.Coordinate.Lat, p.Coordinate.Lon,
				dmsLat(p.Coordinate.Lat), dmsLon(p.Coordinate.Lon)); err != nil {
				return err
			}
		}
		steps := v.Steps
		if v.MonumentStep != nil {
			steps = append(steps[:len(steps):len(steps)], *v.MonumentStep)
		}
		for _, s := range steps {
			step := any(s.Index)
			if s.Index == 0 {
				step = "monument"
			}
			if err := put(coursesSheet, d.Name, step, s.FromPointID, s.ToPointID, s.Bearing,
				quadrant(s.Bearing), unit.FromMeters(s.Distance), s.Distance, string(s.Method), s.Closure); err != nil {
				return err
			}
		}
		sum := d.Summary
		if err := put(summarySheet, d.Name, v.Ellipsoid, v.Closed, sum.Corners,
			unit.FromMeters(sum.Perimeter), sum.Area, sum.Misclosure); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(pointsSheet, "A", "H", 16); err != nil {
		return err
	}
	if err := f.SetColWidth(coursesSheet, "A", "J", 14); err != nil {
		return err
	}
	return f.Write(w)
}
