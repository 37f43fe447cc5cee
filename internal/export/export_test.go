package export

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/terratracer/traverse"
)

// squareReport builds a closed 100 m square (four corners, forced closing
// course, monument) and an open two-course traverse in one registry.
func squareReport(t *testing.T) Report {
	t.Helper()
	ctx := context.Background()
	reg := traverse.NewRegistry()

	en, err := traverse.NewEngine(traverse.WithRegistry(reg))
	require.NoError(t, err)
	_, err = en.Build(ctx, traverse.Plan{
		TiePoint: traverse.Coordinate{Lat: 40, Lon: -105},
		Steps: []traverse.StepRequest{
			{Bearing: 90, Distance: 50},
			{Bearing: 0, Distance: 100},
			{Bearing: 90, Distance: 100},
			{Bearing: 180, Distance: 100},
		},
		Monument: &traverse.MonumentRequest{Bearing: 45, Distance: 10, Label: "Iron pin"},
		Closure:  traverse.ClosureForce,
	})
	require.NoError(t, err)
	closed, err := en.View()
	require.NoError(t, err)

	en2, err := traverse.NewEngine(traverse.WithRegistry(reg))
	require.NoError(t, err)
	_, err = en2.Build(ctx, traverse.Plan{
		TiePoint: traverse.Coordinate{Lat: 41, Lon: -105},
		Steps:    []traverse.StepRequest{{Bearing: 0, Distance: 100}, {Bearing: 90, Distance: 100}},
		Closure:  traverse.ClosureNone,
	})
	require.NoError(t, err)
	open, err := en2.View()
	require.NoError(t, err)

	return Report{
		Title: "Test job",
		Unit:  traverse.Feet,
		Documents: []Document{
			NewDocument("Lot 1", closed, traverse.WGS84),
			NewDocument("", open, traverse.WGS84),
		},
	}
}

func TestParseFormat(t *testing.T) {
	for _, f := range Formats {
		got, err := ParseFormat(strings.ToUpper(string(f)))
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
	_, err := ParseFormat("shp")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestWriteJSON(t *testing.T) {
	r := squareReport(t)
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, r))

	var out jsonReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out.Polygons, 2)
	assert.Equal(t, "feet", out.Units)

	p := out.Polygons[0]
	assert.True(t, p.Closed)
	assert.Equal(t, "WGS84", p.Ellipsoid)
	// tie point, four corners, monument
	require.Len(t, p.Points, 6)
	assert.Equal(t, "tie_point", p.Points[0].Role)
	assert.Equal(t, "monument", p.Points[5].Role)
	assert.Equal(t, "Iron pin", p.Points[5].Name)

	require.Len(t, p.Sequence, 5)
	last := p.Sequence[4]
	assert.True(t, last.Closure)
	assert.Equal(t, p.Points[1].ID, last.To)
	assert.InDelta(t, 50/0.3048, p.Sequence[0].Distance, 1e-9)
	require.NotNil(t, p.Monument)
	require.NotNil(t, p.MonumentStep)

	assert.Equal(t, "Polygon 2", out.Polygons[1].Name)
	assert.False(t, out.Polygons[1].Closed)
}

func TestWriteKML(t *testing.T) {
	r := squareReport(t)
	var buf bytes.Buffer
	require.NoError(t, WriteKML(&buf, r))
	assert.True(t, strings.HasPrefix(buf.String(), xml.Header))

	var doc kmlDoc
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.Document.Folders, 2)

	closed := doc.Document.Folders[0]
	// six point placemarks plus the outline; the closing course adds none
	require.Len(t, closed.Placemarks, 7)
	outline := closed.Placemarks[6]
	require.NotNil(t, outline.Polygon)
	coords := strings.Fields(outline.Polygon.Outer.LinearRing.Coordinates)
	require.Len(t, coords, 5)
	assert.Equal(t, coords[0], coords[4])

	open := doc.Document.Folders[1]
	outline = open.Placemarks[len(open.Placemarks)-1]
	assert.Nil(t, outline.Polygon)
	require.NotNil(t, outline.LineString)
	assert.Len(t, strings.Fields(outline.LineString.Coordinates), 2)
}

func TestWriteGeoJSON(t *testing.T) {
	r := squareReport(t)
	var buf bytes.Buffer
	require.NoError(t, WriteGeoJSON(&buf, r))

	fc, err := geojson.UnmarshalFeatureCollection(buf.Bytes())
	require.NoError(t, err)
	// 6 + 1 for the closed polygon, 3 + 1 for the open one
	require.Len(t, fc.Features, 11)

	poly, ok := fc.Features[6].Geometry.(orb.Polygon)
	require.True(t, ok)
	require.Len(t, poly, 1)
	assert.True(t, poly[0].Closed())
	assert.InDelta(t, 10000, fc.Features[6].Properties.MustFloat64("area_m2"), 50)

	_, ok = fc.Features[10].Geometry.(orb.LineString)
	assert.True(t, ok)
}

func TestWriteXLSX(t *testing.T) {
	r := squareReport(t)
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, r))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	points, err := f.GetRows(pointsSheet)
	require.NoError(t, err)
	// header, 6 points, 3 points
	assert.Len(t, points, 10)
	assert.Equal(t, "Role", points[0][2])

	courses, err := f.GetRows(coursesSheet)
	require.NoError(t, err)
	// header, 5 courses and the monument course, 2 courses
	assert.Len(t, courses, 9)
	assert.Equal(t, "monument", courses[6][1])
}

func TestWritePDF(t *testing.T) {
	r := squareReport(t)
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, r))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestWriteFileNeverOverwrites(t *testing.T) {
	r := squareReport(t)
	dir := filepath.Join(t.TempDir(), "out")

	first, err := WriteFile(dir, "lot", JSON, r)
	require.NoError(t, err)
	second, err := WriteFile(dir, "lot", JSON, r)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "lot.json"), first)
	assert.Equal(t, filepath.Join(dir, "lot_1.json"), second)

	_, err = os.Stat(second)
	require.NoError(t, err)

	_, err = WriteFile(dir, "lot", Format("shp"), r)
	assert.ErrorIs(t, err, ErrUnknownFormat)
	_, err = os.Stat(filepath.Join(dir, "lot.shp"))
	assert.True(t, os.IsNotExist(err))
}
