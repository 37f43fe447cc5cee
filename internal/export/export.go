// Package export writes finished traverses to files. Writers only read
// traverse.View snapshots; nothing here can change a registry or polygon.
package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/terratracer/traverse"
)

// Format names an output encoding.
type Format string

const (
	JSON    Format = "json"
	KML     Format = "kml"
	GeoJSON Format = "geojson"
	XLSX    Format = "xlsx"
	PDF     Format = "pdf"
)

// Formats lists every supported format.
var Formats = []Format{JSON, KML, GeoJSON, XLSX, PDF}

var ErrUnknownFormat = errors.New("export: unknown format")

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case JSON, KML, GeoJSON, XLSX, PDF:
		return f, nil
	case "geo.json":
		return GeoJSON, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Ext is the file extension for f, without the dot.
func (f Format) Ext() string { return string(f) }

// Document is one polygon ready for export.
type Document struct {
	Name    string
	View    traverse.View
	Summary traverse.Summary
}

// Report groups the polygons of one job. Unit only affects how distances
// are displayed; stored values stay in meters.
type Report struct {
	Title     string
	Unit      traverse.Unit
	Documents []Document
}

// NewDocument builds a document from a view.
func NewDocument(name string, v traverse.View, e *traverse.Ellipsoid) Document {
	if name == "" {
		name = "Polygon " + strconv.FormatUint(v.PolygonID, 10)
	}
	return Document{Name: name, View: v, Summary: v.Summary(e)}
}

func (r Report) unit() traverse.Unit {
	if r.Unit == "" {
		return traverse.Meters
	}
	return r.Unit
}

func (r Report) title() string {
	if r.Title == "" {
		return "Traverse"
	}
	return r.Title
}

// Write encodes r to w in format f.
func Write(w io.Writer, f Format, r Report) error {
	switch f {
	case JSON:
		return WriteJSON(w, r)
	case KML:
		return WriteKML(w, r)
	case GeoJSON:
		return WriteGeoJSON(w, r)
	case XLSX:
		return WriteXLSX(w, r)
	case PDF:
		return WritePDF(w, r)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
}

// WriteFile writes r into dir as base.<ext>. An existing file is never
// overwritten; a numeric suffix is added instead. It returns the path
// written.
func WriteFile(dir, base string, f Format, r Report) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	if base == "" {
		base = "traverse"
	}
	for i := 0; ; i++ {
		name := base
		if i > 0 {
			name = base + "_" + strconv.Itoa(i)
		}
		path := filepath.Join(dir, name+"."+f.Ext())
		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("export: %w", err)
		}
		if err := Write(file, f, r); err != nil {
			file.Close()
			os.Remove(path)
			return "", fmt.Errorf("export %s: %w", f, err)
		}
		if err := file.Close(); err != nil {
			return "", fmt.Errorf("export: %w", err)
		}
		return path, nil
	}
}

// pointName is the display name of a point in every format.
func pointName(p traverse.Point, corner int) string {
	switch p.Role {
	case traverse.RoleTiePoint:
		return "Tie Point"
	case traverse.RoleMonument:
		if p.Label != "" {
			return p.Label
		}
		return "Monument"
	}
	return "Corner " + strconv.Itoa(corner)
}

// cornerNumbers maps corner ids to their 1-based position in the ring.
func cornerNumbers(v traverse.View) map[uint64]int {
	out := make(map[uint64]int, len(v.Corners))
	for i, c := range v.Corners {
		out[c.ID] = i + 1
	}
	return out
}

func dmsLat(v float64) string   { return traverse.FormatDMS(v, traverse.Latitude) }
func dmsLon(v float64) string   { return traverse.FormatDMS(v, traverse.Longitude) }
func quadrant(b float64) string { return traverse.FormatQuadrantBearing(b) }
