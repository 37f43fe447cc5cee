package export

import (
	"encoding/json"
	"io"

	"github.com/terratracer/traverse"
)

type jsonReport struct {
	Title    string        `json:"title"`
	Units    string        `json:"units"`
	Polygons []jsonPolygon `json:"polygons"`
}

type jsonPolygon struct {
	Name         string           `json:"name"`
	PolygonID    uint64           `json:"polygon_id"`
	Ellipsoid    string           `json:"ellipsoid"`
	Closed       bool             `json:"closed"`
	Points       []jsonPoint      `json:"points"`
	Sequence     []jsonStep       `json:"construction_sequence"`
	Monument     *jsonPoint       `json:"monument,omitempty"`
	MonumentStep *jsonStep        `json:"monument_step,omitempty"`
	Summary      traverse.Summary `json:"summary"`
}

type jsonPoint struct {
	ID    uint64  `json:"id"`
	Role  string  `json:"role"`
	Name  string  `json:"name"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Label string  `json:"label,omitempty"`
}

type jsonStep struct {
	Index           int     `json:"index"`
	From            uint64  `json:"from_point_id"`
	To              uint64  `json:"to_point_id"`
	Bearing         float64 `json:"bearing_deg"`
	QuadrantBearing string  `json:"bearing_quadrant"`
	DistanceM       float64 `json:"distance_m"`
	Distance        float64 `json:"distance"`
	Method          string  `json:"method"`
	Closure         bool    `json:"closure,omitempty"`
}

// WriteJSON writes the report as indented JSON. Points are listed in
// registration order (tie point, corners, monument); the construction
// sequence is the ordered list of courses, closing course included.
func WriteJSON(w io.Writer, r Report) error {
	unit := r.unit()
	out := jsonReport{Title: r.title(), Units: string(unit), Polygons: make([]jsonPolygon, 0, len(r.Documents))}
	for _, d := range r.Documents {
		v := d.View
		numbers := cornerNumbers(v)
		p := jsonPolygon{
			Name:      d.Name,
			PolygonID: v.PolygonID,
			Ellipsoid: v.Ellipsoid,
			Closed:    v.Closed,
			Summary:   d.Summary,
		}
		for _, pt := range v.Points() {
			p.Points = append(p.Points, newJSONPoint(pt, numbers[pt.ID]))
		}
		for _, s := range v.Steps {
			p.Sequence = append(p.Sequence, newJSONStep(s, unit))
		}
		if v.Monument != nil {
			m := newJSONPoint(*v.Monument, 0)
			p.Monument = &m
		}
		if v.MonumentStep != nil {
			s := newJSONStep(*v.MonumentStep, unit)
			p.MonumentStep = &s
		}
		out.Polygons = append(out.Polygons, p)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(out)
}

func newJSONPoint(p traverse.Point, corner int) jsonPoint {
	return jsonPoint{
		ID:    p.ID,
		Role:  p.Role.String(),
		Name:  pointName(p, corner),
		Lat:   p.Coordinate.Lat,
		Lon:   p.Coordinate.Lon,
		Label: p.Label,
	}
}

func newJSONStep(s traverse.ConstructionStep, unit traverse.Unit) jsonStep {
	return jsonStep{
		Index:           s.Index,
		From:            s.FromPointID,
		To:              s.ToPointID,
		Bearing:         s.Bearing,
		QuadrantBearing: quadrant(s.Bearing),
		DistanceM:       s.Distance,
		Distance:        unit.FromMeters(s.Distance),
		Method:          string(s.Method),
		Closure:         s.Closure,
	}
}
