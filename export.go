package traverse

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// View is the read-only snapshot an export writer consumes. Every slice is
// a copy; changing it does not affect the registry or the polygon.
type View struct {
	PolygonID    uint64             `json:"polygon_id"`
	Ellipsoid    string             `json:"ellipsoid"`
	Closed       bool               `json:"closed"`
	TiePoint     Point              `json:"tie_point"`
	Corners      []Point            `json:"corners"`
	Monument     *Point             `json:"monument,omitempty"`
	Steps        []ConstructionStep `json:"construction_sequence"`
	MonumentStep *ConstructionStep  `json:"monument_step,omitempty"`
}

// NewView resolves the polygon's point ids against r. A nil ellipsoid is
// reported as WGS84.
func NewView(p Polygon, r *Registry, e *Ellipsoid) (View, error) {
	if r == nil {
		return View{}, fmt.Errorf("traverse: view needs a registry")
	}
	tie, err := r.Lookup(p.TiePointID)
	if err != nil {
		return View{}, fmt.Errorf("tie point: %w", err)
	}
	p = p.clone()
	v := View{
		PolygonID:    p.ID,
		Ellipsoid:    orDefault(e).Name(),
		Closed:       p.Closed,
		TiePoint:     tie,
		Corners:      make([]Point, 0, len(p.CornerIDs)),
		Steps:        p.Steps,
		MonumentStep: p.MonumentStep,
	}
	for _, id := range p.CornerIDs {
		c, err := r.Lookup(id)
		if err != nil {
			return View{}, fmt.Errorf("corner: %w", err)
		}
		v.Corners = append(v.Corners, c)
	}
	if p.HasMonument() {
		m, err := r.Lookup(p.MonumentID)
		if err != nil {
			return View{}, fmt.Errorf("monument: %w", err)
		}
		v.Monument = &m
	}
	return v, nil
}

// Points lists the tie point, the corners in order and then the monument.
// The first corner is never repeated.
func (v View) Points() []Point {
	out := make([]Point, 0, len(v.Corners)+2)
	out = append(out, v.TiePoint)
	out = append(out, v.Corners...)
	if v.Monument != nil {
		out = append(out, *v.Monument)
	}
	return out
}

// Ring is the corner outline as [lon, lat] pairs. For a closed polygon the
// first corner is repeated at the end.
func (v View) Ring() orb.Ring {
	ring := make(orb.Ring, 0, len(v.Corners)+1)
	for _, c := range v.Corners {
		ring = append(ring, orb.Point{c.Coordinate.Lon, c.Coordinate.Lat})
	}
	if v.Closed && len(ring) > 0 {
		ring = append(ring, ring[0])
	}
	return ring
}

// Summary holds derived figures for reports.
type Summary struct {
	Corners int `json:"corners"`
	// Perimeter is the sum of course lengths between corners in meters,
	// closing course included. The leg from the tie point is not counted.
	Perimeter float64 `json:"perimeter_m"`
	// Area in square meters on a sphere; zero for open traverses.
	Area float64 `json:"area_m2"`
	// Misclosure is the distance in meters from the last corner back to the
	// first; zero when the ring was closed by a course.
	Misclosure float64   `json:"misclosure_m"`
	Bound      orb.Bound `json:"-"`
}

// Summary computes perimeter, area and misclosure for the view.
func (v View) Summary(e *Ellipsoid) Summary {
	s := Summary{Corners: len(v.Corners)}
	for _, st := range v.Steps {
		if st.FromPointID == v.TiePoint.ID {
			continue
		}
		s.Perimeter += st.Distance
	}
	ring := v.Ring()
	if len(ring) > 0 {
		s.Bound = ring.Bound()
	}
	if v.Closed && len(v.Corners) >= 3 {
		s.Area = math.Abs(geo.Area(orb.Polygon{ring}))
	}
	if !v.Closed && len(v.Corners) >= 2 {
		first := v.Corners[0].Coordinate
		last := v.Corners[len(v.Corners)-1].Coordinate
		if inv, err := Inverse(last, first, e); err == nil {
			s.Misclosure = inv.Distance
		}
	}
	return s
}
