package traverse

import "fmt"

// ConstructionStep records one course of a polygon. The ordered steps are
// the authoritative description of how the polygon was built: replaying
// them through the solvers regenerates every point.
type ConstructionStep struct {
	Index       int     `json:"index"`
	FromPointID uint64  `json:"from_point_id"`
	ToPointID   uint64  `json:"to_point_id"`
	Bearing     float64 `json:"bearing_deg"`
	Distance    float64 `json:"distance_m"`
	Method      Method  `json:"method"`
	// Closure marks the step that links the last corner back to the first
	// corner. It points at an existing id and registers nothing.
	Closure bool `json:"closure,omitempty"`
}

// Polygon is the result of a construction. CornerIDs follow step order and
// never repeat the first corner. MonumentID is zero when no monument was
// set; ids start at 1.
type Polygon struct {
	ID           uint64             `json:"id"`
	TiePointID   uint64             `json:"tie_point_id"`
	CornerIDs    []uint64           `json:"corner_ids"`
	MonumentID   uint64             `json:"monument_id,omitempty"`
	MonumentStep *ConstructionStep  `json:"monument_step,omitempty"`
	Closed       bool               `json:"closed"`
	Steps        []ConstructionStep `json:"steps"`
}

// HasMonument reports whether a monument was registered.
func (p Polygon) HasMonument() bool {
	return p.MonumentID != 0
}

func (p Polygon) clone() Polygon {
	out := p
	out.CornerIDs = append([]uint64(nil), p.CornerIDs...)
	out.Steps = append([]ConstructionStep(nil), p.Steps...)
	if p.MonumentStep != nil {
		ms := *p.MonumentStep
		out.MonumentStep = &ms
	}
	return out
}

// Replay runs steps through the solvers starting from tie and returns the
// coordinate of every point the steps reach, keyed by id. Closure steps only
// check that their target is already known. A monument step may be
// appended to steps to regenerate the monument as well.
func Replay(tie Point, steps []ConstructionStep, e *Ellipsoid) (map[uint64]Coordinate, error) {
	coords := map[uint64]Coordinate{tie.ID: tie.Coordinate}
	for _, s := range steps {
		from, ok := coords[s.FromPointID]
		if !ok {
			return nil, fmt.Errorf("step %d: %w: from %d", s.Index, ErrUnknownPointID, s.FromPointID)
		}
		if s.Closure {
			if _, ok := coords[s.ToPointID]; !ok {
				return nil, fmt.Errorf("step %d: %w: closure target %d", s.Index, ErrUnknownPointID, s.ToPointID)
			}
			continue
		}
		r, err := Direct(s.Method, from, s.Bearing, s.Distance, e)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", s.Index, err)
		}
		if !r.Converged {
			return nil, fmt.Errorf("step %d: %w", s.Index, &SolveError{Method: s.Method, Result: r, Err: ErrConvergenceFailure})
		}
		coords[s.ToPointID] = r.Destination
	}
	return coords, nil
}
