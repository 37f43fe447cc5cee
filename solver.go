package traverse

import (
	"fmt"
	"strings"
)

// Method selects a solver for the direct geodesic problem.
type Method string

const (
	// Spherical uses great-circle formulas on a sphere of the ellipsoid's
	// mean radius.
	Spherical Method = "spherical"
	// EllipsoidalClosedForm is Vincenty's iterative direct solution.
	EllipsoidalClosedForm Method = "closed-form"
	// EllipsoidalSeries is Karney's series solution in the third flattening.
	EllipsoidalSeries Method = "series"
	// Averaged combines the three methods above.
	Averaged Method = "averaged"
)

// DefaultMethod is used when a request leaves the method empty.
const DefaultMethod = EllipsoidalSeries

// Methods lists every supported method.
var Methods = []Method{Spherical, EllipsoidalClosedForm, EllipsoidalSeries, Averaged}

// ParseMethod accepts method names, common aliases and the menu numbers
// 1 (karney), 2 (vincenty), 3 (spherical) and 4 (average).
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DefaultMethod, nil
	case "spherical", "sphere", "great-circle", "haversine", "3":
		return Spherical, nil
	case "closed-form", "closedform", "vincenty", "2":
		return EllipsoidalClosedForm, nil
	case "series", "karney", "geographiclib", "1":
		return EllipsoidalSeries, nil
	case "averaged", "average", "mean", "4":
		return Averaged, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

// Solver returns the default solver for m.
func (m Method) Solver() (Solver, error) {
	switch m {
	case Spherical:
		return SphericalSolver{}, nil
	case EllipsoidalClosedForm:
		return ClosedFormSolver{}, nil
	case EllipsoidalSeries, "":
		return SeriesSolver{}, nil
	case Averaged:
		return AveragedSolver{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, string(m))
}

func (m Method) String() string { return string(m) }

// Result is the solution of one direct problem.
type Result struct {
	Destination  Coordinate `json:"destination"`
	FinalBearing float64    `json:"final_bearing_deg"`
	Iterations   int        `json:"iterations"`
	Converged    bool       `json:"converged"`
	// Partial is set by the averaged solver when one input was dropped.
	Partial bool   `json:"partial,omitempty"`
	Method  Method `json:"method"`
}

// Solver solves the direct geodesic problem: given an origin, an initial
// bearing (degrees clockwise from north) and a distance in meters, find the
// destination and the forward bearing there.
//
// Implementations reject invalid input before doing any work. A nil
// ellipsoid means WGS84.
type Solver interface {
	SolveDirect(origin Coordinate, bearingDeg, distanceMeters float64, e *Ellipsoid) (Result, error)
}

// Direct solves the direct problem with the default solver for m.
//
// A closed-form solve that hits its iteration cap comes back with
// Converged == false and a nil error; the caller decides whether to retry
// with another method.
func Direct(m Method, origin Coordinate, bearingDeg, distanceMeters float64, e *Ellipsoid) (Result, error) {
	s, err := m.Solver()
	if err != nil {
		return Result{}, err
	}
	return s.SolveDirect(origin, bearingDeg, distanceMeters, e)
}
