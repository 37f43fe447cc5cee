package traverse

import "time"

// Observer receives events from the construction engine. Implementations
// must be cheap; they run inline with every solve.
type Observer interface {
	// SolveObserved is called after every solver invocation, including
	// ones that failed validation or did not converge.
	SolveObserved(method Method, r Result, elapsed time.Duration, err error)
	PointRegistered(p Point)
	PolygonFinalized(p Polygon)
}

type nopObserver struct{}

func (nopObserver) SolveObserved(Method, Result, time.Duration, error) {}
func (nopObserver) PointRegistered(Point)                              {}
func (nopObserver) PolygonFinalized(Polygon)                           {}
