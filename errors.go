package traverse

import (
	"errors"
	"fmt"
)

// Error kinds returned by the solvers, the registry and the construction
// engine. Use errors.Is to test for them; most are wrapped with context.
var (
	ErrInvalidCoordinate  = errors.New("traverse: invalid coordinate")
	ErrInvalidBearing     = errors.New("traverse: invalid bearing")
	ErrInvalidDistance    = errors.New("traverse: invalid distance")
	ErrConvergenceFailure = errors.New("traverse: closed-form solution did not converge")
	ErrUnknownPointID     = errors.New("traverse: unknown point id")
	ErrEmptyStepSequence  = errors.New("traverse: no corners have been computed")
	ErrInvalidEllipsoid   = errors.New("traverse: invalid ellipsoid")
	ErrInvalidState       = errors.New("traverse: operation not allowed in current state")
	ErrMonumentExists     = errors.New("traverse: monument already registered")
	ErrUnknownMethod      = errors.New("traverse: unknown method")
	ErrUnknownUnit        = errors.New("traverse: unknown distance unit")
)

// SolveError reports a solve that ran but produced no usable destination.
// Result holds whatever the solver reached before giving up.
type SolveError struct {
	Method Method
	Result Result
	Err    error
}

func (e *SolveError) Error() string {
	return fmt.Sprintf("%s: %v (after %d iterations)", e.Method, e.Err, e.Result.Iterations)
}

func (e *SolveError) Unwrap() error { return e.Err }
