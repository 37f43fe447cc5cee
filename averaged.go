package traverse

import "golang.org/x/sync/errgroup"

// AveragedSolver runs the spherical, closed-form and series solvers
// concurrently and averages their destinations and final bearings on the
// circle. If the closed-form solve does not converge it is left out and the
// result is marked Partial.
//
// Zero-valued fields use the default solvers.
type AveragedSolver struct {
	Spherical  SphericalSolver
	ClosedForm ClosedFormSolver
	Series     SeriesSolver
}

func (s AveragedSolver) SolveDirect(origin Coordinate, bearingDeg, distanceMeters float64, e *Ellipsoid) (Result, error) {
	origin, bearingDeg, err := validateDirect(origin, bearingDeg, distanceMeters)
	if err != nil {
		return Result{}, err
	}
	solvers := [...]Solver{s.Spherical, s.ClosedForm, s.Series}
	var results [len(solvers)]Result

	var g errgroup.Group
	for i, solver := range solvers {
		i, solver := i, solver
		g.Go(func() error {
			r, err := solver.SolveDirect(origin, bearingDeg, distanceMeters, e)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	return averageResults(results[:]), nil
}

func averageResults(results []Result) Result {
	out := Result{Converged: true, Method: Averaged}
	var dests []Coordinate
	var bearings []float64
	for _, r := range results {
		out.Iterations += r.Iterations
		if !r.Converged {
			out.Partial = true
			continue
		}
		dests = append(dests, r.Destination)
		bearings = append(bearings, r.FinalBearing)
	}
	out.Destination = MeanCoordinate(dests...)
	out.FinalBearing = wrap360(CircularMean(bearings...))
	return out
}
