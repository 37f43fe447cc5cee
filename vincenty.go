package traverse

import "math"

const (
	defaultVincentyTolerance  = 1e-12
	defaultVincentyIterations = 200
)

// ClosedFormSolver is Vincenty's direct solution (1975). It maps the path
// onto an auxiliary sphere through the reduced latitude and iterates for the
// angular distance there.
//
// When the iterate does not settle within MaxIterations the result is
// returned with Converged == false rather than as an error. Zero values
// select a tolerance of 1e-12 radians and a cap of 200 iterations.
type ClosedFormSolver struct {
	Tolerance     float64
	MaxIterations int
}

func (s ClosedFormSolver) limits() (float64, int) {
	tol, maxIt := s.Tolerance, s.MaxIterations
	if tol <= 0 {
		tol = defaultVincentyTolerance
	}
	if maxIt <= 0 {
		maxIt = defaultVincentyIterations
	}
	return tol, maxIt
}

func (s ClosedFormSolver) SolveDirect(origin Coordinate, bearingDeg, distanceMeters float64, e *Ellipsoid) (Result, error) {
	origin, bearingDeg, err := validateDirect(origin, bearingDeg, distanceMeters)
	if err != nil {
		return Result{}, err
	}
	e = orDefault(e)
	tol, maxIt := s.limits()

	a, b, f := e.radius, e.minor, e.flattening
	sinα1, cosα1 := math.Sincos(bearingDeg * radians)

	U1 := math.Atan((1 - f) * math.Tan(origin.Lat*radians))
	sinU1, cosU1 := math.Sincos(U1)
	σ1 := math.Atan2(math.Tan(U1), cosα1)
	sinα := cosU1 * sinα1
	cos2α := 1 - sinα*sinα
	u2 := cos2α * (a*a - b*b) / (b * b)
	A := 1 + u2/16384*(4096+u2*(-768+u2*(320-175*u2)))
	B := u2 / 1024 * (256 + u2*(-128+u2*(74-47*u2)))

	σ0 := distanceMeters / (b * A)
	σ := σ0
	var sinσ, cosσ, cos2σm float64
	iterations, converged := 0, false
	for iterations < maxIt {
		iterations++
		cos2σm = math.Cos(2*σ1 + σ)
		sinσ, cosσ = math.Sincos(σ)
		Δσ := B * sinσ * (cos2σm + B/4*(cosσ*(-1+2*cos2σm*cos2σm)-
			B/6*cos2σm*(-3+4*sinσ*sinσ)*(-3+4*cos2σm*cos2σm)))
		next := σ0 + Δσ
		if math.IsNaN(next) {
			break
		}
		delta := math.Abs(next - σ)
		σ = next
		if delta < tol {
			converged = true
			break
		}
	}
	cos2σm = math.Cos(2*σ1 + σ)
	sinσ, cosσ = math.Sincos(σ)

	x := sinU1*sinσ - cosU1*cosσ*cosα1
	φ2 := math.Atan2(sinU1*cosσ+cosU1*sinσ*cosα1, (1-f)*math.Hypot(sinα, x))
	λ := math.Atan2(sinσ*sinα1, cosU1*cosσ-sinU1*sinσ*cosα1)
	C := f / 16 * cos2α * (4 + f*(4-3*cos2α))
	L := λ - (1-C)*f*sinα*(σ+C*sinσ*(cos2σm+C*cosσ*(-1+2*cos2σm*cos2σm)))
	α2 := math.Atan2(sinα, -x)

	return Result{
		Destination:  Coordinate{Lat: φ2 * degrees, Lon: wrapLon(origin.Lon + L*degrees)},
		FinalBearing: wrap360(α2 * degrees),
		Iterations:   iterations,
		Converged:    converged,
		Method:       EllipsoidalClosedForm,
	}, nil
}

// vincentyInverse solves the inverse problem by iterating on the
// longitude difference on the auxiliary sphere. It fails to converge for
// nearly antipodal points.
func vincentyInverse(e *Ellipsoid, from, to Coordinate, tol float64, maxIt int) (inv InverseResult, converged bool) {
	a, b, f := e.radius, e.minor, e.flattening
	L := wrap180(to.Lon-from.Lon) * radians
	U1 := math.Atan((1 - f) * math.Tan(from.Lat*radians))
	U2 := math.Atan((1 - f) * math.Tan(to.Lat*radians))
	sinU1, cosU1 := math.Sincos(U1)
	sinU2, cosU2 := math.Sincos(U2)

	λ := L
	var sinλ, cosλ, sinσ, cosσ, σ, cos2α, cos2σm float64
	for inv.Iterations < maxIt {
		inv.Iterations++
		sinλ, cosλ = math.Sincos(λ)
		sinσ = math.Hypot(cosU2*sinλ, cosU1*sinU2-sinU1*cosU2*cosλ)
		if sinσ == 0 {
			// coincident points
			return InverseResult{Iterations: inv.Iterations}, true
		}
		cosσ = sinU1*sinU2 + cosU1*cosU2*cosλ
		σ = math.Atan2(sinσ, cosσ)
		sinα := cosU1 * cosU2 * sinλ / sinσ
		cos2α = 1 - sinα*sinα
		cos2σm = 0
		if cos2α != 0 {
			// zero on equatorial lines
			cos2σm = cosσ - 2*sinU1*sinU2/cos2α
		}
		C := f / 16 * cos2α * (4 + f*(4-3*cos2α))
		prev := λ
		λ = L + (1-C)*f*sinα*(σ+C*sinσ*(cos2σm+C*cosσ*(-1+2*cos2σm*cos2σm)))
		if math.Abs(λ) > math.Pi || math.IsNaN(λ) {
			return inv, false
		}
		if math.Abs(λ-prev) < tol {
			converged = true
			break
		}
	}
	if !converged {
		return inv, false
	}
	u2 := cos2α * (a*a - b*b) / (b * b)
	A := 1 + u2/16384*(4096+u2*(-768+u2*(320-175*u2)))
	B := u2 / 1024 * (256 + u2*(-128+u2*(74-47*u2)))
	Δσ := B * sinσ * (cos2σm + B/4*(cosσ*(-1+2*cos2σm*cos2σm)-
		B/6*cos2σm*(-3+4*sinσ*sinσ)*(-3+4*cos2σm*cos2σm)))

	inv.Distance = b * A * (σ - Δσ)
	inv.InitialBearing = wrap360(math.Atan2(cosU2*sinλ, cosU1*sinU2-sinU1*cosU2*cosλ) * degrees)
	inv.FinalBearing = wrap360(math.Atan2(cosU1*sinλ, -sinU1*cosU2+cosU1*sinU2*cosλ) * degrees)
	return inv, true
}
