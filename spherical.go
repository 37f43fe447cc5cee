// API for the spherical routines in Go
//
// Copyright (c) Joshua Baker (2021) and licensed under the MIT License.
//
/* - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - */
/* Latitude/longitude spherical geodesy tools   (c) Chris Veness 2002-2019 */
/*                                                             MIT Licence */
/* www.movable-type.co.uk/scripts/latlong.html                             */
/* www.movable-type.co.uk/scripts/geodesy-library.html#latlon-spherical    */
/* - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - */

package traverse

import "math"

// SphericalSolver solves the direct problem on a sphere with the
// ellipsoid's mean radius. It is a single pass and always converges.
type SphericalSolver struct{}

func (SphericalSolver) SolveDirect(origin Coordinate, bearingDeg, distanceMeters float64, e *Ellipsoid) (Result, error) {
	origin, bearingDeg, err := validateDirect(origin, bearingDeg, distanceMeters)
	if err != nil {
		return Result{}, err
	}
	e = orDefault(e)
	lat2, lon2, azi2 := destination(e.MeanRadius(), origin.Lat, origin.Lon, distanceMeters, bearingDeg)
	return Result{
		Destination:  Coordinate{Lat: lat2, Lon: lon2},
		FinalBearing: azi2,
		Converged:    true,
		Method:       Spherical,
	}, nil
}

func sphericalInverse(
	radius float64,
	lat1 float64, lon1 float64,
	lat2 float64, lon2 float64,
	s12 *float64, azi1 *float64, azi2 *float64,
) {
	if s12 != nil {
		*s12 = distance(radius, lat1, lon1, lat2, lon2)
	}
	if azi1 != nil {
		*azi1 = wrap360(bearing(lat1, lon1, lat2, lon2))
	}
	if azi2 != nil {
		*azi2 = wrap360(bearing(lat2, lon2, lat1, lon1) + 180)
	}
}

// destination returns the end point and the forward bearing there. A path
// that ends on a pole returns the pole with the bearing unchanged, since
// the bearing is undefined at that point. From a pole the bearing is taken
// relative to the origin's own meridian, as the ellipsoidal solvers do.
func destination(radius float64, lat1, lon1, meters, bearingDegrees float64) (lat2, lon2, azi2 float64) {
	if meters == 0 {
		return lat1, wrapLon(lon1), bearingDegrees
	}
	if math.Abs(lat1) == 90 {
		return fromPole(radius, lat1, lon1, meters, bearingDegrees)
	}
	// sinφ2 = sinφ1⋅cosδ + cosφ1⋅sinδ⋅cosθ
	// tanΔλ = sinθ⋅sinδ⋅cosφ1 / cosδ−sinφ1⋅sinφ2
	// see mathforum.org/library/drmath/view/52049.html for derivation
	δ := meters / radius
	θ := bearingDegrees * radians
	φ1 := lat1 * radians
	λ1 := lon1 * radians
	sinφ1, cosφ1 := math.Sincos(φ1)
	sinδ, cosδ := math.Sincos(δ)
	sinθ, cosθ := math.Sincos(θ)

	sinφ2 := sinφ1*cosδ + cosφ1*sinδ*cosθ
	sinφ2 = math.Max(-1, math.Min(1, sinφ2))
	φ2 := math.Asin(sinφ2)
	if math.Abs(sinφ2) == 1 {
		return math.Copysign(90, sinφ2), wrapLon(lon1), bearingDegrees
	}
	λ2 := λ1 + math.Atan2(sinθ*sinδ*cosφ1, cosδ-sinφ1*sinφ2)

	// forward azimuth at the destination
	// tanθ2 = sinθ⋅cosφ1 / cosφ1⋅cosδ⋅cosθ − sinφ1⋅sinδ
	θ2 := math.Atan2(sinθ*cosφ1, cosφ1*cosδ*cosθ-sinφ1*sinδ)
	return φ2 * degrees, wrapLon(λ2 * degrees), wrap360(θ2 * degrees)
}

// fromPole follows the meridian selected by the bearing. A path longer
// than half a great circle passes the far pole onto the opposite meridian.
func fromPole(radius float64, lat1, lon1, meters, bearingDegrees float64) (lat2, lon2, azi2 float64) {
	δ := meters / radius
	sinδ, cosδ := math.Sincos(δ)
	north := lat1 > 0
	meridian := lon1 + bearingDegrees
	if north {
		meridian = lon1 + 180 - bearingDegrees
	}
	// heading away from the origin pole
	azi2 = 0
	if north {
		azi2 = 180
	}
	if sinδ < 0 {
		meridian += 180
		azi2 = wrap360(azi2 + 180)
	}
	sinφ2 := math.Max(-1, math.Min(1, cosδ))
	if !north {
		sinφ2 = -sinφ2
	}
	if math.Abs(sinφ2) == 1 {
		return math.Copysign(90, sinφ2), wrapLon(lon1), bearingDegrees
	}
	return math.Asin(sinφ2) * degrees, wrapLon(meridian), azi2
}

func distance(radius float64, lat1, lon1, lat2, lon2 float64) float64 {
	// haversine formula
	φ1 := lat1 * radians
	λ1 := lon1 * radians
	φ2 := lat2 * radians
	λ2 := lon2 * radians
	Δφ := φ2 - φ1
	Δλ := λ2 - λ1
	sΔφ2 := math.Sin(Δφ / 2)
	sΔλ2 := math.Sin(Δλ / 2)
	haver := sΔφ2*sΔφ2 + math.Cos(φ1)*math.Cos(φ2)*sΔλ2*sΔλ2
	return radius * 2 * math.Asin(math.Sqrt(math.Min(1, haver)))
}

func bearing(lat1, lon1, lat2, lon2 float64) float64 {
	// tanθ = sinΔλ⋅cosφ2 / cosφ1⋅sinφ2 − sinφ1⋅cosφ2⋅cosΔλ
	// see mathforum.org/library/drmath/view/55417.html for derivation
	φ1 := lat1 * radians
	φ2 := lat2 * radians
	Δλ := (lon2 - lon1) * radians
	y := math.Sin(Δλ) * math.Cos(φ2)
	x := math.Cos(φ1)*math.Sin(φ2) - math.Sin(φ1)*math.Cos(φ2)*math.Cos(Δλ)
	θ := math.Atan2(y, x)
	return wrap180(θ * degrees)
}
