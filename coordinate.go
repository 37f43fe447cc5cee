package traverse

import (
	"fmt"
	"math"
)

const radians = math.Pi / 180
const degrees = 180 / math.Pi

// Coordinate is a geodetic position in decimal degrees. Values built with
// NewCoordinate have Lat in [-90, 90] and Lon in (-180, 180].
type Coordinate struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// NewCoordinate validates lat and wraps lon into (-180, 180].
func NewCoordinate(lat, lon float64) (Coordinate, error) {
	if !finite(lat) || !finite(lon) {
		return Coordinate{}, fmt.Errorf("%w: non-finite value (%v, %v)", ErrInvalidCoordinate, lat, lon)
	}
	if lat < -90 || lat > 90 {
		return Coordinate{}, fmt.Errorf("%w: latitude %v outside [-90, 90]", ErrInvalidCoordinate, lat)
	}
	return Coordinate{Lat: lat, Lon: wrapLon(lon)}, nil
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%.9f, %.9f)", c.Lat, c.Lon)
}

// NormalizeBearing maps any finite bearing into [0, 360).
func NormalizeBearing(bearing float64) (float64, error) {
	if !finite(bearing) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidBearing, bearing)
	}
	return wrap360(bearing), nil
}

// validateDirect applies the input rules shared by every solver.
func validateDirect(origin Coordinate, bearing, distance float64) (Coordinate, float64, error) {
	o, err := NewCoordinate(origin.Lat, origin.Lon)
	if err != nil {
		return Coordinate{}, 0, err
	}
	b, err := NormalizeBearing(bearing)
	if err != nil {
		return Coordinate{}, 0, err
	}
	if !finite(distance) || distance < 0 {
		return Coordinate{}, 0, fmt.Errorf("%w: %v", ErrInvalidDistance, distance)
	}
	return o, b, nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func wrap180(degs float64) float64 {
	if degs < -180 || degs > 180 {
		degs = math.Mod(degs, 360)
		if degs < -180 {
			degs += 360
		} else if degs > 180 {
			degs -= 360
		}
	}
	return degs
}

// wrapLon is wrap180 with -180 folded onto 180.
func wrapLon(degs float64) float64 {
	degs = wrap180(degs)
	if degs == -180 {
		return 180
	}
	return degs
}

func wrap360(degs float64) float64 {
	degs = math.Mod(degs, 360)
	if degs < 0 {
		degs += 360
	}
	if degs >= 360 {
		degs -= 360
	}
	return degs
}

// CircularMean averages angles in degrees as unit vectors on the circle.
// The result is in (-180, 180]. With no inputs, or inputs that cancel out
// exactly, it falls back to the arithmetic mean.
func CircularMean(angles ...float64) float64 {
	if len(angles) == 0 {
		return 0
	}
	var sx, sy, sum float64
	for _, a := range angles {
		s, c := math.Sincos(a * radians)
		sx += c
		sy += s
		sum += a
	}
	if math.Hypot(sx, sy) < 1e-12*float64(len(angles)) {
		return wrapLon(sum / float64(len(angles)))
	}
	return wrapLon(math.Atan2(sy, sx) * degrees)
}

// MeanCoordinate averages latitudes arithmetically and longitudes on the
// circle, so points either side of the antimeridian average to it.
func MeanCoordinate(cs ...Coordinate) Coordinate {
	if len(cs) == 0 {
		return Coordinate{}
	}
	var lat float64
	lons := make([]float64, len(cs))
	for i, c := range cs {
		lat += c.Lat
		lons[i] = c.Lon
	}
	return Coordinate{Lat: lat / float64(len(cs)), Lon: CircularMean(lons...)}
}
