package traverse

import (
	"fmt"
	"math"
	"strings"
)

// WGS84 conforming ellipsoid
// https://en.wikipedia.org/wiki/World_Geodetic_System
var WGS84 = mustEllipsoid("WGS84", 6378137, float64(1.)/298.257223563)

// GRS80 is the ellipsoid of NAD83 and most modern national datums.
var GRS80 = mustEllipsoid("GRS80", 6378137, float64(1.)/298.257222101)

// Clarke1866 is the ellipsoid of NAD27, still found on older plats.
var Clarke1866 = mustEllipsoid("Clarke1866", 6378206.4, float64(1.)/294.978698214)

// Ellipsoid holds the physical constants of a reference ellipsoid. It is
// immutable once created and safe to share between goroutines.
type Ellipsoid struct {
	name       string
	radius     float64
	flattening float64
	minor      float64
	ep2        float64
	n          float64
	spherical  bool

	// series coefficients used by the EllipsoidalSeries solver; they only
	// depend on the third flattening so they are computed once here.
	a3x [nA3]float64
	c3x [nC3x]float64
}

// NewEllipsoid initializes a new reference ellipsoid.
//
// Param radius is the equatorial radius (meters).
// Param flattening is the flattening factor of the ellipsoid.
//
// The radius must be positive and the flattening must lie in (0, 1).
// Use NewSphere for a flattening of zero.
func NewEllipsoid(name string, radius, flattening float64) (*Ellipsoid, error) {
	if !(radius > 0) || math.IsInf(radius, 0) {
		return nil, fmt.Errorf("%w: semi-major axis %v must be positive", ErrInvalidEllipsoid, radius)
	}
	if !(flattening > 0 && flattening < 1) {
		return nil, fmt.Errorf("%w: flattening %v must be in (0, 1)", ErrInvalidEllipsoid, flattening)
	}
	return newEllipsoid(name, radius, flattening), nil
}

// NewSphere initializes a degenerate ellipsoid with zero flattening. Every
// solver accepts it; the spherical solver then uses radius unchanged as the
// mean radius.
func NewSphere(name string, radius float64) (*Ellipsoid, error) {
	if !(radius > 0) || math.IsInf(radius, 0) {
		return nil, fmt.Errorf("%w: radius %v must be positive", ErrInvalidEllipsoid, radius)
	}
	e := newEllipsoid(name, radius, 0)
	e.spherical = true
	return e, nil
}

func newEllipsoid(name string, radius, flattening float64) *Ellipsoid {
	e := &Ellipsoid{
		name:       name,
		radius:     radius,
		flattening: flattening,
		minor:      radius * (1 - flattening),
	}
	e2 := flattening * (2 - flattening)
	e.ep2 = e2 / ((1 - flattening) * (1 - flattening))
	e.n = flattening / (2 - flattening)
	e.initSeries()
	return e
}

func mustEllipsoid(name string, radius, flattening float64) *Ellipsoid {
	e, err := NewEllipsoid(name, radius, flattening)
	if err != nil {
		panic(err)
	}
	return e
}

// EllipsoidByName returns one of the predefined ellipsoids. The match is
// case-insensitive; an empty name selects WGS84.
func EllipsoidByName(name string) (*Ellipsoid, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", "WGS84", "WGS-84":
		return WGS84, nil
	case "GRS80", "GRS-80", "NAD83":
		return GRS80, nil
	case "CLARKE1866", "CLARKE-1866", "NAD27":
		return Clarke1866, nil
	}
	return nil, fmt.Errorf("%w: unknown ellipsoid %q", ErrInvalidEllipsoid, name)
}

// Name of the Ellipsoid
func (e *Ellipsoid) Name() string {
	return e.name
}

// SemiMajorAxis is the equatorial radius in meters.
func (e *Ellipsoid) SemiMajorAxis() float64 {
	return e.radius
}

// Flattening of the Ellipsoid
func (e *Ellipsoid) Flattening() float64 {
	return e.flattening
}

// SemiMinorAxis is the polar radius in meters.
func (e *Ellipsoid) SemiMinorAxis() float64 {
	return e.minor
}

// MeanRadius is (2a + b) / 3, the radius of the sphere used by the
// spherical solver.
func (e *Ellipsoid) MeanRadius() float64 {
	return (2*e.radius + e.minor) / 3
}

// ThirdFlattening is n = f / (2 - f).
func (e *Ellipsoid) ThirdFlattening() float64 {
	return e.n
}

// SecondEccentricitySquared is e'^2 = (a^2 - b^2) / b^2.
func (e *Ellipsoid) SecondEccentricitySquared() float64 {
	return e.ep2
}

// Spherical returns true if the ellipsoid was initialized using NewSphere.
func (e *Ellipsoid) Spherical() bool {
	return e.spherical
}

func (e *Ellipsoid) String() string {
	return fmt.Sprintf("%s(a=%.3f, 1/f=%.9f)", e.name, e.radius, 1/e.flattening)
}

func orDefault(e *Ellipsoid) *Ellipsoid {
	if e == nil {
		return WGS84
	}
	return e
}
