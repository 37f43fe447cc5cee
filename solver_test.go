package traverse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectIdentity(t *testing.T) {
	origins := []Coordinate{{Lat: 0, Lon: 0}, {Lat: 51.4778, Lon: -0.0015}, {Lat: -77.85, Lon: 166.67}, {Lat: 12, Lon: 180}}
	for _, m := range Methods {
		for _, o := range origins {
			r, err := Direct(m, o, 137, 0, WGS84)
			require.NoError(t, err, m)
			assert.True(t, r.Converged, m)
			assert.InDelta(t, o.Lat, r.Destination.Lat, 1e-9, "%s %s", m, o)
			assert.InDelta(t, 0, wrap180(o.Lon-r.Destination.Lon), 1e-9, "%s %s", m, o)
		}
	}
}

func TestDirectBearingPeriodicity(t *testing.T) {
	origin := Coordinate{Lat: 35.2, Lon: -106.6}
	for _, m := range Methods {
		want, err := Direct(m, origin, 33.25, 12_345, GRS80)
		require.NoError(t, err)
		for _, k := range []float64{-2, -1, 1, 3} {
			got, err := Direct(m, origin, 33.25+360*k, 12_345, GRS80)
			require.NoError(t, err)
			assert.InDelta(t, want.Destination.Lat, got.Destination.Lat, 1e-12, "%s k=%v", m, k)
			assert.InDelta(t, want.Destination.Lon, got.Destination.Lon, 1e-12, "%s k=%v", m, k)
		}
	}
}

func TestDirectNorthOffset(t *testing.T) {
	globe, err := NewSphere("mean earth", 6371000)
	require.NoError(t, err)
	r, err := Direct(Spherical, Coordinate{}, 0, 111194.9, globe)
	require.NoError(t, err)
	assert.InDelta(t, 1, r.Destination.Lat, 1e-4)
	assert.InDelta(t, 0, r.Destination.Lon, 1e-4)
}

func TestParseMethod(t *testing.T) {
	cases := map[string]Method{
		"":          EllipsoidalSeries,
		"1":         EllipsoidalSeries,
		"Vincenty":  EllipsoidalClosedForm,
		"3":         Spherical,
		"average":   Averaged,
		"karney":    EllipsoidalSeries,
		"haversine": Spherical,
	}
	for in, want := range cases {
		got, err := ParseMethod(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseMethod("rhumb")
	assert.ErrorIs(t, err, ErrUnknownMethod)
	_, err = Method("rhumb").Solver()
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

func TestEllipsoids(t *testing.T) {
	_, err := NewEllipsoid("flat", 6378137, 0)
	assert.ErrorIs(t, err, ErrInvalidEllipsoid)
	_, err = NewEllipsoid("neg", -1, 0.003)
	assert.ErrorIs(t, err, ErrInvalidEllipsoid)
	_, err = NewSphere("zero", 0)
	assert.ErrorIs(t, err, ErrInvalidEllipsoid)

	e, err := EllipsoidByName("nad27")
	require.NoError(t, err)
	assert.Same(t, Clarke1866, e)
	e, err = EllipsoidByName("")
	require.NoError(t, err)
	assert.Same(t, WGS84, e)
	_, err = EllipsoidByName("airy")
	assert.ErrorIs(t, err, ErrInvalidEllipsoid)

	assert.InDelta(t, 6356752.314245, WGS84.SemiMinorAxis(), 1e-6)
	assert.InDelta(t, 6371008.7714, WGS84.MeanRadius(), 1e-4)
	assert.False(t, WGS84.Spherical())
}
