package traverse

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCoordinate(t *testing.T) {
	c, err := NewCoordinate(45, 190)
	require.NoError(t, err)
	assert.Equal(t, Coordinate{Lat: 45, Lon: -170}, c)

	c, err = NewCoordinate(-90, -180)
	require.NoError(t, err)
	assert.Equal(t, 180.0, c.Lon)

	for _, bad := range [][2]float64{{90.0001, 0}, {-91, 0}, {math.NaN(), 0}, {0, math.Inf(-1)}} {
		_, err := NewCoordinate(bad[0], bad[1])
		assert.ErrorIs(t, err, ErrInvalidCoordinate, "%v", bad)
	}
}

func TestNormalizeBearing(t *testing.T) {
	cases := map[float64]float64{
		0:    0,
		360:  0,
		-90:  270,
		725:  5,
		-720: 0,
	}
	for in, want := range cases {
		got, err := NormalizeBearing(in)
		require.NoError(t, err)
		assert.InDelta(t, want, got, 1e-12, "bearing %v", in)
	}
	_, err := NormalizeBearing(math.NaN())
	assert.ErrorIs(t, err, ErrInvalidBearing)
}

func TestCircularMean(t *testing.T) {
	assert.InDelta(t, 180, math.Abs(CircularMean(179, -179)), 1e-9)
	assert.InDelta(t, 0, CircularMean(359-360, 1), 1e-9)
	assert.InDelta(t, 20, CircularMean(10, 20, 30), 1e-9)
	assert.Equal(t, 0.0, CircularMean())

	// opposite angles cancel; fall back to the arithmetic mean
	assert.InDelta(t, 45, CircularMean(-45, 135), 1e-9)

	m := MeanCoordinate(Coordinate{10, 179.9}, Coordinate{20, -179.9})
	assert.InDelta(t, 15, m.Lat, 1e-12)
	assert.InDelta(t, 180, math.Abs(m.Lon), 1e-9)
}
