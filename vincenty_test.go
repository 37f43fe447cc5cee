package traverse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dmsDeg(d, m, s float64) float64 {
	if d < 0 {
		return d - m/60 - s/3600
	}
	return d + m/60 + s/3600
}

// Flinders Peak to Buninyong, the worked example in Vincenty (1975).
var (
	flindersPeak = Coordinate{Lat: dmsDeg(-37, 57, 3.72030), Lon: dmsDeg(144, 25, 29.52440)}
	buninyong    = Coordinate{Lat: dmsDeg(-37, 39, 10.15610), Lon: dmsDeg(143, 55, 35.38390)}
)

const (
	flindersDistance = 54972.271
)

var flindersAzimuth = dmsDeg(306, 52, 5.37)

func TestClosedFormFlindersPeak(t *testing.T) {
	r, err := ClosedFormSolver{}.SolveDirect(flindersPeak, flindersAzimuth, flindersDistance, GRS80)
	require.NoError(t, err)
	assert.True(t, r.Converged)
	assert.Equal(t, EllipsoidalClosedForm, r.Method)
	assert.Greater(t, r.Iterations, 0)
	assert.InDelta(t, buninyong.Lat, r.Destination.Lat, 1e-8)
	assert.InDelta(t, buninyong.Lon, r.Destination.Lon, 1e-8)
	// reverse azimuth 127°10'25.07" plus 180
	assert.InDelta(t, dmsDeg(307, 10, 25.07), r.FinalBearing, 1e-5)
}

func TestClosedFormIterationCap(t *testing.T) {
	r, err := ClosedFormSolver{MaxIterations: 1}.SolveDirect(Coordinate{Lat: 10, Lon: 20}, 60, 9_000_000, WGS84)
	require.NoError(t, err)
	assert.False(t, r.Converged)
	assert.Equal(t, 1, r.Iterations)

	r, err = Direct(EllipsoidalClosedForm, Coordinate{Lat: 10, Lon: 20}, 60, 9_000_000, WGS84)
	require.NoError(t, err)
	assert.True(t, r.Converged)
}

func TestClosedFormZeroDistance(t *testing.T) {
	r, err := ClosedFormSolver{}.SolveDirect(Coordinate{Lat: 51.5, Lon: -0.12}, 33, 0, nil)
	require.NoError(t, err)
	assert.True(t, r.Converged)
	assert.InDelta(t, 51.5, r.Destination.Lat, 1e-12)
	assert.InDelta(t, -0.12, r.Destination.Lon, 1e-12)
}

func TestClosedFormOnSphere(t *testing.T) {
	globe, err := NewSphere("globe", 6371000)
	require.NoError(t, err)
	r, err := ClosedFormSolver{}.SolveDirect(Coordinate{Lat: 12, Lon: 34}, 77, 250_000, globe)
	require.NoError(t, err)
	s, err := SphericalSolver{}.SolveDirect(Coordinate{Lat: 12, Lon: 34}, 77, 250_000, globe)
	require.NoError(t, err)
	assert.InDelta(t, s.Destination.Lat, r.Destination.Lat, 1e-9)
	assert.InDelta(t, s.Destination.Lon, r.Destination.Lon, 1e-9)
	assert.InDelta(t, s.FinalBearing, r.FinalBearing, 1e-9)
}
