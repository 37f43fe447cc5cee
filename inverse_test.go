package traverse

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInverseFlindersPeak(t *testing.T) {
	inv, err := Inverse(flindersPeak, buninyong, GRS80)
	require.NoError(t, err)
	assert.False(t, inv.Approximate)
	assert.InDelta(t, flindersDistance, inv.Distance, 1e-3)
	assert.InDelta(t, flindersAzimuth, inv.InitialBearing, 1e-5)
	assert.InDelta(t, dmsDeg(307, 10, 25.07), inv.FinalBearing, 1e-5)
}

func TestInverseCoincident(t *testing.T) {
	inv, err := Inverse(Coordinate{Lat: 1, Lon: 2}, Coordinate{Lat: 1, Lon: 2}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, inv.Distance)
	assert.False(t, inv.Approximate)
}

func TestInverseAntipodalFallsBack(t *testing.T) {
	inv, err := Inverse(Coordinate{Lat: 0, Lon: 0}, Coordinate{Lat: 0, Lon: 180}, WGS84)
	require.NoError(t, err)
	assert.True(t, inv.Approximate)
	assert.InDelta(t, math.Pi*WGS84.MeanRadius(), inv.Distance, 1e-3)
}

func TestInverseRejectsInput(t *testing.T) {
	_, err := Inverse(Coordinate{Lat: 100}, Coordinate{}, nil)
	assert.ErrorIs(t, err, ErrInvalidCoordinate)
}
