package traverse

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryIDs(t *testing.T) {
	r := NewRegistry()
	a := r.Register(Coordinate{Lat: 1, Lon: 1}, RoleTiePoint)
	b := r.Register(Coordinate{Lat: 2, Lon: 2}, RoleCorner)
	c := r.RegisterLabeled(Coordinate{Lat: 3, Lon: 3}, RoleMonument, "Iron pin")
	assert.Equal(t, []uint64{1, 2, 3}, []uint64{a.ID, b.ID, c.ID})
	assert.Equal(t, 3, r.Len())

	got, err := r.Lookup(3)
	require.NoError(t, err)
	assert.Equal(t, c, got)
	assert.Equal(t, "Iron pin", got.Label)

	_, err = r.Lookup(0)
	assert.ErrorIs(t, err, ErrUnknownPointID)
	_, err = r.Lookup(4)
	assert.ErrorIs(t, err, ErrUnknownPointID)

	pts := r.Points()
	pts[0].Coordinate.Lat = 89
	again, _ := r.Lookup(1)
	assert.Equal(t, 1.0, again.Coordinate.Lat)
}

func TestRegistryZeroValue(t *testing.T) {
	var r Registry
	assert.Empty(t, r.Near(tie, 10, nil))
	p := r.Register(tie, RoleTiePoint)
	assert.Equal(t, uint64(1), p.ID)
	near := r.Near(tie, 1, nil)
	require.Len(t, near, 1)
	assert.Equal(t, p.ID, near[0].ID)
}

func TestRegistryNear(t *testing.T) {
	r := NewRegistry()
	r.Register(Coordinate{Lat: 0, Lon: 179.99999}, RoleCorner)
	r.Register(Coordinate{Lat: 0, Lon: 179.9}, RoleCorner)
	r.Register(Coordinate{Lat: 0, Lon: -179.99999}, RoleTiePoint)
	r.Register(Coordinate{Lat: 0.00001, Lon: -179.99999}, RoleCorner)

	near := r.Near(Coordinate{Lat: 0, Lon: -179.99999}, 10, WGS84)
	ids := make([]uint64, len(near))
	for i, p := range near {
		ids[i] = p.ID
	}
	assert.Equal(t, []uint64{1, 3, 4}, ids)

	near = r.Near(Coordinate{Lat: 0, Lon: -179.99999}, 10, WGS84, RoleCorner)
	require.Len(t, near, 2)
	assert.Equal(t, uint64(1), near[0].ID)

	assert.Empty(t, r.Near(Coordinate{Lat: 0, Lon: 0}, 10, WGS84))
	assert.Empty(t, r.Near(Coordinate{Lat: 0, Lon: 179.9}, 0, WGS84))
}

func TestRegistryNearPole(t *testing.T) {
	r := NewRegistry()
	r.Register(Coordinate{Lat: 89.99999, Lon: 0}, RoleCorner)
	r.Register(Coordinate{Lat: 89.99999, Lon: 180}, RoleCorner)
	near := r.Near(Coordinate{Lat: 90, Lon: 45}, 5, WGS84)
	assert.Len(t, near, 2)
}

func TestRoleText(t *testing.T) {
	b, err := json.Marshal(RoleClosurePoint)
	require.NoError(t, err)
	assert.Equal(t, `"closure_point"`, string(b))

	var r Role
	require.NoError(t, json.Unmarshal([]byte(`"Monument"`), &r))
	assert.Equal(t, RoleMonument, r)
	assert.Error(t, json.Unmarshal([]byte(`"cairn"`), &r))

	_, err = Role(42).MarshalText()
	assert.Error(t, err)
}
