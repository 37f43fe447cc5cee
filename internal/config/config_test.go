package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terratracer/traverse"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"TRAVERSE_CONFIG", "TRAVERSE_ELLIPSOID", "TRAVERSE_METHOD", "TRAVERSE_CLOSURE",
		"TRAVERSE_UNITS", "TRAVERSE_OUTPUT_DIR", "TRAVERSE_FORMATS",
		"TRAVERSE_CLOSURE_TOLERANCE_M", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	e, err := cfg.ResolveEllipsoid()
	require.NoError(t, err)
	assert.Same(t, traverse.WGS84, e)
	assert.Equal(t, traverse.EllipsoidalSeries, cfg.DefaultMethod())
	assert.Equal(t, traverse.ClosureAuto, cfg.ClosureMode())
	assert.Equal(t, traverse.Meters, cfg.Unit())
}

func TestLoadYAMLThenEnv(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "traverse.yaml", `
ellipsoid: NAD27
method: vincenty
closure: force
closure_tolerance_m: 0.05
units: ft
formats: [json, kml]
log:
  level: debug
`)
	t.Setenv("TRAVERSE_METHOD", "karney")
	t.Setenv("TRAVERSE_FORMATS", "geojson, xlsx")

	cfg, err := Load(path)
	require.NoError(t, err)
	e, err := cfg.ResolveEllipsoid()
	require.NoError(t, err)
	assert.Same(t, traverse.Clarke1866, e)
	assert.Equal(t, traverse.EllipsoidalSeries, cfg.DefaultMethod())
	assert.Equal(t, traverse.ClosureForce, cfg.ClosureMode())
	assert.Equal(t, 0.05, cfg.ClosureToleranceM)
	assert.Equal(t, traverse.Feet, cfg.Unit())
	assert.Equal(t, []string{"geojson", "xlsx"}, cfg.Formats)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadDotEnv(t *testing.T) {
	env := writeFile(t, ".env", "TRAVERSE_ELLIPSOID=GRS80\nTRAVERSE_CLOSURE_TOLERANCE_M=0.03\n")
	clearEnv(t)
	// godotenv does not override variables that are already set, so clear
	// them for the duration of the test.
	require.NoError(t, os.Unsetenv("TRAVERSE_ELLIPSOID"))
	require.NoError(t, os.Unsetenv("TRAVERSE_CLOSURE_TOLERANCE_M"))

	cfg, err := Load("", env, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	e, err := cfg.ResolveEllipsoid()
	require.NoError(t, err)
	assert.Same(t, traverse.GRS80, e)
	assert.Equal(t, 0.03, cfg.ClosureToleranceM)
}

func TestCustomEllipsoid(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "traverse.yaml", `
custom_ellipsoid:
  name: Airy1830
  semi_major_axis_m: 6377563.396
  inverse_flattening: 299.3249646
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	e, err := cfg.ResolveEllipsoid()
	require.NoError(t, err)
	assert.Equal(t, "Airy1830", e.Name())
	assert.InDelta(t, 1/299.3249646, e.Flattening(), 1e-15)
}

func TestLoadRejectsBadValues(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "traverse.yaml", "ellipsoid: mars\nmethod: guess\nunits: cubits\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, traverse.ErrInvalidEllipsoid)
	assert.ErrorIs(t, err, traverse.ErrUnknownMethod)
	assert.ErrorIs(t, err, traverse.ErrUnknownUnit)

	path = writeFile(t, "typo.yaml", "ellipsiod: WGS84\n")
	_, err = Load(path)
	require.Error(t, err)

	t.Setenv("TRAVERSE_CLOSURE_TOLERANCE_M", "abc")
	_, err = Load("")
	require.Error(t, err)
}
