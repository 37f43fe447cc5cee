package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/terratracer/traverse"
	"github.com/terratracer/traverse/internal/logging"
)

// EllipsoidSpec describes a custom reference ellipsoid. Either Flattening
// or InverseFlattening must be set.
type EllipsoidSpec struct {
	Name              string  `yaml:"name"`
	SemiMajorAxis     float64 `yaml:"semi_major_axis_m"`
	Flattening        float64 `yaml:"flattening"`
	InverseFlattening float64 `yaml:"inverse_flattening"`
}

// LogConfig mirrors logging.Config for the YAML file.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config holds CLI defaults. Job files override the per-polygon values.
type Config struct {
	Ellipsoid         string         `yaml:"ellipsoid"`
	CustomEllipsoid   *EllipsoidSpec `yaml:"custom_ellipsoid"`
	Method            string         `yaml:"method"`
	Closure           string         `yaml:"closure"`
	ClosureToleranceM float64        `yaml:"closure_tolerance_m"`
	NearClosureM      float64        `yaml:"near_closure_radius_m"`
	Units             string         `yaml:"units"`
	OutputDir         string         `yaml:"output_dir"`
	Formats           []string       `yaml:"formats"`
	Log               LogConfig      `yaml:"log"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Ellipsoid:         "WGS84",
		Method:            string(traverse.DefaultMethod),
		Closure:           string(traverse.ClosureAuto),
		ClosureToleranceM: traverse.DefaultClosureTolerance,
		NearClosureM:      traverse.DefaultNearClosureRadius,
		Units:             string(traverse.Meters),
		OutputDir:         ".",
		Formats:           []string{"json"},
		Log:               LogConfig{Level: "info", Format: "text"},
	}
}

// Load builds the configuration in layers: defaults, then variables from
// the given .env files (missing files are skipped), then the YAML file at
// path (or TRAVERSE_CONFIG when path is empty), then environment overrides.
func Load(path string, envFiles ...string) (Config, error) {
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return Config{}, fmt.Errorf("config: load %s: %w", f, err)
		}
	}

	cfg := Default()
	if path == "" {
		path = os.Getenv("TRAVERSE_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return Config{}, fmt.Errorf("config: %w", err)
		}
		if err := decode(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	setString("TRAVERSE_ELLIPSOID", &c.Ellipsoid)
	setString("TRAVERSE_METHOD", &c.Method)
	setString("TRAVERSE_CLOSURE", &c.Closure)
	setString("TRAVERSE_UNITS", &c.Units)
	setString("TRAVERSE_OUTPUT_DIR", &c.OutputDir)
	setString("LOG_LEVEL", &c.Log.Level)
	setString("LOG_FORMAT", &c.Log.Format)
	if v := strings.TrimSpace(os.Getenv("TRAVERSE_FORMATS")); v != "" {
		c.Formats = splitCSV(v)
	}
	if v := strings.TrimSpace(os.Getenv("TRAVERSE_CLOSURE_TOLERANCE_M")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("config: TRAVERSE_CLOSURE_TOLERANCE_M: %w", err)
		}
		c.ClosureToleranceM = f
	}
	return nil
}

// Validate checks every field that can be resolved without I/O.
func (c Config) Validate() error {
	var errs []error
	if _, err := c.ResolveEllipsoid(); err != nil {
		errs = append(errs, err)
	}
	if _, err := traverse.ParseMethod(c.Method); err != nil {
		errs = append(errs, err)
	}
	if _, err := traverse.ParseClosureMode(c.Closure); err != nil {
		errs = append(errs, err)
	}
	if _, err := traverse.ParseUnit(c.Units); err != nil {
		errs = append(errs, err)
	}
	if !(c.ClosureToleranceM >= 0) {
		errs = append(errs, fmt.Errorf("closure_tolerance_m %v must be non-negative", c.ClosureToleranceM))
	}
	if !(c.NearClosureM >= 0) {
		errs = append(errs, fmt.Errorf("near_closure_radius_m %v must be non-negative", c.NearClosureM))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// ResolveEllipsoid returns the custom ellipsoid when one is configured and
// the named one otherwise.
func (c Config) ResolveEllipsoid() (*traverse.Ellipsoid, error) {
	if s := c.CustomEllipsoid; s != nil {
		f := s.Flattening
		if f == 0 && s.InverseFlattening != 0 {
			f = 1 / s.InverseFlattening
		}
		name := s.Name
		if name == "" {
			name = "custom"
		}
		return traverse.NewEllipsoid(name, s.SemiMajorAxis, f)
	}
	return traverse.EllipsoidByName(c.Ellipsoid)
}

func (c Config) DefaultMethod() traverse.Method {
	m, err := traverse.ParseMethod(c.Method)
	if err != nil {
		return traverse.DefaultMethod
	}
	return m
}

func (c Config) ClosureMode() traverse.ClosureMode {
	m, err := traverse.ParseClosureMode(c.Closure)
	if err != nil {
		return traverse.ClosureAuto
	}
	return m
}

func (c Config) Unit() traverse.Unit {
	u, err := traverse.ParseUnit(c.Units)
	if err != nil {
		return traverse.Meters
	}
	return u
}

// Logger builds the configured logger writing to w.
func (c Config) Logger(w io.Writer) logging.Logger {
	return logging.New(logging.Config{Level: c.Log.Level, Format: c.Log.Format, Output: w})
}

func splitCSV(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
