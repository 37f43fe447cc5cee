// Package job reads traverse job files: the tie point, courses, optional
// monument and closure mode of one or more polygons, written the way field
// notes are (DMS angles, quadrant bearings, distances with units).
package job

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/terratracer/traverse"
)

// File is the top-level document. Settings given here apply to every
// polygon that does not set its own.
type File struct {
	Ellipsoid string    `yaml:"ellipsoid"`
	Units     string    `yaml:"units"`
	Method    string    `yaml:"method"`
	Closure   string    `yaml:"closure"`
	Polygons  []Polygon `yaml:"polygons"`
}

// Polygon describes one construction.
type Polygon struct {
	Name     string    `yaml:"name"`
	Units    string    `yaml:"units"`
	Method   string    `yaml:"method"`
	Closure  string    `yaml:"closure"`
	TiePoint TiePoint  `yaml:"tie_point"`
	Courses  []Course  `yaml:"courses"`
	Monument *Monument `yaml:"monument"`
}

type TiePoint struct {
	Lat Latitude  `yaml:"lat"`
	Lon Longitude `yaml:"lon"`
}

type Course struct {
	Bearing  Bearing  `yaml:"bearing"`
	Distance Distance `yaml:"distance"`
	Method   string   `yaml:"method"`
	// Fallback retries a non-converging closed-form course with the series
	// solver.
	Fallback bool `yaml:"fallback"`
}

type Monument struct {
	// From is tie_point (default) or first_corner.
	From     string   `yaml:"from"`
	Bearing  Bearing  `yaml:"bearing"`
	Distance Distance `yaml:"distance"`
	Method   string   `yaml:"method"`
	Label    string   `yaml:"label"`
}

// Latitude accepts decimal degrees or DMS with a hemisphere letter.
type Latitude float64

func (l *Latitude) UnmarshalYAML(n *yaml.Node) error {
	v, err := parseScalar(n, func(s string) (float64, error) {
		return traverse.ParseCoordinate(s, traverse.Latitude)
	})
	*l = Latitude(v)
	return err
}

// Longitude accepts decimal degrees or DMS with a hemisphere letter.
type Longitude float64

func (l *Longitude) UnmarshalYAML(n *yaml.Node) error {
	v, err := parseScalar(n, func(s string) (float64, error) {
		return traverse.ParseCoordinate(s, traverse.Longitude)
	})
	*l = Longitude(v)
	return err
}

// Bearing accepts decimal degrees, a DMS azimuth or a quadrant bearing.
type Bearing float64

func (b *Bearing) UnmarshalYAML(n *yaml.Node) error {
	v, err := parseScalar(n, traverse.ParseBearing)
	*b = Bearing(v)
	return err
}

// Distance is a length with an optional unit suffix ("120.5 ft"). Without
// a suffix the polygon's units apply.
type Distance struct {
	Value float64
	Unit  traverse.Unit
}

func (d *Distance) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: distance must be a scalar", n.Line)
	}
	s := strings.ReplaceAll(strings.TrimSpace(n.Value), ",", "")
	num, unit := s, ""
	if i := strings.IndexFunc(s, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.' && r != '-' && r != '+' && r != 'e' && r != 'E'
	}); i >= 0 {
		num, unit = strings.TrimSpace(s[:i]), strings.TrimSpace(s[i:])
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return fmt.Errorf("line %d: %w: %q", n.Line, traverse.ErrInvalidDistance, n.Value)
	}
	d.Value = v
	d.Unit = ""
	if unit != "" {
		u, err := traverse.ParseUnit(unit)
		if err != nil {
			return fmt.Errorf("line %d: %w", n.Line, err)
		}
		d.Unit = u
	}
	return nil
}

// Meters converts d, using def when d carries no unit.
func (d Distance) Meters(def traverse.Unit) float64 {
	u := d.Unit
	if u == "" {
		u = def
	}
	return u.ToMeters(d.Value)
}

func parseScalar(n *yaml.Node, parse func(string) (float64, error)) (float64, error) {
	if n.Kind != yaml.ScalarNode {
		return 0, fmt.Errorf("line %d: expected a scalar", n.Line)
	}
	v, err := parse(n.Value)
	if err != nil {
		return 0, fmt.Errorf("line %d: %w", n.Line, err)
	}
	return v, nil
}

// Load reads and decodes a job file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("job: %w", err)
	}
	f, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("job: %s: %w", path, err)
	}
	return f, nil
}

// Decode reads a job document from r. Unknown keys are rejected.
func Decode(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty job")
		}
		return nil, err
	}
	if len(f.Polygons) == 0 {
		return nil, errors.New("no polygons")
	}
	return &f, nil
}

// Defaults are the values used when neither the file nor a polygon sets
// them.
type Defaults struct {
	Units   traverse.Unit
	Method  traverse.Method
	Closure traverse.ClosureMode
}

// Plans resolves every polygon into an engine plan.
func (f *File) Plans(def Defaults) ([]traverse.Plan, error) {
	def, err := f.merge(def)
	if err != nil {
		return nil, err
	}
	plans := make([]traverse.Plan, 0, len(f.Polygons))
	for i, p := range f.Polygons {
		plan, err := p.Plan(def)
		if err != nil {
			name := p.Name
			if name == "" {
				name = strconv.Itoa(i + 1)
			}
			return nil, fmt.Errorf("polygon %s: %w", name, err)
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

func (f *File) merge(def Defaults) (Defaults, error) {
	var err error
	if f.Units != "" {
		if def.Units, err = traverse.ParseUnit(f.Units); err != nil {
			return def, err
		}
	}
	if f.Method != "" {
		if def.Method, err = traverse.ParseMethod(f.Method); err != nil {
			return def, err
		}
	}
	if f.Closure != "" {
		if def.Closure, err = traverse.ParseClosureMode(f.Closure); err != nil {
			return def, err
		}
	}
	return def, nil
}

// Plan resolves the polygon into an engine plan; distances are converted
// to meters.
func (p Polygon) Plan(def Defaults) (traverse.Plan, error) {
	units, method, closure := def.Units, def.Method, def.Closure
	var err error
	if p.Units != "" {
		if units, err = traverse.ParseUnit(p.Units); err != nil {
			return traverse.Plan{}, err
		}
	}
	if p.Method != "" {
		if method, err = traverse.ParseMethod(p.Method); err != nil {
			return traverse.Plan{}, err
		}
	}
	if p.Closure != "" {
		if closure, err = traverse.ParseClosureMode(p.Closure); err != nil {
			return traverse.Plan{}, err
		}
	}
	if len(p.Courses) == 0 {
		return traverse.Plan{}, traverse.ErrEmptyStepSequence
	}

	plan := traverse.Plan{
		TiePoint: traverse.Coordinate{Lat: float64(p.TiePoint.Lat), Lon: float64(p.TiePoint.Lon)},
		Steps:    make([]traverse.StepRequest, 0, len(p.Courses)),
		Closure:  closure,
	}
	for i, c := range p.Courses {
		m := method
		if c.Method != "" {
			if m, err = traverse.ParseMethod(c.Method); err != nil {
				return traverse.Plan{}, fmt.Errorf("course %d: %w", i+1, err)
			}
		}
		plan.Steps = append(plan.Steps, traverse.StepRequest{
			Bearing:          float64(c.Bearing),
			Distance:         c.Distance.Meters(units),
			Method:           m,
			FallbackToSeries: c.Fallback,
		})
	}
	if mon := p.Monument; mon != nil {
		req := traverse.MonumentRequest{
			Bearing:  float64(mon.Bearing),
			Distance: mon.Distance.Meters(units),
			Method:   method,
			Label:    mon.Label,
		}
		switch strings.ToLower(strings.TrimSpace(mon.From)) {
		case "", "tie_point", "tie-point", "tie":
			req.From = traverse.FromTiePoint
		case "first_corner", "first-corner", "corner":
			req.From = traverse.FromFirstCorner
		default:
			return traverse.Plan{}, fmt.Errorf("monument: unknown anchor %q", mon.From)
		}
		if mon.Method != "" {
			if req.Method, err = traverse.ParseMethod(mon.Method); err != nil {
				return traverse.Plan{}, fmt.Errorf("monument: %w", err)
			}
		}
		plan.Monument = &req
	}
	return plan, nil
}
