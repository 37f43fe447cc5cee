package traverse

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Axis says which coordinate a DMS string describes.
type Axis int

const (
	Latitude Axis = iota
	Longitude
)

func (a Axis) String() string {
	if a == Longitude {
		return "longitude"
	}
	return "latitude"
}

func (a Axis) limit() float64 {
	if a == Longitude {
		return 180
	}
	return 90
}

// ParseCoordinate reads a latitude or longitude written either in decimal
// degrees ("-68.0106") or as degrees, minutes and seconds with a hemisphere
// letter before or after ("68° 00' 38\"N", "W 110 0 38", "110-00-38W").
func ParseCoordinate(s string, axis Axis) (float64, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		if !finite(v) || math.Abs(v) > axis.limit() {
			return 0, fmt.Errorf("%w: %s %q out of range", ErrInvalidCoordinate, axis, s)
		}
		return v, nil
	}
	d, err := parseDMS(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q: %v", ErrInvalidCoordinate, axis, s, err)
	}
	if d.prefix != 0 && d.suffix != 0 && d.prefix != d.suffix {
		return 0, fmt.Errorf("%w: %s %q has two hemispheres", ErrInvalidCoordinate, axis, s)
	}
	hemi := d.prefix
	if hemi == 0 {
		hemi = d.suffix
	}
	sign := 1.0
	switch hemi {
	case 0:
		if d.negative {
			sign = -1
		}
	case 'N', 'S':
		if axis != Latitude {
			return 0, fmt.Errorf("%w: %s %q uses hemisphere %c", ErrInvalidCoordinate, axis, s, hemi)
		}
		if hemi == 'S' {
			sign = -1
		}
	case 'E', 'W':
		if axis != Longitude {
			return 0, fmt.Errorf("%w: %s %q uses hemisphere %c", ErrInvalidCoordinate, axis, s, hemi)
		}
		if hemi == 'W' {
			sign = -1
		}
	}
	if d.negative && hemi != 0 {
		return 0, fmt.Errorf("%w: %s %q has both a sign and a hemisphere", ErrInvalidCoordinate, axis, s)
	}
	if d.value > axis.limit() {
		return 0, fmt.Errorf("%w: %s %q out of range", ErrInvalidCoordinate, axis, s)
	}
	return sign * d.value, nil
}

// ParseBearing reads a bearing as decimal degrees clockwise from north, as
// an unsigned DMS azimuth, or in quadrant survey notation such as
// "N 45° 30' 30\" E" or "S45-30-30W". The result is in [0, 360).
func ParseBearing(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return NormalizeBearing(v)
	}
	d, err := parseDMS(s)
	if err != nil || d.negative {
		return 0, fmt.Errorf("%w: %q", ErrInvalidBearing, s)
	}
	if d.prefix == 0 && d.suffix == 0 {
		return NormalizeBearing(d.value)
	}
	if d.value > 90 {
		return 0, fmt.Errorf("%w: quadrant angle in %q exceeds 90 degrees", ErrInvalidBearing, s)
	}
	switch string([]rune{d.prefix, d.suffix}) {
	case "NE":
		return wrap360(d.value), nil
	case "NW":
		return wrap360(360 - d.value), nil
	case "SE":
		return 180 - d.value, nil
	case "SW":
		return 180 + d.value, nil
	}
	return 0, fmt.Errorf("%w: %q needs N or S before the angle and E or W after it", ErrInvalidBearing, s)
}

// FormatQuadrantBearing writes a bearing in quadrant survey notation with
// seconds to two decimals, e.g. N 45°30'30.00" E.
func FormatQuadrantBearing(bearing float64) string {
	b := wrap360(bearing)
	var from, to string
	var angle float64
	switch {
	case b <= 90:
		from, to, angle = "N", "E", b
	case b <= 180:
		from, to, angle = "S", "E", 180-b
	case b <= 270:
		from, to, angle = "S", "W", b-180
	default:
		from, to, angle = "N", "W", 360-b
	}
	return from + " " + formatDMS(angle) + " " + to
}

// FormatDMS writes a coordinate as unsigned DMS with a hemisphere letter.
func FormatDMS(value float64, axis Axis) string {
	hemi := "N"
	if axis == Longitude {
		hemi = "E"
	}
	if value < 0 {
		if axis == Longitude {
			hemi = "W"
		} else {
			hemi = "S"
		}
	}
	return formatDMS(math.Abs(value)) + hemi
}

func formatDMS(v float64) string {
	// work in hundredths of a second so rounding carries into minutes
	total := math.Round(v * 360000)
	deg := math.Floor(total / 360000)
	rem := total - deg*360000
	mins := math.Floor(rem / 6000)
	sec := (rem - mins*6000) / 100
	return fmt.Sprintf("%d°%02d'%05.2f\"", int(deg), int(mins), sec)
}

type dms struct {
	prefix, suffix rune
	negative       bool
	value          float64
}

// parseDMS splits a string into an optional leading and trailing compass
// letter and one to three numeric fields (degrees, minutes, seconds).
func parseDMS(s string) (dms, error) {
	var d dms
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, word := range []string{"DEGREES", "DEG"} {
		s = strings.ReplaceAll(s, word, " ")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return d, fmt.Errorf("empty")
	}
	if r := rune(s[0]); isCompass(r) {
		d.prefix = r
		s = strings.TrimSpace(s[1:])
	} else if s[0] == '-' {
		d.negative = true
		s = strings.TrimSpace(s[1:])
	}
	if n := len(s); n > 0 && isCompass(rune(s[n-1])) {
		d.suffix = rune(s[n-1])
		s = strings.TrimSpace(s[:n-1])
	}
	for _, r := range s {
		if unicode.IsDigit(r) || r == '.' || unicode.IsSpace(r) || strings.ContainsRune(`°º'"′″:-`, r) {
			continue
		}
		return d, fmt.Errorf("unexpected %q", r)
	}
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsDigit(r) && r != '.'
	})
	if len(fields) == 0 || len(fields) > 3 {
		return d, fmt.Errorf("want degrees, minutes and seconds")
	}
	var parts [3]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return d, err
		}
		if i > 0 && v >= 60 {
			return d, fmt.Errorf("field %q must be below 60", f)
		}
		parts[i] = v
	}
	d.value = parts[0] + parts[1]/60 + parts[2]/3600
	return d, nil
}

func isCompass(r rune) bool {
	return r == 'N' || r == 'S' || r == 'E' || r == 'W'
}

// Unit is a length unit for course distances.
type Unit string

const (
	Meters Unit = "meters"
	// Feet is the international foot, 0.3048 m exactly.
	Feet Unit = "feet"
	// USSurveyFeet is the US survey foot, 1200/3937 m.
	USSurveyFeet Unit = "usft"
)

// ParseUnit accepts unit names and abbreviations; empty means meters.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "m", "meter", "meters", "metre", "metres":
		return Meters, nil
	case "ft", "foot", "feet", "international-feet":
		return Feet, nil
	case "usft", "us-ft", "survey-feet", "us-survey-feet", "ussurveyfeet":
		return USSurveyFeet, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownUnit, s)
}

func (u Unit) metersPer() float64 {
	switch u {
	case Feet:
		return 0.3048
	case USSurveyFeet:
		return 1200.0 / 3937.0
	}
	return 1
}

// ToMeters converts a distance in u to meters.
func (u Unit) ToMeters(v float64) float64 { return v * u.metersPer() }

// FromMeters converts a distance in meters to u.
func (u Unit) FromMeters(m float64) float64 { return m / u.metersPer() }

func (u Unit) String() string { return string(u) }
