package traverse

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/dhconnelly/rtreego"
)

// Role describes what a registered point is.
type Role uint8

const (
	RoleTiePoint Role = iota + 1
	RoleCorner
	RoleMonument
	RoleClosurePoint
)

var roleNames = map[Role]string{
	RoleTiePoint:     "tie_point",
	RoleCorner:       "corner",
	RoleMonument:     "monument",
	RoleClosurePoint: "closure_point",
}

func (r Role) String() string {
	if s, ok := roleNames[r]; ok {
		return s
	}
	return fmt.Sprintf("Role(%d)", uint8(r))
}

func (r Role) MarshalText() ([]byte, error) {
	if _, ok := roleNames[r]; !ok {
		return nil, fmt.Errorf("traverse: unknown role %d", uint8(r))
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	s := strings.ToLower(string(b))
	for role, name := range roleNames {
		if name == s {
			*r = role
			return nil
		}
	}
	return fmt.Errorf("traverse: unknown role %q", s)
}

// Point is a registered, immutable position. IDs start at 1.
type Point struct {
	ID         uint64     `json:"id"`
	Coordinate Coordinate `json:"coordinate"`
	Role       Role       `json:"role"`
	Label      string     `json:"label,omitempty"`
}

// Registry hands out point identities. IDs are assigned in registration
// order without gaps and are never reused. Points cannot be changed or
// removed once registered.
//
// The zero value is an empty registry ready to use. A Registry is not safe
// for concurrent use; give each independently built polygon set its own.
type Registry struct {
	points   []Point
	index    *rtreego.Rtree
	polygons uint64
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: rtreego.NewTree(2, 25, 50)}
}

// Register stores c under the next id.
func (r *Registry) Register(c Coordinate, role Role) Point {
	return r.RegisterLabeled(c, role, "")
}

// RegisterLabeled is Register with a display label, used for monuments.
func (r *Registry) RegisterLabeled(c Coordinate, role Role, label string) Point {
	p := Point{
		ID:         uint64(len(r.points)) + 1,
		Coordinate: c,
		Role:       role,
		Label:      label,
	}
	r.points = append(r.points, p)
	if r.index == nil {
		r.index = rtreego.NewTree(2, 25, 50)
	}
	r.index.Insert(&indexedPoint{id: p.ID, rect: rtreego.Point{c.Lon, c.Lat}.ToRect(1e-9)})
	return p
}

// Lookup returns the point registered under id.
func (r *Registry) Lookup(id uint64) (Point, error) {
	if id == 0 || id > uint64(len(r.points)) {
		return Point{}, fmt.Errorf("%w: %d", ErrUnknownPointID, id)
	}
	return r.points[id-1], nil
}

// Len is the number of registered points.
func (r *Registry) Len() int {
	return len(r.points)
}

// Points returns a copy of every point in id order.
func (r *Registry) Points() []Point {
	out := make([]Point, len(r.points))
	copy(out, r.points)
	return out
}

// Near returns the points within radiusMeters of c, measured on e, in id
// order. When roles are given only points with one of them are returned.
func (r *Registry) Near(c Coordinate, radiusMeters float64, e *Ellipsoid, roles ...Role) []Point {
	if !(radiusMeters > 0) || len(r.points) == 0 {
		return nil
	}
	e = orDefault(e)

	// a degree of latitude is at least 110.5 km on any terrestrial
	// ellipsoid; pad the box a little and confirm with the inverse problem
	dLat := radiusMeters / 110000 * 1.05
	cos := math.Cos(c.Lat * radians)
	dLon := 360.0
	if cos > 1e-6 {
		dLon = dLat / cos
	}
	minLat := math.Max(-90, c.Lat-dLat)
	maxLat := math.Min(90, c.Lat+dLat)

	seen := make(map[uint64]bool)
	var candidates []uint64
	collect := func(minLon, maxLon float64) {
		rect, err := rtreego.NewRect(rtreego.Point{minLon, minLat - 1e-9},
			[]float64{maxLon - minLon, maxLat - minLat + 2e-9})
		if err != nil {
			return
		}
		for _, s := range r.index.SearchIntersect(rect) {
			ip := s.(*indexedPoint)
			if !seen[ip.id] {
				seen[ip.id] = true
				candidates = append(candidates, ip.id)
			}
		}
	}
	if dLon >= 180 {
		collect(-180, 180)
	} else {
		minLon, maxLon := c.Lon-dLon, c.Lon+dLon
		collect(math.Max(-180, minLon), math.Min(180, maxLon))
		if minLon < -180 {
			collect(minLon+360, 180)
		}
		if maxLon > 180 {
			collect(-180, maxLon-360)
		}
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i] < candidates[j] })
	var out []Point
	for _, id := range candidates {
		p := r.points[id-1]
		if len(roles) > 0 && !hasRole(roles, p.Role) {
			continue
		}
		inv, err := Inverse(c, p.Coordinate, e)
		if err != nil || inv.Distance > radiusMeters {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (r *Registry) nextPolygonID() uint64 {
	r.polygons++
	return r.polygons
}

func hasRole(roles []Role, role Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// indexedPoint adapts a registered point to the rtree.
type indexedPoint struct {
	id   uint64
	rect rtreego.Rect
}

func (p *indexedPoint) Bounds() rtreego.Rect {
	return p.rect
}
