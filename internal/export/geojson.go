package export

import (
	"encoding/json"
	"io"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// FeatureCollection converts the report to GeoJSON: a Point feature per
// registered point and one outline feature per polygon, a Polygon when
// closed and a LineString otherwise.
func FeatureCollection(r Report) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	unit := r.unit()
	for _, d := range r.Documents {
		v := d.View
		numbers := cornerNumbers(v)
		for _, p := range v.Points() {
			f := geojson.NewFeature(orb.Point{p.Coordinate.Lon, p.Coordinate.Lat})
			f.ID = p.ID
			f.Properties["polygon"] = d.Name
			f.Properties["polygon_id"] = v.PolygonID
			f.Properties["role"] = p.Role.String()
			f.Properties["name"] = pointName(p, numbers[p.ID])
			if p.Label != "" {
				f.Properties["label"] = p.Label
			}
			fc.Append(f)
		}
		if len(v.Corners) < 2 {
			continue
		}
		ring := v.Ring()
		var g orb.Geometry = orb.LineString(ring)
		if v.Closed && len(v.Corners) >= 3 {
			g = orb.Polygon{ring}
		}
		f := geojson.NewFeature(g)
		f.Properties["polygon"] = d.Name
		f.Properties["polygon_id"] = v.PolygonID
		f.Properties["ellipsoid"] = v.Ellipsoid
		f.Properties["closed"] = v.Closed
		f.Properties["perimeter_m"] = d.Summary.Perimeter
		f.Properties["area_m2"] = d.Summary.Area
		f.Properties["misclosure_m"] = d.Summary.Misclosure
		f.Properties["units"] = string(unit)
		f.Properties["perimeter"] = unit.FromMeters(d.Summary.Perimeter)
		fc.Append(f)
	}
	return fc
}

// WriteGeoJSON writes the report as a GeoJSON FeatureCollection.
func WriteGeoJSON(w io.Writer, r Report) error {
	b, err := FeatureCollection(r).MarshalJSON()
	if err != nil {
		return err
	}
	var out json.RawMessage = b
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
