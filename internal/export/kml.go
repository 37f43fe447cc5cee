package export

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/terratracer/traverse"
)

const kmlNamespace = "http://www.opengis.net/kml/2.2"

type kmlDoc struct {
	XMLName  xml.Name    `xml:"kml"`
	Xmlns    string      `xml:"xmlns,attr"`
	Document kmlDocument `xml:"Document"`
}

type kmlDocument struct {
	Name        string      `xml:"name"`
	Description string      `xml:"description,omitempty"`
	Folders     []kmlFolder `xml:"Folder"`
}

type kmlFolder struct {
	Name       string         `xml:"name"`
	Placemarks []kmlPlacemark `xml:"Placemark"`
}

type kmlPlacemark struct {
	Name        string         `xml:"name"`
	Description string         `xml:"description,omitempty"`
	Style       *kmlStyle      `xml:"Style,omitempty"`
	Point       *kmlPoint      `xml:"Point,omitempty"`
	LineString  *kmlLineString `xml:"LineString,omitempty"`
	Polygon     *kmlPolygon    `xml:"Polygon,omitempty"`
}

type kmlStyle struct {
	LineStyle kmlLineStyle  `xml:"LineStyle"`
	PolyStyle *kmlPolyStyle `xml:"PolyStyle,omitempty"`
}

type kmlLineStyle struct {
	Color string `xml:"color"`
	Width int    `xml:"width"`
}

type kmlPolyStyle struct {
	Color string `xml:"color"`
}

type kmlPoint struct {
	Coordinates string `xml:"coordinates"`
}

type kmlLineString struct {
	Tessellate  int    `xml:"tessellate"`
	Coordinates string `xml:"coordinates"`
}

type kmlPolygon struct {
	Outer kmlBoundary `xml:"outerBoundaryIs"`
}

type kmlBoundary struct {
	LinearRing kmlLinearRing `xml:"LinearRing"`
}

type kmlLinearRing struct {
	Coordinates string `xml:"coordinates"`
}

// WriteKML writes a KML 2.2 document with one folder per polygon. Each
// folder holds a placemark per point (tie point, corners, monument) and the
// outline: a Polygon whose ring repeats the first corner when the traverse
// is closed, a LineString when it is open. A closing course adds no
// placemark.
func WriteKML(w io.Writer, r Report) error {
	doc := kmlDoc{
		Xmlns: kmlNamespace,
		Document: kmlDocument{
			Name:        r.title(),
			Description: "Polygon from the computed points with reference point",
		},
	}
	for _, d := range r.Documents {
		doc.Document.Folders = append(doc.Document.Folders, kmlFolderFor(d))
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func kmlFolderFor(d Document) kmlFolder {
	v := d.View
	numbers := cornerNumbers(v)
	f := kmlFolder{Name: d.Name}
	for _, p := range v.Points() {
		desc := fmt.Sprintf("%s %s (point %d)",
			dmsLat(p.Coordinate.Lat), dmsLon(p.Coordinate.Lon), p.ID)
		if p.Role == traverse.RoleTiePoint {
			desc = "Initial reference point, " + desc
		}
		f.Placemarks = append(f.Placemarks, kmlPlacemark{
			Name:        pointName(p, numbers[p.ID]),
			Description: desc,
			Point:       &kmlPoint{Coordinates: kmlCoord(p.Coordinate)},
		})
	}
	if len(v.Corners) < 2 {
		return f
	}
	outline := kmlPlacemark{
		Name:        d.Name,
		Description: fmt.Sprintf("%d corners, perimeter %.3f m", d.Summary.Corners, d.Summary.Perimeter),
		Style:       &kmlStyle{LineStyle: kmlLineStyle{Color: "ff000000", Width: 2}},
	}
	coords := make([]string, 0, len(v.Corners)+1)
	for _, c := range v.Corners {
		coords = append(coords, kmlCoord(c.Coordinate))
	}
	if v.Closed && len(v.Corners) >= 3 {
		coords = append(coords, coords[0])
		outline.Style.PolyStyle = &kmlPolyStyle{Color: "3300ff00"}
		outline.Polygon = &kmlPolygon{Outer: kmlBoundary{LinearRing: kmlLinearRing{Coordinates: strings.Join(coords, " ")}}}
	} else {
		if v.Closed {
			coords = append(coords, coords[0])
		}
		outline.LineString = &kmlLineString{Tessellate: 1, Coordinates: strings.Join(coords, " ")}
	}
	f.Placemarks = append(f.Placemarks, outline)
	return f
}

func kmlCoord(c traverse.Coordinate) string {
	return strconv.FormatFloat(c.Lon, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lat, 'f', -1, 64) + ",0"
}
