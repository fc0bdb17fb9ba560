package feature

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	orbgeojson "github.com/paulmach/orb/geojson"
	orbwkt "github.com/paulmach/orb/encoding/wkt"
	"github.com/twpayne/go-geom"
	geomwkt "github.com/twpayne/go-geom/encoding/wkt"
)

// Kind distinguishes the two feature collections of a solve result.
type Kind int

const (
	// KindPolygon is a service-area polygon (saPolygons).
	KindPolygon Kind = iota
	// KindLine is a service-area line (saPolylines).
	KindLine
)

func (k Kind) String() string {
	if k == KindLine {
		return "line"
	}
	return "polygon"
}

// GeometryType returns the output geometry type for features of this kind.
func (k Kind) GeometryType() GeometryType {
	if k == KindLine {
		return GeometryLineStringZ
	}
	return GeometryPolygon
}

// GeometryType is the geometry type an output sink is opened with.
type GeometryType int

const (
	// GeometryPolygon is a 2-D polygon.
	GeometryPolygon GeometryType = iota
	// GeometryLineStringZ is a line string whose z ordinate carries the route measure.
	GeometryLineStringZ
)

func (g GeometryType) String() string {
	if g == GeometryLineStringZ {
		return "LineStringZ"
	}
	return "Polygon"
}

// polygonFromRings imports rings as a GeoJSON polygon and re-expresses it in
// the go-geom model through WKT.
func polygonFromRings(rings [][][]float64) (*geom.Polygon, error) {
	if len(rings) == 0 {
		return nil, fmt.Errorf("%w: polygon has no rings", ErrAdaptation)
	}

	doc, err := json.Marshal(struct {
		Type        string        `json:"type"`
		Coordinates [][][]float64 `json:"coordinates"`
	}{Type: "Polygon", Coordinates: rings})
	if err != nil {
		return nil, fmt.Errorf("%w: encoding rings: %v", ErrAdaptation, err)
	}

	imported, err := orbgeojson.UnmarshalGeometry(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: importing rings: %v", ErrAdaptation, err)
	}
	poly, ok := imported.Geometry().(orb.Polygon)
	if !ok {
		return nil, fmt.Errorf("%w: rings imported as %s", ErrAdaptation, imported.Geometry().GeoJSONType())
	}

	g, err := geomwkt.Unmarshal(orbwkt.MarshalString(poly))
	if err != nil {
		return nil, fmt.Errorf("%w: parsing wkt: %v", ErrAdaptation, err)
	}
	out, ok := g.(*geom.Polygon)
	if !ok {
		return nil, fmt.Errorf("%w: wkt parsed as %T", ErrAdaptation, g)
	}
	return out, nil
}

// lineFromPaths builds an XYZ line string from the first path only; further
// paths of the same feature are dropped. The z ordinate is the route measure.
func lineFromPaths(paths [][][]float64) (*geom.LineString, error) {
	if len(paths) == 0 || len(paths[0]) == 0 {
		return nil, fmt.Errorf("%w: line has no vertices", ErrAdaptation)
	}

	path := paths[0]
	coords := make([]geom.Coord, 0, len(path))
	for i, v := range path {
		if len(v) < 3 {
			return nil, fmt.Errorf("%w: vertex %d has %d ordinates, want x, y and measure", ErrAdaptation, i, len(v))
		}
		coords = append(coords, geom.Coord{v[0], v[1], v[2]})
	}

	line, err := geom.NewLineString(geom.XYZ).SetCoords(coords)
	if err != nil {
		return nil, fmt.Errorf("%w: building line: %v", ErrAdaptation, err)
	}
	return line, nil
}

// Rings exports a polygon back to the service's ring format.
func Rings(p *geom.Polygon) [][][]float64 {
	coords := p.Coords()
	rings := make([][][]float64, len(coords))
	for i, ring := range coords {
		rings[i] = make([][]float64, len(ring))
		for j, c := range ring {
			rings[i][j] = append([]float64(nil), c...)
		}
	}
	return rings
}

// Path exports a line string back to the service's path format.
func Path(l *geom.LineString) [][]float64 {
	coords := l.Coords()
	path := make([][]float64, len(coords))
	for i, c := range coords {
		path[i] = append([]float64(nil), c...)
	}
	return path
}
