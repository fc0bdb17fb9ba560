package isochrone

import (
	"fmt"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/mlmgis/isochrones/internal/feature"
)

// ToFeatureCollection converts a raw solve result to GeoJSON without
// adaptation: polygons keep every ring and lines keep every path as a
// MultiLineString. Attributes become properties unchanged.
func ToFeatureCollection(res *Result) (*geojson.FeatureCollection, error) {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(res.Polygons)+len(res.Lines))}

	for i, raw := range res.Polygons {
		if raw.Geometry.Rings == nil {
			return nil, fmt.Errorf("%w: polygon %d has no rings", feature.ErrAdaptation, i)
		}
		poly, err := geom.NewPolygon(layoutOf(raw.Geometry.Rings)).SetCoords(coords2(raw.Geometry.Rings))
		if err != nil {
			return nil, fmt.Errorf("%w: polygon %d: %v", feature.ErrAdaptation, i, err)
		}
		fc.Features = append(fc.Features, &geojson.Feature{Geometry: poly, Properties: raw.Attributes.Map()})
	}

	for i, raw := range res.Lines {
		if raw.Geometry.Paths == nil {
			return nil, fmt.Errorf("%w: line %d has no paths", feature.ErrAdaptation, i)
		}
		mls, err := geom.NewMultiLineString(layoutOf(raw.Geometry.Paths)).SetCoords(coords2(raw.Geometry.Paths))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", feature.ErrAdaptation, i, err)
		}
		fc.Features = append(fc.Features, &geojson.Feature{Geometry: mls, Properties: raw.Attributes.Map()})
	}

	return fc, nil
}

// layoutOf picks XYZ when the first vertex carries a third ordinate.
func layoutOf(parts [][][]float64) geom.Layout {
	for _, part := range parts {
		if len(part) > 0 {
			if len(part[0]) >= 3 {
				return geom.XYZ
			}
			return geom.XY
		}
	}
	return geom.XY
}

func coords2(parts [][][]float64) [][]geom.Coord {
	out := make([][]geom.Coord, len(parts))
	for i, part := range parts {
		out[i] = make([]geom.Coord, len(part))
		for j, c := range part {
			out[i][j] = geom.Coord(c)
		}
	}
	return out
}
