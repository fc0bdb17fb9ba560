// Package source reads the input facility points and reprojects them to
// geographic coordinates.
package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ErrInvalidInput indicates an input layer that is not a point FeatureCollection.
var ErrInvalidInput = errors.New("invalid input layer")

// Point is one input facility in the layer's CRS.
type Point struct {
	ID       string
	Geometry orb.Point
}

// PointSet is an ordered point layer with its coordinate reference system.
type PointSet struct {
	CRS    string
	Points []Point
}

// Len returns the number of points.
func (s *PointSet) Len() int {
	return len(s.Points)
}

// legacyCRS is the pre-RFC 7946 "crs" member still written by desktop GIS exports.
type legacyCRS struct {
	CRS *struct {
		Type       string `json:"type"`
		Properties struct {
			Name string `json:"name"`
		} `json:"properties"`
	} `json:"crs"`
}

// ReadPoints reads a GeoJSON FeatureCollection of points. A named "crs" member
// overrides defaultCRS; without either the layer is taken as EPSG:4326.
func ReadPoints(r io.Reader, defaultCRS string) (*PointSet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return ParsePoints(data, defaultCRS)
}

// ParsePoints is ReadPoints over an in-memory document.
func ParsePoints(data []byte, defaultCRS string) (*PointSet, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	crs := defaultCRS
	var legacy legacyCRS
	if err := json.Unmarshal(data, &legacy); err == nil && legacy.CRS != nil && legacy.CRS.Properties.Name != "" {
		crs = legacy.CRS.Properties.Name
	}
	if crs == "" {
		crs = WGS84
	}

	set := &PointSet{CRS: crs, Points: make([]Point, 0, len(fc.Features))}
	for i, f := range fc.Features {
		p, ok := f.Geometry.(orb.Point)
		if !ok {
			typ := "null"
			if f.Geometry != nil {
				typ = f.Geometry.GeoJSONType()
			}
			return nil, fmt.Errorf("%w: feature %d is a %s, want Point", ErrInvalidInput, i, typ)
		}
		set.Points = append(set.Points, Point{ID: featureID(f, i), Geometry: p})
	}
	return set, nil
}

func featureID(f *geojson.Feature, index int) string {
	if f.ID != nil {
		if s := strings.TrimSpace(fmt.Sprint(f.ID)); s != "" {
			return s
		}
	}
	return fmt.Sprintf("%d", index+1)
}
