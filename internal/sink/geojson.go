package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/mlmgis/isochrones/internal/feature"
)

// GeoJSONFile is a destination that writes a FeatureCollection file.
// The path "-" writes to standard output.
type GeoJSONFile struct {
	path   string
	stdout io.Writer
}

// NewGeoJSONFile creates a GeoJSON file destination.
func NewGeoJSONFile(path string) *GeoJSONFile {
	return &GeoJSONFile{path: path, stdout: os.Stdout}
}

func (d *GeoJSONFile) String() string {
	if d.path == "-" {
		return "geojson:stdout"
	}
	return "geojson:" + d.path
}

// Open starts a temporary file next to the output. The output itself is only
// replaced when the sink is closed, and a discarded sink leaves it untouched.
func (d *GeoJSONFile) Open(_ context.Context, schema feature.Schema) (Sink, error) {
	s := &geoJSONSink{
		schema: schema,
		fc:     &geojson.FeatureCollection{Features: []*geojson.Feature{}},
	}
	if d.path == "-" {
		s.w = d.stdout
		return s, nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(d.path), "."+filepath.Base(d.path)+".*")
	if err != nil {
		return nil, fmt.Errorf("%w: creating %s: %v", ErrSink, d.path, err)
	}
	s.w = tmp
	s.tmp = tmp
	s.path = d.path
	return s, nil
}

type geoJSONSink struct {
	w      io.Writer
	tmp    *os.File
	path   string
	schema feature.Schema
	fc     *geojson.FeatureCollection
}

func (s *geoJSONSink) AddFeatures(_ context.Context, features []*feature.Feature) error {
	for _, f := range features {
		if f.GeometryType() != s.schema.Geometry {
			return fmt.Errorf("%w: %s feature written to %s output", ErrSink, f.GeometryType(), s.schema.Geometry)
		}
		s.fc.Features = append(s.fc.Features, toGeoJSON(s.schema, f, len(s.fc.Features)+1))
	}
	return nil
}

// Close writes the collection and moves it into place.
func (s *geoJSONSink) Close() error {
	if err := json.NewEncoder(s.w).Encode(s.fc); err != nil {
		_ = s.Discard()
		return fmt.Errorf("%w: encoding feature collection: %v", ErrSink, err)
	}
	if s.tmp == nil {
		return nil
	}

	name := s.tmp.Name()
	if err := s.tmp.Chmod(0o644); err != nil { //nolint:gosec // output is a shared data file
		_ = s.Discard()
		return fmt.Errorf("%w: closing output: %v", ErrSink, err)
	}
	if err := s.tmp.Close(); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("%w: closing output: %v", ErrSink, err)
	}
	if err := os.Rename(name, s.path); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("%w: writing %s: %v", ErrSink, s.path, err)
	}
	return nil
}

// Discard drops the collection without touching the output.
func (s *geoJSONSink) Discard() error {
	if s.tmp == nil {
		return nil
	}
	_ = s.tmp.Close()
	if err := os.Remove(s.tmp.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: removing %s: %v", ErrSink, s.tmp.Name(), err)
	}
	return nil
}

// ToFeatureCollection converts features written under schema into a GeoJSON
// FeatureCollection.
func ToFeatureCollection(schema feature.Schema, features []*feature.Feature) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(features))}
	for i, f := range features {
		fc.Features = append(fc.Features, toGeoJSON(schema, f, i+1))
	}
	return fc
}

func toGeoJSON(schema feature.Schema, f *feature.Feature, id int) *geojson.Feature {
	row := schema.Row(f)
	props := make(map[string]interface{}, len(row))
	for i, fld := range schema.Fields {
		props[fld.Name] = row[i]
	}
	return &geojson.Feature{
		ID:         strconv.Itoa(id),
		Geometry:   f.Geometry,
		Properties: props,
	}
}
