package sink

import (
	"context"
	"fmt"
	"sync"

	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/mlmgis/isochrones/internal/feature"
)

// Memory is a destination that keeps written features in memory.
type Memory struct {
	name string

	mu       sync.Mutex
	opened   bool
	closed   bool
	schema   feature.Schema
	features []*feature.Feature
}

// NewMemory creates an in-memory destination.
func NewMemory(name string) *Memory {
	return &Memory{name: name}
}

func (m *Memory) String() string {
	return "memory:" + m.name
}

// Open resets the destination to schema.
func (m *Memory) Open(_ context.Context, schema feature.Schema) (Sink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opened = true
	m.closed = false
	m.schema = schema
	m.features = nil
	return &memorySink{m: m}, nil
}

// Opened reports whether Open was called.
func (m *Memory) Opened() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opened
}

// Closed reports whether the sink was closed.
func (m *Memory) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Schema returns the schema the sink was opened with.
func (m *Memory) Schema() feature.Schema {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.schema
}

// Features returns the written features.
func (m *Memory) Features() []*feature.Feature {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*feature.Feature, len(m.features))
	copy(out, m.features)
	return out
}

// FeatureCollection returns the written features as GeoJSON.
func (m *Memory) FeatureCollection() *geojson.FeatureCollection {
	m.mu.Lock()
	defer m.mu.Unlock()
	return ToFeatureCollection(m.schema, m.features)
}

type memorySink struct {
	m *Memory
}

func (s *memorySink) AddFeatures(_ context.Context, features []*feature.Feature) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.closed {
		return fmt.Errorf("%w: %s is closed", ErrSink, s.m.String())
	}
	for _, f := range features {
		if f.GeometryType() != s.m.schema.Geometry {
			return fmt.Errorf("%w: %s feature written to %s output", ErrSink, f.GeometryType(), s.m.schema.Geometry)
		}
	}
	s.m.features = append(s.m.features, features...)
	return nil
}

func (s *memorySink) Close() error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.m.closed = true
	return nil
}
