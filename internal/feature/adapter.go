package feature

import (
	"fmt"

	"github.com/twpayne/go-geom"
)

// Feature is an output feature: typed fields, their values and a geometry.
type Feature struct {
	Kind     Kind
	Fields   []Field
	Values   []any
	Geometry geom.T
}

// GeometryType returns the geometry type of the feature.
func (f *Feature) GeometryType() GeometryType {
	return f.Kind.GeometryType()
}

// Value returns the value of the named field.
func (f *Feature) Value(name string) (any, bool) {
	for i, fld := range f.Fields {
		if fld.Name == name {
			return f.Values[i], true
		}
	}
	return nil, false
}

// Properties returns the field values keyed by field name.
func (f *Feature) Properties() map[string]any {
	props := make(map[string]any, len(f.Fields))
	for i, fld := range f.Fields {
		props[fld.Name] = f.Values[i]
	}
	return props
}

// Adapt converts a raw service feature into an output feature.
//
// Paths are checked before rings. A geometry with neither fails with
// ErrAdaptation, as does a geometry that does not match kind.
func Adapt(raw RawFeature, kind Kind) (*Feature, error) {
	out := &Feature{
		Kind:   kind,
		Fields: make([]Field, 0, len(raw.Attributes)),
		Values: make([]any, 0, len(raw.Attributes)),
	}

	for _, attr := range raw.Attributes {
		t := Classify(attr.Value)
		out.Fields = append(out.Fields, Field{Name: attr.Key, Type: t})
		out.Values = append(out.Values, normalize(attr.Value, t))
	}

	switch {
	case raw.Geometry.Paths != nil:
		line, err := lineFromPaths(raw.Geometry.Paths)
		if err != nil {
			return nil, err
		}
		out.Geometry = line
	case raw.Geometry.Rings != nil:
		poly, err := polygonFromRings(raw.Geometry.Rings)
		if err != nil {
			return nil, err
		}
		out.Geometry = poly
	default:
		return nil, fmt.Errorf("%w: geometry has neither rings nor paths", ErrAdaptation)
	}

	if got := geometryTypeOf(out.Geometry); got != kind.GeometryType() {
		return nil, fmt.Errorf("%w: %s feature carries %s geometry", ErrAdaptation, kind, got)
	}

	return out, nil
}

func geometryTypeOf(g geom.T) GeometryType {
	if _, ok := g.(*geom.LineString); ok {
		return GeometryLineStringZ
	}
	return GeometryPolygon
}
