package feature

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Sentinel errors for feature adaptation.
var (
	// ErrAdaptation indicates a returned feature could not be converted.
	ErrAdaptation = errors.New("feature adaptation failed")
	// ErrSchemaMismatch indicates a feature does not fit the schema fixed by the first feature.
	ErrSchemaMismatch = errors.New("feature does not match output schema")
)

// FieldType is the inferred scalar type of an attribute.
type FieldType int

const (
	// FieldText holds strings and nulls.
	FieldText FieldType = iota
	// FieldInteger holds whole numbers.
	FieldInteger
	// FieldFloat holds floating-point numbers.
	FieldFloat
)

func (t FieldType) String() string {
	switch t {
	case FieldInteger:
		return "integer"
	case FieldFloat:
		return "float"
	default:
		return "text"
	}
}

// Classify infers the field type of an attribute value.
//
// The checks run in a fixed order: integer, then string-or-null (text), then
// float, and anything else falls back to text. A null is therefore always
// text and never numeric. An integer literal outside the int64 range is text
// so its digits are kept exactly.
func Classify(v any) FieldType {
	switch {
	case isInteger(v):
		return FieldInteger
	case isTextOrNull(v), isWideInteger(v):
		return FieldText
	case isFloat(v):
		return FieldFloat
	default:
		return FieldText
	}
}

func isInteger(v any) bool {
	switch n := v.(type) {
	case int, int32, int64:
		return true
	case json.Number:
		if strings.ContainsAny(string(n), ".eE") {
			return false
		}
		_, err := n.Int64()
		return err == nil
	default:
		return false
	}
}

func isWideInteger(v any) bool {
	n, ok := v.(json.Number)
	if !ok || strings.ContainsAny(string(n), ".eE") {
		return false
	}
	_, err := n.Int64()
	return err != nil
}

func isTextOrNull(v any) bool {
	if v == nil {
		return true
	}
	_, ok := v.(string)
	return ok
}

func isFloat(v any) bool {
	switch v.(type) {
	case float32, float64, json.Number:
		return true
	default:
		return false
	}
}

// normalize converts a raw attribute value into the Go value stored for t.
func normalize(v any, t FieldType) any {
	if v == nil {
		return nil
	}

	switch t {
	case FieldInteger:
		switch n := v.(type) {
		case int:
			return int64(n)
		case int32:
			return int64(n)
		case int64:
			return n
		case json.Number:
			i, _ := n.Int64()
			return i
		}
	case FieldFloat:
		switch n := v.(type) {
		case float32:
			return float64(n)
		case float64:
			return n
		case json.Number:
			f, err := strconv.ParseFloat(string(n), 64)
			if err != nil && !math.IsInf(f, 0) {
				return string(n)
			}
			return f
		}
	}

	switch s := v.(type) {
	case string:
		return s
	case bool:
		return strconv.FormatBool(s)
	default:
		b, err := json.Marshal(s)
		if err != nil {
			return fmt.Sprint(s)
		}
		return string(b)
	}
}

// Field describes one typed attribute column.
type Field struct {
	Name string
	Type FieldType
}

// Schema is the field layout and geometry type of an output sink.
type Schema struct {
	Fields   []Field
	Geometry GeometryType
}

// SchemaOf returns the schema established by f.
func SchemaOf(f *Feature) Schema {
	fields := make([]Field, len(f.Fields))
	copy(fields, f.Fields)
	return Schema{Fields: fields, Geometry: f.GeometryType()}
}

// EmptySchema returns a schema without fields for the given kind.
func EmptySchema(kind Kind) Schema {
	return Schema{Geometry: kind.GeometryType()}
}

// Field returns the field named name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (t FieldType) numeric() bool {
	return t == FieldInteger || t == FieldFloat
}

// Check verifies that f fits the schema. A value fits its field when it is
// null or when both types are text or both are numeric. Integer and float
// values mix freely; Widen settles the column type.
func (s Schema) Check(f *Feature) error {
	if f.GeometryType() != s.Geometry {
		return fmt.Errorf("%w: geometry %s, want %s", ErrSchemaMismatch, f.GeometryType(), s.Geometry)
	}
	if len(f.Fields) != len(s.Fields) {
		return fmt.Errorf("%w: %d fields, want %d", ErrSchemaMismatch, len(f.Fields), len(s.Fields))
	}

	for i, fld := range f.Fields {
		want, ok := s.Field(fld.Name)
		if !ok {
			return fmt.Errorf("%w: unexpected field %q", ErrSchemaMismatch, fld.Name)
		}
		if f.Values[i] == nil || fld.Type == want.Type {
			continue
		}
		if fld.Type.numeric() && want.Type.numeric() {
			continue
		}
		return fmt.Errorf("%w: field %q is %s, want %s", ErrSchemaMismatch, fld.Name, fld.Type, want.Type)
	}
	return nil
}

// Widen promotes integer fields to float where f carries a float value.
func (s *Schema) Widen(f *Feature) {
	for i, fld := range f.Fields {
		if fld.Type != FieldFloat || f.Values[i] == nil {
			continue
		}
		for j := range s.Fields {
			if s.Fields[j].Name == fld.Name && s.Fields[j].Type == FieldInteger {
				s.Fields[j].Type = FieldFloat
			}
		}
	}
}

// Row returns f's values in schema field order, converted to the schema's
// column types. Missing fields are null.
func (s Schema) Row(f *Feature) []any {
	row := make([]any, len(s.Fields))
	for i, fld := range s.Fields {
		v, ok := f.Value(fld.Name)
		if !ok || v == nil {
			continue
		}
		if n, isInt := v.(int64); isInt && fld.Type == FieldFloat {
			v = float64(n)
		}
		row[i] = v
	}
	return row
}
