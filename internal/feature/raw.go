// Package feature converts service-area features returned by the solver into
// typed output features: a field schema inferred from the attribute bag plus a
// go-geom geometry.
package feature

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RawFeature is a single feature as returned by the solve endpoint.
type RawFeature struct {
	Attributes Attributes  `json:"attributes"`
	Geometry   RawGeometry `json:"geometry"`
}

// RawGeometry holds either polygon rings or polyline paths.
// A nil slice means the key was absent from the response.
type RawGeometry struct {
	Rings [][][]float64 `json:"rings,omitempty"`
	Paths [][][]float64 `json:"paths,omitempty"`
}

// Attribute is one key/value pair of a feature's attribute bag.
type Attribute struct {
	Key   string
	Value any
}

// Attributes is an attribute bag that keeps the key order of the response.
// Numbers are kept as json.Number so integers and floats stay distinguishable.
type Attributes []Attribute

// UnmarshalJSON decodes a JSON object preserving key order.
func (a *Attributes) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decoding attributes: %w", err)
	}
	if tok == nil {
		*a = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("decoding attributes: expected object, got %v", tok)
	}

	var out Attributes
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decoding attribute key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("decoding attributes: unexpected key %v", keyTok)
		}

		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("decoding attribute %q: %w", key, err)
		}
		out = append(out, Attribute{Key: key, Value: value})
	}

	// closing brace
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("decoding attributes: %w", err)
	}

	*a = out
	return nil
}

// MarshalJSON encodes the bag as a JSON object in its original order.
func (a Attributes) MarshalJSON() ([]byte, error) {
	if a == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, attr := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(attr.Key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(attr.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Get returns the value stored under key.
func (a Attributes) Get(key string) (any, bool) {
	for _, attr := range a {
		if attr.Key == key {
			return attr.Value, true
		}
	}
	return nil, false
}

// Map returns the attributes as an unordered map.
func (a Attributes) Map() map[string]any {
	m := make(map[string]any, len(a))
	for _, attr := range a {
		m[attr.Key] = attr.Value
	}
	return m
}
