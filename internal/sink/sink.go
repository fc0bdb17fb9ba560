// Package sink writes adapted isochrone features to output destinations.
package sink

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mlmgis/isochrones/internal/feature"
)

// ErrSink indicates an output destination could not be created or written.
var ErrSink = errors.New("output sink error")

// Sink accepts batches of features that conform to the schema it was opened with.
type Sink interface {
	AddFeatures(ctx context.Context, features []*feature.Feature) error
	Close() error
}

// Discarder is a Sink that can be abandoned without publishing its output.
type Discarder interface {
	Discard() error
}

// Discard abandons s. Sinks that write as they go are closed instead.
func Discard(s Sink) error {
	if d, ok := s.(Discarder); ok {
		return d.Discard()
	}
	return s.Close()
}

// Destination is where a sink is opened.
type Destination interface {
	// Open creates the output with the given schema.
	Open(ctx context.Context, schema feature.Schema) (Sink, error)
	// String describes the destination for logs.
	String() string
}

// Opener resolves destination strings that need a database connection.
type Opener func(table string) (Destination, error)

// Parse resolves a destination string: "postgis:<table>" uses openTable, "-"
// is standard output and anything else is a GeoJSON file path.
func Parse(dest string, openTable Opener) (Destination, error) {
	dest = strings.TrimSpace(dest)
	switch {
	case dest == "":
		return nil, fmt.Errorf("%w: empty destination", ErrSink)
	case strings.HasPrefix(dest, "postgis:"):
		table := strings.TrimPrefix(dest, "postgis:")
		if openTable == nil {
			return nil, fmt.Errorf("%w: no database configured for %s", ErrSink, dest)
		}
		return openTable(table)
	default:
		return NewGeoJSONFile(dest), nil
	}
}
