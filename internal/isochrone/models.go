// Package isochrone computes travel-time and travel-distance service areas
// around point locations through a remote service-area solver.
package isochrone

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mlmgis/isochrones/internal/feature"
)

// Sentinel errors for isochrone operations.
var (
	// ErrAuth indicates the client-credentials exchange failed or returned no token.
	ErrAuth = errors.New("authentication failed")
	// ErrRemoteService indicates the solver returned an unusable response.
	ErrRemoteService = errors.New("remote service error")
	// ErrMalformedResponse indicates a response body that is not the expected JSON.
	ErrMalformedResponse = fmt.Errorf("malformed response: %w", ErrRemoteService)
	// ErrServiceError indicates the solver answered with a structured error object.
	ErrServiceError = fmt.Errorf("service reported an error: %w", ErrRemoteService)
	// ErrProviderUnavailable indicates the solver could not be reached.
	ErrProviderUnavailable = errors.New("service-area provider unavailable")
	// ErrOutOfRange indicates a travel mode index outside the catalog.
	ErrOutOfRange = errors.New("travel mode index out of range")
	// ErrInvalidThresholds indicates an unparseable or empty threshold list.
	ErrInvalidThresholds = errors.New("invalid thresholds")
	// ErrInvalidCoordinates indicates a facility outside the geographic range.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)

// Provider is a remote service-area solver.
type Provider interface {
	// GetToken exchanges client credentials for a bearer token.
	GetToken(ctx context.Context, clientID, clientSecret string) (string, error)
	// ListTravelModes returns the travel modes supported by the solver.
	ListTravelModes(ctx context.Context, token string) ([]TravelMode, error)
	// Solve computes service areas around one facility.
	Solve(ctx context.Context, req Request) (*Result, error)
	// Name returns the provider identifier for logging and metrics.
	Name() string
}

// TravelMode is a travel mode offered by the solver.
type TravelMode struct {
	Name                   string
	ID                     string
	ImpedanceAttributeName string

	// Descriptor is the complete mode object as returned by the catalog. It is
	// sent back verbatim when solving.
	Descriptor json.RawMessage
}

// Request is a solve request for one facility.
type Request struct {
	Longitude  float64
	Latitude   float64
	Token      string
	Mode       TravelMode
	Thresholds Thresholds
	Options    SolveOptions
}

// Facility returns the "lon,lat" facility string.
func (r Request) Facility() string {
	return strconv.FormatFloat(r.Longitude, 'f', -1, 64) + "," + strconv.FormatFloat(r.Latitude, 'f', -1, 64)
}

// Validate checks the facility coordinates.
func (r Request) Validate() error {
	if r.Latitude < -90 || r.Latitude > 90 {
		return fmt.Errorf("%w: latitude %f out of range [-90, 90]", ErrInvalidCoordinates, r.Latitude)
	}
	if r.Longitude < -180 || r.Longitude > 180 {
		return fmt.Errorf("%w: longitude %f out of range [-180, 180]", ErrInvalidCoordinates, r.Longitude)
	}
	return nil
}

// Result is a solve response. Absent collections hold zero features.
type Result struct {
	Polygons []feature.RawFeature
	Lines    []feature.RawFeature
}

// Thresholds are the break values of a solve, in kilometres or minutes
// depending on the travel mode's impedance.
type Thresholds []float64

// decimalPattern matches plain decimal literals such as "5", "2.5" or ".5".
var decimalPattern = regexp.MustCompile(`^([0-9]+(\.[0-9]*)?|\.[0-9]+)$`)

// ParseThresholds parses a comma-separated list of non-negative decimal
// numbers. Order and count are preserved.
func ParseThresholds(s string) (Thresholds, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("%w: empty list", ErrInvalidThresholds)
	}

	parts := strings.Split(s, ",")
	out := make(Thresholds, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if strings.HasPrefix(p, "-") {
			return nil, fmt.Errorf("%w: %q is negative", ErrInvalidThresholds, p)
		}
		if !decimalPattern.MatchString(p) {
			return nil, fmt.Errorf("%w: %q is not a number", ErrInvalidThresholds, p)
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
			return nil, fmt.Errorf("%w: %q is not a finite number", ErrInvalidThresholds, p)
		}
		out = append(out, v)
	}
	return out, nil
}

// String returns the comma-joined thresholds, e.g. "5,10".
func (t Thresholds) String() string {
	parts := make([]string, len(t))
	for i, v := range t {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}

// PolygonOutput selects the polygon detail returned by the solver.
type PolygonOutput string

// Polygon output levels.
const (
	PolygonsNone     PolygonOutput = "none"
	PolygonsSimple   PolygonOutput = "simple"
	PolygonsDetailed PolygonOutput = "detailed"
)

// LineOutput selects the line shape returned by the solver.
type LineOutput string

// Line output shapes.
const (
	LinesNone        LineOutput = "none"
	LinesTrueShape   LineOutput = "true"
	LinesWithMeasure LineOutput = "measure"
)

// TravelDirection is the direction of travel relative to the facility.
type TravelDirection string

// Travel directions.
const (
	FromFacility TravelDirection = "from"
	ToFacility   TravelDirection = "to"
)

// SolveOptions are the output flags sent with every solve.
type SolveOptions struct {
	Polygons              PolygonOutput
	SplitPolygonsAtBreaks bool
	Lines                 LineOutput
	SplitLinesAtBreaks    bool
	Direction             TravelDirection

	// TimeOfDay is the departure or arrival time, if set.
	TimeOfDay *time.Time
}

// DefaultSolveOptions returns detailed polygons and measured lines, both split
// at breaks, travelling from the facility.
func DefaultSolveOptions() SolveOptions {
	return SolveOptions{
		Polygons:              PolygonsDetailed,
		SplitPolygonsAtBreaks: true,
		Lines:                 LinesWithMeasure,
		SplitLinesAtBreaks:    true,
		Direction:             FromFacility,
	}
}

// Error provides detailed error information from the service-area provider.
type Error struct {
	Provider string // Provider that generated the error
	Code     string // Error code
	Message  string // Human-readable error message
	Err      error  // Underlying error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ServiceError is a structured error object returned by the solver.
type ServiceError struct {
	Code    int
	Message string
	Details []string
}

func (e *ServiceError) Error() string {
	msg := fmt.Sprintf("service error %d: %s", e.Code, e.Message)
	if len(e.Details) > 0 {
		msg += " (" + strings.Join(e.Details, "; ") + ")"
	}
	return msg
}

func (e *ServiceError) Unwrap() error {
	return ErrServiceError
}

// RawResponseError carries a response body that could not be parsed.
type RawResponseError struct {
	StatusCode int
	Body       string
}

func (e *RawResponseError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("unparseable response (status %d): %s", e.StatusCode, body)
}

func (e *RawResponseError) Unwrap() error {
	return ErrMalformedResponse
}
