package arcgis

import (
	"encoding/json"

	"github.com/mlmgis/isochrones/internal/feature"
)

// tokenResponse is the OAuth2 client-credentials response.
type tokenResponse struct {
	AccessToken string        `json:"access_token"`
	ExpiresIn   int           `json:"expires_in,omitempty"`
	Error       *errorPayload `json:"error,omitempty"`
}

// travelModesResponse is the retrieveTravelModes response. A nil
// SupportedTravelModes means the field was absent.
type travelModesResponse struct {
	SupportedTravelModes *[]json.RawMessage `json:"supportedTravelModes"`
	DefaultTravelMode    string             `json:"defaultTravelMode,omitempty"`
	Error                *errorPayload      `json:"error,omitempty"`
}

// travelModeHeader holds the travel mode fields the catalog exposes.
type travelModeHeader struct {
	Name                   string `json:"name"`
	ID                     string `json:"id"`
	ImpedanceAttributeName string `json:"impedanceAttributeName"`
}

// solveResponse is the solveServiceArea response.
type solveResponse struct {
	SAPolygons  *featureSet     `json:"saPolygons,omitempty"`
	SAPolylines *featureSet     `json:"saPolylines,omitempty"`
	Messages    []solverMessage `json:"messages,omitempty"`
	Error       *errorPayload   `json:"error,omitempty"`
}

// featureSet is an Esri feature set.
type featureSet struct {
	GeometryType string               `json:"geometryType,omitempty"`
	Features     []feature.RawFeature `json:"features"`
}

// solverMessage is an informational or warning message from the solver.
type solverMessage struct {
	Type        int    `json:"type"`
	Description string `json:"description"`
}

// errorEnvelope wraps an error object at the top level of any response.
type errorEnvelope struct {
	Error *errorPayload `json:"error"`
}

// errorPayload is the ArcGIS REST error object. The OAuth endpoint uses
// "error" and "error_description" in addition to "message".
type errorPayload struct {
	Code             int      `json:"code"`
	Error            string   `json:"error,omitempty"`
	ErrorDescription string   `json:"error_description,omitempty"`
	Message          string   `json:"message"`
	Details          []string `json:"details,omitempty"`
}

func (e *errorPayload) message() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.ErrorDescription != "":
		return e.ErrorDescription
	default:
		return e.Error
	}
}
