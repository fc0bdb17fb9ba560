package models

import (
	"encoding/json"

	"github.com/twpayne/go-geom/encoding/geojson"
)

// TravelMode is one entry of the provider's travel mode catalog.
type TravelMode struct {
	Index                  int    `json:"index"`
	Name                   string `json:"name"`
	ID                     string `json:"id,omitempty"`
	ImpedanceAttributeName string `json:"impedanceAttributeName,omitempty"`
}

// TravelModesResponse lists the travel modes in catalog order. The index of
// a mode is the value to pass as "mode".
type TravelModesResponse struct {
	Modes []TravelMode `json:"modes"`
}

// IsochroneRequest is the body of POST /v1/isochrones.
type IsochroneRequest struct {
	// Points is a GeoJSON FeatureCollection of Point features.
	Points json.RawMessage `json:"points"`
	// CRS of the point coordinates, EPSG:4326 when omitted and not declared
	// by the collection itself.
	CRS        string `json:"crs,omitempty"`
	Mode       int    `json:"mode"`
	Thresholds string `json:"thresholds"`
}

// IsochroneResponse holds the polygon and line outputs of a run.
type IsochroneResponse struct {
	RunID      string                     `json:"runId"`
	Mode       string                     `json:"mode"`
	Thresholds []float64                  `json:"thresholds"`
	Total      int                        `json:"total"`
	Processed  int                        `json:"processed"`
	Canceled   bool                       `json:"canceled"`
	Polygons   *geojson.FeatureCollection `json:"polygons"`
	Lines      *geojson.FeatureCollection `json:"lines"`
}

// PreviewRequest is the body of POST /v1/isochrones:preview.
type PreviewRequest struct {
	Lon        *float64 `json:"lon"`
	Lat        *float64 `json:"lat"`
	Mode       int      `json:"mode"`
	Thresholds string   `json:"thresholds"`
}
