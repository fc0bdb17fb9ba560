package arcgis

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/mlmgis/isochrones/internal/isochrone"
)

var polygonOutputs = map[isochrone.PolygonOutput]string{
	isochrone.PolygonsNone:     "esriNAOutputPolygonNone",
	isochrone.PolygonsSimple:   "esriNAOutputPolygonSimplified",
	isochrone.PolygonsDetailed: "esriNAOutputPolygonDetailed",
}

var lineOutputs = map[isochrone.LineOutput]string{
	isochrone.LinesNone:        "esriNAOutputLineNone",
	isochrone.LinesTrueShape:   "esriNAOutputLineTrueShape",
	isochrone.LinesWithMeasure: "esriNAOutputLineTrueShapeWithMeasure",
}

var travelDirections = map[isochrone.TravelDirection]string{
	isochrone.FromFacility: "esriNATravelDirectionFromFacility",
	isochrone.ToFacility:   "esriNATravelDirectionToFacility",
}

// Solve computes service areas around one facility.
//
// A body that is not JSON returns *isochrone.RawResponseError and an error
// object returns *isochrone.ServiceError; callers tell them apart with errors.As.
func (c *Client) Solve(ctx context.Context, req isochrone.Request) (*isochrone.Result, error) {
	if len(req.Thresholds) == 0 {
		return nil, fmt.Errorf("%w: empty list", isochrone.ErrInvalidThresholds)
	}

	form, err := solveForm(req)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("facility", req.Facility()).
		Str("mode", req.Mode.Name).
		Str("breaks", req.Thresholds.String()).
		Msg("requesting service areas")

	status, body, err := c.postForm(ctx, c.serviceURL+"/solveServiceArea", form)
	if err != nil {
		return nil, err
	}

	var resp solveResponse
	if err := decodeResponse(status, body, &resp); err != nil {
		return nil, err
	}

	result := &isochrone.Result{}
	if resp.SAPolygons != nil {
		result.Polygons = resp.SAPolygons.Features
	}
	if resp.SAPolylines != nil {
		result.Lines = resp.SAPolylines.Features
	}

	c.logger.Debug().
		Int("polygon_count", len(result.Polygons)).
		Int("line_count", len(result.Lines)).
		Int("message_count", len(resp.Messages)).
		Msg("received service areas")

	return result, nil
}

// solveForm flattens a request into the solveServiceArea form body.
func solveForm(req isochrone.Request) (url.Values, error) {
	opts := req.Options

	polygons, ok := polygonOutputs[opts.Polygons]
	if !ok {
		return nil, fmt.Errorf("unknown polygon output %q", opts.Polygons)
	}
	lines, ok := lineOutputs[opts.Lines]
	if !ok {
		return nil, fmt.Errorf("unknown line output %q", opts.Lines)
	}
	direction, ok := travelDirections[opts.Direction]
	if !ok {
		return nil, fmt.Errorf("unknown travel direction %q", opts.Direction)
	}

	mode, err := modeDescriptor(req.Mode)
	if err != nil {
		return nil, err
	}

	form := url.Values{
		"facilities":            {req.Facility()},
		"f":                     {"pjson"},
		"token":                 {req.Token},
		"outputPolygons":        {polygons},
		"splitPolygonsAtBreaks": {strconv.FormatBool(opts.SplitPolygonsAtBreaks)},
		"outputLines":           {lines},
		"splitLinesAtBreaks":    {strconv.FormatBool(opts.SplitLinesAtBreaks)},
		"travelDirection":       {direction},
		"defaultBreaks":         {req.Thresholds.String()},
		"travelMode":            {mode},
	}
	if opts.TimeOfDay != nil {
		form.Set("timeOfDay", strconv.FormatInt(opts.TimeOfDay.UnixMilli(), 10))
	}
	return form, nil
}

// modeDescriptor returns the JSON-encoded travel mode. The catalog
// descriptor is sent verbatim when present.
func modeDescriptor(m isochrone.TravelMode) (string, error) {
	if len(m.Descriptor) > 0 {
		return string(m.Descriptor), nil
	}
	b, err := json.Marshal(travelModeHeader{
		Name:                   m.Name,
		ID:                     m.ID,
		ImpedanceAttributeName: m.ImpedanceAttributeName,
	})
	if err != nil {
		return "", fmt.Errorf("encoding travel mode: %w", err)
	}
	return string(b), nil
}
