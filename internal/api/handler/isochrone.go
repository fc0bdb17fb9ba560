package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/mlmgis/isochrones/internal/api/middleware"
	"github.com/mlmgis/isochrones/internal/api/models"
	"github.com/mlmgis/isochrones/internal/api/response"
	"github.com/mlmgis/isochrones/internal/feature"
	"github.com/mlmgis/isochrones/internal/isochrone"
	"github.com/mlmgis/isochrones/internal/sink"
	"github.com/mlmgis/isochrones/internal/source"
)

// maxRequestBody bounds the size of an isochrone request body.
const maxRequestBody = 4 << 20

// IsochroneConfig holds the collaborators of the isochrone endpoints.
type IsochroneConfig struct {
	Provider     isochrone.Provider
	ClientID     string
	ClientSecret string
	Metrics      *isochrone.Metrics
	Logger       zerolog.Logger
}

// IsochroneHandler serves travel modes, multi-point runs and single-point
// previews. Each request gets its own run, token and catalog.
type IsochroneHandler struct {
	cfg IsochroneConfig
}

// NewIsochroneHandler creates a new IsochroneHandler.
func NewIsochroneHandler(cfg IsochroneConfig) *IsochroneHandler {
	return &IsochroneHandler{cfg: cfg}
}

func (h *IsochroneHandler) newRun(r *http.Request) *isochrone.Run {
	logger := h.cfg.Logger.With().
		Str("request_id", middleware.GetRequestID(r.Context())).
		Logger()
	return isochrone.NewRun(isochrone.RunConfig{
		Provider:     h.cfg.Provider,
		ClientID:     h.cfg.ClientID,
		ClientSecret: h.cfg.ClientSecret,
		Feedback:     isochrone.NewLogFeedback(r.Context(), logger),
		Logger:       logger,
		Metrics:      h.cfg.Metrics,
	})
}

// ListTravelModes handles GET /v1/travel-modes.
func (h *IsochroneHandler) ListTravelModes(w http.ResponseWriter, r *http.Request) {
	run := h.newRun(r)
	if err := run.Init(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}

	modes := run.Catalog().Modes()
	resp := models.TravelModesResponse{Modes: make([]models.TravelMode, len(modes))}
	for i, m := range modes {
		resp.Modes[i] = models.TravelMode{
			Index:                  i,
			Name:                   m.Name,
			ID:                     m.ID,
			ImpedanceAttributeName: m.ImpedanceAttributeName,
		}
	}

	w.Header().Set("Cache-Control", "private, max-age=300")
	response.JSON(w, r, http.StatusOK, resp)
}

// ComputeIsochrones handles POST /v1/isochrones.
func (h *IsochroneHandler) ComputeIsochrones(w http.ResponseWriter, r *http.Request) {
	var input models.IsochroneRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if fieldErrs := validateThresholds(input.Thresholds); len(input.Points) == 0 || fieldErrs != nil {
		if len(input.Points) == 0 {
			fieldErrs = append(fieldErrs, models.FieldError{Field: "points", Message: "required", Code: "REQUIRED"})
		}
		response.BadRequest(w, r, "invalid isochrone request", fieldErrs)
		return
	}

	points, err := source.ParsePoints(input.Points, input.CRS)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	run := h.newRun(r)
	if err := run.Init(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}

	polygons := sink.NewMemory("polygons")
	lines := sink.NewMemory("lines")
	summary, err := run.Execute(r.Context(), isochrone.Params{
		Points:     points,
		ModeIndex:  input.Mode,
		Thresholds: input.Thresholds,
		Polygons:   polygons,
		Lines:      lines,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.IsochroneResponse{
		RunID:      summary.RunID,
		Mode:       summary.Mode,
		Thresholds: summary.Thresholds,
		Total:      summary.Total,
		Processed:  summary.Processed,
		Canceled:   summary.Canceled,
		Polygons:   polygons.FeatureCollection(),
		Lines:      lines.FeatureCollection(),
	})
}

// PreviewIsochrones handles POST /v1/isochrones:preview. The raw service
// areas of one point are returned as a single FeatureCollection.
func (h *IsochroneHandler) PreviewIsochrones(w http.ResponseWriter, r *http.Request) {
	var input models.PreviewRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	fieldErrs := validateThresholds(input.Thresholds)
	if input.Lon == nil {
		fieldErrs = append(fieldErrs, models.FieldError{Field: "lon", Message: "required", Code: "REQUIRED"})
	}
	if input.Lat == nil {
		fieldErrs = append(fieldErrs, models.FieldError{Field: "lat", Message: "required", Code: "REQUIRED"})
	}
	if fieldErrs != nil {
		response.BadRequest(w, r, "invalid preview request", fieldErrs)
		return
	}

	run := h.newRun(r)
	if err := run.Init(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := run.Solve(r.Context(), *input.Lon, *input.Lat, input.Mode, input.Thresholds)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	fc, err := isochrone.ToFeatureCollection(res)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.GeoJSON(w, r, http.StatusOK, fc)
}

func validateThresholds(s string) []models.FieldError {
	if _, err := isochrone.ParseThresholds(s); err != nil {
		return []models.FieldError{{Field: "thresholds", Message: err.Error(), Code: "INVALID"}}
	}
	return nil
}

// writeError maps run errors to problem responses. Caller mistakes are 400,
// upstream rejections and unusable upstream data are 502 and an unreachable
// upstream is 503.
func (h *IsochroneHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var serviceErr *isochrone.ServiceError
	var rawErr *isochrone.RawResponseError
	var providerErr *isochrone.Error

	switch {
	case errors.Is(err, isochrone.ErrOutOfRange),
		errors.Is(err, isochrone.ErrInvalidThresholds),
		errors.Is(err, isochrone.ErrInvalidCoordinates),
		errors.Is(err, source.ErrInvalidInput),
		errors.Is(err, source.ErrUnsupportedCRS):
		response.BadRequest(w, r, err.Error(), nil)
	case errors.Is(err, isochrone.ErrProviderUnavailable):
		h.logError(r, err, "service-area provider unavailable")
		response.ServiceUnavailable(w, r, "service-area provider is unavailable, try again later")
	case errors.As(err, &serviceErr):
		h.logError(r, err, "service-area provider returned an error")
		h.badGateway(w, r, serviceErr.Message, models.UpstreamError{
			Provider:    h.cfg.Provider.Name(),
			ServiceCode: serviceErr.Code,
			Details:     serviceErr.Details,
		})
	case errors.As(err, &rawErr):
		h.logError(r, err, "service-area provider returned an unparseable response")
		response.BadGateway(w, r, "service-area provider returned an unparseable response")
	case errors.As(err, &providerErr):
		h.logError(r, err, "service-area request failed")
		h.badGateway(w, r, err.Error(), models.UpstreamError{
			Provider: providerErr.Provider,
			Code:     providerErr.Code,
		})
	case errors.Is(err, isochrone.ErrAuth),
		errors.Is(err, isochrone.ErrRemoteService),
		errors.Is(err, feature.ErrAdaptation),
		errors.Is(err, feature.ErrSchemaMismatch):
		h.logError(r, err, "service-area request failed")
		response.BadGateway(w, r, err.Error())
	default:
		h.logError(r, err, "isochrone request failed")
		response.InternalError(w, r, "an unexpected error occurred")
	}
}

func (h *IsochroneHandler) badGateway(w http.ResponseWriter, r *http.Request, detail string, upstream models.UpstreamError) {
	response.Error(w, r, models.NewBadGateway(middleware.GetRequestID(r.Context()), detail).WithUpstream(upstream))
}

func (h *IsochroneHandler) logError(r *http.Request, err error, msg string) {
	h.cfg.Logger.Error().
		Err(err).
		Str("request_id", middleware.GetRequestID(r.Context())).
		Msg(msg)
}
