package isochrone

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mlmgis/isochrones/internal/feature"
	"github.com/mlmgis/isochrones/internal/sink"
	"github.com/mlmgis/isochrones/internal/source"
)

// ErrNotInitialized indicates Execute was called before Init.
var ErrNotInitialized = errors.New("run not initialized")

// Reprojector transforms input points into EPSG:4326.
type Reprojector interface {
	ToWGS84(p orb.Point, crs string) (orb.Point, error)
}

// RunConfig holds the collaborators of a run.
type RunConfig struct {
	Provider     Provider
	ClientID     string
	ClientSecret string
	Reprojector  Reprojector
	Feedback     Feedback
	Logger       zerolog.Logger
	Metrics      *Metrics

	// Options are sent with every solve. The zero value selects DefaultSolveOptions.
	Options SolveOptions
}

// Params are the per-run user parameters.
type Params struct {
	Points     *source.PointSet
	ModeIndex  int
	Thresholds string
	Polygons   sink.Destination
	Lines      sink.Destination
}

// Summary describes a finished run.
type Summary struct {
	RunID      string
	Mode       string
	Thresholds Thresholds
	Total      int
	Processed  int
	Canceled   bool
	Polygons   int
	Lines      int
}

// Run computes isochrones for a set of points. The token and mode catalog
// fetched by Init belong to the run and are never shared between runs.
type Run struct {
	id           string
	provider     Provider
	clientID     string
	clientSecret string
	reprojector  Reprojector
	feedback     Feedback
	logger       zerolog.Logger
	metrics      *Metrics
	options      SolveOptions
	tracer       trace.Tracer

	token   string
	catalog *ModeCatalog
}

// NewRun creates a run. Init must be called before Execute.
func NewRun(cfg RunConfig) *Run {
	id := uuid.New().String()

	fb := cfg.Feedback
	if fb == nil {
		fb = nopFeedback{}
	}
	rp := cfg.Reprojector
	if rp == nil {
		rp = source.NewReprojector()
	}
	opts := cfg.Options
	if opts == (SolveOptions{}) {
		opts = DefaultSolveOptions()
	}

	return &Run{
		id:           id,
		provider:     cfg.Provider,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		reprojector:  rp,
		feedback:     fb,
		logger:       cfg.Logger.With().Str("run_id", id).Logger(),
		metrics:      cfg.Metrics,
		options:      opts,
		tracer:       otel.Tracer(instrumentationName),
	}
}

// ID returns the run identifier.
func (r *Run) ID() string {
	return r.id
}

// Init exchanges the client credentials for a token and fetches the travel
// mode catalog.
func (r *Run) Init(ctx context.Context) error {
	ctx, span := r.tracer.Start(ctx, "isochrone.Init")
	defer span.End()

	token, err := r.provider.GetToken(ctx, r.clientID, r.clientSecret)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if token == "" {
		err := fmt.Errorf("%w: empty access token", ErrAuth)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	modes, err := r.provider.ListTravelModes(ctx, token)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	r.token = token
	r.catalog = NewModeCatalog(modes)

	r.logger.Debug().
		Str("provider", r.provider.Name()).
		Int("travel_modes", r.catalog.Len()).
		Msg("run initialized")

	return nil
}

// Catalog returns the travel mode catalog, or nil before Init.
func (r *Run) Catalog() *ModeCatalog {
	return r.catalog
}

// ModeNames returns the choice labels for the travel mode parameter.
func (r *Run) ModeNames() []string {
	if r.catalog == nil {
		return nil
	}
	return r.catalog.Names()
}

// Solve computes the raw service areas around one geographic point.
func (r *Run) Solve(ctx context.Context, lon, lat float64, modeIndex int, thresholds string) (*Result, error) {
	mode, breaks, err := r.resolve(modeIndex, thresholds)
	if err != nil {
		return nil, err
	}
	return r.solve(ctx, lon, lat, mode, breaks)
}

// Execute solves every point in order, accumulates the adapted features and
// writes them to the polygon and line destinations.
//
// Cancellation is polled before each point and never interrupts a request in
// flight; a canceled run writes the points processed so far and returns no
// error. Any solve or adaptation failure
// aborts the run before a sink is opened.
func (r *Run) Execute(ctx context.Context, p Params) (*Summary, error) {
	ctx, span := r.tracer.Start(ctx, "isochrone.Execute",
		trace.WithAttributes(attribute.String("run.id", r.id)),
	)
	defer span.End()

	summary, err := r.execute(ctx, p)
	switch {
	case err != nil:
		span.SetStatus(codes.Error, err.Error())
		r.metrics.recordRun(ctx, "failed")
	case summary.Canceled:
		r.metrics.recordRun(ctx, "canceled")
	default:
		r.metrics.recordRun(ctx, "completed")
	}
	return summary, err
}

func (r *Run) execute(ctx context.Context, p Params) (*Summary, error) {
	if p.Points == nil {
		return nil, fmt.Errorf("%w: no input points", source.ErrInvalidInput)
	}
	if p.Polygons == nil || p.Lines == nil {
		return nil, fmt.Errorf("%w: polygon and line destinations are required", sink.ErrSink)
	}

	mode, breaks, err := r.resolve(p.ModeIndex, p.Thresholds)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		RunID:      r.id,
		Mode:       mode.Name,
		Thresholds: breaks,
		Total:      p.Points.Len(),
	}

	r.feedback.PushInfo(fmt.Sprintf("CRS is %s", p.Points.CRS))
	r.feedback.PushInfo(fmt.Sprintf("mode: %s", mode.Name))
	r.feedback.PushInfo(fmt.Sprintf("thresholds: %s", breaks))

	polygons := &accumulator{kind: feature.KindPolygon}
	lines := &accumulator{kind: feature.KindLine}

	for i, pt := range p.Points.Points {
		if r.feedback.IsCanceled() {
			summary.Canceled = true
			r.feedback.PushInfo(fmt.Sprintf("canceled after %d of %d points", summary.Processed, summary.Total))
			break
		}

		geo, err := r.reprojector.ToWGS84(pt.Geometry, p.Points.CRS)
		if err != nil {
			return nil, fmt.Errorf("point %s: %w", pt.ID, err)
		}

		r.feedback.PushInfo(fmt.Sprintf("getting isochrones for point %s (%g, %g)", pt.ID, geo.Lon(), geo.Lat()))
		res, err := r.solve(ctx, geo.Lon(), geo.Lat(), mode, breaks)
		if errors.Is(err, context.Canceled) && r.feedback.IsCanceled() {
			summary.Canceled = true
			r.feedback.PushInfo(fmt.Sprintf("canceled after %d of %d points", summary.Processed, summary.Total))
			break
		}
		if err != nil {
			var raw *RawResponseError
			if errors.As(err, &raw) {
				r.feedback.PushInfo("error in the service-area response")
			}
			return nil, fmt.Errorf("point %s: %w", pt.ID, err)
		}

		if err := polygons.addAll(res.Polygons); err != nil {
			return nil, fmt.Errorf("point %s: %w", pt.ID, err)
		}
		if err := lines.addAll(res.Lines); err != nil {
			return nil, fmt.Errorf("point %s: %w", pt.ID, err)
		}
		r.metrics.recordFeatures(ctx, feature.KindPolygon.String(), len(res.Polygons))
		r.metrics.recordFeatures(ctx, feature.KindLine.String(), len(res.Lines))

		summary.Processed++
		r.feedback.SetProgress((i + 1) * 100 / summary.Total)
	}

	// Partial results of a canceled run are still written.
	if err := r.write(context.WithoutCancel(ctx), p, polygons, lines); err != nil {
		return nil, err
	}

	summary.Polygons = len(polygons.features)
	summary.Lines = len(lines.features)

	r.logger.Info().
		Str("mode", summary.Mode).
		Int("points", summary.Processed).
		Int("polygons", summary.Polygons).
		Int("lines", summary.Lines).
		Bool("canceled", summary.Canceled).
		Msg("run finished")

	return summary, nil
}

func (r *Run) resolve(modeIndex int, thresholds string) (TravelMode, Thresholds, error) {
	if r.catalog == nil {
		return TravelMode{}, nil, ErrNotInitialized
	}
	mode, err := r.catalog.ResolveMode(modeIndex)
	if err != nil {
		return TravelMode{}, nil, err
	}
	breaks, err := ParseThresholds(thresholds)
	if err != nil {
		return TravelMode{}, nil, err
	}
	return mode, breaks, nil
}

func (r *Run) solve(ctx context.Context, lon, lat float64, mode TravelMode, breaks Thresholds) (*Result, error) {
	req := Request{
		Longitude:  lon,
		Latitude:   lat,
		Token:      r.token,
		Mode:       mode,
		Thresholds: breaks,
		Options:    r.options,
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, span := r.tracer.Start(ctx, "isochrone.Solve",
		trace.WithAttributes(
			attribute.String("isochrone.facility", req.Facility()),
			attribute.String("isochrone.mode", mode.Name),
			attribute.String("isochrone.breaks", breaks.String()),
		),
	)
	defer span.End()

	start := time.Now()
	res, err := r.provider.Solve(context.WithoutCancel(ctx), req)
	r.metrics.recordSolve(ctx, r.provider.Name(), time.Since(start), err)
	if err == nil && res == nil {
		err = fmt.Errorf("%w: empty result", ErrMalformedResponse)
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		r.logger.Error().
			Err(err).
			Str("facility", req.Facility()).
			Msg("solve failed")
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("isochrone.polygons", len(res.Polygons)),
		attribute.Int("isochrone.lines", len(res.Lines)),
	)
	return res, nil
}

// write opens both sinks before writing either. When either fails to open or
// write, both are discarded.
func (r *Run) write(ctx context.Context, p Params, polygons, lines *accumulator) error {
	r.feedback.PushInfo("creating output layers")

	polySink, err := p.Polygons.Open(ctx, polygons.schema())
	if err != nil {
		return fmt.Errorf("opening %s: %w", p.Polygons, err)
	}
	lineSink, err := p.Lines.Open(ctx, lines.schema())
	if err != nil {
		_ = sink.Discard(polySink)
		return fmt.Errorf("opening %s: %w", p.Lines, err)
	}

	writeErr := polySink.AddFeatures(ctx, polygons.features)
	if writeErr == nil {
		writeErr = lineSink.AddFeatures(ctx, lines.features)
	}
	if writeErr != nil {
		_ = sink.Discard(polySink)
		_ = sink.Discard(lineSink)
		return writeErr
	}

	return errors.Join(polySink.Close(), lineSink.Close())
}

// accumulator collects features of one kind. The first feature fixes the
// field names and geometry; later features must conform to them and may widen
// integer fields to float.
type accumulator struct {
	kind     feature.Kind
	first    *feature.Schema
	features []*feature.Feature
}

func (a *accumulator) addAll(raws []feature.RawFeature) error {
	for _, raw := range raws {
		f, err := feature.Adapt(raw, a.kind)
		if err != nil {
			return err
		}
		if a.first == nil {
			s := feature.SchemaOf(f)
			a.first = &s
		} else {
			if err := a.first.Check(f); err != nil {
				return err
			}
			a.first.Widen(f)
		}
		a.features = append(a.features, f)
	}
	return nil
}

func (a *accumulator) schema() feature.Schema {
	if a.first == nil {
		return feature.EmptySchema(a.kind)
	}
	return *a.first
}
