package isochrone_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlmgis/isochrones/internal/feature"
	"github.com/mlmgis/isochrones/internal/isochrone"
	"github.com/mlmgis/isochrones/internal/sink"
	"github.com/mlmgis/isochrones/internal/source"
)

type stubProvider struct {
	token    string
	tokenErr error
	modes    []isochrone.TravelMode
	modesErr error

	// solve returns the result for the n-th call (0-based).
	solve    func(n int, req isochrone.Request) (*isochrone.Result, error)
	requests []isochrone.Request
	// ctxErrs holds the solve context's error after each call returned.
	ctxErrs []error
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) GetToken(_ context.Context, _, _ string) (string, error) {
	return p.token, p.tokenErr
}

func (p *stubProvider) ListTravelModes(_ context.Context, _ string) ([]isochrone.TravelMode, error) {
	return p.modes, p.modesErr
}

func (p *stubProvider) Solve(ctx context.Context, req isochrone.Request) (*isochrone.Result, error) {
	n := len(p.requests)
	p.requests = append(p.requests, req)
	res, err := p.solve(n, req)
	p.ctxErrs = append(p.ctxErrs, ctx.Err())
	return res, err
}

func rawFeature(t *testing.T, doc string) feature.RawFeature {
	t.Helper()
	var raw feature.RawFeature
	require.NoError(t, json.Unmarshal([]byte(doc), &raw))
	return raw
}

// pointResult returns one polygon and one line tagged with the facility index.
func pointResult(t *testing.T, facility int) *isochrone.Result {
	t.Helper()
	return &isochrone.Result{
		Polygons: []feature.RawFeature{rawFeature(t, fmt.Sprintf(`{
			"attributes": {"ObjectID": %d, "FacilityID": %d, "Name": "Location %d : 0 - 5", "FromBreak": 0, "ToBreak": 5},
			"geometry": {"rings": [[[0,0],[0,1],[1,1],[1,0],[0,0]]]}
		}`, facility, facility, facility))},
		Lines: []feature.RawFeature{rawFeature(t, fmt.Sprintf(`{
			"attributes": {"ObjectID": %d, "FacilityID": %d, "FromCumul_Minutes": 0.5, "ToCumul_Minutes": 1.25},
			"geometry": {"paths": [[[0,0,0.5],[1,1,1.25]]]}
		}`, facility, facility))},
	}
}

func points(n int) *source.PointSet {
	set := &source.PointSet{CRS: source.WGS84}
	for i := 0; i < n; i++ {
		set.Points = append(set.Points, source.Point{
			ID:       fmt.Sprint(i + 1),
			Geometry: orb.Point{-0.1 + float64(i)*0.01, 51.5},
		})
	}
	return set
}

var testModes = []isochrone.TravelMode{
	{Name: "Driving Time", ID: "FEgifRtFndKNcJMJ", ImpedanceAttributeName: "TravelTime", Descriptor: json.RawMessage(`{"name":"Driving Time"}`)},
	{Name: "Walking Distance", ID: "yFuMFwIYblqKEefX", ImpedanceAttributeName: "Kilometers", Descriptor: json.RawMessage(`{"name":"Walking Distance"}`)},
}

type recordingFeedback struct {
	cancelAfter int
	checks      int
	progress    []int
	info        []string
}

func (f *recordingFeedback) IsCanceled() bool {
	f.checks++
	return f.cancelAfter > 0 && f.checks > f.cancelAfter
}

func (f *recordingFeedback) SetProgress(p int) { f.progress = append(f.progress, p) }
func (f *recordingFeedback) PushInfo(msg string) { f.info = append(f.info, msg) }

func newRun(t *testing.T, p isochrone.Provider, fb isochrone.Feedback) *isochrone.Run {
	t.Helper()
	run := isochrone.NewRun(isochrone.RunConfig{
		Provider:     p,
		ClientID:     "id",
		ClientSecret: "secret",
		Feedback:     fb,
		Logger:       zerolog.Nop(),
	})
	require.NoError(t, run.Init(context.Background()))
	return run
}

func TestRun_Execute(t *testing.T) {
	p := &stubProvider{
		token: "tok",
		modes: testModes,
		solve: func(n int, _ isochrone.Request) (*isochrone.Result, error) {
			return pointResult(t, n+1), nil
		},
	}
	fb := &recordingFeedback{}
	run := newRun(t, p, fb)
	polys, lines := sink.NewMemory("polygons"), sink.NewMemory("lines")

	summary, err := run.Execute(context.Background(), isochrone.Params{
		Points:     points(4),
		ModeIndex:  1,
		Thresholds: "5,10",
		Polygons:   polys,
		Lines:      lines,
	})
	require.NoError(t, err)

	assert.Equal(t, run.ID(), summary.RunID)
	assert.Equal(t, "Walking Distance", summary.Mode)
	assert.Equal(t, 4, summary.Processed)
	assert.False(t, summary.Canceled)
	assert.Equal(t, 4, summary.Polygons)
	assert.Equal(t, 4, summary.Lines)
	assert.Equal(t, []int{25, 50, 75, 100}, fb.progress)

	require.Len(t, p.requests, 4)
	for _, req := range p.requests {
		assert.Equal(t, "tok", req.Token)
		assert.Equal(t, "Walking Distance", req.Mode.Name)
		assert.Equal(t, isochrone.Thresholds{5, 10}, req.Thresholds)
		assert.Equal(t, isochrone.DefaultSolveOptions(), req.Options)
	}
	assert.Equal(t, "-0.1,51.5", p.requests[0].Facility())

	assert.Len(t, polys.Features(), 4)
	assert.Equal(t, feature.GeometryPolygon, polys.Schema().Geometry)
	assert.Equal(t, feature.GeometryLineStringZ, lines.Schema().Geometry)
	assert.True(t, polys.Closed())
	assert.True(t, lines.Closed())

	names := make([]string, 0)
	for _, f := range polys.Schema().Fields {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"ObjectID", "FacilityID", "Name", "FromBreak", "ToBreak"}, names)
}

func TestRun_Execute_ProgressRoundsDown(t *testing.T) {
	p := &stubProvider{
		token: "tok",
		modes: testModes,
		solve: func(n int, _ isochrone.Request) (*isochrone.Result, error) {
			return pointResult(t, n+1), nil
		},
	}
	fb := &recordingFeedback{}
	run := newRun(t, p, fb)

	_, err := run.Execute(context.Background(), isochrone.Params{
		Points:     points(3),
		Thresholds: "5",
		Polygons:   sink.NewMemory("p"),
		Lines:      sink.NewMemory("l"),
	})
	require.NoError(t, err)
	assert.Equal(t, []int{33, 66, 100}, fb.progress)
}

func TestRun_Execute_SoftFailureAbortsWithoutWrites(t *testing.T) {
	p := &stubProvider{
		token: "tok",
		modes: testModes,
		solve: func(n int, _ isochrone.Request) (*isochrone.Result, error) {
			if n == 1 {
				return nil, &isochrone.RawResponseError{StatusCode: 200, Body: "<html>Service unavailable</html>"}
			}
			return pointResult(t, n+1), nil
		},
	}
	run := newRun(t, p, nil)
	polys, lines := sink.NewMemory("polygons"), sink.NewMemory("lines")

	summary, err := run.Execute(context.Background(), isochrone.Params{
		Points:     points(3),
		Thresholds: "5,10",
		Polygons:   polys,
		Lines:      lines,
	})

	require.Error(t, err)
	assert.Nil(t, summary)
	var raw *isochrone.RawResponseError
	assert.True(t, errors.As(err, &raw))
	assert.ErrorIs(t, err, isochrone.ErrRemoteService)

	assert.Len(t, p.requests, 2)
	assert.False(t, polys.Opened())
	assert.False(t, lines.Opened())
	assert.Empty(t, polys.Features())
	assert.Empty(t, lines.Features())
}

func TestRun_Execute_ServiceErrorAborts(t *testing.T) {
	p := &stubProvider{
		token: "tok",
		modes: testModes,
		solve: func(int, isochrone.Request) (*isochrone.Result, error) {
			return nil, &isochrone.ServiceError{Code: 400, Message: "Unable to complete operation."}
		},
	}
	run := newRun(t, p, nil)
	polys := sink.NewMemory("polygons")

	_, err := run.Execute(context.Background(), isochrone.Params{
		Points:     points(2),
		Thresholds: "5",
		Polygons:   polys,
		Lines:      sink.NewMemory("lines"),
	})

	assert.ErrorIs(t, err, isochrone.ErrServiceError)
	assert.False(t, polys.Opened())
}

func TestRun_Execute_CancelWritesProcessedPoints(t *testing.T) {
	p := &stubProvider{
		token: "tok",
		modes: testModes,
		solve: func(n int, _ isochrone.Request) (*isochrone.Result, error) {
			return pointResult(t, n+1), nil
		},
	}
	fb := &recordingFeedback{cancelAfter: 2}
	run := newRun(t, p, fb)
	polys, lines := sink.NewMemory("polygons"), sink.NewMemory("lines")

	summary, err := run.Execute(context.Background(), isochrone.Params{
		Points:     points(5),
		Thresholds: "5,10",
		Polygons:   polys,
		Lines:      lines,
	})
	require.NoError(t, err)

	assert.True(t, summary.Canceled)
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 5, summary.Total)
	assert.Len(t, p.requests, 2)

	require.Len(t, polys.Features(), 2)
	require.Len(t, lines.Features(), 2)
	for i, f := range polys.Features() {
		v, ok := f.Value("FacilityID")
		require.True(t, ok)
		assert.Equal(t, int64(i+1), v)
	}
	assert.Equal(t, []int{20, 40}, fb.progress)
}

func TestRun_Execute_CanceledBeforeFirstPoint(t *testing.T) {
	p := &stubProvider{token: "tok", modes: testModes}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	run := newRun(t, p, isochrone.NewLogFeedback(ctx, zerolog.Nop()))
	polys, lines := sink.NewMemory("polygons"), sink.NewMemory("lines")

	summary, err := run.Execute(context.Background(), isochrone.Params{
		Points:     points(3),
		Thresholds: "5",
		Polygons:   polys,
		Lines:      lines,
	})
	require.NoError(t, err)

	assert.True(t, summary.Canceled)
	assert.Zero(t, summary.Processed)
	assert.Empty(t, p.requests)
	assert.True(t, polys.Opened())
	assert.Equal(t, feature.EmptySchema(feature.KindPolygon), polys.Schema())
	assert.Equal(t, feature.EmptySchema(feature.KindLine), lines.Schema())
}

func TestRun_Execute_CancelDuringSolveKeepsInFlightPoint(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := &stubProvider{
		token: "tok",
		modes: testModes,
		solve: func(n int, _ isochrone.Request) (*isochrone.Result, error) {
			if n == 2 {
				cancel()
			}
			return pointResult(t, n+1), nil
		},
	}
	run := newRun(t, p, isochrone.NewLogFeedback(ctx, zerolog.Nop()))
	polys, lines := sink.NewMemory("polygons"), sink.NewMemory("lines")

	summary, err := run.Execute(ctx, isochrone.Params{
		Points:     points(5),
		Thresholds: "5",
		Polygons:   polys,
		Lines:      lines,
	})
	require.NoError(t, err)

	assert.True(t, summary.Canceled)
	assert.Equal(t, 3, summary.Processed)
	assert.Len(t, p.requests, 3)
	assert.Equal(t, []error{nil, nil, nil}, p.ctxErrs)
	assert.Len(t, polys.Features(), 3)
	assert.Len(t, lines.Features(), 3)
}

func TestRun_Execute_CanceledSolveErrorStopsRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := &stubProvider{
		token: "tok",
		modes: testModes,
		solve: func(n int, _ isochrone.Request) (*isochrone.Result, error) {
			if n == 2 {
				cancel()
				return nil, fmt.Errorf("posting form: %w", context.Canceled)
			}
			return pointResult(t, n+1), nil
		},
	}
	run := newRun(t, p, isochrone.NewLogFeedback(ctx, zerolog.Nop()))
	polys, lines := sink.NewMemory("polygons"), sink.NewMemory("lines")

	summary, err := run.Execute(ctx, isochrone.Params{
		Points:     points(5),
		Thresholds: "5",
		Polygons:   polys,
		Lines:      lines,
	})
	require.NoError(t, err)

	assert.True(t, summary.Canceled)
	assert.Equal(t, 2, summary.Processed)
	assert.Len(t, polys.Features(), 2)
	assert.Len(t, lines.Features(), 2)
}

func TestRun_Execute_CanceledErrorWithoutCancelRequestAborts(t *testing.T) {
	p := &stubProvider{
		token: "tok",
		modes: testModes,
		solve: func(int, isochrone.Request) (*isochrone.Result, error) {
			return nil, context.Canceled
		},
	}
	run := newRun(t, p, nil)
	polys := sink.NewMemory("polygons")

	_, err := run.Execute(context.Background(), isochrone.Params{
		Points:     points(2),
		Thresholds: "5",
		Polygons:   polys,
		Lines:      sink.NewMemory("lines"),
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, polys.Opened())
}

func TestRun_Execute_EmptyResultIsMalformed(t *testing.T) {
	p := &stubProvider{
		token: "tok",
		modes: testModes,
		solve: func(int, isochrone.Request) (*isochrone.Result, error) {
			return nil, nil
		},
	}
	run := newRun(t, p, nil)

	_, err := run.Execute(context.Background(), isochrone.Params{
		Points:     points(1),
		Thresholds: "5",
		Polygons:   sink.NewMemory("p"),
		Lines:      sink.NewMemory("l"),
	})
	assert.ErrorIs(t, err, isochrone.ErrMalformedResponse)
}

func TestRun_Solve_InvalidCoordinates(t *testing.T) {
	p := &stubProvider{token: "tok", modes: testModes}
	run := newRun(t, p, nil)

	_, err := run.Solve(context.Background(), 0, 91, 0, "5")

	require.ErrorIs(t, err, isochrone.ErrInvalidCoordinates)
	var providerErr *isochrone.Error
	assert.False(t, errors.As(err, &providerErr))
	assert.Empty(t, p.requests)
}

func TestRun_EmptyCatalog(t *testing.T) {
	p := &stubProvider{token: "tok", modes: []isochrone.TravelMode{}}
	run := newRun(t, p, nil)

	assert.Empty(t, run.ModeNames())

	for _, idx := range []int{0, 1} {
		_, err := run.Execute(context.Background(), isochrone.Params{
			Points:     points(1),
			ModeIndex:  idx,
			Thresholds: "5",
			Polygons:   sink.NewMemory("p"),
			Lines:      sink.NewMemory("l"),
		})
		assert.ErrorIs(t, err, isochrone.ErrOutOfRange)
	}
	assert.Empty(t, p.requests)
}

func TestRun_Execute_InvalidThresholdsFailBeforeSolve(t *testing.T) {
	p := &stubProvider{token: "tok", modes: testModes}
	run := newRun(t, p, nil)

	_, err := run.Execute(context.Background(), isochrone.Params{
		Points:     points(2),
		Thresholds: "5,ten",
		Polygons:   sink.NewMemory("p"),
		Lines:      sink.NewMemory("l"),
	})
	assert.ErrorIs(t, err, isochrone.ErrInvalidThresholds)
	assert.Empty(t, p.requests)
}

func TestRun_Execute_SchemaMismatchAborts(t *testing.T) {
	p := &stubProvider{
		token: "tok",
		modes: testModes,
		solve: func(n int, _ isochrone.Request) (*isochrone.Result, error) {
			res := pointResult(t, n+1)
			if n == 1 {
				res.Polygons = []feature.RawFeature{rawFeature(t, `{
					"attributes": {"ObjectID": 2, "Extra": "x"},
					"geometry": {"rings": [[[0,0],[0,1],[1,1],[0,0]]]}
				}`)}
			}
			return res, nil
		},
	}
	run := newRun(t, p, nil)
	polys := sink.NewMemory("polygons")

	_, err := run.Execute(context.Background(), isochrone.Params{
		Points:     points(2),
		Thresholds: "5",
		Polygons:   polys,
		Lines:      sink.NewMemory("lines"),
	})
	assert.ErrorIs(t, err, feature.ErrSchemaMismatch)
	assert.False(t, polys.Opened())
}

func TestRun_Execute_WidensIntegerFieldsToFloat(t *testing.T) {
	cumul := []string{"0", "1.5"}
	p := &stubProvider{
		token: "tok",
		modes: testModes,
		solve: func(n int, _ isochrone.Request) (*isochrone.Result, error) {
			res := pointResult(t, n+1)
			res.Lines = []feature.RawFeature{rawFeature(t, fmt.Sprintf(`{
				"attributes": {"ObjectID": %d, "FromCumul_TravelTime": %s},
				"geometry": {"paths": [[[0,0,0],[1,1,1.5]]]}
			}`, n+1, cumul[n]))}
			return res, nil
		},
	}
	run := newRun(t, p, nil)
	lines := sink.NewMemory("lines")

	summary, err := run.Execute(context.Background(), isochrone.Params{
		Points:     points(2),
		Thresholds: "2.5,5",
		Polygons:   sink.NewMemory("polygons"),
		Lines:      lines,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Lines)

	field, ok := lines.Schema().Field("FromCumul_TravelTime")
	require.True(t, ok)
	assert.Equal(t, feature.FieldFloat, field.Type)

	rows := make([][]any, 0, 2)
	for _, f := range lines.Features() {
		rows = append(rows, lines.Schema().Row(f))
	}
	assert.Equal(t, [][]any{{int64(1), float64(0)}, {int64(2), 1.5}}, rows)
}

func TestRun_Execute_AdaptationErrorAborts(t *testing.T) {
	p := &stubProvider{
		token: "tok",
		modes: testModes,
		solve: func(int, isochrone.Request) (*isochrone.Result, error) {
			return &isochrone.Result{
				Polygons: []feature.RawFeature{rawFeature(t, `{"attributes": {"ObjectID": 1}, "geometry": {}}`)},
			}, nil
		},
	}
	run := newRun(t, p, nil)

	_, err := run.Execute(context.Background(), isochrone.Params{
		Points:     points(1),
		Thresholds: "5",
		Polygons:   sink.NewMemory("p"),
		Lines:      sink.NewMemory("l"),
	})
	assert.ErrorIs(t, err, feature.ErrAdaptation)
}

type failingDestination struct{}

func (failingDestination) String() string { return "failing" }

func (failingDestination) Open(context.Context, feature.Schema) (sink.Sink, error) {
	return nil, fmt.Errorf("%w: read-only", sink.ErrSink)
}

func TestRun_Execute_SinkOpenFailureWritesNothing(t *testing.T) {
	p := &stubProvider{
		token: "tok",
		modes: testModes,
		solve: func(n int, _ isochrone.Request) (*isochrone.Result, error) {
			return pointResult(t, n+1), nil
		},
	}
	run := newRun(t, p, nil)
	polys := sink.NewMemory("polygons")

	_, err := run.Execute(context.Background(), isochrone.Params{
		Points:     points(2),
		Thresholds: "5",
		Polygons:   polys,
		Lines:      failingDestination{},
	})
	assert.ErrorIs(t, err, sink.ErrSink)
	assert.Empty(t, polys.Features())
}

func TestRun_Execute_LineOpenFailureKeepsPolygonFile(t *testing.T) {
	p := &stubProvider{
		token: "tok",
		modes: testModes,
		solve: func(n int, _ isochrone.Request) (*isochrone.Result, error) {
			return pointResult(t, n+1), nil
		},
	}
	run := newRun(t, p, nil)
	path := filepath.Join(t.TempDir(), "polygons.geojson")
	require.NoError(t, os.WriteFile(path, []byte("previous run\n"), 0o600))

	_, err := run.Execute(context.Background(), isochrone.Params{
		Points:     points(2),
		Thresholds: "5",
		Polygons:   sink.NewGeoJSONFile(path),
		Lines:      failingDestination{},
	})
	require.ErrorIs(t, err, sink.ErrSink)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "previous run\n", string(data))
}

func TestRun_Execute_ReprojectsInput(t *testing.T) {
	p := &stubProvider{
		token: "tok",
		modes: testModes,
		solve: func(int, isochrone.Request) (*isochrone.Result, error) {
			return &isochrone.Result{}, nil
		},
	}
	run := newRun(t, p, nil)

	set := &source.PointSet{
		CRS:    "EPSG:3857",
		Points: []source.Point{{ID: "1", Geometry: project.WGS84.ToMercator(orb.Point{-0.1, 51.5})}},
	}
	_, err := run.Execute(context.Background(), isochrone.Params{
		Points:     set,
		Thresholds: "5",
		Polygons:   sink.NewMemory("p"),
		Lines:      sink.NewMemory("l"),
	})
	require.NoError(t, err)

	require.Len(t, p.requests, 1)
	assert.InDelta(t, -0.1, p.requests[0].Longitude, 1e-6)
	assert.InDelta(t, 51.5, p.requests[0].Latitude, 1e-6)
}

func TestRun_Execute_UnsupportedCRS(t *testing.T) {
	p := &stubProvider{token: "tok", modes: testModes}
	run := newRun(t, p, nil)

	_, err := run.Execute(context.Background(), isochrone.Params{
		Points:     &source.PointSet{CRS: "EPSG:27700", Points: []source.Point{{ID: "1"}}},
		Thresholds: "5",
		Polygons:   sink.NewMemory("p"),
		Lines:      sink.NewMemory("l"),
	})
	assert.ErrorIs(t, err, source.ErrUnsupportedCRS)
	assert.Empty(t, p.requests)
}

func TestRun_Init(t *testing.T) {
	t.Run("auth failure", func(t *testing.T) {
		run := isochrone.NewRun(isochrone.RunConfig{
			Provider: &stubProvider{tokenErr: fmt.Errorf("%w: invalid_client", isochrone.ErrAuth)},
			Logger:   zerolog.Nop(),
		})
		assert.ErrorIs(t, run.Init(context.Background()), isochrone.ErrAuth)
		assert.Nil(t, run.Catalog())
	})

	t.Run("empty token", func(t *testing.T) {
		run := isochrone.NewRun(isochrone.RunConfig{Provider: &stubProvider{}, Logger: zerolog.Nop()})
		assert.ErrorIs(t, run.Init(context.Background()), isochrone.ErrAuth)
	})

	t.Run("catalog failure", func(t *testing.T) {
		run := isochrone.NewRun(isochrone.RunConfig{
			Provider: &stubProvider{token: "tok", modesErr: isochrone.ErrMalformedResponse},
			Logger:   zerolog.Nop(),
		})
		assert.ErrorIs(t, run.Init(context.Background()), isochrone.ErrRemoteService)
	})

	t.Run("execute before init", func(t *testing.T) {
		run := isochrone.NewRun(isochrone.RunConfig{Provider: &stubProvider{}, Logger: zerolog.Nop()})
		_, err := run.Execute(context.Background(), isochrone.Params{
			Points:   points(1),
			Polygons: sink.NewMemory("p"),
			Lines:    sink.NewMemory("l"),
		})
		assert.ErrorIs(t, err, isochrone.ErrNotInitialized)
	})
}

func TestRun_TokensAreNotShared(t *testing.T) {
	first := newRun(t, &stubProvider{token: "a", modes: testModes}, nil)
	second := newRun(t, &stubProvider{token: "b", modes: testModes}, nil)
	assert.NotEqual(t, first.ID(), second.ID())
	assert.Equal(t, []string{"Driving Time", "Walking Distance"}, first.ModeNames())
}

func TestToFeatureCollection(t *testing.T) {
	res := &isochrone.Result{
		Polygons: []feature.RawFeature{rawFeature(t, `{
			"attributes": {"Name": "Location 1 : 0 - 5"},
			"geometry": {"rings": [[[0,0],[0,1],[1,1],[0,0]]]}
		}`)},
		Lines: []feature.RawFeature{rawFeature(t, `{
			"attributes": {"FacilityID": 1},
			"geometry": {"paths": [[[0,0,0],[1,1,1]], [[2,2,0],[3,3,1]]]}
		}`)},
	}

	fc, err := isochrone.ToFeatureCollection(res)
	require.NoError(t, err)
	require.Len(t, fc.Features, 2)

	data, err := json.Marshal(fc.Features[1])
	require.NoError(t, err)

	var line struct {
		Geometry struct {
			Type        string        `json:"type"`
			Coordinates [][][]float64 `json:"coordinates"`
		} `json:"geometry"`
	}
	require.NoError(t, json.Unmarshal(data, &line))
	assert.Equal(t, "MultiLineString", line.Geometry.Type)
	assert.Len(t, line.Geometry.Coordinates, 2)
	assert.Equal(t, "Location 1 : 0 - 5", fc.Features[0].Properties["Name"])
}
