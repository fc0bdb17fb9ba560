package isochrone_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlmgis/isochrones/internal/isochrone"
)

func TestParseThresholds_PreservesOrderAndCount(t *testing.T) {
	tests := []struct {
		in   string
		want isochrone.Thresholds
	}{
		{in: "5", want: isochrone.Thresholds{5}},
		{in: "5,10", want: isochrone.Thresholds{5, 10}},
		{in: "30,10,20", want: isochrone.Thresholds{30, 10, 20}},
		{in: " 1, 2 ,3", want: isochrone.Thresholds{1, 2, 3}},
		{in: "10,10", want: isochrone.Thresholds{10, 10}},
		{in: "2.5,0", want: isochrone.Thresholds{2.5, 0}},
		{in: ".5,5.", want: isochrone.Thresholds{0.5, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := isochrone.ParseThresholds(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseThresholds_ManyValues(t *testing.T) {
	in := ""
	want := isochrone.Thresholds{}
	for i := 1; i <= 25; i++ {
		if i > 1 {
			in += ","
		}
		in += fmt.Sprint(i * 3)
		want = append(want, float64(i*3))
	}

	got, err := isochrone.ParseThresholds(in)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, in, got.String())
}

func TestParseThresholds_Invalid(t *testing.T) {
	for _, in := range []string{
		"", "  ", "5,,10", "five", "5,-1", "5;10",
		"NaN", "Inf", "5,+Inf", "-Inf", "0x1p3", "1e3", "+5", "1_000",
		"1" + strings.Repeat("0", 400),
	} {
		t.Run(in, func(t *testing.T) {
			_, err := isochrone.ParseThresholds(in)
			assert.ErrorIs(t, err, isochrone.ErrInvalidThresholds)
		})
	}
}

func TestThresholds_String(t *testing.T) {
	assert.Equal(t, "5,10", isochrone.Thresholds{5, 10}.String())
	assert.Equal(t, "2.5,15", isochrone.Thresholds{2.5, 15}.String())
}

func TestRequest_Facility(t *testing.T) {
	req := isochrone.Request{Longitude: -0.1, Latitude: 51.5}
	assert.Equal(t, "-0.1,51.5", req.Facility())

	req = isochrone.Request{Longitude: 4, Latitude: 52.370216}
	assert.Equal(t, "4,52.370216", req.Facility())
}

func TestRequest_Validate(t *testing.T) {
	assert.NoError(t, isochrone.Request{Longitude: -0.1, Latitude: 51.5}.Validate())
	assert.ErrorIs(t, isochrone.Request{Longitude: 0, Latitude: 91}.Validate(), isochrone.ErrInvalidCoordinates)
	assert.ErrorIs(t, isochrone.Request{Longitude: -181, Latitude: 0}.Validate(), isochrone.ErrInvalidCoordinates)
}

func TestErrorKindsAreDistinguishable(t *testing.T) {
	var raw error = &isochrone.RawResponseError{StatusCode: 200, Body: "<html>oops</html>"}
	var svc error = &isochrone.ServiceError{Code: 498, Message: "Invalid token.", Details: []string{"expired"}}

	assert.ErrorIs(t, raw, isochrone.ErrMalformedResponse)
	assert.ErrorIs(t, raw, isochrone.ErrRemoteService)
	assert.NotErrorIs(t, raw, isochrone.ErrServiceError)

	assert.ErrorIs(t, svc, isochrone.ErrServiceError)
	assert.ErrorIs(t, svc, isochrone.ErrRemoteService)
	assert.NotErrorIs(t, svc, isochrone.ErrMalformedResponse)

	var target *isochrone.ServiceError
	require.True(t, errors.As(fmt.Errorf("point 1: %w", svc), &target))
	assert.Equal(t, 498, target.Code)
	assert.Contains(t, svc.Error(), "expired")
}

func TestModeCatalog(t *testing.T) {
	c := isochrone.NewModeCatalog([]isochrone.TravelMode{
		{Name: "Driving Time", ID: "FEgifRtFndKNcJMJ", ImpedanceAttributeName: "TravelTime"},
		{Name: "Walking Distance", ID: "yFuMFwIYblqKEefX", ImpedanceAttributeName: "Kilometers"},
	})

	assert.Equal(t, []string{"Driving Time", "Walking Distance"}, c.Names())
	assert.Equal(t, 2, c.Len())

	m, err := c.ResolveMode(1)
	require.NoError(t, err)
	assert.Equal(t, "Kilometers", m.ImpedanceAttributeName)

	_, err = c.ResolveMode(2)
	assert.ErrorIs(t, err, isochrone.ErrOutOfRange)
	_, err = c.ResolveMode(-1)
	assert.ErrorIs(t, err, isochrone.ErrOutOfRange)
}

func TestModeCatalog_Empty(t *testing.T) {
	c := isochrone.NewModeCatalog(nil)

	assert.Empty(t, c.Names())
	for _, i := range []int{0, 1, -1} {
		_, err := c.ResolveMode(i)
		assert.ErrorIs(t, err, isochrone.ErrOutOfRange)
	}
}
