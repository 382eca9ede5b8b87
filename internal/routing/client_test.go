package routing

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonCort/jamfor-bostader-sub000/internal/models"
)

type roundTripperFunc func(req *http.Request) (*http.Response, error)

func (f roundTripperFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

func respond(status int, body string) roundTripperFunc {
	return func(req *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: status, Body: io.NopCloser(bytes.NewBufferString(body))}, nil
	}
}

func newTestClient(httpClient HTTPClient, apiKey string) *Client {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	c := NewClient(httpClient, Config{APIKey: apiKey, BaseURL: "https://routes.test/json", Location: cet}, logger)
	c.now = func() time.Time { return time.Date(2024, 1, 3, 12, 0, 0, 0, cet) }
	return c
}

func TestClientRoute(t *testing.T) {
	var captured *http.Request
	rt := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		captured = req
		return respond(http.StatusOK, `{"status":"OK","routes":[{"legs":[{"duration":{"value":1800}}]}]}`)(req)
	})
	c := newTestClient(rt, "secret")

	res, err := c.Route(context.Background(), Request{
		Origin:      "Vasagatan 1, Stockholm",
		Destination: "Kungsgatan 10, Stockholm",
		Mode:        models.ModeTransit,
		ArriveBy:    "08:30",
	})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, 30, res.Minutes)
	assert.False(t, res.Estimated)

	require.NotNil(t, captured)
	q := captured.URL.Query()
	assert.Equal(t, "routes.test", captured.URL.Host)
	assert.Equal(t, "Vasagatan 1, Stockholm", q.Get("origin"))
	assert.Equal(t, "Kungsgatan 10, Stockholm", q.Get("destination"))
	assert.Equal(t, "transit", q.Get("mode"))
	assert.Equal(t, "secret", q.Get("key"))
	assert.Equal(t, strconv.FormatInt(time.Date(2024, 1, 8, 8, 30, 0, 0, cet).Unix(), 10), q.Get("arrival_time"))
	assert.Empty(t, q.Get("departure_time"))
}

func TestClientRouteMissingCredential(t *testing.T) {
	called := false
	rt := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		called = true
		return nil, errors.New("should not be called")
	})
	c := newTestClient(rt, "")

	res, err := c.Route(context.Background(), Request{Origin: "A", Destination: "B", Mode: models.ModeTransit})
	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.Nil(t, res)
	assert.False(t, called)
}

func TestClientRouteHTTPError(t *testing.T) {
	c := newTestClient(respond(http.StatusInternalServerError, `oops`), "secret")

	res, err := c.Route(context.Background(), Request{Origin: "A", Destination: "B", Mode: models.ModeDriving})
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Nil(t, res)
}

func TestClientRouteProviderError(t *testing.T) {
	c := newTestClient(respond(http.StatusOK, `{"status":"REQUEST_DENIED","error_message":"bad key"}`), "secret")

	_, err := c.Route(context.Background(), Request{Origin: "A", Destination: "B", Mode: models.ModeDriving})
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Contains(t, err.Error(), "REQUEST_DENIED")
}

func TestClientRouteNetworkError(t *testing.T) {
	rt := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection reset")
	})
	c := newTestClient(rt, "secret")

	_, err := c.Route(context.Background(), Request{Origin: "A", Destination: "B", Mode: models.ModeDriving})
	assert.Error(t, err)
}

func TestClientRouteNoData(t *testing.T) {
	for _, body := range []string{
		`{"status":"ZERO_RESULTS","routes":[]}`,
		`{"status":"NOT_FOUND"}`,
		`{"status":"OK","routes":[{"legs":[{}]}]}`,
	} {
		c := newTestClient(respond(http.StatusOK, body), "secret")
		res, err := c.Route(context.Background(), Request{Origin: "A", Destination: "B", Mode: models.ModeBicycling})
		assert.NoError(t, err, body)
		assert.Nil(t, res, body)
	}
}

func TestClientRouteDrivingHasNoTimeParam(t *testing.T) {
	var captured *http.Request
	rt := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		captured = req
		return respond(http.StatusOK, `{"status":"OK","routes":[{"legs":[{"duration":{"value":600}}]}]}`)(req)
	})
	c := newTestClient(rt, "secret")

	_, err := c.Route(context.Background(), Request{Origin: "A", Destination: "B", Mode: models.ModeDriving})
	require.NoError(t, err)
	q := captured.URL.Query()
	assert.Empty(t, q.Get("arrival_time"))
	assert.Empty(t, q.Get("departure_time"))
}

func TestClientRoutePrefersTrafficDuration(t *testing.T) {
	body := `{"status":"OK","routes":[{"legs":[{"duration":{"value":1200},"duration_in_traffic":{"value":1500}}]}]}`
	c := newTestClient(respond(http.StatusOK, body), "secret")

	res, err := c.Route(context.Background(), Request{Origin: "A", Destination: "B", Mode: models.ModeDriving})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, 25, res.Minutes)
}

func TestClientRouteMalformedBody(t *testing.T) {
	c := newTestClient(respond(http.StatusOK, `{"status":"OK","routes":`), "secret")

	res, err := c.Route(context.Background(), Request{Origin: "A", Destination: "B", Mode: models.ModeDriving})
	assert.Error(t, err)
	assert.Nil(t, res)
}

func TestNewClientWithoutLogger(t *testing.T) {
	c := NewClient(respond(http.StatusOK, `{"status":"OK","routes":[{"legs":[{"duration":{"value":600}}]}]}`), Config{APIKey: "secret"}, nil)
	require.NotNil(t, c.logger)
	c.logger.SetOutput(io.Discard)

	var res *Result
	var err error
	require.NotPanics(t, func() {
		res, err = c.Route(context.Background(), Request{Origin: "A", Destination: "B", Mode: models.ModeDriving})
	})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, 10, res.Minutes)
}

func TestClientCheckCredential(t *testing.T) {
	assert.ErrorIs(t, newTestClient(nil, "").CheckCredential(), ErrMissingCredential)
	assert.NoError(t, newTestClient(nil, "secret").CheckCredential())
}
