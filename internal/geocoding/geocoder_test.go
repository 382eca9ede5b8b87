package geocoding

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	requests []*http.Request
	status   int
	body     string
	err      error
}

func (c *fakeClient) Do(req *http.Request) (*http.Response, error) {
	c.requests = append(c.requests, req)
	if c.err != nil {
		return nil, c.err
	}
	return &http.Response{
		StatusCode: c.status,
		Body:       io.NopCloser(bytes.NewBufferString(c.body)),
	}, nil
}

func newTestGeocoder(t *testing.T, client *fakeClient) *Geocoder {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	g := NewGeocoder(logger, t.TempDir(), "Sweden").WithHTTPClient(client)
	g.MinInterval = 0
	return g
}

func TestGeocode(t *testing.T) {
	client := &fakeClient{status: http.StatusOK, body: `[{"lat":"59.3326","lon":"18.0649"}]`}
	g := newTestGeocoder(t, client)

	p, err := g.Geocode(context.Background(), "Drottninggatan 1, Stockholm")
	require.NoError(t, err)
	assert.InDelta(t, 18.0649, p.Lon(), 1e-9)
	assert.InDelta(t, 59.3326, p.Lat(), 1e-9)

	require.Len(t, client.requests, 1)
	assert.Equal(t, "Drottninggatan 1, Stockholm, Sweden", client.requests[0].URL.Query().Get("q"))
	assert.NotEmpty(t, client.requests[0].Header.Get("User-Agent"))
}

func TestGeocodeUsesCache(t *testing.T) {
	client := &fakeClient{status: http.StatusOK, body: `[{"lat":"57.7","lon":"11.97"}]`}
	g := newTestGeocoder(t, client)
	ctx := context.Background()

	_, err := g.Geocode(ctx, "Avenyn 1, Göteborg")
	require.NoError(t, err)
	p, err := g.Geocode(ctx, "  avenyn 1,   Göteborg ")
	require.NoError(t, err)

	assert.Len(t, client.requests, 1)
	assert.InDelta(t, 57.7, p.Lat(), 1e-9)
}

func TestGeocodePersistsCache(t *testing.T) {
	dir := t.TempDir()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	client := &fakeClient{status: http.StatusOK, body: `[{"lat":"55.6","lon":"13.0"}]`}
	g := NewGeocoder(logger, dir, "Sweden").WithHTTPClient(client)
	g.MinInterval = 0
	_, err := g.Geocode(context.Background(), "Stortorget, Malmö")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, cacheFileName))
	require.NoError(t, err)

	offline := &fakeClient{err: errors.New("offline")}
	reloaded := NewGeocoder(logger, dir, "Sweden").WithHTTPClient(offline)
	p, err := reloaded.Geocode(context.Background(), "Stortorget, Malmö")
	require.NoError(t, err)
	assert.InDelta(t, 13.0, p.Lon(), 1e-9)
	assert.Empty(t, offline.requests)
}

func TestGeocodeNoResults(t *testing.T) {
	g := newTestGeocoder(t, &fakeClient{status: http.StatusOK, body: `[]`})

	_, err := g.Geocode(context.Background(), "Nowhere 99")
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestGeocodeErrors(t *testing.T) {
	tests := []struct {
		name   string
		client *fakeClient
	}{
		{"transport", &fakeClient{err: errors.New("connection refused")}},
		{"status", &fakeClient{status: http.StatusTooManyRequests, body: `[]`}},
		{"malformed", &fakeClient{status: http.StatusOK, body: `{`}},
		{"bad latitude", &fakeClient{status: http.StatusOK, body: `[{"lat":"x","lon":"1"}]`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGeocoder(t, tt.client)
			_, err := g.Geocode(context.Background(), "Somewhere 1")
			assert.Error(t, err)
		})
	}
}

func TestGeocodeEmptyAddress(t *testing.T) {
	client := &fakeClient{}
	g := newTestGeocoder(t, client)

	_, err := g.Geocode(context.Background(), "   ")
	assert.Error(t, err)
	assert.Empty(t, client.requests)
}
