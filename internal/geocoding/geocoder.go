package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"github.com/sirupsen/logrus"
)

const (
	DefaultBaseURL = "https://nominatim.openstreetmap.org/search"
	cacheFileName  = "geocode_cache.json"
)

// ErrNoResults is returned when Nominatim knows nothing about an address.
var ErrNoResults = errors.New("no geocoding results")

// HTTPClient is the subset of *http.Client the geocoder needs.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Geocoder struct {
	logger    *logrus.Logger
	cacheDir  string
	country   string
	cache     map[string][]float64
	cacheLock sync.RWMutex
	client    HTTPClient

	BaseURL string

	// Minimum spacing between two Nominatim requests.
	MinInterval time.Duration
	throttle    sync.Mutex
	lastRequest time.Time
}

func NewGeocoder(logger *logrus.Logger, cacheDir, country string) *Geocoder {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		logger.WithError(err).Warn("Could not create geocode cache directory")
	}

	g := &Geocoder{
		logger:      logger,
		cacheDir:    cacheDir,
		country:     country,
		cache:       make(map[string][]float64),
		client:      &http.Client{Timeout: 10 * time.Second},
		BaseURL:     DefaultBaseURL,
		MinInterval: time.Second,
	}

	g.loadCache()

	return g
}

// WithHTTPClient replaces the client used for Nominatim requests.
func (g *Geocoder) WithHTTPClient(c HTTPClient) *Geocoder {
	g.client = c
	return g
}

func (g *Geocoder) loadCache() {
	data, err := os.ReadFile(filepath.Join(g.cacheDir, cacheFileName))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			g.logger.Warnf("Could not load geocode cache: %v", err)
		}
		return
	}

	if err := json.Unmarshal(data, &g.cache); err != nil {
		g.logger.Errorf("Failed to parse geocode cache: %v", err)
		g.cache = make(map[string][]float64)
		return
	}

	g.logger.Infof("Loaded %d cached addresses", len(g.cache))
}

func (g *Geocoder) saveCache() {
	g.cacheLock.RLock()
	data, err := json.Marshal(g.cache)
	g.cacheLock.RUnlock()
	if err != nil {
		g.logger.Errorf("Failed to marshal geocode cache: %v", err)
		return
	}

	if err := os.WriteFile(filepath.Join(g.cacheDir, cacheFileName), data, 0644); err != nil {
		g.logger.Errorf("Failed to save geocode cache: %v", err)
		return
	}

	g.logger.Debug("Saved geocode cache to disk")
}

type nominatimResponse []struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func cacheKey(address string) string {
	return strings.ToLower(strings.Join(strings.Fields(address), " "))
}

// Geocode resolves a free-text address to a point (longitude, latitude).
func (g *Geocoder) Geocode(ctx context.Context, address string) (orb.Point, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return orb.Point{}, errors.New("address is empty")
	}
	key := cacheKey(address)

	g.cacheLock.RLock()
	coords, ok := g.cache[key]
	g.cacheLock.RUnlock()
	if ok {
		if len(coords) != 2 {
			return orb.Point{}, fmt.Errorf("invalid cached coordinates for %q", address)
		}
		g.logger.WithFields(logrus.Fields{
			"address": address,
			"source":  "cache",
		}).Debug("Found coordinates in cache")
		return orb.Point{coords[1], coords[0]}, nil
	}

	query := address
	if g.country != "" && !strings.Contains(strings.ToLower(address), strings.ToLower(g.country)) {
		query = address + ", " + g.country
	}

	g.logger.WithField("address", query).Info("Geocoding address with Nominatim")

	if err := g.wait(ctx); err != nil {
		return orb.Point{}, err
	}

	params := url.Values{
		"q":      []string{query},
		"format": []string{"json"},
		"limit":  []string{"1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return orb.Point{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "jamfor-bostader/1.0")
	req.Header.Set("Accept-Language", "sv-SE,sv;q=0.9,en-US;q=0.8,en;q=0.7")

	resp, err := g.client.Do(req)
	if err != nil {
		return orb.Point{}, fmt.Errorf("geocoding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return orb.Point{}, fmt.Errorf("geocoding request failed with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return orb.Point{}, fmt.Errorf("failed to read response: %w", err)
	}

	var result nominatimResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return orb.Point{}, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(result) == 0 {
		return orb.Point{}, fmt.Errorf("%w for address: %s", ErrNoResults, query)
	}

	lat, err := strconv.ParseFloat(result[0].Lat, 64)
	if err != nil {
		return orb.Point{}, fmt.Errorf("invalid latitude %q: %w", result[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(result[0].Lon, 64)
	if err != nil {
		return orb.Point{}, fmt.Errorf("invalid longitude %q: %w", result[0].Lon, err)
	}

	g.logger.WithFields(logrus.Fields{
		"address":   query,
		"latitude":  lat,
		"longitude": lon,
		"source":    "nominatim",
	}).Info("Successfully geocoded address")

	g.cacheLock.Lock()
	g.cache[key] = []float64{lat, lon}
	g.cacheLock.Unlock()

	g.saveCache()

	return orb.Point{lon, lat}, nil
}

// wait enforces MinInterval between outgoing requests.
func (g *Geocoder) wait(ctx context.Context) error {
	g.throttle.Lock()
	defer g.throttle.Unlock()

	if delay := g.MinInterval - time.Since(g.lastRequest); delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	g.lastRequest = time.Now()
	return nil
}
