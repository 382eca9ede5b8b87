package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

const DefaultBaseURL = "https://maps.googleapis.com/maps/api/directions/json"

var (
	// ErrMissingCredential means no provider API key is configured.
	ErrMissingCredential = errors.New("routing provider credential is not configured")
	// ErrUnexpectedStatus is returned for non-success HTTP or provider statuses.
	ErrUnexpectedStatus = errors.New("unexpected routing provider status")
)

// HTTPClient matches net/http.Client Do signature for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config defines settings for the directions client.
type Config struct {
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
	Location *time.Location
}

// Client queries the Google Directions API.
type Client struct {
	apiKey     string
	baseURL    string
	location   *time.Location
	httpClient HTTPClient
	logger     *logrus.Logger
	now        func() time.Time
}

// NewClient creates a directions client. A nil httpClient gets a default
// one with cfg.Timeout.
func NewClient(httpClient HTTPClient, cfg Config, logger *logrus.Logger) *Client {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.InfoLevel)
	}
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    base,
		location:   loc,
		httpClient: httpClient,
		logger:     logger,
		now:        time.Now,
	}
}

// CheckCredential returns ErrMissingCredential when no API key is set.
func (c *Client) CheckCredential() error {
	if c.apiKey == "" {
		return ErrMissingCredential
	}
	return nil
}

// Route fetches the travel time for req. Provider answers without a route
// (ZERO_RESULTS, NOT_FOUND or an empty leg) return a nil Result.
func (c *Client) Route(ctx context.Context, req Request) (*Result, error) {
	if err := c.CheckCredential(); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("origin", req.Origin)
	params.Set("destination", req.Destination)
	params.Set("mode", string(req.Mode))
	if tp := TimeParams(req, c.now(), c.location); tp != nil {
		params.Set(tp.Name, strconv.FormatInt(tp.Value, 10))
	}
	params.Set("key", c.apiKey)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	c.logger.WithFields(logrus.Fields{
		"origin":      req.Origin,
		"destination": req.Destination,
		"mode":        req.Mode,
	}).Debug("Requesting directions")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("directions request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: http %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var status directionsStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	switch status.Status {
	case "", "OK":
	case "ZERO_RESULTS", "NOT_FOUND":
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %s %s", ErrUnexpectedStatus, status.Status, status.ErrorMessage)
	}

	minutes, err := ParseMinutes(body)
	if err != nil {
		return nil, err
	}
	if minutes == nil {
		return nil, nil
	}
	return &Result{Minutes: *minutes}, nil
}
