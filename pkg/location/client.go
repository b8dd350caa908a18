// Package location talks to external reverse-geocoding services.
package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ErrNoResult is returned when the service answered but knew no place at the
// given coordinates.
var ErrNoResult = errors.New("no result")

// StatusError is returned for any non-2xx response.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %s", e.Status)
}

// ReverseGeocoder resolves a coordinate pair to a human readable label.
type ReverseGeocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (string, error)
}

const (
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "wanderlog-geocoder/1.0"
)

type clientOptions struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

type Option func(*clientOptions)

// WithHTTPClient replaces the HTTP client, including its timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = c }
}

// WithTimeout bounds every request made by the client.
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) { o.httpClient = &http.Client{Timeout: d} }
}

func WithBaseURL(u string) Option {
	return func(o *clientOptions) { o.baseURL = u }
}

func WithUserAgent(ua string) Option {
	return func(o *clientOptions) { o.userAgent = ua }
}

func buildOptions(defaultBase string, opts []Option) clientOptions {
	o := clientOptions{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    defaultBase,
		userAgent:  defaultUserAgent,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// getJSON performs a GET and decodes a 2xx body into out.
func getJSON(ctx context.Context, c clientOptions, reqURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return redactURL(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// redactURL drops the request URL from transport errors. Query strings may
// carry credentials such as the Mapbox access token.
func redactURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s request failed: %w", urlErr.Op, urlErr.Err)
	}
	return err
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
