package weather

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

// DefaultOpenCageURL is the OpenCage forward geocoding endpoint.
const DefaultOpenCageURL = "https://api.opencagedata.com/geocode/v1/json"

// OpenCageClient geocodes place names with OpenCage.
type OpenCageClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// OpenCageOption configures an OpenCageClient.
type OpenCageOption func(*OpenCageClient)

// WithOpenCageBaseURL overrides the endpoint.
func WithOpenCageBaseURL(u string) OpenCageOption {
	return func(c *OpenCageClient) {
		c.baseURL = u
	}
}

// WithOpenCageHTTPClient overrides the HTTP client.
func WithOpenCageHTTPClient(h *http.Client) OpenCageOption {
	return func(c *OpenCageClient) {
		c.http = h
	}
}

// NewOpenCageClient creates a geocoder.
func NewOpenCageClient(apiKey string, opts ...OpenCageOption) *OpenCageClient {
	c := &OpenCageClient{
		apiKey:  apiKey,
		baseURL: DefaultOpenCageURL,
		http:    defaultHTTPClient(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Geocode returns the first result for name, or ErrLocationNotFound.
func (c *OpenCageClient) Geocode(ctx context.Context, name string) (Coordinates, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Coordinates{}, ErrLocationNotFound
	}

	q := url.Values{}
	q.Set("q", name)
	q.Set("key", c.apiKey)
	q.Set("limit", "1")
	q.Set("no_annotations", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Coordinates{}, fmt.Errorf("failed to build geocode request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Coordinates{}, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Coordinates{}, &StatusError{Service: "opencage", StatusCode: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Coordinates{}, fmt.Errorf("failed to read geocode response: %w", err)
	}

	first := gjson.GetBytes(body, "results.0")
	if !first.Exists() {
		return Coordinates{}, ErrLocationNotFound
	}
	geometry := first.Get("geometry")
	if !geometry.Get("lat").Exists() || !geometry.Get("lng").Exists() {
		return Coordinates{}, ErrLocationNotFound
	}
	formatted := first.Get("formatted").String()
	if formatted == "" {
		formatted = name
	}
	return Coordinates{
		Lat:  geometry.Get("lat").Float(),
		Lon:  geometry.Get("lng").Float(),
		Name: formatted,
	}, nil
}

var _ Geocoder = (*OpenCageClient)(nil)
