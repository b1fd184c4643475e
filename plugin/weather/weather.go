// Package weather provides geocoding and weather lookups for the assistant.
package weather

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrLocationNotFound is returned when the geocoder has no result for a name.
var ErrLocationNotFound = errors.New("location not found")

// Coordinates is a geocoded place.
type Coordinates struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Name string  `json:"name"`
}

func (c Coordinates) String() string {
	return fmt.Sprintf("%s (%.4f, %.4f)", c.Name, c.Lat, c.Lon)
}

// Conditions are the current observed conditions.
type Conditions struct {
	City        string
	Description string
	Temp        float64
	FeelsLike   float64
	Humidity    int
	WindSpeed   float64
}

// ForecastEntry is one 3-hourly forecast sample.
type ForecastEntry struct {
	Time        time.Time
	Temp        float64
	Description string
	// Pop is the probability of precipitation in [0, 1].
	Pop float64
}

// Geocoder resolves place names to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, name string) (Coordinates, error)
}

// Provider fetches weather for coordinates.
type Provider interface {
	Current(ctx context.Context, at Coordinates) (*Conditions, error)
	Forecast(ctx context.Context, at Coordinates) ([]ForecastEntry, error)
}

// StatusError is a non-2xx response from an upstream API.
type StatusError struct {
	Service    string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Service, e.StatusCode)
}

// Temporary reports whether retrying may succeed.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

const defaultHTTPTimeout = 10 * time.Second

func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: defaultHTTPTimeout}
}
