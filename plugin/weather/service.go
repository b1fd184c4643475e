package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hrygo/alfred/plugin/ai/cache"
)

const (
	geocodeCacheCapacity = 256
	geocodeCacheTTL      = 24 * time.Hour
	// MaxForecastDays is what the 5-day forecast API can cover.
	MaxForecastDays = 5
)

// Service answers weather questions for a place name.
type Service struct {
	geocoder        Geocoder
	provider        Provider
	cache           *cache.LRUCache
	defaultLocation string
	loc             *time.Location
}

// NewService creates a weather service. defaultLocation is used for an empty
// location or "home".
func NewService(geocoder Geocoder, provider Provider, defaultLocation string, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		geocoder:        geocoder,
		provider:        provider,
		cache:           cache.NewLRUCache(geocodeCacheCapacity, geocodeCacheTTL),
		defaultLocation: defaultLocation,
		loc:             loc,
	}
}

// ResolveLocation substitutes the default location for "" and "home".
func (s *Service) ResolveLocation(location string) string {
	location = strings.TrimSpace(location)
	if location == "" || strings.EqualFold(location, "home") {
		return s.defaultLocation
	}
	return location
}

// NotFoundText is the graceful reply for an unknown place.
func NotFoundText(location string) string {
	return fmt.Sprintf("Sorry, I couldn't find the weather for %s.", location)
}

// Coordinates geocodes location through the cache.
func (s *Service) Coordinates(ctx context.Context, location string) (Coordinates, error) {
	key := "geo:" + strings.ToLower(location)
	if raw, ok := s.cache.Get(key); ok {
		var c Coordinates
		if err := json.Unmarshal(raw, &c); err == nil {
			return c, nil
		}
	}

	c, err := s.geocoder.Geocode(ctx, location)
	if err != nil {
		return Coordinates{}, err
	}
	if raw, err := json.Marshal(c); err == nil {
		s.cache.Set(key, raw, 0)
	}
	return c, nil
}

// CurrentReport describes the current weather at location. An unknown place
// yields NotFoundText and no error.
func (s *Service) CurrentReport(ctx context.Context, location string) (string, error) {
	location = s.ResolveLocation(location)
	at, err := s.Coordinates(ctx, location)
	if errors.Is(err, ErrLocationNotFound) {
		slog.Warn("weather location not found", "location", location)
		return NotFoundText(location), nil
	}
	if err != nil {
		return "", err
	}
	cond, err := s.provider.Current(ctx, at)
	if err != nil {
		return "", err
	}
	return FormatCurrent(cond), nil
}

// ForecastReport describes up to days days of forecast at location.
func (s *Service) ForecastReport(ctx context.Context, location string, days int) (string, error) {
	location = s.ResolveLocation(location)
	at, err := s.Coordinates(ctx, location)
	if errors.Is(err, ErrLocationNotFound) {
		slog.Warn("weather location not found", "location", location)
		return NotFoundText(location), nil
	}
	if err != nil {
		return "", err
	}
	entries, err := s.provider.Forecast(ctx, at)
	if err != nil {
		return "", err
	}
	daily := AggregateForecast(entries, s.loc)
	if days <= 0 || days > MaxForecastDays {
		days = MaxForecastDays
	}
	if len(daily) > days {
		daily = daily[:days]
	}
	return FormatForecast(location, daily), nil
}
