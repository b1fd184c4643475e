package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultOpenWeatherURL is the OpenWeatherMap 2.5 API root.
const DefaultOpenWeatherURL = "https://api.openweathermap.org/data/2.5"

// OpenWeatherClient fetches weather from OpenWeatherMap in imperial units.
type OpenWeatherClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// OpenWeatherOption configures an OpenWeatherClient.
type OpenWeatherOption func(*OpenWeatherClient)

// WithOpenWeatherBaseURL overrides the API root.
func WithOpenWeatherBaseURL(u string) OpenWeatherOption {
	return func(c *OpenWeatherClient) {
		c.baseURL = u
	}
}

// WithOpenWeatherHTTPClient overrides the HTTP client.
func WithOpenWeatherHTTPClient(h *http.Client) OpenWeatherOption {
	return func(c *OpenWeatherClient) {
		c.http = h
	}
}

// NewOpenWeatherClient creates a weather provider.
func NewOpenWeatherClient(apiKey string, opts ...OpenWeatherOption) *OpenWeatherClient {
	c := &OpenWeatherClient{
		apiKey:  apiKey,
		baseURL: DefaultOpenWeatherURL,
		http:    defaultHTTPClient(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type owmWeather struct {
	Description string `json:"description"`
}

type owmMain struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	Humidity  int     `json:"humidity"`
}

type owmCurrent struct {
	Name    string       `json:"name"`
	Weather []owmWeather `json:"weather"`
	Main    owmMain      `json:"main"`
	Wind    struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

type owmForecast struct {
	List []struct {
		Dt      int64        `json:"dt"`
		Main    owmMain      `json:"main"`
		Weather []owmWeather `json:"weather"`
		Pop     float64      `json:"pop"`
	} `json:"list"`
}

// Current returns the observed conditions at a point.
func (c *OpenWeatherClient) Current(ctx context.Context, at Coordinates) (*Conditions, error) {
	var data owmCurrent
	if err := c.get(ctx, "/weather", at, &data); err != nil {
		return nil, err
	}
	cond := &Conditions{
		City:      data.Name,
		Temp:      data.Main.Temp,
		FeelsLike: data.Main.FeelsLike,
		Humidity:  data.Main.Humidity,
		WindSpeed: data.Wind.Speed,
	}
	if cond.City == "" {
		cond.City = at.Name
	}
	if len(data.Weather) > 0 {
		cond.Description = data.Weather[0].Description
	}
	return cond, nil
}

// Forecast returns the 5-day, 3-hourly forecast at a point.
func (c *OpenWeatherClient) Forecast(ctx context.Context, at Coordinates) ([]ForecastEntry, error) {
	var data owmForecast
	if err := c.get(ctx, "/forecast", at, &data); err != nil {
		return nil, err
	}
	entries := make([]ForecastEntry, 0, len(data.List))
	for _, item := range data.List {
		e := ForecastEntry{
			Time: time.Unix(item.Dt, 0),
			Temp: item.Main.Temp,
			Pop:  item.Pop,
		}
		if len(item.Weather) > 0 {
			e.Description = item.Weather[0].Description
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (c *OpenWeatherClient) get(ctx context.Context, path string, at Coordinates, out any) error {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(at.Lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(at.Lon, 'f', -1, 64))
	q.Set("appid", c.apiKey)
	q.Set("units", "imperial")
	q.Set("lang", "en")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build weather request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Service: "openweathermap", StatusCode: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode weather response: %w", err)
	}
	return nil
}

var _ Provider = (*OpenWeatherClient)(nil)
