package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/hrygo/alfred/plugin/weather"
)

// WeatherTools exposes the weather service to the model.
type WeatherTools struct {
	svc *weather.Service
}

// NewWeatherTools creates the weather tools.
func NewWeatherTools(svc *weather.Service) *WeatherTools {
	return &WeatherTools{svc: svc}
}

// All returns every weather tool.
func (w *WeatherTools) All() []*NativeTool {
	return []*NativeTool{w.CoordinatesTool(), w.CurrentTool(), w.ForecastTool()}
}

func locationProp() map[string]any {
	return stringProp("City or place name. Leave empty or use 'home' for the user's home.")
}

// CoordinatesTool geocodes a location.
func (w *WeatherTools) CoordinatesTool() *NativeTool {
	return NewNativeTool(
		ToolGetCoordinates,
		"Get the latitude and longitude of a location.",
		map[string]any{"location": locationProp()},
		nil,
		func(ctx context.Context, args map[string]any) (string, error) {
			location := w.svc.ResolveLocation(argString(args, "location"))
			c, err := w.svc.Coordinates(ctx, location)
			if errors.Is(err, weather.ErrLocationNotFound) {
				return weather.NotFoundText(location), nil
			}
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%s is at latitude %.4f, longitude %.4f.", c.Name, c.Lat, c.Lon), nil
		},
	)
}

// CurrentTool reports current conditions.
func (w *WeatherTools) CurrentTool() *NativeTool {
	return NewNativeTool(
		ToolCurrentWeather,
		"Get the current weather for a location.",
		map[string]any{"location": locationProp()},
		nil,
		func(ctx context.Context, args map[string]any) (string, error) {
			return w.svc.CurrentReport(ctx, argString(args, "location"))
		},
	)
}

// ForecastTool reports the daily forecast.
func (w *WeatherTools) ForecastTool() *NativeTool {
	return NewNativeTool(
		ToolWeatherForecast,
		"Get the daily weather forecast for a location, up to 5 days.",
		map[string]any{
			"location": locationProp(),
			"days":     intProp("Number of days, 1 to 5"),
		},
		nil,
		func(ctx context.Context, args map[string]any) (string, error) {
			days, _ := argInt(args, "days")
			return w.svc.ForecastReport(ctx, argString(args, "location"), int(days))
		},
	)
}
