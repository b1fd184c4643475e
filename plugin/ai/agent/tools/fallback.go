package tools

import (
	"context"
	"log/slog"
	"sync"
)

// FallbackFunc produces graceful text for a tool that failed after all retries.
type FallbackFunc func(ctx context.Context, toolName string, args map[string]any, err error) string

// DefaultFallbackRules contains the default fallback strategies for external dependencies.
var DefaultFallbackRules = map[string]FallbackFunc{
	ToolGetCoordinates:    ErrorAwareFallback("The location service is temporarily unavailable. Please try again later."),
	ToolCurrentWeather:    ErrorAwareFallback("The weather service is temporarily unavailable. Please try again later."),
	ToolWeatherForecast:   ErrorAwareFallback("The weather service is temporarily unavailable. Please try again later."),
	ToolRecallMemories:    ErrorAwareFallback("Long-term memory is temporarily unavailable."),
	ToolGetTasks:          ErrorAwareFallback("The task list is temporarily unavailable."),
	ToolCreateNewTask:     ErrorAwareFallback("The task could not be saved right now. Please try again shortly."),
	ToolMarkTaskCompleted: ErrorAwareFallback("The task could not be updated right now. Please try again shortly."),
}

// FallbackRegistry allows dynamic registration of fallback handlers.
type FallbackRegistry struct {
	mu       sync.RWMutex
	handlers map[string]FallbackFunc
}

// NewFallbackRegistry creates a new FallbackRegistry with default handlers.
func NewFallbackRegistry() *FallbackRegistry {
	r := &FallbackRegistry{
		handlers: make(map[string]FallbackFunc),
	}
	for k, v := range DefaultFallbackRules {
		r.handlers[k] = v
	}
	return r
}

// Register adds or replaces a fallback handler for the given tool.
func (r *FallbackRegistry) Register(toolName string, handler FallbackFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[toolName] = handler
}

// GetAll returns a copy of all registered handlers.
func (r *FallbackRegistry) GetAll() map[string]FallbackFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make(map[string]FallbackFunc, len(r.handlers))
	for k, v := range r.handlers {
		result[k] = v
	}
	return result
}

// WeatherNotConfiguredText answers weather calls on a server without API keys.
const WeatherNotConfiguredText = "Weather lookups are not configured on this server."

// NewServerFallbacks returns the default handlers. Without weather API keys the
// weather tools answer WeatherNotConfiguredText instead of an outage message.
func NewServerFallbacks(weatherConfigured bool) *FallbackRegistry {
	r := NewFallbackRegistry()
	if !weatherConfigured {
		notConfigured := ErrorAwareFallback(WeatherNotConfiguredText)
		for _, name := range []string{ToolGetCoordinates, ToolCurrentWeather, ToolWeatherForecast} {
			r.Register(name, notConfigured)
		}
	}
	return r
}

// ErrorAwareFallback creates a fallback that logs error details but returns a safe message.
// Error details are logged for debugging but not exposed to users.
func ErrorAwareFallback(message string) FallbackFunc {
	return func(_ context.Context, toolName string, _ map[string]any, err error) string {
		if err != nil {
			slog.Warn("tool fallback triggered",
				slog.String("tool", toolName),
				slog.String("error", err.Error()),
			)
		}
		return message
	}
}
