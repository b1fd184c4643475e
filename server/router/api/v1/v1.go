// Package v1 serves the JSON HTTP API.
package v1

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hrygo/alfred/plugin/ai/metrics"
	aierrors "github.com/hrygo/alfred/server/internal/errors"
	ratelimit "github.com/hrygo/alfred/server/middleware"
	"github.com/hrygo/alfred/server/runner/background"
	"github.com/hrygo/alfred/server/service/chat"
)

// defaultUserID is read when a history request names no user.
const defaultUserID = "default"

// ChatService is what the handlers need from the chat service.
// *chat.Service satisfies it.
type ChatService interface {
	Chat(ctx context.Context, content, userID, sessionID string) (*chat.ChatResult, error)
	History(ctx context.Context, userID string, limit int) ([]chat.HistoryEntry, error)
}

// PoolStats reports background pool counters. *background.Pool satisfies it.
type PoolStats interface {
	Stats() background.Stats
}

type APIV1Service struct {
	Chat    ChatService
	Metrics metrics.MetricsService
	Pool    PoolStats
	Limiter *ratelimit.RateLimiter
	Version string
}

func NewAPIV1Service(chatService ChatService, m metrics.MetricsService, pool PoolStats, limiter *ratelimit.RateLimiter, version string) *APIV1Service {
	return &APIV1Service{
		Chat:    chatService,
		Metrics: m,
		Pool:    pool,
		Limiter: limiter,
		Version: version,
	}
}

// NewEchoServer creates an echo instance with the shared middleware stack.
func NewEchoServer() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				slog.Warn("http request failed", append(attrs, "error", v.Error)...)
				return nil
			}
			slog.Info("http request", attrs...)
			return nil
		},
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOriginFunc: func(_ string) (bool, error) {
			return true, nil
		},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"*"},
	}))
	return e
}

// RegisterRoutes mounts the API on e.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", s.Healthz)

	g := e.Group("/api/v1")
	// The chat body is limited inside PostChat once user_id is bound.
	g.POST("/chat", s.PostChat)
	if s.Limiter != nil {
		g.GET("/history", s.GetHistory, s.Limiter.Middleware(historyUserID))
	} else {
		g.GET("/history", s.GetHistory)
	}
	g.GET("/system/metrics/overview", s.GetMetricsOverview)
}

// Healthz reports liveness.
// GET /healthz
func (s *APIV1Service) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.Version,
	})
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError renders err as an AIError body. Internal causes are logged,
// never returned.
func writeError(c echo.Context, err error) error {
	e := aierrors.From(err)
	status := e.HTTPStatus()
	if status >= http.StatusInternalServerError {
		slog.Error("request failed",
			"path", c.Path(),
			"code", e.Code,
			"error", err)
	}
	return c.JSON(status, ErrorResponse{Code: string(e.Code), Message: e.Message})
}

// historyUserID is the user a history request reads. It is also the
// request's rate-limit key, so anonymous reads share the default bucket.
func historyUserID(c echo.Context) string {
	id := strings.ToLower(strings.TrimSpace(c.QueryParam("user_id")))
	if id == "" {
		return defaultUserID
	}
	return id
}
