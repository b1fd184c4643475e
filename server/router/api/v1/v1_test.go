package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/alfred/plugin/ai/metrics"
	aierrors "github.com/hrygo/alfred/server/internal/errors"
	ratelimit "github.com/hrygo/alfred/server/middleware"
	"github.com/hrygo/alfred/server/runner/background"
	"github.com/hrygo/alfred/server/service/chat"
)

type fakeChat struct {
	lastUser  string
	lastLimit int
	err       error
}

func (f *fakeChat) Chat(_ context.Context, content, userID, sessionID string) (*chat.ChatResult, error) {
	f.lastUser = userID
	if f.err != nil {
		return nil, f.err
	}
	if strings.TrimSpace(content) == "" {
		return nil, aierrors.InvalidArgument("content is required")
	}
	return &chat.ChatResult{
		Response: "Very good, sir.",
		ChatHistory: []chat.Turn{
			{Role: "user", Content: content},
			{Role: "assistant", Content: "Very good, sir."},
		},
	}, nil
}

func (f *fakeChat) History(_ context.Context, userID string, limit int) ([]chat.HistoryEntry, error) {
	f.lastUser = userID
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return []chat.HistoryEntry{
		{Timestamp: time.Date(2026, 1, 27, 10, 0, 0, 0, time.UTC), Role: "user", Content: "hello"},
		{Timestamp: time.Date(2026, 1, 27, 10, 0, 1, 0, time.UTC), Role: "assistant", Content: "Good morning."},
	}, nil
}

type staticPool struct{}

func (staticPool) Stats() background.Stats { return background.Stats{Submitted: 3, Completed: 3} }

func newTestServer(svc *APIV1Service) *echo.Echo {
	e := NewEchoServer()
	svc.RegisterRoutes(e)
	return e
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestPostChat(t *testing.T) {
	fc := &fakeChat{}
	e := newTestServer(NewAPIV1Service(fc, nil, nil, nil, "test"))

	rec := do(e, http.MethodPost, "/api/v1/chat", `{"content":"Remind me to water the plants","user_id":"Bruce","session_id":"s1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var res chat.ChatResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "Very good, sir.", res.Response)
	require.Len(t, res.ChatHistory, 2)
	assert.Equal(t, "Bruce", fc.lastUser)
	assert.Contains(t, rec.Body.String(), `"chat_history"`)
}

func TestPostChat_Errors(t *testing.T) {
	t.Run("invalid body", func(t *testing.T) {
		e := newTestServer(NewAPIV1Service(&fakeChat{}, nil, nil, nil, "test"))
		rec := do(e, http.MethodPost, "/api/v1/chat", `[1,2]`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "INVALID_ARGUMENT")
	})

	t.Run("empty content", func(t *testing.T) {
		e := newTestServer(NewAPIV1Service(&fakeChat{}, nil, nil, nil, "test"))
		rec := do(e, http.MethodPost, "/api/v1/chat", `{"content":"","user_id":"bruce"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("internal cause is hidden", func(t *testing.T) {
		fc := &fakeChat{err: aierrors.Wrap(assert.AnError, aierrors.ErrCodeInternal, "failed to generate a reply")}
		e := newTestServer(NewAPIV1Service(fc, nil, nil, nil, "test"))
		rec := do(e, http.MethodPost, "/api/v1/chat", `{"content":"hi","user_id":"bruce"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)

		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "INTERNAL", body.Code)
		assert.Equal(t, "failed to generate a reply", body.Message)
		assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
	})

	t.Run("rate limited per user", func(t *testing.T) {
		limiter := ratelimit.NewRateLimiter(0.001, 1)
		e := newTestServer(NewAPIV1Service(&fakeChat{}, nil, nil, limiter, "test"))

		body := `{"content":"hi","user_id":"Bruce"}`
		require.Equal(t, http.StatusOK, do(e, http.MethodPost, "/api/v1/chat", body).Code)
		rec := do(e, http.MethodPost, "/api/v1/chat", `{"content":"hi","user_id":"bruce"}`)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Contains(t, rec.Body.String(), "RATE_LIMIT_EXCEEDED")

		assert.Equal(t, http.StatusOK, do(e, http.MethodPost, "/api/v1/chat", `{"content":"hi","user_id":"alfred"}`).Code)
	})
}

func TestGetHistory(t *testing.T) {
	fc := &fakeChat{}
	e := newTestServer(NewAPIV1Service(fc, nil, nil, nil, "test"))

	rec := do(e, http.MethodGet, "/api/v1/history?user_id=bruce&limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bruce", fc.lastUser)
	assert.Equal(t, 5, fc.lastLimit)

	var entries []chat.HistoryEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "user", entries[0].Role)

	rec = do(e, http.MethodGet, "/api/v1/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "default", fc.lastUser)
	assert.Equal(t, 0, fc.lastLimit)

	rec = do(e, http.MethodGet, "/api/v1/history?user_id=bruce&limit=ten", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetHistory_RateLimitedAsDefaultUser(t *testing.T) {
	limiter := ratelimit.NewRateLimiter(0.001, 1)
	e := newTestServer(NewAPIV1Service(&fakeChat{}, nil, nil, limiter, "test"))

	require.Equal(t, http.StatusOK, do(e, http.MethodGet, "/api/v1/history", "").Code)
	rec := do(e, http.MethodGet, "/api/v1/history", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// An explicit "default" shares the anonymous bucket.
	rec = do(e, http.MethodGet, "/api/v1/history?user_id=Default", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/api/v1/history?user_id=bruce", "").Code)
}

func TestGetHistory_StoreDown(t *testing.T) {
	fc := &fakeChat{err: aierrors.ServiceUnavailable("failed to load chat history", assert.AnError)}
	e := newTestServer(NewAPIV1Service(fc, nil, nil, nil, "test"))

	rec := do(e, http.MethodGet, "/api/v1/history?user_id=bruce", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "SERVICE_UNAVAILABLE")
}

func TestHealthz(t *testing.T) {
	e := newTestServer(NewAPIV1Service(&fakeChat{}, nil, nil, nil, "1.2.3"))
	rec := do(e, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","version":"1.2.3"}`, rec.Body.String())
}

func TestGetMetricsOverview(t *testing.T) {
	m := metrics.NewService()
	ctx := context.Background()
	m.RecordRequest(ctx, "task", 120*time.Millisecond, true)
	m.RecordRequest(ctx, "weather", 80*time.Millisecond, false)
	m.RecordToolCall(ctx, "create_new_task", 10*time.Millisecond, true)

	e := newTestServer(NewAPIV1Service(&fakeChat{}, m, staticPool{}, nil, "test"))
	rec := do(e, http.MethodGet, "/api/v1/system/metrics/overview", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp MetricsOverviewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(2), resp.TotalRequests)
	assert.Equal(t, int64(1), resp.ErrorCount)
	assert.InDelta(t, 0.5, resp.SuccessRate, 0.001)
	require.Len(t, resp.Routes, 2)
	assert.Equal(t, "task", resp.Routes[0].Route)
	require.Len(t, resp.Tools, 1)
	assert.Equal(t, "create_new_task", resp.Tools[0].Tool)
	assert.Equal(t, int64(3), resp.Background.Submitted)
}
