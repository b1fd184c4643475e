package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_PerKey(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)

	assert.True(t, rl.Allow("bruce"))
	assert.True(t, rl.Allow("bruce"))
	assert.False(t, rl.Allow("bruce"))

	// Another user has their own bucket.
	assert.True(t, rl.Allow("alfred"))
	assert.Equal(t, 2, rl.Size())
}

func TestRateLimiter_EvictsIdleKeys(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	now := time.Date(2026, 1, 27, 10, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.Allow("old")
	now = now.Add(idleLimiterTTL + time.Minute)
	rl.Allow("new")
	assert.Equal(t, 1, rl.Size())
}

func TestRateLimiter_Middleware(t *testing.T) {
	e := echo.New()
	rl := NewRateLimiter(0.001, 1)
	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}, rl.Middleware(func(c echo.Context) string { return c.QueryParam("user_id") }))

	do := func(query string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/"+query, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusOK, do("?user_id=bruce").Code)
	rec := do("?user_id=bruce")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "RATE_LIMIT_EXCEEDED")

	// No key, no limit.
	assert.Equal(t, http.StatusOK, do("").Code)
	assert.Equal(t, http.StatusOK, do("").Code)
}
