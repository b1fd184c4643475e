package v1

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	aierrors "github.com/hrygo/alfred/server/internal/errors"
)

// ChatRequest is the body of POST /api/v1/chat.
type ChatRequest struct {
	Content   string `json:"content"`
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
}

// PostChat answers one user message.
// POST /api/v1/chat
func (s *APIV1Service) PostChat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, aierrors.InvalidArgument("request body must be a JSON object"))
	}
	userID := strings.ToLower(strings.TrimSpace(req.UserID))
	if s.Limiter != nil && userID != "" && !s.Limiter.Allow(userID) {
		return writeError(c, aierrors.RateLimitExceeded("too many requests, please slow down"))
	}

	res, err := s.Chat.Chat(c.Request().Context(), req.Content, req.UserID, req.SessionID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// GetHistory returns a user's recent turns, oldest first.
// GET /api/v1/history?user_id=&limit=
func (s *APIV1Service) GetHistory(c echo.Context) error {
	userID := historyUserID(c)
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return writeError(c, aierrors.InvalidArgument("limit must be a non-negative integer"))
		}
		limit = n
	}

	history, err := s.Chat.History(c.Request().Context(), userID, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, history)
}
