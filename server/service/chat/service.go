// Package chat is the public entry point: one user message in, one reply out,
// with the turn persisted and evaluated for long-term memory in the background.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hrygo/alfred/plugin/ai"
	"github.com/hrygo/alfred/plugin/ai/agent"
	"github.com/hrygo/alfred/plugin/ai/timeout"
	aierrors "github.com/hrygo/alfred/server/internal/errors"
	"github.com/hrygo/alfred/server/internal/observability"
	"github.com/hrygo/alfred/store"
)

// Defaults.
const (
	DefaultHistoryWindow = 8
	DefaultHistoryLimit  = 10
	MaxHistoryLimit      = 100
	DefaultSessionID     = "default"
)

// HistoryStore reads and appends chat turns. *store.Store satisfies it.
type HistoryStore interface {
	CreateChatHistory(ctx context.Context, create *store.ChatHistory) (*store.ChatHistory, error)
	ListChatHistory(ctx context.Context, find *store.FindChatHistory) ([]*store.ChatHistory, error)
}

// Runner drives one conversational turn. *agent.Executor satisfies it.
type Runner interface {
	Run(ctx context.Context, state *agent.ConversationState) (*agent.Result, error)
}

// MemoryEvaluator decides in the background whether to remember a message.
// *memory.Pipeline satisfies it.
type MemoryEvaluator interface {
	Evaluate(ctx context.Context, userID, text string)
}

// Submitter schedules background work. *background.Pool satisfies it.
type Submitter interface {
	SubmitContext(ctx context.Context, name string, fn func(ctx context.Context) error) error
}

// Turn is one message of the returned conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatResult is the reply to one user message.
type ChatResult struct {
	Response    string `json:"response"`
	ChatHistory []Turn `json:"chat_history"`
}

// HistoryEntry is one persisted turn as returned by History.
type HistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
}

// Service implements Chat and History.
type Service struct {
	store         HistoryStore
	runner        Runner
	memory        MemoryEvaluator
	pool          Submitter
	historyWindow int
	now           func() time.Time
	logger        *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithHistoryWindow sets how many past turns are given to the model.
func WithHistoryWindow(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.historyWindow = n
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithLogger sets the logger used for request logs.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// NewService creates a Service. memory may be nil to disable long-term
// memory evaluation.
func NewService(st HistoryStore, runner Runner, memory MemoryEvaluator, pool Submitter, opts ...Option) *Service {
	s := &Service{
		store:         st,
		runner:        runner,
		memory:        memory,
		pool:          pool,
		historyWindow: DefaultHistoryWindow,
		now:           time.Now,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Chat answers content for the given user and session.
func (s *Service) Chat(ctx context.Context, content, userID, sessionID string) (*ChatResult, error) {
	userID = agent.NormalizeID(userID)
	sessionID = agent.NormalizeID(sessionID)
	if sessionID == "" {
		sessionID = DefaultSessionID
	}
	if strings.TrimSpace(content) == "" {
		return nil, aierrors.InvalidArgument("content is required")
	}
	if userID == "" {
		return nil, aierrors.InvalidArgument("user_id is required")
	}

	ctx, cancel := context.WithTimeout(ctx, timeout.RequestTimeout)
	defer cancel()
	rc := observability.NewRequestContext(s.logger, userID, sessionID)
	ctx = observability.WithRequestContext(ctx, rc)
	rc.Info("chat request", slog.Int(observability.LogFieldMessageLen, len(content)))

	if s.memory != nil {
		s.memory.Evaluate(ctx, userID, content)
	}

	history := s.loadHistory(ctx, rc, userID, sessionID)

	s.saveTurn(ctx, &store.ChatHistory{
		Timestamp: s.now(),
		Role:      ai.RoleUser,
		Content:   content,
		UserID:    userID,
		SessionID: sessionID,
	})

	messages := ai.FormatMessages(personalization(userID), content, history)
	state := agent.NewConversationState(userID, sessionID, messages...)
	res, err := s.runner.Run(ctx, state)
	if err != nil {
		rc.Error("executor failed", err)
		return nil, aierrors.Wrap(err, aierrors.ErrCodeInternal, "failed to generate a reply")
	}
	rc.Route = string(res.Label)

	s.saveTurn(ctx, &store.ChatHistory{
		Timestamp: s.now(),
		Role:      ai.RoleAssistant,
		Content:   res.Text,
		UserID:    userID,
		SessionID: sessionID,
	})

	turns := make([]Turn, 0, len(history)+2)
	for _, m := range history {
		turns = append(turns, Turn{Role: m.Role, Content: m.Content})
	}
	turns = append(turns,
		Turn{Role: ai.RoleUser, Content: content},
		Turn{Role: ai.RoleAssistant, Content: res.Text},
	)

	rc.Info("chat completed",
		slog.Int("steps", res.Steps),
		slog.Bool("exhausted", res.Exhausted),
		slog.Int64(observability.LogFieldDuration, rc.DurationMs()))
	return &ChatResult{Response: res.Text, ChatHistory: turns}, nil
}

// History returns the user's most recent turns across sessions, oldest first.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]HistoryEntry, error) {
	userID = agent.NormalizeID(userID)
	if userID == "" {
		return nil, aierrors.InvalidArgument("user_id is required")
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	rows, err := s.store.ListChatHistory(ctx, &store.FindChatHistory{UserID: &userID, Limit: limit})
	if err != nil {
		return nil, aierrors.ServiceUnavailable("failed to load chat history", err)
	}
	out := make([]HistoryEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, HistoryEntry{Timestamp: r.Timestamp, Role: r.Role, Content: r.Content})
	}
	return out, nil
}

// loadHistory returns the recent turns of the session. A failure degrades to
// no history.
func (s *Service) loadHistory(ctx context.Context, rc *observability.RequestContext, userID, sessionID string) []ai.Message {
	rows, err := s.store.ListChatHistory(ctx, &store.FindChatHistory{
		UserID:    &userID,
		SessionID: &sessionID,
		Limit:     s.historyWindow,
	})
	if err != nil {
		rc.Warn("failed to load chat history, continuing without it", slog.String("error", err.Error()))
		return nil
	}
	out := make([]ai.Message, 0, len(rows))
	for _, r := range rows {
		if r.Role != ai.RoleUser && r.Role != ai.RoleAssistant {
			continue
		}
		out = append(out, ai.Message{Role: r.Role, Content: r.Content})
	}
	return out
}

// saveTurn persists one turn in the background. The timestamp is fixed by
// the caller so reads order by event time, not by write completion.
func (s *Service) saveTurn(ctx context.Context, turn *store.ChatHistory) {
	name := fmt.Sprintf("chat.save_%s", turn.Role)
	err := s.pool.SubmitContext(ctx, name, func(ctx context.Context) error {
		if _, err := s.store.CreateChatHistory(ctx, turn); err != nil {
			return fmt.Errorf("failed to save %s turn for %s/%s: %w", turn.Role, turn.UserID, turn.SessionID, err)
		}
		return nil
	})
	if err != nil {
		slog.Warn("chat turn not persisted", "role", turn.Role, "user_id", turn.UserID, "error", err)
	}
}

func personalization(userID string) string {
	return fmt.Sprintf("You are speaking to %s. Refer to them by name when appropriate.", userID)
}
