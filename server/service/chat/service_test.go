package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/alfred/plugin/ai"
	"github.com/hrygo/alfred/plugin/ai/agent"
	"github.com/hrygo/alfred/plugin/ai/router"
	aierrors "github.com/hrygo/alfred/server/internal/errors"
	"github.com/hrygo/alfred/server/internal/observability"
	"github.com/hrygo/alfred/server/runner/background"
	"github.com/hrygo/alfred/store"
	storetest "github.com/hrygo/alfred/store/test"
)

type fakeRunner struct {
	reply string
	err   error
	got   *agent.ConversationState
	ctx   context.Context
}

func (f *fakeRunner) Run(ctx context.Context, state *agent.ConversationState) (*agent.Result, error) {
	f.got = state
	f.ctx = ctx
	if f.err != nil {
		return nil, f.err
	}
	return &agent.Result{Text: f.reply, Label: router.LabelGeneral}, nil
}

type fakeEvaluator struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeEvaluator) Evaluate(_ context.Context, userID, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, userID+":"+text)
}

type failingHistory struct {
	HistoryStore
}

func (failingHistory) ListChatHistory(context.Context, *store.FindChatHistory) ([]*store.ChatHistory, error) {
	return nil, errors.New("database is locked")
}

// steppingClock returns a clock advancing one second per call.
func steppingClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	now := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

var epoch = time.Date(2026, 1, 27, 10, 0, 0, 0, time.UTC)

func TestService_Chat(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	pool := background.NewPool(2)
	runner := &fakeRunner{reply: "Good evening, Bruce."}
	mem := &fakeEvaluator{}
	svc := NewService(ts, runner, mem, pool, WithClock(steppingClock(epoch)))

	res, err := svc.Chat(ctx, "Hello Alfred", " Bruce ", "S1")
	require.NoError(t, err)
	require.NoError(t, pool.Drain(ctx))

	assert.Equal(t, "Good evening, Bruce.", res.Response)
	assert.Equal(t, []Turn{
		{Role: ai.RoleUser, Content: "Hello Alfred"},
		{Role: ai.RoleAssistant, Content: "Good evening, Bruce."},
	}, res.ChatHistory)

	// The executor sees personalization first and the user message last.
	require.NotNil(t, runner.got)
	assert.Equal(t, "bruce", runner.got.UserID)
	assert.Equal(t, "s1", runner.got.SessionID)
	msgs := runner.got.Messages
	require.Len(t, msgs, 2)
	assert.Equal(t, ai.RoleSystem, msgs[0].Role)
	assert.Equal(t, "You are speaking to bruce. Refer to them by name when appropriate.", msgs[0].Content)
	assert.Equal(t, "Hello Alfred", msgs[1].Content)

	rc, ok := observability.FromContext(runner.ctx)
	require.True(t, ok)
	assert.Equal(t, "bruce", rc.UserID)

	assert.Equal(t, []string{"bruce:Hello Alfred"}, mem.calls)

	history, err := svc.History(ctx, "BRUCE", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, ai.RoleUser, history[0].Role)
	assert.Equal(t, ai.RoleAssistant, history[1].Role)
	assert.True(t, history[0].Timestamp.Before(history[1].Timestamp))
}

func TestService_ChatUsesHistoryWindow(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	for i := 0; i < 12; i++ {
		role := ai.RoleUser
		if i%2 == 1 {
			role = ai.RoleAssistant
		}
		_, err := ts.CreateChatHistory(ctx, &store.ChatHistory{
			Timestamp: epoch.Add(-time.Duration(12-i) * time.Minute),
			Role:      role,
			Content:   fmt.Sprintf("turn %d", i),
			UserID:    "bruce",
			SessionID: "s1",
		})
		require.NoError(t, err)
	}
	// Another session is not part of the window.
	_, err := ts.CreateChatHistory(ctx, &store.ChatHistory{Timestamp: epoch, Role: ai.RoleUser, Content: "other", UserID: "bruce", SessionID: "s2"})
	require.NoError(t, err)

	pool := background.NewPool(1)
	runner := &fakeRunner{reply: "Indeed."}
	svc := NewService(ts, runner, nil, pool, WithClock(steppingClock(epoch)))

	res, err := svc.Chat(ctx, "and now?", "bruce", "s1")
	require.NoError(t, err)
	require.NoError(t, pool.Drain(ctx))

	msgs := runner.got.Messages
	require.Len(t, msgs, DefaultHistoryWindow+2)
	assert.Equal(t, "turn 4", msgs[1].Content)
	assert.Equal(t, "turn 11", msgs[DefaultHistoryWindow].Content)
	assert.Equal(t, "and now?", msgs[len(msgs)-1].Content)
	assert.Len(t, res.ChatHistory, DefaultHistoryWindow+2)
	assert.Equal(t, "turn 4", res.ChatHistory[0].Content)

	history, err := svc.History(ctx, "bruce", 0)
	require.NoError(t, err)
	require.Len(t, history, DefaultHistoryLimit)
	assert.Equal(t, "Indeed.", history[len(history)-1].Content)
}

func TestService_ChatValidation(t *testing.T) {
	svc := NewService(nil, &fakeRunner{}, nil, background.NewPool(1))

	_, err := svc.Chat(context.Background(), "   ", "bruce", "s1")
	assert.True(t, aierrors.IsCode(err, aierrors.ErrCodeInvalidArgument))

	_, err = svc.Chat(context.Background(), "hello", "", "s1")
	assert.True(t, aierrors.IsCode(err, aierrors.ErrCodeInvalidArgument))

	_, err = svc.History(context.Background(), " ", 5)
	assert.True(t, aierrors.IsCode(err, aierrors.ErrCodeInvalidArgument))
}

func TestService_ChatSurvivesHistoryFailure(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	pool := background.NewPool(1)
	runner := &fakeRunner{reply: "At your service."}
	svc := NewService(failingHistory{HistoryStore: ts}, runner, nil, pool)

	res, err := svc.Chat(ctx, "hello", "bruce", "")
	require.NoError(t, err)
	require.NoError(t, pool.Drain(ctx))

	assert.Equal(t, "At your service.", res.Response)
	assert.Equal(t, DefaultSessionID, runner.got.SessionID)
	assert.Len(t, runner.got.Messages, 2)

	_, err = svc.History(ctx, "bruce", 5)
	assert.True(t, aierrors.IsCode(err, aierrors.ErrCodeServiceUnavailable))
}

func TestService_ChatRunnerError(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	pool := background.NewPool(1)
	svc := NewService(ts, &fakeRunner{err: errors.New("conversation state is required")}, nil, pool)

	_, err := svc.Chat(ctx, "hello", "bruce", "s1")
	require.Error(t, err)
	assert.True(t, aierrors.IsCode(err, aierrors.ErrCodeInternal))
	require.NoError(t, pool.Drain(ctx))

	// The user turn is still recorded.
	history, err := svc.History(ctx, "bruce", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, ai.RoleUser, history[0].Role)
}
