package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/alfred/plugin/ai"
	"github.com/hrygo/alfred/server/runner/background"
	"github.com/hrygo/alfred/store"
	storetest "github.com/hrygo/alfred/store/test"
)

func classifierReturning(raw string, err error) *Classifier {
	llm := &ai.MockLLM{}
	llm.On("Chat", mock.Anything, mock.Anything).Return(raw, err)
	return NewClassifier(llm)
}

func memoriesOf(t *testing.T, s *store.Store, userID string) []*store.LongTermMemory {
	t.Helper()
	list, err := s.ListLongTermMemories(context.Background(), &store.FindLongTermMemory{UserID: &userID})
	require.NoError(t, err)
	return list
}

func TestPipeline_Evaluate(t *testing.T) {
	ctx := context.Background()

	t.Run("saves with deduplicated tags", func(t *testing.T) {
		ts := storetest.NewTestingStore(ctx, t)
		p := NewPipeline(classifierReturning(`{"save": true, "summary": "User's cat is named Memphis", "tags": ["Cat", "Cat", " pet "]}`, nil), ts, nil)

		assert.True(t, p.evaluate(ctx, "bruce", "My cat's name is Memphis."))

		list := memoriesOf(t, ts, "bruce")
		require.Len(t, list, 1)
		assert.Equal(t, "My cat's name is Memphis.", list[0].Content)
		assert.Equal(t, "User's cat is named Memphis", list[0].Summary)
		assert.Equal(t, []string{"Cat", "pet"}, list[0].Tags)
	})

	t.Run("empty summary falls back to content", func(t *testing.T) {
		ts := storetest.NewTestingStore(ctx, t)
		p := NewPipeline(classifierReturning(`{"save": true, "summary": "", "tags": []}`, nil), ts, nil)

		assert.True(t, p.evaluate(ctx, "bruce", "Add a task to clean the bathroom every Friday"))
		list := memoriesOf(t, ts, "bruce")
		require.Len(t, list, 1)
		assert.Equal(t, "Add a task to clean the bathroom every Friday", list[0].Summary)
	})

	t.Run("not saved", func(t *testing.T) {
		ts := storetest.NewTestingStore(ctx, t)
		p := NewPipeline(classifierReturning(`{"save": false, "summary": "", "tags": []}`, nil), ts, nil)

		assert.False(t, p.evaluate(ctx, "bruce", "What's the weather like today?"))
		assert.Empty(t, memoriesOf(t, ts, "bruce"))
	})

	t.Run("malformed output is do-not-save", func(t *testing.T) {
		ts := storetest.NewTestingStore(ctx, t)
		p := NewPipeline(classifierReturning("I think so", nil), ts, nil)

		assert.False(t, p.evaluate(ctx, "bruce", "My birthday is September 10th."))
		assert.Empty(t, memoriesOf(t, ts, "bruce"))
	})

	t.Run("model failure is swallowed", func(t *testing.T) {
		ts := storetest.NewTestingStore(ctx, t)
		p := NewPipeline(classifierReturning("", errors.New("connection refused")), ts, nil)

		assert.False(t, p.evaluate(ctx, "bruce", "My birthday is September 10th."))
	})

	t.Run("repeats are appended", func(t *testing.T) {
		ts := storetest.NewTestingStore(ctx, t)
		p := NewPipeline(classifierReturning(`{"save": true, "summary": "birthday", "tags": ["birthday"]}`, nil), ts, nil)

		p.evaluate(ctx, "bruce", "My birthday is September 10th.")
		p.evaluate(ctx, "bruce", "My birthday is September 10th.")
		assert.Len(t, memoriesOf(t, ts, "bruce"), 2)
	})
}

func TestPipeline_EvaluateInBackground(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	pool := background.NewPool(2)
	p := NewPipeline(classifierReturning(`{"save": true, "summary": "House built 2017", "tags": ["house"]}`, nil), ts, pool)

	reqCtx, cancel := context.WithCancel(ctx)
	p.Evaluate(reqCtx, "bruce", "My house was built in 2017.")
	p.Evaluate(reqCtx, "bruce", "   ")
	// The request ending must not stop the evaluation.
	cancel()

	require.NoError(t, pool.Drain(ctx))
	list := memoriesOf(t, ts, "bruce")
	require.Len(t, list, 1)
	assert.Equal(t, "House built 2017", list[0].Summary)
	assert.Equal(t, int64(1), pool.Stats().Submitted)
}

func TestPipeline_EvaluateAfterDrain(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	pool := background.NewPool(1)
	require.NoError(t, pool.Drain(ctx))

	p := NewPipeline(classifierReturning(`{"save": true, "summary": "x", "tags": []}`, nil), ts, pool)
	assert.NotPanics(t, func() { p.Evaluate(ctx, "bruce", "remember this") })
	assert.Empty(t, memoriesOf(t, ts, "bruce"))
}
