package test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/alfred/store"
)

func TestLongTermMemoryStore_SaveThenLoad(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	_, err := ts.CreateLongTermMemory(ctx, &store.LongTermMemory{
		UserID:  "Bruce",
		Content: "My cat's name is Memphis and he takes his medication every night at 7pm.",
		Summary: "User's cat Memphis takes medication at 7pm",
		Tags:    []string{"cat", "medication", "schedule"},
	})
	require.NoError(t, err)

	list, err := ts.ListLongTermMemories(ctx, &store.FindLongTermMemory{UserID: strPtr("bruce")})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "User's cat Memphis takes medication at 7pm", list[0].Summary)
	assert.ElementsMatch(t, []string{"schedule", "cat", "medication"}, list[0].Tags)
}

func TestLongTermMemoryStore_AppendOnlyNewestFirst(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	now := time.Now()
	for i := 0; i < 2; i++ {
		// Identical entries are kept side by side.
		_, err := ts.CreateLongTermMemory(ctx, &store.LongTermMemory{
			Timestamp: now.Add(time.Duration(i) * time.Second),
			UserID:    "dup",
			Content:   "My house was built in 2017.",
			Summary:   "User's house was built in 2017",
		})
		require.NoError(t, err)
	}
	_, err := ts.CreateLongTermMemory(ctx, &store.LongTermMemory{
		Timestamp: now.Add(time.Minute),
		UserID:    "dup",
		Content:   "I had a dog named Jocko.",
		Summary:   "User once had a dog named Jocko.",
		Tags:      []string{"dog"},
	})
	require.NoError(t, err)

	list, err := ts.ListLongTermMemories(ctx, &store.FindLongTermMemory{UserID: strPtr("dup")})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "User once had a dog named Jocko.", list[0].Summary)
	assert.Empty(t, list[1].Tags)

	limited, err := ts.ListLongTermMemories(ctx, &store.FindLongTermMemory{UserID: strPtr("dup"), Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
