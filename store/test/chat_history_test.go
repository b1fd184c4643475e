package test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/alfred/store"
)

func TestChatHistoryStore(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	base := time.Now().Add(-time.Hour)
	for i, role := range []string{"user", "assistant", "user", "assistant"} {
		_, err := ts.CreateChatHistory(ctx, &store.ChatHistory{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Role:      role,
			Content:   []string{"hello", "good evening", "weather?", "sunny"}[i],
			UserID:    "Bruce",
			SessionID: "S1",
		})
		require.NoError(t, err)
	}

	userID, sessionID := "bruce", "s1"
	list, err := ts.ListChatHistory(ctx, &store.FindChatHistory{UserID: &userID, SessionID: &sessionID, Limit: 3})
	require.NoError(t, err)
	require.Len(t, list, 3)

	// Most recent three, oldest first.
	assert.Equal(t, "good evening", list[0].Content)
	assert.Equal(t, "weather?", list[1].Content)
	assert.Equal(t, "sunny", list[2].Content)
	assert.Equal(t, "bruce", list[0].UserID, "ids are stored lower-cased")
	assert.True(t, list[0].Timestamp.Before(list[2].Timestamp))
}

func TestChatHistoryStore_OrderByTimestampNotInsertOrder(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	now := time.Now()
	// The reply is written before the prompt that triggered it.
	_, err := ts.CreateChatHistory(ctx, &store.ChatHistory{Timestamp: now.Add(time.Second), Role: "assistant", Content: "second", UserID: "u-order", SessionID: "s"})
	require.NoError(t, err)
	_, err = ts.CreateChatHistory(ctx, &store.ChatHistory{Timestamp: now, Role: "user", Content: "first", UserID: "u-order", SessionID: "s"})
	require.NoError(t, err)

	userID := "U-ORDER"
	list, err := ts.ListChatHistory(ctx, &store.FindChatHistory{UserID: &userID, Limit: 10})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "first", list[0].Content)
	assert.Equal(t, "second", list[1].Content)
}
