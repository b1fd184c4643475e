package tools

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/alfred/store"
	storetest "github.com/hrygo/alfred/store/test"
)

func TestRecallMemories(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	tools := NewMemoryTools(ts)

	out, err := tools.RecallTool().Run(ctx, withUser(map[string]any{"query": "cat name"}))
	require.NoError(t, err)
	assert.Equal(t, NoMemoriesText, out)

	base := time.Now().Add(-time.Hour)
	for i, m := range []store.LongTermMemory{
		{Content: "My cat's name is Memphis", Summary: "User's cat is named Memphis", Tags: []string{"cat", "pet"}},
		{Content: "My house was built in 2017", Summary: "User's house was built in 2017", Tags: []string{"house"}},
	} {
		m.UserID = "Bruce"
		m.Timestamp = base.Add(time.Duration(i) * time.Minute)
		_, err := ts.CreateLongTermMemory(ctx, &m)
		require.NoError(t, err)
	}

	out, err = tools.RecallTool().Run(ctx, withUser(map[string]any{"query": "What's my cat's name?"}))
	require.NoError(t, err)
	assert.Contains(t, out, "Memphis")
	assert.NotContains(t, out, "2017")

	// No keyword overlap falls back to the newest entries.
	out, err = tools.RecallTool().Run(ctx, withUser(map[string]any{"query": "favorite color"}))
	require.NoError(t, err)
	assert.Contains(t, out, "Memphis")
	assert.Contains(t, out, "2017")
}

func TestSaveMemory_RoundTrip(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	tools := NewMemoryTools(ts)

	out, err := tools.SaveTool().Run(ctx, withUser(map[string]any{
		"content": "My birthday is September 10th.",
		"summary": "User's birthday is September 10th",
		"tags":    []any{"Birthday", "personal_info", " Birthday "},
	}))
	require.NoError(t, err)
	assert.Equal(t, MemorySavedText, out)

	userID := "bruce"
	list, err := ts.ListLongTermMemories(ctx, &store.FindLongTermMemory{UserID: &userID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "User's birthday is September 10th", list[0].Summary)
	assert.ElementsMatch(t, []string{"Birthday", "personal_info"}, list[0].Tags)

	out, err = tools.RecallTool().Run(ctx, withUser(map[string]any{"query": "birthday"}))
	require.NoError(t, err)
	assert.Contains(t, out, "[tags: Birthday, personal_info]")
}

func TestRankMemories(t *testing.T) {
	memories := []*store.LongTermMemory{
		{Summary: "User once had a dog named Jocko", Tags: []string{"dog", "childhood"}},
		{Summary: "User's cat Memphis takes medication at 7pm", Tags: []string{"cat", "medication"}},
		{Summary: "User's dog walker comes on Fridays"},
	}

	ranked := RankMemories("dog", memories)
	require.Len(t, ranked, 2)
	assert.Equal(t, "User once had a dog named Jocko", ranked[0].Summary, "tag match outranks text match")

	assert.Empty(t, RankMemories("the", memories))
	assert.Empty(t, RankMemories("", memories))
}

func TestRankMemories_FoldsTagCase(t *testing.T) {
	memories := []*store.LongTermMemory{
		{Summary: "User once had a dog named Jocko", Tags: []string{"Childhood"}},
		{Summary: "User's cat Memphis takes medication at 7pm", Tags: []string{"Cat"}},
	}

	ranked := RankMemories("what about my CHILDHOOD", memories)
	require.Len(t, ranked, 1)
	assert.Equal(t, "User once had a dog named Jocko", ranked[0].Summary)
}
