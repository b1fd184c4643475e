package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestContext(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	rc := NewRequestContext(logger, "bruce", "s1")
	_, err := uuid.Parse(rc.RequestID)
	require.NoError(t, err)

	rc.Route = "task"
	rc.Error("chat failed", errors.New("boom"), slog.Int(LogFieldMessageLen, 5))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, rc.RequestID, entry[LogFieldRequestID])
	assert.Equal(t, "bruce", entry[LogFieldUserID])
	assert.Equal(t, "s1", entry[LogFieldSessionID])
	assert.Equal(t, "task", entry[LogFieldRoute])
	assert.Equal(t, "boom", entry["error"])
	assert.EqualValues(t, 5, entry[LogFieldMessageLen])
}

func TestContextRoundTrip(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	rc := NewRequestContextWithID(nil, "req-1", "bruce", "s1")
	got, ok := FromContext(WithRequestContext(context.Background(), rc))
	require.True(t, ok)
	assert.Same(t, rc, got)
	assert.NotNil(t, got.Logger)
}
