// Package memory decides, per user message, whether to keep a long-term
// memory record, and writes it off the request path.
package memory

import (
	"context"

	"github.com/hrygo/alfred/store"
)

// Writer persists long-term memories. *store.Store satisfies it.
type Writer interface {
	CreateLongTermMemory(ctx context.Context, create *store.LongTermMemory) (*store.LongTermMemory, error)
}

// Submitter schedules background work. *background.Pool satisfies it.
type Submitter interface {
	SubmitContext(ctx context.Context, name string, fn func(ctx context.Context) error) error
}

// Classification is the classifier's decision for one message.
type Classification struct {
	Save    bool     `json:"save"`
	Summary string   `json:"summary"`
	Tags    []string `json:"tags"`
}
