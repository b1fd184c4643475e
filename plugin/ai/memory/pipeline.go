package memory

import (
	"context"
	"log/slog"
	"strings"

	"github.com/hrygo/alfred/plugin/ai"
	"github.com/hrygo/alfred/store"
)

// Pipeline evaluates user messages in the background and stores the ones
// the classifier keeps. Entries are appended; repeats are not merged.
type Pipeline struct {
	classifier *Classifier
	writer     Writer
	pool       Submitter
}

// NewPipeline creates a Pipeline.
func NewPipeline(classifier *Classifier, writer Writer, pool Submitter) *Pipeline {
	return &Pipeline{classifier: classifier, writer: writer, pool: pool}
}

// Evaluate schedules classification of text for userID and returns at once.
// Failures are logged, never returned.
func (p *Pipeline) Evaluate(ctx context.Context, userID, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	err := p.pool.SubmitContext(ctx, "memory.evaluate", func(ctx context.Context) error {
		p.evaluate(ctx, userID, text)
		return nil
	})
	if err != nil {
		slog.Warn("memory evaluation not scheduled", "user_id", userID, "error", err)
	}
}

// evaluate runs synchronously and reports whether a memory was written.
func (p *Pipeline) evaluate(ctx context.Context, userID, text string) bool {
	decision, err := p.classifier.Classify(ctx, text)
	if err != nil {
		slog.Warn("memory classification failed, not saving",
			"user_id", userID,
			"error", err)
		return false
	}
	if !decision.Save {
		return false
	}

	summary := decision.Summary
	if summary == "" {
		summary = text
	}
	saved, err := p.writer.CreateLongTermMemory(ctx, &store.LongTermMemory{
		UserID:  userID,
		Content: text,
		Summary: summary,
		Tags:    ai.DedupTags(decision.Tags),
	})
	if err != nil {
		slog.Warn("failed to save long-term memory",
			"user_id", userID,
			"error", err)
		return false
	}
	slog.Info("long-term memory saved",
		"user_id", userID,
		"memory_id", saved.ID,
		"tags", saved.Tags)
	return true
}
