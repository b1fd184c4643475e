package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hrygo/alfred/plugin/ai"
	"github.com/hrygo/alfred/plugin/ai/timeout"
	"github.com/hrygo/alfred/store"
)

// TaskResolver maps a natural-language task reference to a single task id.
// When the match is not unambiguous it reports no match.
type TaskResolver struct {
	llm ai.LLMService
}

// NewTaskResolver creates a resolver backed by llm.
func NewTaskResolver(llm ai.LLMService) *TaskResolver {
	return &TaskResolver{llm: llm}
}

const resolverPrompt = `You match a user's request to exactly one task from their task list.
Respond in JSON format: {"task_id": <id or null>, "confident": true/false}
Set confident to true only when exactly one task clearly matches the request.
If several tasks could match, or none does, respond {"task_id": null, "confident": false}.`

type resolution struct {
	TaskID    *int64 `json:"task_id"`
	Confident bool   `json:"confident"`
}

// Resolve returns the id of the task that query refers to. matched is false
// for an empty list, an ambiguous answer, an id outside tasks, or malformed
// model output; err is informational only.
func (r *TaskResolver) Resolve(ctx context.Context, query string, tasks []*store.Task) (int64, bool, error) {
	if len(tasks) == 0 || strings.TrimSpace(query) == "" {
		return 0, false, nil
	}

	var list strings.Builder
	known := make(map[int64]bool, len(tasks))
	for _, t := range tasks {
		known[t.ID] = true
		due := "none"
		if t.DueDate != nil {
			due = *t.DueDate
		}
		fmt.Fprintf(&list, "- id %d: %s (category: %s, due: %s)\n", t.ID, t.Task, t.Category, due)
	}

	messages := []ai.Message{
		ai.SystemPrompt(resolverPrompt),
		ai.UserMessage(fmt.Sprintf("Tasks:\n%s\nRequest: %s", list.String(), query)),
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout.LLMCallTimeout)
	defer cancel()
	raw, err := r.llm.Chat(callCtx, messages, ai.WithTemperature(0), ai.WithJSONResponse())
	if err != nil {
		return 0, false, fmt.Errorf("task resolution call failed: %w", err)
	}

	var res resolution
	if err := json.Unmarshal([]byte(ai.StripCodeFence(raw)), &res); err != nil {
		return 0, false, fmt.Errorf("malformed task resolution %q: %w", ai.Truncate(raw, timeout.MaxTruncateLength), err)
	}
	if !res.Confident || res.TaskID == nil {
		return 0, false, nil
	}
	if !known[*res.TaskID] {
		slog.Warn("resolver picked a task outside the list", "task_id", *res.TaskID)
		return 0, false, nil
	}
	return *res.TaskID, true, nil
}
