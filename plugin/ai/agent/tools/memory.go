package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/hrygo/alfred/plugin/ai"
	"github.com/hrygo/alfred/store"
)

// Memory tool replies.
const (
	NoMemoriesText   = "No long-term memories found."
	MemorySavedText  = "Memory saved successfully"
	recallMatchLimit = 5
	recallLoadLimit  = 200
)

// MemoryStore is the persistence contract the memory tools need.
type MemoryStore interface {
	CreateLongTermMemory(ctx context.Context, create *store.LongTermMemory) (*store.LongTermMemory, error)
	ListLongTermMemories(ctx context.Context, find *store.FindLongTermMemory) ([]*store.LongTermMemory, error)
}

// MemoryTools groups the long-term memory tools.
type MemoryTools struct {
	store MemoryStore
}

// NewMemoryTools creates the memory tools.
func NewMemoryTools(s MemoryStore) *MemoryTools {
	return &MemoryTools{store: s}
}

// All returns every memory tool.
func (m *MemoryTools) All() []*NativeTool {
	return []*NativeTool{m.RecallTool(), m.SaveTool()}
}

// RecallTool searches the user's memories by keyword.
func (m *MemoryTools) RecallTool() *NativeTool {
	return NewNativeTool(
		ToolRecallMemories,
		"Search what the user has told you before: facts, preferences, pets, family, dates.",
		map[string]any{
			"query": stringProp("What to look for, e.g. 'cat name'"),
		},
		nil,
		m.recall,
	)
}

func (m *MemoryTools) recall(ctx context.Context, args map[string]any) (string, error) {
	userID := argString(args, argUserID)
	memories, err := m.store.ListLongTermMemories(ctx, &store.FindLongTermMemory{UserID: &userID, Limit: recallLoadLimit})
	if err != nil {
		return "", fmt.Errorf("failed to load memories: %w", err)
	}
	if len(memories) == 0 {
		return NoMemoriesText, nil
	}

	matches := RankMemories(argString(args, "query"), memories)
	if len(matches) == 0 {
		// Nothing overlaps the query; the newest entries are the best context.
		matches = memories
	}
	if len(matches) > recallMatchLimit {
		matches = matches[:recallMatchLimit]
	}
	return formatMemories(matches), nil
}

type scoredMemory struct {
	memory *store.LongTermMemory
	score  int
	index  int
}

// RankMemories returns the memories sharing at least one keyword with query,
// best first. Ties keep the input order, which is newest first.
func RankMemories(query string, memories []*store.LongTermMemory) []*store.LongTermMemory {
	terms := keywords(query)
	if len(terms) == 0 {
		return nil
	}

	scored := make([]scoredMemory, 0, len(memories))
	for i, mem := range memories {
		words := map[string]bool{}
		for _, w := range keywords(mem.Summary + " " + mem.Content) {
			words[w] = true
		}
		tags := map[string]bool{}
		for _, tag := range mem.Tags {
			for _, w := range keywords(tag) {
				tags[w] = true
			}
		}

		score := 0
		for _, term := range terms {
			if tags[term] {
				score += 2
			}
			if words[term] {
				score++
			}
		}
		if score > 0 {
			scored = append(scored, scoredMemory{memory: mem, score: score, index: i})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	out := make([]*store.LongTermMemory, len(scored))
	for i, s := range scored {
		out[i] = s.memory
	}
	return out
}

var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "is": true, "are": true, "was": true, "what": true, "whats": true,
	"my": true, "me": true, "i": true, "do": true, "does": true, "did": true, "you": true, "your": true,
	"of": true, "to": true, "in": true, "on": true, "for": true, "and": true, "or": true, "s": true,
	"remember": true, "know": true, "tell": true, "about": true, "when": true, "who": true, "where": true,
	"how": true, "user": true, "users": true, "have": true, "has": true, "name": true, "named": true,
}

// keywords lower-cases text and drops punctuation, stop words and plural s.
func keywords(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if stopWords[f] {
			continue
		}
		if len(f) > 3 && strings.HasSuffix(f, "s") && !strings.HasSuffix(f, "ss") {
			f = strings.TrimSuffix(f, "s")
		}
		out = append(out, f)
	}
	return out
}

func formatMemories(list []*store.LongTermMemory) string {
	var b strings.Builder
	b.WriteString("Relevant memories:\n")
	for _, mem := range list {
		summary := mem.Summary
		if summary == "" {
			summary = mem.Content
		}
		fmt.Fprintf(&b, "- %s (saved %s)", summary, mem.Timestamp.Format("2006-01-02"))
		if mem.Summary != "" && mem.Content != "" && mem.Content != mem.Summary {
			fmt.Fprintf(&b, ": %s", mem.Content)
		}
		if len(mem.Tags) > 0 {
			fmt.Fprintf(&b, " [tags: %s]", strings.Join(mem.Tags, ", "))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// SaveTool stores an explicit long-term memory.
func (m *MemoryTools) SaveTool() *NativeTool {
	return NewNativeTool(
		ToolSaveMemory,
		"Save a long-term memory when the user asks you to remember something.",
		map[string]any{
			"content": stringProp("The full statement to remember"),
			"summary": stringProp("One short sentence summarizing it"),
			"tags": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "A few short keywords",
			},
		},
		[]string{"content"},
		m.save,
	)
}

func (m *MemoryTools) save(ctx context.Context, args map[string]any) (string, error) {
	content := argString(args, "content")
	summary := argString(args, "summary")
	if summary == "" {
		summary = content
	}
	_, err := m.store.CreateLongTermMemory(ctx, &store.LongTermMemory{
		UserID:  argString(args, argUserID),
		Content: content,
		Summary: summary,
		Tags:    ai.DedupTags(argStrings(args, "tags")),
	})
	if err != nil {
		return "", fmt.Errorf("failed to save memory: %w", err)
	}
	return MemorySavedText, nil
}
