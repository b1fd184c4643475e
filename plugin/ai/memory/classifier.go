package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/alfred/plugin/ai"
)

// ErrMalformedClassification means the model reply was not a classification
// object. Callers treat it as do-not-save.
var ErrMalformedClassification = errors.New("malformed memory classification")

const classifierTemperature = 0.3

// Example is one worked case of the classification policy.
type Example struct {
	Message  string
	Response Classification
}

// Examples is the policy table the classifier prompt is built from.
// Factual disclosures are saved, transient requests are not, and task
// phrasing is allowed through.
var Examples = []Example{
	{
		Message:  "My cat's name is Memphis and he takes his medication every night at 7pm.",
		Response: Classification{Save: true, Summary: "User's cat Memphis takes medication at 7pm", Tags: []string{"cat", "medication", "schedule"}},
	},
	{
		Message:  "This should be saved to longterm memory, my house was built in 2017.",
		Response: Classification{Save: true, Summary: "User's house was built in 2017", Tags: []string{"house", "built"}},
	},
	{
		Message:  "Can you remember when I was a kid I had a dog named Jocko?",
		Response: Classification{Save: true, Summary: "User once had a dog named Jocko.", Tags: []string{"dog", "past-pet", "childhood"}},
	},
	{
		Message:  "What's the weather like today?",
		Response: Classification{Save: false, Summary: "", Tags: []string{}},
	},
	{
		Message:  "My birthday is September 10th.",
		Response: Classification{Save: true, Summary: "User's birthday is September 10th", Tags: []string{"birthday", "personal_info"}},
	},
	{
		Message:  "Turn off the lights in the living room.",
		Response: Classification{Save: false, Summary: "", Tags: []string{}},
	},
	{
		Message:  "Add a task to clean the bathroom every Friday",
		Response: Classification{Save: true, Summary: "", Tags: []string{}},
	},
}

// Classifier asks the model whether a message is worth remembering.
type Classifier struct {
	llm ai.LLMService
}

// NewClassifier creates a Classifier.
func NewClassifier(llm ai.LLMService) *Classifier {
	return &Classifier{llm: llm}
}

// Classify returns the decision for text.
func (c *Classifier) Classify(ctx context.Context, text string) (*Classification, error) {
	raw, err := c.llm.Chat(ctx,
		[]ai.Message{ai.UserMessage(classificationPrompt(text))},
		ai.WithTemperature(classifierTemperature),
		ai.WithJSONResponse(),
	)
	if err != nil {
		return nil, errors.Wrap(err, "memory classification")
	}
	return parseClassification(raw)
}

func parseClassification(raw string) (*Classification, error) {
	body := ai.StripCodeFence(raw)
	// Some models add prose around the object.
	if i, j := strings.Index(body, "{"), strings.LastIndex(body, "}"); i >= 0 && j > i {
		body = body[i : j+1]
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		slog.Warn("memory classifier returned non-JSON output", "output", raw)
		return nil, ErrMalformedClassification
	}
	if _, ok := fields["save"]; !ok {
		slog.Warn("memory classifier output has no save field", "output", raw)
		return nil, ErrMalformedClassification
	}

	var out Classification
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		slog.Warn("memory classifier output has wrong field types", "output", raw, "error", err)
		return nil, ErrMalformedClassification
	}
	out.Summary = strings.TrimSpace(out.Summary)
	return &out, nil
}

func classificationPrompt(text string) string {
	var b strings.Builder
	b.WriteString("You are a memory classification assistant. Determine whether the following message should be stored in long-term memory, tasks, or ignored.\n")
	b.WriteString(`Respond in JSON format: { "save": true/false, "summary": "...", "tags": [] }`)
	b.WriteString("\n\n")
	for _, ex := range Examples {
		resp, _ := json.Marshal(ex.Response)
		fmt.Fprintf(&b, "Message: %q\nResponse: %s\n", ex.Message, resp)
	}
	fmt.Fprintf(&b, "\nMessage: %q\nResponse:", text)
	return b.String()
}
