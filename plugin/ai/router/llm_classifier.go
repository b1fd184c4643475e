package router

import (
	"context"
	"fmt"

	"github.com/hrygo/alfred/plugin/ai"
)

// ClassificationPrompt is the system instruction for label classification.
const ClassificationPrompt = `You are the dispatcher of a personal butler assistant.
Classify the user's latest message into exactly one category:

- memory: the user asks about something they told you before, personal facts, or asks you to remember something
- task: creating, listing or completing tasks, chores, reminders and to-dos
- weather: current weather, forecasts, temperature, rain or other conditions for a place
- general: anything else, including small talk and questions about the date

Respond with the single category word only.`

// LLMClassifier asks the model for a routing label.
type LLMClassifier struct {
	llm ai.LLMService
}

// NewLLMClassifier creates a new LLM classifier.
func NewLLMClassifier(llm ai.LLMService) *LLMClassifier {
	return &LLMClassifier{llm: llm}
}

// Classify returns the raw model answer for text.
func (c *LLMClassifier) Classify(ctx context.Context, text string) (string, error) {
	messages := []ai.Message{
		ai.SystemPrompt(ClassificationPrompt),
		ai.UserMessage(text),
	}
	resp, err := c.llm.Chat(ctx, messages, ai.WithTemperature(0))
	if err != nil {
		return "", fmt.Errorf("LLM classification failed: %w", err)
	}
	return resp, nil
}
