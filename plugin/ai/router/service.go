package router

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hrygo/alfred/plugin/ai"
	"github.com/hrygo/alfred/plugin/ai/timeout"
)

// Service implements Router.
// Layer 1: LLM classification
// Layer 2: keyword rules, used only when the model call fails
type Service struct {
	llmClassifier *LLMClassifier
	ruleMatcher   *RuleMatcher
	timeout       time.Duration
}

// NewService creates a new router service. A nil llm routes by rules only.
func NewService(llm ai.LLMService) *Service {
	s := &Service{
		ruleMatcher: NewRuleMatcher(),
		timeout:     timeout.RouterTimeout,
	}
	if llm != nil {
		s.llmClassifier = NewLLMClassifier(llm)
	}
	return s
}

// Route classifies the lower-cased latest user message.
func (s *Service) Route(ctx context.Context, latestUserText string) (Label, error) {
	start := time.Now()
	input := strings.ToLower(strings.TrimSpace(latestUserText))

	if s.llmClassifier == nil {
		label := s.ruleMatcher.Route(input)
		slog.Debug("message routed by rule matcher",
			"input", ai.Truncate(input, 50),
			"label", label)
		return label, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.llmClassifier.Classify(callCtx, input)
	if err != nil {
		label := s.ruleMatcher.Route(input)
		slog.Warn("LLM router unavailable, using rule matcher",
			"input", ai.Truncate(input, 50),
			"label", label,
			"error", err)
		return label, fmt.Errorf("route degraded to rules: %w", err)
	}

	label, err := ParseLabel(raw)
	if err != nil {
		slog.Warn("router returned unrecognized label",
			"raw", ai.Truncate(raw, 50),
			"fallback", label)
		return label, err
	}

	slog.Debug("message routed by LLM",
		"input", ai.Truncate(input, 50),
		"label", label,
		"latency_ms", time.Since(start).Milliseconds())
	return label, nil
}

// Ensure Service implements Router
var _ Router = (*Service)(nil)
