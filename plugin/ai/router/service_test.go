package router

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/alfred/plugin/ai"
)

func TestParseLabel(t *testing.T) {
	tests := []struct {
		raw     string
		want    Label
		wantErr bool
	}{
		{"task", LabelTask, false},
		{"  Weather\n", LabelWeather, false},
		{`"memory"`, LabelMemory, false},
		{"general.", LabelGeneral, false},
		{"task_node", LabelTask, false},
		{"alfred_node", LabelGeneral, false},
		{"Label: weather", LabelWeather, false},
		{"calendar", LabelGeneral, true},
		{"", LabelGeneral, true},
		{"task or weather", LabelGeneral, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseLabel(tt.raw)
			assert.Equal(t, tt.want, got)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnrecognizedLabel)
			} else {
				assert.NoError(t, err)
			}
			assert.True(t, got.IsValid())
		})
	}
}

func TestRuleMatcher(t *testing.T) {
	matcher := NewRuleMatcher()

	tests := []struct {
		input       string
		want        Label
		shouldMatch bool
	}{
		{"What's the weather like today?", LabelWeather, true},
		{"Will it rain tomorrow in Denver?", LabelWeather, true},
		{"Remind me to water the plants every Monday", LabelTask, true},
		{"Mark the lawn task done", LabelTask, true},
		{"What's my cat's name?", LabelMemory, true},
		{"Do you remember my birthday?", LabelMemory, true},
		{"Good evening, Alfred", LabelGeneral, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			label, confidence, matched := matcher.Match(tt.input)
			assert.Equal(t, tt.shouldMatch, matched)
			assert.Equal(t, tt.want, label)
			if matched {
				assert.Greater(t, confidence, float32(0))
			}
		})
	}
}

func TestServiceRoute_LLM(t *testing.T) {
	llm := new(ai.MockLLM)
	llm.On("Chat", mock.Anything, mock.MatchedBy(func(msgs []ai.Message) bool {
		return len(msgs) == 2 && msgs[1].Content == "remind me to water the plants every monday"
	})).Return("task", nil).Once()

	svc := NewService(llm)
	label, err := svc.Route(context.Background(), "Remind me to water the plants every Monday")

	require.NoError(t, err)
	assert.Equal(t, LabelTask, label)
	llm.AssertExpectations(t)
}

func TestServiceRoute_UnrecognizedLabel(t *testing.T) {
	llm := new(ai.MockLLM)
	llm.On("Chat", mock.Anything, mock.Anything).Return("calendar_node", nil).Once()

	svc := NewService(llm)
	label, err := svc.Route(context.Background(), "Is anything on for tomorrow?")

	assert.ErrorIs(t, err, ErrUnrecognizedLabel)
	assert.Equal(t, LabelGeneral, label)
}

func TestServiceRoute_LLMFailureFallsBackToRules(t *testing.T) {
	llm := new(ai.MockLLM)
	llm.On("Chat", mock.Anything, mock.Anything).Return("", errors.New("connection refused")).Once()

	svc := NewService(llm)
	label, err := svc.Route(context.Background(), "What's the forecast for Chicago?")

	assert.Error(t, err)
	assert.Equal(t, LabelWeather, label)
}

func TestServiceRoute_NoLLM(t *testing.T) {
	svc := NewService(nil)
	label, err := svc.Route(context.Background(), "hello there")

	require.NoError(t, err)
	assert.Equal(t, LabelGeneral, label)
}

// TestServiceRoute_AlwaysInSet checks the label set property over arbitrary model output.
func TestServiceRoute_AlwaysInSet(t *testing.T) {
	outputs := []string{"task", "WEATHER", "", "???", "memory_node", "I think it's general", "ÿ\x00", "tasks please"}

	for _, out := range outputs {
		llm := new(ai.MockLLM)
		llm.On("Chat", mock.Anything, mock.Anything).Return(out, nil)

		label, _ := NewService(llm).Route(context.Background(), "anything")
		assert.True(t, label.IsValid(), "output %q produced %q", out, label)
	}
}

func TestMockRouter(t *testing.T) {
	m := NewMockRouter()
	m.Overrides["hi"] = LabelMemory

	label, err := m.Route(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, LabelMemory, label)

	label, _ = m.Route(context.Background(), "weather in Paris")
	assert.Equal(t, LabelWeather, label)
}
