package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/alfred/internal/profile"
)

func TestNewConfigFromProfile(t *testing.T) {
	prof := &profile.Profile{
		LLMProvider:    "deepseek",
		LLMModel:       "deepseek-chat",
		LLMAPIKey:      "deepseek-key",
		LLMBaseURL:     "https://api.deepseek.com",
		LLMTemperature: 0.5,
	}

	cfg := NewConfigFromProfile(prof)

	assert.Equal(t, "deepseek", cfg.Provider)
	assert.Equal(t, "deepseek-chat", cfg.Model)
	assert.Equal(t, "deepseek-key", cfg.APIKey)
	assert.Equal(t, "https://api.deepseek.com", cfg.BaseURL)
	assert.Equal(t, 1024, cfg.MaxTokens)
	assert.InDelta(t, 0.5, cfg.Temperature, 0.0001)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     LLMConfig
		wantErr bool
	}{
		{"openai with key", LLMConfig{Provider: "openai", Model: "gpt-4o-mini", APIKey: "k"}, false},
		{"ollama without key", LLMConfig{Provider: "ollama", Model: "llama3"}, false},
		{"openai without key", LLMConfig{Provider: "openai", Model: "gpt-4o-mini"}, true},
		{"missing provider", LLMConfig{Model: "gpt-4o-mini", APIKey: "k"}, true},
		{"unknown provider", LLMConfig{Provider: "acme", Model: "m", APIKey: "k"}, true},
		{"missing model", LLMConfig{Provider: "openai", APIKey: "k"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
