package profile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"ALFRED_LLM_PROVIDER", "ALFRED_LLM_MODEL", "ALFRED_LLM_API_KEY", "OPENAI_API_KEY",
	"ALFRED_LLM_BASE_URL", "ALFRED_LLM_TEMPERATURE", "ALFRED_LLM_MAX_TOKENS",
	"ALFRED_OPENCAGE_API_KEY", "OPENCAGE_API_KEY", "ALFRED_OPENWEATHER_API_KEY", "OPENWEATHER_API_KEY",
	"ALFRED_LOCATION", "LOCATION", "ALFRED_TIMEZONE", "TZ", "ALFRED_STEP_BUDGET", "ALFRED_TOOL_TIMEOUT",
	"ALFRED_BACKGROUND_WORKERS", "ALFRED_HISTORY_WINDOW", "ALFRED_RATE_LIMIT",
}

// clearEnv blanks every variable FromEnv reads for the duration of the test.
func clearEnv(t *testing.T) {
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func TestProfileDefaults(t *testing.T) {
	clearEnv(t)

	p := &Profile{}
	p.FromEnv()

	assert.Equal(t, "openai", p.LLMProvider)
	assert.Equal(t, "gpt-4o-mini", p.LLMModel)
	assert.InDelta(t, 0.7, p.LLMTemperature, 0.0001)
	assert.Equal(t, 1024, p.LLMMaxTokens)
	assert.Equal(t, "Local", p.Timezone)
	assert.Equal(t, DefaultStepBudget, p.StepBudget)
	assert.Equal(t, 15*time.Second, p.ToolTimeout)
	assert.Equal(t, 4, p.BackgroundWorkers)
	assert.Equal(t, 8, p.HistoryWindow)
	assert.False(t, p.IsLLMConfigured())
	assert.False(t, p.IsWeatherConfigured())
}

func TestProfileFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		envVar   string
		envValue string
		field    func(*Profile) any
		expected any
	}{
		{"legacy OpenAI key", "OPENAI_API_KEY", "sk-legacy", func(p *Profile) any { return p.LLMAPIKey }, "sk-legacy"},
		{"prefixed LLM key", "ALFRED_LLM_API_KEY", "sk-new", func(p *Profile) any { return p.LLMAPIKey }, "sk-new"},
		{"legacy location", "LOCATION", "Denver", func(p *Profile) any { return p.DefaultLocation }, "Denver"},
		{"step budget", "ALFRED_STEP_BUDGET", "5", func(p *Profile) any { return p.StepBudget }, 5},
		{"tool timeout seconds", "ALFRED_TOOL_TIMEOUT", "3", func(p *Profile) any { return p.ToolTimeout }, 3 * time.Second},
		{"invalid int keeps default", "ALFRED_BACKGROUND_WORKERS", "many", func(p *Profile) any { return p.BackgroundWorkers }, 4},
		{"rate limit", "ALFRED_RATE_LIMIT", "0.5", func(p *Profile) any { return p.RateLimitPerSec }, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.envVar, tt.envValue)

			p := &Profile{}
			p.FromEnv()
			assert.Equal(t, tt.expected, tt.field(p))
		})
	}
}

func TestProfileValidate(t *testing.T) {
	t.Run("sqlite DSN derived from data dir", func(t *testing.T) {
		dir := t.TempDir()
		p := &Profile{Mode: "dev", Data: dir, Driver: "sqlite"}
		require.NoError(t, p.Validate())
		assert.Equal(t, filepath.Join(dir, "alfred_dev.db"), p.DSN)
	})

	t.Run("unknown mode becomes demo", func(t *testing.T) {
		p := &Profile{Mode: "weird", Data: t.TempDir()}
		require.NoError(t, p.Validate())
		assert.Equal(t, "demo", p.Mode)
		assert.Equal(t, "sqlite", p.Driver)
	})

	t.Run("postgres requires DSN", func(t *testing.T) {
		p := &Profile{Mode: "dev", Data: t.TempDir(), Driver: "postgres"}
		assert.Error(t, p.Validate())
	})

	t.Run("missing data dir", func(t *testing.T) {
		p := &Profile{Mode: "dev", Data: filepath.Join(os.TempDir(), "alfred-does-not-exist-xyz")}
		assert.Error(t, p.Validate())
	})

	t.Run("step budget clamped", func(t *testing.T) {
		p := &Profile{Mode: "dev", Data: t.TempDir(), StepBudget: 50}
		require.NoError(t, p.Validate())
		assert.Equal(t, MaxStepBudget, p.StepBudget)

		p = &Profile{Mode: "dev", Data: t.TempDir(), StepBudget: 1}
		require.NoError(t, p.Validate())
		assert.Equal(t, MinStepBudget, p.StepBudget)
	})
}

func TestProfileLocation(t *testing.T) {
	assert.Equal(t, time.Local, (&Profile{Timezone: "Local"}).Location())
	assert.Equal(t, time.Local, (&Profile{Timezone: "Not/AZone"}).Location())
	assert.Equal(t, "UTC", (&Profile{Timezone: "UTC"}).Location().String())
}
