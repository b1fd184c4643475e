package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	// MinStepBudget and MaxStepBudget bound the tool-loop ceiling.
	MinStepBudget     = 4
	MaxStepBudget     = 8
	DefaultStepBudget = 6
)

// Profile is the configuration to start main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where alfred stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string

	// LLM configuration
	LLMProvider    string  // ALFRED_LLM_PROVIDER (default: openai)
	LLMModel       string  // ALFRED_LLM_MODEL (default: gpt-4o-mini)
	LLMAPIKey      string  // ALFRED_LLM_API_KEY (legacy: OPENAI_API_KEY)
	LLMBaseURL     string  // ALFRED_LLM_BASE_URL
	LLMTemperature float32 // ALFRED_LLM_TEMPERATURE (default: 0.7)
	LLMMaxTokens   int     // ALFRED_LLM_MAX_TOKENS (default: 1024)

	// Weather configuration
	OpenCageAPIKey    string // ALFRED_OPENCAGE_API_KEY (legacy: OPENCAGE_API_KEY)
	OpenWeatherAPIKey string // ALFRED_OPENWEATHER_API_KEY (legacy: OPENWEATHER_API_KEY)
	DefaultLocation   string // ALFRED_LOCATION (legacy: LOCATION)

	// Orchestration
	Timezone          string        // ALFRED_TIMEZONE (default: Local)
	StepBudget        int           // ALFRED_STEP_BUDGET (default: 6, clamped to [4, 8])
	ToolTimeout       time.Duration // ALFRED_TOOL_TIMEOUT (default: 15s)
	BackgroundWorkers int           // ALFRED_BACKGROUND_WORKERS (default: 4)
	HistoryWindow     int           // ALFRED_HISTORY_WINDOW (default: 8)
	RateLimitPerSec   float64       // ALFRED_RATE_LIMIT (default: 2 req/s per user)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsLLMConfigured returns true if the LLM can be reached.
func (p *Profile) IsLLMConfigured() bool {
	return p.LLMAPIKey != "" || p.LLMProvider == "ollama"
}

// IsWeatherConfigured returns true if both weather API keys are set.
func (p *Profile) IsWeatherConfigured() bool {
	return p.OpenCageAPIKey != "" && p.OpenWeatherAPIKey != ""
}

// getEnvWithDefault returns the first non-empty variable among keys, or defaultValue.
func getEnvWithDefault(defaultValue string, keys ...string) string {
	for _, key := range keys {
		if val := os.Getenv(key); val != "" {
			return val
		}
	}
	return defaultValue
}

func getIntEnv(defaultValue int, keys ...string) int {
	raw := getEnvWithDefault("", keys...)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("invalid integer env value, using default", slog.String("key", keys[0]), slog.String("value", raw))
		return defaultValue
	}
	return v
}

func getFloatEnv(defaultValue float64, keys ...string) float64 {
	raw := getEnvWithDefault("", keys...)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		slog.Warn("invalid float env value, using default", slog.String("key", keys[0]), slog.String("value", raw))
		return defaultValue
	}
	return v
}

// FromEnv loads LLM, weather and orchestration settings from environment variables.
// Supports both ALFRED_* and the bare legacy names.
func (p *Profile) FromEnv() {
	p.LLMProvider = getEnvWithDefault("openai", "ALFRED_LLM_PROVIDER")
	p.LLMModel = getEnvWithDefault("gpt-4o-mini", "ALFRED_LLM_MODEL")
	p.LLMAPIKey = getEnvWithDefault("", "ALFRED_LLM_API_KEY", "OPENAI_API_KEY")
	p.LLMBaseURL = getEnvWithDefault("", "ALFRED_LLM_BASE_URL")
	p.LLMTemperature = float32(getFloatEnv(0.7, "ALFRED_LLM_TEMPERATURE"))
	p.LLMMaxTokens = getIntEnv(1024, "ALFRED_LLM_MAX_TOKENS")

	p.OpenCageAPIKey = getEnvWithDefault("", "ALFRED_OPENCAGE_API_KEY", "OPENCAGE_API_KEY")
	p.OpenWeatherAPIKey = getEnvWithDefault("", "ALFRED_OPENWEATHER_API_KEY", "OPENWEATHER_API_KEY")
	p.DefaultLocation = getEnvWithDefault("", "ALFRED_LOCATION", "LOCATION")

	p.Timezone = getEnvWithDefault("Local", "ALFRED_TIMEZONE", "TZ")
	p.StepBudget = getIntEnv(DefaultStepBudget, "ALFRED_STEP_BUDGET")
	p.ToolTimeout = time.Duration(getIntEnv(15, "ALFRED_TOOL_TIMEOUT")) * time.Second
	p.BackgroundWorkers = getIntEnv(4, "ALFRED_BACKGROUND_WORKERS")
	p.HistoryWindow = getIntEnv(8, "ALFRED_HISTORY_WINDOW")
	p.RateLimitPerSec = getFloatEnv(2, "ALFRED_RATE_LIMIT")
}

// Location resolves the configured timezone, falling back to time.Local.
func (p *Profile) Location() *time.Location {
	if p.Timezone == "" || p.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		slog.Warn("invalid timezone, using local", slog.String("timezone", p.Timezone))
		return time.Local
	}
	return loc
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		absDir, err := filepath.Abs(dataDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "alfred")
		} else {
			p.Data = "/var/opt/alfred"
		}
		if _, err := os.Stat(p.Data); os.IsNotExist(err) {
			if err := os.MkdirAll(p.Data, 0770); err != nil {
				slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
				return err
			}
		}
	}
	if p.Data == "" {
		p.Data = "."
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check dsn", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}
	p.Data = dataDir

	if p.Driver == "" {
		p.Driver = "sqlite"
	}
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("alfred_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("dsn is required for the postgres driver")
	}

	if p.StepBudget == 0 {
		p.StepBudget = DefaultStepBudget
	}
	p.StepBudget = ClampStepBudget(p.StepBudget)
	if p.ToolTimeout <= 0 {
		p.ToolTimeout = 15 * time.Second
	}
	if p.BackgroundWorkers <= 0 {
		p.BackgroundWorkers = 4
	}
	if p.HistoryWindow <= 0 {
		p.HistoryWindow = 8
	}
	return nil
}

// ClampStepBudget forces n into [MinStepBudget, MaxStepBudget].
func ClampStepBudget(n int) int {
	if n < MinStepBudget {
		return MinStepBudget
	}
	if n > MaxStepBudget {
		return MaxStepBudget
	}
	return n
}
