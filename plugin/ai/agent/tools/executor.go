// Package tools provides the assistant's tools and resilient tool execution.
// This package implements retry logic, fallback strategies, and metrics reporting.
package tools

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/hrygo/alfred/plugin/ai/metrics"
	"github.com/hrygo/alfred/plugin/ai/timeout"
)

// Tool defines the interface for executable tools.
type Tool interface {
	// Name returns the tool's identifier.
	Name() string
	// Run executes the tool with decoded JSON arguments.
	Run(ctx context.Context, args map[string]any) (string, error)
}

// ErrTransient marks an error as safe to retry.
var ErrTransient = errors.New("transient error")

// ResilientToolExecutor provides retry and fallback capabilities for tool execution.
type ResilientToolExecutor struct {
	maxRetries     int
	retryDelay     time.Duration
	timeout        time.Duration
	metricsService metrics.MetricsService
	fallbackRules  map[string]FallbackFunc
}

// ExecutorOption configures a ResilientToolExecutor.
type ExecutorOption func(*ResilientToolExecutor)

// WithMaxRetries sets the maximum number of retry attempts.
func WithMaxRetries(n int) ExecutorOption {
	return func(e *ResilientToolExecutor) {
		e.maxRetries = n
	}
}

// WithRetryDelay sets the delay between retry attempts.
func WithRetryDelay(d time.Duration) ExecutorOption {
	return func(e *ResilientToolExecutor) {
		e.retryDelay = d
	}
}

// WithTimeout sets the timeout for each execution attempt.
func WithTimeout(d time.Duration) ExecutorOption {
	return func(e *ResilientToolExecutor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithFallbackRules sets custom fallback rules.
// The rules map is copied to avoid concurrent modification issues.
func WithFallbackRules(rules map[string]FallbackFunc) ExecutorOption {
	return func(e *ResilientToolExecutor) {
		e.fallbackRules = copyFallbackRules(rules)
	}
}

// copyFallbackRules creates a copy of the fallback rules map.
func copyFallbackRules(src map[string]FallbackFunc) map[string]FallbackFunc {
	if src == nil {
		return nil
	}
	dst := make(map[string]FallbackFunc, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// NewResilientToolExecutor creates a new ResilientToolExecutor with the given options.
// metricsService may be nil.
func NewResilientToolExecutor(metricsService metrics.MetricsService, opts ...ExecutorOption) *ResilientToolExecutor {
	e := &ResilientToolExecutor{
		maxRetries:     1,
		retryDelay:     300 * time.Millisecond,
		timeout:        timeout.ToolExecutionTimeout,
		metricsService: metricsService,
		fallbackRules:  copyFallbackRules(DefaultFallbackRules),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Timeout returns the per-attempt timeout.
func (e *ResilientToolExecutor) Timeout() time.Duration {
	return e.timeout
}

// Execute runs the tool with retry and fallback support.
// It attempts to execute the tool, retrying on transient errors. When all
// attempts fail, the error is returned together with the fallback text, if a
// rule exists for the tool. Timeouts and cancellation never use a fallback.
func (e *ResilientToolExecutor) Execute(ctx context.Context, tool Tool, args map[string]any) (string, error) {
	start := time.Now()
	var lastErr error
	toolName := tool.Name()

attemptsLoop:
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		// Check if context is already cancelled
		if ctx.Err() != nil {
			lastErr = ctx.Err()
			break attemptsLoop
		}

		// Create timeout context for this attempt
		execCtx, cancel := context.WithTimeout(ctx, e.timeout)
		output, err := tool.Run(execCtx, args)
		if err == nil && execCtx.Err() != nil {
			// The tool ignored its deadline.
			err = execCtx.Err()
		}
		cancel()

		if err == nil {
			e.recordMetrics(ctx, toolName, time.Since(start), true)
			slog.Debug("tool execution succeeded",
				slog.String("tool", toolName),
				slog.Int("attempt", attempt+1),
				slog.Duration("duration", time.Since(start)))
			return output, nil
		}

		lastErr = err
		slog.Warn("tool execution failed",
			slog.String("tool", toolName),
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()))

		if !e.isRetryable(err) {
			break attemptsLoop
		}

		// Wait before next retry (except on last attempt)
		if attempt < e.maxRetries {
			select {
			case <-ctx.Done():
				lastErr = ctx.Err()
				break attemptsLoop
			case <-time.After(e.retryDelay):
			}
		}
	}

	e.recordMetrics(ctx, toolName, time.Since(start), false)

	if errors.Is(lastErr, context.DeadlineExceeded) || errors.Is(lastErr, context.Canceled) {
		return "", lastErr
	}

	if fallback, ok := e.fallbackRules[toolName]; ok {
		slog.Info("executing fallback strategy",
			slog.String("tool", toolName))
		return fallback(ctx, toolName, args, lastErr), lastErr
	}

	return "", lastErr
}

// isRetryable determines if an error should trigger a retry.
// Deadline errors are not retried: a slow dependency stays slow.
func (e *ResilientToolExecutor) isRetryable(err error) bool {
	if err == nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, ErrTransient) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && !netErr.Timeout() {
		return true
	}

	errMsg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection refused",
		"connection reset",
		"unavailable",
		"temporary",
		"too many requests",
		"rate limit",
		"status 429",
		"status 500",
		"status 502",
		"status 503",
		"status 504",
		"eof",
	}
	for _, pattern := range transientPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}

	return false
}

// recordMetrics records tool execution metrics.
func (e *ResilientToolExecutor) recordMetrics(ctx context.Context, toolName string, duration time.Duration, success bool) {
	if e.metricsService != nil {
		e.metricsService.RecordToolCall(ctx, toolName, duration, success)
	}
}
