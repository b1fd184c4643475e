// Package timeout defines centralized timeout constants for AI operations.
package timeout

import "time"

// AI operation timeout constants.
const (
	// RequestTimeout bounds a whole chat request, routing and tool loop included.
	RequestTimeout = 2 * time.Minute

	// LLMCallTimeout is the timeout for a single model call.
	LLMCallTimeout = 60 * time.Second

	// RouterTimeout is the timeout for route classification.
	RouterTimeout = 20 * time.Second

	// ToolExecutionTimeout is the default timeout for individual tool execution.
	ToolExecutionTimeout = 15 * time.Second

	// BackgroundTaskTimeout bounds each detached post-response job.
	BackgroundTaskTimeout = 45 * time.Second

	// ShutdownDrainTimeout is how long shutdown waits for background jobs.
	ShutdownDrainTimeout = 30 * time.Second

	// MaxTruncateLength is the maximum length for truncating strings in logs.
	MaxTruncateLength = 200
)
