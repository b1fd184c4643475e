// Package aitime provides natural-language date parsing for the assistant's tools.
package aitime

import (
	"context"
	"time"
)

// TimeService defines the time parsing service interface.
type TimeService interface {
	// Normalize resolves a natural-language date or time expression.
	// Supports: "tomorrow", "every monday", "in 3 days", "2026-01-28", "friday at 7pm"
	Normalize(ctx context.Context, input string) (time.Time, error)

	// Now returns the current time in the service timezone.
	Now() time.Time

	// Location returns the service timezone.
	Location() *time.Location
}

// Output layouts.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04"
)
