package store

import (
	"strings"
	"time"
)

// Recurrence is how often a task repeats.
type Recurrence string

const (
	RecurrenceOnce     Recurrence = "once"
	RecurrenceDaily    Recurrence = "daily"
	RecurrenceWeekly   Recurrence = "weekly"
	RecurrenceMonthly  Recurrence = "monthly"
	RecurrenceBiWeekly Recurrence = "bi-weekly"
)

// DueDateLayout is the storage format of Task.DueDate.
const DueDateLayout = "2006-01-02"

// IsValid reports whether r is one of the known recurrences.
func (r Recurrence) IsValid() bool {
	switch r {
	case RecurrenceOnce, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly, RecurrenceBiWeekly:
		return true
	}
	return false
}

// ParseRecurrence normalizes free-form recurrence text.
// Unknown or empty input yields RecurrenceOnce and false.
func ParseRecurrence(s string) (Recurrence, bool) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.ReplaceAll(v, "_", "-")
	switch v {
	case "once", "one-time", "one time", "none":
		return RecurrenceOnce, true
	case "daily", "every day", "everyday":
		return RecurrenceDaily, true
	case "weekly", "every week":
		return RecurrenceWeekly, true
	case "monthly", "every month":
		return RecurrenceMonthly, true
	case "bi-weekly", "biweekly", "bi weekly", "fortnightly", "every other week", "every two weeks":
		return RecurrenceBiWeekly, true
	}
	return RecurrenceOnce, false
}

// Task is a user's household task.
type Task struct {
	ID         int64
	Timestamp  time.Time
	UserID     string
	Category   string
	Task       string
	DueDate    *string // YYYY-MM-DD, nil until resolved
	Recurrence Recurrence
	Completed  bool
	Notes      string
}

// FindTask specifies the conditions for finding tasks.
type FindTask struct {
	ID        *int64
	UserID    *string
	Category  *string
	DueBefore *string // inclusive, YYYY-MM-DD
	Completed *bool
	Limit     int
}

// CompleteTask marks a task completed. Applying it twice is harmless.
type CompleteTask struct {
	ID     int64
	UserID string
}
