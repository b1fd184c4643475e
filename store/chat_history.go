package store

import "time"

// ChatHistory is a single persisted chat turn.
type ChatHistory struct {
	ID        int64
	Timestamp time.Time
	Role      string
	Content   string
	UserID    string
	SessionID string
}

// FindChatHistory specifies the conditions for finding chat history.
// Results are the most recent Limit rows, returned oldest first.
type FindChatHistory struct {
	UserID    *string
	SessionID *string
	Limit     int
}
