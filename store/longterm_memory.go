package store

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// LongTermMemory is a durable fact about a user. Entries are never updated.
type LongTermMemory struct {
	ID        int64
	Timestamp time.Time
	UserID    string
	Content   string
	Summary   string
	Tags      []string
}

// FindLongTermMemory specifies the conditions for finding long-term memories.
// Results are newest first.
type FindLongTermMemory struct {
	UserID *string
	Limit  int
}

// MarshalTags serializes tags for the tags column.
func MarshalTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal tags")
	}
	return string(b), nil
}

// UnmarshalTags parses the tags column. Empty or NULL yields an empty set.
func UnmarshalTags(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	tags := []string{}
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal tags %q", raw)
	}
	return tags, nil
}
