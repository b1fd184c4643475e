package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hrygo/alfred/store"
)

func (d *DB) CreateLongTermMemory(ctx context.Context, create *store.LongTermMemory) (*store.LongTermMemory, error) {
	tags, err := store.MarshalTags(create.Tags)
	if err != nil {
		return nil, err
	}

	fields := []string{"timestamp", "user_id", "content", "summary", "tags"}
	args := []any{create.Timestamp.UnixMilli(), create.UserID, create.Content, create.Summary, tags}

	stmt := `INSERT INTO longterm_memory (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.ID); err != nil {
		return nil, fmt.Errorf("failed to create longterm_memory: %w", err)
	}
	return create, nil
}

func (d *DB) ListLongTermMemories(ctx context.Context, find *store.FindLongTermMemory) ([]*store.LongTermMemory, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.UserID; v != nil {
		where, args = append(where, "user_id = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `SELECT id, timestamp, user_id, content, summary, tags
		FROM longterm_memory
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY timestamp DESC, id DESC`
	if find.Limit > 0 {
		query = fmt.Sprintf("%s LIMIT %d", query, find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query longterm_memory: %w", err)
	}
	defer rows.Close()

	list := make([]*store.LongTermMemory, 0)
	for rows.Next() {
		var m store.LongTermMemory
		var ts int64
		var tags string
		if err := rows.Scan(&m.ID, &ts, &m.UserID, &m.Content, &m.Summary, &tags); err != nil {
			return nil, fmt.Errorf("failed to scan longterm_memory: %w", err)
		}
		m.Timestamp = time.UnixMilli(ts)
		if m.Tags, err = store.UnmarshalTags(tags); err != nil {
			return nil, err
		}
		list = append(list, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate longterm_memory: %w", err)
	}
	return list, nil
}
