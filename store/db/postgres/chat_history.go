package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hrygo/alfred/store"
)

func (d *DB) CreateChatHistory(ctx context.Context, create *store.ChatHistory) (*store.ChatHistory, error) {
	fields := []string{"timestamp", "role", "content", "user_id", "session_id"}
	args := []any{create.Timestamp.UnixMilli(), create.Role, create.Content, create.UserID, create.SessionID}

	stmt := `INSERT INTO chat_history (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.ID); err != nil {
		return nil, fmt.Errorf("failed to create chat_history: %w", err)
	}
	return create, nil
}

func (d *DB) ListChatHistory(ctx context.Context, find *store.FindChatHistory) ([]*store.ChatHistory, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.UserID; v != nil {
		where, args = append(where, "user_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.SessionID; v != nil {
		where, args = append(where, "session_id = "+placeholder(len(args)+1)), append(args, *v)
	}

	// Take the newest rows, then flip them back into chronological order.
	query := `SELECT id, timestamp, role, content, user_id, session_id FROM (
			SELECT id, timestamp, role, content, user_id, session_id
			FROM chat_history
			WHERE ` + strings.Join(where, " AND ") + `
			ORDER BY timestamp DESC, id DESC`
	if find.Limit > 0 {
		query = fmt.Sprintf("%s LIMIT %d", query, find.Limit)
	}
	query += `) AS recent ORDER BY timestamp ASC, id ASC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat_history: %w", err)
	}
	defer rows.Close()

	list := make([]*store.ChatHistory, 0)
	for rows.Next() {
		var h store.ChatHistory
		var ts int64
		if err := rows.Scan(&h.ID, &ts, &h.Role, &h.Content, &h.UserID, &h.SessionID); err != nil {
			return nil, fmt.Errorf("failed to scan chat_history: %w", err)
		}
		h.Timestamp = time.UnixMilli(ts)
		list = append(list, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chat_history: %w", err)
	}
	return list, nil
}
