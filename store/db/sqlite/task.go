package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/hrygo/alfred/store"
)

func (d *DB) CreateTask(ctx context.Context, create *store.Task) (*store.Task, error) {
	fields := []string{"timestamp", "user_id", "category", "task", "due_date", "recurrence", "completed", "notes"}
	args := []any{
		create.Timestamp.UnixMilli(), create.UserID, create.Category, create.Task,
		create.DueDate, string(create.Recurrence), boolToInt(create.Completed), create.Notes,
	}

	stmt := `INSERT INTO tasks (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.ID); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return create, nil
}

func (d *DB) ListTasks(ctx context.Context, find *store.FindTask) ([]*store.Task, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UserID; v != nil {
		where, args = append(where, "user_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Category; v != nil {
		where, args = append(where, "category = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.DueBefore; v != nil {
		where, args = append(where, "due_date IS NOT NULL AND due_date <= "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Completed; v != nil {
		where, args = append(where, "completed = "+placeholder(len(args)+1)), append(args, boolToInt(*v))
	}

	// Undated tasks sort last.
	query := `SELECT id, timestamp, user_id, category, task, due_date, recurrence, completed, notes
		FROM tasks
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY due_date IS NULL, due_date ASC, id ASC`
	if find.Limit > 0 {
		query = fmt.Sprintf("%s LIMIT %d", query, find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Task, 0)
	for rows.Next() {
		var task store.Task
		var ts int64
		var dueDate sql.NullString
		var recurrence string
		var completed int
		if err := rows.Scan(
			&task.ID,
			&ts,
			&task.UserID,
			&task.Category,
			&task.Task,
			&dueDate,
			&recurrence,
			&completed,
			&task.Notes,
		); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		task.Timestamp = time.UnixMilli(ts)
		if dueDate.Valid {
			task.DueDate = &dueDate.String
		}
		task.Recurrence = store.Recurrence(recurrence)
		task.Completed = completed != 0
		list = append(list, &task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}
	return list, nil
}

func (d *DB) CompleteTask(ctx context.Context, complete *store.CompleteTask) error {
	stmt := `UPDATE tasks SET completed = 1 WHERE id = ` + placeholder(1) + ` AND user_id = ` + placeholder(2)
	result, err := d.db.ExecContext(ctx, stmt, complete.ID, complete.UserID)
	if err != nil {
		return fmt.Errorf("failed to complete task: %w", err)
	}
	// SQLite counts matched rows here, so a repeated completion still reports 1.
	if rows, _ := result.RowsAffected(); rows == 0 {
		return store.ErrTaskNotFound
	}
	return nil
}
