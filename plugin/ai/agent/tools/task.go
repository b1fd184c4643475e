package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hrygo/alfred/plugin/ai/aitime"
	"github.com/hrygo/alfred/store"
)

// Task categories suggested to the model. Free text is accepted as well.
var TaskCategories = []string{
	"household cleaning",
	"household maintenance",
	"lawncare",
	"laundry",
	"pet_care",
	"personal_care",
}

const defaultTaskListLimit = 50

// TaskStore is the persistence contract the task tools need.
type TaskStore interface {
	CreateTask(ctx context.Context, create *store.Task) (*store.Task, error)
	ListTasks(ctx context.Context, find *store.FindTask) ([]*store.Task, error)
	GetTask(ctx context.Context, userID string, id int64) (*store.Task, error)
	CompleteTask(ctx context.Context, complete *store.CompleteTask) error
}

// TaskTools groups the task management tools over one store.
type TaskTools struct {
	store    TaskStore
	time     aitime.TimeService
	resolver *TaskResolver
}

// NewTaskTools creates the task tools. resolver may be nil, in which case
// completion requires an explicit task id.
func NewTaskTools(s TaskStore, ts aitime.TimeService, resolver *TaskResolver) *TaskTools {
	return &TaskTools{store: s, time: ts, resolver: resolver}
}

// All returns every task tool.
func (t *TaskTools) All() []*NativeTool {
	return []*NativeTool{
		t.CreateTaskTool(),
		t.GetTasksTool(),
		t.MarkCompletedTool(),
		t.ParseDateTool(),
		t.CurrentDateTool(),
	}
}

// CreateTaskTool creates a task from model-extracted fields.
func (t *TaskTools) CreateTaskTool() *NativeTool {
	return NewNativeTool(
		ToolCreateNewTask,
		"Create a new household task for the user. The date may be natural language such as 'tomorrow' or 'next wednesday at 8:00'.",
		map[string]any{
			"category":   stringProp("Task category, e.g. " + strings.Join(TaskCategories, ", ")),
			"task":       stringProp("Short description of the task"),
			"date":       stringProp("When the task is due, natural language allowed"),
			"recurrence": enumProp("How often the task repeats", "once", "daily", "weekly", "monthly", "bi-weekly"),
			"notes":      stringProp("Optional notes"),
		},
		[]string{"task"},
		t.createTask,
	)
}

func (t *TaskTools) createTask(ctx context.Context, args map[string]any) (string, error) {
	userID := argString(args, argUserID)
	description := argString(args, "task")
	if description == "" {
		return "", fmt.Errorf("task description is required")
	}
	category := strings.ToLower(argString(args, "category"))
	if category == "" {
		category = "general"
	}
	dateText := argString(args, "date")

	recurrence, ok := store.ParseRecurrence(argString(args, "recurrence"))
	if hint := aitime.RecurrenceHint(dateText + " " + description); hint != "" {
		// Phrasing such as "every monday" outranks a missing or "once" value.
		if !ok || recurrence == store.RecurrenceOnce {
			recurrence, _ = store.ParseRecurrence(hint)
		}
	}

	var dueDate *string
	var note string
	if dateText != "" {
		due, err := t.time.Normalize(ctx, dateText)
		if err != nil {
			slog.Warn("could not resolve task date",
				"user_id", userID,
				"date", dateText,
				"error", err)
			note = fmt.Sprintf(" The date %q could not be understood, so no due date was set.", dateText)
		} else {
			v := due.Format(store.DueDateLayout)
			dueDate = &v
		}
	}

	created, err := t.store.CreateTask(ctx, &store.Task{
		UserID:     userID,
		Category:   category,
		Task:       description,
		DueDate:    dueDate,
		Recurrence: recurrence,
		Notes:      argString(args, "notes"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create task: %w", err)
	}

	due := "no due date"
	if created.DueDate != nil {
		due = "due " + *created.DueDate
	}
	return fmt.Sprintf("Task created successfully with ID: %d (%s, %s, %s).%s",
		created.ID, created.Task, due, created.Recurrence, note), nil
}

// GetTasksTool lists open tasks ordered by due date.
func (t *TaskTools) GetTasksTool() *NativeTool {
	return NewNativeTool(
		ToolGetTasks,
		"List the user's tasks ordered by due date. Only open tasks unless include_completed is true.",
		map[string]any{
			"category":          stringProp("Only tasks in this category"),
			"due_before":        stringProp("Only tasks due on or before this date"),
			"include_completed": boolProp("Also list completed tasks"),
			"limit":             intProp("Maximum number of tasks, default 50"),
		},
		nil,
		t.getTasks,
	)
}

func (t *TaskTools) getTasks(ctx context.Context, args map[string]any) (string, error) {
	userID := argString(args, argUserID)
	find := &store.FindTask{UserID: &userID, Limit: defaultTaskListLimit}

	if v := strings.ToLower(argString(args, "category")); v != "" {
		find.Category = &v
	}
	if v := argString(args, "due_before"); v != "" {
		due, err := t.time.Normalize(ctx, v)
		if err != nil {
			return "", fmt.Errorf("invalid due_before %q: %w", v, err)
		}
		s := due.Format(store.DueDateLayout)
		find.DueBefore = &s
	}
	if !argBool(args, "include_completed") {
		open := false
		find.Completed = &open
	}
	if n, ok := argInt(args, "limit"); ok && n > 0 {
		find.Limit = int(n)
	}

	list, err := t.store.ListTasks(ctx, find)
	if err != nil {
		return "", fmt.Errorf("failed to list tasks: %w", err)
	}
	if len(list) == 0 {
		return "No tasks found.", nil
	}
	return formatTasks(list), nil
}

func formatTasks(list []*store.Task) string {
	var b strings.Builder
	b.WriteString("Tasks:\n")
	for _, task := range list {
		fmt.Fprintf(&b, "- [id %d] %s", task.ID, task.Task)
		if task.DueDate != nil {
			fmt.Fprintf(&b, " | due %s", *task.DueDate)
		} else {
			b.WriteString(" | no due date")
		}
		fmt.Fprintf(&b, " | %s | %s", task.Category, task.Recurrence)
		if task.Completed {
			b.WriteString(" | completed")
		}
		if task.Notes != "" {
			fmt.Fprintf(&b, " | notes: %s", task.Notes)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// NoMatchingTaskText is returned when a completion request matches no task.
const NoMatchingTaskText = "No matching task found."

// MarkCompletedTool completes a task by id or by description.
func (t *TaskTools) MarkCompletedTool() *NativeTool {
	return NewNativeTool(
		ToolMarkTaskCompleted,
		"Mark one of the user's tasks as completed. Pass task_id when known, otherwise describe the task in query.",
		map[string]any{
			"task_id": intProp("Id of the task"),
			"query":   stringProp("Description of the task to complete, e.g. 'the lawn task'"),
		},
		nil,
		t.markCompleted,
	)
}

func (t *TaskTools) markCompleted(ctx context.Context, args map[string]any) (string, error) {
	userID := argString(args, argUserID)

	id, hasID := argInt(args, "task_id")
	if !hasID {
		query := argString(args, "query")
		if query == "" {
			return "", fmt.Errorf("task_id or query is required")
		}
		if t.resolver == nil {
			return NoMatchingTaskText, nil
		}
		open := false
		tasks, err := t.store.ListTasks(ctx, &store.FindTask{UserID: &userID, Completed: &open, Limit: defaultTaskListLimit})
		if err != nil {
			return "", fmt.Errorf("failed to list tasks: %w", err)
		}
		resolved, matched, err := t.resolver.Resolve(ctx, query, tasks)
		if err != nil {
			slog.Warn("task resolution failed", "user_id", userID, "query", query, "error", err)
		}
		if !matched {
			return NoMatchingTaskText, nil
		}
		id = resolved
	}

	task, err := t.store.GetTask(ctx, userID, id)
	if errors.Is(err, store.ErrTaskNotFound) {
		return NoMatchingTaskText, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load task: %w", err)
	}
	if task.Completed {
		return fmt.Sprintf("Task %d (%s) is already completed.", task.ID, task.Task), nil
	}

	if err := t.store.CompleteTask(ctx, &store.CompleteTask{ID: task.ID, UserID: userID}); err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return NoMatchingTaskText, nil
		}
		return "", fmt.Errorf("failed to complete task: %w", err)
	}
	return fmt.Sprintf("Task %d (%s) marked as completed.", task.ID, task.Task), nil
}

// ParseDateTool resolves a natural-language date.
func (t *TaskTools) ParseDateTool() *NativeTool {
	return NewNativeTool(
		ToolParseDate,
		"Resolve a natural-language date such as 'next friday' to YYYY-MM-DD.",
		map[string]any{
			"text": stringProp("The date expression"),
		},
		[]string{"text"},
		func(ctx context.Context, args map[string]any) (string, error) {
			text := argString(args, "text")
			d, err := t.time.Normalize(ctx, text)
			if err != nil {
				return "", fmt.Errorf("could not parse date %q", text)
			}
			return d.Format(aitime.DateLayout), nil
		},
	)
}

// CurrentDateTool reports the current date and time.
func (t *TaskTools) CurrentDateTool() *NativeTool {
	return NewNativeTool(
		ToolGetCurrentDate,
		"Get the current date and time.",
		nil,
		nil,
		func(_ context.Context, _ map[string]any) (string, error) {
			return t.time.Now().Format(aitime.DateTimeLayout), nil
		},
	)
}
