package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	// Type returns the driver name, used to pick migration files.
	Type() string

	IsInitialized(ctx context.Context) (bool, error)

	// ChatHistory model related methods.
	CreateChatHistory(ctx context.Context, create *ChatHistory) (*ChatHistory, error)
	ListChatHistory(ctx context.Context, find *FindChatHistory) ([]*ChatHistory, error)

	// Task model related methods.
	CreateTask(ctx context.Context, create *Task) (*Task, error)
	ListTasks(ctx context.Context, find *FindTask) ([]*Task, error)
	CompleteTask(ctx context.Context, complete *CompleteTask) error

	// LongTermMemory model related methods.
	CreateLongTermMemory(ctx context.Context, create *LongTermMemory) (*LongTermMemory, error)
	ListLongTermMemories(ctx context.Context, find *FindLongTermMemory) ([]*LongTermMemory, error)
}
