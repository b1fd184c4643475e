package store

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/alfred/internal/profile"
)

// ErrTaskNotFound is returned when a task id does not belong to the user.
var ErrTaskNotFound = errors.New("task not found")

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
	now     func() time.Time
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
		now:     time.Now,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	return s.driver.Close()
}

// normalizeID lower-cases user and session identifiers so that
// differently-cased spellings of one user share rows.
func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

func normalizePtr(id *string) *string {
	if id == nil {
		return nil
	}
	v := normalizeID(*id)
	return &v
}

func (s *Store) CreateChatHistory(ctx context.Context, create *ChatHistory) (*ChatHistory, error) {
	create.UserID = normalizeID(create.UserID)
	create.SessionID = normalizeID(create.SessionID)
	if create.Timestamp.IsZero() {
		create.Timestamp = s.now()
	}
	return s.driver.CreateChatHistory(ctx, create)
}

func (s *Store) ListChatHistory(ctx context.Context, find *FindChatHistory) ([]*ChatHistory, error) {
	find.UserID = normalizePtr(find.UserID)
	find.SessionID = normalizePtr(find.SessionID)
	return s.driver.ListChatHistory(ctx, find)
}

func (s *Store) CreateTask(ctx context.Context, create *Task) (*Task, error) {
	create.UserID = normalizeID(create.UserID)
	if create.Recurrence == "" {
		create.Recurrence = RecurrenceOnce
	}
	if !create.Recurrence.IsValid() {
		return nil, errors.Errorf("invalid recurrence %q", create.Recurrence)
	}
	if create.Timestamp.IsZero() {
		create.Timestamp = s.now()
	}
	// New tasks are always open.
	create.Completed = false
	return s.driver.CreateTask(ctx, create)
}

func (s *Store) ListTasks(ctx context.Context, find *FindTask) ([]*Task, error) {
	find.UserID = normalizePtr(find.UserID)
	return s.driver.ListTasks(ctx, find)
}

// GetTask returns the task with the given id owned by userID.
func (s *Store) GetTask(ctx context.Context, userID string, id int64) (*Task, error) {
	list, err := s.ListTasks(ctx, &FindTask{ID: &id, UserID: &userID, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrTaskNotFound
	}
	return list[0], nil
}

func (s *Store) CompleteTask(ctx context.Context, complete *CompleteTask) error {
	complete.UserID = normalizeID(complete.UserID)
	return s.driver.CompleteTask(ctx, complete)
}

func (s *Store) CreateLongTermMemory(ctx context.Context, create *LongTermMemory) (*LongTermMemory, error) {
	create.UserID = normalizeID(create.UserID)
	if create.Timestamp.IsZero() {
		create.Timestamp = s.now()
	}
	if create.Tags == nil {
		create.Tags = []string{}
	}
	return s.driver.CreateLongTermMemory(ctx, create)
}

func (s *Store) ListLongTermMemories(ctx context.Context, find *FindLongTermMemory) ([]*LongTermMemory, error) {
	find.UserID = normalizePtr(find.UserID)
	return s.driver.ListLongTermMemories(ctx, find)
}
