package task

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("task not found")
	ErrCorruptStore = errors.New("task store file is corrupt")
	ErrPersistence  = errors.New("failed to persist task store")
)

// Task is a single to-do record.
type Task struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	Done        bool      `json:"done"`
	CreatedAt   time.Time `json:"created_at"`
}

// Filter selects which tasks List returns.
type Filter int

const (
	FilterAll Filter = iota
	FilterPending
	FilterDone
)

func (f Filter) matches(t Task) bool {
	switch f {
	case FilterPending:
		return !t.Done
	case FilterDone:
		return t.Done
	default:
		return true
	}
}

// Changes carries the optional fields an Update may apply.
// A nil field is left untouched.
type Changes struct {
	Description *string
	Done        *bool
}

func (c Changes) empty() bool {
	return c.Description == nil && c.Done == nil
}

// Store owns the task collection. Every successful mutation is durable
// before the call returns, and a failed mutation leaves nothing behind
// that a later read could observe.
type Store interface {
	Add(ctx context.Context, description string) (Task, error)
	List(ctx context.Context, filter Filter) ([]Task, error)
	Get(ctx context.Context, id int64) (Task, error)
	Update(ctx context.Context, id int64, changes Changes) (Task, error)
	Complete(ctx context.Context, id int64) (Task, error)
	Delete(ctx context.Context, id int64) error
}
