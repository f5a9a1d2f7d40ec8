package task

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// MemoryStore implements Store without persistence. It backs tests and
// the local REPL when no file path is configured.
type MemoryStore struct {
	mu     sync.Mutex
	nextID int64
	tasks  []Task

	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID: 1,
		now:    time.Now,
	}
}

func (s *MemoryStore) Add(_ context.Context, description string) (Task, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return Task{}, errors.Wrap(ErrInvalidInput, "description must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := Task{
		ID:          s.nextID,
		Description: description,
		CreatedAt:   s.now().UTC(),
	}
	s.tasks = append(s.tasks, t)
	s.nextID++
	return t, nil
}

func (s *MemoryStore) List(_ context.Context, filter Filter) ([]Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if filter.matches(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, id int64) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return Task{}, errors.Wrapf(ErrNotFound, "task %d", id)
}

func (s *MemoryStore) Update(_ context.Context, id int64, changes Changes) (Task, error) {
	if changes.empty() {
		return Task{}, errors.Wrap(ErrInvalidInput, "no fields to update")
	}
	var description string
	if changes.Description != nil {
		description = strings.TrimSpace(*changes.Description)
		if description == "" {
			return Task{}, errors.Wrap(ErrInvalidInput, "description must not be empty")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.tasks {
		if s.tasks[i].ID != id {
			continue
		}
		if changes.Description != nil {
			s.tasks[i].Description = description
		}
		if changes.Done != nil {
			s.tasks[i].Done = *changes.Done
		}
		return s.tasks[i], nil
	}
	return Task{}, errors.Wrapf(ErrNotFound, "task %d", id)
}

func (s *MemoryStore) Complete(ctx context.Context, id int64) (Task, error) {
	done := true
	return s.Update(ctx, id, Changes{Done: &done})
}

func (s *MemoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, t := range s.tasks {
		if t.ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return nil
		}
	}
	return errors.Wrapf(ErrNotFound, "task %d", id)
}
