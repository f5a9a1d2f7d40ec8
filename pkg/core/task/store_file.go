package task

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// fileState is the on-disk layout. next_id is persisted so ids are
// never reused after a delete, even across restarts.
type fileState struct {
	NextID int64  `json:"next_id"`
	Tasks  []Task `json:"tasks"`
}

// FileStore keeps the collection in memory and rewrites the whole
// backing file on every mutation. The rewrite goes through a temp file
// and a rename so an interrupted write cannot truncate the store.
type FileStore struct {
	mu     sync.Mutex
	path   string
	nextID int64
	tasks  []Task

	now func() time.Time
}

// OpenFileStore loads the backing file at path, creating an empty
// collection if the file does not exist yet. A file that exists but
// cannot be parsed fails with ErrCorruptStore; whether to abort or
// reset is the caller's policy.
func OpenFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path:   path,
		nextID: 1,
		now:    time.Now,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) load() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "failed to read task store %s", s.path)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil
	}

	var state fileState
	if err := json.Unmarshal(raw, &state); err != nil {
		return errors.Wrapf(ErrCorruptStore, "%s: %v", s.path, err)
	}

	seen := make(map[int64]struct{}, len(state.Tasks))
	maxID := int64(0)
	for _, t := range state.Tasks {
		if _, dup := seen[t.ID]; dup {
			return errors.Wrapf(ErrCorruptStore, "%s: duplicate task id %d", s.path, t.ID)
		}
		seen[t.ID] = struct{}{}
		if t.ID > maxID {
			maxID = t.ID
		}
	}

	s.tasks = state.Tasks
	s.nextID = state.NextID
	// Tolerate files written without next_id.
	if s.nextID <= maxID {
		s.nextID = maxID + 1
	}
	return nil
}

// persist writes the given state to disk. It does not touch the
// in-memory collection; callers commit only after persist succeeds.
func (s *FileStore) persist(state fileState) error {
	raw, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return errors.Wrapf(ErrPersistence, "marshal: %v", err)
	}
	raw = append(raw, '\n')

	dir := filepath.Dir(s.path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(ErrPersistence, "create dir %s: %v", dir, err)
		}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return errors.Wrapf(ErrPersistence, "create temp file: %v", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrapf(ErrPersistence, "write %s: %v", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(ErrPersistence, "close %s: %v", tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(ErrPersistence, "rename to %s: %v", s.path, err)
	}
	return nil
}

func (s *FileStore) cloneTasks() []Task {
	out := make([]Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

func (s *FileStore) Add(_ context.Context, description string) (Task, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return Task{}, errors.Wrap(ErrInvalidInput, "description must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := Task{
		ID:          s.nextID,
		Description: description,
		Done:        false,
		CreatedAt:   s.now().UTC(),
	}
	next := append(s.cloneTasks(), t)
	if err := s.persist(fileState{NextID: s.nextID + 1, Tasks: next}); err != nil {
		return Task{}, err
	}
	s.tasks = next
	s.nextID++
	return t, nil
}

func (s *FileStore) List(_ context.Context, filter Filter) ([]Task, error) {
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

func (s *FileStore) Get(_ context.Context, id int64) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return Task{}, errors.Wrapf(ErrNotFound, "task %d", id)
}

func (s *FileStore) Update(_ context.Context, id int64, changes Changes) (Task, error) {
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

	idx := -1
	for i, t := range s.tasks {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Task{}, errors.Wrapf(ErrNotFound, "task %d", id)
	}

	next := s.cloneTasks()
	if changes.Description != nil {
		next[idx].Description = description
	}
	if changes.Done != nil {
		next[idx].Done = *changes.Done
	}
	if next[idx] == s.tasks[idx] {
		// Nothing changed; skip the rewrite.
		return next[idx], nil
	}
	if err := s.persist(fileState{NextID: s.nextID, Tasks: next}); err != nil {
		return Task{}, err
	}
	s.tasks = next
	return next[idx], nil
}

func (s *FileStore) Complete(ctx context.Context, id int64) (Task, error) {
	done := true
	return s.Update(ctx, id, Changes{Done: &done})
}

func (s *FileStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, t := range s.tasks {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return errors.Wrapf(ErrNotFound, "task %d", id)
	}

	next := make([]Task, 0, len(s.tasks)-1)
	next = append(next, s.tasks[:idx]...)
	next = append(next, s.tasks[idx+1:]...)
	if err := s.persist(fileState{NextID: s.nextID, Tasks: next}); err != nil {
		return err
	}
	s.tasks = next
	return nil
}
