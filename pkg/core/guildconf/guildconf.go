package guildconf

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

var (
	ErrCorrupt     = errors.New("guild config file is corrupt")
	ErrPersistence = errors.New("failed to persist guild config")
)

// Config holds the per-guild settings the bot honors. An empty
// TasksChannelID means task commands work in any channel.
type Config struct {
	TasksChannelID string `json:"tasks_channel_id,omitempty"`
}

// Store persists per-guild settings with the same write-through,
// whole-file-rewrite discipline as the task store.
type Store struct {
	mu      sync.Mutex
	path    string
	byGuild map[string]Config
}

// Open loads the config file at path; a missing file starts empty.
func Open(path string) (*Store, error) {
	s := &Store{
		path:    path,
		byGuild: make(map[string]Config),
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, errors.Wrapf(err, "failed to read guild config %s", path)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(raw, &s.byGuild); err != nil {
		return nil, errors.Wrapf(ErrCorrupt, "%s: %v", path, err)
	}
	return s, nil
}

// Get returns the settings for a guild, zero-valued when unknown.
func (s *Store) Get(guildID string) Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byGuild[guildID]
}

// SetTasksChannel restricts task commands in the guild to the given
// channel. An empty channelID lifts the restriction.
func (s *Store) SetTasksChannel(guildID, channelID string) error {
	if guildID == "" {
		return errors.New("guild id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := s.byGuild[guildID]
	cfg.TasksChannelID = channelID

	next := make(map[string]Config, len(s.byGuild)+1)
	for k, v := range s.byGuild {
		next[k] = v
	}
	if cfg == (Config{}) {
		delete(next, guildID)
	} else {
		next[guildID] = cfg
	}

	if err := s.persist(next); err != nil {
		return err
	}
	s.byGuild = next
	return nil
}

func (s *Store) persist(next map[string]Config) error {
	raw, err := json.MarshalIndent(next, "", "  ")
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
