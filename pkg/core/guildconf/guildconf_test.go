package guildconf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
)

func TestStore_SetGetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guilds.json")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if cfg := s.Get("guild-1"); cfg.TasksChannelID != "" {
		t.Fatalf("expected zero config for unknown guild, got %+v", cfg)
	}

	if err := s.SetTasksChannel("guild-1", "chan-9"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got := s.Get("guild-1").TasksChannelID; got != "chan-9" {
		t.Fatalf("expected chan-9, got %q", got)
	}

	// Settings survive a reload.
	reloaded, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got := reloaded.Get("guild-1").TasksChannelID; got != "chan-9" {
		t.Fatalf("expected chan-9 after reload, got %q", got)
	}

	// Clearing the only setting removes the guild record entirely.
	if err := reloaded.SetTasksChannel("guild-1", ""); err != nil {
		t.Fatalf("clear: %v", err)
	}
	final, err := Open(path)
	if err != nil {
		t.Fatalf("reopen after clear: %v", err)
	}
	if got := final.Get("guild-1").TasksChannelID; got != "" {
		t.Fatalf("expected cleared config, got %q", got)
	}
}

func TestStore_RequiresGuildID(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "guilds.json"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.SetTasksChannel("", "chan"); err == nil {
		t.Fatal("expected error for empty guild id")
	}
}

func TestStore_FailedWriteKeepsState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guilds.json")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.SetTasksChannel("guild-1", "chan-1"); err != nil {
		t.Fatalf("set: %v", err)
	}

	// A directory in place of the backing file makes the rename fail.
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(path, 0o755); err != nil {
		t.Fatal(err)
	}

	if err := s.SetTasksChannel("guild-2", "chan-2"); !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if got := s.Get("guild-2").TasksChannelID; got != "" {
		t.Fatalf("failed write must not leave guild-2 config, got %q", got)
	}
	if got := s.Get("guild-1").TasksChannelID; got != "chan-1" {
		t.Fatalf("guild-1 config lost after failed write, got %q", got)
	}
}

func TestStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guilds.json")
	if err := os.WriteFile(path, []byte("]["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}
