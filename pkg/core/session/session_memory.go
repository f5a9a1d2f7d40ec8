package session

import (
	"context"
	"sync"
)

type MemorySession struct {
	data map[string]any
	mu   sync.RWMutex
}

func (s *MemorySession) Get(_ context.Context, key string) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, exists := s.data[key]
	if !exists {
		return nil, ErrKeyNotFound
	}
	return val, nil
}

func (s *MemorySession) Set(_ context.Context, key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *MemorySession) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

type MemoryManager struct {
	sessions map[string]*MemorySession
	mu       sync.RWMutex
}

func NewMemoryManager() (Manager, error) {
	return &MemoryManager{
		sessions: make(map[string]*MemorySession),
	}, nil
}

func (m *MemoryManager) Get(_ context.Context, chatID string) (Session, error) {
	m.mu.RLock()
	sess, exists := m.sessions[chatID]
	m.mu.RUnlock()
	if !exists {
		m.mu.Lock()
		sess = m.sessions[chatID]
		if sess == nil {
			sess = &MemorySession{
				data: make(map[string]any),
			}
			m.sessions[chatID] = sess
		}
		m.mu.Unlock()
	}
	return sess, nil
}
