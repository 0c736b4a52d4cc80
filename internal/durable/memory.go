package durable

import (
	"context"
	"sync"

	"arguesurvey/internal/survey"
)

// Memory keeps everything in process; it is lost on restart.
type Memory struct {
	mu   sync.RWMutex
	data map[string]map[string]string
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]map[string]string)}
}

func (m *Memory) For(clientID string) (survey.DurableStore, error) {
	if err := checkClientID(clientID); err != nil {
		return nil, err
	}
	return &memoryStore{parent: m, clientID: clientID}, nil
}

func (m *Memory) Close() error { return nil }

type memoryStore struct {
	parent   *Memory
	clientID string
}

func (s *memoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.parent.mu.RLock()
	defer s.parent.mu.RUnlock()
	v, ok := s.parent.data[s.clientID][key]
	return v, ok, nil
}

func (s *memoryStore) Set(_ context.Context, key, value string) error {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()
	if s.parent.data[s.clientID] == nil {
		s.parent.data[s.clientID] = make(map[string]string)
	}
	s.parent.data[s.clientID][key] = value
	return nil
}
