package session

import "sync"

// MemoryStore is an in-memory implementation of Store. It does not survive
// a process restart; tests and ephemeral sessions use it.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) CSRFToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[keyCSRFToken]
}

func (s *MemoryStore) SetCSRFToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[keyCSRFToken] = token
	return nil
}

func (s *MemoryStore) SessionCookie() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[keySessionCookie]
}

func (s *MemoryStore) SetSessionCookie(value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[keySessionCookie] = value
	return nil
}

func (s *MemoryStore) SetNotice(n Notice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[keyNotice] = string(n)
	return nil
}

func (s *MemoryStore) TakeNotice() (Notice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[keyNotice]
	if !ok || v == "" {
		return "", false
	}
	delete(s.values, keyNotice)
	return Notice(v), true
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]string)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
