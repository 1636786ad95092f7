package editor

import "sync"

// Settings is the per-view persisted key/value store. The host editor keeps
// these values across view close/reopen, which is why stale flags must be
// reset explicitly on reactivation.
type Settings struct {
	mu     sync.RWMutex
	values map[string]any
}

func NewSettings() *Settings {
	return &Settings{values: make(map[string]any)}
}

func (s *Settings) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

func (s *Settings) Get(key string, def any) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.values[key]; ok {
		return v
	}
	return def
}

func (s *Settings) GetBool(key string, def bool) bool {
	if v, ok := s.Get(key, def).(bool); ok {
		return v
	}
	return def
}

func (s *Settings) GetInt(key string, def int) int {
	if v, ok := s.Get(key, def).(int); ok {
		return v
	}
	return def
}

func (s *Settings) Erase(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

func (s *Settings) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.values[key]
	return ok
}
