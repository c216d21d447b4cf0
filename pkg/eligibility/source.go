package eligibility

import (
	"context"
	"sync"
)

// StaticSource serves windows from an in-memory map. Useful for tests and for
// deployments where owner settings are pushed into the process.
type StaticSource struct {
	mu       sync.RWMutex
	windows  map[string]Window
	fallback *Window
}

// StaticSourceOption configures a StaticSource.
type StaticSourceOption func(*StaticSource)

// WithFallbackWindow serves the given window for owners with no explicit
// configuration instead of returning ErrOwnerNotFound.
func WithFallbackWindow(w Window) StaticSourceOption {
	return func(s *StaticSource) {
		s.fallback = &w
	}
}

// NewStaticSource creates a source over a copy of the given map.
func NewStaticSource(windows map[string]Window, opts ...StaticSourceOption) *StaticSource {
	s := &StaticSource{windows: make(map[string]Window, len(windows))}
	for id, w := range windows {
		s.windows[id] = w
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Window implements Source.
func (s *StaticSource) Window(ctx context.Context, ownerID string) (Window, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if w, ok := s.windows[ownerID]; ok {
		return w, nil
	}
	if s.fallback != nil {
		return *s.fallback, nil
	}
	return Window{}, ErrOwnerNotFound
}

// Set replaces the window for an owner. Settings changes land here.
func (s *StaticSource) Set(ownerID string, w Window) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.windows[ownerID] = w
}
