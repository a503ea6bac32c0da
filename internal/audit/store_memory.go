package audit

import (
	"context"
	"log/slog"
	"sync"
)

// InMemoryStore keeps events per subject; used in tests and local runs.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[string][]Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[string][]Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.Subject] = append(s.events[event.Subject], event)
	return nil
}

func (s *InMemoryStore) ListBySubject(_ context.Context, subject string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events[subject]...), nil
}

// LogStore writes events to a dedicated slog logger and retains nothing.
type LogStore struct {
	logger *slog.Logger
}

func NewLogStore(logger *slog.Logger) *LogStore {
	return &LogStore{logger: logger.With("stream", "audit")}
}

func (s *LogStore) Append(ctx context.Context, event Event) error {
	s.logger.InfoContext(ctx, string(event.Action),
		"subject", event.Subject,
		"principal", event.Principal,
		"outcome", event.Outcome,
		"reason", event.Reason,
		"request_id", event.RequestID,
		"at", event.Timestamp,
	)
	return nil
}

func (s *LogStore) ListBySubject(context.Context, string) ([]Event, error) {
	return nil, nil
}
