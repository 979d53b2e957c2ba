package donations

import (
	"context"
	"sync"
)

// Sink receives donated data. One Donate call per system donate command;
// nothing is persisted or retried here.
type Sink interface {
	Donate(ctx context.Context, key string, jsonString string) error
}

type Donation struct {
	Key        string
	JSONString string
}

// MemorySink keeps donations in memory. It backs tests and runs without a
// configured endpoint.
type MemorySink struct {
	mu        sync.Mutex
	donations []Donation
}

var _ Sink = new(MemorySink)

func (s *MemorySink) Donate(ctx context.Context, key string, jsonString string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.donations = append(s.donations, Donation{
		Key:        key,
		JSONString: jsonString,
	})
	return nil
}

func (s *MemorySink) Donations() []Donation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Donation(nil), s.donations...)
}
