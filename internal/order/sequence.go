package order

import (
	"context"
	"sync"
)

// Sequencer hands out invoice numbers that increase monotonically within a day bucket.
type Sequencer interface {
	Next(ctx context.Context, day string) (int64, error)
}

// MemorySequencer keeps per-day counters in process memory. Ids are only unique
// within one process; multi-instance deployments use a shared sequencer.
type MemorySequencer struct {
	mu      sync.Mutex
	counter map[string]int64
}

func NewMemorySequencer() *MemorySequencer {
	return &MemorySequencer{counter: make(map[string]int64)}
}

func (s *MemorySequencer) Next(_ context.Context, day string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter[day]++
	return s.counter[day], nil
}
