package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storepos-backend/internal/order"
)

// sequenceTTL keeps a day's counter a little longer than the day itself.
const sequenceTTL = 48 * time.Hour

type counter interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	IncrBy(ctx context.Context, key string, n int64) (int64, error)
	SequenceKey(name, bucket string) string
}

// sequenceHistory reports the highest invoice number already stored for a day.
type sequenceHistory interface {
	HighestSequence(ctx context.Context, prefix, day string) (int64, error)
}

// RedisSequencer numbers invoices with a shared per-day counter so ids stay
// unique across API instances.
type RedisSequencer struct {
	counter counter
	history sequenceHistory
	prefix  string
}

type SequencerOption func(*RedisSequencer)

// WithHistory lets a counter that Redis lost restart above the numbers already
// persisted under prefix.
func WithHistory(h sequenceHistory, prefix string) SequencerOption {
	return func(s *RedisSequencer) {
		s.history = h
		if p := strings.TrimSpace(prefix); p != "" {
			s.prefix = p
		}
	}
}

func NewRedisSequencer(c counter, opts ...SequencerOption) (*RedisSequencer, error) {
	if c == nil {
		return nil, fmt.Errorf("counter required")
	}
	s := &RedisSequencer{counter: c, prefix: order.DefaultPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *RedisSequencer) Next(ctx context.Context, day string) (int64, error) {
	key := s.counter.SequenceKey("invoice", day)
	n, err := s.counter.IncrWithTTL(ctx, key, sequenceTTL)
	if err != nil || n != 1 || s.history == nil {
		return n, err
	}

	// a fresh key: either the day's first sale or a counter Redis dropped
	highest, err := s.history.HighestSequence(ctx, s.prefix, day)
	if err != nil {
		return 0, fmt.Errorf("reading stored invoice numbers: %w", err)
	}
	if highest < 1 {
		return n, nil
	}
	return s.counter.IncrBy(ctx, key, highest)
}
