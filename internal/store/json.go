package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/remaimber-it/quizrunner/internal/metrics"
)

// Store layers JSON encoding and a read cache over a Backend. None of its
// operations fail: storage problems are logged and read as absent data. A
// Store without a backend behaves as permanently empty.
type Store struct {
	backend Backend
	logger  *zap.Logger

	mu    sync.RWMutex
	cache map[string][]byte
}

func New(backend Backend, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		backend: backend,
		logger:  logger,
		cache:   make(map[string][]byte),
	}
}

// Available reports whether the store has a durable backend.
func (s *Store) Available() bool {
	return s.backend != nil
}

// GetRaw returns the JSON stored under key, served from the cache when
// possible.
func (s *Store) GetRaw(ctx context.Context, key string) ([]byte, bool) {
	s.mu.RLock()
	raw, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		return raw, true
	}
	return s.ReloadRaw(ctx, key)
}

// ReloadRaw reads key from the backend, bypassing and refreshing the cache.
func (s *Store) ReloadRaw(ctx context.Context, key string) ([]byte, bool) {
	if s.backend == nil {
		return nil, false
	}

	value, err := s.backend.Get(ctx, key)
	if err != nil {
		s.forget(key)
		if !errors.Is(err, ErrNotFound) {
			s.fail("get", key, err)
		}
		return nil, false
	}

	raw := []byte(value)
	s.mu.Lock()
	s.cache[key] = raw
	s.mu.Unlock()
	return raw, true
}

// Get decodes the value stored under key into a T, returning def when the
// key is absent or does not decode.
func Get[T any](ctx context.Context, s *Store, key string, def T) T {
	raw, ok := s.GetRaw(ctx, key)
	return decode(s, key, raw, ok, def)
}

// Reload is Get without the cache.
func Reload[T any](ctx context.Context, s *Store, key string, def T) T {
	raw, ok := s.ReloadRaw(ctx, key)
	return decode(s, key, raw, ok, def)
}

func decode[T any](s *Store, key string, raw []byte, ok bool, def T) T {
	if !ok {
		return def
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		s.logger.Warn("stored value does not decode",
			zap.String("key", key),
			zap.Error(err),
		)
		return def
	}
	return v
}

// Set encodes v and writes it under key. The cache only changes when the
// write succeeds.
func (s *Store) Set(ctx context.Context, key string, v any) {
	if s.backend == nil {
		return
	}

	raw, err := json.Marshal(v)
	if err != nil {
		s.fail("encode", key, err)
		return
	}
	if err := s.backend.Set(ctx, key, string(raw)); err != nil {
		s.fail("set", key, err)
		return
	}

	s.mu.Lock()
	s.cache[key] = raw
	s.mu.Unlock()
}

func (s *Store) Remove(ctx context.Context, key string) {
	s.forget(key)
	if s.backend == nil {
		return
	}
	if err := s.backend.Delete(ctx, key); err != nil {
		s.fail("delete", key, err)
	}
}

// Keys lists the stored keys starting with prefix, or none when the backend
// cannot be listed.
func (s *Store) Keys(ctx context.Context, prefix string) []string {
	if s.backend == nil {
		return nil
	}
	keys, err := s.backend.Keys(ctx, prefix)
	if err != nil {
		s.fail("keys", prefix, err)
		return nil
	}
	return keys
}

func (s *Store) forget(key string) {
	s.mu.Lock()
	delete(s.cache, key)
	s.mu.Unlock()
}

func (s *Store) fail(op, key string, err error) {
	metrics.StorageErrors.WithLabelValues(op).Inc()
	s.logger.Error("storage operation failed",
		zap.String("op", op),
		zap.String("key", key),
		zap.Error(err),
	)
}
