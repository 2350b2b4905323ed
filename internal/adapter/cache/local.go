package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/voicebridge/internal/ports"
)

type storeEntry struct {
	value     string
	expiresAt time.Time
}

// LocalStore implements the ports.Cache interface with an in-memory
// map. Used when no Redis URL is configured, e.g. single-node deploys
// and tests; pending confirmations then live only as long as the
// process.
type LocalStore struct {
	data   map[string]storeEntry
	mu     sync.RWMutex
	log    *zap.Logger
	stopCh chan struct{}
}

// NewLocalStore creates an in-memory store with periodic cleanup of
// expired entries.
func NewLocalStore(cleanupInterval time.Duration, log *zap.Logger) ports.Cache {
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}

	s := &LocalStore{
		data:   make(map[string]storeEntry),
		log:    log,
		stopCh: make(chan struct{}),
	}

	go s.cleanupLoop(cleanupInterval)

	log.Info("Local in-memory store initialized",
		zap.Duration("cleanup_interval", cleanupInterval),
	)
	return s
}

func (s *LocalStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.data[key]
	if !ok {
		return "", fmt.Errorf("key not found: %s", key)
	}

	if !entry.expiresAt.IsZero() && entry.expiresAt.Before(time.Now()) {
		return "", fmt.Errorf("key expired: %s", key)
	}

	return entry.value, nil
}

// GetDel reads and removes an entry under one lock acquisition, so a
// key is claimable at most once even under concurrent callers.
func (s *LocalStore) GetDel(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.data[key]
	if !ok {
		return "", fmt.Errorf("key not found: %s", key)
	}
	delete(s.data, key)

	if !entry.expiresAt.IsZero() && entry.expiresAt.Before(time.Now()) {
		return "", fmt.Errorf("key expired: %s", key)
	}

	return entry.value, nil
}

func (s *LocalStore) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var strVal string
	switch v := value.(type) {
	case string:
		strVal = v
	case []byte:
		strVal = string(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal value: %w", err)
		}
		strVal = string(data)
	}

	entry := storeEntry{value: strVal}
	if expiration > 0 {
		entry.expiresAt = time.Now().Add(expiration)
	}

	s.data[key] = entry
	return nil
}

func (s *LocalStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *LocalStore) Ping() error {
	return nil
}

func (s *LocalStore) Close() error {
	close(s.stopCh)
	return nil
}

func (s *LocalStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

func (s *LocalStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	expired := 0
	for key, entry := range s.data {
		if !entry.expiresAt.IsZero() && entry.expiresAt.Before(now) {
			delete(s.data, key)
			expired++
		}
	}

	if expired > 0 {
		s.log.Debug("Store cleanup completed", zap.Int("expired_entries", expired))
	}
}
