package otp

import (
	"context"
	"crypto/subtle"
	"sync"
	"time"
)

type entry struct {
	code     string
	issuedAt time.Time
	failures int
}

// MemoryStore expires codes on read and sweeps stale ones on a ticker.
type MemoryStore struct {
	mu          sync.Mutex
	codes       map[string]entry
	ttl         time.Duration
	maxAttempts int
	now         func() time.Time
	stopCh      chan struct{}
	stopOnce    sync.Once
}

func NewMemoryStore(ttl, sweepInterval time.Duration, maxAttempts int) *MemoryStore {
	s := &MemoryStore{
		codes:       make(map[string]entry),
		ttl:         ttl,
		maxAttempts: attemptLimit(maxAttempts),
		now:         time.Now,
		stopCh:      make(chan struct{}),
	}
	go s.sweepLoop(sweepInterval)
	return s
}

func (s *MemoryStore) Put(_ context.Context, key, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[key] = entry{code: code, issuedAt: s.now()}
	return nil
}

func (s *MemoryStore) Verify(_ context.Context, key, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.codes[key]
	if !ok {
		return ErrCodeInvalid
	}
	if s.expired(e) {
		delete(s.codes, key)
		return ErrCodeExpired
	}
	if subtle.ConstantTimeCompare([]byte(e.code), []byte(code)) != 1 {
		e.failures++
		if e.failures >= s.maxAttempts {
			delete(s.codes, key)
			return ErrTooManyAttempts
		}
		s.codes[key] = e
		return ErrCodeInvalid
	}

	delete(s.codes, key)
	return nil
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.codes)
}

func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, e := range s.codes {
		if s.expired(e) {
			delete(s.codes, key)
			removed++
		}
	}
	return removed
}

func (s *MemoryStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

func (s *MemoryStore) expired(e entry) bool {
	return s.now().Sub(e.issuedAt) > s.ttl
}

func (s *MemoryStore) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-s.stopCh:
			return
		}
	}
}
