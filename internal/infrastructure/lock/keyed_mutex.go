// Package lock provides the ResourceLocker implementations that serialize
// mutations of stock placements, products and orders.
package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wims/backend/internal/domain/shared"
)

// DefaultWaitTimeout bounds how long Acquire waits for a busy key
const DefaultWaitTimeout = 5 * time.Second

// KeyedMutex is an in-process exclusive lock per key. Each key is a
// one-slot channel so waiters can give up on context cancellation or the
// wait bound.
type KeyedMutex struct {
	mu          sync.Mutex
	slots       map[string]*slot
	waitTimeout time.Duration
}

type slot struct {
	ch   chan struct{}
	refs int
}

// NewKeyedMutex creates a KeyedMutex. A non-positive waitTimeout uses DefaultWaitTimeout.
func NewKeyedMutex(waitTimeout time.Duration) *KeyedMutex {
	if waitTimeout <= 0 {
		waitTimeout = DefaultWaitTimeout
	}
	return &KeyedMutex{
		slots:       make(map[string]*slot),
		waitTimeout: waitTimeout,
	}
}

// Acquire blocks until key is free, ctx is done or the wait bound elapses
func (m *KeyedMutex) Acquire(ctx context.Context, key shared.LockKey) (shared.Lease, error) {
	name := key.String()
	s := m.ref(name)

	timer := time.NewTimer(m.waitTimeout)
	defer timer.Stop()

	select {
	case s.ch <- struct{}{}:
		return &mutexLease{owner: m, name: name, slot: s}, nil
	case <-ctx.Done():
		m.unref(name, s)
		return nil, conflict(key, ctx.Err())
	case <-timer.C:
		m.unref(name, s)
		return nil, conflict(key, fmt.Errorf("waited %s", m.waitTimeout))
	}
}

// Held returns the number of keys currently tracked, for tests and diagnostics
func (m *KeyedMutex) Held() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.slots)
}

func (m *KeyedMutex) ref(name string) *slot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[name]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		m.slots[name] = s
	}
	s.refs++
	return s
}

func (m *KeyedMutex) unref(name string, s *slot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(m.slots, name)
	}
}

type mutexLease struct {
	once  sync.Once
	owner *KeyedMutex
	name  string
	slot  *slot
}

func (l *mutexLease) Release(_ context.Context) error {
	l.once.Do(func() {
		<-l.slot.ch
		l.owner.unref(l.name, l.slot)
	})
	return nil
}

// conflict wraps a failed wait so it matches shared.ErrConcurrencyConflict
func conflict(key shared.LockKey, cause error) error {
	return fmt.Errorf("%w: %s: %v", shared.ErrConcurrencyConflict, key, cause)
}

// NoopLocker grants every lock immediately. Used when row locks alone
// serialize access.
type NoopLocker struct{}

// NewNoopLocker creates a NoopLocker
func NewNoopLocker() NoopLocker {
	return NoopLocker{}
}

// Acquire always succeeds
func (NoopLocker) Acquire(_ context.Context, _ shared.LockKey) (shared.Lease, error) {
	return noopLease{}, nil
}

type noopLease struct{}

func (noopLease) Release(_ context.Context) error { return nil }

var (
	_ shared.ResourceLocker = (*KeyedMutex)(nil)
	_ shared.ResourceLocker = NoopLocker{}
)
