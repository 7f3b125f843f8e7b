// Package lock serializes writes to a single budget. Allocation edits arrive
// one field at a time and in quick succession, so every edit that reads the
// budget's totals and writes one line must hold the budget's lock.
package lock

import (
	"context"
	"sync"

	apperrors "hearth/internal/errors"
)

// Locker acquires a named lock. The returned function releases it and is safe
// to call more than once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// BudgetKey returns the lock key for a budget.
func BudgetKey(budgetID string) string {
	return "hearth:lock:budget:" + budgetID
}

// LocalLocker is an in-process keyed mutex. It is enough when a single API
// instance owns the database.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

// NewLocalLocker creates a LocalLocker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]*slot)}
}

// Lock blocks until key is free or ctx is done. A cancelled wait returns BUDGET_BUSY.
func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, s)
		return nil, apperrors.Wrap(apperrors.ErrBudgetBusy, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			l.release(key, s)
		})
	}, nil
}

func (l *LocalLocker) release(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}
