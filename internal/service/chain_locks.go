package service

import (
	"sync"

	"github.com/google/uuid"
)

// ChainLocks serialises mutations per revision chain. Every write to a
// chain's topology happens while holding its lock.
type ChainLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*chainLock
}

type chainLock struct {
	mu   sync.Mutex
	refs int
}

// NewChainLocks returns an empty lock table.
func NewChainLocks() *ChainLocks {
	return &ChainLocks{locks: make(map[uuid.UUID]*chainLock)}
}

// Lock blocks until the chain is free and returns the matching unlock func.
func (l *ChainLocks) Lock(chainID uuid.UUID) func() {
	l.mu.Lock()
	entry, ok := l.locks[chainID]
	if !ok {
		entry = &chainLock{}
		l.locks[chainID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			entry.mu.Unlock()

			l.mu.Lock()
			entry.refs--
			if entry.refs == 0 {
				delete(l.locks, chainID)
			}
			l.mu.Unlock()
		})
	}
}

// Len returns the number of chains currently locked or waited on.
func (l *ChainLocks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
