package compiler

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// keyedLock hands out one single-slot semaphore per key.
type keyedLock struct {
	mu    sync.Mutex
	slots map[string]*semaphore.Weighted
}

func newKeyedLock() *keyedLock {
	return &keyedLock{slots: make(map[string]*semaphore.Weighted)}
}

// Lock waits for the slot of key until ctx ends and returns its release function.
func (k *keyedLock) Lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	s, ok := k.slots[key]
	if !ok {
		s = semaphore.NewWeighted(1)
		k.slots[key] = s
	}
	k.mu.Unlock()

	if err := s.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { s.Release(1) }, nil
}
