// Package keylock serializes work per string key. The reservation path uses
// it to run the load-mutate-save cycle of one EventID at a time while
// reservations against different EventIDs proceed independently.
package keylock

import (
	"context"
	"fmt"
	"sync"
)

// ErrLockTimeout is returned when the per-key slot could not be acquired
// before the context expired. It is retryable.
type ErrLockTimeout struct {
	Key string
}

func (e ErrLockTimeout) Error() string {
	return fmt.Sprintf("timed out waiting for lock on key %q", e.Key)
}

// KeyedMutex provides one mutual-exclusion slot per key.
type KeyedMutex struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

func New() *KeyedMutex {
	return &KeyedMutex{slots: make(map[string]*slot)}
}

// Lock acquires the slot for key, waiting until the context is done. On
// success it returns the release function; the caller must invoke it exactly
// once. On timeout or cancellation it returns ErrLockTimeout.
func (k *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	s, ok := k.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		k.slots[key] = s
	}
	s.refs++
	k.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
		return func() {
			<-s.ch
			k.release(key, s)
		}, nil
	case <-ctx.Done():
		k.release(key, s)
		return nil, ErrLockTimeout{Key: key}
	}
}

// release drops one reference and removes the slot once nobody holds or
// waits for it, so the map does not grow with every key ever seen.
func (k *KeyedMutex) release(key string, s *slot) {
	k.mu.Lock()
	s.refs--
	if s.refs == 0 {
		delete(k.slots, key)
	}
	k.mu.Unlock()
}
