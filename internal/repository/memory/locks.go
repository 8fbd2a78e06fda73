package memory

import (
	"context"
	"sync"
)

// keyedLocks hands out one lock per key. A lock is a buffered channel so
// waiting can be abandoned when the context ends.
type keyedLocks struct {
	mu    sync.Mutex
	chans map[string]chan struct{}
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{chans: make(map[string]chan struct{})}
}

func (k *keyedLocks) get(key string) chan struct{} {
	k.mu.Lock()
	defer k.mu.Unlock()
	ch, ok := k.chans[key]
	if !ok {
		ch = make(chan struct{}, 1)
		k.chans[key] = ch
	}
	return ch
}

func (k *keyedLocks) lock(ctx context.Context, key string) error {
	select {
	case k.get(key) <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (k *keyedLocks) unlock(key string) {
	<-k.get(key)
}
