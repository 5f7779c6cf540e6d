package memory

import (
	"context"
	"sync"
)

type lockSlot struct {
	ch   chan struct{}
	refs int
}

// KeyedLocker is a per-item mutex for a single process. A slot lives only
// while someone holds or waits for it.
type KeyedLocker struct {
	mu    sync.Mutex
	slots map[int64]*lockSlot
}

func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{slots: make(map[int64]*lockSlot)}
}

func (l *KeyedLocker) Lock(ctx context.Context, itemID int64) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[itemID]
	if !ok {
		slot = &lockSlot{ch: make(chan struct{}, 1)}
		l.slots[itemID] = slot
	}
	slot.refs++
	l.mu.Unlock()

	select {
	case slot.ch <- struct{}{}:
	case <-ctx.Done():
		l.drop(itemID, slot)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-slot.ch
			l.drop(itemID, slot)
		})
	}, nil
}

func (l *KeyedLocker) drop(itemID int64, slot *lockSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, itemID)
	}
}

func (l *KeyedLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}
