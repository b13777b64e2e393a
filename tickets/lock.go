package tickets

import (
	"context"
	"sync"
)

// Locker grants exclusive close rights on a ticket channel. TryLock never
// waits: if the key is held it returns ErrAlreadyClosing.
type Locker interface {
	TryLock(ctx context.Context, key string) (unlock func(), err error)
}

type MemoryLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]struct{})}
}

func (l *MemoryLocker) TryLock(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return nil, ErrAlreadyClosing
	}
	l.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}, nil
}
