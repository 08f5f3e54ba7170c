package lock

import (
	"context"
	"sync"
	"time"
)

// Local is an in-process keyed mutex. It only protects a single API instance.
type Local struct {
	mu   sync.Mutex
	held map[string]chan struct{}
	wait time.Duration
}

func NewLocal(wait time.Duration) *Local {
	return &Local{held: make(map[string]chan struct{}), wait: wait}
}

func (l *Local) Lock(ctx context.Context, keys ...string) (func(), error) {
	keys = normalize(keys)
	if l.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.wait)
		defer cancel()
	}

	acquired := make([]string, 0, len(keys))
	for _, k := range keys {
		if err := l.acquire(ctx, k); err != nil {
			l.release(acquired)
			return nil, err
		}
		acquired = append(acquired, k)
	}

	var once sync.Once
	return func() { once.Do(func() { l.release(acquired) }) }, nil
}

func (l *Local) acquire(ctx context.Context, key string) error {
	for {
		l.mu.Lock()
		ch, busy := l.held[key]
		if !busy {
			l.held[key] = make(chan struct{})
			l.mu.Unlock()
			return nil
		}
		l.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				return ErrTimeout
			}
			return ctx.Err()
		}
	}
}

func (l *Local) release(keys []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, k := range keys {
		if ch, ok := l.held[k]; ok {
			delete(l.held, k)
			close(ch)
		}
	}
}
