// Package lock serializes booking mutations per event.
package lock

import (
	"context"
	"strconv"
	"sync"
)

// Locker grants exclusive access to a key until release is called.
// Acquire blocks until the lock is held or ctx is done. release may be called more than once.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

func EventKey(eventID int64) string {
	return "booking:event:" + strconv.FormatInt(eventID, 10)
}

// PaymentKey guards confirmation of one payment intent. It never nests inside EventKey.
func PaymentKey(intentID string) string {
	return "booking:payment:" + intentID
}

type localEntry struct {
	sem  chan struct{}
	refs int
}

// Local is an in-process Locker. Entries are dropped once no goroutine holds or waits on them.
type Local struct {
	mu      sync.Mutex
	entries map[string]*localEntry
}

func NewLocal() *Local {
	return &Local{entries: make(map[string]*localEntry)}
}

func (l *Local) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	e := l.entries[key]
	if e == nil {
		e = &localEntry{sem: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		l.unref(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			l.unref(key, e)
		})
	}, nil
}

func (l *Local) unref(key string, e *localEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

func (l *Local) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
