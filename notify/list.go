// Package notify holds callback registration lists for the notifications exposed by a session.
package notify

import (
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// List is a set of subscribers for values of type T. The zero value is ready to use.
type List[T any] struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]func(T)
}

// Subscribe registers fn and returns a func that removes it. Calling cancel more than once is a
// no-op.
func (l *List[T]) Subscribe(fn func(T)) (cancel func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.subs == nil {
		l.subs = map[uint64]func(T){}
	}
	id := l.nextID
	l.nextID++
	l.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.subs, id)
			l.mu.Unlock()
		})
	}
}

// Emit calls every subscriber with v, synchronously and in subscription order. A subscriber
// cancelled by an earlier one during the same emit is not called.
func (l *List[T]) Emit(v T) {
	l.mu.Lock()
	ids := maps.Keys(l.subs)
	l.mu.Unlock()
	slices.Sort(ids)

	for _, id := range ids {
		l.mu.Lock()
		fn, ok := l.subs[id]
		l.mu.Unlock()
		if ok {
			fn(v)
		}
	}
}

// Len returns the number of live subscribers.
func (l *List[T]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.subs)
}
