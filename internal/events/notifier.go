// Package events carries state-change notifications from the cart and
// inventory managers to their observers.
package events

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Notifier is an ordered list of subscribers for values of type T.
type Notifier[T any] struct {
	mu     sync.Mutex
	nextID int
	subs   []subscription[T]
	logger *zap.Logger
}

type subscription[T any] struct {
	id int
	fn func(T)
}

func NewNotifier[T any](logger *zap.Logger) *Notifier[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier[T]{logger: logger}
}

// Subscribe registers fn and returns a function that removes it again.
func (n *Notifier[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	id := n.nextID
	n.subs = append(n.subs, subscription[T]{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			for i, s := range n.subs {
				if s.id == id {
					n.subs = append(n.subs[:i:i], n.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Notify calls every subscriber in registration order on the calling
// goroutine. A panicking subscriber is logged and skipped.
func (n *Notifier[T]) Notify(v T) {
	n.mu.Lock()
	subs := make([]subscription[T], len(n.subs))
	copy(subs, n.subs)
	n.mu.Unlock()

	for _, s := range subs {
		n.call(s, v)
	}
}

func (n *Notifier[T]) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}

func (n *Notifier[T]) call(s subscription[T], v T) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("subscriber panicked",
				zap.Int("subscriber", s.id),
				zap.String("panic", fmt.Sprint(r)))
		}
	}()
	s.fn(v)
}
