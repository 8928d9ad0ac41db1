package formz

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/zoobzio/capitan"
)

// Channel is a single-event-type broadcast primitive. Next delivers a payload
// synchronously to every listener registered at the time of the call, in
// subscription order.
//
// Subscribe and Unsubscribe are safe to call from any goroutine, including
// from inside a listener. The listener lock is never held while listeners run.
type Channel[T any] struct {
	mu        sync.Mutex
	listeners []*listener[T]
}

type listener[T any] struct {
	fn     func(T)
	active atomic.Bool
}

// Subscription is the handle returned by Channel.Subscribe.
type Subscription struct {
	once   sync.Once
	cancel func()
}

// Unsubscribe removes the listener. Calling it more than once is a no-op.
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(s.cancel)
}

// NewChannel creates an empty Channel.
func NewChannel[T any]() *Channel[T] {
	return &Channel[T]{}
}

// Subscribe registers fn. A listener added while a dispatch is running does
// not receive that dispatch.
func (ch *Channel[T]) Subscribe(fn func(T)) *Subscription {
	l := &listener[T]{fn: fn}
	l.active.Store(true)

	ch.mu.Lock()
	ch.listeners = append(ch.listeners, l)
	ch.mu.Unlock()

	return &Subscription{cancel: func() { ch.remove(l) }}
}

func (ch *Channel[T]) remove(target *listener[T]) {
	target.active.Store(false)

	ch.mu.Lock()
	defer ch.mu.Unlock()
	for i, l := range ch.listeners {
		if l == target {
			ch.listeners = append(ch.listeners[:i:i], ch.listeners[i+1:]...)
			return
		}
	}
}

// UnsubscribeAll removes every listener.
func (ch *Channel[T]) UnsubscribeAll() {
	ch.mu.Lock()
	listeners := ch.listeners
	ch.listeners = nil
	ch.mu.Unlock()

	for _, l := range listeners {
		l.active.Store(false)
	}
}

// Len returns the number of registered listeners.
func (ch *Channel[T]) Len() int {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return len(ch.listeners)
}

// Next delivers v to every listener. A listener removed during the dispatch
// is skipped if it has not run yet. A panicking listener does not stop the
// remaining ones; recovered panics are returned joined together.
func (ch *Channel[T]) Next(v T) error {
	ch.mu.Lock()
	snapshot := make([]*listener[T], len(ch.listeners))
	copy(snapshot, ch.listeners)
	ch.mu.Unlock()

	var errs []error
	for _, l := range snapshot {
		if !l.active.Load() {
			continue
		}
		if err := deliver(l.fn, v); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func deliver[T any](fn func(T), v T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrListenerPanic, r)
			capitan.Emit(context.Background(), ListenerPanicked,
				KeyError.Field(err.Error()),
			)
		}
	}()
	fn(v)
	return nil
}
