// Package consul serves input documents stored under a Consul KV key,
// following changes with blocking queries.
package consul

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/hashicorp/consul/api"
	"github.com/zoobzio/clockz"
)

// DefaultRetryDelay is the pause after a failed blocking query.
const DefaultRetryDelay = time.Second

// Watcher watches a Consul KV key. It satisfies formz.Watcher.
type Watcher struct {
	client     *api.Client
	key        string
	wait       time.Duration
	retryDelay time.Duration
	clock      clockz.Clock
	logger     *slog.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithWaitTime bounds how long each blocking query is held by the server.
// Zero leaves the server default.
func WithWaitTime(d time.Duration) Option {
	return func(w *Watcher) {
		w.wait = d
	}
}

// WithRetryDelay sets the pause after a failed query.
func WithRetryDelay(d time.Duration) Option {
	return func(w *Watcher) {
		w.retryDelay = d
	}
}

// WithClock sets the clock used for retry pauses.
func WithClock(clock clockz.Clock) Option {
	return func(w *Watcher) {
		w.clock = clock
	}
}

// WithLogger sets the logger for failed queries.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// New creates a Watcher for key.
func New(client *api.Client, key string, opts ...Option) *Watcher {
	w := &Watcher{
		client:     client,
		key:        key,
		retryDelay: DefaultRetryDelay,
		clock:      clockz.RealClock,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Watch returns a channel that emits the document whenever the key's modify
// index moves. The current document, if the key exists, is emitted first.
// An unreachable agent is reported immediately; later failures are retried.
func (w *Watcher) Watch(ctx context.Context) (<-chan []byte, error) {
	kv := w.client.KV()

	pair, meta, err := kv.Get(w.key, (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to get initial document: %w", err)
	}

	out := make(chan []byte)

	go func() {
		defer close(out)

		send := func(value []byte) bool {
			select {
			case out <- value:
				return true
			case <-ctx.Done():
				return false
			}
		}

		lastIndex := meta.LastIndex
		if pair != nil && !send(pair.Value) {
			return
		}

		for ctx.Err() == nil {
			opts := (&api.QueryOptions{WaitIndex: lastIndex, WaitTime: w.wait}).WithContext(ctx)
			pair, meta, err := kv.Get(w.key, opts)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				w.logger.Warn("consul query failed", "key", w.key, "error", err)
				if !w.pause(ctx) {
					return
				}
				continue
			}

			switch {
			case meta.LastIndex < lastIndex:
				// The index went backwards, e.g. after a snapshot restore.
				lastIndex = 0
			case meta.LastIndex > lastIndex:
				lastIndex = meta.LastIndex
				if pair != nil && !send(pair.Value) {
					return
				}
			}
		}
	}()

	return out, nil
}

func (w *Watcher) pause(ctx context.Context) bool {
	timer := w.clock.NewTimer(w.retryDelay)
	select {
	case <-timer.C():
		return true
	case <-ctx.Done():
		timer.Stop()
		return false
	}
}
