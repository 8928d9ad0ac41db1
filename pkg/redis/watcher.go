// Package redis stores form drafts in Redis and watches Redis keys for
// input documents.
package redis

import (
	"context"
	"errors"
	"fmt"

	backend "github.com/redis/go-redis/v9"
)

// Watcher watches a Redis key holding an input document using keyspace
// notifications. It satisfies formz.Watcher. Redis must have keyspace
// notifications enabled:
//
//	CONFIG SET notify-keyspace-events KEA
type Watcher struct {
	client *backend.Client
	key    string
	db     int
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDB sets the database index used in the keyspace channel name. It must
// match the database the client is connected to.
func WithDB(db int) WatcherOption {
	return func(w *Watcher) {
		w.db = db
	}
}

// NewWatcher creates a Watcher for key.
func NewWatcher(client *backend.Client, key string, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		client: client,
		key:    key,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Watcher) channel() string {
	return fmt.Sprintf("__keyspace@%d__:%s", w.db, w.key)
}

// Watch subscribes to notifications for the key and returns a channel that
// emits the document whenever the key is written. The current document, if
// any, is emitted first.
func (w *Watcher) Watch(ctx context.Context) (<-chan []byte, error) {
	pubsub := w.client.Subscribe(ctx, w.channel())
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to keyspace notifications: %w", err)
	}

	out := make(chan []byte)

	go func() {
		defer close(out)
		defer pubsub.Close()

		emit := func() bool {
			val, err := w.client.Get(ctx, w.key).Bytes()
			if errors.Is(err, backend.Nil) {
				return true
			}
			if err != nil {
				return ctx.Err() == nil
			}
			select {
			case out <- val:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !emit() {
			return
		}

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				switch msg.Payload {
				case "set", "setex", "psetex", "setnx", "setrange", "append", "rename_to":
					if !emit() {
						return
					}
				}
			}
		}
	}()

	return out, nil
}
