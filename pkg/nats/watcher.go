// Package nats serves input documents stored in a NATS JetStream key-value
// bucket.
package nats

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Watcher watches one key of a JetStream key-value bucket. It satisfies
// formz.Watcher.
type Watcher struct {
	kv  jetstream.KeyValue
	key string
}

// New creates a Watcher for key in kv.
func New(kv jetstream.KeyValue, key string) *Watcher {
	return &Watcher{kv: kv, key: key}
}

// Connect dials url, opens bucket and returns a Watcher for key together
// with a function that closes the connection.
func Connect(ctx context.Context, url, bucket, key string, opts ...nats.Option) (*Watcher, func(), error) {
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("failed to open jetstream: %w", err)
	}
	kv, err := js.KeyValue(ctx, bucket)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("failed to open bucket %q: %w", bucket, err)
	}
	return New(kv, key), nc.Close, nil
}

// Watch returns a channel that emits the document on every put to the key.
// The current document, if any, is emitted first. Deletes and purges emit
// nothing. The channel closes when ctx is done or the server ends the watch.
func (w *Watcher) Watch(ctx context.Context) (<-chan []byte, error) {
	watcher, err := w.kv.Watch(ctx, w.key)
	if err != nil {
		return nil, fmt.Errorf("failed to watch key: %w", err)
	}

	out := make(chan []byte)

	go func() {
		defer close(out)
		defer func() { _ = watcher.Stop() }()

		var revision uint64
		for {
			select {
			case <-ctx.Done():
				return
			case entry, ok := <-watcher.Updates():
				if !ok {
					return
				}
				// nil marks the end of the initial values.
				if entry == nil {
					continue
				}
				if entry.Operation() != jetstream.KeyValuePut || entry.Revision() <= revision {
					continue
				}
				revision = entry.Revision()

				select {
				case out <- entry.Value():
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
