package formz

import "context"

// Watcher observes a source of input documents and emits raw bytes on a
// channel. Implementations must emit the current document immediately upon
// Watch() being called so the first form can be built.
type Watcher interface {
	// Watch begins observing the source and returns a channel that emits
	// raw bytes when the document changes. The channel is closed when the
	// context is canceled or an unrecoverable error occurs.
	Watch(ctx context.Context) (<-chan []byte, error)
}
