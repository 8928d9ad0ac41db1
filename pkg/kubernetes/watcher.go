// Package kubernetes serves input documents stored in a ConfigMap or Secret
// key, following changes through the Watch API.
package kubernetes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/zoobzio/clockz"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/kubernetes"
)

// ResourceType specifies the type of Kubernetes resource holding the document.
type ResourceType int

const (
	// ConfigMap reads the document from a ConfigMap.
	ConfigMap ResourceType = iota
	// Secret reads the document from a Secret.
	Secret
)

// DefaultRetryDelay is how long the watcher waits before reconnecting after
// a failed Get or a closed watch.
const DefaultRetryDelay = time.Second

var errWatchClosed = errors.New("watch channel closed")

// Watcher watches one data key of a ConfigMap or Secret. It satisfies
// formz.Watcher.
type Watcher struct {
	client       kubernetes.Interface
	namespace    string
	name         string
	key          string
	resourceType ResourceType
	retryDelay   time.Duration
	clock        clockz.Clock
	logger       *slog.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithResourceType sets the resource type to watch. Defaults to ConfigMap.
func WithResourceType(rt ResourceType) Option {
	return func(w *Watcher) {
		w.resourceType = rt
	}
}

// WithRetryDelay sets the pause before reconnecting.
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

// WithLogger sets the logger for reconnect errors.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// New creates a Watcher for key in the named resource.
func New(client kubernetes.Interface, namespace, name, key string, opts ...Option) *Watcher {
	w := &Watcher{
		client:       client,
		namespace:    namespace,
		name:         name,
		key:          key,
		resourceType: ConfigMap,
		retryDelay:   DefaultRetryDelay,
		clock:        clockz.RealClock,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Watch returns a channel that emits the document whenever the key changes.
// The current document is emitted first. A missing resource or key emits
// nothing until it appears. The channel closes when ctx is done.
func (w *Watcher) Watch(ctx context.Context) (<-chan []byte, error) {
	out := make(chan []byte)

	go func() {
		defer close(out)

		var last []byte
		for {
			err := w.watchLoop(ctx, out, &last)
			if ctx.Err() != nil {
				return
			}
			w.logger.Warn("kubernetes watch interrupted",
				"namespace", w.namespace, "name", w.name, "error", err)

			timer := w.clock.NewTimer(w.retryDelay)
			select {
			case <-timer.C():
			case <-ctx.Done():
				timer.Stop()
				return
			}
		}
	}()

	return out, nil
}

// watchLoop emits the current document and then follows the watch until it
// fails. last holds the previous emission so reconnects do not repeat it.
func (w *Watcher) watchLoop(ctx context.Context, out chan<- []byte, last *[]byte) error {
	value, resourceVersion, err := w.getValue(ctx)
	if err != nil {
		return err
	}
	if !w.send(ctx, out, value, last) {
		return ctx.Err()
	}

	opts := metav1.ListOptions{
		FieldSelector:   fmt.Sprintf("metadata.name=%s", w.name),
		ResourceVersion: resourceVersion,
	}

	var watcher watch.Interface
	if w.resourceType == ConfigMap {
		watcher, err = w.client.CoreV1().ConfigMaps(w.namespace).Watch(ctx, opts)
	} else {
		watcher, err = w.client.CoreV1().Secrets(w.namespace).Watch(ctx, opts)
	}
	if err != nil {
		return fmt.Errorf("failed to start watch: %w", err)
	}
	defer watcher.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.ResultChan():
			if !ok {
				return errWatchClosed
			}
			switch event.Type {
			case watch.Error:
				return fmt.Errorf("watch error: %v", event.Object)
			case watch.Deleted:
				*last = nil
				continue
			}
			if !w.send(ctx, out, w.extractValue(event.Object), last) {
				return ctx.Err()
			}
		}
	}
}

// send emits value unless it is absent or unchanged. It reports false when
// ctx ended first.
func (w *Watcher) send(ctx context.Context, out chan<- []byte, value []byte, last *[]byte) bool {
	if value == nil || (*last != nil && string(*last) == string(value)) {
		return true
	}
	select {
	case out <- value:
		*last = value
		return true
	case <-ctx.Done():
		return false
	}
}

func (w *Watcher) getValue(ctx context.Context) ([]byte, string, error) {
	if w.resourceType == ConfigMap {
		cm, err := w.client.CoreV1().ConfigMaps(w.namespace).Get(ctx, w.name, metav1.GetOptions{})
		if err != nil {
			return nil, "", err
		}
		return w.extractValue(cm), cm.ResourceVersion, nil
	}

	secret, err := w.client.CoreV1().Secrets(w.namespace).Get(ctx, w.name, metav1.GetOptions{})
	if err != nil {
		return nil, "", err
	}
	return w.extractValue(secret), secret.ResourceVersion, nil
}

// extractValue returns the document under the key, or nil when the object
// is of the wrong type or lacks the key.
func (w *Watcher) extractValue(obj any) []byte {
	switch w.resourceType {
	case ConfigMap:
		if cm, ok := obj.(*corev1.ConfigMap); ok {
			if v, ok := cm.Data[w.key]; ok {
				return []byte(v)
			}
		}
	case Secret:
		if secret, ok := obj.(*corev1.Secret); ok {
			if v, ok := secret.Data[w.key]; ok {
				return v
			}
		}
	}
	return nil
}
