package formz

import (
	"context"
	"errors"
	"sync"
)

// AsyncResult is the outcome of one async validation. Err reports that the
// validation itself failed; it is recorded on the control under
// ErrorAsyncValidationFailed rather than being dropped.
type AsyncResult struct {
	Errors Errors
	Err    error
}

// AsyncValidatorFunc starts an async validation of c and returns a channel
// that yields at most one result. It is called on the goroutine that owns
// the tree, so it may read c; any blocking work belongs on another goroutine.
// ctx is cancelled when the validation is superseded or the control is
// disabled. A channel closed without a value counts as "no errors".
type AsyncValidatorFunc func(ctx context.Context, c Control) <-chan AsyncResult

// Async adapts a blocking check of the control's value. fn runs on its own
// goroutine with the value captured at the time validation started.
func Async(fn func(ctx context.Context, value any) (Errors, error)) AsyncValidatorFunc {
	return func(ctx context.Context, c Control) <-chan AsyncResult {
		value := c.Value()
		out := make(chan AsyncResult, 1)
		go func() {
			defer close(out)
			errs, err := fn(ctx, value)
			out <- AsyncResult{Errors: normalizeErrors(errs), Err: err}
		}()
		return out
	}
}

// FromChannel adapts a validator that reports through a push stream. The
// first emission wins; a stream closed without emitting counts as valid.
func FromChannel(fn func(ctx context.Context, c Control) <-chan Errors) AsyncValidatorFunc {
	return func(ctx context.Context, c Control) <-chan AsyncResult {
		in := fn(ctx, c)
		out := make(chan AsyncResult, 1)
		go func() {
			defer close(out)
			if in == nil {
				<-ctx.Done()
				return
			}
			select {
			case errs, ok := <-in:
				if ok {
					out <- AsyncResult{Errors: normalizeErrors(errs)}
				}
			case <-ctx.Done():
			}
		}()
		return out
	}
}

// FromObservable adapts a validator that reports on a Channel. The first
// value published after subscription wins and the listener is removed.
func FromObservable(fn func(ctx context.Context, c Control) *Channel[Errors]) AsyncValidatorFunc {
	return func(ctx context.Context, c Control) <-chan AsyncResult {
		source := fn(ctx, c)
		out := make(chan AsyncResult, 1)
		if source == nil {
			go func() {
				<-ctx.Done()
				close(out)
			}()
			return out
		}

		var once sync.Once
		done := make(chan struct{})
		sub := source.Subscribe(func(errs Errors) {
			once.Do(func() {
				out <- AsyncResult{Errors: normalizeErrors(errs)}
				close(done)
			})
		})
		go func() {
			select {
			case <-done:
			case <-ctx.Done():
				once.Do(func() { close(done) })
			}
			sub.Unsubscribe()
			close(out)
		}()
		return out
	}
}

// ComposeAsync merges several async validators into one. Nil entries are
// dropped and nil is returned when nothing remains. The composed validator
// starts every entry, waits for all of them to settle and merges their
// errors in declaration order. Failures are joined into Err.
func ComposeAsync(validators ...AsyncValidatorFunc) AsyncValidatorFunc {
	present := make([]AsyncValidatorFunc, 0, len(validators))
	for _, v := range validators {
		if v != nil {
			present = append(present, v)
		}
	}
	if len(present) == 0 {
		return nil
	}
	return func(ctx context.Context, c Control) <-chan AsyncResult {
		pending := make([]<-chan AsyncResult, 0, len(present))
		for _, v := range present {
			if ch := v(ctx, c); ch != nil {
				pending = append(pending, ch)
			}
		}

		out := make(chan AsyncResult, 1)
		go func() {
			defer close(out)
			var (
				merged Errors
				errs   []error
			)
			for _, ch := range pending {
				select {
				case r, ok := <-ch:
					if !ok {
						continue
					}
					merged = mergeErrors(merged, r.Errors)
					if r.Err != nil {
						errs = append(errs, r.Err)
					}
				case <-ctx.Done():
					out <- AsyncResult{Err: ctx.Err()}
					return
				}
			}
			out <- AsyncResult{Errors: normalizeErrors(merged), Err: errors.Join(errs...)}
		}()
		return out
	}
}

// asyncSub is the handle of the single async validation a control may have
// in flight.
type asyncSub struct {
	cancel context.CancelFunc
}

// completion is posted to the tree's mailbox when an async validation settles.
type completion struct {
	target *control
	sub    *asyncSub
	result AsyncResult
	emit   bool
}

// mailbox queues async completions until the owning goroutine applies them.
// A control's mailbox forwards to its parent's once attached, so completions
// always land at the root of the tree the control belongs to.
type mailbox struct {
	mu     sync.Mutex
	queue  []completion
	target *mailbox
	signal chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{signal: make(chan struct{}, 1)}
}

func (m *mailbox) post(done completion) {
	m.mu.Lock()
	if m.target != nil {
		target := m.target
		m.mu.Unlock()
		target.post(done)
		return
	}
	m.queue = append(m.queue, done)
	m.mu.Unlock()

	select {
	case m.signal <- struct{}{}:
	default:
	}
}

// redirect forwards this mailbox to to, moving anything already queued.
func (m *mailbox) redirect(to *mailbox) {
	if to == m {
		return
	}
	m.mu.Lock()
	queued := m.queue
	m.queue = nil
	m.target = to
	m.mu.Unlock()

	for _, done := range queued {
		to.post(done)
	}
}

// detach stops forwarding, making this mailbox the root of its own tree.
func (m *mailbox) detach() {
	m.mu.Lock()
	m.target = nil
	m.mu.Unlock()
}

func (m *mailbox) drain() []completion {
	m.mu.Lock()
	defer m.mu.Unlock()
	queued := m.queue
	m.queue = nil
	return queued
}
