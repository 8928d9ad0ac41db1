// Package testing provides helpers for tests that drive formz control trees
// and live forms.
package testing

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/zoobzio/formz"
)

// WaitFor polls a condition until it returns true or timeout is reached.
// Returns true if the condition was met, false if timeout occurred.
func WaitFor(t *testing.T, timeout time.Duration, condition func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

// WaitForState waits until the live form reaches the expected state or
// timeout occurs.
func WaitForState(t *testing.T, l *formz.LiveForm, expected formz.State, timeout time.Duration) bool {
	t.Helper()
	return WaitFor(t, timeout, func() bool {
		return l.State() == expected
	})
}

// RequireState fails the test immediately if the live form is not in the
// expected state.
func RequireState(t *testing.T, l *formz.LiveForm, expected formz.State) {
	t.Helper()
	if got := l.State(); got != expected {
		t.Fatalf("expected state %s, got %s", expected, got)
	}
}

// RequireInputs fails the test if no inputs have been applied or check
// rejects them.
func RequireInputs(t *testing.T, l *formz.LiveForm, check func([]formz.Input) bool) {
	t.Helper()
	inputs, ok := l.Current()
	if !ok {
		t.Fatal("expected inputs to be present, got none")
	}
	if !check(inputs) {
		t.Fatalf("inputs check failed: %+v", inputs)
	}
}

// NewTestLive creates a live form in sync mode over a buffered channel.
// Returns the live form and a channel for sending documents.
func NewTestLive(t *testing.T, apply func([]formz.Input) error, opts ...formz.LiveOption) (*formz.LiveForm, chan<- []byte) {
	t.Helper()
	ch := make(chan []byte, 10)
	opts = append([]formz.LiveOption{formz.WithSyncMode()}, opts...)
	return formz.NewLive(formz.NewSyncChannelWatcher(ch), apply, opts...), ch
}

// Await applies async validation results to c until none are outstanding,
// failing the test after timeout.
func Await(t *testing.T, c formz.Control, timeout time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := c.Await(ctx); err != nil {
		t.Fatalf("async validation did not settle: %v", err)
	}
}

// RequireStatus fails the test if c does not have the expected status.
func RequireStatus(t *testing.T, c formz.Control, expected formz.Status) {
	t.Helper()
	if got := c.Status(); got != expected {
		t.Fatalf("expected status %s, got %s (errors %v)", expected, got, c.Errors())
	}
}

// RequireErrorCodes fails the test unless the control at path has exactly
// the given error codes. An empty path means c itself.
func RequireErrorCodes(t *testing.T, c formz.Control, path string, codes ...string) {
	t.Helper()
	target := c
	if path != "" {
		target = c.Get(path)
	}
	if target == nil {
		t.Fatalf("no control at %q", path)
	}
	got := target.Errors().Codes()
	sort.Strings(got)
	want := append([]string(nil), codes...)
	sort.Strings(want)
	if len(got) != len(want) {
		t.Fatalf("expected codes %v at %q, got %v", want, path, got)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("expected codes %v at %q, got %v", want, path, got)
		}
	}
}

// AsyncStub is an async validator whose results the test supplies by hand.
// Every call the tree makes is recorded in order.
type AsyncStub struct {
	mu    sync.Mutex
	calls []stubCall
}

type stubCall struct {
	ctx    context.Context
	value  any
	result chan formz.AsyncResult
}

// Validator returns the async validator to attach to controls.
func (s *AsyncStub) Validator() formz.AsyncValidatorFunc {
	return func(ctx context.Context, c formz.Control) <-chan formz.AsyncResult {
		ch := make(chan formz.AsyncResult, 1)
		s.mu.Lock()
		s.calls = append(s.calls, stubCall{ctx: ctx, value: c.Value(), result: ch})
		s.mu.Unlock()
		return ch
	}
}

// Calls returns how many validations have been started.
func (s *AsyncStub) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// Value returns the value the i-th validation started with.
func (s *AsyncStub) Value(i int) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[i].value
}

// Cancelled reports whether the i-th validation has been superseded.
func (s *AsyncStub) Cancelled(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[i].ctx.Err() != nil
}

// Resolve completes the i-th validation with errs. A nil errs is valid.
func (s *AsyncStub) Resolve(i int, errs formz.Errors) {
	s.mu.Lock()
	ch := s.calls[i].result
	s.mu.Unlock()
	ch <- formz.AsyncResult{Errors: errs}
}

// Fail completes the i-th validation with a failure.
func (s *AsyncStub) Fail(i int, err error) {
	s.mu.Lock()
	ch := s.calls[i].result
	s.mu.Unlock()
	ch <- formz.AsyncResult{Err: err}
}
