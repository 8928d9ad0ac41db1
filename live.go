package formz

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
)

// DefaultDebounce is the default debounce duration for change processing.
const DefaultDebounce = 100 * time.Millisecond

// LiveForm watches a source of input documents, decodes and validates each
// one, resolves it against a Catalog and hands the resulting inputs to an
// apply callback, typically one that rebuilds a form with Build(inputs, prev).
// A rejected document leaves the last good inputs in place.
type LiveForm struct {
	watcher        Watcher
	apply          func([]Input) error
	catalog        *Catalog
	codec          Codec
	debounce       time.Duration
	syncMode       bool
	clock          clockz.Clock
	logger         *slog.Logger
	metrics        MetricsProvider
	errors         *errorRing
	startupTimeout time.Duration
	onStop         func(State)

	state     atomic.Int32
	current   atomic.Pointer[[]Input]
	lastError atomic.Pointer[error]

	mu      sync.Mutex
	started bool

	// For sync mode: channel to receive changes
	changes <-chan []byte
}

// liveConfig holds configuration options for a LiveForm.
type liveConfig struct {
	catalog        *Catalog
	codec          Codec
	debounce       time.Duration
	syncMode       bool
	clock          clockz.Clock
	logger         *slog.Logger
	metrics        MetricsProvider
	errorHistory   int
	startupTimeout time.Duration
	onStop         func(State)
}

// LiveOption configures a LiveForm.
type LiveOption func(*liveConfig)

// WithDebounce sets the debounce duration for change processing.
// Documents arriving within this duration are coalesced into a single update.
func WithDebounce(d time.Duration) LiveOption {
	return func(c *liveConfig) {
		c.debounce = d
	}
}

// WithSyncMode enables synchronous processing for testing.
// In sync mode, changes are processed immediately without debouncing
// or async goroutines, making tests deterministic.
func WithSyncMode() LiveOption {
	return func(c *liveConfig) {
		c.syncMode = true
	}
}

// WithClock sets a custom clock for time operations.
// Use this with clockz.FakeClock for deterministic debounce testing.
func WithClock(clock clockz.Clock) LiveOption {
	return func(c *liveConfig) {
		c.clock = clock
	}
}

// WithCodec fixes the document format. Without it the format is detected
// per document.
func WithCodec(codec Codec) LiveOption {
	return func(c *liveConfig) {
		c.codec = codec
	}
}

// WithCatalog sets the catalog used to resolve validator and condition names.
func WithCatalog(catalog *Catalog) LiveOption {
	return func(c *liveConfig) {
		c.catalog = catalog
	}
}

// WithLogger sets the logger. Rejected documents are logged at warn level.
func WithLogger(logger *slog.Logger) LiveOption {
	return func(c *liveConfig) {
		c.logger = logger
	}
}

// WithMetrics sets the metrics provider.
func WithMetrics(m MetricsProvider) LiveOption {
	return func(c *liveConfig) {
		c.metrics = m
	}
}

// WithErrorHistory keeps the last n processing errors for ErrorHistory.
func WithErrorHistory(n int) LiveOption {
	return func(c *liveConfig) {
		c.errorHistory = n
	}
}

// WithStartupTimeout bounds how long Start waits for the first document.
func WithStartupTimeout(d time.Duration) LiveOption {
	return func(c *liveConfig) {
		c.startupTimeout = d
	}
}

// WithOnStop registers a callback run with the final state when watching ends.
func WithOnStop(fn func(State)) LiveOption {
	return func(c *liveConfig) {
		c.onStop = fn
	}
}

// NewLive creates a LiveForm over a single source.
//
// Example:
//
//	var form *formz.Form
//	live := formz.NewLive(
//	    formz.NewFileWatcher("signup.yaml"),
//	    func(inputs []formz.Input) error {
//	        form = formz.Build(inputs, form)
//	        return nil
//	    },
//	)
func NewLive(watcher Watcher, apply func([]Input) error, opts ...LiveOption) *LiveForm {
	cfg := &liveConfig{
		debounce: DefaultDebounce,
		clock:    clockz.RealClock,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.catalog == nil {
		cfg.catalog = NewCatalog()
	}
	if cfg.codec == nil {
		cfg.codec = AutoCodec{}
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.metrics == nil {
		cfg.metrics = NoOpMetricsProvider{}
	}

	l := &LiveForm{
		watcher:        watcher,
		apply:          apply,
		catalog:        cfg.catalog,
		codec:          cfg.codec,
		debounce:       cfg.debounce,
		syncMode:       cfg.syncMode,
		clock:          cfg.clock,
		logger:         cfg.logger,
		metrics:        cfg.metrics,
		errors:         newErrorRing(cfg.errorHistory),
		startupTimeout: cfg.startupTimeout,
		onStop:         cfg.onStop,
	}
	l.state.Store(int32(StateLoading))

	return l
}

// State returns the current state of the LiveForm.
func (l *LiveForm) State() State {
	return State(l.state.Load())
}

// Current returns the last applied inputs and true, or nil and false if no
// document has been applied.
func (l *LiveForm) Current() ([]Input, bool) {
	ptr := l.current.Load()
	if ptr == nil {
		return nil, false
	}
	return *ptr, true
}

// LastError returns the last error encountered, or nil if the last
// document was applied.
func (l *LiveForm) LastError() error {
	ptr := l.lastError.Load()
	if ptr == nil {
		return nil
	}
	return *ptr
}

// ErrorHistory returns recent processing errors, oldest first. It is empty
// unless WithErrorHistory was given.
func (l *LiveForm) ErrorHistory() []error {
	return l.errors.all()
}

// ClearErrorHistory drops the recorded errors.
func (l *LiveForm) ClearErrorHistory() {
	l.errors.clear()
}

// Start begins watching. It blocks until the first document is processed
// (success or failure), then continues watching asynchronously.
//
// If the initial document fails, Start returns the error but continues
// watching in the background for valid updates.
//
// In sync mode, Start only processes the initial document. Use Process() to
// manually trigger processing of subsequent documents.
//
// Start can only be called once. Subsequent calls return an error.
func (l *LiveForm) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.started {
		l.mu.Unlock()
		return errors.New("live form already started")
	}
	l.started = true
	l.mu.Unlock()

	capitan.Emit(ctx, LiveStarted,
		KeyDebounce.Field(l.debounce),
		KeyContentType.Field(l.codec.ContentType()),
	)

	changes, err := l.watcher.Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	var timeout <-chan time.Time
	if l.startupTimeout > 0 {
		timer := l.clock.NewTimer(l.startupTimeout)
		defer timer.Stop()
		timeout = timer.C()
	}

	// Wait for first document and process synchronously
	var initialErr error
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timeout:
		return fmt.Errorf("no document received within %s", l.startupTimeout)
	case raw, ok := <-changes:
		if !ok {
			return errors.New("watcher closed before emitting initial document")
		}
		l.received(ctx)
		initialErr = l.process(ctx, raw)
	}

	if l.syncMode {
		// In sync mode, store channel for manual processing
		l.changes = changes
		return initialErr
	}

	// Continue watching asynchronously
	go l.watch(ctx, changes)

	return initialErr
}

// Process reads and processes the next document from the watcher.
// This is only available in sync mode and is used for deterministic testing.
// Returns false if no document is available or the channel is closed.
func (l *LiveForm) Process(ctx context.Context) bool {
	if !l.syncMode {
		return false
	}

	select {
	case raw, ok := <-l.changes:
		if !ok {
			return false
		}
		l.received(ctx)
		_ = l.process(ctx, raw) //nolint:errcheck // Errors stored via fail
		return true
	default:
		return false
	}
}

func (l *LiveForm) received(ctx context.Context) {
	capitan.Emit(ctx, LiveChangeReceived)
	l.metrics.OnChangeReceived()
}

// process decodes, validates, resolves and applies a single document.
func (l *LiveForm) process(ctx context.Context, raw []byte) error {
	start := l.clock.Now()

	var doc Document
	if err := l.codec.Unmarshal(raw, &doc); err != nil {
		capitan.Emit(ctx, LiveDecodeFailed, KeyError.Field(err.Error()))
		return l.fail(ctx, "unmarshal", start, fmt.Errorf("unmarshal failed: %w", err))
	}

	if err := doc.Validate(); err != nil {
		capitan.Emit(ctx, LiveValidationFailed, KeyError.Field(err.Error()))
		return l.fail(ctx, "validate", start, err)
	}

	inputs, err := doc.Resolve(l.catalog)
	if err != nil {
		capitan.Emit(ctx, LiveValidationFailed, KeyError.Field(err.Error()))
		return l.fail(ctx, "resolve", start, fmt.Errorf("resolve failed: %w", err))
	}

	if err := l.apply(inputs); err != nil {
		capitan.Emit(ctx, LiveApplyFailed, KeyError.Field(err.Error()))
		return l.fail(ctx, "apply", start, fmt.Errorf("apply failed: %w", err))
	}

	// Success
	oldState := l.State()
	l.current.Store(&inputs)
	l.lastError.Store(nil)
	l.transitionState(ctx, oldState, StateHealthy)
	l.metrics.OnProcessSuccess(l.clock.Since(start))
	capitan.Emit(ctx, LiveApplySucceeded, KeyInputs.Field(len(inputs)))
	l.logger.Debug("inputs applied", "inputs", len(inputs))

	return nil
}

func (l *LiveForm) fail(ctx context.Context, stage string, start time.Time, err error) error {
	oldState := l.State()
	e := err
	l.lastError.Store(&e)
	l.errors.push(err)
	l.transitionState(ctx, oldState, l.failureState())
	l.metrics.OnProcessFailure(stage, l.clock.Since(start))
	l.logger.Warn("document rejected", "stage", stage, "error", err)
	return err
}

// failureState returns the appropriate failure state based on whether
// a document has ever been applied.
func (l *LiveForm) failureState() State {
	if l.current.Load() == nil {
		return StateEmpty
	}
	return StateDegraded
}

// transitionState updates the state and emits a state change event if changed.
func (l *LiveForm) transitionState(ctx context.Context, oldState, newState State) {
	if oldState == newState {
		return
	}
	l.state.Store(int32(newState))
	l.metrics.OnStateChange(oldState, newState)
	capitan.Emit(ctx, LiveStateChanged,
		KeyOldState.Field(oldState.String()),
		KeyNewState.Field(newState.String()),
	)
}

// watch processes changes from the watcher channel with debouncing.
func (l *LiveForm) watch(ctx context.Context, changes <-chan []byte) {
	defer func() {
		state := l.State()
		capitan.Emit(ctx, LiveStopped,
			KeyState.Field(state.String()),
		)
		if l.onStop != nil {
			l.onStop(state)
		}
	}()

	var (
		timer      clockz.Timer
		pending    []byte
		hasPending bool
	)

	for {
		// Get timer channel or nil if no timer
		var timerC <-chan time.Time
		if timer != nil {
			timerC = timer.C()
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case raw, ok := <-changes:
			if !ok {
				// Channel closed, process any pending document
				if hasPending {
					_ = l.process(ctx, pending) //nolint:errcheck // Errors stored via fail
				}
				return
			}

			l.received(ctx)
			pending = raw
			hasPending = true

			// Reset or start debounce timer
			if timer == nil {
				timer = l.clock.NewTimer(l.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C():
					default:
					}
				}
				timer.Reset(l.debounce)
			}

		case <-timerC:
			if hasPending {
				_ = l.process(ctx, pending) //nolint:errcheck // Errors stored via fail
				hasPending = false
			}
		}
	}
}
