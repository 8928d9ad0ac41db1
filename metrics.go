package formz

import "time"

// MetricsProvider receives callbacks on key LiveForm events so documents
// can be tracked in Prometheus, StatsD and similar systems.
type MetricsProvider interface {
	// OnStateChange is called when the live form transitions between states.
	OnStateChange(from, to State)

	// OnProcessSuccess is called when a document is applied.
	// Duration covers decode, validation, resolution and the apply callback.
	OnProcessSuccess(duration time.Duration)

	// OnProcessFailure is called when processing fails at any stage.
	// Stage is one of "unmarshal", "validate", "resolve" or "apply".
	OnProcessFailure(stage string, duration time.Duration)

	// OnChangeReceived is called when a raw document arrives from the watcher.
	OnChangeReceived()
}

// NoOpMetricsProvider is a no-op implementation of MetricsProvider.
// Use this as an embedded type to implement only the methods you need.
type NoOpMetricsProvider struct{}

func (NoOpMetricsProvider) OnStateChange(_, _ State)                   {}
func (NoOpMetricsProvider) OnProcessSuccess(_ time.Duration)           {}
func (NoOpMetricsProvider) OnProcessFailure(_ string, _ time.Duration) {}
func (NoOpMetricsProvider) OnChangeReceived()                          {}
