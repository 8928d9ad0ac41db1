package formz

import "github.com/zoobzio/capitan"

// Control tree signals.
var (
	// ControlStatusChanged is emitted when a control's status changes.
	ControlStatusChanged = capitan.NewSignal(
		"formz.control.status.changed",
		"Control status transition",
	)

	// PendingChangeCommitted is emitted when a buffered edit is committed on submit.
	PendingChangeCommitted = capitan.NewSignal(
		"formz.control.pending.committed",
		"Buffered edit committed",
	)

	// ListenerPanicked is emitted when a channel listener panics.
	ListenerPanicked = capitan.NewSignal(
		"formz.channel.listener.panicked",
		"Listener panic recovered",
	)
)

// Async validation signals.
var (
	// AsyncValidationStarted is emitted when an async validator is started.
	AsyncValidationStarted = capitan.NewSignal(
		"formz.async.started",
		"Async validation started",
	)

	// AsyncValidationCompleted is emitted when an async result is applied.
	AsyncValidationCompleted = capitan.NewSignal(
		"formz.async.completed",
		"Async validation applied",
	)

	// AsyncValidationDiscarded is emitted when a superseded result arrives.
	AsyncValidationDiscarded = capitan.NewSignal(
		"formz.async.discarded",
		"Stale async validation discarded",
	)
)

// Form lifecycle signals.
var (
	// FormBuilt is emitted when a Builder produces a form.
	FormBuilt = capitan.NewSignal(
		"formz.form.built",
		"Form built from inputs",
	)

	// FormSubmitted is emitted when a form is submitted.
	FormSubmitted = capitan.NewSignal(
		"formz.form.submitted",
		"Form submitted",
	)
)

// Live form signals.
var (
	// LiveStarted is emitted when a LiveForm begins watching.
	LiveStarted = capitan.NewSignal(
		"formz.live.started",
		"Live form watching started",
	)

	// LiveStopped is emitted when a LiveForm stops watching.
	LiveStopped = capitan.NewSignal(
		"formz.live.stopped",
		"Live form watching stopped",
	)

	// LiveStateChanged is emitted when a LiveForm transitions between states.
	LiveStateChanged = capitan.NewSignal(
		"formz.live.state.changed",
		"Live form state transition",
	)

	// LiveChangeReceived is emitted when a document is received from the watcher.
	LiveChangeReceived = capitan.NewSignal(
		"formz.live.change.received",
		"Raw document received from watcher",
	)

	// LiveDecodeFailed is emitted when a document cannot be decoded.
	LiveDecodeFailed = capitan.NewSignal(
		"formz.live.decode.failed",
		"Document decode failed",
	)

	// LiveValidationFailed is emitted when a document fails validation.
	LiveValidationFailed = capitan.NewSignal(
		"formz.live.validation.failed",
		"Document validation failed",
	)

	// LiveApplyFailed is emitted when the apply callback fails.
	LiveApplyFailed = capitan.NewSignal(
		"formz.live.apply.failed",
		"Apply callback failed",
	)

	// LiveApplySucceeded is emitted when inputs are applied.
	LiveApplySucceeded = capitan.NewSignal(
		"formz.live.apply.succeeded",
		"Inputs applied successfully",
	)
)
