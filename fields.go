package formz

import "github.com/zoobzio/capitan"

// Field keys for control events.
var (
	// KeyPath is the dot-delimited path of a control; empty for the root.
	KeyPath = capitan.NewStringKey("path")

	// KeyOldStatus is the status before a transition.
	KeyOldStatus = capitan.NewStringKey("old_status")

	// KeyNewStatus is the status after a transition.
	KeyNewStatus = capitan.NewStringKey("new_status")

	// KeyStatus is the current status of a form.
	KeyStatus = capitan.NewStringKey("status")

	// KeyErrors is the number of error codes recorded.
	KeyErrors = capitan.NewIntKey("errors")

	// KeyControls is the number of controls in a tree.
	KeyControls = capitan.NewIntKey("controls")

	// KeyError is the error message when an operation fails.
	KeyError = capitan.NewStringKey("error")
)

// Field keys for live form events.
var (
	// KeyState is the current state of the LiveForm.
	KeyState = capitan.NewStringKey("state")

	// KeyOldState is the previous state before a transition.
	KeyOldState = capitan.NewStringKey("old_state")

	// KeyNewState is the new state after a transition.
	KeyNewState = capitan.NewStringKey("new_state")

	// KeyDebounce is the configured debounce duration.
	KeyDebounce = capitan.NewDurationKey("debounce")

	// KeyInputs is the number of top-level inputs in a document.
	KeyInputs = capitan.NewIntKey("inputs")

	// KeyContentType is the codec content type.
	KeyContentType = capitan.NewStringKey("content_type")
)
