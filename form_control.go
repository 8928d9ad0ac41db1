package formz

import (
	"context"
	"reflect"

	"github.com/zoobzio/capitan"
)

// Boxed is a form state that carries a disabled flag with the value.
// NewFormControl and Reset accept it anywhere a plain value is accepted.
// A map with exactly the keys "value" and "disabled" is treated the same way.
type Boxed struct {
	Value    any
	Disabled bool
}

func unbox(state any) (Boxed, bool) {
	switch s := state.(type) {
	case Boxed:
		return s, true
	case *Boxed:
		if s != nil {
			return *s, true
		}
	case map[string]any:
		if len(s) != 2 {
			return Boxed{}, false
		}
		v, hasValue := s["value"]
		d, hasDisabled := s["disabled"]
		disabled, isBool := d.(bool)
		if hasValue && hasDisabled && isBool {
			return Boxed{Value: v, Disabled: disabled}, true
		}
	}
	return Boxed{}, false
}

// FormControl is a leaf control holding a single value.
type FormControl struct {
	control
	active bool
}

// NewFormControl creates a leaf. state is a plain value or a Boxed value.
func NewFormControl(state any, opts ...ControlOption) *FormControl {
	fc := &FormControl{}
	fc.init(fc, newControlConfig(opts))
	fc.applyFormState(state)
	fc.updateValueAndValidity(fc.initialConfig())
	return fc
}

func (fc *FormControl) applyFormState(state any) {
	quiet := changeConfig{onlySelf: true}
	if b, ok := unbox(state); ok {
		fc.value = b.Value
		fc.pendingValue = b.Value
		if b.Disabled {
			fc.disable(quiet)
		} else {
			fc.enable(quiet, false)
		}
		fc.explicitlyDisabled = b.Disabled
		return
	}
	fc.value = state
	fc.pendingValue = state
}

func (fc *FormControl) RawValue() any { return fc.value }

// PendingValue returns the edit buffered by HandleChange that has not been
// committed yet, or the current value.
func (fc *FormControl) PendingValue() any { return fc.pendingValue }

// Active reports whether the control has focus.
func (fc *FormControl) Active() bool { return fc.active }

// SetValue replaces the value and revalidates.
func (fc *FormControl) SetValue(value any, opts ...ChangeOption) error {
	fc.setValue(value, newChangeConfig(opts))
	return nil
}

func (fc *FormControl) setValue(value any, cfg changeConfig) {
	fc.value = value
	fc.pendingValue = value
	fc.updateValueAndValidity(cfg)
}

// PatchValue is SetValue for a leaf.
func (fc *FormControl) PatchValue(value any, opts ...ChangeOption) error {
	return fc.SetValue(value, opts...)
}

// Reset restores state, which may be Boxed, and marks the control pristine
// and untouched. Buffered edits are discarded.
func (fc *FormControl) Reset(state any, opts ...ChangeOption) error {
	cfg := newChangeConfig(opts)
	fc.applyFormState(state)
	fc.markAsPristine(cfg)
	fc.markAsUntouched(cfg)
	fc.setValue(fc.value, cfg)
	fc.pendingChange = false
	return nil
}

// HandleChange records an edit from the view. With the change strategy it
// commits immediately; with blur or submit it is buffered until the trigger.
func (fc *FormControl) HandleChange(value any) {
	dirty := !reflect.DeepEqual(value, fc.value)
	if fc.UpdateOn() != UpdateOnChange {
		fc.pendingValue = value
		fc.pendingChange = true
		if dirty {
			fc.pendingDirty = true
		}
		fc.emit(ChangeState)
		return
	}
	if dirty {
		fc.markAsDirty(newChangeConfig(nil))
	}
	fc.setValue(value, newChangeConfig(nil))
}

// HandleBlur records loss of focus. With the blur strategy it commits the
// buffered value and revalidates, edited or not; with submit it remembers
// the touch for submission.
func (fc *FormControl) HandleBlur() {
	fc.active = false
	switch fc.UpdateOn() {
	case UpdateOnBlur:
		if fc.pendingDirty {
			fc.markAsDirty(newChangeConfig(nil))
		}
		fc.markAsTouched(newChangeConfig(nil))
		fc.pendingChange = false
		fc.pendingDirty = false
		fc.setValue(fc.pendingValue, newChangeConfig(nil))
	case UpdateOnSubmit:
		fc.pendingTouched = true
		fc.emit(ChangeState)
	default:
		fc.markAsTouched(newChangeConfig(nil))
	}
}

// HandleFocus records that the control gained focus.
func (fc *FormControl) HandleFocus() {
	fc.active = true
	fc.emit(ChangeState)
}

// syncPendingControls commits a submit-strategy edit and reports whether a
// value was committed.
func (fc *FormControl) syncPendingControls() bool {
	if fc.UpdateOn() != UpdateOnSubmit {
		return false
	}
	if fc.pendingDirty {
		fc.markAsDirty(newChangeConfig(nil))
	}
	if fc.pendingTouched {
		fc.markAsTouched(newChangeConfig(nil))
	}
	fc.pendingDirty = false
	fc.pendingTouched = false
	if !fc.pendingChange {
		return false
	}
	fc.pendingChange = false
	fc.setValue(fc.pendingValue, changeConfig{onlySelf: true})
	capitan.Emit(context.Background(), PendingChangeCommitted,
		KeyPath.Field(fc.pathString()),
	)
	return true
}

func (fc *FormControl) updateValue() {}

func (fc *FormControl) allControlsDisabled() bool { return fc.Disabled() }

func (fc *FormControl) anyControls(func(Control) bool) bool { return false }

func (fc *FormControl) forEachChild(func(string, Control)) {}

func (fc *FormControl) child(string) Control { return nil }

func (fc *FormControl) keyOf(Control) string { return "" }

func (fc *FormControl) checkValue(any, bool) error { return nil }
