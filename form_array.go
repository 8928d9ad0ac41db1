package formz

import (
	"fmt"
	"reflect"
	"slices"
	"strconv"
)

// FormArray is a composite whose children are addressed by index.
type FormArray struct {
	control
	controls []Control
}

// NewFormArray creates an array from controls.
func NewFormArray(controls []Control, opts ...ControlOption) *FormArray {
	a := &FormArray{}
	a.init(a, newControlConfig(opts))
	a.controls = slices.Clone(controls)
	for _, c := range a.controls {
		a.registerControl(c)
	}
	a.updateValueAndValidity(a.initialConfig())
	return a
}

func (a *FormArray) registerControl(c Control) {
	c.core().setParent(a.self)
}

// At returns the control at index, or nil. Negative indices count from the
// end.
func (a *FormArray) At(index int) Control {
	i, ok := a.adjust(index)
	if !ok {
		return nil
	}
	return a.controls[i]
}

func (a *FormArray) adjust(index int) (int, bool) {
	if index < 0 {
		index += len(a.controls)
	}
	if index < 0 || index >= len(a.controls) {
		return 0, false
	}
	return index, true
}

// Len returns the number of children.
func (a *FormArray) Len() int {
	return len(a.controls)
}

// Controls returns the children in order.
func (a *FormArray) Controls() []Control {
	return slices.Clone(a.controls)
}

// Push appends c and revalidates.
func (a *FormArray) Push(c Control, opts ...ChangeOption) {
	a.controls = append(a.controls, c)
	a.registerControl(c)
	a.updateValueAndValidity(newChangeConfig(opts))
}

// Insert places c at index, shifting later children, and revalidates. An
// index past the end appends.
func (a *FormArray) Insert(index int, c Control, opts ...ChangeOption) {
	if index < 0 {
		index += len(a.controls)
		if index < 0 {
			index = 0
		}
	}
	if index > len(a.controls) {
		index = len(a.controls)
	}
	a.controls = slices.Insert(a.controls, index, c)
	a.registerControl(c)
	a.updateValueAndValidity(newChangeConfig(opts))
}

// RemoveAt removes the child at index, if any, and revalidates.
func (a *FormArray) RemoveAt(index int, opts ...ChangeOption) {
	if i, ok := a.adjust(index); ok {
		a.controls[i].core().detach()
		a.controls = slices.Delete(a.controls, i, i+1)
	}
	a.updateValueAndValidity(newChangeConfig(opts))
}

// SetControl replaces the child at index, or appends when index is past the
// end, and revalidates.
func (a *FormArray) SetControl(index int, c Control, opts ...ChangeOption) {
	if i, ok := a.adjust(index); ok {
		a.controls[i].core().detach()
		a.controls[i] = c
	} else {
		a.controls = append(a.controls, c)
	}
	a.registerControl(c)
	a.updateValueAndValidity(newChangeConfig(opts))
}

// Clear removes every child and revalidates.
func (a *FormArray) Clear(opts ...ChangeOption) {
	if len(a.controls) == 0 {
		return
	}
	for _, c := range a.controls {
		c.core().detach()
	}
	a.controls = nil
	a.updateValueAndValidity(newChangeConfig(opts))
}

// SetValue sets every child. value must be a slice with exactly one entry
// per child; otherwise an error is returned and nothing changes.
func (a *FormArray) SetValue(value any, opts ...ChangeOption) error {
	if err := a.self.checkValue(value, true); err != nil {
		return err
	}
	cfg := newChangeConfig(opts)
	vals, _ := toSlice(value)
	for i, c := range a.controls {
		_ = c.SetValue(vals[i], cfg.child()...) //nolint:errcheck // shape checked above
	}
	a.updateValueAndValidity(cfg)
	return nil
}

// PatchValue sets the children that have an entry in value and ignores
// extra entries. A nil value is a no-op.
func (a *FormArray) PatchValue(value any, opts ...ChangeOption) error {
	if value == nil {
		return nil
	}
	if err := a.self.checkValue(value, false); err != nil {
		return err
	}
	cfg := newChangeConfig(opts)
	vals, _ := toSlice(value)
	for i, v := range vals {
		if i >= len(a.controls) {
			break
		}
		_ = a.controls[i].PatchValue(v, cfg.child()...) //nolint:errcheck // shape checked above
	}
	a.updateValueAndValidity(cfg)
	return nil
}

// Reset resets each child from the matching entry of state, which may be
// shorter or nil, then marks the array pristine, untouched and unsubmitted.
func (a *FormArray) Reset(state any, opts ...ChangeOption) error {
	if err := a.self.checkValue(state, false); err != nil {
		return err
	}
	vals, _ := toSlice(state)
	cfg := newChangeConfig(opts)
	for i, c := range a.controls {
		var v any
		if i < len(vals) {
			v = vals[i]
		}
		_ = c.Reset(v, cfg.child()...) //nolint:errcheck // shape checked above
	}
	a.updateValueAndValidity(cfg)
	a.setSubmitted(false, changeConfig{onlySelf: true, emitEvent: cfg.emitEvent})
	a.updatePristine(cfg)
	a.updateTouched(cfg)
	return nil
}

// RawValue returns the values of all children, disabled or not.
func (a *FormArray) RawValue() any {
	raw := make([]any, len(a.controls))
	for i, c := range a.controls {
		raw[i] = c.RawValue()
	}
	return raw
}

func (a *FormArray) updateValue() {
	value := make([]any, 0, len(a.controls))
	for _, c := range a.controls {
		if c.Enabled() || a.Disabled() {
			value = append(value, c.Value())
		}
	}
	a.value = value
}

func (a *FormArray) allControlsDisabled() bool {
	for _, c := range a.controls {
		if c.Enabled() {
			return false
		}
	}
	return len(a.controls) > 0 || a.Disabled()
}

func (a *FormArray) anyControls(cond func(Control) bool) bool {
	for _, c := range a.controls {
		if c.Enabled() && cond(c) {
			return true
		}
	}
	return false
}

func (a *FormArray) forEachChild(fn func(string, Control)) {
	for i, c := range slices.Clone(a.controls) {
		fn(strconv.Itoa(i), c)
	}
}

func (a *FormArray) child(key string) Control {
	i, err := strconv.Atoi(key)
	if err != nil {
		return nil
	}
	return a.At(i)
}

func (a *FormArray) keyOf(c Control) string {
	for i, x := range a.controls {
		if x == c {
			return strconv.Itoa(i)
		}
	}
	return ""
}

func (a *FormArray) syncPendingControls() bool {
	updated := false
	for _, c := range a.controls {
		if c.syncPendingControls() {
			updated = true
		}
	}
	if updated {
		a.updateValueAndValidity(changeConfig{onlySelf: true, emitEvent: true})
	}
	return updated
}

func (a *FormArray) checkValue(value any, strict bool) error {
	if value == nil && !strict {
		return nil
	}
	vals, ok := toSlice(value)
	if !ok {
		return fmt.Errorf("%w: %s expects a slice, got %T", ErrInvalidValue, describe(a.Path()), value)
	}
	if !strict {
		for i, v := range vals {
			if i >= len(a.controls) {
				break
			}
			if err := a.controls[i].checkValue(v, false); err != nil {
				return err
			}
		}
		return nil
	}

	if len(a.controls) == 0 {
		return fmt.Errorf("%w: %s", ErrNoControls, describe(a.Path()))
	}
	if len(vals) > len(a.controls) {
		return fmt.Errorf("%w: %q", ErrControlMissing, joinPath(a.Path(), strconv.Itoa(len(a.controls))))
	}
	if len(vals) < len(a.controls) {
		return fmt.Errorf("%w: %q", ErrValueMissing, joinPath(a.Path(), strconv.Itoa(len(vals))))
	}
	for i, v := range vals {
		if err := a.controls[i].checkValue(v, true); err != nil {
			return err
		}
	}
	return nil
}

// toSlice accepts []any or any slice or array.
func toSlice(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	s := make([]any, rv.Len())
	for i := range s {
		s[i] = rv.Index(i).Interface()
	}
	return s, true
}
