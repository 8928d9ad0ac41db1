package formz

import (
	"context"
	"maps"

	"github.com/zoobzio/capitan"
)

// Form is the root group of a tree. It keeps the inputs it was built from
// and the context data conditions are evaluated against.
type Form struct {
	FormGroup
	inputs []Input
	data   map[string]any
}

// NewForm creates a root group from members.
func NewForm(members []Member, opts ...ControlOption) *Form {
	f := &Form{}
	f.initGroup(f, members, newControlConfig(opts))
	return f
}

// Inputs returns the input specifications the form was built from, if any.
func (f *Form) Inputs() []Input {
	return f.inputs
}

// Context returns what conditions are currently evaluated against.
func (f *Form) Context() FormContext {
	return FormContext{Root: f, Data: f.data}
}

// SetContext replaces the context data and re-evaluates every condition.
func (f *Form) SetContext(data map[string]any) {
	f.data = maps.Clone(data)
	f.Refresh()
}

// Refresh re-evaluates Hidden and DisabledOn conditions. Controls whose
// condition now holds are disabled; controls disabled by a condition that
// no longer holds are enabled again. Controls disabled explicitly are left
// alone.
func (f *Form) Refresh() {
	f.refresh(f)
}

func (f *Form) refresh(c Control) {
	c.forEachChild(func(_ string, ch Control) {
		cc := ch.core()
		holds := conditionHolds(ch)
		switch {
		case holds && ch.Enabled():
			cc.disable(changeConfig{emitEvent: true})
			cc.disabledByCondition = true
		case !holds && cc.disabledByCondition:
			cc.enable(changeConfig{emitEvent: true}, true)
		}
		if ch.Enabled() {
			f.refresh(ch)
		}
	})
}

// Submit marks the tree submitted, commits edits buffered by the submit
// strategy and revalidates every control, children first. It returns the
// resulting status, which is PENDING while async validators run.
func (f *Form) Submit() Status {
	if f.anyUnsubmitted(f) {
		f.setSubmitted(true, changeConfig{})
	}
	f.syncPendingControls()
	revalidate(f)

	capitan.Emit(context.Background(), FormSubmitted,
		KeyStatus.Field(f.status.String()),
	)
	return f.status
}

func (f *Form) anyUnsubmitted(c Control) bool {
	found := false
	c.forEachChild(func(_ string, ch Control) {
		if !found && (!ch.Submitted() || f.anyUnsubmitted(ch)) {
			found = true
		}
	})
	return found || !c.Submitted()
}

// revalidate runs UpdateValueAndValidity bottom-up without touching
// ancestors, so every validator sees settled children.
func revalidate(c Control) {
	c.forEachChild(func(_ string, ch Control) {
		revalidate(ch)
	})
	c.core().updateValueAndValidity(changeConfig{onlySelf: true, emitEvent: true})
}
