package formz

import (
	"context"

	"github.com/zoobzio/capitan"
)

// Builder turns input specifications into control trees.
type Builder struct {
	defaults *Defaults
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithDefaults applies d to every input before its control is created.
func WithDefaults(d *Defaults) BuilderOption {
	return func(b *Builder) {
		b.defaults = d
	}
}

// NewBuilder creates a Builder.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build creates a tree with a plain Builder. See Builder.Build.
func Build(inputs []Input, prev *Form) *Form {
	return NewBuilder().Build(inputs, prev)
}

// Build walks inputs and creates a matching Form. Static inputs, and unnamed
// inputs directly inside a group, get no control. When prev is non-nil each
// leaf starts from the value of the leaf at the same name or index in prev,
// so data entered by the user survives a change of shape. Validators are
// attached as declared. Conditions are evaluated once the tree exists.
func (b *Builder) Build(inputs []Input, prev *Form) *Form {
	var prevGroup *FormGroup
	if prev != nil {
		prevGroup = &prev.FormGroup
	}
	f := NewForm(b.members(inputs, prevGroup))
	f.inputs = inputs
	if prev != nil {
		f.data = prev.data
	}
	f.Refresh()

	capitan.Emit(context.Background(), FormBuilt,
		KeyControls.Field(countControls(f)),
		KeyStatus.Field(f.status.String()),
	)
	return f
}

func (b *Builder) members(inputs []Input, prev *FormGroup) []Member {
	members := make([]Member, 0, len(inputs))
	for _, raw := range inputs {
		in := b.defaults.Resolve(raw)
		if in.Kind == KindStatic || in.Name == "" {
			continue
		}
		var before Control
		if prev != nil {
			before = prev.Control(in.Name)
		}
		if c := b.control(in, before); c != nil {
			members = append(members, Member{Name: in.Name, Control: c})
		}
	}
	return members
}

func (b *Builder) elements(inputs []Input, prev *FormArray) []Control {
	controls := make([]Control, 0, len(inputs))
	for _, raw := range inputs {
		in := b.defaults.Resolve(raw)
		if in.Kind == KindStatic {
			continue
		}
		var before Control
		if prev != nil {
			before = prev.At(len(controls))
		}
		if c := b.control(in, before); c != nil {
			controls = append(controls, c)
		}
	}
	return controls
}

func (b *Builder) control(in Input, before Control) Control {
	opts := in.controlOptions()
	switch in.Kind {
	case KindLeaf:
		value := in.Value
		if leaf, ok := before.(*FormControl); ok && leaf.Value() != nil {
			value = leaf.Value()
		}
		return NewFormControl(Boxed{Value: value, Disabled: in.Disabled}, opts...)
	case KindGroup:
		prevGroup, _ := before.(*FormGroup)
		return NewFormGroup(b.members(in.Inputs, prevGroup), opts...)
	case KindArray:
		prevArray, _ := before.(*FormArray)
		return NewFormArray(b.elements(in.Inputs, prevArray), opts...)
	default:
		return nil
	}
}

func countControls(c Control) int {
	n := 1
	c.forEachChild(func(_ string, ch Control) {
		n += countControls(ch)
	})
	return n
}

// Observers are the callbacks Observe registers. Nil callbacks are skipped.
type Observers struct {
	Value    func(value any)
	Status   func(status Status)
	State    func()
	Anything func(change Change)
}

// Observe subscribes the callbacks to c and returns a function that removes
// them all.
func Observe(c Control, o Observers) (unsubscribe func()) {
	var subs []*Subscription
	if o.Value != nil {
		subs = append(subs, c.ValueChanges().Subscribe(o.Value))
	}
	if o.Status != nil {
		subs = append(subs, c.StatusChanges().Subscribe(o.Status))
	}
	if o.State != nil {
		state := o.State
		subs = append(subs, c.StateChanges().Subscribe(func(struct{}) { state() }))
	}
	if o.Anything != nil {
		subs = append(subs, c.AnythingChanges().Subscribe(o.Anything))
	}
	return func() {
		for _, s := range subs {
			s.Unsubscribe()
		}
	}
}
