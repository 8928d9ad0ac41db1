package formz

import (
	"maps"

	"github.com/google/uuid"
)

// Kind tags the variant of an Input.
type Kind int

const (
	// KindLeaf is a single-valued field.
	KindLeaf Kind = iota
	// KindGroup holds named children.
	KindGroup
	// KindArray holds indexed children.
	KindArray
	// KindStatic is presentation-only content with no control.
	KindStatic
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindGroup:
		return "group"
	case KindArray:
		return "array"
	case KindStatic:
		return "static"
	default:
		return "unknown"
	}
}

// ParseKind converts a string produced by Kind.String. The empty string is
// a leaf.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "", "leaf":
		return KindLeaf, true
	case "group":
		return KindGroup, true
	case "array":
		return KindArray, true
	case "static":
		return KindStatic, true
	default:
		return 0, false
	}
}

// Input describes one node of a form. The core reads only the fields that
// shape the control tree; Label, Placeholder, Component, Content and
// Metadata are carried for the view layer.
type Input struct {
	Kind Kind
	ID   string
	// Name keys the control in its parent group. Unnamed inputs inside a
	// group do not get a control.
	Name        string
	Label       string
	Placeholder string
	// Type is the field type, such as "email" or "number". Defaults may be
	// registered per type.
	Type string

	// Value and Disabled seed a leaf.
	Value    any
	Disabled bool

	Validators      []ValidatorFunc
	AsyncValidators []AsyncValidatorFunc
	UpdateOn        UpdateOn
	Hidden          Condition
	DisabledOn      Condition

	Component string
	// Metadata holds presentation settings keyed by presentation library.
	Metadata map[string]map[string]any

	// Inputs are the children of a group or array.
	Inputs []Input
	// Content is the body of a static node.
	Content string
}

// InputOption configures an Input.
type InputOption func(*Input)

func newInput(kind Kind, name string, opts []InputOption) Input {
	in := Input{Kind: kind, Name: name}
	for _, opt := range opts {
		opt(&in)
	}
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	return in
}

// NewLeaf describes a single-valued field.
func NewLeaf(name string, opts ...InputOption) Input {
	return newInput(KindLeaf, name, opts)
}

// NewGroup describes a group of named children.
func NewGroup(name string, children []Input, opts ...InputOption) Input {
	in := newInput(KindGroup, name, opts)
	in.Inputs = children
	return in
}

// NewArray describes a repeating list of children.
func NewArray(name string, children []Input, opts ...InputOption) Input {
	in := newInput(KindArray, name, opts)
	in.Inputs = children
	return in
}

// NewStatic describes presentation-only content.
func NewStatic(content string, opts ...InputOption) Input {
	in := newInput(KindStatic, "", opts)
	in.Content = content
	return in
}

// WithID sets the input ID instead of a generated UUID.
func WithID(id string) InputOption {
	return func(in *Input) { in.ID = id }
}

// WithLabel sets the display label.
func WithLabel(label string) InputOption {
	return func(in *Input) { in.Label = label }
}

// WithPlaceholder sets the placeholder text.
func WithPlaceholder(placeholder string) InputOption {
	return func(in *Input) { in.Placeholder = placeholder }
}

// WithType sets the field type, e.g. "email", used to pick defaults.
func WithType(fieldType string) InputOption {
	return func(in *Input) { in.Type = fieldType }
}

// WithValue sets a leaf's initial value.
func WithValue(value any) InputOption {
	return func(in *Input) { in.Value = value }
}

// WithDisabled builds a leaf disabled.
func WithDisabled(disabled bool) InputOption {
	return func(in *Input) { in.Disabled = disabled }
}

// WithValidators appends synchronous validators.
func WithValidators(validators ...ValidatorFunc) InputOption {
	return func(in *Input) { in.Validators = append(in.Validators, validators...) }
}

// WithAsyncValidators appends asynchronous validators.
func WithAsyncValidators(validators ...AsyncValidatorFunc) InputOption {
	return func(in *Input) { in.AsyncValidators = append(in.AsyncValidators, validators...) }
}

// WithUpdateOn sets when edits are committed and validated.
func WithUpdateOn(u UpdateOn) InputOption {
	return func(in *Input) { in.UpdateOn = u }
}

// WithHidden hides and disables the control while cond holds.
func WithHidden(cond Condition) InputOption {
	return func(in *Input) { in.Hidden = cond }
}

// WithDisabledOn disables the control while cond holds.
func WithDisabledOn(cond Condition) InputOption {
	return func(in *Input) { in.DisabledOn = cond }
}

// WithComponent names the component that renders the input.
func WithComponent(component string) InputOption {
	return func(in *Input) { in.Component = component }
}

// WithMetadata merges settings for one presentation library.
func WithMetadata(library string, settings map[string]any) InputOption {
	return func(in *Input) {
		if in.Metadata == nil {
			in.Metadata = make(map[string]map[string]any)
		}
		merged := maps.Clone(in.Metadata[library])
		if merged == nil {
			merged = make(map[string]any, len(settings))
		}
		maps.Copy(merged, settings)
		in.Metadata[library] = merged
	}
}

// controlOptions translates the control-shaping fields.
func (in Input) controlOptions() []ControlOption {
	return []ControlOption{
		Validate(in.Validators...),
		ValidateAsync(in.AsyncValidators...),
		UpdateOnEvent(in.UpdateOn),
		HideWhen(in.Hidden),
		DisableWhen(in.DisabledOn),
	}
}
