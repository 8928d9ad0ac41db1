package formz

// changeConfig carries the options shared by every mutator.
type changeConfig struct {
	onlySelf  bool
	emitEvent bool
}

// ChangeOption configures a single mutation.
type ChangeOption func(*changeConfig)

// OnlySelf stops the mutation from propagating to ancestors.
func OnlySelf() ChangeOption {
	return func(c *changeConfig) {
		c.onlySelf = true
	}
}

// WithoutEvents suppresses value, status and state broadcasts.
func WithoutEvents() ChangeOption {
	return func(c *changeConfig) {
		c.emitEvent = false
	}
}

// WithEmitEvent sets whether broadcasts are emitted. Events are emitted by
// default.
func WithEmitEvent(emit bool) ChangeOption {
	return func(c *changeConfig) {
		c.emitEvent = emit
	}
}

func newChangeConfig(opts []ChangeOption) changeConfig {
	cfg := changeConfig{emitEvent: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// child returns the options a composite hands to its children: only the
// child itself, with the caller's event setting.
func (c changeConfig) child() []ChangeOption {
	return []ChangeOption{OnlySelf(), WithEmitEvent(c.emitEvent)}
}

// controlConfig holds construction options for controls.
type controlConfig struct {
	validators      []ValidatorFunc
	asyncValidators []AsyncValidatorFunc
	updateOn        UpdateOn
	hidden          Condition
	disabledOn      Condition
}

// ControlOption configures a control at construction.
type ControlOption func(*controlConfig)

// Validate attaches synchronous validators, composed in order.
func Validate(validators ...ValidatorFunc) ControlOption {
	return func(c *controlConfig) {
		c.validators = append(c.validators, validators...)
	}
}

// ValidateAsync attaches async validators, composed in order.
func ValidateAsync(validators ...AsyncValidatorFunc) ControlOption {
	return func(c *controlConfig) {
		c.asyncValidators = append(c.asyncValidators, validators...)
	}
}

// UpdateOnEvent sets the control's update strategy.
func UpdateOnEvent(u UpdateOn) ControlOption {
	return func(c *controlConfig) {
		c.updateOn = u
	}
}

// HideWhen disables the control whenever cond holds for the form context.
func HideWhen(cond Condition) ControlOption {
	return func(c *controlConfig) {
		c.hidden = cond
	}
}

// DisableWhen disables the control whenever cond holds for the form context.
// Unlike HideWhen, the view layer is expected to keep rendering the control.
func DisableWhen(cond Condition) ControlOption {
	return func(c *controlConfig) {
		c.disabledOn = cond
	}
}

func newControlConfig(opts []ControlOption) controlConfig {
	var cfg controlConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
