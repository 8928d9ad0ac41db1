package formz

import (
	"context"
	"strconv"
	"strings"

	"github.com/zoobzio/capitan"
)

// Control is the common surface of every node in a control tree:
// *FormControl, *FormGroup, *FormArray and *Form.
//
// A tree has a single owner. Every method must be called from the goroutine
// that owns the tree; only the notification channels and async validators
// may be touched from elsewhere.
type Control interface {
	// Value is the aggregate value. Groups produce map[string]any and
	// arrays produce []any, both excluding disabled children unless the
	// composite itself is disabled.
	Value() any
	// RawValue is like Value but always includes disabled descendants.
	RawValue() any
	Status() Status
	Errors() Errors
	Valid() bool
	Invalid() bool
	Pending() bool
	Enabled() bool
	Disabled() bool
	Pristine() bool
	Dirty() bool
	Touched() bool
	Untouched() bool
	Submitted() bool
	// Hidden reports whether the control's visibility condition holds.
	Hidden() bool
	UpdateOn() UpdateOn
	Parent() Control
	Root() Control
	// Path is the sequence of names and indices from the root.
	Path() []string

	ValueChanges() *Channel[any]
	StatusChanges() *Channel[Status]
	StateChanges() *Channel[struct{}]
	AnythingChanges() *Channel[Change]

	SetValue(value any, opts ...ChangeOption) error
	PatchValue(value any, opts ...ChangeOption) error
	Reset(state any, opts ...ChangeOption) error
	UpdateValueAndValidity(opts ...ChangeOption)
	MarkAsTouched(opts ...ChangeOption)
	MarkAsUntouched(opts ...ChangeOption)
	MarkAsDirty(opts ...ChangeOption)
	MarkAsPristine(opts ...ChangeOption)
	MarkAsPending(opts ...ChangeOption)
	MarkAsSubmitted(opts ...ChangeOption)
	MarkAsUnsubmitted(opts ...ChangeOption)
	Enable(opts ...ChangeOption)
	Disable(opts ...ChangeOption)
	SetErrors(errs Errors, opts ...ChangeOption)
	SetValidators(validators ...ValidatorFunc)
	SetAsyncValidators(validators ...AsyncValidatorFunc)
	ClearValidators()
	ClearAsyncValidators()

	// Get resolves a dot-delimited path such as "address.lines.0".
	Get(path string) Control
	// GetPath resolves explicit segments; ints index arrays.
	GetPath(segments ...any) Control
	GetError(code string, path ...any) any
	HasError(code string, path ...any) bool

	// Flush applies completed async validations and returns how many were
	// applied.
	Flush() int
	// Await applies async completions until none are outstanding in the tree.
	Await(ctx context.Context) error

	core() *control
	updateValue()
	allControlsDisabled() bool
	anyControls(cond func(Control) bool) bool
	forEachChild(fn func(key string, c Control))
	child(key string) Control
	keyOf(c Control) string
	checkValue(value any, strict bool) error
	syncPendingControls() bool
}

// Condition decides visibility or disablement from the form context.
type Condition func(ctx FormContext) bool

// FormContext is what conditions are evaluated against.
type FormContext struct {
	Root Control
	Data map[string]any
}

// control holds the state shared by all variants. self points at the
// concrete variant so shared code can reach overridden behaviour.
type control struct {
	self   Control
	parent Control

	value     any
	status    Status
	errors    Errors
	pristine  bool
	touched   bool
	submitted bool

	updateOn       UpdateOn
	validator      ValidatorFunc
	asyncValidator AsyncValidatorFunc
	asyncSub       *asyncSub
	mb             *mailbox

	hidden              Condition
	disabledOn          Condition
	disabledByCondition bool
	explicitlyDisabled  bool

	// pending-change buffer for blur and submit strategies
	pendingValue   any
	pendingChange  bool
	pendingDirty   bool
	pendingTouched bool

	valueChanges    *Channel[any]
	statusChanges   *Channel[Status]
	stateChanges    *Channel[struct{}]
	anythingChanges *Channel[Change]
}

func (c *control) init(self Control, cfg controlConfig) {
	c.self = self
	c.pristine = true
	c.updateOn = cfg.updateOn
	c.validator = Compose(cfg.validators...)
	c.asyncValidator = ComposeAsync(cfg.asyncValidators...)
	c.hidden = cfg.hidden
	c.disabledOn = cfg.disabledOn
	c.mb = newMailbox()
	c.valueChanges = NewChannel[any]()
	c.statusChanges = NewChannel[Status]()
	c.stateChanges = NewChannel[struct{}]()
	c.anythingChanges = NewChannel[Change]()
}

func (c *control) core() *control { return c }

func (c *control) Value() any        { return c.value }
func (c *control) Status() Status    { return c.status }
func (c *control) Errors() Errors    { return c.errors }
func (c *control) Valid() bool       { return c.status == StatusValid }
func (c *control) Invalid() bool     { return c.status == StatusInvalid }
func (c *control) Pending() bool     { return c.status == StatusPending }
func (c *control) Enabled() bool     { return c.status != StatusDisabled }
func (c *control) Disabled() bool    { return c.status == StatusDisabled }
func (c *control) Pristine() bool    { return c.pristine }
func (c *control) Dirty() bool       { return !c.pristine }
func (c *control) Touched() bool     { return c.touched }
func (c *control) Untouched() bool   { return !c.touched }
func (c *control) Submitted() bool   { return c.submitted }
func (c *control) Parent() Control   { return c.parent }

func (c *control) ValueChanges() *Channel[any]       { return c.valueChanges }
func (c *control) StatusChanges() *Channel[Status]   { return c.statusChanges }
func (c *control) StateChanges() *Channel[struct{}]  { return c.stateChanges }
func (c *control) AnythingChanges() *Channel[Change] { return c.anythingChanges }

// UpdateOn returns the control's strategy, inherited from the nearest
// ancestor that sets one.
func (c *control) UpdateOn() UpdateOn {
	if c.updateOn != "" {
		return c.updateOn
	}
	if c.parent != nil {
		return c.parent.UpdateOn()
	}
	return UpdateOnChange
}

// Root returns the topmost ancestor, or the control itself.
func (c *control) Root() Control {
	var x Control = c.self
	for x.Parent() != nil {
		x = x.Parent()
	}
	return x
}

func (c *control) Path() []string {
	if c.parent == nil {
		return nil
	}
	return append(c.parent.Path(), c.parent.keyOf(c.self))
}

func (c *control) pathString() string {
	return strings.Join(c.Path(), ".")
}

func (c *control) setParent(p Control) {
	c.parent = p
	if p != nil {
		c.mb.redirect(p.core().mb)
	}
}

// detach unlinks the control from its parent. Completions for the subtree,
// including any already queued in the old tree, move to its own mailbox.
func (c *control) detach() {
	old := c.Root().core()
	c.parent = nil
	c.mb.detach()
	for _, done := range old.mb.drain() {
		done.target.Root().core().mb.post(done)
	}
}

func (c *control) formContext() FormContext {
	root := c.Root()
	ctx := FormContext{Root: root}
	if f, ok := root.(*Form); ok {
		ctx.Data = f.data
	}
	return ctx
}

func (c *control) Hidden() bool {
	return c.hidden != nil && c.hidden(c.formContext())
}

// conditionHolds reports whether ch should be disabled by one of its
// conditions.
func conditionHolds(ch Control) bool {
	cc := ch.core()
	if cc.hidden == nil && cc.disabledOn == nil {
		return false
	}
	ctx := cc.formContext()
	return (cc.hidden != nil && cc.hidden(ctx)) || (cc.disabledOn != nil && cc.disabledOn(ctx))
}

// emit broadcasts in the fixed order value, status, state, then the combined
// change. Listener panics are reported through ListenerPanicked.
func (c *control) emit(kind ChangeKind) {
	if kind.Has(ChangeValue) {
		_ = c.valueChanges.Next(c.value) //nolint:errcheck // reported via ListenerPanicked
	}
	if kind.Has(ChangeStatus) {
		_ = c.statusChanges.Next(c.status) //nolint:errcheck // reported via ListenerPanicked
	}
	if kind.Has(ChangeState) {
		_ = c.stateChanges.Next(struct{}{}) //nolint:errcheck // reported via ListenerPanicked
	}
	_ = c.anythingChanges.Next(Change{Kind: kind, Control: c.self}) //nolint:errcheck // reported via ListenerPanicked
}

func (c *control) noteStatus(prev Status) {
	if prev == c.status {
		return
	}
	capitan.Emit(context.Background(), ControlStatusChanged,
		KeyPath.Field(c.pathString()),
		KeyOldStatus.Field(prev.String()),
		KeyNewStatus.Field(c.status.String()),
	)
}

// UpdateValueAndValidity recomputes the value, runs validators and recomputes
// the status, then repeats on every ancestor unless OnlySelf is given.
func (c *control) UpdateValueAndValidity(opts ...ChangeOption) {
	c.updateValueAndValidity(newChangeConfig(opts))
}

func (c *control) updateValueAndValidity(cfg changeConfig) {
	prev := c.status
	c.setInitialStatus()
	c.self.updateValue()
	c.cancelAsync()

	if c.Enabled() {
		if c.shouldValidate() {
			c.errors = c.runValidator()
		} else {
			c.errors = nil
		}
		c.status = c.calculateStatus()
		if c.shouldValidate() && (c.status == StatusValid || c.status == StatusPending) {
			c.runAsyncValidator(cfg.emitEvent)
		}
	}

	if cfg.emitEvent {
		c.emit(changeAll)
	}
	c.noteStatus(prev)

	if c.parent != nil && !cfg.onlySelf {
		c.parent.core().updateValueAndValidity(cfg)
	}
}

// initialConfig is used for the first validation of a new control. Nobody
// can be listening yet, but an async result may arrive after subscribers
// have been added, so it is broadcast when there is an async validator.
func (c *control) initialConfig() changeConfig {
	return changeConfig{onlySelf: true, emitEvent: c.asyncValidator != nil}
}

// shouldValidate defers validation of submit-strategy controls until the
// form has been submitted.
func (c *control) shouldValidate() bool {
	return c.UpdateOn() != UpdateOnSubmit || c.submitted
}

func (c *control) setInitialStatus() {
	if c.self.allControlsDisabled() {
		c.status = StatusDisabled
	} else {
		c.status = StatusValid
	}
}

func (c *control) calculateStatus() Status {
	switch {
	case c.self.allControlsDisabled():
		return StatusDisabled
	case len(c.errors) > 0:
		return StatusInvalid
	case c.asyncSub != nil:
		return StatusPending
	case c.self.anyControls(func(ch Control) bool { return ch.Status() == StatusPending }):
		return StatusPending
	case c.self.anyControls(func(ch Control) bool { return ch.Status() == StatusInvalid }):
		return StatusInvalid
	default:
		return StatusValid
	}
}

func (c *control) runValidator() Errors {
	if c.validator == nil {
		return nil
	}
	return normalizeErrors(c.validator(c.self))
}

func (c *control) cancelAsync() {
	if c.asyncSub == nil {
		return
	}
	c.asyncSub.cancel()
	c.asyncSub = nil
}

// runAsyncValidator starts the async validator and holds the control at
// PENDING. The result is applied by Flush or Await on the owning goroutine;
// a result whose handle is no longer current is discarded.
func (c *control) runAsyncValidator(emit bool) {
	if c.asyncValidator == nil {
		return
	}
	c.status = StatusPending

	ctx, cancel := context.WithCancel(context.Background())
	sub := &asyncSub{cancel: cancel}
	c.asyncSub = sub

	capitan.Emit(ctx, AsyncValidationStarted,
		KeyPath.Field(c.pathString()),
	)

	results := c.asyncValidator(ctx, c.self)
	mb := c.mb
	go func() {
		var res AsyncResult
		if results == nil {
			<-ctx.Done()
		} else {
			select {
			case r, ok := <-results:
				if ok {
					res = r
				}
			case <-ctx.Done():
			}
		}
		mb.post(completion{target: c, sub: sub, result: res, emit: emit})
	}()
}

func (c *control) applyAsync(done completion) {
	if c.asyncSub != done.sub {
		capitan.Emit(context.Background(), AsyncValidationDiscarded,
			KeyPath.Field(c.pathString()),
		)
		return
	}
	c.asyncSub.cancel()
	c.asyncSub = nil

	errs := done.result.Errors
	if done.result.Err != nil {
		errs = mergeErrors(errs, Errors{ErrorAsyncValidationFailed: done.result.Err})
	}
	capitan.Emit(context.Background(), AsyncValidationCompleted,
		KeyPath.Field(c.pathString()),
		KeyErrors.Field(len(errs)),
	)
	c.setErrors(errs, changeConfig{emitEvent: done.emit})
}

// Flush applies every async completion queued for this control's tree.
func (c *control) Flush() int {
	root := c.Root().core()
	applied := 0
	for {
		queued := root.mb.drain()
		if len(queued) == 0 {
			return applied
		}
		for _, done := range queued {
			// Completions queued before their control was removed belong to
			// its new tree.
			if owner := done.target.Root().core(); owner != root {
				owner.mb.post(done)
				continue
			}
			done.target.applyAsync(done)
			applied++
		}
	}
}

// Await applies async completions until no control in the tree has an async
// validation outstanding, or ctx is done.
func (c *control) Await(ctx context.Context) error {
	for {
		c.Flush()
		root := c.Root()
		if !inflight(root) {
			return nil
		}
		select {
		case <-root.core().mb.signal:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func inflight(c Control) bool {
	if c.core().asyncSub != nil {
		return true
	}
	found := false
	c.forEachChild(func(_ string, ch Control) {
		if !found && inflight(ch) {
			found = true
		}
	})
	return found
}

// SetErrors replaces the control's errors and recomputes its status and the
// status of every ancestor.
func (c *control) SetErrors(errs Errors, opts ...ChangeOption) {
	c.setErrors(errs, newChangeConfig(opts))
}

func (c *control) setErrors(errs Errors, cfg changeConfig) {
	c.errors = normalizeErrors(errs)
	c.updateControlsErrors(cfg.emitEvent)
}

func (c *control) updateControlsErrors(emit bool) {
	prev := c.status
	c.status = c.calculateStatus()
	if emit {
		c.emit(ChangeStatus | ChangeState)
	}
	c.noteStatus(prev)
	if c.parent != nil {
		c.parent.core().updateControlsErrors(emit)
	}
}

func (c *control) SetValidators(validators ...ValidatorFunc) {
	c.validator = Compose(validators...)
}

func (c *control) SetAsyncValidators(validators ...AsyncValidatorFunc) {
	c.asyncValidator = ComposeAsync(validators...)
}

func (c *control) ClearValidators()      { c.validator = nil }
func (c *control) ClearAsyncValidators() { c.asyncValidator = nil }

// MarkAsTouched marks the control and, unless OnlySelf, its ancestors.
func (c *control) MarkAsTouched(opts ...ChangeOption) {
	c.markAsTouched(newChangeConfig(opts))
}

func (c *control) markAsTouched(cfg changeConfig) {
	c.touched = true
	if cfg.emitEvent {
		c.emit(ChangeState)
	}
	if c.parent != nil && !cfg.onlySelf {
		c.parent.core().markAsTouched(cfg)
	}
}

// MarkAsUntouched clears touched on the control and every descendant, then
// lets ancestors recompute their own flag.
func (c *control) MarkAsUntouched(opts ...ChangeOption) {
	c.markAsUntouched(newChangeConfig(opts))
}

func (c *control) markAsUntouched(cfg changeConfig) {
	c.touched = false
	c.pendingTouched = false
	c.self.forEachChild(func(_ string, ch Control) {
		ch.core().markAsUntouched(changeConfig{onlySelf: true, emitEvent: cfg.emitEvent})
	})
	if cfg.emitEvent {
		c.emit(ChangeState)
	}
	if c.parent != nil && !cfg.onlySelf {
		c.parent.core().updateTouched(cfg)
	}
}

// MarkAsDirty marks the control and, unless OnlySelf, its ancestors.
func (c *control) MarkAsDirty(opts ...ChangeOption) {
	c.markAsDirty(newChangeConfig(opts))
}

func (c *control) markAsDirty(cfg changeConfig) {
	c.pristine = false
	if cfg.emitEvent {
		c.emit(ChangeState)
	}
	if c.parent != nil && !cfg.onlySelf {
		c.parent.core().markAsDirty(cfg)
	}
}

// MarkAsPristine clears dirty on the control and every descendant, then lets
// ancestors recompute their own flag.
func (c *control) MarkAsPristine(opts ...ChangeOption) {
	c.markAsPristine(newChangeConfig(opts))
}

func (c *control) markAsPristine(cfg changeConfig) {
	c.pristine = true
	c.pendingDirty = false
	c.self.forEachChild(func(_ string, ch Control) {
		ch.core().markAsPristine(changeConfig{onlySelf: true, emitEvent: cfg.emitEvent})
	})
	if cfg.emitEvent {
		c.emit(ChangeState)
	}
	if c.parent != nil && !cfg.onlySelf {
		c.parent.core().updatePristine(cfg)
	}
}

func (c *control) updatePristine(cfg changeConfig) {
	c.pristine = !c.self.anyControls(Control.Dirty)
	if cfg.emitEvent {
		c.emit(ChangeState)
	}
	if c.parent != nil && !cfg.onlySelf {
		c.parent.core().updatePristine(cfg)
	}
}

func (c *control) updateTouched(cfg changeConfig) {
	c.touched = c.self.anyControls(Control.Touched)
	if cfg.emitEvent {
		c.emit(ChangeState)
	}
	if c.parent != nil && !cfg.onlySelf {
		c.parent.core().updateTouched(cfg)
	}
}

// MarkAsPending sets the status to PENDING on the control and, unless
// OnlySelf, its ancestors.
func (c *control) MarkAsPending(opts ...ChangeOption) {
	c.markAsPending(newChangeConfig(opts))
}

func (c *control) markAsPending(cfg changeConfig) {
	prev := c.status
	c.status = StatusPending
	if cfg.emitEvent {
		c.emit(ChangeStatus | ChangeState)
	}
	c.noteStatus(prev)
	if c.parent != nil && !cfg.onlySelf {
		c.parent.core().markAsPending(cfg)
	}
}

// MarkAsSubmitted marks the control and every descendant as submitted.
func (c *control) MarkAsSubmitted(opts ...ChangeOption) {
	c.setSubmitted(true, newChangeConfig(opts))
}

// MarkAsUnsubmitted clears the submitted flag on the control and every
// descendant.
func (c *control) MarkAsUnsubmitted(opts ...ChangeOption) {
	c.setSubmitted(false, newChangeConfig(opts))
}

func (c *control) setSubmitted(submitted bool, cfg changeConfig) {
	c.submitted = submitted
	c.self.forEachChild(func(_ string, ch Control) {
		ch.core().setSubmitted(submitted, changeConfig{onlySelf: true, emitEvent: cfg.emitEvent})
	})
	if cfg.emitEvent {
		c.emit(ChangeState)
	}
}

// Disable disables the control and every descendant, clears errors and
// cancels any async validation. Ancestors are updated unless OnlySelf.
func (c *control) Disable(opts ...ChangeOption) {
	c.explicitlyDisabled = true
	c.disabledByCondition = false
	c.disable(newChangeConfig(opts))
}

func (c *control) disable(cfg changeConfig) {
	prev := c.status
	c.cancelAsync()
	c.status = StatusDisabled
	c.errors = nil
	c.self.forEachChild(func(_ string, ch Control) {
		ch.core().disable(changeConfig{onlySelf: true, emitEvent: cfg.emitEvent})
	})
	c.self.updateValue()
	if cfg.emitEvent {
		c.emit(changeAll)
	}
	c.noteStatus(prev)
	c.updateAncestors(cfg)
}

// Enable enables the control and every descendant, except children whose
// visibility or disablement condition holds; those are disabled instead.
// Ancestors are updated unless OnlySelf.
func (c *control) Enable(opts ...ChangeOption) {
	c.enable(newChangeConfig(opts), false)
}

// enable enables c and cascades to its children. With keepExplicit,
// descendants disabled through Disable or a boxed state stay disabled.
func (c *control) enable(cfg changeConfig, keepExplicit bool) {
	c.status = StatusValid
	c.disabledByCondition = false
	c.explicitlyDisabled = false
	childCfg := changeConfig{onlySelf: true, emitEvent: cfg.emitEvent}
	c.self.forEachChild(func(_ string, ch Control) {
		cc := ch.core()
		if conditionHolds(ch) {
			cc.disable(childCfg)
			cc.disabledByCondition = true
			return
		}
		if keepExplicit && cc.explicitlyDisabled {
			if ch.Enabled() {
				cc.disable(childCfg)
			}
			return
		}
		cc.enable(childCfg, keepExplicit)
	})
	c.updateValueAndValidity(childCfg)
	c.updateAncestors(cfg)
}

func (c *control) updateAncestors(cfg changeConfig) {
	if c.parent == nil || cfg.onlySelf {
		return
	}
	p := c.parent.core()
	p.updateValueAndValidity(cfg)
	p.updatePristine(cfg)
	p.updateTouched(cfg)
}

// Get resolves a dot-delimited path. It returns nil when any segment is
// missing.
func (c *control) Get(path string) Control {
	if path == "" {
		return nil
	}
	parts := strings.Split(path, ".")
	segments := make([]any, len(parts))
	for i, p := range parts {
		segments[i] = p
	}
	return c.GetPath(segments...)
}

// GetPath resolves explicit segments. Strings name group children, ints
// index array children; a numeric string also indexes an array. It returns
// nil when any segment is missing.
func (c *control) GetPath(segments ...any) Control {
	if len(segments) == 0 {
		return nil
	}
	var x Control = c.self
	for _, seg := range segments {
		var key string
		switch s := seg.(type) {
		case string:
			key = s
		case int:
			key = strconv.Itoa(s)
		default:
			return nil
		}
		next := x.child(key)
		if next == nil {
			return nil
		}
		x = next
	}
	return x
}

// GetError returns the metadata for code on the control at path, or on the
// control itself when no path is given.
func (c *control) GetError(code string, path ...any) any {
	target := c.lookup(path)
	if target == nil {
		return nil
	}
	return target.Errors().Get(code)
}

// HasError reports whether the control at path has code.
func (c *control) HasError(code string, path ...any) bool {
	target := c.lookup(path)
	if target == nil {
		return false
	}
	return target.Errors().Has(code)
}

func (c *control) lookup(path []any) Control {
	if len(path) == 0 {
		return c.self
	}
	if len(path) == 1 {
		if s, ok := path[0].(string); ok {
			return c.Get(s)
		}
	}
	return c.GetPath(path...)
}
