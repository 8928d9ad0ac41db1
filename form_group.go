package formz

import (
	"fmt"
	"reflect"
	"slices"
	"sort"
	"strings"
)

// Member is a named child used to construct a FormGroup in order.
type Member struct {
	Name    string
	Control Control
}

// FormGroup is a composite whose children are addressed by name. Children
// keep their registration order, which is also the order of iteration.
type FormGroup struct {
	control
	names    []string
	controls map[string]Control
}

// NewFormGroup creates a group from members. A repeated name keeps the
// first control.
func NewFormGroup(members []Member, opts ...ControlOption) *FormGroup {
	g := &FormGroup{}
	g.initGroup(g, members, newControlConfig(opts))
	return g
}

func (g *FormGroup) initGroup(self Control, members []Member, cfg controlConfig) {
	g.init(self, cfg)
	g.controls = make(map[string]Control, len(members))
	for _, m := range members {
		g.registerControl(m.Name, m.Control)
	}
	g.updateValueAndValidity(g.initialConfig())
}

// RegisterControl adds a child without revalidating. If name is taken the
// existing child is returned and c is ignored.
func (g *FormGroup) RegisterControl(name string, c Control) Control {
	return g.registerControl(name, c)
}

func (g *FormGroup) registerControl(name string, c Control) Control {
	if existing, ok := g.controls[name]; ok {
		return existing
	}
	g.names = append(g.names, name)
	g.controls[name] = c
	c.core().setParent(g.self)
	return c
}

// AddControl registers c under name and revalidates. A taken name is left
// unchanged.
func (g *FormGroup) AddControl(name string, c Control, opts ...ChangeOption) {
	g.registerControl(name, c)
	g.updateValueAndValidity(newChangeConfig(opts))
}

// RemoveControl removes the child called name, if any, and revalidates.
func (g *FormGroup) RemoveControl(name string, opts ...ChangeOption) {
	if existing, ok := g.controls[name]; ok {
		existing.core().detach()
		delete(g.controls, name)
		g.names = slices.DeleteFunc(g.names, func(n string) bool { return n == name })
	}
	g.updateValueAndValidity(newChangeConfig(opts))
}

// SetControl replaces the child called name, keeping its position, or adds
// it when absent. The group is revalidated.
func (g *FormGroup) SetControl(name string, c Control, opts ...ChangeOption) {
	if existing, ok := g.controls[name]; ok {
		existing.core().detach()
		g.controls[name] = c
		c.core().setParent(g.self)
	} else {
		g.registerControl(name, c)
	}
	g.updateValueAndValidity(newChangeConfig(opts))
}

// Contains reports whether an enabled child called name exists.
func (g *FormGroup) Contains(name string) bool {
	c, ok := g.controls[name]
	return ok && c.Enabled()
}

// Control returns the child called name, or nil.
func (g *FormGroup) Control(name string) Control {
	if c, ok := g.controls[name]; ok {
		return c
	}
	return nil
}

// Names returns the child names in registration order.
func (g *FormGroup) Names() []string {
	return slices.Clone(g.names)
}

// Len returns the number of children.
func (g *FormGroup) Len() int {
	return len(g.names)
}

// SetValue sets every child. value must be a map with an entry for each
// child and no unknown keys; otherwise an error is returned and nothing
// changes.
func (g *FormGroup) SetValue(value any, opts ...ChangeOption) error {
	if err := g.self.checkValue(value, true); err != nil {
		return err
	}
	cfg := newChangeConfig(opts)
	vals, _ := toMap(value)
	for _, name := range g.names {
		_ = g.controls[name].SetValue(vals[name], cfg.child()...) //nolint:errcheck // shape checked above
	}
	g.updateValueAndValidity(cfg)
	return nil
}

// PatchValue sets the children present in value and ignores unknown keys.
// A nil value is a no-op.
func (g *FormGroup) PatchValue(value any, opts ...ChangeOption) error {
	if value == nil {
		return nil
	}
	if err := g.self.checkValue(value, false); err != nil {
		return err
	}
	cfg := newChangeConfig(opts)
	vals, _ := toMap(value)
	for _, name := range g.names {
		if v, ok := vals[name]; ok {
			_ = g.controls[name].PatchValue(v, cfg.child()...) //nolint:errcheck // shape checked above
		}
	}
	g.updateValueAndValidity(cfg)
	return nil
}

// Reset resets every child from the matching entry of state, which may be
// nil, then marks the group pristine, untouched and unsubmitted.
func (g *FormGroup) Reset(state any, opts ...ChangeOption) error {
	if err := g.self.checkValue(state, false); err != nil {
		return err
	}
	vals, _ := toMap(state)
	cfg := newChangeConfig(opts)
	for _, name := range g.names {
		_ = g.controls[name].Reset(vals[name], cfg.child()...) //nolint:errcheck // shape checked above
	}
	g.updateValueAndValidity(cfg)
	g.setSubmitted(false, changeConfig{onlySelf: true, emitEvent: cfg.emitEvent})
	g.updatePristine(cfg)
	g.updateTouched(cfg)
	return nil
}

// RawValue returns the values of all children, disabled or not.
func (g *FormGroup) RawValue() any {
	raw := make(map[string]any, len(g.names))
	for _, name := range g.names {
		raw[name] = g.controls[name].RawValue()
	}
	return raw
}

func (g *FormGroup) updateValue() {
	value := make(map[string]any, len(g.names))
	for _, name := range g.names {
		c := g.controls[name]
		if c.Enabled() || g.Disabled() {
			value[name] = c.Value()
		}
	}
	g.value = value
}

func (g *FormGroup) allControlsDisabled() bool {
	for _, name := range g.names {
		if g.controls[name].Enabled() {
			return false
		}
	}
	return len(g.names) > 0 || g.Disabled()
}

func (g *FormGroup) anyControls(cond func(Control) bool) bool {
	for _, name := range g.names {
		c := g.controls[name]
		if c.Enabled() && cond(c) {
			return true
		}
	}
	return false
}

func (g *FormGroup) forEachChild(fn func(string, Control)) {
	for _, name := range slices.Clone(g.names) {
		fn(name, g.controls[name])
	}
}

func (g *FormGroup) child(key string) Control {
	return g.Control(key)
}

func (g *FormGroup) keyOf(c Control) string {
	for _, name := range g.names {
		if g.controls[name] == c {
			return name
		}
	}
	return ""
}

func (g *FormGroup) syncPendingControls() bool {
	updated := false
	for _, name := range g.names {
		if g.controls[name].syncPendingControls() {
			updated = true
		}
	}
	if updated {
		g.updateValueAndValidity(changeConfig{onlySelf: true, emitEvent: true})
	}
	return updated
}

func (g *FormGroup) checkValue(value any, strict bool) error {
	if value == nil && !strict {
		return nil
	}
	vals, ok := toMap(value)
	if !ok {
		return fmt.Errorf("%w: %s expects a map, got %T", ErrInvalidValue, describe(g.Path()), value)
	}
	if !strict {
		for _, name := range g.names {
			if v, ok := vals[name]; ok {
				if err := g.controls[name].checkValue(v, false); err != nil {
					return err
				}
			}
		}
		return nil
	}

	if len(g.names) == 0 {
		return fmt.Errorf("%w: %s", ErrNoControls, describe(g.Path()))
	}
	keys := make([]string, 0, len(vals))
	for k := range vals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, ok := g.controls[k]; !ok {
			return fmt.Errorf("%w: %q", ErrControlMissing, joinPath(g.Path(), k))
		}
	}
	for _, name := range g.names {
		v, ok := vals[name]
		if !ok {
			return fmt.Errorf("%w: %q", ErrValueMissing, joinPath(g.Path(), name))
		}
		if err := g.controls[name].checkValue(v, true); err != nil {
			return err
		}
	}
	return nil
}

// toMap accepts map[string]any or any map keyed by strings.
func toMap(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	m := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		m[iter.Key().String()] = iter.Value().Interface()
	}
	return m, true
}

func joinPath(base []string, key string) string {
	return strings.Join(append(slices.Clone(base), key), ".")
}

func describe(path []string) string {
	if len(path) == 0 {
		return "root"
	}
	return fmt.Sprintf("%q", strings.Join(path, "."))
}
