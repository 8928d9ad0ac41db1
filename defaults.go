package formz

import (
	"maps"
	"slices"
	"sync"
)

// Defaults is a registry of default input properties, keyed by kind and by
// field type. It is passed to a Builder explicitly; nothing is global.
//
// Resolution layers the kind defaults, then the type defaults, then the
// input itself. A zero field never overrides a lower layer, so defaults
// cannot be cleared per input, only replaced.
type Defaults struct {
	mu     sync.RWMutex
	byKind map[Kind]Input
	byType map[string]Input
}

// NewDefaults creates an empty registry.
func NewDefaults() *Defaults {
	return &Defaults{
		byKind: make(map[Kind]Input),
		byType: make(map[string]Input),
	}
}

// Update merges props into the defaults for kind.
func (d *Defaults) Update(kind Kind, props Input) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byKind[kind] = overlay(d.byKind[kind], props)
}

// UpdateType merges props into the defaults for a field type.
func (d *Defaults) UpdateType(fieldType string, props Input) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byType[fieldType] = overlay(d.byType[fieldType], props)
}

// Reset removes every default.
func (d *Defaults) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	clear(d.byKind)
	clear(d.byType)
}

// Resolve returns in with defaults applied. Kind, ID, Name and children are
// always taken from in. A nil registry returns in unchanged.
func (d *Defaults) Resolve(in Input) Input {
	if d == nil {
		return in
	}
	d.mu.RLock()
	base, hasKind := d.byKind[in.Kind]
	typed, hasType := d.byType[in.Type]
	d.mu.RUnlock()

	if !hasKind && !hasType {
		return in
	}
	out := overlay(overlay(base, typed), in)
	out.Kind = in.Kind
	out.ID = in.ID
	out.Name = in.Name
	out.Inputs = in.Inputs
	return out
}

// overlay returns base with every non-zero field of top applied.
func overlay(base, top Input) Input {
	out := base
	if top.Label != "" {
		out.Label = top.Label
	}
	if top.Placeholder != "" {
		out.Placeholder = top.Placeholder
	}
	if top.Type != "" {
		out.Type = top.Type
	}
	if top.Value != nil {
		out.Value = top.Value
	}
	if top.Disabled {
		out.Disabled = true
	}
	if len(top.Validators) > 0 {
		out.Validators = slices.Clone(top.Validators)
	}
	if len(top.AsyncValidators) > 0 {
		out.AsyncValidators = slices.Clone(top.AsyncValidators)
	}
	if top.UpdateOn != "" {
		out.UpdateOn = top.UpdateOn
	}
	if top.Hidden != nil {
		out.Hidden = top.Hidden
	}
	if top.DisabledOn != nil {
		out.DisabledOn = top.DisabledOn
	}
	if top.Component != "" {
		out.Component = top.Component
	}
	if top.Content != "" {
		out.Content = top.Content
	}
	if len(top.Metadata) > 0 {
		merged := make(map[string]map[string]any, len(base.Metadata)+len(top.Metadata))
		for lib, settings := range base.Metadata {
			merged[lib] = maps.Clone(settings)
		}
		for lib, settings := range top.Metadata {
			if merged[lib] == nil {
				merged[lib] = make(map[string]any, len(settings))
			}
			maps.Copy(merged[lib], settings)
		}
		out.Metadata = merged
	}
	return out
}
