package formz

import (
	"errors"
	"fmt"
)

// Document is the serialized form of an input tree, as read by LiveForm and
// the formz command.
type Document struct {
	Inputs []InputDoc `json:"inputs" yaml:"inputs" validate:"required,dive"`
}

// InputDoc is the serialized form of one Input. Validators and conditions
// are referenced by Catalog name.
type InputDoc struct {
	Kind            string                    `json:"kind,omitempty" yaml:"kind,omitempty" validate:"omitempty,oneof=leaf group array static"`
	ID              string                    `json:"id,omitempty" yaml:"id,omitempty"`
	Name            string                    `json:"name,omitempty" yaml:"name,omitempty" validate:"omitempty,max=128,excludesall=."`
	Label           string                    `json:"label,omitempty" yaml:"label,omitempty"`
	Placeholder     string                    `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Type            string                    `json:"type,omitempty" yaml:"type,omitempty"`
	Value           any                       `json:"value,omitempty" yaml:"value,omitempty"`
	Disabled        bool                      `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	UpdateOn        string                    `json:"updateOn,omitempty" yaml:"updateOn,omitempty" validate:"omitempty,oneof=change blur submit"`
	Validators      []string                  `json:"validators,omitempty" yaml:"validators,omitempty" validate:"dive,required"`
	AsyncValidators []string                  `json:"asyncValidators,omitempty" yaml:"asyncValidators,omitempty" validate:"dive,required"`
	Hidden          string                    `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	DisabledOn      string                    `json:"disabledOn,omitempty" yaml:"disabledOn,omitempty"`
	Component       string                    `json:"component,omitempty" yaml:"component,omitempty"`
	Metadata        map[string]map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Inputs          []InputDoc                `json:"inputs,omitempty" yaml:"inputs,omitempty" validate:"dive"`
	Content         string                    `json:"content,omitempty" yaml:"content,omitempty"`
}

// ParseDocument decodes data with codec and validates the result. A nil
// codec auto-detects JSON or YAML.
func ParseDocument(data []byte, codec Codec) (*Document, error) {
	if codec == nil {
		codec = AutoCodec{}
	}
	var doc Document
	if err := codec.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal failed: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks struct tags and that every control-bearing child of a
// group has a name.
func (d *Document) Validate() error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if err := checkNames(d.Inputs, "inputs"); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

func checkNames(inputs []InputDoc, at string) error {
	var errs []error
	for i, in := range inputs {
		path := fmt.Sprintf("%s[%d]", at, i)
		if in.Kind != "static" && in.Name == "" {
			errs = append(errs, fmt.Errorf("%s: name is required", path))
		}
		if in.Kind == "group" {
			errs = append(errs, checkNames(in.Inputs, path+".inputs"))
		}
		if in.Kind == "array" {
			errs = append(errs, checkArray(in.Inputs, path+".inputs"))
		}
	}
	return errors.Join(errs...)
}

// checkArray allows unnamed elements but still descends into groups.
func checkArray(inputs []InputDoc, at string) error {
	var errs []error
	for i, in := range inputs {
		path := fmt.Sprintf("%s[%d]", at, i)
		switch in.Kind {
		case "group":
			errs = append(errs, checkNames(in.Inputs, path+".inputs"))
		case "array":
			errs = append(errs, checkArray(in.Inputs, path+".inputs"))
		}
	}
	return errors.Join(errs...)
}

// Resolve turns the document into inputs, looking validator and condition
// names up in catalog. A nil catalog uses NewCatalog.
func (d *Document) Resolve(catalog *Catalog) ([]Input, error) {
	if catalog == nil {
		catalog = NewCatalog()
	}
	return resolveInputs(d.Inputs, catalog)
}

func resolveInputs(docs []InputDoc, catalog *Catalog) ([]Input, error) {
	inputs := make([]Input, 0, len(docs))
	for _, doc := range docs {
		in, err := doc.resolve(catalog)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

func (doc InputDoc) resolve(catalog *Catalog) (Input, error) {
	kind, ok := ParseKind(doc.Kind)
	if !ok {
		return Input{}, fmt.Errorf("input %q: unknown kind %q", doc.Name, doc.Kind)
	}
	opts := []InputOption{
		WithLabel(doc.Label),
		WithPlaceholder(doc.Placeholder),
		WithType(doc.Type),
		WithValue(doc.Value),
		WithDisabled(doc.Disabled),
		WithUpdateOn(UpdateOn(doc.UpdateOn)),
		WithComponent(doc.Component),
	}
	if doc.ID != "" {
		opts = append(opts, WithID(doc.ID))
	}
	for lib, settings := range doc.Metadata {
		opts = append(opts, WithMetadata(lib, settings))
	}
	for _, spec := range doc.Validators {
		v, err := catalog.Validator(spec)
		if err != nil {
			return Input{}, fmt.Errorf("input %q: %w", doc.Name, err)
		}
		opts = append(opts, WithValidators(v))
	}
	for _, name := range doc.AsyncValidators {
		v, err := catalog.Async(name)
		if err != nil {
			return Input{}, fmt.Errorf("input %q: %w", doc.Name, err)
		}
		opts = append(opts, WithAsyncValidators(v))
	}
	if doc.Hidden != "" {
		cond, err := catalog.Condition(doc.Hidden)
		if err != nil {
			return Input{}, fmt.Errorf("input %q: %w", doc.Name, err)
		}
		opts = append(opts, WithHidden(cond))
	}
	if doc.DisabledOn != "" {
		cond, err := catalog.Condition(doc.DisabledOn)
		if err != nil {
			return Input{}, fmt.Errorf("input %q: %w", doc.Name, err)
		}
		opts = append(opts, WithDisabledOn(cond))
	}

	switch kind {
	case KindStatic:
		return NewStatic(doc.Content, opts...), nil
	case KindGroup, KindArray:
		children, err := resolveInputs(doc.Inputs, catalog)
		if err != nil {
			return Input{}, err
		}
		if kind == KindGroup {
			return NewGroup(doc.Name, children, opts...), nil
		}
		return NewArray(doc.Name, children, opts...), nil
	default:
		return NewLeaf(doc.Name, opts...), nil
	}
}
