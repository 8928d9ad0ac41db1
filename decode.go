package formz

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// DecodeTag is the struct tag Decode reads field names from.
const DecodeTag = "form"

// Decode copies the group's value into out, which must be a pointer to a
// struct or map. Fields are matched by their `form` tag, falling back to a
// case-insensitive field name match. Scalars are converted weakly, so "42"
// fills an int field. Disabled children are absent, as they are from Value.
func (g *FormGroup) Decode(out any) error {
	return decodeValue(g.Value(), out)
}

// DecodeRaw is Decode over RawValue, disabled children included.
func (g *FormGroup) DecodeRaw(out any) error {
	return decodeValue(g.RawValue(), out)
}

func decodeValue(value, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          DecodeTag,
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := dec.Decode(value); err != nil {
		return fmt.Errorf("failed to decode form value: %w", err)
	}
	return nil
}
