package formz

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const signupYAML = `
inputs:
  - name: email
    type: email
    label: Email
    validators: [required, email]
  - kind: group
    name: address
    inputs:
      - name: city
        value: Lisbon
      - name: zip
        validators: ["pattern=[0-9]{4}"]
  - kind: array
    name: phones
    inputs:
      - value: 555-0100
  - name: company
    hidden: personal
  - kind: static
    content: We never share your address.
`

func TestParseDocument_ResolveAndBuild(t *testing.T) {
	doc, err := ParseDocument([]byte(signupYAML), nil)
	if err != nil {
		t.Fatalf("ParseDocument failed: %v", err)
	}

	cat := NewCatalog()
	cat.RegisterCondition("personal", dataFlag("personal"))

	inputs, err := doc.Resolve(cat)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(inputs) != 5 {
		t.Fatalf("expected 5 inputs, got %d", len(inputs))
	}
	if inputs[1].Kind != KindGroup || inputs[4].Kind != KindStatic {
		t.Errorf("unexpected kinds %s %s", inputs[1].Kind, inputs[4].Kind)
	}

	form := Build(inputs, nil)
	want := map[string]any{
		"email":   nil,
		"address": map[string]any{"city": "Lisbon", "zip": nil},
		"phones":  []any{"555-0100"},
		"company": nil,
	}
	if diff := cmp.Diff(want, form.Value()); diff != "" {
		t.Errorf("value mismatch (-want +got):\n%s", diff)
	}

	_ = form.Get("address.zip").SetValue("12")
	if !form.HasError("pattern", "address.zip") {
		t.Error("expected pattern validator resolved from the document")
	}

	form.SetContext(map[string]any{"personal": true})
	if !form.Get("company").Hidden() {
		t.Error("expected hidden condition resolved from the catalog")
	}
}

func TestDocument_ValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"no inputs", `{}`, "Inputs"},
		{"unknown kind", `{"inputs": [{"kind": "matrix", "name": "x"}]}`, "Kind"},
		{"bad updateOn", `{"inputs": [{"name": "x", "updateOn": "hover"}]}`, "UpdateOn"},
		{"dotted name", `{"inputs": [{"name": "a.b"}]}`, "Name"},
		{"unnamed leaf", `{"inputs": [{"label": "x"}]}`, "inputs[0]: name is required"},
		{"unnamed in group", `{"inputs": [{"kind": "group", "name": "g", "inputs": [{}]}]}`, "inputs[0].inputs[0]"},
		{"empty validator", `{"inputs": [{"name": "x", "validators": [""]}]}`, "Validators"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDocument([]byte(tt.doc), JSONCodec{})
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestDocument_UnnamedArrayElementsAllowed(t *testing.T) {
	doc := `{"inputs": [{"kind": "array", "name": "rows", "inputs": [{"kind": "group", "inputs": [{"name": "x"}]}]}]}`
	if _, err := ParseDocument([]byte(doc), nil); err != nil {
		t.Errorf("expected unnamed array elements accepted, got %v", err)
	}
}

func TestDocument_ResolveUnknownNames(t *testing.T) {
	tests := []struct {
		doc  string
		want error
	}{
		{`{"inputs": [{"name": "x", "validators": ["unique"]}]}`, ErrUnknownValidator},
		{`{"inputs": [{"name": "x", "asyncValidators": ["taken"]}]}`, ErrUnknownValidator},
		{`{"inputs": [{"name": "x", "disabledOn": "locked"}]}`, ErrUnknownCondition},
		{`{"inputs": [{"kind": "group", "name": "g", "inputs": [{"name": "y", "hidden": "nope"}]}]}`, ErrUnknownCondition},
	}
	for _, tt := range tests {
		doc, err := ParseDocument([]byte(tt.doc), nil)
		if err != nil {
			t.Fatalf("ParseDocument failed: %v", err)
		}
		if _, err := doc.Resolve(nil); !errors.Is(err, tt.want) {
			t.Errorf("expected %v, got %v", tt.want, err)
		}
	}
}

func TestDocument_ResolveRejectsUndefinedTag(t *testing.T) {
	doc, err := ParseDocument([]byte("inputs:\n  - name: code\n    value: abc\n    validators: [\"tag=nosuchrule\"]\n"), YAMLCodec{})
	if err != nil {
		t.Fatalf("ParseDocument failed: %v", err)
	}
	if _, err := doc.Resolve(nil); err == nil {
		t.Fatal("expected an undefined tag rule to fail resolution")
	}
}

func TestTag_UndefinedRulePanicsAtConstruction(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected Tag to panic on an undefined rule")
		}
	}()
	Tag("nosuchrule")
}

func TestParseDocument_Malformed(t *testing.T) {
	if _, err := ParseDocument([]byte("inputs: [unterminated"), YAMLCodec{}); err == nil {
		t.Error("expected unmarshal error")
	}
}
