package formz

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newCredentials() *FormGroup {
	return NewFormGroup([]Member{
		{Name: "user", Control: NewFormControl("ada", Validate(Required))},
		{Name: "pass", Control: NewFormControl("", Validate(Required))},
	})
}

func TestFormGroup_ValueAndOrder(t *testing.T) {
	g := newCredentials()

	if diff := cmp.Diff([]string{"user", "pass"}, g.Names()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
	if g.Len() != 2 {
		t.Errorf("expected 2 children, got %d", g.Len())
	}
	if diff := cmp.Diff(map[string]any{"user": "ada", "pass": ""}, g.Value()); diff != "" {
		t.Errorf("value mismatch (-want +got):\n%s", diff)
	}
	if g.Status() != StatusInvalid {
		t.Errorf("expected INVALID, got %s", g.Status())
	}
	if g.Control("user").Parent() != Control(g) {
		t.Error("expected child parented to the group")
	}
}

func TestFormGroup_DuplicateNameKeepsFirst(t *testing.T) {
	first := NewFormControl(1)
	g := NewFormGroup([]Member{
		{Name: "x", Control: first},
		{Name: "x", Control: NewFormControl(2)},
	})

	if g.Len() != 1 || g.Control("x") != Control(first) {
		t.Error("expected the first control to win")
	}
	if got := g.RegisterControl("x", NewFormControl(3)); got != Control(first) {
		t.Error("expected RegisterControl to return the existing child")
	}
}

func TestFormGroup_SetValue(t *testing.T) {
	g := newCredentials()

	if err := g.SetValue(map[string]any{"user": "grace", "pass": "hopper"}); err != nil {
		t.Fatalf("SetValue failed: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"user": "grace", "pass": "hopper"}, g.Value()); diff != "" {
		t.Errorf("value mismatch (-want +got):\n%s", diff)
	}
	if g.Status() != StatusValid {
		t.Errorf("expected VALID, got %s", g.Status())
	}
}

func TestFormGroup_SetValueStrict(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  error
	}{
		{"missing key", map[string]any{"user": "x"}, ErrValueMissing},
		{"unknown key", map[string]any{"user": "x", "pass": "y", "extra": 1}, ErrControlMissing},
		{"not a map", "x", ErrInvalidValue},
		{"nil", nil, ErrInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newCredentials()
			before := g.Value()

			err := g.SetValue(tt.value)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if diff := cmp.Diff(before, g.Value()); diff != "" {
				t.Errorf("expected nothing applied (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFormGroup_SetValueNestedMissingAppliesNothing(t *testing.T) {
	form := NewForm([]Member{
		{Name: "a", Control: NewFormControl(1)},
		{Name: "b", Control: NewFormGroup([]Member{
			{Name: "c", Control: NewFormControl(2)},
			{Name: "d", Control: NewFormControl(3)},
		})},
	})

	err := form.SetValue(map[string]any{"a": 10, "b": map[string]any{"c": 20}})
	if !errors.Is(err, ErrValueMissing) {
		t.Fatalf("expected ErrValueMissing, got %v", err)
	}
	if form.Get("a").Value() != 1 {
		t.Errorf("expected a untouched, got %v", form.Get("a").Value())
	}
	if err.Error() != `must supply a value for form control: "b.d"` {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestFormGroup_SetValueEmptyGroup(t *testing.T) {
	g := NewFormGroup(nil)
	if err := g.SetValue(map[string]any{}); !errors.Is(err, ErrNoControls) {
		t.Errorf("expected ErrNoControls, got %v", err)
	}
}

func TestFormGroup_PatchValue(t *testing.T) {
	g := newCredentials()

	if err := g.PatchValue(map[string]any{"pass": "secret", "unknown": true}); err != nil {
		t.Fatalf("PatchValue failed: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"user": "ada", "pass": "secret"}, g.Value()); diff != "" {
		t.Errorf("value mismatch (-want +got):\n%s", diff)
	}
	if err := g.PatchValue(nil); err != nil {
		t.Errorf("expected nil patch to be a no-op, got %v", err)
	}
	if err := g.PatchValue(42); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue, got %v", err)
	}
}

func TestFormGroup_PatchValueTypedMap(t *testing.T) {
	g := newCredentials()
	if err := g.PatchValue(map[string]string{"user": "linus"}); err != nil {
		t.Fatalf("PatchValue failed: %v", err)
	}
	if g.Control("user").Value() != "linus" {
		t.Errorf("expected linus, got %v", g.Control("user").Value())
	}
}

func TestFormGroup_SetValueEmitsOncePerLevel(t *testing.T) {
	g := newCredentials()
	parentValues, childValues := 0, 0
	g.ValueChanges().Subscribe(func(any) { parentValues++ })
	g.Control("user").ValueChanges().Subscribe(func(any) { childValues++ })

	_ = g.SetValue(map[string]any{"user": "x", "pass": "y"})

	if parentValues != 1 {
		t.Errorf("expected one group broadcast, got %d", parentValues)
	}
	if childValues != 1 {
		t.Errorf("expected one child broadcast, got %d", childValues)
	}
}

func TestFormGroup_Reset(t *testing.T) {
	g := newCredentials()
	user := g.Control("user").(*FormControl)
	user.HandleChange("typed")
	user.MarkAsTouched()
	g.MarkAsSubmitted()

	if err := g.Reset(map[string]any{"user": Boxed{Value: "root", Disabled: true}}); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	if user.Value() != "root" || !user.Disabled() {
		t.Errorf("expected boxed reset, got %v %s", user.Value(), user.Status())
	}
	if g.Control("pass").Value() != nil {
		t.Errorf("expected missing entry to reset to nil, got %v", g.Control("pass").Value())
	}
	if g.Dirty() || g.Touched() || g.Submitted() {
		t.Error("expected pristine, untouched and unsubmitted")
	}
	if diff := cmp.Diff(map[string]any{"pass": nil}, g.Value()); diff != "" {
		t.Errorf("value mismatch (-want +got):\n%s", diff)
	}

	if err := g.Reset(nil); err != nil {
		t.Fatalf("Reset(nil) failed: %v", err)
	}
	if !user.Disabled() || user.Value() != nil {
		t.Errorf("expected plain reset to keep the disabled state, got %v %s", user.Value(), user.Status())
	}
}

func TestFormGroup_AddRemoveSetControl(t *testing.T) {
	g := newCredentials()

	g.AddControl("otp", NewFormControl("123"))
	if !g.Contains("otp") || g.Control("otp").Root() != Control(g) {
		t.Error("expected otp added and parented")
	}

	g.AddControl("otp", NewFormControl("999"))
	if g.Control("otp").Value() != "123" {
		t.Error("expected AddControl not to replace an existing child")
	}

	replacement := NewFormControl("x")
	old := g.Control("user")
	g.SetControl("user", replacement)
	if g.Control("user") != Control(replacement) || old.Parent() != nil {
		t.Error("expected user replaced and the old control detached")
	}
	if diff := cmp.Diff([]string{"user", "pass", "otp"}, g.Names()); diff != "" {
		t.Errorf("expected position kept (-want +got):\n%s", diff)
	}

	g.RemoveControl("pass")
	if g.Contains("pass") || g.Status() != StatusValid {
		t.Errorf("expected pass removed and group VALID, got %s", g.Status())
	}
	g.RemoveControl("missing")

	g.Control("otp").Disable()
	if g.Contains("otp") {
		t.Error("expected Contains to ignore disabled children")
	}
}

func TestFormGroup_EmptyGroupStatus(t *testing.T) {
	g := NewFormGroup(nil)
	if g.Status() != StatusValid {
		t.Errorf("expected empty group VALID, got %s", g.Status())
	}
	if diff := cmp.Diff(map[string]any{}, g.Value()); diff != "" {
		t.Errorf("value mismatch (-want +got):\n%s", diff)
	}
}

func TestFormGroup_GroupValidator(t *testing.T) {
	bothOrNeither := func(c Control) Errors {
		v := c.Value().(map[string]any)
		if (v["from"] == "") != (v["to"] == "") {
			return Errors{"range": true}
		}
		return nil
	}
	g := NewFormGroup([]Member{
		{Name: "from", Control: NewFormControl("")},
		{Name: "to", Control: NewFormControl("")},
	}, Validate(bothOrNeither))

	_ = g.Control("from").SetValue("mon")
	if !g.HasError("range") {
		t.Errorf("expected range error, got %v", g.Errors())
	}

	_ = g.Control("to").SetValue("fri")
	if g.Status() != StatusValid {
		t.Errorf("expected VALID, got %s", g.Status())
	}
}
