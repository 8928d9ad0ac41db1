package formz

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

type shipping struct {
	City string `form:"city"`
	Zip  int    `form:"zip"`
}

type signup struct {
	Email   string   `form:"email"`
	Address shipping `form:"address"`
	Phones  []string `form:"phones"`
	Note    string
}

func newSignupGroup() *FormGroup {
	return NewFormGroup([]Member{
		{Name: "email", Control: NewFormControl("ada@example.com")},
		{Name: "address", Control: NewFormGroup([]Member{
			{Name: "city", Control: NewFormControl("Lisbon")},
			{Name: "zip", Control: NewFormControl("1000")},
		})},
		{Name: "phones", Control: NewFormArray([]Control{NewFormControl("555-0100")})},
		{Name: "note", Control: NewFormControl("hi")},
	})
}

func TestFormGroup_Decode(t *testing.T) {
	g := newSignupGroup()

	var got signup
	if err := g.Decode(&got); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	want := signup{
		Email:   "ada@example.com",
		Address: shipping{City: "Lisbon", Zip: 1000},
		Phones:  []string{"555-0100"},
		Note:    "hi",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("decoded mismatch (-want +got):\n%s", diff)
	}
}

func TestFormGroup_DecodeSkipsDisabled(t *testing.T) {
	g := newSignupGroup()
	g.Control("email").Disable()

	var got signup
	if err := g.Decode(&got); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got.Email != "" {
		t.Errorf("expected disabled email absent, got %q", got.Email)
	}

	var raw signup
	if err := g.DecodeRaw(&raw); err != nil {
		t.Fatalf("DecodeRaw failed: %v", err)
	}
	if raw.Email != "ada@example.com" {
		t.Errorf("expected raw decode to include email, got %q", raw.Email)
	}
}

func TestFormGroup_DecodeErrors(t *testing.T) {
	g := newSignupGroup()

	var notPointer signup
	if err := g.Decode(notPointer); err == nil {
		t.Error("expected error for a non-pointer result")
	}

	_ = g.Control("address").(*FormGroup).Control("zip").SetValue("abc")
	var got signup
	if err := g.Decode(&got); err == nil {
		t.Error("expected error for an unconvertible zip")
	}
}
