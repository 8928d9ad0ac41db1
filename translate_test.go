package formz

import "testing"

func TestTranslators_FirstErrorUsesRegistrationOrder(t *testing.T) {
	c := NewFormControl("ab", Validate(MinLength(3), Pattern(`\d+`)))
	c.MarkAsDirty()

	tr := NewTranslators()
	tr.Register("pattern", func(string, any, Control) string { return "digits only" })
	tr.Register("minLength", func(string, any, Control) string { return "too short" })

	if got := tr.FirstError(c, false); got != "digits only" {
		t.Errorf("expected the first registered code to win, got %q", got)
	}

	tr.Register("pattern", func(string, any, Control) string { return "numbers please" })
	if got := tr.FirstError(c, false); got != "numbers please" {
		t.Errorf("expected re-registration to keep priority, got %q", got)
	}

	tr.Remove("pattern")
	if got := tr.FirstError(c, false); got != "too short" {
		t.Errorf("expected minLength after removal, got %q", got)
	}
}

func TestTranslators_FirstErrorOnlyIfDirty(t *testing.T) {
	c := NewFormControl("", Validate(Required))
	tr := DefaultTranslators()

	if got := tr.FirstError(c, true); got != "" {
		t.Errorf("expected nothing for a pristine control, got %q", got)
	}
	c.HandleChange("")
	if got := tr.FirstError(c, true); got != "This field is required" {
		t.Errorf("expected required message, got %q", got)
	}
}

func TestTranslators_FallsBackToCode(t *testing.T) {
	c := NewFormControl("x")
	c.SetErrors(Errors{"zeta": true, "alpha": true})

	tr := NewTranslators()
	if got := tr.FirstError(c, false); got != "alpha" {
		t.Errorf("expected the first code in sorted order, got %q", got)
	}
	if got := tr.FirstError(NewFormControl("ok"), false); got != "" {
		t.Errorf("expected empty for a valid control, got %q", got)
	}
}

func TestDefaultTranslators_Messages(t *testing.T) {
	tr := DefaultTranslators()
	tests := []struct {
		control Control
		want    string
	}{
		{NewFormControl(2, Validate(Min(5))), "Must be at least 5"},
		{NewFormControl(9, Validate(Max(5))), "Must be at most 5"},
		{NewFormControl("ab", Validate(MinLength(3))), "Must be at least 3 characters"},
		{NewFormControl("abcd", Validate(MaxLength(3))), "Must be at most 3 characters"},
		{NewFormControl("nope", Validate(Email)), "Invalid email address"},
		{NewFormControl("x1", Validate(Pattern(`[a-z]+`))), "Invalid format"},
	}
	for _, tt := range tests {
		if got := tr.FirstError(tt.control, false); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}
}

func TestTranslators_RegisterAllAndClear(t *testing.T) {
	tr := NewTranslators()
	tr.RegisterAll(map[string]Translator{
		"b": func(string, any, Control) string { return "B" },
		"a": func(string, any, Control) string { return "A" },
	})

	c := NewFormControl("x")
	c.SetErrors(Errors{"a": true, "b": true})
	if got := tr.FirstError(c, false); got != "A" {
		t.Errorf("expected sorted registration, got %q", got)
	}

	tr.Clear()
	if _, ok := tr.Translate("a", nil, c); ok {
		t.Error("expected no translators after Clear")
	}
}
