package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const signupDoc = `
inputs:
  - name: email
    validators: [required, email]
  - kind: group
    name: address
    inputs:
      - name: zip
        validators: ["pattern=[0-9]{4}"]
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	return path
}

func TestRunValidate_DocumentOnly(t *testing.T) {
	doc := writeFile(t, "signup.yaml", signupDoc)
	var out bytes.Buffer

	if err := runValidate(context.Background(), &out, []string{doc}, "auto", ""); err != nil {
		t.Fatalf("runValidate failed: %v", err)
	}
	if !strings.Contains(out.String(), "ok (3 controls)") {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestRunValidate_ValidValues(t *testing.T) {
	doc := writeFile(t, "signup.yaml", signupDoc)
	values := writeFile(t, "values.json", `{"email": "ada@example.com", "address": {"zip": "1000"}}`)
	var out bytes.Buffer

	if err := runValidate(context.Background(), &out, []string{doc}, "yaml", values); err != nil {
		t.Fatalf("runValidate failed: %v", err)
	}
	if !strings.Contains(out.String(), ": VALID") {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestRunValidate_InvalidValues(t *testing.T) {
	doc := writeFile(t, "signup.yaml", signupDoc)
	values := writeFile(t, "values.yaml", "email: nope\naddress:\n  zip: \"12\"\n")
	var out bytes.Buffer

	err := runValidate(context.Background(), &out, []string{doc}, "auto", values)
	if !errors.Is(err, errInvalid) {
		t.Fatalf("expected errInvalid, got %v", err)
	}
	for _, want := range []string{"INVALID", "email: Invalid email address", "address.zip: Invalid format"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("expected %q in output %q", want, out.String())
		}
	}
}

func TestRunValidate_BadDocument(t *testing.T) {
	doc := writeFile(t, "bad.yaml", "inputs:\n  - name: x\n    validators: [unique]\n")
	var out bytes.Buffer

	err := runValidate(context.Background(), &out, []string{doc}, "auto", "")
	if err == nil || !strings.Contains(err.Error(), "unknown validator") {
		t.Errorf("expected unknown validator error, got %v", err)
	}
}

func TestCodecFor(t *testing.T) {
	for _, format := range []string{"", "auto", "json", "yaml", "yml"} {
		if _, err := codecFor(format); err != nil {
			t.Errorf("codecFor(%q) failed: %v", format, err)
		}
	}
	if _, err := codecFor("toml"); err == nil {
		t.Error("expected error for unknown format")
	}
}
