package testing

import (
	"errors"
	"testing"
	"time"

	"github.com/zoobzio/formz"
)

func TestWaitFor(t *testing.T) {
	t.Run("condition met immediately", func(t *testing.T) {
		if !WaitFor(t, 100*time.Millisecond, func() bool { return true }) {
			t.Error("expected WaitFor to return true")
		}
	})

	t.Run("condition never met", func(t *testing.T) {
		if WaitFor(t, 50*time.Millisecond, func() bool { return false }) {
			t.Error("expected WaitFor to return false")
		}
	})
}

func TestNewTestLive(t *testing.T) {
	var applied []formz.Input
	live, ch := NewTestLive(t, func(inputs []formz.Input) error {
		applied = inputs
		return nil
	})

	ch <- []byte("inputs: [{name: email}]")
	if err := live.Start(t.Context()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	RequireState(t, live, formz.StateHealthy)
	RequireInputs(t, live, func(inputs []formz.Input) bool {
		return len(inputs) == 1 && inputs[0].Name == "email"
	})
	if len(applied) != 1 {
		t.Errorf("expected 1 input applied, got %d", len(applied))
	}

	ch <- []byte("inputs: [")
	live.Process(t.Context())
	if !WaitForState(t, live, formz.StateDegraded, 100*time.Millisecond) {
		t.Errorf("expected degraded, got %s", live.State())
	}
}

func TestAsyncStub(t *testing.T) {
	stub := &AsyncStub{}
	c := formz.NewFormControl("ada", formz.ValidateAsync(stub.Validator()))

	RequireStatus(t, c, formz.StatusPending)
	_ = c.SetValue("grace")

	if stub.Calls() != 2 {
		t.Fatalf("expected 2 calls, got %d", stub.Calls())
	}
	if stub.Value(1) != "grace" {
		t.Errorf("expected grace, got %v", stub.Value(1))
	}
	if !stub.Cancelled(0) || stub.Cancelled(1) {
		t.Error("expected only the first call cancelled")
	}

	stub.Resolve(1, formz.Errors{"taken": true})
	Await(t, c, time.Second)
	RequireStatus(t, c, formz.StatusInvalid)
	RequireErrorCodes(t, c, "", "taken")

	_ = c.SetValue("linus")
	stub.Fail(2, errors.New("offline"))
	Await(t, c, time.Second)
	RequireErrorCodes(t, c, "", formz.ErrorAsyncValidationFailed)
}

func TestRequireErrorCodes_Path(t *testing.T) {
	form := formz.Build([]formz.Input{
		formz.NewGroup("account", []formz.Input{
			formz.NewLeaf("email", formz.WithValidators(formz.Required, formz.Email)),
		}),
	}, nil)

	RequireErrorCodes(t, form, "account.email", "required")
	RequireErrorCodes(t, form, "")
}
