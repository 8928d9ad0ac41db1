/*
Package formz keeps the state of reactive forms: a tree of controls that
tracks value, validity and interaction state, recomputes validation after
every mutation and notifies observers so a view layer can re-render.

formz does not render anything. A view layer builds a tree from input
specifications, reads control state, calls mutators in response to user
events and subscribes to change notifications.

# Building a Form

Describe the form as inputs and build it:

	inputs := []formz.Input{
	    formz.NewLeaf("email",
	        formz.WithType("email"),
	        formz.WithValidators(formz.Required, formz.Email),
	        formz.WithUpdateOn(formz.UpdateOnBlur),
	    ),
	    formz.NewGroup("address", []formz.Input{
	        formz.NewLeaf("city", formz.WithValidators(formz.MinLength(2))),
	    }),
	    formz.NewStatic("We never share your address."),
	}

	form := formz.Build(inputs, nil)

Rebuilding with the previous form keeps entered values wherever the new
shape still has a leaf at the same name or index:

	form = formz.Build(changedInputs, form)

Controls can also be assembled directly with NewFormControl, NewFormGroup,
NewFormArray and NewForm.

# Reading and Mutating

	form.Get("address.city").SetValue("Lisbon")
	form.Value()            // map[string]any{"email": nil, "address": map[string]any{"city": "Lisbon"}}
	form.Status()           // formz.StatusInvalid, email is required
	form.Get("address").Dirty()

Every mutator propagates to ancestors unless OnlySelf is passed, and
broadcasts unless WithoutEvents is passed. SetValue on a group or array
requires an entry for every child and returns ErrValueMissing or
ErrControlMissing otherwise, without applying anything. PatchValue applies
what it can.

# Notifications

Each control has ValueChanges, StatusChanges, StateChanges and
AnythingChanges channels. For one mutation they fire in that order, and a
parent is notified only after its child has settled:

	stop := formz.Observe(form, formz.Observers{
	    Status: func(s formz.Status) { render(form) },
	})
	defer stop()

# Async Validation

A tree is owned by one goroutine. Async validators run elsewhere and their
results are queued until the owner applies them with Flush or Await. A
control has at most one validation in flight; a newer mutation cancels the
old one and a late result is discarded. A validator that fails records
ErrorAsyncValidationFailed instead of silently passing.

	unique := formz.Async(func(ctx context.Context, v any) (formz.Errors, error) {
	    taken, err := users.Exists(ctx, v.(string))
	    if err != nil {
	        return nil, err
	    }
	    if taken {
	        return formz.Errors{"taken": true}, nil
	    }
	    return nil, nil
	})

	if err := form.Await(ctx); err != nil {
	    return err
	}

# Live Forms

LiveForm loads input documents (YAML or JSON) from a Watcher, validates and
resolves them against a Catalog of named validators and hands the inputs to
a callback, keeping the last good document when a new one is rejected:

	live := formz.NewLive(formz.NewFileWatcher("signup.yaml"), rebuild)
	if err := live.Start(ctx); err != nil {
	    log.Printf("initial document rejected: %v", err)
	}

# Observability

Status transitions, async validation and live form lifecycle events are
emitted as capitan signals. See signals.go for the full list.
*/
package formz
