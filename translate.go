package formz

import (
	"fmt"
	"slices"
	"sort"
	"sync"
)

// Translator renders an error code as a message for display.
type Translator func(code string, meta any, c Control) string

// Translators maps error codes to messages. Registration order is also the
// priority order FirstError uses when a control has several errors.
type Translators struct {
	mu    sync.RWMutex
	order []string
	byKey map[string]Translator
}

// NewTranslators creates an empty registry.
func NewTranslators() *Translators {
	return &Translators{byKey: make(map[string]Translator)}
}

// DefaultTranslators returns a registry with English messages for the
// built-in validators.
func DefaultTranslators() *Translators {
	t := NewTranslators()
	t.Register("required", func(string, any, Control) string {
		return "This field is required"
	})
	t.Register("email", func(string, any, Control) string {
		return "Invalid email address"
	})
	t.Register("min", func(_ string, meta any, _ Control) string {
		return fmt.Sprintf("Must be at least %v", param(meta, "min"))
	})
	t.Register("max", func(_ string, meta any, _ Control) string {
		return fmt.Sprintf("Must be at most %v", param(meta, "max"))
	})
	t.Register("minLength", func(_ string, meta any, _ Control) string {
		return fmt.Sprintf("Must be at least %v characters", param(meta, "requiredLength"))
	})
	t.Register("maxLength", func(_ string, meta any, _ Control) string {
		return fmt.Sprintf("Must be at most %v characters", param(meta, "requiredLength"))
	})
	t.Register("pattern", func(string, any, Control) string {
		return "Invalid format"
	})
	t.Register(ErrorAsyncValidationFailed, func(string, any, Control) string {
		return "Could not be verified"
	})
	return t
}

func param(meta any, key string) any {
	if m, ok := meta.(map[string]any); ok {
		return m[key]
	}
	return meta
}

// Register sets the translator for code. Re-registering keeps the original
// priority.
func (t *Translators) Register(code string, fn Translator) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.byKey[code]; !ok {
		t.order = append(t.order, code)
	}
	t.byKey[code] = fn
}

// RegisterAll registers every entry. Codes are registered in sorted order.
func (t *Translators) RegisterAll(translators map[string]Translator) {
	codes := make([]string, 0, len(translators))
	for code := range translators {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		t.Register(code, translators[code])
	}
}

// Remove deletes the translator for code.
func (t *Translators) Remove(code string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.byKey, code)
	t.order = slices.DeleteFunc(t.order, func(c string) bool { return c == code })
}

// Clear removes every translator.
func (t *Translators) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.byKey)
	t.order = nil
}

// Translate renders code for c. It reports false when no translator is
// registered.
func (t *Translators) Translate(code string, meta any, c Control) (string, bool) {
	t.mu.RLock()
	fn, ok := t.byKey[code]
	t.mu.RUnlock()
	if !ok {
		return "", false
	}
	return fn(code, meta, c), true
}

// FirstError returns the message for the highest-priority error on c, or ""
// when c has none. With onlyIfDirty a pristine control reports nothing, so
// untouched fields do not shout at the user. Errors without a translator
// fall back to their code, in sorted order.
func (t *Translators) FirstError(c Control, onlyIfDirty bool) string {
	errs := c.Errors()
	if len(errs) == 0 || (onlyIfDirty && c.Pristine()) {
		return ""
	}

	t.mu.RLock()
	order := slices.Clone(t.order)
	t.mu.RUnlock()

	for _, code := range order {
		if meta, ok := errs[code]; ok {
			if msg, ok := t.Translate(code, meta, c); ok {
				return msg
			}
		}
	}
	codes := errs.Codes()
	sort.Strings(codes)
	return codes[0]
}
