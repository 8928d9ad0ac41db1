package formz

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// ValidatorFactory builds a validator from the argument written after "="
// in a document, such as "3" in "minLength=3". arg is empty when none was
// given.
type ValidatorFactory func(arg string) (ValidatorFunc, error)

// Catalog resolves the names used in input documents to validators and
// conditions. The control tree never parses names; only document loading
// does.
type Catalog struct {
	mu         sync.RWMutex
	validators map[string]ValidatorFactory
	async      map[string]AsyncValidatorFunc
	conditions map[string]Condition
}

// NewCatalog creates a catalog holding the built-in validators:
// required, requiredTrue, email, min, max, minLength, maxLength, pattern
// and tag.
func NewCatalog() *Catalog {
	c := &Catalog{
		validators: make(map[string]ValidatorFactory),
		async:      make(map[string]AsyncValidatorFunc),
		conditions: make(map[string]Condition),
	}
	c.RegisterValidator("required", fixed(Required))
	c.RegisterValidator("requiredTrue", fixed(RequiredTrue))
	c.RegisterValidator("email", fixed(Email))
	c.RegisterValidator("min", func(arg string) (ValidatorFunc, error) {
		n, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return nil, fmt.Errorf("min: %w", err)
		}
		return Min(n), nil
	})
	c.RegisterValidator("max", func(arg string) (ValidatorFunc, error) {
		n, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return nil, fmt.Errorf("max: %w", err)
		}
		return Max(n), nil
	})
	c.RegisterValidator("minLength", func(arg string) (ValidatorFunc, error) {
		n, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("minLength: %w", err)
		}
		return MinLength(n), nil
	})
	c.RegisterValidator("maxLength", func(arg string) (ValidatorFunc, error) {
		n, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("maxLength: %w", err)
		}
		return MaxLength(n), nil
	})
	c.RegisterValidator("pattern", func(arg string) (ValidatorFunc, error) {
		if _, err := regexp.Compile(arg); err != nil {
			return nil, fmt.Errorf("pattern: %w", err)
		}
		return Pattern(arg), nil
	})
	c.RegisterValidator("tag", func(arg string) (ValidatorFunc, error) {
		if err := checkTag(arg); err != nil {
			return nil, fmt.Errorf("tag: %w", err)
		}
		return Tag(arg), nil
	})
	return c
}

func fixed(v ValidatorFunc) ValidatorFactory {
	return func(string) (ValidatorFunc, error) { return v, nil }
}

// RegisterValidator adds or replaces a validator factory.
func (c *Catalog) RegisterValidator(name string, factory ValidatorFactory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.validators[name] = factory
}

// RegisterAsync adds or replaces an async validator.
func (c *Catalog) RegisterAsync(name string, fn AsyncValidatorFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.async[name] = fn
}

// RegisterCondition adds or replaces a named condition.
func (c *Catalog) RegisterCondition(name string, cond Condition) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conditions[name] = cond
}

// Validator resolves "name" or "name=arg".
func (c *Catalog) Validator(spec string) (ValidatorFunc, error) {
	name, arg, _ := strings.Cut(spec, "=")
	c.mu.RLock()
	factory, ok := c.validators[name]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownValidator, name)
	}
	return factory(arg)
}

// Async resolves an async validator by name.
func (c *Catalog) Async(name string) (AsyncValidatorFunc, error) {
	c.mu.RLock()
	fn, ok := c.async[name]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownValidator, name)
	}
	return fn, nil
}

// Condition resolves a condition by name.
func (c *Catalog) Condition(name string) (Condition, error) {
	c.mu.RLock()
	cond, ok := c.conditions[name]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCondition, name)
	}
	return cond, nil
}
