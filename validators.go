package formz

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// ValidatorFunc inspects a control and returns its errors, or nil when the
// control is valid. Validators that need sibling values reach them through
// c.Root() or c.Parent().
type ValidatorFunc func(c Control) Errors

// validate is the shared validator instance.
var validate = validator.New()

// Compose merges several validators into one. Nil entries are dropped. When
// nothing remains Compose returns nil, so "no validator" is always a nil func.
// The composed validator runs every entry and shallow-merges the results in
// declaration order; it returns nil when the merge is empty.
func Compose(validators ...ValidatorFunc) ValidatorFunc {
	present := make([]ValidatorFunc, 0, len(validators))
	for _, v := range validators {
		if v != nil {
			present = append(present, v)
		}
	}
	if len(present) == 0 {
		return nil
	}
	return func(c Control) Errors {
		var merged Errors
		for _, v := range present {
			merged = mergeErrors(merged, v(c))
		}
		return normalizeErrors(merged)
	}
}

// isEmptyValue reports whether v counts as "no input": nil, a nil pointer,
// the empty string, false or NaN. Numeric zero is a value.
func isEmptyValue(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case bool:
		return !x
	case float64:
		return math.IsNaN(x)
	case float32:
		return math.IsNaN(float64(x))
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// Required fails with {"required": true} when the value is empty.
func Required(c Control) Errors {
	if isEmptyValue(c.Value()) {
		return Errors{"required": true}
	}
	return nil
}

// RequiredTrue fails with {"required": true} unless the value is exactly true.
func RequiredTrue(c Control) Errors {
	if b, ok := c.Value().(bool); ok && b {
		return nil
	}
	return Errors{"required": true}
}

var emailPattern = regexp.MustCompile(`^(([^<>()\[\]\\.,;:\s@"]+(\.[^<>()\[\]\\.,;:\s@"]+)*)|(".+"))@((\[[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\])|(([a-zA-Z\-0-9]+\.)+[a-zA-Z]{2,}))$`)

// Email fails with {"email": true} when a non-empty value is not an address.
func Email(c Control) Errors {
	v := c.Value()
	if isEmptyValue(v) {
		return nil
	}
	if !emailPattern.MatchString(fmt.Sprint(v)) {
		return Errors{"email": true}
	}
	return nil
}

// Min fails with {"min": {"min": bound, "actual": value}} when the value is
// numerically below bound. Empty values, empty bounds and values that do
// not parse as numbers pass.
func Min(bound any) ValidatorFunc {
	return func(c Control) Errors {
		v := c.Value()
		if isEmptyValue(v) || isEmptyValue(bound) {
			return nil
		}
		n, limit := parseNumber(v), parseNumber(bound)
		if math.IsNaN(n) || math.IsNaN(limit) || n >= limit {
			return nil
		}
		return Errors{"min": map[string]any{"min": bound, "actual": v}}
	}
}

// Max fails with {"max": {"max": bound, "actual": value}} when the value is
// numerically above bound. Empty values, empty bounds and values that do
// not parse as numbers pass.
func Max(bound any) ValidatorFunc {
	return func(c Control) Errors {
		v := c.Value()
		if isEmptyValue(v) || isEmptyValue(bound) {
			return nil
		}
		n, limit := parseNumber(v), parseNumber(bound)
		if math.IsNaN(n) || math.IsNaN(limit) || n <= limit {
			return nil
		}
		return Errors{"max": map[string]any{"max": bound, "actual": v}}
	}
}

// MinLength fails with {"minLength": {"requiredLength": n, "actualLength": l}}
// when a string, slice or map is shorter than n.
func MinLength(n int) ValidatorFunc {
	return func(c Control) Errors {
		v := c.Value()
		if isEmptyValue(v) {
			return nil
		}
		l, ok := valueLength(v)
		if !ok || l >= n {
			return nil
		}
		return Errors{"minLength": map[string]any{"requiredLength": n, "actualLength": l}}
	}
}

// MaxLength fails with {"maxLength": {"requiredLength": n, "actualLength": l}}
// when a string, slice or map is longer than n.
func MaxLength(n int) ValidatorFunc {
	return func(c Control) Errors {
		v := c.Value()
		if isEmptyValue(v) {
			return nil
		}
		l, ok := valueLength(v)
		if !ok || l <= n {
			return nil
		}
		return Errors{"maxLength": map[string]any{"requiredLength": n, "actualLength": l}}
	}
}

// Pattern fails with {"pattern": {"requiredPattern": p, "actualValue": v}}
// when a non-empty value does not match p. The pattern is anchored at both
// ends unless it already is. An empty pattern yields a nil validator.
// Pattern panics if p does not compile.
func Pattern(p string) ValidatorFunc {
	if p == "" {
		return nil
	}
	anchored := p
	if !strings.HasPrefix(anchored, "^") {
		anchored = "^" + anchored
	}
	if !strings.HasSuffix(anchored, "$") {
		anchored += "$"
	}
	return PatternRegexp(regexp.MustCompile(anchored))
}

// PatternRegexp is Pattern for a compiled expression, used as is.
func PatternRegexp(re *regexp.Regexp) ValidatorFunc {
	if re == nil {
		return nil
	}
	return func(c Control) Errors {
		v := c.Value()
		if isEmptyValue(v) {
			return nil
		}
		s := fmt.Sprint(v)
		if re.MatchString(s) {
			return nil
		}
		return Errors{"pattern": map[string]any{"requiredPattern": re.String(), "actualValue": s}}
	}
}

// Tag validates a non-empty value against a go-playground/validator tag
// such as "alphanum,min=3". Each failed rule becomes an error keyed by its
// tag name with the rule parameter as metadata (true when it has none).
// Tag panics on an undefined rule, as the validator package does. A rule
// that panics on a particular value reports it under "tag" instead.
func Tag(tag string) ValidatorFunc {
	if tag == "" {
		return nil
	}
	if err := checkTag(tag); err != nil {
		panic(err.Error())
	}
	return func(c Control) (errs Errors) {
		v := c.Value()
		if isEmptyValue(v) {
			return nil
		}
		defer func() {
			if r := recover(); r != nil {
				errs = Errors{"tag": fmt.Sprint(r)}
			}
		}()
		err := validate.Var(v, tag)
		if err == nil {
			return nil
		}
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return Errors{"tag": err.Error()}
		}
		errs = make(Errors, len(fieldErrs))
		for _, fe := range fieldErrs {
			if fe.Param() == "" {
				errs[fe.Tag()] = true
			} else {
				errs[fe.Tag()] = fe.Param()
			}
		}
		return errs
	}
}

// checkTag parses tag, turning the validator package's panic on an undefined
// rule into an error.
func checkTag(tag string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	_ = validate.Var("", tag) //nolint:errcheck // only parsing matters
	return nil
}

var numberPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// parseNumber converts v to a float. Strings are read up to the first
// character that cannot continue a number; NaN means "not a number".
func parseNumber(v any) float64 {
	switch x := v.(type) {
	case string:
		s := strings.TrimSpace(x)
		m := numberPrefix.FindString(s)
		if m == "" {
			return math.NaN()
		}
		n, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return math.NaN()
		}
		return n
	case bool:
		return math.NaN()
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	}
	return parseNumber(fmt.Sprint(v))
}

func valueLength(v any) (int, bool) {
	if s, ok := v.(string); ok {
		return utf8.RuneCountInString(s), true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len(), true
	}
	return 0, false
}
