// Package validation checks and sanitizes records before they are stored.
//
// Field rules are plain data interpreted by ValidateField. Entity
// validators pair each rule with an accessor and aggregate every failure,
// while ValidateField itself stops at the first one. Nothing in this
// package panics or touches storage.
package validation

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// FieldType is the type tag a rule checks a value against
type FieldType string

const (
	TypeString    FieldType = "string"
	TypeNumber    FieldType = "number"
	TypeBoolean   FieldType = "boolean"
	TypeArray     FieldType = "array"
	TypeObject    FieldType = "object"
	TypeTimestamp FieldType = "timestamp"
)

// Rule describes the constraints on one field
type Rule struct {
	Field     string
	Required  bool
	Type      FieldType
	MinLength int
	MaxLength int
	Pattern   *regexp.Regexp
	Custom    func(value any) bool
	// Message replaces the generic text when Custom fails
	Message string
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

// FieldResult is the outcome of checking one field
type FieldResult struct {
	Valid bool
	Error string
}

// Result is the outcome of checking a whole record
type Result struct {
	Valid  bool
	Errors []ValidationError
}

// Error joins every message, or returns "" for a valid result
func (r Result) Error() string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

// HasField reports whether any error concerns field
func (r Result) HasField(field string) bool {
	for _, e := range r.Errors {
		if e.Field == field {
			return true
		}
	}
	return false
}

func newResult(errs []ValidationError) Result {
	return Result{Valid: len(errs) == 0, Errors: errs}
}

// ValidateField checks value against rule. Checks run in the order
// required, type, length and pattern, custom; the first failure is returned.
// An absent optional value is always valid.
func ValidateField(value any, rule Rule) FieldResult {
	v, present := resolve(value)

	if !present {
		if rule.Required {
			return fail("%s is required", rule.Field)
		}
		return FieldResult{Valid: true}
	}

	if !hasType(v, rule.Type) {
		return fail("%s must be of type %s", rule.Field, rule.Type)
	}

	if rule.Type == TypeString {
		s := v.String()
		n := utf8.RuneCountInString(s)
		if rule.MinLength > 0 && n < rule.MinLength {
			return fail("%s must be at least %d characters", rule.Field, rule.MinLength)
		}
		if rule.MaxLength > 0 && n > rule.MaxLength {
			return fail("%s must be no more than %d characters", rule.Field, rule.MaxLength)
		}
		if rule.Pattern != nil && !rule.Pattern.MatchString(s) {
			return fail("%s format is invalid", rule.Field)
		}
	}

	if rule.Custom != nil && !rule.Custom(v.Interface()) {
		if rule.Message != "" {
			return FieldResult{Error: rule.Message}
		}
		return fail("%s failed custom validation", rule.Field)
	}

	return FieldResult{Valid: true}
}

func fail(format string, args ...any) FieldResult {
	return FieldResult{Error: fmt.Sprintf(format, args...)}
}

var timeType = reflect.TypeOf(time.Time{})

// resolve dereferences pointers and reports whether the value counts as
// supplied. nil, empty strings, nil slices and zero times are absent.
func resolve(value any) (reflect.Value, bool) {
	if value == nil {
		return reflect.Value{}, false
	}
	v := reflect.ValueOf(value)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	switch {
	case v.Kind() == reflect.String:
		return v, v.Len() > 0
	case v.Kind() == reflect.Slice || v.Kind() == reflect.Map:
		return v, !v.IsNil()
	case v.Type() == timeType:
		return v, !v.Interface().(time.Time).IsZero()
	}
	return v, true
}

func hasType(v reflect.Value, t FieldType) bool {
	switch t {
	case TypeString:
		return v.Kind() == reflect.String
	case TypeNumber:
		f, ok := toFloat(v.Interface())
		return ok && !math.IsNaN(f)
	case TypeBoolean:
		return v.Kind() == reflect.Bool
	case TypeArray:
		return v.Kind() == reflect.Slice || v.Kind() == reflect.Array
	case TypeObject:
		return (v.Kind() == reflect.Struct && v.Type() != timeType) || v.Kind() == reflect.Map
	case TypeTimestamp:
		return v.Type() == timeType
	default:
		return true
	}
}

func toFloat(value any) (float64, bool) {
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	}
	return 0, false
}

// between returns a predicate accepting numbers in [lo, hi]
func between(lo, hi float64) func(any) bool {
	return func(v any) bool {
		f, ok := toFloat(v)
		return ok && f >= lo && f <= hi
	}
}

// atLeast returns a predicate accepting numbers >= lo
func atLeast(lo float64) func(any) bool {
	return func(v any) bool {
		f, ok := toFloat(v)
		return ok && f >= lo
	}
}

// oneOf returns a predicate accepting any string-kinded value in allowed
func oneOf[T ~string](allowed []T) func(any) bool {
	return func(v any) bool {
		s := reflect.ValueOf(v)
		if s.Kind() != reflect.String {
			return false
		}
		for _, a := range allowed {
			if string(a) == s.String() {
				return true
			}
		}
		return false
	}
}

// fieldRule binds a Rule to the record field it reads
type fieldRule[T any] struct {
	Rule
	get func(T) any
	// requiredIf makes the field required depending on other fields
	requiredIf func(T) bool
}

// recordCheck is a cross-field rule returning "" when satisfied
type recordCheck[T any] struct {
	field string
	check func(T) string
}

func evaluate[T any](record T, rules []fieldRule[T], checks []recordCheck[T]) []ValidationError {
	var errs []ValidationError
	for _, fr := range rules {
		rule := fr.Rule
		if fr.requiredIf != nil && fr.requiredIf(record) {
			rule.Required = true
		}
		if res := ValidateField(fr.get(record), rule); !res.Valid {
			errs = append(errs, ValidationError{Field: rule.Field, Message: res.Error})
		}
	}
	for _, c := range checks {
		if msg := c.check(record); msg != "" {
			errs = append(errs, ValidationError{Field: c.field, Message: msg})
		}
	}
	return errs
}

// nonZero maps the zero value of a comparable field to nil so that it
// reads as absent
func nonZero[V comparable](v V) any {
	var zero V
	if v == zero {
		return nil
	}
	return v
}
