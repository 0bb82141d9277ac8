// Package validation evaluates declarative per-field rule sets.
//
// A RuleSet lists fields in display order with the rules each must satisfy.
// Validate checks every field, stops at the first failing rule of a field, and
// reports every failing field at once. Format rules (Email, MinLength, OneOf)
// pass blank values so a field never reports "required" and "invalid" together.
package validation

import (
	"regexp"
	"slices"
	"unicode/utf8"
)

// emailPattern is intentionally loose: something, @, something, a dot, something.
var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// Rule is a predicate over a field value plus the message shown when it fails.
type Rule struct {
	Name    string
	Message string
	check   func(Value) bool
}

// Passes reports whether v satisfies the rule.
func (r Rule) Passes(v Value) bool {
	return r.check(v)
}

// Required fails on blank text or an empty selection.
func Required(msg string) Rule {
	return Rule{Name: "required", Message: msg, check: func(v Value) bool {
		return !v.Blank()
	}}
}

// Email fails on non-blank text that does not look like an address.
func Email(msg string) Rule {
	return Rule{Name: "email", Message: msg, check: func(v Value) bool {
		return v.Blank() || emailPattern.MatchString(v.String())
	}}
}

// MinLength fails on non-blank text shorter than n characters. The untrimmed
// value is measured in code points, so an emoji counts as one character where
// a browser's UTF-16 length would count two.
func MinLength(n int, msg string) Rule {
	return Rule{Name: "min_length", Message: msg, check: func(v Value) bool {
		return v.Blank() || utf8.RuneCountInString(v.String()) >= n
	}}
}

// MinSelected fails when fewer than n entries are selected.
func MinSelected(n int, msg string) Rule {
	return Rule{Name: "min_selected", Message: msg, check: func(v Value) bool {
		return len(v.Items()) >= n
	}}
}

// OneOf fails when the text, or any selected entry, is not among options.
func OneOf(options []string, msg string) Rule {
	allowed := slices.Clone(options)
	return Rule{Name: "one_of", Message: msg, check: func(v Value) bool {
		if v.Blank() {
			return true
		}
		if !v.IsMulti() {
			return slices.Contains(allowed, v.String())
		}
		for _, item := range v.Items() {
			if !slices.Contains(allowed, item) {
				return false
			}
		}
		return true
	}}
}

// FieldRules binds rules to one field.
type FieldRules struct {
	Field string
	Rules []Rule
}

// RuleSet is an ordered list of field rules.
type RuleSet []FieldRules

// FieldError is one failing field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Result is the outcome of a validation pass.
type Result struct {
	Valid  bool         `json:"valid"`
	Errors []FieldError `json:"errors"`
}

// Message returns the error recorded for field, if any.
func (r Result) Message(field string) (string, bool) {
	for _, e := range r.Errors {
		if e.Field == field {
			return e.Message, true
		}
	}
	return "", false
}

// Fields lists the failing fields in rule-set order.
func (r Result) Fields() []string {
	out := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		out = append(out, e.Field)
	}
	return out
}

// Validate evaluates rs against values. Missing fields are validated as empty text.
func (rs RuleSet) Validate(values map[string]Value) Result {
	res := Result{Valid: true, Errors: []FieldError{}}
	for _, fr := range rs {
		v := values[fr.Field]
		for _, rule := range fr.Rules {
			if !rule.Passes(v) {
				res.Errors = append(res.Errors, FieldError{Field: fr.Field, Message: rule.Message})
				break
			}
		}
	}
	res.Valid = len(res.Errors) == 0
	return res
}
