// Package validation evaluates declarative per-field rule tables against
// submitted form values. Rule violations are returned as data; nothing in
// this package returns an error or panics on user input.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// FieldName identifies one form field in a rule table.
type FieldName string

// FieldRule describes the constraints for one field. Zero MinLength or
// MaxLength means unbounded. Custom receives the trimmed value and returns
// an error message, or "" when the value is acceptable.
type FieldRule struct {
	Name           FieldName
	Label          string
	Required       bool
	MinLength      int
	MaxLength      int
	Pattern        *regexp.Regexp
	PatternMessage string
	Custom         func(value string) string
}

func (r FieldRule) label() string {
	if r.Label != "" {
		return r.Label
	}
	return FieldLabel(r.Name)
}

// Result is produced fresh by every ValidateForm call.
type Result struct {
	IsValid bool                 `json:"isValid"`
	Errors  map[FieldName]string `json:"errors"`
}

// StringErrors returns the error map keyed by plain strings, the shape the
// API response envelope expects.
func (r Result) StringErrors() map[string]string {
	out := make(map[string]string, len(r.Errors))
	for k, v := range r.Errors {
		out[string(k)] = v
	}
	return out
}

// Validator holds an ordered rule table and the matching form element ids.
type Validator struct {
	rules      []FieldRule
	index      map[FieldName]int
	elementIDs map[FieldName]string
	byElement  map[string]FieldName
}

// New builds a validator. elementIDs maps every rule's field to the id of
// the form element that renders it.
func New(rules []FieldRule, elementIDs map[FieldName]string) *Validator {
	v := &Validator{
		rules:      append([]FieldRule(nil), rules...),
		index:      make(map[FieldName]int, len(rules)),
		elementIDs: make(map[FieldName]string, len(elementIDs)),
		byElement:  make(map[string]FieldName, len(elementIDs)),
	}
	for i, r := range v.rules {
		v.index[r.Name] = i
	}
	for name, id := range elementIDs {
		v.elementIDs[name] = id
		v.byElement[id] = name
	}
	return v
}

// ValidateForm checks every configured field in rule-table order. Fields
// absent from values are validated as the empty string.
func (v *Validator) ValidateForm(values map[FieldName]string) Result {
	errs := make(map[FieldName]string)
	for _, rule := range v.rules {
		if msg := check(rule, values[rule.Name]); msg != "" {
			errs[rule.Name] = msg
		}
	}
	return Result{IsValid: len(errs) == 0, Errors: errs}
}

// ValidateField checks a single field with the same precedence and messages
// as ValidateForm. Fields without a rule are always valid.
func (v *Validator) ValidateField(name FieldName, value string) string {
	i, ok := v.index[name]
	if !ok {
		return ""
	}
	return check(v.rules[i], value)
}

// Fields returns the field names in rule-table order.
func (v *Validator) Fields() []FieldName {
	out := make([]FieldName, len(v.rules))
	for i, r := range v.rules {
		out[i] = r.Name
	}
	return out
}

// Rule returns the rule configured for name.
func (v *Validator) Rule(name FieldName) (FieldRule, bool) {
	i, ok := v.index[name]
	if !ok {
		return FieldRule{}, false
	}
	return v.rules[i], true
}

func (v *Validator) ElementID(name FieldName) (string, bool) {
	id, ok := v.elementIDs[name]
	return id, ok
}

// Resolve accepts either a field name or a form element id.
func (v *Validator) Resolve(key string) (FieldName, bool) {
	if _, ok := v.index[FieldName(key)]; ok {
		return FieldName(key), true
	}
	name, ok := v.byElement[key]
	return name, ok
}

// ValuesFrom converts loosely keyed input (field names or element ids) into
// a field-name map. Unknown keys are dropped. When a field arrives under
// both keys the field-name value wins.
func (v *Validator) ValuesFrom(in map[string]string) map[FieldName]string {
	out := make(map[FieldName]string, len(in))
	for k, val := range in {
		if name, ok := v.byElement[k]; ok {
			if _, isField := v.index[FieldName(k)]; !isField {
				out[name] = val
			}
		}
	}
	for k, val := range in {
		if _, ok := v.index[FieldName(k)]; ok {
			out[FieldName(k)] = val
		}
	}
	return out
}

// check applies required, minLength, maxLength, pattern and custom in that
// order and stops at the first failure.
func check(rule FieldRule, value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		if rule.Required {
			return rule.label() + " is required"
		}
		return ""
	}

	n := utf8.RuneCountInString(trimmed)
	if rule.MinLength > 0 && n < rule.MinLength {
		return fmt.Sprintf("%s must be at least %d characters", rule.label(), rule.MinLength)
	}
	if rule.MaxLength > 0 && n > rule.MaxLength {
		return fmt.Sprintf("%s must be no more than %d characters", rule.label(), rule.MaxLength)
	}
	if rule.Pattern != nil && !rule.Pattern.MatchString(trimmed) {
		if rule.PatternMessage != "" {
			return rule.PatternMessage
		}
		return rule.label() + " is invalid"
	}
	if rule.Custom != nil {
		return rule.Custom(trimmed)
	}
	return ""
}
