// Package validation checks raw request payloads against declarative
// per-entity rule tables and produces either a normalized payload or a map
// of field-level errors. Rules run before any store write; a failing
// payload never reaches the database.
package validation

import (
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Errors maps field names to their validation messages.
type Errors map[string][]string

// Add appends a message for a field.
func (e Errors) Add(field, message string) {
	e[field] = append(e[field], message)
}

// Any reports whether any field failed.
func (e Errors) Any() bool { return len(e) > 0 }

// Payload is the normalized output of a successful validation. Values are
// already coerced: strings, bools, *time.Time, datatypes.JSON, uint, []uint.
type Payload map[string]any

// Has reports whether the field was present in the input.
func (p Payload) Has(field string) bool {
	_, ok := p[field]
	return ok
}

func (p Payload) String(field string) string {
	s, _ := p[field].(string)
	return s
}

func (p Payload) Bool(field string) bool {
	b, _ := p[field].(bool)
	return b
}

func (p Payload) Time(field string) *time.Time {
	t, ok := p[field].(time.Time)
	if !ok {
		return nil
	}
	return &t
}

func (p Payload) JSON(field string) datatypes.JSON {
	j, _ := p[field].(datatypes.JSON)
	return j
}

func (p Payload) Uint(field string) uint {
	n, _ := p[field].(uint)
	return n
}

func (p Payload) UintSlice(field string) []uint {
	ns, _ := p[field].([]uint)
	return ns
}

// Check validates one field's raw value. Returning false stops the
// remaining checks for that field (an error has been recorded).
type Check func(v *Validator, field string) bool

// FieldRule binds a field to its ordered constraint list. Absent fields
// skip the checks unless Required is set; this mirrors nullable semantics.
type FieldRule struct {
	Field    string
	Required bool
	Checks   []Check
}

// Validator carries the state of one validation run.
type Validator struct {
	db    *gorm.DB
	input map[string]any
	errs  Errors
	out   Payload
}

// Raw returns the raw input value for a field.
func (v *Validator) Raw(field string) (any, bool) {
	val, ok := v.input[field]
	if !ok || val == nil {
		return nil, false
	}
	return val, true
}

// Set stores a normalized value for a field.
func (v *Validator) Set(field string, value any) { v.out[field] = value }

// Normalized returns a previously normalized value, if any.
func (v *Validator) Normalized(field string) (any, bool) {
	val, ok := v.out[field]
	return val, ok
}

// Fail records a message against a field.
func (v *Validator) Fail(field, message string) { v.errs.Add(field, message) }

// Validate runs the rule table over the raw input. It returns the
// normalized payload when everything passes, or the field errors.
func Validate(db *gorm.DB, input map[string]any, rules []FieldRule) (Payload, Errors) {
	v := &Validator{
		db:    db,
		input: input,
		errs:  make(Errors),
		out:   make(Payload),
	}
	for _, rule := range rules {
		raw, present := v.Raw(rule.Field)
		if !present || raw == "" {
			if rule.Required {
				v.Fail(rule.Field, "The "+fieldName(rule.Field)+" field is required.")
			}
			continue
		}
		for _, check := range rule.Checks {
			if !check(v, rule.Field) {
				break
			}
		}
	}
	if v.errs.Any() {
		return nil, v.errs
	}
	return v.out, nil
}

// fieldName humanizes a field for messages: "end_date" -> "end date".
func fieldName(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}
