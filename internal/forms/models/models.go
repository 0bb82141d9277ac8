package models

import (
	"fmt"

	"sapid/internal/forms/validation"
	dErrors "sapid/pkg/domain-errors"
)

// Kind identifies one of the site's forms.
type Kind string

const (
	KindContact    Kind = "contact"
	KindOpinion    Kind = "opinion"
	KindDataRights Kind = "data-rights"
)

// ParseKind converts an untrusted string into a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindContact, KindOpinion, KindDataRights:
		return k, nil
	}
	return "", dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("unknown form %q", s))
}

// Phase is the submission lifecycle stage of a form.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseSubmitting Phase = "submitting"
	PhaseSucceeded  Phase = "succeeded"
)

// ResetPolicy says when submitted values are cleared back to defaults.
type ResetPolicy int

const (
	// ResetOnSuccess clears values as soon as the submission succeeds.
	ResetOnSuccess ResetPolicy = iota
	// ResetOnIdle keeps values visible until the success message goes away.
	ResetOnIdle
)

// FieldDef describes one field of a form.
type FieldDef struct {
	Name    string           `json:"name"`
	Multi   bool             `json:"multi"`
	Default validation.Value `json:"default"`
	Options []string         `json:"options,omitempty"`
}

// Definition is the static shape of a form.
type Definition struct {
	Kind   Kind
	Fields []FieldDef
	Rules  validation.RuleSet
	Reset  ResetPolicy
}

// Field looks up a field by name.
func (d Definition) Field(name string) (FieldDef, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDef{}, false
}

// Defaults returns a fresh value map with every field at its default.
func (d Definition) Defaults() map[string]validation.Value {
	values := make(map[string]validation.Value, len(d.Fields))
	for _, f := range d.Fields {
		values[f.Name] = f.Default
	}
	return values
}

// Lookup returns the definition for kind.
func Lookup(kind Kind) (Definition, error) {
	def, ok := definitions[kind]
	if !ok {
		return Definition{}, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("unknown form %q", kind))
	}
	return def, nil
}

// FieldValue pairs a field with its current value.
type FieldValue struct {
	Name  string           `json:"name"`
	Value validation.Value `json:"value"`
}

// Snapshot is a form instance as the presentation layer renders it.
// Fields follow definition order.
type Snapshot struct {
	ID     string                  `json:"id"`
	Kind   Kind                    `json:"kind"`
	Phase  Phase                   `json:"phase"`
	Fields []FieldValue            `json:"fields"`
	Errors []validation.FieldError `json:"errors"`
}

// Value returns the value of field name.
func (s Snapshot) Value(name string) (validation.Value, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return validation.Value{}, false
}

// Submitting and Succeeded mirror the presentation layer's two flags.
func (s Snapshot) Submitting() bool { return s.Phase == PhaseSubmitting }
func (s Snapshot) Succeeded() bool  { return s.Phase == PhaseSucceeded }
