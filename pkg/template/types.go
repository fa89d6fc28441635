package template

import (
	"errors"
	"fmt"
)

// FieldKind is the enum of report template field shapes. Markdown entries are
// presentational separators and never carry an id or a value.
type FieldKind string

const (
	FieldKindMarkdown FieldKind = "markdown"
	FieldKindInput    FieldKind = "input"
	FieldKindDropdown FieldKind = "dropdown"
	FieldKindTextarea FieldKind = "textarea"
)

// PropertyType enumerates the value types a schema property can constrain.
type PropertyType string

const (
	PropertyTypeString PropertyType = "string"
	PropertyTypeNumber PropertyType = "number"
)

// FieldDescriptor is one unit of the remote report template: either a
// markdown separator or an editable field. Struct fields are annotated so the
// JSON template payload deserialises directly.
type FieldDescriptor struct {
	Kind               FieldKind `json:"kind"`
	ID                 string    `json:"id,omitempty"`
	Label              string    `json:"label"`
	Description        string    `json:"description,omitempty"`
	Required           bool      `json:"required"`
	Default            string    `json:"default,omitempty"`
	Options            []string  `json:"options,omitempty"`
	DefaultOptionIndex int       `json:"defaultOptionIndex,omitempty"`
}

// Editable reports whether the descriptor accepts a user value.
func (d FieldDescriptor) Editable() bool {
	return d.Kind != FieldKindMarkdown
}

// DefaultValue resolves the initial value for the descriptor: dropdowns take
// the option at DefaultOptionIndex, everything else takes Default.
func (d FieldDescriptor) DefaultValue() string {
	if d.Kind == FieldKindDropdown {
		if d.DefaultOptionIndex >= 0 && d.DefaultOptionIndex < len(d.Options) {
			return d.Options[d.DefaultOptionIndex]
		}
		return ""
	}
	return d.Default
}

// SchemaProperty carries the per-field validation constraints. The remote
// schema document keys these by human-readable label, not by field id; that
// mismatch is part of the upstream contract and is preserved here.
type SchemaProperty struct {
	Type PropertyType `json:"type"`
	// MinLength and MaxLength bound string values in characters.
	MinLength *int `json:"minLength,omitempty"`
	MaxLength *int `json:"maxLength,omitempty"`
	// Enum restricts the value to a fixed set. Numeric enums compare as the
	// string form of the number.
	Enum []string `json:"enum,omitempty"`
	// ExclusiveMinimum is applied as an inclusive lower bound despite the
	// JSON Schema name; the upstream form relies on the inclusive reading.
	ExclusiveMinimum *float64 `json:"exclusiveMinimum,omitempty"`
}

// SchemaDocument maps field labels to their validation constraints plus the
// labels the template marks as required.
type SchemaDocument struct {
	Properties map[string]SchemaProperty `json:"properties"`
	Required   []string                  `json:"required,omitempty"`
}

// TemplateDocument is the parsed report template: the ordered descriptor list
// and the validation schema that accompanies it.
type TemplateDocument struct {
	Fields []FieldDescriptor
	Schema SchemaDocument
}

// Field returns the descriptor with the given id.
func (t TemplateDocument) Field(id string) (FieldDescriptor, bool) {
	if id == "" {
		return FieldDescriptor{}, false
	}
	for _, field := range t.Fields {
		if field.ID == id {
			return field, true
		}
	}
	return FieldDescriptor{}, false
}

// Validate enforces the structural invariants: every editable descriptor has
// a unique non-empty id and dropdowns declare at least one option.
func (t TemplateDocument) Validate() error {
	seen := make(map[string]struct{}, len(t.Fields))
	for idx, field := range t.Fields {
		if !field.Editable() {
			continue
		}
		if field.ID == "" {
			return fmt.Errorf("template: field %d (%q) is missing an id", idx, field.Label)
		}
		if _, dup := seen[field.ID]; dup {
			return fmt.Errorf("template: duplicate field id %q", field.ID)
		}
		seen[field.ID] = struct{}{}
		if field.Kind == FieldKindDropdown && len(field.Options) == 0 {
			return fmt.Errorf("template: dropdown %q has no options", field.ID)
		}
	}
	return nil
}

var errNoFields = errors.New("template: document has no fields")

// ValidateNonEmpty runs Validate and additionally rejects templates without a
// single editable field.
func (t TemplateDocument) ValidateNonEmpty() error {
	if err := t.Validate(); err != nil {
		return err
	}
	for _, field := range t.Fields {
		if field.Editable() {
			return nil
		}
	}
	return errNoFields
}
