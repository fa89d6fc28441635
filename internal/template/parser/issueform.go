package parser

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	pkgtemplate "github.com/goliatone/go-reportform/pkg/template"
)

// issueForm models the GitHub issue-form YAML that report templates are
// authored in before the API wraps them in the JSON envelope.
type issueForm struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Body        []issueFormItem `yaml:"body"`
}

type issueFormItem struct {
	Type        string           `yaml:"type"`
	ID          string           `yaml:"id,omitempty"`
	Attributes  formAttributes   `yaml:"attributes,omitempty"`
	Validations *formValidations `yaml:"validations,omitempty"`
}

// formAttributes contains the visual and behavioral attributes of a field.
type formAttributes struct {
	Label       string   `json:"label" yaml:"label"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Placeholder string   `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Value       string   `json:"value,omitempty" yaml:"value,omitempty"`
	Options     []string `json:"options,omitempty" yaml:"options,omitempty"`
	Default     *int     `json:"default,omitempty" yaml:"default,omitempty"`
}

// formValidations defines validation flags attached to a field.
type formValidations struct {
	Required bool `json:"required,omitempty" yaml:"required,omitempty"`
}

func parseIssueForm(raw []byte) (pkgtemplate.TemplateDocument, error) {
	var form issueForm
	if err := yaml.Unmarshal(raw, &form); err != nil {
		return pkgtemplate.TemplateDocument{}, fmt.Errorf("decode issue form: %w", err)
	}
	if len(form.Body) == 0 {
		return pkgtemplate.TemplateDocument{}, errors.New("issue form has no body")
	}

	fields := make([]pkgtemplate.FieldDescriptor, 0, len(form.Body))
	for _, item := range form.Body {
		kind, ok := kindFromIssueFormType(item.Type)
		if !ok {
			continue
		}
		field := pkgtemplate.FieldDescriptor{
			Kind:        kind,
			ID:          item.ID,
			Label:       item.Attributes.Label,
			Description: item.Attributes.Description,
			Default:     item.Attributes.Value,
			Options:     append([]string(nil), item.Attributes.Options...),
		}
		if item.Attributes.Default != nil {
			field.DefaultOptionIndex = *item.Attributes.Default
		}
		if item.Validations != nil {
			field.Required = item.Validations.Required
		}
		fields = append(fields, field)
	}

	// Issue forms carry no validation schema; rules derived from the empty
	// SchemaDocument trivially pass, matching the lenient lookup contract.
	return pkgtemplate.TemplateDocument{Fields: fields}, nil
}

func kindFromIssueFormType(raw string) (pkgtemplate.FieldKind, bool) {
	switch raw {
	case "markdown":
		return pkgtemplate.FieldKindMarkdown, true
	case "input":
		return pkgtemplate.FieldKindInput, true
	case "dropdown":
		return pkgtemplate.FieldKindDropdown, true
	case "textarea":
		return pkgtemplate.FieldKindTextarea, true
	default:
		return "", false
	}
}
