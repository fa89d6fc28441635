// Package rules derives per-field validator chains from a report template
// and its label-keyed schema document. Validation is a pure function of the
// descriptor, the schema map passed in, and the submitted value; nothing is
// looked up ambiently.
package rules

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/goliatone/go-reportform/pkg/template"
)

// Rule checks a single submitted value. A nil return means the value passes.
type Rule func(value string) error

// Options adjust message wording during derivation.
type Options struct {
	// SectionEdited reports whether a field's current value was produced by
	// the settings section editor. Settings fields that fail minLength after
	// section editing get the "at least one option" wording instead of a
	// character count.
	SectionEdited func(fieldID string) bool
}

// Derive produces the ordered rule list for one field. Fixed pattern rules
// come first regardless of schema; schema-derived rules follow only when the
// schema document has a property under the field's label. A missing label
// silently contributes nothing — submissions rely on that leniency.
func Derive(field template.FieldDescriptor, props map[string]template.SchemaProperty, opts Options) []Rule {
	var out []Rule

	out = append(out, patternRules(field)...)

	prop, ok := props[field.Label]
	if !ok {
		return out
	}

	switch prop.Type {
	case template.PropertyTypeNumber:
		out = append(out, numberRules(field, prop)...)
	default:
		out = append(out, stringRules(field, prop, opts)...)
	}
	return out
}

// Apply runs every rule in order and returns the first failure.
func Apply(rules []Rule, value string) error {
	for _, rule := range rules {
		if rule == nil {
			continue
		}
		if err := rule(value); err != nil {
			return err
		}
	}
	return nil
}

func stringRules(field template.FieldDescriptor, prop template.SchemaProperty, opts Options) []Rule {
	var out []Rule

	if prop.MinLength != nil {
		min := *prop.MinLength
		sectionEdited := template.SettingsField(field.ID) && opts.SectionEdited != nil && opts.SectionEdited(field.ID)
		out = append(out, func(value string) error {
			if utf8.RuneCountInString(value) >= min {
				return nil
			}
			if sectionEdited {
				return fmt.Errorf("%s must contain at least one option", field.Label)
			}
			return fmt.Errorf("%s must be at least %d characters", field.Label, min)
		})
	}

	if prop.MaxLength != nil {
		max := *prop.MaxLength
		out = append(out, func(value string) error {
			if utf8.RuneCountInString(value) <= max {
				return nil
			}
			return fmt.Errorf("%s must be at most %d characters", field.Label, max)
		})
	}

	if len(prop.Enum) > 0 {
		allowed := append([]string(nil), prop.Enum...)
		out = append(out, func(value string) error {
			for _, candidate := range allowed {
				if value == candidate {
					return nil
				}
			}
			return fmt.Errorf("%s must be one of: %s", field.Label, strings.Join(allowed, ", "))
		})
	}

	return out
}

func numberRules(field template.FieldDescriptor, prop template.SchemaProperty) []Rule {
	var out []Rule

	// Blank numeric values are left to the form-level required check.
	out = append(out, func(value string) error {
		if strings.TrimSpace(value) == "" {
			return nil
		}
		if _, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err != nil {
			return fmt.Errorf("%s must be a number", field.Label)
		}
		return nil
	})

	if prop.ExclusiveMinimum != nil {
		// Applied inclusively: the upstream form treats the keyword as >=.
		min := *prop.ExclusiveMinimum
		out = append(out, func(value string) error {
			trimmed := strings.TrimSpace(value)
			if trimmed == "" {
				return nil
			}
			parsed, err := strconv.ParseFloat(trimmed, 64)
			if err != nil {
				return nil
			}
			if parsed >= min {
				return nil
			}
			return fmt.Errorf("%s must be at least %s", field.Label, formatNumber(min))
		})
	}

	if len(prop.Enum) > 0 {
		allowed := append([]string(nil), prop.Enum...)
		out = append(out, func(value string) error {
			trimmed := strings.TrimSpace(value)
			if trimmed == "" {
				return nil
			}
			parsed, err := strconv.ParseFloat(trimmed, 64)
			if err != nil {
				return nil
			}
			normalized := formatNumber(parsed)
			for _, candidate := range allowed {
				if normalized == candidate {
					return nil
				}
			}
			return fmt.Errorf("%s must be one of: %s", field.Label, strings.Join(allowed, ", "))
		})
	}

	return out
}

func formatNumber(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
