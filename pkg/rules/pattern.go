package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/goliatone/go-reportform/pkg/template"
)

// undervoltPattern matches the slash-delimited core/gpu/soc triple. The field
// is optional, so blank values always pass.
var undervoltPattern = regexp.MustCompile(`^\d+/\d+/\d+$`)

func patternRules(field template.FieldDescriptor) []Rule {
	if field.ID != template.FieldUndervoltApplied {
		return nil
	}
	label := field.Label
	return []Rule{
		func(value string) error {
			trimmed := strings.TrimSpace(value)
			if trimmed == "" {
				return nil
			}
			if undervoltPattern.MatchString(trimmed) {
				return nil
			}
			return fmt.Errorf("%s must look like 5/5/5 (CPU/GPU/SOC)", label)
		},
	}
}
