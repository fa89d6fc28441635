package template

import "context"

// Parser turns a raw Document into a TemplateDocument.
type Parser interface {
	Parse(ctx context.Context, doc Document) (TemplateDocument, error)
}

// ParserOptions configure the built-in parser implementation.
type ParserOptions struct {
	// AllowIssueForm accepts GitHub issue-form YAML payloads in addition to
	// the JSON template envelope. Issue forms carry no validation schema, so
	// parsed documents of that shape have an empty SchemaDocument.
	AllowIssueForm bool
	// SkipValidate disables the structural invariant check after parsing.
	SkipValidate bool
}

// NewParserOptions returns the defaults used by the engine: both payload
// shapes accepted, invariants enforced.
func NewParserOptions() ParserOptions {
	return ParserOptions{AllowIssueForm: true}
}
