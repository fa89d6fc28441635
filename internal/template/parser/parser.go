package parser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	pkgtemplate "github.com/goliatone/go-reportform/pkg/template"
)

// Parser implements pkgtemplate.Parser for the report-template JSON envelope
// and, optionally, GitHub issue-form YAML payloads.
type Parser struct {
	options pkgtemplate.ParserOptions
}

// Ensure the implementation satisfies the public interface.
var _ pkgtemplate.Parser = (*Parser)(nil)

// New constructs a Parser with the given options.
func New(options pkgtemplate.ParserOptions) pkgtemplate.Parser {
	return &Parser{options: options}
}

// envelope mirrors the remote JSON document: the template body plus the
// label-keyed validation schema.
type envelope struct {
	Template struct {
		Body []bodyEntry `json:"body"`
	} `json:"template"`
	Schema schemaEnvelope `json:"schema"`
}

type schemaEnvelope struct {
	Properties map[string]json.RawMessage `json:"properties"`
	Required   []string                   `json:"required"`
}

// bodyEntry accepts both the flat descriptor shape and the nested
// GitHub-style type/attributes shape, since the upstream API has served both.
type bodyEntry struct {
	Kind               pkgtemplate.FieldKind `json:"kind"`
	Type               string                `json:"type"`
	ID                 string                `json:"id"`
	Label              string                `json:"label"`
	Description        string                `json:"description"`
	Required           bool                  `json:"required"`
	Default            string                `json:"default"`
	Options            []string              `json:"options"`
	DefaultOptionIndex int                   `json:"defaultOptionIndex"`

	Attributes  *formAttributes  `json:"attributes"`
	Validations *formValidations `json:"validations"`
}

// Parse decodes the document, attempting the JSON envelope first and falling
// back to issue-form YAML when permitted.
func (p *Parser) Parse(ctx context.Context, doc pkgtemplate.Document) (pkgtemplate.TemplateDocument, error) {
	if err := ctx.Err(); err != nil {
		return pkgtemplate.TemplateDocument{}, err
	}
	raw := doc.Raw()
	if len(raw) == 0 {
		return pkgtemplate.TemplateDocument{}, errors.New("template parser: document payload is empty")
	}

	parsed, jsonErr := p.parseEnvelope(raw)
	if jsonErr != nil {
		if !p.options.AllowIssueForm {
			return pkgtemplate.TemplateDocument{}, jsonErr
		}
		var yamlErr error
		parsed, yamlErr = parseIssueForm(raw)
		if yamlErr != nil {
			return pkgtemplate.TemplateDocument{}, fmt.Errorf("template parser: document is neither a template envelope (%v) nor an issue form (%v)", jsonErr, yamlErr)
		}
	}

	if !p.options.SkipValidate {
		if err := parsed.ValidateNonEmpty(); err != nil {
			return pkgtemplate.TemplateDocument{}, err
		}
	}
	return parsed, nil
}

func (p *Parser) parseEnvelope(raw []byte) (pkgtemplate.TemplateDocument, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return pkgtemplate.TemplateDocument{}, fmt.Errorf("template parser: decode envelope: %w", err)
	}
	if len(env.Template.Body) == 0 {
		return pkgtemplate.TemplateDocument{}, errors.New("template parser: envelope has no template body")
	}

	fields := make([]pkgtemplate.FieldDescriptor, 0, len(env.Template.Body))
	for idx, entry := range env.Template.Body {
		field, ok, err := entry.descriptor(idx)
		if err != nil {
			return pkgtemplate.TemplateDocument{}, err
		}
		if !ok {
			continue
		}
		fields = append(fields, field)
	}

	schema, err := convertSchema(env.Schema)
	if err != nil {
		return pkgtemplate.TemplateDocument{}, err
	}

	return pkgtemplate.TemplateDocument{Fields: fields, Schema: schema}, nil
}

func (e bodyEntry) descriptor(idx int) (pkgtemplate.FieldDescriptor, bool, error) {
	if e.Attributes != nil || e.Type != "" {
		kind, ok := kindFromIssueFormType(e.Type)
		if !ok {
			// Unsupported control (e.g. checkboxes); the form never renders
			// these, so the entry is skipped rather than rejected.
			return pkgtemplate.FieldDescriptor{}, false, nil
		}
		field := pkgtemplate.FieldDescriptor{
			Kind: kind,
			ID:   e.ID,
		}
		if e.Attributes != nil {
			field.Label = e.Attributes.Label
			field.Description = e.Attributes.Description
			field.Default = e.Attributes.Value
			field.Options = append([]string(nil), e.Attributes.Options...)
			if e.Attributes.Default != nil {
				field.DefaultOptionIndex = *e.Attributes.Default
			}
		}
		if e.Validations != nil {
			field.Required = e.Validations.Required
		}
		return field, true, nil
	}

	if e.Kind == "" {
		return pkgtemplate.FieldDescriptor{}, false, fmt.Errorf("template parser: body entry %d has no kind", idx)
	}
	return pkgtemplate.FieldDescriptor{
		Kind:               e.Kind,
		ID:                 e.ID,
		Label:              e.Label,
		Description:        e.Description,
		Required:           e.Required,
		Default:            e.Default,
		Options:            append([]string(nil), e.Options...),
		DefaultOptionIndex: e.DefaultOptionIndex,
	}, true, nil
}

func convertSchema(env schemaEnvelope) (pkgtemplate.SchemaDocument, error) {
	doc := pkgtemplate.SchemaDocument{}
	if len(env.Required) > 0 {
		doc.Required = append([]string(nil), env.Required...)
	}
	if len(env.Properties) == 0 {
		return doc, nil
	}

	doc.Properties = make(map[string]pkgtemplate.SchemaProperty, len(env.Properties))
	for label, raw := range env.Properties {
		prop, err := convertProperty(raw)
		if err != nil {
			return pkgtemplate.SchemaDocument{}, fmt.Errorf("template parser: property %q: %w", label, err)
		}
		doc.Properties[label] = prop
	}
	return doc, nil
}

// convertProperty decodes a single schema property. OpenAPI-style payloads go
// through kin-openapi; documents using the 2020-12 numeric exclusiveMinimum
// fall back to a direct decode since openapi3 models the keyword as a bool.
func convertProperty(raw json.RawMessage) (pkgtemplate.SchemaProperty, error) {
	var src openapi3.Schema
	if err := src.UnmarshalJSON(raw); err == nil {
		return propertyFromOpenAPI(src), nil
	}

	var fallback struct {
		Type             string   `json:"type"`
		MinLength        *int     `json:"minLength"`
		MaxLength        *int     `json:"maxLength"`
		Enum             []any    `json:"enum"`
		ExclusiveMinimum *float64 `json:"exclusiveMinimum"`
	}
	if err := json.Unmarshal(raw, &fallback); err != nil {
		return pkgtemplate.SchemaProperty{}, err
	}

	prop := pkgtemplate.SchemaProperty{
		Type:             propertyType(fallback.Type),
		MinLength:        fallback.MinLength,
		MaxLength:        fallback.MaxLength,
		ExclusiveMinimum: fallback.ExclusiveMinimum,
	}
	prop.Enum = stringifyEnum(fallback.Enum)
	return prop, nil
}

func propertyFromOpenAPI(src openapi3.Schema) pkgtemplate.SchemaProperty {
	prop := pkgtemplate.SchemaProperty{
		Type: propertyType(firstSchemaType(src.Type)),
	}
	if src.MinLength != 0 {
		value := int(src.MinLength)
		prop.MinLength = &value
	}
	if src.MaxLength != nil {
		value := int(*src.MaxLength)
		prop.MaxLength = &value
	}
	if src.Min != nil {
		// The engine applies the lower bound inclusively whether the document
		// spelled it minimum or exclusiveMinimum; see pkg/rules.
		value := *src.Min
		prop.ExclusiveMinimum = &value
	}
	prop.Enum = stringifyEnum(src.Enum)
	return prop
}

func firstSchemaType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	values := types.Slice()
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func propertyType(raw string) pkgtemplate.PropertyType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "number", "integer":
		return pkgtemplate.PropertyTypeNumber
	default:
		return pkgtemplate.PropertyTypeString
	}
}

func stringifyEnum(values []any) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, value := range values {
		switch v := value.(type) {
		case string:
			out = append(out, v)
		case float64:
			out = append(out, strconv.FormatFloat(v, 'f', -1, 64))
		case json.Number:
			out = append(out, v.String())
		case bool:
			out = append(out, strconv.FormatBool(v))
		default:
			out = append(out, fmt.Sprint(v))
		}
	}
	return out
}
