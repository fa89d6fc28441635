package parser_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-reportform/internal/template/parser"
	pkgtemplate "github.com/goliatone/go-reportform/pkg/template"
)

const envelopeJSON = `{
  "template": {
    "body": [
      {"kind": "markdown", "label": "Share how the game runs on your handheld."},
      {"kind": "input", "id": "game_name", "label": "Game Name", "required": true},
      {"kind": "dropdown", "id": "device", "label": "Device",
       "options": ["ROG Ally", "Steam Deck", "Legion Go"], "defaultOptionIndex": 1},
      {"kind": "input", "id": "average_fps", "label": "Average FPS"},
      {"kind": "input", "id": "undervolt_applied", "label": "Undervolt Applied"},
      {"kind": "textarea", "id": "game_display_settings", "label": "Display Settings"}
    ]
  },
  "schema": {
    "properties": {
      "Game Name": {"type": "string", "minLength": 1, "maxLength": 120},
      "Device": {"type": "string", "enum": ["ROG Ally", "Steam Deck", "Legion Go"]},
      "Average FPS": {"type": "number", "exclusiveMinimum": 1}
    },
    "required": ["Game Name"]
  }
}`

func parseDoc(t *testing.T, payload string, options pkgtemplate.ParserOptions) pkgtemplate.TemplateDocument {
	t.Helper()
	doc := pkgtemplate.MustNewDocument(pkgtemplate.SourceFromFile("template.json"), []byte(payload))
	parsed, err := parser.New(options).Parse(context.Background(), doc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return parsed
}

func TestParseEnvelope(t *testing.T) {
	parsed := parseDoc(t, envelopeJSON, pkgtemplate.NewParserOptions())

	if got := len(parsed.Fields); got != 6 {
		t.Fatalf("expected 6 fields, got %d", got)
	}

	device, ok := parsed.Field("device")
	if !ok {
		t.Fatal("device field missing")
	}
	if device.Kind != pkgtemplate.FieldKindDropdown {
		t.Fatalf("device kind = %q", device.Kind)
	}
	if device.DefaultValue() != "Steam Deck" {
		t.Fatalf("device default = %q", device.DefaultValue())
	}

	game, ok := parsed.Field("game_name")
	if !ok || !game.Required {
		t.Fatalf("game_name should be present and required: %+v", game)
	}
}

func TestParseEnvelopeSchema(t *testing.T) {
	parsed := parseDoc(t, envelopeJSON, pkgtemplate.NewParserOptions())

	// Properties are keyed by label, not field id.
	name, ok := parsed.Schema.Properties["Game Name"]
	if !ok {
		t.Fatal("Game Name property missing")
	}
	if name.Type != pkgtemplate.PropertyTypeString {
		t.Fatalf("Game Name type = %q", name.Type)
	}
	if name.MinLength == nil || *name.MinLength != 1 {
		t.Fatalf("Game Name minLength = %v", name.MinLength)
	}
	if name.MaxLength == nil || *name.MaxLength != 120 {
		t.Fatalf("Game Name maxLength = %v", name.MaxLength)
	}

	fps, ok := parsed.Schema.Properties["Average FPS"]
	if !ok {
		t.Fatal("Average FPS property missing")
	}
	if fps.Type != pkgtemplate.PropertyTypeNumber {
		t.Fatalf("Average FPS type = %q", fps.Type)
	}
	// The 2020-12 numeric exclusiveMinimum survives decoding.
	if fps.ExclusiveMinimum == nil || *fps.ExclusiveMinimum != 1 {
		t.Fatalf("Average FPS exclusiveMinimum = %v", fps.ExclusiveMinimum)
	}

	device, ok := parsed.Schema.Properties["Device"]
	if !ok {
		t.Fatal("Device property missing")
	}
	wantEnum := []string{"ROG Ally", "Steam Deck", "Legion Go"}
	if diff := cmp.Diff(wantEnum, device.Enum); diff != "" {
		t.Fatalf("Device enum mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"Game Name"}, parsed.Schema.Required); diff != "" {
		t.Fatalf("required mismatch (-want +got):\n%s", diff)
	}
}

func TestParseNumericEnum(t *testing.T) {
	payload := `{
  "template": {"body": [{"kind": "dropdown", "id": "refresh_rate", "label": "Refresh Rate", "options": ["60", "90", "120"]}]},
  "schema": {"properties": {"Refresh Rate": {"type": "number", "enum": [60, 90, 120]}}}
}`
	parsed := parseDoc(t, payload, pkgtemplate.NewParserOptions())
	prop := parsed.Schema.Properties["Refresh Rate"]
	if diff := cmp.Diff([]string{"60", "90", "120"}, prop.Enum); diff != "" {
		t.Fatalf("numeric enum not stringified (-want +got):\n%s", diff)
	}
}

func TestParseGitHubStyleBody(t *testing.T) {
	payload := `{
  "template": {
    "body": [
      {"type": "markdown", "attributes": {"label": "Heads up"}},
      {"type": "input", "id": "game_name",
       "attributes": {"label": "Game Name", "description": "Exact store title"},
       "validations": {"required": true}},
      {"type": "dropdown", "id": "device",
       "attributes": {"label": "Device", "options": ["ROG Ally", "Steam Deck"], "default": 1}},
      {"type": "checkboxes", "id": "ignored",
       "attributes": {"label": "Unsupported control"}}
    ]
  },
  "schema": {"properties": {}}
}`
	parsed := parseDoc(t, payload, pkgtemplate.NewParserOptions())

	// The checkboxes entry is skipped, not rejected.
	if got := len(parsed.Fields); got != 3 {
		t.Fatalf("expected 3 fields, got %d", got)
	}
	game, ok := parsed.Field("game_name")
	if !ok || !game.Required || game.Description != "Exact store title" {
		t.Fatalf("game_name not converted: %+v", game)
	}
	device, _ := parsed.Field("device")
	if device.DefaultValue() != "Steam Deck" {
		t.Fatalf("dropdown default index not converted: %+v", device)
	}
}

func TestParseIssueFormYAML(t *testing.T) {
	payload := `name: Game Report
description: How does it run?
body:
  - type: markdown
    attributes:
      value: "Share how the game runs."
  - type: input
    id: game_name
    attributes:
      label: Game Name
    validations:
      required: true
  - type: dropdown
    id: device
    attributes:
      label: Device
      options:
        - ROG Ally
        - Steam Deck
  - type: textarea
    id: game_display_settings
    attributes:
      label: Display Settings
`
	parsed := parseDoc(t, payload, pkgtemplate.NewParserOptions())
	if got := len(parsed.Fields); got != 4 {
		t.Fatalf("expected 4 fields, got %d", got)
	}
	if _, ok := parsed.Field("game_display_settings"); !ok {
		t.Fatal("textarea field missing")
	}
	// Issue forms carry no validation schema.
	if len(parsed.Schema.Properties) != 0 {
		t.Fatalf("expected empty schema, got %#v", parsed.Schema.Properties)
	}
}

func TestParseIssueFormDisabled(t *testing.T) {
	doc := pkgtemplate.MustNewDocument(pkgtemplate.SourceFromFile("form.yml"), []byte("body:\n  - type: input\n    id: game_name\n    attributes:\n      label: Game Name\n"))
	_, err := parser.New(pkgtemplate.ParserOptions{AllowIssueForm: false}).Parse(context.Background(), doc)
	if err == nil {
		t.Fatal("YAML payload should be rejected when issue forms are disabled")
	}
}

func TestParseRejectsEmptyBody(t *testing.T) {
	doc := pkgtemplate.MustNewDocument(pkgtemplate.SourceFromFile("template.json"), []byte(`{"template":{"body":[]},"schema":{}}`))
	if _, err := parser.New(pkgtemplate.NewParserOptions()).Parse(context.Background(), doc); err == nil {
		t.Fatal("expected error for empty body")
	}
}

func TestParseRejectsEntryWithoutKind(t *testing.T) {
	doc := pkgtemplate.MustNewDocument(pkgtemplate.SourceFromFile("template.json"), []byte(`{"template":{"body":[{"id":"game_name","label":"Game Name"}]},"schema":{}}`))
	if _, err := parser.New(pkgtemplate.ParserOptions{AllowIssueForm: false}).Parse(context.Background(), doc); err == nil {
		t.Fatal("expected error for entry without kind")
	}
}

func TestParseEnforcesStructuralInvariants(t *testing.T) {
	payload := `{
  "template": {"body": [
    {"kind": "input", "id": "game_name", "label": "Game Name"},
    {"kind": "input", "id": "game_name", "label": "Duplicate"}
  ]},
  "schema": {}
}`
	doc := pkgtemplate.MustNewDocument(pkgtemplate.SourceFromFile("template.json"), []byte(payload))
	if _, err := parser.New(pkgtemplate.NewParserOptions()).Parse(context.Background(), doc); err == nil {
		t.Fatal("expected duplicate id rejection")
	}
}
