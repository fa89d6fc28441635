package template_test

import (
	"strings"
	"testing"

	"github.com/goliatone/go-reportform/pkg/template"
)

func TestFieldDescriptorDefaultValue(t *testing.T) {
	cases := []struct {
		name  string
		field template.FieldDescriptor
		want  string
	}{
		{
			name:  "input uses default",
			field: template.FieldDescriptor{Kind: template.FieldKindInput, ID: "device", Default: "Legion Go"},
			want:  "Legion Go",
		},
		{
			name: "dropdown uses default option index",
			field: template.FieldDescriptor{
				Kind:               template.FieldKindDropdown,
				ID:                 "device",
				Options:            []string{"ROG Ally", "Steam Deck", "Legion Go"},
				DefaultOptionIndex: 1,
			},
			want: "Steam Deck",
		},
		{
			name: "dropdown with out-of-range index falls back to empty",
			field: template.FieldDescriptor{
				Kind:               template.FieldKindDropdown,
				ID:                 "device",
				Options:            []string{"ROG Ally"},
				DefaultOptionIndex: 4,
			},
			want: "",
		},
		{
			name:  "markdown has no value",
			field: template.FieldDescriptor{Kind: template.FieldKindMarkdown, Label: "Intro"},
			want:  "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.field.DefaultValue(); got != tc.want {
				t.Fatalf("DefaultValue() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestTemplateDocumentValidate(t *testing.T) {
	doc := template.TemplateDocument{
		Fields: []template.FieldDescriptor{
			{Kind: template.FieldKindMarkdown, Label: "Fill this in carefully"},
			{Kind: template.FieldKindInput, ID: "game_name", Label: "Game Name"},
			{Kind: template.FieldKindDropdown, ID: "device", Label: "Device", Options: []string{"ROG Ally"}},
		},
	}
	if err := doc.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}
}

func TestTemplateDocumentValidateRejectsDuplicates(t *testing.T) {
	doc := template.TemplateDocument{
		Fields: []template.FieldDescriptor{
			{Kind: template.FieldKindInput, ID: "game_name", Label: "Game Name"},
			{Kind: template.FieldKindInput, ID: "game_name", Label: "Game Name Again"},
		},
	}
	err := doc.Validate()
	if err == nil {
		t.Fatal("expected duplicate id error")
	}
	if !strings.Contains(err.Error(), "duplicate field id") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTemplateDocumentValidateRejectsMissingID(t *testing.T) {
	doc := template.TemplateDocument{
		Fields: []template.FieldDescriptor{
			{Kind: template.FieldKindInput, Label: "Game Name"},
		},
	}
	if err := doc.Validate(); err == nil {
		t.Fatal("expected missing id error")
	}
}

func TestTemplateDocumentValidateRejectsEmptyDropdown(t *testing.T) {
	doc := template.TemplateDocument{
		Fields: []template.FieldDescriptor{
			{Kind: template.FieldKindDropdown, ID: "device", Label: "Device"},
		},
	}
	if err := doc.Validate(); err == nil {
		t.Fatal("expected empty dropdown error")
	}
}

func TestValidateNonEmptyRequiresEditableField(t *testing.T) {
	doc := template.TemplateDocument{
		Fields: []template.FieldDescriptor{
			{Kind: template.FieldKindMarkdown, Label: "Only prose"},
		},
	}
	if err := doc.ValidateNonEmpty(); err == nil {
		t.Fatal("expected error for template without editable fields")
	}
}

func TestFieldLookup(t *testing.T) {
	doc := template.TemplateDocument{
		Fields: []template.FieldDescriptor{
			{Kind: template.FieldKindInput, ID: "game_name", Label: "Game Name"},
		},
	}
	if _, ok := doc.Field("game_name"); !ok {
		t.Fatal("expected game_name lookup to succeed")
	}
	if _, ok := doc.Field("missing"); ok {
		t.Fatal("expected missing lookup to fail")
	}
	if _, ok := doc.Field(""); ok {
		t.Fatal("expected empty id lookup to fail")
	}
}

func TestSettingsField(t *testing.T) {
	if !template.SettingsField(template.FieldGameDisplaySettings) {
		t.Fatal("display settings should be a settings field")
	}
	if !template.SettingsField(template.FieldGameGraphicsSettings) {
		t.Fatal("graphics settings should be a settings field")
	}
	if template.SettingsField(template.FieldGameName) {
		t.Fatal("game_name is not a settings field")
	}
}
