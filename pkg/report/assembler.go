// Package report assembles the final markdown document from the template
// field order, the current form values, and the section editor output.
package report

import (
	"strings"

	"github.com/goliatone/go-reportform/pkg/template"
)

// NoResponse is the placeholder the issue tracker renders for blank fields.
const NoResponse = "_No response_"

// Input carries everything the assembler needs. It never mutates its inputs.
type Input struct {
	// Fields is the ordered descriptor list from the template.
	Fields []template.FieldDescriptor
	// Values maps field id to the current form value.
	Values map[string]string
	// SectionMarkdown overrides Values for the settings fields whose section
	// editor has been touched; keyed by field id.
	SectionMarkdown map[string]string
	// ScreenshotMode substitutes uploaded screenshots for typed settings:
	// the display field becomes one image line per URL and the graphics
	// field is forced blank.
	ScreenshotMode bool
	// ImageURLs lists uploaded screenshot URLs in upload order.
	ImageURLs []string
}

// Assemble walks the descriptors in template order and renders one `###`
// block per editable field, joined by blank lines.
func Assemble(in Input) string {
	var blocks []string
	for _, field := range in.Fields {
		if !field.Editable() {
			continue
		}
		blocks = append(blocks, "### "+field.Label+"\n\n"+resolveValue(in, field))
	}
	return strings.Join(blocks, "\n\n")
}

func resolveValue(in Input, field template.FieldDescriptor) string {
	if in.ScreenshotMode {
		switch field.ID {
		case template.FieldGameGraphicsSettings:
			return NoResponse
		case template.FieldGameDisplaySettings:
			if lines := imageLines(in.ImageURLs); lines != "" {
				return lines
			}
			return NoResponse
		}
	}

	if template.SettingsField(field.ID) {
		if markdown, ok := in.SectionMarkdown[field.ID]; ok {
			return orPlaceholder(markdown)
		}
	}
	return orPlaceholder(in.Values[field.ID])
}

func imageLines(urls []string) string {
	var lines []string
	for _, url := range urls {
		if strings.TrimSpace(url) == "" {
			continue
		}
		lines = append(lines, "![Image]("+url+")")
	}
	return strings.Join(lines, "\n")
}

func orPlaceholder(value string) string {
	if strings.TrimSpace(value) == "" {
		return NoResponse
	}
	return value
}

// Title builds the issue title from the game name plus the device when one
// was selected, e.g. "Hades (ROG Ally)". Falls back to the bare game name.
func Title(values map[string]string) string {
	game := strings.TrimSpace(values[template.FieldGameName])
	device := strings.TrimSpace(values[template.FieldDevice])
	if game == "" {
		return device
	}
	if device == "" {
		return game
	}
	return game + " (" + device + ")"
}
