// Package preview renders an assembled report as a sanitized HTML fragment
// so the embedding page can show the document before submission. Styling is
// left to the host page.
package preview

import (
	"embed"
	"errors"
	"fmt"
	"html"
	"io/fs"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
	"github.com/microcosm-cc/bluemonday"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

const templateName = "preview.html"

var (
	policyOnce   sync.Once
	reportPolicy *bluemonday.Policy
)

// Option configures the renderer before construction.
type Option func(*config)

type config struct {
	templates fs.FS
}

// WithTemplates overrides the embedded template filesystem.
func WithTemplates(fsys fs.FS) Option {
	return func(cfg *config) {
		cfg.templates = fsys
	}
}

// Renderer turns report markdown into a full sanitized HTML page.
type Renderer struct {
	set *pongo2.TemplateSet
}

// New constructs a Renderer backed by the embedded template set.
func New(options ...Option) (*Renderer, error) {
	cfg := &config{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}

	templates := cfg.templates
	if templates == nil {
		sub, err := fs.Sub(embeddedTemplates, "templates")
		if err != nil {
			return nil, fmt.Errorf("preview: embedded templates: %w", err)
		}
		templates = sub
	}

	return &Renderer{
		set: pongo2.NewSet("reportform-preview", pongo2.NewFSLoader(templates)),
	}, nil
}

// Render produces the preview page for one report document.
func (r *Renderer) Render(title, markdown string) ([]byte, error) {
	if r == nil || r.set == nil {
		return nil, errors.New("preview: renderer is nil")
	}

	tmpl, err := r.set.FromCache(templateName)
	if err != nil {
		return nil, fmt.Errorf("preview: load template: %w", err)
	}

	content := sanitize(ConvertMarkdown(markdown))
	out, err := tmpl.ExecuteBytes(pongo2.Context{
		"title":   title,
		"content": content,
	})
	if err != nil {
		return nil, fmt.Errorf("preview: execute template: %w", err)
	}
	return out, nil
}

// Fragment returns just the sanitized report body without the page chrome.
func Fragment(markdown string) string {
	return sanitize(ConvertMarkdown(markdown))
}

// ConvertMarkdown translates the report's markdown dialect (headings, the
// `- **key:** value` lists, image lines, plain paragraphs) into HTML. It is
// deliberately not a general markdown renderer; the assembler only ever
// emits this subset.
func ConvertMarkdown(markdown string) string {
	var (
		b      strings.Builder
		inList bool
	)
	closeList := func() {
		if inList {
			b.WriteString("</ul>\n")
			inList = false
		}
	}

	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			closeList()
		case strings.HasPrefix(trimmed, "#### "):
			closeList()
			b.WriteString("<h4>" + html.EscapeString(strings.TrimPrefix(trimmed, "#### ")) + "</h4>\n")
		case strings.HasPrefix(trimmed, "### "):
			closeList()
			b.WriteString("<h3>" + html.EscapeString(strings.TrimPrefix(trimmed, "### ")) + "</h3>\n")
		case strings.HasPrefix(trimmed, "![Image](") && strings.HasSuffix(trimmed, ")"):
			closeList()
			url := strings.TrimSuffix(strings.TrimPrefix(trimmed, "![Image]("), ")")
			b.WriteString(`<img src="` + html.EscapeString(url) + `" alt="Image">` + "\n")
		case strings.HasPrefix(trimmed, "- "):
			if !inList {
				b.WriteString("<ul>\n")
				inList = true
			}
			b.WriteString("<li>" + itemHTML(strings.TrimPrefix(trimmed, "- ")) + "</li>\n")
		default:
			closeList()
			b.WriteString("<p>" + html.EscapeString(trimmed) + "</p>\n")
		}
	}
	closeList()
	return b.String()
}

// itemHTML renders the bolded key of a settings item when present.
func itemHTML(item string) string {
	if strings.HasPrefix(item, "**") {
		if idx := strings.Index(item[2:], ":**"); idx >= 0 {
			key := item[2 : 2+idx]
			rest := strings.TrimSpace(item[2+idx+3:])
			return "<strong>" + html.EscapeString(key) + ":</strong> " + html.EscapeString(rest)
		}
	}
	return html.EscapeString(item)
}

func sanitize(fragment string) string {
	return previewPolicy().Sanitize(fragment)
}

func previewPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy := bluemonday.UGCPolicy()
		policy.AllowAttrs("alt").OnElements("img")
		reportPolicy = policy
	})
	return reportPolicy
}
