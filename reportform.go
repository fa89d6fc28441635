package reportform

import (
	"context"

	"github.com/goliatone/go-reportform/pkg/form"
	"github.com/goliatone/go-reportform/pkg/report"
	"github.com/goliatone/go-reportform/pkg/template"
)

// Source aliases the template source abstraction so callers can build
// engines without importing the template package directly.
type Source = template.Source

// SubmitRequest carries the image selections for one submit attempt.
type SubmitRequest = form.SubmitRequest

// Result is the outcome of a successful submit.
type Result = form.Result

// ValidationError is a field failure produced during a submit attempt.
type ValidationError = form.ValidationError

// Completion is the exit signal fired after direct issue creation.
type Completion = form.Completion

// SourceFromFile points a loader at a template file on disk.
func SourceFromFile(path string) Source {
	return template.SourceFromFile(path)
}

// SourceFromURL points a loader at a remote template document.
func SourceFromURL(raw string) Source {
	return template.SourceFromURL(raw)
}

// NewEngine exposes the form engine constructor from the top-level module.
func NewEngine(gameName string, options ...form.Option) *form.Engine {
	return form.New(gameName, options...)
}

// ComposeMarkdown fetches the template, seeds the form for the given game
// (optionally from a prior submission's values), and returns the assembled
// report title and markdown. It is the simplest entry point for callers that
// just want the document without the interactive lifecycle.
func ComposeMarkdown(ctx context.Context, source Source, gameName string, prior map[string]string, options ...form.Option) (title, markdown string, err error) {
	engine := form.New(gameName, options...)
	if err := engine.Init(ctx, source, prior); err != nil {
		return "", "", err
	}
	return report.Title(engine.Store().Values()), engine.Markdown(), nil
}
