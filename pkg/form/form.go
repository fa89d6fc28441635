// Package form coordinates the full report pipeline: template fetch, state
// seeding, section editing, validation, markdown assembly, and dispatch. It
// mirrors the event-driven front end: single-threaded, with explicit
// suspension points at the template fetch, the image uploads, and the final
// issue creation call.
package form

import (
	"context"
	"errors"
	"fmt"
	"strings"

	internalLoader "github.com/goliatone/go-reportform/internal/template/loader"
	internalParser "github.com/goliatone/go-reportform/internal/template/parser"
	"github.com/goliatone/go-reportform/pkg/report"
	"github.com/goliatone/go-reportform/pkg/rules"
	"github.com/goliatone/go-reportform/pkg/sections"
	"github.com/goliatone/go-reportform/pkg/state"
	"github.com/goliatone/go-reportform/pkg/submit"
	"github.com/goliatone/go-reportform/pkg/template"
)

const (
	stageScreenshots = "In-Game screenshots"
	stageNotes       = "Additional Notes"

	fieldAdditionalNotes = "additional_notes"
)

// DefaultPriorFieldAllowList names the field ids a prior submission may
// seed. Everything else starts from the template defaults.
var DefaultPriorFieldAllowList = []string{
	template.FieldGameName,
	template.FieldDevice,
}

// Option customises the engine configuration.
type Option func(*Engine)

// WithLoader injects a custom template loader.
func WithLoader(loader template.Loader) Option {
	return func(e *Engine) {
		e.loader = loader
	}
}

// WithParser injects a custom template parser.
func WithParser(parser template.Parser) Option {
	return func(e *Engine) {
		e.parser = parser
	}
}

// WithKV injects the persistence store backing draft snapshots.
func WithKV(kv state.KV) Option {
	return func(e *Engine) {
		e.kv = kv
	}
}

// WithStoreOptions forwards options to the state store (clock overrides in
// tests, mainly).
func WithStoreOptions(options ...state.Option) Option {
	return func(e *Engine) {
		e.storeOptions = append(e.storeOptions, options...)
	}
}

// WithUploader enables image uploads during submit.
func WithUploader(uploader *submit.Uploader) Option {
	return func(e *Engine) {
		e.uploader = uploader
	}
}

// WithIssueClient enables the authenticated direct-creation path.
func WithIssueClient(client *submit.IssueClient) Option {
	return func(e *Engine) {
		e.issues = client
	}
}

// WithNewIssueBase sets the tracker's new-issue page for the prefilled
// redirect path.
func WithNewIssueBase(base string) Option {
	return func(e *Engine) {
		e.newIssueBase = base
	}
}

// WithPriorFieldAllowList overrides which ids a prior submission may seed.
func WithPriorFieldAllowList(ids []string) Option {
	return func(e *Engine) {
		e.priorAllowList = append([]string(nil), ids...)
	}
}

// Engine owns one report form instance.
type Engine struct {
	loader         template.Loader
	parser         template.Parser
	kv             state.KV
	storeOptions   []state.Option
	uploader       *submit.Uploader
	issues         *submit.IssueClient
	newIssueBase   string
	priorAllowList []string

	gameName string
	doc      template.TemplateDocument
	store    *state.Store
	editors  map[string]*sections.Editor

	screenshotMode bool
	imageURLs      []string

	current             State
	stateListeners      []StateListener
	completionListeners []CompletionListener
}

// New constructs an Engine for one game's report, applying defaults for any
// dependency not injected.
func New(gameName string, options ...Option) *Engine {
	e := &Engine{
		gameName:       gameName,
		priorAllowList: DefaultPriorFieldAllowList,
		editors:        make(map[string]*sections.Editor),
		current:        StateUninitialized,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(e)
	}
	if e.loader == nil {
		e.loader = internalLoader.New(template.NewLoaderOptions())
	}
	if e.parser == nil {
		e.parser = internalParser.New(template.NewParserOptions())
	}
	if e.kv == nil {
		e.kv = state.NewMemoryKV()
	}
	return e
}

// State reports the current lifecycle state.
func (e *Engine) State() State {
	return e.current
}

// OnStateChange registers a lifecycle listener.
func (e *Engine) OnStateChange(fn StateListener) {
	if fn != nil {
		e.stateListeners = append(e.stateListeners, fn)
	}
}

// OnCompletion registers the exit-signal listener.
func (e *Engine) OnCompletion(fn CompletionListener) {
	if fn != nil {
		e.completionListeners = append(e.completionListeners, fn)
	}
}

// Init fetches and parses the template, then seeds the form state. Calling
// it again re-runs the pipeline; the last resolved template wins, so racing
// re-fetches are harmless.
func (e *Engine) Init(ctx context.Context, src template.Source, prior map[string]string) error {
	if ctx == nil {
		return errors.New("form: context is required")
	}
	e.setState(StateLoading)

	doc, err := e.loader.Load(ctx, src)
	if err != nil {
		e.setState(StateUninitialized)
		return fmt.Errorf("form: load template: %w", err)
	}
	parsed, err := e.parser.Parse(ctx, doc)
	if err != nil {
		e.setState(StateUninitialized)
		return fmt.Errorf("form: parse template: %w", err)
	}
	e.InitFromTemplate(parsed, prior)
	return nil
}

// InitFromTemplate seeds the form from an already parsed template, bypassing
// the loader stage.
func (e *Engine) InitFromTemplate(doc template.TemplateDocument, prior map[string]string) {
	e.doc = doc
	e.store = state.NewStore(e.gameName, e.kv, e.storeOptions...)
	e.store.Seed(doc, prior, e.priorAllowList)
	e.editors = make(map[string]*sections.Editor)
	e.imageURLs = nil
	e.screenshotMode = false

	for _, id := range []string{template.FieldGameDisplaySettings, template.FieldGameGraphicsSettings} {
		if _, ok := doc.Field(id); !ok {
			continue
		}
		editor := sections.NewEditor(id)
		fieldID := id
		editor.Subscribe(func(markdown string) {
			e.store.SetSectionMarkdown(fieldID, markdown)
			_ = e.store.Persist()
		})
		if value, ok := e.store.Get(id); ok && strings.TrimSpace(value) != "" {
			editor.Rehydrate(value)
		}
		e.editors[id] = editor
	}

	e.setState(StateReady)
}

// Template returns the parsed template document.
func (e *Engine) Template() template.TemplateDocument {
	return e.doc
}

// Store exposes the underlying state store.
func (e *Engine) Store() *state.Store {
	return e.store
}

// Editor returns the section editor for one of the two settings fields.
func (e *Engine) Editor(fieldID string) (*sections.Editor, error) {
	editor, ok := e.editors[fieldID]
	if !ok {
		return nil, fmt.Errorf("form: no section editor for field %q", fieldID)
	}
	return editor, nil
}

// SetValue records a user edit and persists the draft. Debouncing, when
// wanted, happens above this call.
func (e *Engine) SetValue(fieldID, value string) error {
	if e.store == nil {
		return errors.New("form: not initialised")
	}
	e.store.Set(fieldID, value)
	return e.store.Persist()
}

// Value reads the current value for a field.
func (e *Engine) Value(fieldID string) string {
	if e.store == nil {
		return ""
	}
	value, _ := e.store.Get(fieldID)
	return value
}

// SetScreenshotMode switches between typed settings and uploaded
// screenshots, persisting the inverse manual-input preference.
func (e *Engine) SetScreenshotMode(enabled bool) {
	e.screenshotMode = enabled
	if e.store != nil {
		e.store.SetManualInputMode(!enabled)
	}
}

// ScreenshotMode reports the current submission mode.
func (e *Engine) ScreenshotMode() bool {
	return e.screenshotMode
}

// Cancel drops the persisted draft while keeping in-memory values, then
// leaves the form editable. Distinct from Reset.
func (e *Engine) Cancel() {
	if e.store != nil {
		e.store.Clear()
	}
}

// Reset reinitialises the in-memory values from the template defaults.
func (e *Engine) Reset() {
	if e.store != nil {
		e.store.Reset(e.doc)
	}
	for _, editor := range e.editors {
		editor.Replace(nil)
	}
}

// Validate runs the per-field rule chains plus the form-level required
// check, returning every failure. Settings fields are exempt in screenshot
// mode since images replace their typed values.
func (e *Engine) Validate() []ValidationError {
	if e.store == nil {
		return []ValidationError{{Message: "form is not initialised"}}
	}

	opts := rules.Options{
		SectionEdited: func(fieldID string) bool {
			editor, ok := e.editors[fieldID]
			return ok && editor.Touched()
		},
	}

	var out []ValidationError
	for _, field := range e.doc.Fields {
		if !field.Editable() {
			continue
		}
		if e.screenshotMode && template.SettingsField(field.ID) {
			continue
		}

		value := e.resolvedValue(field.ID)
		if field.Required && strings.TrimSpace(value) == "" {
			out = append(out, ValidationError{
				FieldID:                  field.ID,
				RelatesToSettingsSection: template.SettingsField(field.ID),
				Message:                  fmt.Sprintf("%s is required", field.Label),
			})
			continue
		}

		chain := rules.Derive(field, e.doc.Schema.Properties, opts)
		if err := rules.Apply(chain, value); err != nil {
			out = append(out, ValidationError{
				FieldID:                  field.ID,
				RelatesToSettingsSection: template.SettingsField(field.ID),
				Message:                  err.Error(),
			})
		}
	}
	return out
}

// resolvedValue prefers the section editor output for touched settings
// fields, matching what assembly will use.
func (e *Engine) resolvedValue(fieldID string) string {
	if template.SettingsField(fieldID) {
		if editor, ok := e.editors[fieldID]; ok && editor.Touched() {
			return editor.Markdown()
		}
	}
	value, _ := e.store.Get(fieldID)
	return value
}

// Markdown assembles the report document from the current state.
func (e *Engine) Markdown() string {
	return report.Assemble(report.Input{
		Fields:          e.doc.Fields,
		Values:          e.store.Values(),
		SectionMarkdown: e.touchedSectionMarkdown(),
		ScreenshotMode:  e.screenshotMode,
		ImageURLs:       e.imageURLs,
	})
}

func (e *Engine) touchedSectionMarkdown() map[string]string {
	out := make(map[string]string, len(e.editors))
	for id, editor := range e.editors {
		if editor.Touched() {
			out[id] = editor.Markdown()
		}
	}
	return out
}

// SubmitRequest carries the image selections for one submit attempt.
type SubmitRequest struct {
	// Screenshots are the in-game settings screenshots used in screenshot
	// mode. Capped at MaxScreenshots total.
	Screenshots []submit.Asset
	// NotesImages are attachments appended to the additional-notes field.
	NotesImages []submit.Asset
}

// Result is the outcome of a successful submit.
type Result struct {
	Title       string
	Markdown    string
	RedirectURL string
	Issue       *submit.Issue
}

// Submit validates, uploads, assembles, and dispatches. Failures leave the
// form editable with the draft snapshot intact; only user-driven Cancel
// clears it.
func (e *Engine) Submit(ctx context.Context, req SubmitRequest) (Result, error) {
	if ctx == nil {
		return Result{}, errors.New("form: context is required")
	}
	if e.store == nil {
		return Result{}, errors.New("form: not initialised")
	}

	e.setState(StateValidating)
	if errs := e.Validate(); len(errs) > 0 {
		e.failValidation()
		return Result{}, &ValidationErrors{Errors: errs}
	}

	// Pre-flight asset checks happen before any network call.
	if err := submit.ValidateAssets(req.Screenshots, submit.MaxScreenshots); err != nil {
		e.failValidation()
		return Result{}, err
	}
	if err := submit.ValidateAssets(req.NotesImages, 0); err != nil {
		e.failValidation()
		return Result{}, err
	}

	e.setState(StateSubmitting)

	if e.screenshotMode && len(req.Screenshots) > 0 {
		urls, err := e.upload(ctx, stageScreenshots, req.Screenshots)
		if err != nil {
			e.failSubmit()
			return Result{}, err
		}
		e.imageURLs = urls
	}

	if len(req.NotesImages) > 0 {
		urls, err := e.upload(ctx, stageNotes, req.NotesImages)
		if err != nil {
			e.failSubmit()
			return Result{}, err
		}
		e.appendNotesImages(urls)
	}

	values := e.store.Values()
	result := Result{
		Title:    report.Title(values),
		Markdown: e.Markdown(),
	}

	switch {
	case e.issues != nil:
		issue, err := e.issues.Create(ctx, result.Title, result.Markdown)
		if err != nil {
			e.failSubmit()
			return Result{}, err
		}
		result.Issue = &issue
		e.notifyCompletion(Completion{
			IssueNumber: issue.Number,
			IssueURL:    issue.HTMLURL,
			CreatedAt:   issue.CreatedAt,
		})
	case e.newIssueBase != "":
		redirect, err := submit.NewIssueURL(e.newIssueBase, result.Title, result.Markdown)
		if err != nil {
			e.failSubmit()
			return Result{}, err
		}
		result.RedirectURL = redirect
	default:
		e.failSubmit()
		return Result{}, errors.New("form: no submission target configured")
	}

	e.setState(StateSubmitted)
	return result, nil
}

func (e *Engine) upload(ctx context.Context, stage string, assets []submit.Asset) ([]string, error) {
	if e.uploader == nil {
		return nil, &submit.UploadError{Stage: stage, Err: errors.New("no uploader configured")}
	}
	return e.uploader.Upload(ctx, stage, assets)
}

func (e *Engine) appendNotesImages(urls []string) {
	if len(urls) == 0 {
		return
	}
	var lines []string
	for _, url := range urls {
		lines = append(lines, "![Image]("+url+")")
	}
	current, _ := e.store.Get(fieldAdditionalNotes)
	block := strings.Join(lines, "\n")
	if strings.TrimSpace(current) == "" {
		e.store.Set(fieldAdditionalNotes, block)
		return
	}
	e.store.Set(fieldAdditionalNotes, current+"\n\n"+block)
}

// failValidation and failSubmit surface the transient failure state before
// landing back on Ready; the draft stays intact either way.
func (e *Engine) failValidation() {
	e.setState(StateInvalid)
	e.setState(StateReady)
}

func (e *Engine) failSubmit() {
	e.setState(StateSubmitFailed)
	e.setState(StateReady)
}

func (e *Engine) setState(next State) {
	e.current = next
	for _, fn := range e.stateListeners {
		fn(next)
	}
}

func (e *Engine) notifyCompletion(completion Completion) {
	for _, fn := range e.completionListeners {
		fn(completion)
	}
}
