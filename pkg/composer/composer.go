// Package composer walks a parsed report template in a terminal session,
// prompting for each editable field and feeding answers back into the form
// engine. The section editor flow lets the user build display and graphics
// settings as titled key/value groups instead of free text.
package composer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-reportform/pkg/form"
	"github.com/goliatone/go-reportform/pkg/rules"
	"github.com/goliatone/go-reportform/pkg/template"
)

// Option configures the composer.
type Option func(*Composer)

// WithDriver swaps the prompt driver, mainly for tests.
func WithDriver(driver PromptDriver) Option {
	return func(c *Composer) {
		c.driver = driver
	}
}

// Composer runs the interactive fill-in session.
type Composer struct {
	driver PromptDriver
}

// New constructs a Composer backed by a survey-based terminal driver unless
// another driver is injected.
func New(options ...Option) *Composer {
	c := &Composer{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	if c.driver == nil {
		c.driver = newSurveyDriver()
	}
	return c
}

// Run prompts for every editable field in template order. The engine must be
// initialised before calling Run.
func (c *Composer) Run(ctx context.Context, engine *form.Engine) error {
	if engine == nil {
		return errors.New("composer: engine is required")
	}
	doc := engine.Template()
	if len(doc.Fields) == 0 {
		return errors.New("composer: template has no fields")
	}

	for _, field := range doc.Fields {
		if field.Kind == template.FieldKindMarkdown {
			if strings.TrimSpace(field.Label) != "" {
				if err := c.driver.Info(ctx, field.Label); err != nil {
					return err
				}
			}
			continue
		}
		if template.SettingsField(field.ID) {
			if err := c.promptSettings(ctx, engine, field); err != nil {
				return err
			}
			continue
		}
		if err := c.promptValue(ctx, engine, field); err != nil {
			return err
		}
	}
	return nil
}

// promptValue asks for a scalar field and retries until its rules pass.
func (c *Composer) promptValue(ctx context.Context, engine *form.Engine, field template.FieldDescriptor) error {
	chain := rules.Derive(field, engine.Template().Schema.Properties, rules.Options{})
	for {
		value, err := c.ask(ctx, engine, field)
		if err != nil {
			return err
		}
		if field.Required && strings.TrimSpace(value) == "" {
			if err := c.driver.Info(ctx, fmt.Sprintf("%s is required", field.Label)); err != nil {
				return err
			}
			continue
		}
		if err := rules.Apply(chain, value); err != nil {
			if infoErr := c.driver.Info(ctx, err.Error()); infoErr != nil {
				return infoErr
			}
			continue
		}
		return engine.SetValue(field.ID, value)
	}
}

func (c *Composer) ask(ctx context.Context, engine *form.Engine, field template.FieldDescriptor) (string, error) {
	current := engine.Value(field.ID)
	switch field.Kind {
	case template.FieldKindDropdown:
		defaultIndex := field.DefaultOptionIndex
		for i, option := range field.Options {
			if option == current {
				defaultIndex = i
			}
		}
		idx, err := c.driver.Select(ctx, SelectConfig{
			Message:      field.Label,
			Options:      field.Options,
			DefaultIndex: defaultIndex,
			Help:         field.Description,
		})
		if err != nil {
			return "", err
		}
		if idx < 0 || idx >= len(field.Options) {
			return "", nil
		}
		return field.Options[idx], nil
	case template.FieldKindTextarea:
		return c.driver.TextArea(ctx, TextAreaConfig{
			Message: field.Label,
			Default: current,
			Help:    field.Description,
		})
	default:
		return c.driver.Input(ctx, InputConfig{
			Message: field.Label,
			Default: current,
			Help:    field.Description,
		})
	}
}

// promptSettings offers the structured section flow for the two settings
// fields, falling back to a plain textarea when declined.
func (c *Composer) promptSettings(ctx context.Context, engine *form.Engine, field template.FieldDescriptor) error {
	structured, err := c.driver.Confirm(ctx, ConfirmConfig{
		Message: fmt.Sprintf("Edit %s as key/value sections?", field.Label),
		Default: true,
		Help:    "Answer no to paste free-form text instead.",
	})
	if err != nil {
		return err
	}
	if !structured {
		value, err := c.driver.TextArea(ctx, TextAreaConfig{
			Message: field.Label,
			Default: engine.Value(field.ID),
			Help:    field.Description,
		})
		if err != nil {
			return err
		}
		return engine.SetValue(field.ID, value)
	}

	editor, err := engine.Editor(field.ID)
	if err != nil {
		return err
	}
	editor.Replace(nil)

	for {
		title, err := c.driver.Input(ctx, InputConfig{
			Message: "Section title (blank for untitled)",
		})
		if err != nil {
			return err
		}
		idx := editor.AddSection(title)

		for {
			key, err := c.driver.Input(ctx, InputConfig{
				Message: "Setting name (blank to finish this section)",
			})
			if err != nil {
				return err
			}
			if strings.TrimSpace(key) == "" {
				break
			}
			value, err := c.driver.Input(ctx, InputConfig{
				Message: fmt.Sprintf("Value for %s", key),
			})
			if err != nil {
				return err
			}
			if _, err := editor.AddItem(idx, key, value); err != nil {
				return err
			}
		}

		more, err := c.driver.Confirm(ctx, ConfirmConfig{
			Message: "Add another section?",
		})
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}
