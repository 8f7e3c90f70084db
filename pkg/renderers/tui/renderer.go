// Package tui prompts wizard pages in a terminal. The Renderer walks the
// current page of a wizard.Session, asks for each visible field through a
// PromptDriver and stages the answers on the session. Run adds the
// navigation menu around it.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-intake/pkg/engine"
	"github.com/goliatone/go-intake/pkg/schema"
	"github.com/goliatone/go-intake/pkg/state"
	"github.com/goliatone/go-intake/pkg/validators"
	"github.com/goliatone/go-intake/pkg/visibility"
	"github.com/goliatone/go-intake/pkg/wizard"
)

// Renderer prompts sessions through a PromptDriver.
type Renderer struct {
	driver    PromptDriver
	theme     Theme
	logger    *zap.Logger
	draftName string
}

// New constructs a TUI renderer with defaults (survey driver).
func New(options ...Option) *Renderer {
	r := &Renderer{
		logger:    zap.NewNop(),
		draftName: "client.mgd",
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if r.driver == nil {
		r.driver = NewSurveyDriver()
	}
	return r
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return "tui"
}

// ConfirmDiscard implements wizard.Confirmer.
func (r *Renderer) ConfirmDiscard(ctx context.Context, prompt string) (bool, error) {
	return r.driver.Confirm(ctx, ConfirmConfig{Message: prompt})
}

// PromptPage asks for every visible field of the session's current page.
// Visibility is re-evaluated after each answer so revealed groups are asked
// in the same pass.
func (r *Renderer) PromptPage(ctx context.Context, s *wizard.Session) error {
	if ctx == nil {
		return errors.New("tui: context is required")
	}
	if s == nil {
		return ErrNoSession
	}
	page := s.Page()
	for _, section := range page.Sections {
		if section.Title != "" && section.Title != page.Title {
			if err := r.driver.Info(ctx, section.Title); err != nil {
				return err
			}
		}
		if err := r.promptFields(ctx, s, section.Fields); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) promptFields(ctx context.Context, s *wizard.Session, fields []schema.Field) error {
	for _, field := range fields {
		if err := ctx.Err(); err != nil {
			return err
		}
		answers := s.Answers()
		if !visibility.Visible(field, answers) {
			continue
		}
		switch field.Kind {
		case schema.KindLabel:
			if err := r.driver.Info(ctx, field.Label); err != nil {
				return err
			}
		case schema.KindGroup:
			if err := r.promptFields(ctx, s, field.Fields); err != nil {
				return err
			}
		case schema.KindRepeatingGroup:
			if err := r.promptItems(ctx, s, field); err != nil {
				return err
			}
		default:
			current, _ := answers.Get(field.Name)
			value, err := r.promptValue(ctx, s, field, current, answers)
			if err != nil {
				return err
			}
			if err := s.Edit(field.Name, value); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Renderer) promptItems(ctx context.Context, s *wizard.Session, group schema.Field) error {
	label := itemLabel(group)
	for idx, item := range s.Answers().Items(group.Name) {
		choice, err := r.driver.Select(ctx, SelectConfig{
			Message:      fmt.Sprintf("%s %d", label, idx+1),
			Options:      itemActions,
			DefaultIndex: 0,
		})
		if err != nil {
			return err
		}
		switch choice {
		case itemEdit:
			if err := r.promptItem(ctx, s, group, item.Handle, group.Fields); err != nil {
				return err
			}
		case itemRemove:
			if err := s.RemoveItem(group.Name, item.Handle); err != nil {
				return err
			}
		}
	}
	for {
		add, err := r.driver.Confirm(ctx, ConfirmConfig{Message: fmt.Sprintf("Add a %s?", strings.ToLower(label))})
		if err != nil {
			return err
		}
		if !add {
			return nil
		}
		handle, err := s.AddItem(group.Name)
		if err != nil {
			return err
		}
		if err := r.promptItem(ctx, s, group, handle, group.Fields); err != nil {
			return err
		}
	}
}

func (r *Renderer) promptItem(ctx context.Context, s *wizard.Session, group schema.Field, handle state.Handle, fields []schema.Field) error {
	for _, field := range fields {
		answers := s.Answers()
		item, ok := answers.Item(group.Name, handle)
		if !ok {
			return fmt.Errorf("tui: %s item %d vanished", group.Name, handle)
		}
		if !visibility.Visible(field, item) {
			continue
		}
		switch field.Kind {
		case schema.KindLabel:
			if err := r.driver.Info(ctx, field.Label); err != nil {
				return err
			}
		case schema.KindGroup:
			if err := r.promptItem(ctx, s, group, handle, field.Fields); err != nil {
				return err
			}
		case schema.KindRepeatingGroup:
			r.logger.Warn("nested repeating group skipped", zap.String("group", group.Name), zap.String("field", field.Name))
		default:
			value, err := r.promptValue(ctx, s, field, item.Value(field.Name), answers)
			if err != nil {
				return err
			}
			if err := s.EditItem(group.Name, handle, field.Name, value); err != nil {
				return err
			}
		}
	}
	return nil
}

// promptValue asks for one leaf value. Layout kinds return current unchanged.
func (r *Renderer) promptValue(ctx context.Context, s *wizard.Session, field schema.Field, current state.Value, form validators.Form) (state.Value, error) {
	label := field.DisplayLabel()
	check := r.checker(s, field, form)

	switch field.Kind {
	case schema.KindText, schema.KindNumber, schema.KindDate:
		cfg := InputConfig{
			Message:     label,
			Default:     current.Text(),
			Help:        inputHelp(field),
			Placeholder: field.Placeholder,
		}
		if s.Mode() == engine.ModeHard {
			cfg.Validator = check
		}
		text, err := r.ask(ctx, s, label, check, func() (string, error) {
			return r.driver.Input(ctx, cfg)
		})
		if err != nil {
			return current, err
		}
		return state.Text(normalise(field, text)), nil
	case schema.KindTextArea:
		text, err := r.ask(ctx, s, label, check, func() (string, error) {
			return r.driver.TextArea(ctx, TextAreaConfig{
				Message: label,
				Default: current.Text(),
			})
		})
		if err != nil {
			return current, err
		}
		return state.Text(text), nil
	case schema.KindCheckbox:
		flag, err := r.driver.Confirm(ctx, ConfirmConfig{Message: label, Default: current.Bool()})
		if err != nil {
			return current, err
		}
		return state.Bool(flag), nil
	case schema.KindRadio, schema.KindSelect:
		options := s.Catalog().ResolveOptions(field)
		if len(options) == 0 {
			text, err := r.ask(ctx, s, label, check, func() (string, error) {
				return r.driver.Input(ctx, InputConfig{Message: label, Default: current.Text()})
			})
			if err != nil {
				return current, err
			}
			return state.Text(text), nil
		}
		idx, err := r.driver.Select(ctx, SelectConfig{
			Message:      label,
			Options:      options,
			DefaultIndex: indexOf(options, current.Text()),
			PageSize:     12,
		})
		if err != nil {
			return current, err
		}
		if idx < 0 || idx >= len(options) {
			return current, nil
		}
		return state.Text(options[idx]), nil
	case schema.KindLabel, schema.KindGroup, schema.KindRepeatingGroup:
		return current, nil
	default:
		return current, fmt.Errorf("tui: unsupported field kind %s", field.Kind)
	}
}

// ask repeats a prompt while the answer fails its check in hard mode. Soft
// mode reports the problem once and keeps the answer.
func (r *Renderer) ask(ctx context.Context, s *wizard.Session, label string, check func(string) error, prompt func() (string, error)) (string, error) {
	for {
		response, err := prompt()
		if err != nil {
			return "", err
		}
		if err := check(response); err != nil {
			_ = r.driver.Info(ctx, r.theme.WarningPrefix+fmt.Sprintf("Invalid %s: %v", label, err))
			if s.Mode() == engine.ModeHard {
				continue
			}
		}
		return response, nil
	}
}

func (r *Renderer) checker(s *wizard.Session, field schema.Field, form validators.Form) func(string) error {
	registry := s.Engine().Registry()
	return func(text string) error {
		if strings.TrimSpace(text) == "" {
			if field.Required {
				return errors.New("a value is required")
			}
			return nil
		}
		if field.Validator == "" {
			return nil
		}
		return registry.Check(field.Validator, text, form)
	}
}

// normalise rewrites currency and percentage answers canonically.
func normalise(field schema.Field, text string) string {
	switch field.Validator {
	case validators.USDCurrency:
		if out, ok := validators.NormalizeUSD(text); ok {
			return out
		}
	case validators.Percent:
		if out, ok := validators.NormalizePercent(text); ok {
			return out
		}
	}
	return text
}

func inputHelp(field schema.Field) string {
	switch {
	case field.Kind == schema.KindDate:
		return "YYYY-MM-DD"
	case field.Validator == validators.USDCurrency:
		return "Dollar amount, e.g. $125,000.00"
	case field.InputMask == "ssn":
		return "###-##-####"
	case field.InputMask == "phone":
		return "(###) ###-####"
	}
	return ""
}

func itemLabel(group schema.Field) string {
	if group.ItemLabel != "" {
		return group.ItemLabel
	}
	return group.DisplayLabel()
}

const (
	itemKeep = iota
	itemEdit
	itemRemove
)

var itemActions = []string{"Keep", "Edit", "Remove"}
