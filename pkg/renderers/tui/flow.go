package tui

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-intake/pkg/wizard"
)

// Menu entries offered after each page.
const (
	ActionContinue = "Continue"
	ActionBack     = "Back"
	ActionSave     = "Save draft"
	ActionQuit     = "Quit"
)

var menuActions = []string{ActionContinue, ActionBack, ActionSave, ActionQuit}

// Run drives the session page by page until the wizard finishes or the user
// quits. It returns nil in both cases; s.Active reports which one happened.
// Save failures are shown to the user and never end the run.
func (r *Renderer) Run(ctx context.Context, s *wizard.Session) error {
	if s == nil {
		return ErrNoSession
	}
	for {
		catalog := s.Catalog()
		if err := r.driver.Info(ctx, r.theme.heading(s.Page().Title, s.Index(), catalog.PageCount(), s.Progress())); err != nil {
			return err
		}
		if err := r.PromptPage(ctx, s); err != nil {
			return err
		}

		choice, err := r.driver.Select(ctx, SelectConfig{
			Message:      "What next?",
			Options:      menuActions,
			DefaultIndex: 0,
		})
		if err != nil {
			return err
		}
		if choice < 0 || choice >= len(menuActions) {
			continue
		}

		switch menuActions[choice] {
		case ActionContinue:
			res, err := s.Next(ctx)
			if err != nil {
				return err
			}
			r.report(ctx, res)
			if res.Finished {
				return nil
			}
		case ActionBack:
			res, err := s.Back(ctx)
			if err != nil {
				return err
			}
			r.report(ctx, res)
		case ActionSave:
			if err := r.Save(ctx, s); err != nil && errors.Is(err, ErrAborted) {
				return err
			}
		case ActionQuit:
			err := s.Close(ctx)
			if errors.Is(err, wizard.ErrDiscardDeclined) {
				continue
			}
			return err
		}
	}
}

// Save writes the draft, asking for a path first when the draft has none.
// Errors are shown and returned.
func (r *Renderer) Save(ctx context.Context, s *wizard.Session) error {
	var err error
	if s.Path() == "" {
		var path string
		path, err = r.driver.Input(ctx, InputConfig{
			Message: "Save draft as",
			Default: r.draftName,
			Help:    "Drafts use the .mgd or .json extension",
		})
		if err != nil {
			return err
		}
		err = s.SaveAs(ctx, strings.TrimSpace(path))
	} else {
		err = s.Save(ctx)
	}
	if err != nil {
		r.logger.Error("save failed", zap.Error(err))
		_ = r.driver.Info(ctx, r.theme.ErrorPrefix+"Could not save draft: "+err.Error())
		return err
	}
	return r.driver.Info(ctx, r.theme.InfoPrefix+"Draft saved to "+s.Path())
}

func (r *Renderer) report(ctx context.Context, res wizard.Result) {
	switch {
	case !res.Moved && !res.Finished && !res.Verdict.Valid:
		_ = r.driver.Info(ctx, r.theme.ErrorPrefix+"Please fix: "+strings.Join(res.Verdict.FailingLabels(), ", "))
	case res.Warning != "":
		_ = r.driver.Info(ctx, r.theme.WarningPrefix+res.Warning)
	}
	if res.SaveErr != nil {
		_ = r.driver.Info(ctx, r.theme.WarningPrefix+"Draft could not be saved: "+res.SaveErr.Error())
	}
}
