package wizard

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/goliatone/go-intake/pkg/engine"
	"github.com/goliatone/go-intake/pkg/state"
)

// Edit stages a value for a top-level field on the current page.
func (s *Session) Edit(name string, value state.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return ErrClosed
	}
	if err := s.working.Set(name, value); err != nil {
		return fmt.Errorf("wizard: edit: %w", err)
	}
	return nil
}

// EditItem stages a value for one sub-field of a repeating-group item.
func (s *Session) EditItem(group string, handle state.Handle, name string, value state.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return ErrClosed
	}
	if err := s.working.SetItemValue(group, handle, name, value); err != nil {
		return fmt.Errorf("wizard: edit item: %w", err)
	}
	return nil
}

// AddItem appends an item with template defaults to a repeating group.
func (s *Session) AddItem(group string) (state.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return 0, ErrClosed
	}
	handle, err := s.working.AddItem(group)
	if err != nil {
		return 0, fmt.Errorf("wizard: add item: %w", err)
	}
	return handle, nil
}

// RemoveItem deletes a repeating-group item by handle.
func (s *Session) RemoveItem(group string, handle state.Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return ErrClosed
	}
	if err := s.working.RemoveItem(group, handle); err != nil {
		return fmt.Errorf("wizard: remove item: %w", err)
	}
	return nil
}

// Revert drops the uncommitted edits of the current page.
func (s *Session) Revert() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.working = s.store.Clone()
}

// Next validates the current page and moves forward when the mode allows.
// On the last page an allowed move finishes the wizard instead. Every
// allowed move commits the page and persists when a draft path exists.
func (s *Session) Next(ctx context.Context) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return Result{}, ErrClosed
	}

	page := s.catalog.Pages[s.page]
	verdict := s.engine.Validate(page, s.working, nil)
	result := Result{From: s.page, To: s.page, Verdict: verdict}
	if !s.mode.Allows(verdict) {
		s.logger.Debug("navigation blocked",
			zap.String("page", page.Key),
			zap.Strings("failing", verdict.FailingLabels()),
		)
		return result, nil
	}
	result.Warning = s.mode.Warning(verdict)

	if s.page == s.catalog.PageCount()-1 {
		result.Finished = true
	} else {
		result.To = s.page + 1
		result.Moved = true
	}
	result.SaveErr = s.transition(result.To)
	return result, nil
}

// Back commits the current page and moves to the previous one. Moving back
// never validates.
func (s *Session) Back(ctx context.Context) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return Result{}, ErrClosed
	}
	result := Result{From: s.page, To: s.page, Verdict: engine.Verdict{Valid: true}}
	if s.page == 0 {
		return result, nil
	}
	result.To = s.page - 1
	result.Moved = true
	result.SaveErr = s.transition(result.To)
	return result, nil
}

// Jump moves to the page with the given key. In hard mode a forward jump
// requires every page before the target to be valid; backward jumps are
// always allowed.
func (s *Session) Jump(ctx context.Context, key string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return Result{}, ErrClosed
	}
	target, ok := s.catalog.PageIndex(key)
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownPage, key)
	}

	result := Result{From: s.page, To: s.page, Verdict: engine.Verdict{Valid: true}}
	if target > s.page && s.mode == engine.ModeHard {
		for idx := 0; idx < target; idx++ {
			verdict := s.engine.Validate(s.catalog.Pages[idx], s.working, nil)
			if !verdict.Valid {
				result.Verdict = verdict
				return result, fmt.Errorf("%w: %s", ErrJumpBlocked, s.catalog.Pages[idx].Title)
			}
		}
	}
	if target == s.page {
		return result, nil
	}
	result.To = target
	result.Moved = true
	result.SaveErr = s.transition(target)
	return result, nil
}

// transition commits, moves to target and persists best-effort.
func (s *Session) transition(target int) error {
	from := s.catalog.Pages[s.page].Key
	s.commit()
	s.page = target
	s.logger.Debug("page transition",
		zap.String("from", from),
		zap.String("to", s.catalog.Pages[target].Key),
	)
	if err := s.persist(); err != nil {
		s.logger.Warn("save on navigation failed", zap.String("path", s.path), zap.Error(err))
		return err
	}
	return nil
}
