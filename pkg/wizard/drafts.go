package wizard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-intake/pkg/state"
)

const (
	promptNew   = "You have unsaved changes. Discard them and start a new draft?"
	promptOpen  = "You have unsaved changes. Discard them and open another draft?"
	promptClose = "You have unsaved changes. Discard them and quit?"
)

// NewDraft replaces the session state with catalog defaults and clears the
// draft path.
func (s *Session) NewDraft(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.confirmDiscard(ctx, promptNew); err != nil {
		return err
	}
	s.reset(state.BuildDefault(s.catalog), "")
	s.logger.Info("new draft")
	return nil
}

// Open loads the draft at path. A missing or unreadable file leaves the
// session untouched, drops the path from the MRU list and returns an error.
// Malformed content opens the draft with defaults and reports the recovery
// in the result.
func (s *Session) Open(ctx context.Context, path string) (OpenResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.confirmDiscard(ctx, promptOpen); err != nil {
		return OpenResult{}, err
	}

	store, err := state.Load(path, s.catalog, s.stateOpts...)
	result := OpenResult{Path: path}
	if err != nil {
		if !errors.Is(err, state.ErrMalformed) {
			if isMissing(err) && s.recent != nil {
				if rmErr := s.recent.Remove(path); rmErr != nil {
					s.logger.Warn("mru update failed", zap.String("path", path), zap.Error(rmErr))
				}
			}
			return result, fmt.Errorf("wizard: open: %w", err)
		}
		s.logger.Warn("draft recovered with defaults", zap.String("path", path), zap.Error(err))
		result.Recovered = true
		result.Reason = err
	}

	s.reset(store, path)
	s.touchRecent(path)
	s.logger.Info("draft opened", zap.String("path", path), zap.Bool("recovered", result.Recovered))
	return result, nil
}

// Save commits the current page and writes the draft to its path. Failures
// are returned so the caller can show them.
func (s *Session) Save(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.path == "" {
		return ErrNoDraftPath
	}
	return s.saveLocked()
}

// SaveAs sets a new draft path and saves to it. The previous path is kept
// when the write fails.
func (s *Session) SaveAs(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if path == "" {
		return ErrNoDraftPath
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	previous := s.path
	s.path = path
	if err := s.saveLocked(); err != nil {
		s.path = previous
		return err
	}
	return nil
}

func (s *Session) saveLocked() error {
	s.commit()
	if err := s.persist(); err != nil {
		return fmt.Errorf("wizard: save: %w", err)
	}
	s.touchRecent(s.path)
	s.logger.Info("draft saved", zap.String("path", s.path))
	return nil
}

// Autosave snapshots the current page and writes the draft. It is a no-op
// without a draft path or an active session, and failures are only logged.
// The return value reports whether a write happened.
func (s *Session) Autosave() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active || s.path == "" {
		return false
	}
	s.commit()
	if err := s.persist(); err != nil {
		s.logger.Warn("autosave failed", zap.String("path", s.path), zap.Error(err))
		return false
	}
	s.logger.Debug("autosaved", zap.String("path", s.path))
	return true
}

// RunAutosave calls Autosave every interval until ctx is done or the session
// closes. It keeps running while a discard confirmation is on screen.
func (s *Session) RunAutosave(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.Active() {
				return
			}
			s.Autosave()
		}
	}
}

// Close ends the session, asking before unsaved changes are discarded.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return nil
	}
	if err := s.confirmDiscard(ctx, promptClose); err != nil {
		return err
	}
	if !s.active {
		return nil
	}
	s.active = false
	s.logger.Debug("session closed")
	return nil
}
