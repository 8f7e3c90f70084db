package wizard

import (
	"context"

	"go.uber.org/zap"

	"github.com/goliatone/go-intake/pkg/engine"
	"github.com/goliatone/go-intake/pkg/mru"
	"github.com/goliatone/go-intake/pkg/state"
)

// Confirmer asks the user whether unsaved changes may be discarded. It is
// the one blocking decision in the session flow.
type Confirmer interface {
	ConfirmDiscard(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function into a Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

// ConfirmDiscard implements Confirmer.
func (f ConfirmFunc) ConfirmDiscard(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// Option configures a Session.
type Option func(*Session)

// WithMode selects hard or soft validation. Hard is the default.
func WithMode(mode engine.Mode) Option {
	return func(s *Session) { s.mode = mode }
}

// WithEngine overrides the page validation engine.
func WithEngine(eng *engine.Engine) Option {
	return func(s *Session) {
		if eng != nil {
			s.engine = eng
		}
	}
}

// WithLogger sets the session logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.baseLogger = logger
		}
	}
}

// WithConfirmer sets the discard prompt. Without one, discarding unsaved
// changes is always declined.
func WithConfirmer(c Confirmer) Option {
	return func(s *Session) { s.confirmer = c }
}

// WithRecent records opened and saved drafts in the MRU list.
func WithRecent(list *mru.List) Option {
	return func(s *Session) { s.recent = list }
}

// WithStateOptions forwards options to state.Load (alias table overrides).
func WithStateOptions(opts ...state.Option) Option {
	return func(s *Session) { s.stateOpts = append(s.stateOpts, opts...) }
}
