// Package wizard sequences the intake pages. A Session owns the committed
// answers, the uncommitted edits of the current page, the draft path and the
// dirty flag. Forward navigation consults the page verdict according to the
// configured mode; every transition commits and, when a draft path exists,
// persists. New, Open and Close ask for discard confirmation when there are
// unsaved changes.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-intake/pkg/engine"
	"github.com/goliatone/go-intake/pkg/mru"
	"github.com/goliatone/go-intake/pkg/schema"
	"github.com/goliatone/go-intake/pkg/state"
)

var (
	// ErrNoDraftPath is returned by Save before a path was chosen.
	ErrNoDraftPath = errors.New("wizard: draft has no path yet")
	// ErrDiscardDeclined is returned when the user keeps unsaved changes.
	ErrDiscardDeclined = errors.New("wizard: discard declined")
	// ErrUnknownPage is returned by Jump for keys the catalog lacks.
	ErrUnknownPage = errors.New("wizard: unknown page")
	// ErrJumpBlocked is returned by Jump in hard mode when an earlier page
	// is invalid.
	ErrJumpBlocked = errors.New("wizard: earlier pages are incomplete")
	// ErrClosed is returned by operations on a closed session.
	ErrClosed = errors.New("wizard: session closed")
)

// Result reports the outcome of a navigation request. A blocked move is not
// an error: Moved is false and Verdict says why.
type Result struct {
	From     int
	To       int
	Moved    bool
	Finished bool
	Verdict  engine.Verdict
	// Warning is the soft-mode message for an invalid page.
	Warning string
	// SaveErr is the best-effort persistence failure of the transition.
	SaveErr error
}

// OpenResult reports how a draft was opened.
type OpenResult struct {
	Path string
	// Recovered is set when the file was unreadable or malformed and the
	// session fell back to defaults; Reason holds the load error.
	Recovered bool
	Reason    error
}

// Session is one wizard run over a catalog. Its methods are safe to call
// from the autosave goroutine; a Confirmer must not call back into the
// Session it is asked from.
type Session struct {
	mu sync.Mutex

	id         string
	catalog    *schema.Catalog
	engine     *engine.Engine
	mode       engine.Mode
	baseLogger *zap.Logger
	logger     *zap.Logger
	confirmer  Confirmer
	recent     *mru.List
	stateOpts  []state.Option

	// store holds committed answers, working adds the current page edits
	// and saved is the snapshot last written to (or read from) path.
	store   *state.Store
	working *state.Store
	saved   *state.Store
	page    int
	path    string
	active  bool
}

// New starts a session on a fresh default draft.
func New(catalog *schema.Catalog, opts ...Option) *Session {
	s := &Session{
		id:         uuid.NewString(),
		catalog:    catalog,
		mode:       engine.ModeHard,
		baseLogger: zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.engine == nil {
		s.engine = engine.New(nil, engine.WithLogger(s.baseLogger))
	}
	s.logger = s.baseLogger.With(zap.String("session", s.id))
	s.reset(state.BuildDefault(catalog), "")
	s.logger.Debug("session started", zap.String("mode", s.mode.String()))
	return s
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string { return s.id }

// Catalog returns the catalog the session runs over.
func (s *Session) Catalog() *schema.Catalog { return s.catalog }

// Engine returns the page validation engine.
func (s *Session) Engine() *engine.Engine { return s.engine }

// Mode returns the validation mode.
func (s *Session) Mode() engine.Mode { return s.mode }

// Index returns the current page position.
func (s *Session) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// Page returns the current page.
func (s *Session) Page() schema.Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.Pages[s.page]
}

// Progress is the completion percentage shown while on the current page.
func (s *Session) Progress() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := s.catalog.PageCount()
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(s.page+1) / float64(total) * 100))
}

// Path returns the draft path, empty before the first save.
func (s *Session) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// Dirty reports unsaved changes, including uncommitted page edits.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirtyLocked()
}

func (s *Session) dirtyLocked() bool {
	return !s.saved.Equal(s.working)
}

// Active reports whether the session is still open.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Answers returns a copy of the answers including uncommitted page edits.
func (s *Session) Answers() *state.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.working.Clone()
}

// Committed returns a copy of the committed answers.
func (s *Session) Committed() *state.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Clone()
}

// Verdict validates the current page including uncommitted edits.
func (s *Session) Verdict() engine.Verdict {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Validate(s.catalog.Pages[s.page], s.working, nil)
}

func (s *Session) reset(store *state.Store, path string) {
	s.store = store
	s.working = store.Clone()
	s.saved = store.Clone()
	s.page = 0
	s.path = path
	s.active = true
}

// commit folds the page edits into the committed answers.
func (s *Session) commit() {
	s.store = s.working.Clone()
}

// persist saves the committed answers when a path exists. Failures are
// returned for the caller to classify as best-effort or user-visible.
func (s *Session) persist() error {
	if s.path == "" {
		return nil
	}
	if err := state.Save(s.path, s.store); err != nil {
		return err
	}
	s.saved = s.store.Clone()
	return nil
}

// confirmDiscard is called with s.mu held. The lock is released while the
// confirmer waits on the user and reacquired before returning.
func (s *Session) confirmDiscard(ctx context.Context, prompt string) error {
	if !s.dirtyLocked() {
		return nil
	}
	if s.confirmer == nil {
		return ErrDiscardDeclined
	}
	ok, err := func() (bool, error) {
		s.mu.Unlock()
		defer s.mu.Lock()
		return s.confirmer.ConfirmDiscard(ctx, prompt)
	}()
	if err != nil {
		return fmt.Errorf("wizard: confirm discard: %w", err)
	}
	if !ok {
		return ErrDiscardDeclined
	}
	return nil
}

func (s *Session) touchRecent(path string) {
	if s.recent == nil || path == "" {
		return
	}
	if err := s.recent.Touch(path); err != nil {
		s.logger.Warn("mru update failed", zap.String("path", path), zap.Error(err))
	}
}

func isMissing(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
