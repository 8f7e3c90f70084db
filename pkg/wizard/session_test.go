package wizard_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-intake/pkg/engine"
	"github.com/goliatone/go-intake/pkg/mru"
	"github.com/goliatone/go-intake/pkg/state"
	"github.com/goliatone/go-intake/pkg/testsupport"
	"github.com/goliatone/go-intake/pkg/validators"
	"github.com/goliatone/go-intake/pkg/wizard"
)

func newSession(t *testing.T, opts ...wizard.Option) *wizard.Session {
	t.Helper()
	eng := engine.New(validators.Default(validators.WithClock(testsupport.Clock)))
	opts = append([]wizard.Option{wizard.WithEngine(eng)}, opts...)
	return wizard.New(testsupport.Catalog(t), opts...)
}

func answerHappyPath(t *testing.T, s *wizard.Session) {
	t.Helper()
	for name, value := range testsupport.HappyPathAnswers {
		require.NoError(t, s.Edit(name, value), name)
	}
	for _, answers := range testsupport.HappyPathBeneficiaries {
		handle, err := s.AddItem("beneficiaries")
		require.NoError(t, err)
		for name, text := range answers {
			require.NoError(t, s.EditItem("beneficiaries", handle, name, state.Text(text)))
		}
	}
}

func TestHappyPathReachesFinalPage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "client.mgd")

	s := newSession(t)
	require.NoError(t, s.SaveAs(ctx, path))
	answerHappyPath(t, s)

	total := s.Catalog().PageCount()
	for step := 0; step < total-1; step++ {
		res, err := s.Next(ctx)
		require.NoError(t, err)
		require.True(t, res.Moved, "blocked on %s: %v", s.Catalog().Pages[res.From].Key, res.Verdict.Failures)
		require.NoError(t, res.SaveErr)
		require.Equal(t, step+1, s.Index())
	}
	require.Equal(t, "pep", s.Page().Key)
	require.Equal(t, 100, s.Progress())

	res, err := s.Next(ctx)
	require.NoError(t, err)
	require.True(t, res.Finished)
	require.False(t, res.Moved)
	require.False(t, s.Dirty())

	loaded, err := state.Load(path, s.Catalog())
	require.NoError(t, err)
	require.True(t, loaded.Equal(s.Committed()))
}

func TestHardModeBlocksInvalidPage(t *testing.T) {
	t.Parallel()
	s := newSession(t)

	res, err := s.Next(context.Background())
	require.NoError(t, err)
	require.False(t, res.Moved)
	require.Equal(t, 0, s.Index())
	require.Contains(t, res.Verdict.FailingLabels(), "Full Legal Name")
	require.Empty(t, res.Warning)
}

func TestSoftModeOverrideAdvances(t *testing.T) {
	t.Parallel()
	s := newSession(t, wizard.WithMode(engine.ModeSoft))

	res, err := s.Next(context.Background())
	require.NoError(t, err)
	require.True(t, res.Moved)
	require.Equal(t, 1, s.Index())
	require.NotEmpty(t, res.Verdict.FailingLabels())
	require.Contains(t, res.Warning, "Full Legal Name")
}

func TestBackCommitsWithoutValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newSession(t, wizard.WithMode(engine.ModeSoft))

	_, err := s.Next(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Edit("email", state.Text("not-an-email")))

	res, err := s.Back(ctx)
	require.NoError(t, err)
	require.True(t, res.Moved)
	require.Equal(t, 0, s.Index())
	require.Equal(t, "not-an-email", s.Committed().Text("email"))

	res, err = s.Back(ctx)
	require.NoError(t, err)
	require.False(t, res.Moved)
}

func TestProgress(t *testing.T) {
	t.Parallel()
	s := newSession(t, wizard.WithMode(engine.ModeSoft))
	// 1 of 14 pages.
	require.Equal(t, 7, s.Progress())
	_, err := s.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, 14, s.Progress())
}

func TestJump(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := newSession(t)
	_, err := s.Jump(ctx, "beneficiaries")
	require.ErrorIs(t, err, wizard.ErrJumpBlocked)
	require.Equal(t, 0, s.Index())

	_, err = s.Jump(ctx, "nope")
	require.ErrorIs(t, err, wizard.ErrUnknownPage)

	answerHappyPath(t, s)
	res, err := s.Jump(ctx, "beneficiaries")
	require.NoError(t, err)
	require.True(t, res.Moved)
	require.Equal(t, "beneficiaries", s.Page().Key)

	res, err = s.Jump(ctx, "personal_info")
	require.NoError(t, err)
	require.True(t, res.Moved)
	require.Equal(t, 0, s.Index())
}

func TestRevertDropsPageEdits(t *testing.T) {
	t.Parallel()
	s := newSession(t)
	require.NoError(t, s.Edit("full_name", state.Text("Jane")))
	require.True(t, s.Dirty())
	s.Revert()
	require.False(t, s.Dirty())
	require.Equal(t, "", s.Answers().Text("full_name"))
}

func TestEditRejectsUnknownField(t *testing.T) {
	t.Parallel()
	s := newSession(t)
	err := s.Edit("favourite_colour", state.Text("blue"))
	require.ErrorIs(t, err, state.ErrUnknownField)
	err = s.Edit("no_spouse", state.Text("yes"))
	require.ErrorIs(t, err, state.ErrKindMismatch)
}

func TestAutosave(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := newSession(t)
	require.NoError(t, s.Edit("full_name", state.Text("Jane Q. Public")))
	require.False(t, s.Autosave(), "no path yet")

	path := filepath.Join(t.TempDir(), "draft.json")
	require.NoError(t, s.SaveAs(ctx, path))
	require.NoError(t, s.Edit("email", state.Text("jane@example.com")))
	require.True(t, s.Dirty())
	require.True(t, s.Autosave())
	require.False(t, s.Dirty())

	loaded, err := state.Load(path, s.Catalog())
	require.NoError(t, err)
	require.Equal(t, "jane@example.com", loaded.Text("email"))

	require.NoError(t, s.Close(ctx))
	require.False(t, s.Autosave(), "closed session")
}

func TestAutosaveSwallowsFailures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	s := newSession(t)
	path := filepath.Join(dir, "draft.json")
	require.NoError(t, s.SaveAs(ctx, path))

	// a regular file where a directory is expected makes every write fail.
	err := s.SaveAs(ctx, filepath.Join(blocker, "draft.json"))
	require.Error(t, err)
	require.Equal(t, path, s.Path(), "failed SaveAs keeps the previous path")

	require.NoError(t, os.Remove(path))
	require.NoError(t, os.Mkdir(path, 0o700))
	require.NoError(t, s.Edit("full_name", state.Text("Jane")))
	require.False(t, s.Autosave())
	require.Error(t, s.Save(ctx), "explicit saves surface failures")
}

func TestSaveRequiresPath(t *testing.T) {
	t.Parallel()
	s := newSession(t)
	require.ErrorIs(t, s.Save(context.Background()), wizard.ErrNoDraftPath)
	require.ErrorIs(t, s.SaveAs(context.Background(), ""), wizard.ErrNoDraftPath)
}

func TestSaveAndOpenTrackRecent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()
	recent := mru.InDir(dir)

	s := newSession(t, wizard.WithRecent(recent))
	path := filepath.Join(dir, "client.mgd")
	require.NoError(t, s.Edit("full_name", state.Text("Jane Q. Public")))
	require.NoError(t, s.SaveAs(ctx, path))

	entries := recent.Entries()
	require.Len(t, entries, 1)
	require.Equal(t, path, entries[0].Path)

	other := newSession(t, wizard.WithRecent(recent))
	res, err := other.Open(ctx, path)
	require.NoError(t, err)
	require.False(t, res.Recovered)
	require.Equal(t, "Jane Q. Public", other.Answers().Text("full_name"))
	require.Equal(t, path, other.Path())
	require.False(t, other.Dirty())
}

func TestOpenMissingDropsRecentEntry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()
	recent := mru.InDir(dir)
	path := filepath.Join(dir, "gone.mgd")
	require.NoError(t, recent.Touch(path))

	s := newSession(t, wizard.WithRecent(recent))
	_, err := s.Open(ctx, path)
	require.Error(t, err)
	require.True(t, errors.Is(err, os.ErrNotExist))
	require.Empty(t, recent.Entries())
	require.Empty(t, s.Path())
}

func TestOpenMalformedRecovers(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	s := newSession(t)
	res, err := s.Open(context.Background(), path)
	require.NoError(t, err)
	require.True(t, res.Recovered)
	require.ErrorIs(t, res.Reason, state.ErrMalformed)
	require.Equal(t, path, s.Path())
	require.Equal(t, "", s.Answers().Text("full_name"))
}

func TestDiscardConfirmation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := newSession(t)
	require.NoError(t, s.Edit("full_name", state.Text("Jane")))
	require.ErrorIs(t, s.NewDraft(ctx), wizard.ErrDiscardDeclined)
	require.ErrorIs(t, s.Close(ctx), wizard.ErrDiscardDeclined)
	require.True(t, s.Active())

	var prompts []string
	confirm := wizard.ConfirmFunc(func(_ context.Context, prompt string) (bool, error) {
		prompts = append(prompts, prompt)
		return true, nil
	})
	s = newSession(t, wizard.WithConfirmer(confirm))
	require.NoError(t, s.Edit("full_name", state.Text("Jane")))
	require.NoError(t, s.NewDraft(ctx))
	require.False(t, s.Dirty())
	require.Len(t, prompts, 1)

	// clean sessions close without asking.
	require.NoError(t, s.Close(ctx))
	require.Len(t, prompts, 1)
	require.False(t, s.Active())

	_, err := s.Next(ctx)
	require.ErrorIs(t, err, wizard.ErrClosed)
}

func TestConfirmerErrorsPropagate(t *testing.T) {
	t.Parallel()
	boom := errors.New("tty gone")
	s := newSession(t, wizard.WithConfirmer(wizard.ConfirmFunc(func(context.Context, string) (bool, error) {
		return false, boom
	})))
	require.NoError(t, s.Edit("full_name", state.Text("Jane")))
	require.ErrorIs(t, s.Close(context.Background()), boom)
}

func TestAutosaveRunsWhileDiscardPromptWaits(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	asked := make(chan struct{})
	answer := make(chan bool)
	s := newSession(t, wizard.WithConfirmer(wizard.ConfirmFunc(func(context.Context, string) (bool, error) {
		close(asked)
		return <-answer, nil
	})))
	path := filepath.Join(t.TempDir(), "draft.json")
	require.NoError(t, s.SaveAs(ctx, path))
	require.NoError(t, s.Edit("full_name", state.Text("Jane")))

	closed := make(chan error, 1)
	go func() { closed <- s.Close(ctx) }()
	<-asked

	require.True(t, s.Active())
	require.True(t, s.Autosave())
	loaded, err := state.Load(path, s.Catalog())
	require.NoError(t, err)
	require.Equal(t, "Jane", loaded.Text("full_name"))

	answer <- false
	require.ErrorIs(t, <-closed, wizard.ErrDiscardDeclined)
	require.True(t, s.Active())
}

func TestRunAutosaveStopsWithContext(t *testing.T) {
	t.Parallel()
	s := newSession(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.RunAutosave(ctx, 1_000_000)
		close(done)
	}()
	cancel()
	<-done
}
