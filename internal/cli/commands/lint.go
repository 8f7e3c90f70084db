package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-intake/internal/cli/ui"
	"github.com/goliatone/go-intake/pkg/schema"
)

// lintDebounce coalesces editor write bursts into one re-lint.
const lintDebounce = 150 * time.Millisecond

func newLintCommand(a *app) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Check the page catalog for defects",
		Long: `Check the page catalog for unknown validator ids, show_if references to
unknown fields, duplicate names, selects without options and unknown option
lists. Findings are warnings; the wizard still starts with them.

With --watch and an external catalog (--catalog or the catalog setting) the
directory is re-linted whenever a file changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			clean := a.lint(cmd.OutOrStdout(), a.catalog)
			if !watch {
				if !clean {
					return errReported
				}
				return nil
			}
			dir := strings.TrimSpace(a.cfg.Catalog)
			if dir == "" {
				return errors.New("intake: --watch needs an external catalog directory")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.watchCatalog(ctx, cmd.OutOrStdout(), dir)
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "re-lint the catalog directory on change")
	return cmd
}

// lint prints the findings for catalog and reports whether it was clean.
func (a *app) lint(w io.Writer, catalog *schema.Catalog) bool {
	result := schema.Lint(catalog, a.registry.Known)
	p := a.printer(w)
	if result.Clean {
		p.Success("Catalog is clean", fmt.Sprintf("%d pages", catalog.PageCount()))
		return true
	}
	p.Warning(fmt.Sprintf("%d issue(s) found", len(result.Issues)))
	ui.Issues(w, result.Issues, p.NoColor)
	return false
}

func (a *app) watchCatalog(ctx context.Context, w io.Writer, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("intake: create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("intake: watch %s: %w", dir, err)
	}
	a.printer(w).Info("Watching "+dir, "Press Ctrl+C to stop")

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isCatalogEvent(event) {
				continue
			}
			a.logger.Debug("catalog changed", zap.String("file", event.Name), zap.String("op", event.Op.String()))
			if timer == nil {
				timer = time.NewTimer(lintDebounce)
			} else {
				timer.Reset(lintDebounce)
			}
			pending = timer.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.logger.Warn("catalog watcher error", zap.Error(err))
		case <-pending:
			pending = nil
			a.relint(w)
		}
	}
}

func (a *app) relint(w io.Writer) {
	catalog, err := a.loadCatalog()
	if err != nil {
		a.printer(w).Error("Catalog could not be loaded", err)
		return
	}
	a.catalog = catalog
	a.lint(w, catalog)
}

func isCatalogEvent(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	switch strings.ToLower(filepath.Ext(event.Name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}
