package commands

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-intake/internal/cli/ui"
	"github.com/goliatone/go-intake/internal/logging"
	"github.com/goliatone/go-intake/pkg/renderers/tui"
	"github.com/goliatone/go-intake/pkg/report"
	"github.com/goliatone/go-intake/pkg/wizard"
)

func newRunCommand(a *app) *cobra.Command {
	var exportPath string
	cmd := &cobra.Command{
		Use:   "run [draft.mgd]",
		Short: "Fill in the intake wizard",
		Long: `Walk through the intake pages in the terminal. With a draft path the draft
is opened first; otherwise a new draft starts and is saved when you choose
"Save draft". Drafts with a path are autosaved every autosave_interval.

Examples:
  intake run
  intake run ~/clients/smith.mgd
  intake run smith.mgd --export smith.html`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return a.runWizard(ctx, cmd, path, exportPath)
		},
	}
	cmd.Flags().StringVar(&exportPath, "export", "", "write the report here when the wizard finishes (.html, .txt or .pdf)")
	return cmd
}

func (a *app) runWizard(ctx context.Context, cmd *cobra.Command, path, exportPath string) error {
	defer logging.LogPanic(a.logger)
	errOut := a.printer(cmd.ErrOrStderr())
	out := a.printer(cmd.OutOrStdout())

	opts := []tui.Option{
		tui.WithTheme(ui.Theme(a.noColor)),
		tui.WithLogger(a.logger),
	}
	if a.driver != nil {
		opts = append(opts, tui.WithPromptDriver(a.driver))
	}
	renderer := tui.New(opts...)

	session := wizard.New(a.catalog,
		wizard.WithMode(a.cfg.Mode()),
		wizard.WithEngine(a.engine()),
		wizard.WithLogger(a.logger),
		wizard.WithConfirmer(renderer),
		wizard.WithRecent(a.recent()),
	)

	if path != "" {
		if err := checkExtension(path); err != nil {
			return err
		}
		res, err := session.Open(ctx, path)
		if err != nil {
			errOut.Error("Could not open draft", err, "Run `intake home --prune` to tidy the recent drafts list")
			return errReported
		}
		if res.Recovered {
			errOut.Warning("Draft was damaged; starting from defaults", res.Reason.Error())
		}
	}

	if interval := a.cfg.AutosaveInterval; interval > 0 {
		autosaveCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go session.RunAutosave(autosaveCtx, interval)
	}

	err := renderer.Run(ctx, session)
	switch {
	case errors.Is(err, tui.ErrAborted), errors.Is(err, context.Canceled):
		if session.Autosave() {
			out.Info("Interrupted; draft saved to " + session.Path())
		} else {
			out.Info("Interrupted")
		}
		return nil
	case err != nil:
		return err
	}

	if !session.Active() {
		return nil
	}
	if session.Path() != "" {
		out.Success("Intake complete", "Draft saved to "+session.Path())
	} else {
		out.Success("Intake complete")
	}

	if exportPath == "" {
		return nil
	}
	format, err := report.ParseFormat(formatFromPath(exportPath, string(a.cfg.Format())))
	if err != nil {
		return err
	}
	doc := report.Build(session.Committed())
	if err := report.WriteFile(exportPath, doc, format); err != nil {
		a.logger.Error("export failed", zap.String("path", exportPath), zap.Error(err))
		errOut.Error("Could not write report", err)
		return errReported
	}
	out.Success("Report written", exportPath)
	return nil
}
