package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-intake/internal/cli/ui"
	"github.com/goliatone/go-intake/internal/config"
)

func newHomeCommand(a *app) *cobra.Command {
	var prune bool
	cmd := &cobra.Command{
		Use:   "home",
		Short: "List recently opened drafts",
		Long: `List recently opened drafts, newest first. Drafts that no longer exist are
marked (missing); --prune drops them from the list.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runHome(cmd, prune)
		},
	}
	cmd.Flags().BoolVar(&prune, "prune", false, "remove missing drafts from the list")
	return cmd
}

func (a *app) runHome(cmd *cobra.Command, prune bool) error {
	recent := a.recent()
	out := cmd.OutOrStdout()
	if prune {
		removed, err := recent.Prune()
		if err != nil {
			a.printer(cmd.ErrOrStderr()).Error("Could not update the recent drafts list", err)
			return errReported
		}
		if len(removed) > 0 {
			a.printer(out).Info(fmt.Sprintf("Removed %d missing draft(s)", len(removed)))
		}
	}
	fmt.Fprint(out, ui.Home(config.AppName, recent.Listings()))
	return nil
}
