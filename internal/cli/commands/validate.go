package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-intake/pkg/draftschema"
	"github.com/goliatone/go-intake/pkg/state"
)

func newValidateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <draft.mgd>",
		Short: "Check a draft against the catalog",
		Long: `Check a draft file: its JSON shape against the draft schema, then every page
against the validation rules. Pages that would block navigation in hard mode
fail the command; in soft mode they are reported as warnings.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if err := checkExtension(path); err != nil {
				return err
			}
			errOut := a.printer(cmd.ErrOrStderr())
			out := a.printer(cmd.OutOrStdout())

			data, err := os.ReadFile(path)
			if err != nil {
				errOut.Error("Could not read draft", err)
				return errReported
			}
			doc, err := state.Decode(data)
			if err != nil {
				errOut.Error("Draft is not a valid document", err)
				return errReported
			}

			if issues := draftschema.Check(a.catalog, doc); len(issues) > 0 {
				details := make([]string, 0, len(issues))
				for _, issue := range issues {
					details = append(details, issue.String())
				}
				out.Warning("Draft shape issues (values are migrated or ignored)", details...)
			}

			store := state.Migrate(doc, a.catalog)
			eng := a.engine()
			mode := a.cfg.Mode()
			blocked := 0
			for idx, page := range a.catalog.Pages {
				verdict := eng.Validate(page, store, nil)
				if verdict.Valid {
					continue
				}
				title := fmt.Sprintf("Page %d: %s", idx+1, page.Title)
				details := make([]string, 0, len(verdict.Failures))
				for _, failure := range verdict.Failures {
					details = append(details, failure.Label+": "+failure.Message)
				}
				if mode.Allows(verdict) {
					out.Warning(title, details...)
					continue
				}
				blocked++
				errOut.Failure(title, details...)
			}

			if blocked > 0 {
				errOut.Info(fmt.Sprintf("%d page(s) need attention (%s mode)", blocked, mode))
				return errReported
			}
			out.Success("Draft is valid", path)
			return nil
		},
	}
}
