package commands

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-intake/pkg/report"
)

func newExportCommand(a *app) *cobra.Command {
	var (
		output string
		format string
		title  string
	)
	cmd := &cobra.Command{
		Use:   "export <draft.mgd>",
		Short: "Render a draft as a printable report",
		Long: `Render a draft as an HTML, plain-text or PDF report. Without --output the report
is written to stdout. The format defaults to the output extension, then to
report_format.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.loadDraft(cmd, args[0])
			if err != nil {
				return err
			}

			raw := format
			if raw == "" {
				raw = formatFromPath(output, string(a.cfg.Format()))
			}
			f, err := report.ParseFormat(raw)
			if err != nil {
				return err
			}

			var opts []report.Option
			if title != "" {
				opts = append(opts, report.WithTitle(title))
			}
			doc := report.Build(store, opts...)

			if output == "" {
				return report.Render(cmd.OutOrStdout(), doc, f)
			}
			if err := report.WriteFile(output, doc, f); err != nil {
				a.printer(cmd.ErrOrStderr()).Error("Could not write report", err)
				return errReported
			}
			a.printer(cmd.OutOrStdout()).Success("Report written", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "report file (stdout if empty)")
	cmd.Flags().StringVar(&format, "format", "", "report format: html, text or pdf")
	cmd.Flags().StringVar(&title, "title", "", "override the report title")
	return cmd
}

// formatFromPath picks the report format from the file extension, falling
// back to def for other extensions.
func formatFromPath(path, def string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return string(report.FormatHTML)
	case ".txt", ".text":
		return string(report.FormatText)
	case ".pdf":
		return string(report.FormatPDF)
	}
	return def
}
