package commands

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-intake/internal/cli/ui"
	"github.com/goliatone/go-intake/internal/config"
)

var (
	// Version information, set at build time.
	Version   = "dev"
	GitCommit = "unknown"
)

// Execute runs the command tree and exits non-zero on failure.
func Execute() {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			ui.Printer{W: os.Stderr, NoColor: color.NoColor}.Error("intake failed", err)
		}
		os.Exit(1)
	}
}

// NewRootCommand creates the intake command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&app{})
}

func newRootCommand(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "intake",
		Short: "Client intake wizard",
		Long: color.CyanString(config.AppName) + `

Collects client-intake answers page by page, keeps drafts on disk and exports
a printable report. Run without arguments to list recent drafts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runHome(cmd, false)
		},
	}
	a.bindFlags(rootCmd)

	rootCmd.AddCommand(newVersionCommand())
	rootCmd.AddCommand(newRunCommand(a))
	rootCmd.AddCommand(newHomeCommand(a))
	rootCmd.AddCommand(newValidateCommand(a))
	rootCmd.AddCommand(newExportCommand(a))
	rootCmd.AddCommand(newLintCommand(a))
	rootCmd.AddCommand(newSchemaCommand(a))
	return rootCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "intake %s (%s, %s)\n", Version, GitCommit, runtime.Version())
		},
	}
}
