// Package commands holds the cobra command tree of the intake CLI.
package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/goliatone/go-intake/internal/cli/ui"
	"github.com/goliatone/go-intake/internal/config"
	"github.com/goliatone/go-intake/internal/logging"
	"github.com/goliatone/go-intake/pkg/engine"
	"github.com/goliatone/go-intake/pkg/mru"
	"github.com/goliatone/go-intake/pkg/renderers/tui"
	"github.com/goliatone/go-intake/pkg/schema"
	"github.com/goliatone/go-intake/pkg/state"
	"github.com/goliatone/go-intake/pkg/validators"
)

// Draft file extensions accepted by the launcher.
var draftExtensions = []string{".mgd", ".json"}

// errReported marks failures already printed to the user; Execute only sets
// the exit code for them.
var errReported = errors.New("intake: failed")

// app carries the state shared by every command once config is loaded.
type app struct {
	configFile string
	noColor    bool

	// driver overrides the survey prompts; tests inject a scripted driver.
	driver tui.PromptDriver

	viper    *viper.Viper
	cfg      config.Config
	log      *logging.Logger
	logger   *zap.Logger
	registry *validators.Registry
	catalog  *schema.Catalog
}

// flagKeys maps persistent flags onto config keys.
var flagKeys = map[string]string{
	"validation-mode": "validation_mode",
	"data-dir":        "data_dir",
	"log-dir":         "log_dir",
	"log-level":       "log_level",
	"catalog":         "catalog",
}

func (a *app) bindFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default .intake.yaml)")
	flags.BoolVar(&a.noColor, "no-color", false, "disable colored output")
	flags.String("validation-mode", "", "page validation mode: hard or soft")
	flags.String("data-dir", "", "directory holding the recent drafts list")
	flags.String("log-dir", "", "directory for intake.log")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.String("catalog", "", "directory with an external page catalog")
}

// setup loads configuration, the logger, the validator registry and the
// catalog. It runs before every command.
func (a *app) setup(cmd *cobra.Command) error {
	if a.noColor {
		color.NoColor = true
	}

	v, err := config.New(a.configFile)
	if err != nil {
		return err
	}
	for flag, key := range flagKeys {
		f := cmd.Flags().Lookup(flag)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("config: bind --%s: %w", flag, err)
		}
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	a.viper = v
	a.cfg = cfg

	log, err := logging.New(logging.Options{
		Dir:     cfg.LogDir,
		Level:   cfg.LogLevel,
		Console: cmd.ErrOrStderr(),
	})
	if log == nil {
		return err
	}
	a.log = log
	a.logger = log.Logger
	if err != nil {
		a.printer(cmd.ErrOrStderr()).Warning("Logging to the console only", err.Error())
	}

	a.registry = validators.Default(validators.WithLogger(a.logger))
	a.catalog, err = a.loadCatalog()
	if err != nil {
		return err
	}
	return nil
}

func (a *app) loadCatalog() (*schema.Catalog, error) {
	if dir := strings.TrimSpace(a.cfg.Catalog); dir != "" {
		catalog, err := schema.LoadFS(os.DirFS(dir))
		if err != nil {
			return nil, fmt.Errorf("intake: load catalog %s: %w", dir, err)
		}
		return catalog, nil
	}
	return schema.Default()
}

func (a *app) close() {
	if a.log == nil {
		return
	}
	_ = a.log.Close()
}

func (a *app) printer(w io.Writer) ui.Printer {
	return ui.Printer{W: w, NoColor: a.noColor || color.NoColor}
}

func (a *app) engine() *engine.Engine {
	return engine.New(a.registry, engine.WithLogger(a.logger))
}

func (a *app) recent() *mru.List {
	return mru.InDir(a.cfg.DataDir, mru.WithMax(a.cfg.MRUMax), mru.WithLogger(a.logger))
}

// loadDraft reads a draft for the batch commands. Missing files are errors
// here; malformed content is reported as a warning and opened with defaults.
func (a *app) loadDraft(cmd *cobra.Command, path string) (*state.Store, error) {
	if err := checkExtension(path); err != nil {
		return nil, err
	}
	store, err := state.Load(path, a.catalog)
	if err != nil {
		if !errors.Is(err, state.ErrMalformed) {
			return nil, err
		}
		a.printer(cmd.ErrOrStderr()).Warning("Draft could not be read; using defaults", err.Error())
	}
	return store, nil
}

func checkExtension(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	for _, allowed := range draftExtensions {
		if ext == allowed {
			return nil
		}
	}
	return fmt.Errorf("intake: %s: drafts use the %s extension", path, strings.Join(draftExtensions, " or "))
}
