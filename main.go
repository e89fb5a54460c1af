package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdxmph/pocket-contacts/internal/config"
	"github.com/pdxmph/pocket-contacts/internal/contact"
	"github.com/pdxmph/pocket-contacts/internal/db"
	"github.com/pdxmph/pocket-contacts/internal/intents"
	_ "github.com/pdxmph/pocket-contacts/internal/intents/system"
	"github.com/pdxmph/pocket-contacts/internal/logging"
	"github.com/pdxmph/pocket-contacts/internal/screen"
	"github.com/pdxmph/pocket-contacts/internal/tui"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

// globalFlags are shared by every command
type globalFlags struct {
	configPath string
	dbPath     string
	driver     string
	verbose    bool
	dryRun     bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// cobra already printed the error
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:          config.AppName,
		Short:        "A contacts manager for the terminal",
		Version:      version,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), flags)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "Config file (default "+config.Path()+")")
	pf.StringVar(&flags.dbPath, "db", "", "Database file, overrides the config")
	pf.StringVar(&flags.driver, "driver", "", "Database driver: sqlite, sqlite3 or memory")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Log at debug level")
	pf.BoolVar(&flags.dryRun, "dry-run", false, "Record call, message and email links instead of opening them")

	root.AddCommand(
		newInitCmd(&flags),
		newExportCmd(&flags),
		newImportCmd(&flags),
		newConfigCmd(&flags),
		newLaunchersCmd(&flags),
	)
	return root
}

// loadConfig reads the config file and applies command line overrides
func loadConfig(flags *globalFlags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if flags.configPath != "" {
		cfg, err = config.LoadFrom(flags.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if flags.dbPath != "" {
		cfg.Database.Path = flags.dbPath
	}
	if flags.driver != "" {
		cfg.Database.Driver = flags.driver
	}
	if flags.dryRun {
		cfg.Launcher.Name = "dry-run"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// watchFunc follows outside changes to a store until ctx is done
type watchFunc func(ctx context.Context) error

// openStore opens the configured store. watch is nil when there is
// nothing to watch.
func openStore(cfg *config.Config, log *zap.Logger) (contact.Store, watchFunc, error) {
	if cfg.Database.Driver == config.MemoryDriver {
		log.Info("using in-memory store with sample contacts")
		return contact.NewMemoryStore(db.Fixtures()...), nil, nil
	}

	database, err := db.Open(cfg.Database.Driver, cfg.Database.Path,
		db.WithLogger(log),
		db.WithFavoriteTimeout(cfg.Actions.FavoriteTimeout),
	)
	if err != nil {
		return nil, nil, err
	}
	if !cfg.Database.Watch {
		return database, nil, nil
	}
	return database, database.Watch, nil
}

// setup loads the config and builds the logger
func setup(flags *globalFlags) (*config.Config, *zap.Logger, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, nil, err
	}
	log, err := logging.New(cfg.Logging, flags.verbose)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func runTUI(ctx context.Context, flags globalFlags) error {
	cfg, log, err := setup(&flags)
	if err != nil {
		return err
	}
	defer log.Sync()

	store, watch, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	manager, err := intents.NewManager(cfg.Launcher.Name)
	if err != nil {
		return err
	}
	log.Info("starting",
		zap.String("version", version),
		zap.String("driver", cfg.Database.Driver),
		zap.String("launcher", manager.Name()),
	)
	if manager.Explicit() && !manager.IsEnabled() {
		log.Warn("configured launcher cannot run here, links will not open", zap.String("launcher", manager.Name()))
	}

	g, gctx := errgroup.WithContext(ctx)
	model := tui.New(gctx, tui.Options{
		Store:    store,
		Launcher: manager.Launcher(),
		Logger:   log,
		Timeouts: screen.Timeouts{
			Probe:  cfg.Actions.ProbeTimeout,
			Open:   cfg.Actions.OpenTimeout,
			Delete: cfg.Actions.DeleteTimeout,
		},
	})
	defer model.Close()

	watchCtx, stopWatch := context.WithCancel(gctx)
	defer stopWatch()

	g.Go(func() error {
		// The watcher has no reason to outlive the UI
		defer stopWatch()
		_, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(gctx)).Run()
		return err
	})
	if watch != nil {
		g.Go(func() error { return watch(watchCtx) })
	}

	if err := g.Wait(); err != nil {
		log.Error("exiting with error", zap.Error(err))
		return err
	}
	return nil
}
