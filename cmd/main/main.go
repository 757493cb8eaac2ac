package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/CTAG07/hcp/pkg/docstore"
	"github.com/CTAG07/hcp/pkg/templating"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// app carries the state shared by every command: the loaded configuration,
// the logger and, once a command asks for it, the document store.
type app struct {
	configPath string
	config     *Config
	logger     *slog.Logger
	db         *sql.DB
	store      *docstore.Store
}

// openStoreDB opens the database with the given driver and prepares it for
// the document store.
func openStoreDB(driver, dataSource string) (*sql.DB, error) {
	db, err := sql.Open(driver, dataSource)
	if err != nil {
		return nil, err
	}
	for _, pragma := range []string{"PRAGMA journal_mode=WAL;", "PRAGMA busy_timeout=5000;"} {
		if _, err = db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("could not apply %q: %w", pragma, err)
		}
	}
	if err = docstore.SetupSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// openStore lazily opens the configured database and returns the store.
func (a *app) openStore() (*docstore.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	db, err := initDB(a.config.Server.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	store, err := docstore.NewStore(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create document store: %w", err)
	}
	store.SetLogger(a.logger)
	a.db, a.store = db, store
	a.logger.Debug("Document store opened", "path", a.config.Server.DatabasePath, "driver", driverName)
	return store, nil
}

func (a *app) newManager() (*templating.TemplateManager, error) {
	store, err := a.openStore()
	if err != nil {
		return nil, err
	}
	return templating.NewTemplateManager(a.logger, store, a.config.Templates)
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
		a.store = nil
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("Failed to close database", "error", err)
		}
		a.db = nil
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "hcpctl",
		Short:         "Lint, resolve and serve HCP content documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			config, err := LoadConfig(a.configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			a.config = config
			a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
				Level: parseLogLevel(config.Server.LogLevel),
			}))
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "./hcpctl.json", "path to the configuration file")

	root.AddCommand(
		newLintCmd(a),
		newResolveCmd(a),
		newImportCmd(a),
		newExportCmd(a),
		newListCmd(a),
		newRemoveCmd(a),
		newContextCmd(a),
		newRenderCmd(a),
		newStatsCmd(a),
		newVersionCmd(),
	)
	return root
}

// run executes the command line in args, writing command output to stdout.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	a := &app{}
	defer a.close()

	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
