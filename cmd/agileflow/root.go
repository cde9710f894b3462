package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"agileflow/internal/auth"
	"agileflow/internal/config"
	"agileflow/internal/projects"
	"agileflow/internal/storage/memory"
	"agileflow/internal/storage/postgres"
	"agileflow/internal/storage/sqlite"
	"agileflow/internal/tasks"
	"agileflow/internal/users"
)

// cli carries state shared by every subcommand once the root has loaded the configuration.
type cli struct {
	configFile string
	envFile    string
	driver     string
	dbPath     string
	dsn        string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "agileflow",
		Short:         "Agile task board: HTTP server and command line client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.load(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.configFile, "config", "", "TOML configuration file (default $AGILEFLOW_CONFIG)")
	flags.StringVar(&c.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	flags.StringVar(&c.driver, "db-driver", "", "store driver: sqlite, postgres or memory")
	flags.StringVar(&c.dbPath, "db", "", "path to the sqlite database file")
	flags.StringVar(&c.dsn, "dsn", "", "postgres connection string")
	flags.StringVar(&c.logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(
		newServeCmd(c),
		newTaskCmd(c),
		newProjectCmd(c),
		newUserCmd(c),
		newBoardCmd(c),
	)
	return root
}

func (c *cli) load(cmd *cobra.Command) error {
	cfg, err := config.Load(c.configFile, c.envFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("db-driver") {
		cfg.Database.Driver = c.driver
	}
	if flags.Changed("db") {
		cfg.Database.Path = c.dbPath
	}
	if flags.Changed("dsn") {
		cfg.Database.DSN = c.dsn
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = c.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level, _ := cfg.SlogLevel()
	c.cfg = cfg
	c.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return nil
}

// backend is what every store implementation offers.
type backend interface {
	tasks.Repository
	tasks.Gateway
	users.Store
	projects.Store
	Ping(ctx context.Context) error
	Close() error
}

// app bundles an open store with the services built on it.
type app struct {
	store    backend
	tasks    *tasks.Manager
	projects *projects.Service
	users    *users.Service
	tokens   *auth.Tokens
}

func (c *cli) open(ctx context.Context) (*app, error) {
	store, err := c.openStore(ctx)
	if err != nil {
		return nil, err
	}

	// Without a configured secret tokens are signed with a per-process key.
	secret := c.cfg.Auth.JWTSecret
	if secret == "" {
		secret, err = auth.RandomPassword(32)
		if err != nil {
			store.Close()
			return nil, err
		}
	}
	tokens := auth.NewTokens(secret, c.cfg.Auth.TokenTTL)

	return &app{
		store:    store,
		tasks:    tasks.NewManager(store, store, c.logger),
		projects: projects.NewService(store, c.logger),
		users:    users.NewService(store, tokens, c.logger),
		tokens:   tokens,
	}, nil
}

func (c *cli) openStore(ctx context.Context) (backend, error) {
	switch c.cfg.Database.Driver {
	case config.DriverSQLite:
		return sqlite.Open(c.cfg.Database.Path, c.logger)
	case config.DriverPostgres:
		return postgres.Open(ctx, c.cfg.Database.DSN, c.logger)
	case config.DriverMemory:
		c.logger.Warn("using the in-memory store; nothing is persisted")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", c.cfg.Database.Driver)
	}
}

func (a *app) Close() error {
	return a.store.Close()
}
