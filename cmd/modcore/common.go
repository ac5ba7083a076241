package main

import (
	"context"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/modgrove/modcore/internal/config"
	"github.com/modgrove/modcore/internal/logging"
	"github.com/modgrove/modcore/internal/normalize"
	"github.com/modgrove/modcore/internal/oplock"
	"github.com/modgrove/modcore/internal/store"
	"github.com/modgrove/modcore/internal/watch"
)

// sharedLock and sharedSuppressor back every subcommand invocation within
// a single process run: the OperationLock and watcher Suppressor are
// process-wide, not per-command, so a toggle and a concurrent
// collection apply within the same process genuinely contend.
var (
	sharedLock       = oplock.New()
	sharedSuppressor = watch.NewSuppressor()
)

// dbPathFlag, dbConnsFlag, and configPathFlag back the root command's
// persistent flags, read by every subcommand's openStore call.
var (
	dbPathFlag     string
	dbConnsFlag    int
	configPathFlag string
	logLevelFlag   string
)

// addRootFlags registers the persistent flags shared by every subcommand.
func addRootFlags(flags *pflag.FlagSet) {
	flags.StringVar(&dbPathFlag, "db", "", "path to the SQLite state database (overrides the configuration file)")
	flags.IntVar(&dbConnsFlag, "db-connections", 0, "maximum database connections (overrides the configuration file)")
	flags.StringVar(&configPathFlag, "config", "modcore.yaml", "path to the YAML configuration file")
	flags.StringVar(&logLevelFlag, "log-level", "info", "log level (disabled, error, warn, info, debug, trace)")
}

// appLogger builds the root logger from --log-level, falling back to
// info on an unrecognized name.
func appLogger() *logging.Logger {
	level, ok := logging.NameToLevel(logLevelFlag)
	if !ok {
		level = logging.LevelInfo
	}
	return logging.NewLogger(level, nil)
}

func init() {
	// Loads a .env file from the working directory into the process
	// environment if present; absence is not an error. No subcommand reads
	// its flags or configuration from the environment.
	_ = godotenv.Load()
}

var (
	loadedConfig    config.Configuration
	loadConfigOnce  sync.Once
	loadConfigError error
)

// engineConfig loads the configuration file once per process. Flags beat
// the file; the file beats built-in defaults.
func engineConfig() (config.Configuration, error) {
	loadConfigOnce.Do(func() {
		loadedConfig, loadConfigError = config.Load(configPathFlag)
	})
	return loadedConfig, loadConfigError
}

// tokenizationConfig resolves the normalization rules, applying any
// overrides from the configuration file.
func tokenizationConfig() (normalize.Config, error) {
	c, err := engineConfig()
	if err != nil {
		return normalize.Config{}, err
	}
	return c.NormalizeConfig(), nil
}

func openStore(ctx context.Context) (*store.Store, error) {
	c, err := engineConfig()
	if err != nil {
		return nil, err
	}
	path := dbPathFlag
	if path == "" {
		path = c.DBPath
	}
	if path == "" {
		path = "modcore.db"
	}
	conns := dbConnsFlag
	if conns <= 0 {
		conns = c.MaxConnections
	}
	return store.Open(ctx, path, conns)
}
