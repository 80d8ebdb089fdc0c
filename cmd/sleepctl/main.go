// Command sleepctl manages the Sleep Outside store from the shell: inventory
// records, the cart, and card checks. It works on the same persisted store
// as the API server, so a running server picks its writes up.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sleepoutside/backend/internal/config"
	"github.com/sleepoutside/backend/internal/logging"
	"github.com/sleepoutside/backend/internal/storage"
)

// app holds what the subcommands share once the root pre-run has opened
// the store.
type app struct {
	driver     string
	dataDir    string
	sqlitePath string
	verbose    bool

	cfg        *config.Config
	logger     *zap.Logger
	store      storage.KVStore
	closeStore func() error
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "sleepctl",
		Short:         "Manage the Sleep Outside inventory and cart",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}

	root.PersistentFlags().StringVar(&a.driver, "driver", "", "storage driver (file, memory, mongo, sqlite); defaults to STORAGE_DRIVER")
	root.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "file store directory; defaults to DATA_DIR")
	root.PersistentFlags().StringVar(&a.sqlitePath, "sqlite", "", "sqlite database path; defaults to SQLITE_PATH")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(newInventoryCmd(a), newCartCmd(a), newCardCmd())
	return root
}

func (a *app) open(cmd *cobra.Command) error {
	// card checks never touch the store
	if cmd.Annotations["store"] == "none" {
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.driver != "" {
		cfg.StorageDriver = a.driver
	}
	if a.dataDir != "" {
		cfg.DataDir = a.dataDir
	}
	if a.sqlitePath != "" {
		cfg.SQLitePath = a.sqlitePath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level := "warn"
	if a.verbose {
		level = "debug"
	}
	logger, err := logging.New(level, true)
	if err != nil {
		return err
	}

	store, closeStore, err := storage.Open(cmd.Context(), storage.Options{
		Driver:     cfg.StorageDriver,
		DataDir:    cfg.DataDir,
		MongoURI:   cfg.MongoURI,
		MongoDB:    cfg.MongoDB,
		SQLitePath: cfg.SQLitePath,
	})
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.StorageDriver, err)
	}

	a.cfg, a.logger, a.store, a.closeStore = cfg, logger, store, closeStore
	return nil
}

func (a *app) close() {
	if a.closeStore != nil {
		if err := a.closeStore(); err != nil && a.logger != nil {
			a.logger.Warn("close store", zap.Error(err))
		}
		a.closeStore = nil
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}
