// Package cli implements directoryctl, the operator command line for batch
// jobs and reference data seeding.
package cli

import (
	"fmt"

	"directory-backend/internal/config"
	"directory-backend/internal/database"
	"directory-backend/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// openDB connects and migrates. Tests replace it with a sqlite opener.
var openDB = func(cfg *config.Config) (*gorm.DB, func(), error) {
	db, err := database.Open(postgres.Open(cfg.DatabaseDSN))
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if err := database.Migrate(db); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return db, closeFn, nil
}

type runtime struct {
	cfg     *config.Config
	db      *gorm.DB
	closeDB func()
	log     *zap.Logger
}

func NewRootCommand() *cobra.Command {
	rt := &runtime{}
	var logLevel, logFormat string

	root := &cobra.Command{
		Use:           "directoryctl",
		Short:         "Operator tool for the directory backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Parse()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if cmd.Flags().Changed("log-format") {
				cfg.LogFormat = logFormat
			}
			if err := logger.Init(cfg.LogLevel, cfg.LogFormat); err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			rt.cfg = cfg
			rt.log = logger.Log
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if rt.closeDB != nil {
				rt.closeDB()
			}
			logger.Sync()
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format (json, console)")

	root.AddCommand(newJobsCommand(rt), newSeedCommand(rt))
	return root
}

// connect opens the connection lazily so commands that never touch it
// do not need one.
func (rt *runtime) connect() (*gorm.DB, error) {
	if rt.db != nil {
		return rt.db, nil
	}
	db, closeFn, err := openDB(rt.cfg)
	if err != nil {
		return nil, err
	}
	rt.db, rt.closeDB = db, closeFn
	return db, nil
}

func Execute() error {
	return NewRootCommand().Execute()
}
