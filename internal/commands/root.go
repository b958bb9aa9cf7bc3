// Package commands defines the planora CLI.
package commands

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/kutbudev/planora/internal/config"
	"github.com/kutbudev/planora/internal/repository"
)

// NewRootCmd creates the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "planora",
		Short:         "Planora - project and task management API",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(NewServeCmd())
	root.AddCommand(NewMigrateCmd())
	root.AddCommand(NewSeedCmd())

	return root
}

// bootstrap loads configuration and opens the database; every subcommand
// starts here.
func bootstrap() (*config.Config, *gorm.DB, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}

	level := slog.LevelInfo
	if cfg.App.Debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	db, err := repository.NewDatabase(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, db, log, nil
}
