package commands

import (
	"github.com/spf13/cobra"

	"github.com/kutbudev/planora/internal/repository"
)

// NewMigrateCmd creates the migrate command that syncs the database schema.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, log, err := bootstrap()
			if err != nil {
				return err
			}
			if err := repository.Migrate(db); err != nil {
				return err
			}
			log.Info("migrations complete")
			return nil
		},
	}
}
