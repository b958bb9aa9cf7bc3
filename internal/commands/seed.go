package commands

import (
	"github.com/spf13/cobra"

	"github.com/kutbudev/planora/internal/repository"
)

// NewSeedCmd creates the seed command that installs permissions, roles and
// the initial admin user. Seeding is idempotent.
func NewSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed permissions, roles and the initial admin user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, log, err := bootstrap()
			if err != nil {
				return err
			}
			if err := repository.Seed(db, cfg); err != nil {
				return err
			}
			log.Info("seeding complete")
			return nil
		},
	}
}
