package cli

import (
	"github.com/draftsync/internal/config"
	"github.com/draftsync/internal/db"
	"github.com/draftsync/internal/logging"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "db commands",
}

func init() {
	dbCmd.AddCommand(migrateCmd())
}

func migrateCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			logging.Setup(cfg.LogLevel, cfg.LogFormat)

			// Init runs the migration as part of opening the database
			if _, err := db.Init(cfg.DatabasePath, db.Options{Silent: true}); err != nil {
				return err
			}
			logrus.WithField("path", cfg.DatabasePath).Info("database migrated")
			return nil
		},
	}

	return command
}
