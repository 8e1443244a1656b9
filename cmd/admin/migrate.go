package main

import (
	"fmt"

	"github.com/Rashmi7205/admin-fam-tree/pkg/config"
	"github.com/Rashmi7205/admin-fam-tree/pkg/database"
	"github.com/Rashmi7205/admin-fam-tree/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		logger.InitLogger(cfg)
		log := logger.GetLogger()
		defer log.Sync()

		db, err := database.Open(&cfg.DB)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer database.Close(db)

		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
		log.Info("Database schema is up to date", zap.String("driver", cfg.DB.Driver))
		return nil
	},
}
