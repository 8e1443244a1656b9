package main

import (
	"fmt"

	"github.com/Rashmi7205/admin-fam-tree/internal/model"
	"github.com/Rashmi7205/admin-fam-tree/internal/service"
	"github.com/Rashmi7205/admin-fam-tree/pkg/config"
	"github.com/Rashmi7205/admin-fam-tree/pkg/database"
	"github.com/Rashmi7205/admin-fam-tree/pkg/jwtutil"
	"github.com/Rashmi7205/admin-fam-tree/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var createAdminDefaults = []string{"admin@familytree.com", "Admin@123", "Super", "Admin", model.RoleSuperAdmin}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin [email] [password] [firstName] [lastName] [role]",
	Short: "Create an admin, or reset its password when the email exists",
	Long: `Seeds an operator account. Missing arguments fall back to
admin@familytree.com / Admin@123 / Super / Admin / super_admin.

When the email is already registered the password and role are reset and
the account is reactivated.`,
	Args: cobra.MaximumNArgs(5),
	RunE: runCreateAdmin,
}

func runCreateAdmin(cmd *cobra.Command, args []string) error {
	values := append([]string{}, createAdminDefaults...)
	copy(values, args)

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

	auth := service.NewAuthService(db, jwtutil.New(cfg.Session.SigningKey, cfg.Session.TTL))
	admin, created, err := auth.EnsureAdmin(cmd.Context(), service.AdminInput{
		Email:     values[0],
		Password:  values[1],
		FirstName: values[2],
		LastName:  values[3],
		Role:      values[4],
	})
	if err != nil {
		return err
	}

	if created {
		log.Info("Admin created", zap.Uint("admin_id", admin.ID), zap.String("email", admin.Email))
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s admin %s\n", admin.Role, admin.Email)
	} else {
		log.Info("Admin password reset", zap.Uint("admin_id", admin.ID), zap.String("email", admin.Email))
		fmt.Fprintf(cmd.OutOrStdout(), "Reset password for %s\n", admin.Email)
	}
	return nil
}
