package main

import (
	"bufio"
	"fmt"
	"strings"

	"depo-backend/internal/auth"
	"depo-backend/internal/config"
	"depo-backend/internal/database"
	"depo-backend/internal/logger"
	"depo-backend/internal/models"
	"depo-backend/internal/repositories"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending PostgreSQL migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		logger.Init(cfg.Log.Level, cfg.Log.Format)

		pool, err := openDatabase(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer pool.Close()

		n, err := database.NewMigrator(pool).RunMigrations(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", n)
		return nil
	},
}

var adminFlags struct {
	username string
	name     string
	password string
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an administrator account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(adminFlags.password) < auth.MinPasswordLength {
			return fmt.Errorf("--password must be at least %d characters", auth.MinPasswordLength)
		}
		cfg := config.Load()
		logger.Init(cfg.Log.Level, cfg.Log.Format)

		st, err := openStorage(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		hash, err := auth.HashPassword(adminFlags.password)
		if err != nil {
			return err
		}
		name := adminFlags.name
		if name == "" {
			name = adminFlags.username
		}
		u := &models.User{
			Username:     adminFlags.username,
			Name:         name,
			PasswordHash: hash,
			Role:         models.RoleAdmin,
		}
		if err := repositories.NewUserRepository(st.Backend).Create(cmd.Context(), u); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created admin %q (id %d) on %s\n", u.Username, u.ID, st.Backend.Name())
		return nil
	},
}

var resetYes bool

// reset-db empties the warehouse and audit tables but keeps users, departments
// and settings.
var resetDBCmd = &cobra.Command{
	Use:   "reset-db",
	Short: "Delete all boxes, pallets, shipments and activity from PostgreSQL",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		logger.Init(cfg.Log.Level, cfg.Log.Format)

		if !resetYes {
			fmt.Fprintf(cmd.OutOrStdout(), "This deletes every box, pallet, shipment and login log in %s on %s.\nType 'yes' to continue: ",
				cfg.Database.Name, cfg.Database.Host)
			answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if strings.TrimSpace(answer) != "yes" {
				fmt.Fprintln(cmd.OutOrStdout(), "aborted")
				return nil
			}
		}

		pool, err := openDatabase(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := database.NewMigrator(pool).ResetData(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "warehouse data cleared")
		return nil
	},
}

func init() {
	createAdminCmd.Flags().StringVar(&adminFlags.username, "username", "admin", "login name")
	createAdminCmd.Flags().StringVar(&adminFlags.name, "name", "", "display name (defaults to the username)")
	createAdminCmd.Flags().StringVar(&adminFlags.password, "password", "", "initial password")
	_ = createAdminCmd.MarkFlagRequired("password")

	resetDBCmd.Flags().BoolVar(&resetYes, "yes", false, "skip the confirmation prompt")
}
