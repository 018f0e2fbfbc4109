package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"task-tracker/backend/services"
	"task-tracker/backend/utils"
)

var (
	adminUsername string
	adminEmail    string
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an administrator account",
	Long:  "Create an administrator account. The password is read from TRACKER_ADMIN_PASSWORD.",
	RunE: func(cmd *cobra.Command, args []string) error {
		password := os.Getenv("TRACKER_ADMIN_PASSWORD")
		if adminUsername == "" || adminEmail == "" || password == "" {
			return errors.New("--username, --email and TRACKER_ADMIN_PASSWORD are required")
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := openStore(cmd.Context(), cfg.Storage)
		if err != nil {
			return err
		}
		defer store.Close()

		var blackList map[string]bool
		if cfg.PasswordBlacklist != "" {
			if blackList, err = utils.LoadBlackList(cfg.PasswordBlacklist); err != nil {
				return err
			}
		}
		u, err := services.NewUserService(store, blackList).CreateAdmin(cmd.Context(), adminUsername, adminEmail, password)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (id %d)\n", u.Email, u.ID)
		return nil
	},
}

func init() {
	createAdminCmd.Flags().StringVar(&adminUsername, "username", "", "admin username")
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "admin e-mail address")
}
