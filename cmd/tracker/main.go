// Command tracker runs the task tracker API and its maintenance tasks.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"task-tracker/backend/config"
	"task-tracker/backend/logging"
)

var (
	envFile    string
	configFile string
)

var rootCmd = &cobra.Command{
	Use:           "tracker",
	Short:         "Task tracker backend",
	Long:          "REST backend for projects, tasks, comments and users with JWT authentication.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "optional YAML config file")

	rootCmd.AddCommand(serveCmd, migrateCmd, createAdminCmd, versionCmd)
}

// loadConfig reads the configuration and initialises the global logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(envFile, configFile)
	if err != nil {
		return nil, err
	}
	logging.InitLogger(logging.Options{
		SystemName: cfg.Log.SystemName,
		File:       cfg.Log.File,
		Level:      cfg.Log.Level,
		Location:   cfg.Log.Location(),
	})
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logging.Logger.Errorf("Event ID: COMMAND_FAILED, Description: %v", err)
		os.Exit(1)
	}
}
