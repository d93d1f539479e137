// Command aiinspirectl runs maintenance tasks against the aiinspire database.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"aiinspire/config"
	"aiinspire/database"
	"aiinspire/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "aiinspirectl",
	Short: "Maintenance commands for the aiinspire API",
	Long: `aiinspirectl manages an aiinspire deployment.

Available commands:
  migrate       - Apply database migrations
  create-admin  - Create an admin account or promote an existing user
  seed          - Insert default AI platforms, social links and membership products
  gen-codes     - Generate a batch of redemption codes
  vapid         - Generate a VAPID key pair for web push`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	rootCmd.AddCommand(migrateCmd, createAdminCmd, seedCmd, genCodesCmd, vapidCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// connect loads configuration and opens the database for a command.
func connect(cmd *cobra.Command) (*database.DB, *zap.Logger, func(), error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return nil, nil, nil, err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 45*time.Second)
	defer cancel()
	db, err := database.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, log)
	if err != nil {
		return nil, nil, nil, err
	}
	closeFn := func() {
		if err := db.Disconnect(); err != nil {
			log.Warn("mongo disconnect", zap.Error(err))
		}
		_ = log.Sync()
	}
	return db, log, closeFn, nil
}
