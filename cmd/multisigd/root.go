package main

import (
	"fmt"

	"multisig-registry/config"
	"multisig-registry/pkg/logger"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "multisigd",
	Short: "Multi-member wallet registry service",
	Long: `multisigd runs the multisig registry HTTP service: wallets owned by a set
of members that execute calls once enough members confirm them, and a
registry that indexes every wallet by its current members.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: ./config.yaml or ./config/config.yaml)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(signCmd)
}

// loadConfig reads the configuration and builds the process logger.
func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, logger.New(cfg.Log.Level, cfg.Log.Pretty), nil
}
