package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Strob0t/RentMatch/internal/config"
	"github.com/Strob0t/RentMatch/internal/logger"
)

// loadConfig honors the --config and --env-file persistent flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	yamlPath, _ := cmd.Flags().GetString("config")
	envPath, _ := cmd.Flags().GetString("env-file")
	if yamlPath == "" {
		yamlPath = config.DefaultConfigFile
	}
	if envPath == "" {
		envPath = config.DefaultEnvFile
	}
	cfg, err := config.LoadFrom(yamlPath, envPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// setupLogger installs the configured logger as the slog default.
func setupLogger(cfg config.Logging) logger.Closer {
	l, closer := logger.New(cfg)
	slog.SetDefault(l)
	return closer
}
