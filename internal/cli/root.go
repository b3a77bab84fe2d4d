package cli

import (
	"fmt"

	"skill-swap/internal/config"
	"skill-swap/internal/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootOptions holds state shared by every subcommand.
type RootOptions struct {
	loadConfig func() (config.Config, error)
}

// NewRootCommand creates the skillswap command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{loadConfig: config.Load}

	cmd := &cobra.Command{
		Use:           "skillswap",
		Short:         "Skill swap lifecycle service",
		Long:          "Serves the swap request API and live notifications, and manages its database.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))

	return cmd
}

func (o *RootOptions) setup() (config.Config, *zap.Logger, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return config.Config{}, nil, err
	}
	log = log.With(zap.String("app", cfg.App.AppName), zap.String("env", cfg.App.Environment))
	if cfg.App.InstanceID != "" {
		log = log.With(zap.String("instance", cfg.App.InstanceID))
	}
	return cfg, log, nil
}
