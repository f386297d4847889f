// Package cli defines the bainoculars command tree. classify and captures are
// offline helpers; the kiosk itself is added by the binary from package serve.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/bainoculars/internal/config"
	"github.com/okian/bainoculars/pkg/logger"
)

var (
	// cfgFile is the YAML config path; BAINOC_CONFIG when unset.
	cfgFile  string
	logLevel string

	rootCmd = &cobra.Command{
		Use:           "bainoculars",
		Short:         "Bird identification kiosk",
		Long:          `A camera kiosk that identifies birds on demand, with a free explore mode and a timed arcade challenge.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(); err != nil {
				return fmt.Errorf("failed to initialize logging: %w", err)
			}
			if cfgFile != "" {
				if err := os.Setenv("BAINOC_CONFIG", cfgFile); err != nil {
					return err
				}
			}
			return nil
		},
	}
)

// Execute adds cmds to the root command and executes it.
func Execute(cmds ...*cobra.Command) error {
	rootCmd.AddCommand(cmds...)
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $BAINOC_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log_level (debug, info, warn, error)")
}

// LoadConfig loads configuration and applies the --log-level override.
func LoadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return cfg, nil
}
