package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"FuturesSentinel/internal/config"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Generate or validate configuration files",
		Long: `Manage configuration files.

Subcommands:
  init     - write a default configuration file
  validate - load a configuration file with env overrides and check it

Examples:
  sentinel config init -o configs/config.yaml
  sentinel config validate -c configs/config.yaml`,
	}
	cmd.AddCommand(newConfigInitCmd(), newConfigValidateCmd(opts))
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Default().SaveToFile(output); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Created default configuration: %s\n", output)
			fmt.Fprintf(out, "\nEdit the file and run with:\n  sentinel run -c %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", defaultConfigPath, "output config file path")
	return cmd
}

func newConfigValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Configuration valid: %s\n", opts.configPath)
			fmt.Fprintf(out, "  Source: %s (%s)\n", sourceKind(cfg), cfg.Frequency())
			fmt.Fprintf(out, "  Symbols: %s\n", strings.Join(cfg.Symbols, ", "))
			fmt.Fprintf(out, "  Schedule: %s\n", cfg.Schedule.DailyCron)
			fmt.Fprintf(out, "  Telegram: %v\n", cfg.TelegramEnabled())
			return nil
		},
	}
}

func sourceKind(cfg *config.Config) string {
	if cfg.DataSource.Kind == "" {
		return "mock"
	}
	return cfg.DataSource.Kind
}
