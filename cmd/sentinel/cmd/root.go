// Package cmd implements the sentinel command line.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

const defaultConfigPath = "configs/config.yaml"

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	configPath string
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "sentinel",
		Short: "Technical analysis and trade signals for futures contracts",
		Long: `Sentinel computes SMA, EMA, RSI, MACD and Bollinger Bands for a list of
futures contracts, classifies each market as uptrend, sideways or downtrend,
and turns that into a buy/sell/hold recommendation with a confidence score.

Commands:
  run      - analyze symbols once and print a report
  serve    - run the daily schedule, Telegram bot and HTTP API
  config   - generate or validate a configuration file
  version  - print the version`,
		SilenceUsage: true,
	}

	defPath := defaultConfigPath
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defPath = v
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", defPath, "path to config file (env CONFIG_PATH)")

	root.AddCommand(
		newRunCmd(opts),
		newServeCmd(opts),
		newConfigCmd(opts),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
