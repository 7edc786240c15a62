package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	flagConfig   string
	flagLogLevel string
)

// rootCmd is the base command for the niftyscan CLI.
var rootCmd = &cobra.Command{
	Use:   "niftyscan",
	Short: "NIFTY 50 intraday momentum scanner",
	Long: `niftyscan polls live NIFTY 50 prices from NSE India, detects momentum
shifts (price crossing its moving average) and ranks the strongest movers.

Typical workflow:
  niftyscan selftest            # verify NSE connectivity
  niftyscan universe            # fetch and store the constituent list
  niftyscan monitor             # run the intraday analysis loop
  niftyscan report              # re-render the last saved results`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(flagLogLevel)
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level override (debug|info|warn|error)")
}

func setupLogging(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if level == "" {
		return
	}
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		log.Warn().Str("level", level).Msg("Unknown log level, keeping default")
		return
	}
	zerolog.SetGlobalLevel(parsed)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
