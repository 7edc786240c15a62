package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"niftyscan/internal/artifacts"
	"niftyscan/internal/config"
	"niftyscan/internal/nse"
	"niftyscan/internal/universe"
)

// universeCmd fetches the NIFTY 50 constituent list and stores it for
// later scans.
var universeCmd = &cobra.Command{
	Use:   "universe",
	Short: "Fetch and store the NIFTY 50 constituent list",
	Long: `Fetch the NIFTY 50 constituents (symbol, ISIN, company name and live
price) from NSE, save them as JSON and CSV, and print the list.

Example usage:
  niftyscan universe
  niftyscan universe --config config/config.yaml`,
	RunE: runUniverse,
}

func init() {
	rootCmd.AddCommand(universeCmd)
}

// loadConfig reads the configured YAML file and applies its log level
// unless the --log-level flag already set one.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}
	if flagLogLevel == "" && cfg.Log.Level != "" {
		if parsed, perr := zerolog.ParseLevel(cfg.Log.Level); perr == nil {
			zerolog.SetGlobalLevel(parsed)
		}
	}
	return cfg, nil
}

func runUniverse(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	client, err := nse.NewClient(cfg.NSE, log.Logger)
	if err != nil {
		return fmt.Errorf("create NSE client: %w", err)
	}

	log.Info().Msg("Bootstrapping NSE session")
	if err := client.Bootstrap(ctx); err != nil {
		return fmt.Errorf("bootstrap NSE session: %w", err)
	}

	quotes, err := client.FetchIndex(ctx)
	if err != nil {
		return fmt.Errorf("fetch NIFTY 50 constituents: %w", err)
	}
	if len(quotes) == 0 {
		return fmt.Errorf("NSE returned no constituents")
	}

	stocks := universe.FromIndexQuotes(quotes)

	if err := universe.SaveJSON(stocks, cfg.Paths.UniverseJSON); err != nil {
		return err
	}
	if err := universe.SaveCSV(stocks, cfg.Paths.UniverseCSV); err != nil {
		return err
	}

	writer := artifacts.NewWriter(cfg.Paths.ArtifactsDir)
	if path, err := writer.WriteJSON("universe-snapshot", stocks); err != nil {
		log.Warn().Err(err).Msg("Universe artifact write failed")
	} else {
		log.Debug().Str("path", path).Msg("Universe snapshot archived")
	}

	log.Info().
		Int("stocks", len(stocks)).
		Str("json", cfg.Paths.UniverseJSON).
		Str("csv", cfg.Paths.UniverseCSV).
		Msg("Universe saved")

	fmt.Printf("\nNIFTY 50 constituents (%d stocks)\n\n", len(stocks))
	universe.PrintTable(os.Stdout, stocks)
	return nil
}
