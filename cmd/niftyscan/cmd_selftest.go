package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"niftyscan/internal/nse"
)

// selftestCmd verifies NSE connectivity before a live scan.
var selftestCmd = &cobra.Command{
	Use:   "selftest",
	Short: "Verify NSE connectivity and market status",
	Long: `Run a four-step connectivity check against NSE India: homepage and
session cookies, the NIFTY 50 index endpoint, a single stock quote, and
the market-hours clock.

Example usage:
  niftyscan selftest
  niftyscan selftest --timeout 20s`,
	RunE: runSelftest,
}

var selftestTimeout time.Duration

func init() {
	rootCmd.AddCommand(selftestCmd)
	selftestCmd.Flags().DurationVar(&selftestTimeout, "timeout", 60*time.Second, "Overall selftest timeout")
}

func runSelftest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), selftestTimeout)
	defer cancel()

	client, err := nse.NewClient(cfg.NSE, log.Logger)
	if err != nil {
		return fmt.Errorf("create NSE client: %w", err)
	}

	fmt.Println("NSE India Connection Test")
	fmt.Println("=========================")

	fmt.Println("\n1. Homepage / session bootstrap...")
	if err := client.Bootstrap(ctx); err != nil {
		fmt.Printf("   FAIL: %v\n", err)
		return fmt.Errorf("session bootstrap failed: %w", err)
	}
	fmt.Println("   OK: session cookies acquired")

	fmt.Println("\n2. NIFTY 50 index endpoint...")
	quotes, err := client.FetchIndex(ctx)
	if err != nil {
		fmt.Printf("   FAIL: %v\n", err)
		return fmt.Errorf("index endpoint failed: %w", err)
	}
	fmt.Printf("   OK: %d constituents returned\n", len(quotes))
	for i, q := range quotes {
		if i >= 3 {
			break
		}
		fmt.Printf("      %s: %.2f\n", q.Symbol, q.LastPrice)
	}

	fmt.Println("\n3. Single stock quote endpoint...")
	if quote, err := client.FetchQuote(ctx, "TCS"); err != nil {
		// The quote endpoint is stricter about sessions; a failure here
		// does not block scanning, which uses the index endpoint.
		fmt.Printf("   WARN: %v\n", err)
	} else {
		fmt.Printf("   OK: TCS last price %.2f\n", quote.LastPrice)
	}

	fmt.Println("\n4. Market status...")
	if nse.MarketOpen(time.Now()) {
		fmt.Println("   Market is OPEN")
	} else {
		fmt.Printf("   Market is CLOSED (trading hours: %s)\n", nse.MarketHours())
	}

	fmt.Println("\nSelftest completed. Next steps:")
	fmt.Println("  niftyscan universe")
	fmt.Println("  niftyscan monitor")
	return nil
}
