// Package universe manages the NIFTY 50 constituent list: fetching it from
// the index endpoint, persisting it to disk and loading it back for a scan.
package universe

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"text/tabwriter"

	"niftyscan/internal/nse"
)

// Stock is one NIFTY 50 constituent.
type Stock struct {
	Symbol      string  `json:"symbol"`
	ISIN        string  `json:"isin"`
	CompanyName string  `json:"company_name"`
	LastPrice   float64 `json:"last_price"`
	Change      float64 `json:"change"`
	PctChange   float64 `json:"pct_change"`
}

// FromIndexQuotes converts live index quotes into a constituent snapshot,
// sorted by symbol for stable files.
func FromIndexQuotes(quotes []nse.IndexQuote) []Stock {
	stocks := make([]Stock, 0, len(quotes))
	for _, q := range quotes {
		isin := q.ISIN
		if isin == "" {
			isin = "NA"
		}
		name := q.CompanyName
		if name == "" {
			name = q.Symbol
		}
		stocks = append(stocks, Stock{
			Symbol:      q.Symbol,
			ISIN:        isin,
			CompanyName: name,
			LastPrice:   q.LastPrice,
			Change:      q.Change,
			PctChange:   q.PctChange,
		})
	}
	sort.Slice(stocks, func(i, j int) bool { return stocks[i].Symbol < stocks[j].Symbol })
	return stocks
}

// SaveJSON writes the constituent list as indented JSON.
func SaveJSON(stocks []Stock, path string) error {
	data, err := json.MarshalIndent(stocks, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal universe: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write universe %s: %w", path, err)
	}
	return nil
}

// LoadJSON reads a previously saved constituent list. A missing file
// returns an instructive error since the universe command must run first.
func LoadJSON(path string) ([]Stock, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("universe file %s not found, run 'niftyscan universe' first: %w", path, err)
		}
		return nil, fmt.Errorf("read universe %s: %w", path, err)
	}

	var stocks []Stock
	if err := json.Unmarshal(data, &stocks); err != nil {
		return nil, fmt.Errorf("unmarshal universe %s: %w", path, err)
	}
	return stocks, nil
}

// SaveCSV writes the constituent list as CSV with a header row.
func SaveCSV(stocks []Stock, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create universe csv %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	if err := w.Write([]string{"symbol", "isin", "company_name", "last_price", "change", "pct_change"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, s := range stocks {
		row := []string{
			s.Symbol,
			s.ISIN,
			s.CompanyName,
			strconv.FormatFloat(s.LastPrice, 'f', 2, 64),
			strconv.FormatFloat(s.Change, 'f', 2, 64),
			strconv.FormatFloat(s.PctChange, 'f', 2, 64),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	return nil
}

// PrintTable renders the constituent list to w.
func PrintTable(out io.Writer, stocks []Stock) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Symbol\tISIN\tCompany\tLast Price\tChange %")
	fmt.Fprintln(w, "------\t----\t-------\t----------\t--------")
	for _, s := range stocks {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%+.2f\n",
			s.Symbol, s.ISIN, s.CompanyName, s.LastPrice, s.PctChange)
	}
	w.Flush()
}

// Symbols returns the symbols of the constituents in order.
func Symbols(stocks []Stock) []string {
	syms := make([]string, len(stocks))
	for i, s := range stocks {
		syms[i] = s.Symbol
	}
	return syms
}
