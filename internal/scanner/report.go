package scanner

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"niftyscan/internal/momentum"
	"niftyscan/internal/persistence"
)

// Report is the end-of-run summary: the strongest momentum shifts within
// the lookback window, measured against the final prices.
type Report struct {
	RunID       string            `json:"run_id"`
	GeneratedAt time.Time         `json:"generated_at"`
	MAPeriod    int               `json:"ma_period"`
	TotalShifts int               `json:"total_shifts"`
	TopUpward   []momentum.Ranked `json:"top_upward_shifts"`
	TopDownward []momentum.Ranked `json:"top_downward_shifts"`
}

// FinalReport re-fetches prices once, ranks every shift inside the
// momentum window and writes the report to the fixed result files, the
// artifacts ledger and the reports repository.
func (s *Scanner) FinalReport(ctx context.Context) (*Report, error) {
	current := s.latestPrices()
	if quotes, err := s.deps.Source.FetchIndex(ctx); err != nil {
		s.log.Warn().Err(err).Msg("Final price fetch failed, ranking against last observed prices")
	} else {
		for _, q := range quotes {
			current[q.Symbol] = q.LastPrice
		}
	}

	now := s.clock()
	ranked := momentum.Rank(s.det.AllShifts(), current, now, s.opts.MomentumWindow)
	upward, downward := momentum.TopMovers(ranked, s.opts.TopN)

	report := &Report{
		RunID:       s.opts.RunID,
		GeneratedAt: now.UTC(),
		MAPeriod:    s.opts.MAPeriod,
		TotalShifts: s.det.TotalShifts(),
		TopUpward:   upward,
		TopDownward: downward,
	}

	if err := s.saveReport(ctx, report); err != nil {
		s.log.Warn().Err(err).Msg("Report save failed")
	}
	return report, nil
}

func (s *Scanner) saveReport(ctx context.Context, r *Report) error {
	payload, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	if s.opts.ResultsJSON != "" {
		if err := os.WriteFile(s.opts.ResultsJSON, payload, 0644); err != nil {
			return fmt.Errorf("write results json: %w", err)
		}
	}
	if s.opts.ResultsCSV != "" {
		if err := writeReportCSV(s.opts.ResultsCSV, r); err != nil {
			return err
		}
	}

	if _, err := s.deps.Writer.WriteJSON("momentum-report", r); err != nil {
		return fmt.Errorf("write report artifact: %w", err)
	}
	if _, err := s.deps.Writer.WriteCSV("momentum-report", reportRows(r)); err != nil {
		return fmt.Errorf("write report csv artifact: %w", err)
	}

	if s.deps.Reports != nil {
		row := persistence.Report{
			RunID:       r.RunID,
			MAPeriod:    r.MAPeriod,
			TotalShifts: r.TotalShifts,
			Payload:     payload,
			GeneratedAt: r.GeneratedAt,
		}
		if err := s.deps.Reports.Insert(ctx, row); err != nil {
			return fmt.Errorf("persist report: %w", err)
		}
	}
	return nil
}

func writeReportCSV(path string, r *Report) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create results csv: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	for _, row := range reportRows(r) {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write results csv: %w", err)
		}
	}
	return nil
}

func reportRows(r *Report) [][]string {
	rows := [][]string{{
		"symbol", "direction", "shift_time", "price_at_cross",
		"current_price", "pct_change", "minutes_since_shift",
	}}
	for _, m := range append(append([]momentum.Ranked{}, r.TopUpward...), r.TopDownward...) {
		rows = append(rows, []string{
			m.Symbol,
			string(m.Direction),
			m.ShiftAt.Format(time.RFC3339),
			strconv.FormatFloat(m.PriceAtCross, 'f', 2, 64),
			strconv.FormatFloat(m.CurrentPrice, 'f', 2, 64),
			strconv.FormatFloat(m.PctChange, 'f', 2, 64),
			strconv.FormatFloat(m.SinceShift.Minutes(), 'f', 1, 64),
		})
	}
	return rows
}

// PrintReport renders the report to out as two ranked tables.
func PrintReport(out io.Writer, r *Report) {
	fmt.Fprintf(out, "\nIntraday Momentum Report  (run %s, generated %s)\n",
		r.RunID, r.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(out, "MA period: %d  Total shifts: %d\n", r.MAPeriod, r.TotalShifts)

	printSide(out, "TOP UPWARD MOMENTUM SHIFTS", r.TopUpward)
	printSide(out, "TOP DOWNWARD MOMENTUM SHIFTS", r.TopDownward)
}

func printSide(out io.Writer, title string, ranked []momentum.Ranked) {
	fmt.Fprintf(out, "\n%s\n", title)
	if len(ranked) == 0 {
		fmt.Fprintln(out, "  none detected")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Symbol\tShift Time\tAt Cross\tCurrent\tChange %\tMins Ago")
	fmt.Fprintln(w, "------\t----------\t--------\t-------\t--------\t--------")
	for _, m := range ranked {
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%.2f\t%+.2f%%\t%.1f\n",
			m.Symbol,
			m.ShiftAt.Format("15:04:05"),
			m.PriceAtCross,
			m.CurrentPrice,
			m.PctChange,
			m.SinceShift.Minutes(),
		)
	}
	w.Flush()
}

// LoadReport reads a previously saved results file.
func LoadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report %s: %w", path, err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("unmarshal report %s: %w", path, err)
	}
	return &r, nil
}
