package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/josejalvarezm/wellness-webhook-receiver/internal/app"
	"github.com/josejalvarezm/wellness-webhook-receiver/internal/reconcile"
	"github.com/josejalvarezm/wellness-webhook-receiver/internal/services"
)

var (
	currentDays  int
	historyDays  int
	queryPoints  int
	queryMetrics []string
	queryJSON    bool
)

var currentCmd = &cobra.Command{
	Use:   "current <user_id>",
	Short: "Show the reconciled current value of every metric",
	Long: `Show one value per metric, picked by source priority:

  INBODY > WITHINGS > GARMIN > OURA > WHOOP > MANUAL

A reading from a more trusted source wins even when a less trusted source
reported later. Recency only breaks ties between readings of equal priority.

EXAMPLES:

  wellness current user-42
  wellness current user-42 --days 30
  wellness current user-42 --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		window, err := services.DaysWindow(currentDays)
		if err != nil {
			return err
		}
		aggregation, closeStore, err := openAggregation(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		view, err := aggregation.Current(cmd.Context(), args[0], window)
		if err != nil {
			return err
		}
		if queryJSON {
			return writeJSON(cmd.OutOrStdout(), view)
		}
		writeCurrent(cmd.OutOrStdout(), view)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <user_id>",
	Short: "Show merged per-source history and sparklines",
	Long: `Merge readings into one row per day and source, newest first, and print a
sparkline for each requested metric.

EXAMPLES:

  wellness history user-42 --metric Weight
  wellness history user-42 -m Weight -m "Body Fat" --days 180 --points 60`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(queryMetrics) == 0 {
			return fmt.Errorf("at least one --metric is required")
		}
		window, err := services.DaysWindow(historyDays)
		if err != nil {
			return err
		}
		aggregation, closeStore, err := openAggregation(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		h, err := aggregation.History(cmd.Context(), args[0], queryMetrics, window, queryPoints)
		if err != nil {
			return err
		}
		if queryJSON {
			return writeJSON(cmd.OutOrStdout(), h)
		}
		writeHistory(cmd.OutOrStdout(), h, queryMetrics)
		return nil
	},
}

func openAggregation(cmd *cobra.Command) (*services.AggregationService, func(), error) {
	if err := cfg.ValidateStore(); err != nil {
		return nil, nil, err
	}
	store, err := app.OpenStore(cmd.Context(), cfg)
	if err != nil {
		return nil, nil, err
	}
	return services.NewAggregationService(store), func() { _ = store.Close() }, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCurrent(w io.Writer, view map[string]reconcile.Current) {
	if len(view) == 0 {
		fmt.Fprintln(w, "No metrics found.")
		return
	}

	names := make([]string, 0, len(view))
	for name := range view {
		names = append(names, name)
	}
	sort.Strings(names)

	faint := color.New(color.Faint)
	for _, name := range names {
		c := view[name]
		fmt.Fprintf(w, "%s %s %s %s\n",
			padRight(name, 24),
			padRight(formatValue(c.Value, c.Unit), 14),
			padRight(string(c.Source), 9),
			faint.Sprint(c.Date))
	}
}

func writeHistory(w io.Writer, h *services.History, metrics []string) {
	if len(h.Entries) == 0 {
		fmt.Fprintln(w, "No metrics found.")
		return
	}

	faint := color.New(color.Faint)
	for _, e := range h.Entries {
		parts := make([]string, 0, len(metrics))
		for _, m := range metrics {
			if v, ok := e.Values[m]; ok {
				parts = append(parts, m+"="+formatValue(v, e.Units[m]))
			}
		}
		fmt.Fprintf(w, "%s %s %s\n", faint.Sprint(e.Date), padRight(string(e.Source), 9), strings.Join(parts, "  "))
	}

	fmt.Fprintln(w)
	for _, m := range metrics {
		fmt.Fprintf(w, "%s %s\n", padRight(m, 24), sparkline(h.Sparklines[m]))
	}
}

func formatValue(v float64, unit string) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	if unit == "" {
		return s
	}
	return s + " " + unit
}

func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// sparkline renders points oldest to newest scaled to their own range.
func sparkline(points []reconcile.Point) string {
	if len(points) == 0 {
		return ""
	}
	lo, hi := points[0].Value, points[0].Value
	for _, p := range points {
		if p.Value < lo {
			lo = p.Value
		}
		if p.Value > hi {
			hi = p.Value
		}
	}

	out := make([]rune, len(points))
	for i, p := range points {
		idx := 0
		if hi > lo {
			idx = int((p.Value - lo) / (hi - lo) * float64(len(sparkBlocks)-1))
		}
		out[i] = sparkBlocks[idx]
	}
	return string(out)
}

func init() {
	currentCmd.Flags().IntVarP(&currentDays, "days", "d", 0, "only consider readings from the last N days (0 = all)")
	currentCmd.Flags().BoolVar(&queryJSON, "json", false, "print JSON")

	historyCmd.Flags().StringArrayVarP(&queryMetrics, "metric", "m", nil, "metric name (repeatable)")
	historyCmd.Flags().IntVarP(&historyDays, "days", "d", 90, "window in days")
	historyCmd.Flags().IntVarP(&queryPoints, "points", "p", 30, "sparkline length")
	historyCmd.Flags().BoolVar(&queryJSON, "json", false, "print JSON")

	rootCmd.AddCommand(currentCmd)
	rootCmd.AddCommand(historyCmd)
}
