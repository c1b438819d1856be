package reconcile

import (
	"sort"

	"github.com/josejalvarezm/wellness-webhook-receiver/internal/domain"
)

// TimelineEntry accumulates every metric one source reported on one day.
type TimelineEntry struct {
	Date   string             `json:"date"`
	Source domain.Source      `json:"source"`
	Values map[string]float64 `json:"values"`
	Units  map[string]string  `json:"units"`
}

// Point is one sparkline sample.
type Point struct {
	Date   string        `json:"date"`
	Source domain.Source `json:"source"`
	Value  float64       `json:"value"`
}

// Merge folds records into one entry per (date, source), newest first.
// The first record seen for a key creates the entry; later records for the
// same key only fill in metrics the entry does not have yet.
func Merge(records []domain.MetricRecord) []TimelineEntry {
	index := make(map[string]int)
	var entries []TimelineEntry

	for _, r := range records {
		key := r.MeasurementDate + "-" + string(r.Source)
		i, ok := index[key]
		if !ok {
			entries = append(entries, TimelineEntry{
				Date:   r.MeasurementDate,
				Source: r.Source,
				Values: make(map[string]float64),
				Units:  make(map[string]string),
			})
			i = len(entries) - 1
			index[key] = i
		}
		if _, seen := entries[i].Values[r.MetricName]; seen {
			continue
		}
		entries[i].Values[r.MetricName] = r.Value
		entries[i].Units[r.MetricName] = r.Unit
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Date != entries[j].Date {
			return entries[i].Date > entries[j].Date
		}
		pi, pj := ResolvePriority(entries[i].Source), ResolvePriority(entries[j].Source)
		if pi != pj {
			return pi < pj
		}
		return entries[i].Source < entries[j].Source
	})
	return entries
}

// Sparkline returns the most recent n values of metric from merged entries,
// ordered oldest to newest. n <= 0 means no cap.
func Sparkline(entries []TimelineEntry, metric string, n int) []Point {
	var points []Point
	for _, e := range entries {
		v, ok := e.Values[metric]
		if !ok {
			continue
		}
		points = append(points, Point{Date: e.Date, Source: e.Source, Value: v})
		if n > 0 && len(points) == n {
			break
		}
	}

	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}
	return points
}
