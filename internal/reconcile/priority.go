// Package reconcile picks a single current value per metric out of readings
// from several sources, and merges per-source readings into a timeline.
//
// Ingestion stamps records with ResolvePriority/ResolveConfidence and the read
// path selects with Select, so both always agree on the source ranking.
package reconcile

import (
	"sort"

	"github.com/josejalvarezm/wellness-webhook-receiver/internal/domain"
)

const (
	// UnknownPriority sorts unrecognized sources after every known one.
	UnknownPriority = 99
	// DefaultConfidence is attached to readings from unrecognized sources.
	DefaultConfidence = 50
)

var priorities = map[domain.Source]int{
	domain.SourceInBody:   1,
	domain.SourceWithings: 2,
	domain.SourceGarmin:   3,
	domain.SourceOura:     4,
	domain.SourceWhoop:    5,
	domain.SourceManual:   6,
}

var confidences = map[domain.Source]int{
	domain.SourceInBody:   95,
	domain.SourceWithings: 85,
	domain.SourceGarmin:   75,
	domain.SourceOura:     75,
	domain.SourceWhoop:    70,
	domain.SourceManual:   50,
}

// ResolvePriority returns the trust rank of a source; lower wins.
func ResolvePriority(source domain.Source) int {
	if p, ok := priorities[domain.NormalizeSource(string(source))]; ok {
		return p
	}
	return UnknownPriority
}

// ResolveConfidence returns the provenance-based confidence (0-100) of a source.
func ResolveConfidence(source domain.Source) int {
	if c, ok := confidences[domain.NormalizeSource(string(source))]; ok {
		return c
	}
	return DefaultConfidence
}

// Stamp sets a record's priority and confidence from its source.
func Stamp(record *domain.MetricRecord) {
	record.Priority = ResolvePriority(record.Source)
	record.ConfidenceScore = ResolveConfidence(record.Source)
}

// Candidate is one source's reading of a logical metric.
type Candidate struct {
	Value  float64
	Unit   string
	Source domain.Source
	Date   string
}

// Current is the value chosen for a metric, with its provenance.
type Current struct {
	MetricName string        `json:"metric_name"`
	Value      float64       `json:"value"`
	Unit       string        `json:"unit"`
	Source     domain.Source `json:"source"`
	Date       string        `json:"measurement_date"`
	Priority   int           `json:"priority"`
	Confidence int           `json:"confidence_score"`
}

// Select orders candidates by priority ascending, then date descending, and
// returns the first. Recency only breaks ties within one priority level: an
// older reading from a more trusted source beats a newer, less trusted one.
func Select(candidates []Candidate) (Current, bool) {
	if len(candidates) == 0 {
		return Current{}, false
	}

	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		pi, pj := ResolvePriority(sorted[i].Source), ResolvePriority(sorted[j].Source)
		if pi != pj {
			return pi < pj
		}
		return sorted[i].Date > sorted[j].Date
	})

	best := sorted[0]
	return Current{
		Value:      best.Value,
		Unit:       best.Unit,
		Source:     best.Source,
		Date:       best.Date,
		Priority:   ResolvePriority(best.Source),
		Confidence: ResolveConfidence(best.Source),
	}, true
}

// CurrentView groups stored records by metric name and selects one current
// value per metric.
func CurrentView(records []domain.MetricRecord) map[string]Current {
	groups := make(map[string][]Candidate)
	for _, r := range records {
		groups[r.MetricName] = append(groups[r.MetricName], Candidate{
			Value:  r.Value,
			Unit:   r.Unit,
			Source: r.Source,
			Date:   r.MeasurementDate,
		})
	}

	view := make(map[string]Current, len(groups))
	for name, candidates := range groups {
		current, ok := Select(candidates)
		if !ok {
			continue
		}
		current.MetricName = name
		view[name] = current
	}
	return view
}
