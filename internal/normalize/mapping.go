// Package normalize turns provider payloads into canonical metric and workout
// records. Every provider field is declared once in a mapping table; the
// tables are walked generically and absent fields are skipped.
package normalize

import (
	"strings"
	"unicode"

	"github.com/josejalvarezm/wellness-webhook-receiver/internal/domain"
)

// FieldMapping declares how one provider field becomes one canonical metric.
type FieldMapping[T any] struct {
	MetricName string
	Unit       string
	Category   domain.Category
	// Value returns nil when the field, or any object on its path, is absent.
	Value func(T) *float64
	// Transform converts the provider unit to Unit. Nil means identity.
	Transform func(float64) float64
}

// origin is what every record extracted from one item shares.
type origin struct {
	source domain.Source
	date   string
	// idParts prefix the external id; the metric slug is appended.
	idParts []string
}

// apply walks mappings over item and emits one record per present field. An
// undated item yields nothing.
func apply[T any](item T, mappings []FieldMapping[T], o origin) []domain.MetricRecord {
	if o.date == "" {
		return nil
	}
	var records []domain.MetricRecord
	for _, m := range mappings {
		v := m.Value(item)
		if v == nil {
			continue
		}
		value := *v
		if m.Transform != nil {
			value = m.Transform(value)
		}
		records = append(records, domain.MetricRecord{
			MetricName:      m.MetricName,
			Value:           value,
			Unit:            m.Unit,
			Category:        m.Category,
			Source:          o.source,
			MeasurementDate: o.date,
			ExternalID:      ExternalID(append(append([]string{}, o.idParts...), Slug(m.MetricName))...),
		})
	}
	return records
}

// ExternalID joins its parts into a dedupe key.
func ExternalID(parts ...string) string {
	return strings.Join(parts, ":")
}

// Slug lower-cases a metric name and collapses everything that is not a
// letter or digit into single underscores: "Body Fat %" becomes "body_fat".
func Slug(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		pendingSep = true
	}
	return b.String()
}

// Unit conversions.

func millisToHours(v float64) float64 {
	return v / 3600000
}

func secondsToHours(v float64) float64 {
	return v / 3600
}

func gramsToKg(v float64) float64 {
	return v / 1000
}

func metersToKm(v float64) float64 {
	return v / 1000
}

func kilojoulesToKcal(v float64) float64 {
	return v / 4.184
}

// ratioToPercent accepts either a 0-1 ratio or an already scaled percentage.
func ratioToPercent(v float64) float64 {
	if v <= 1 {
		return v * 100
	}
	return v
}

// sum adds the present values and returns nil if none are present.
func sum(values ...*float64) *float64 {
	var total float64
	found := false
	for _, v := range values {
		if v != nil {
			total += *v
			found = true
		}
	}
	if !found {
		return nil
	}
	return &total
}
