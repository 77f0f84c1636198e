// Package report renders enrichment runs as text tables, markdown, HTML
// and xlsx workbooks.
package report

import (
	"github.com/montanaflynn/stats"

	domainStats "goenrich/domain/stats"
)

// DefaultAlpha marks records significant when no threshold is configured
const DefaultAlpha = 0.05

// DefaultTitle heads reports with no configured title
const DefaultTitle = "Enrichment report"

// Options controls report rendering
type Options struct {
	Alpha float64 // Significance threshold for the * marker
	Title string
}

func (o Options) alpha() float64 {
	if o.Alpha <= 0 {
		return DefaultAlpha
	}
	return o.Alpha
}

func (o Options) title() string {
	if o.Title == "" {
		return DefaultTitle
	}
	return o.Title
}

// Summary aggregates the p-value distribution of one run
type Summary struct {
	Terms       int     `json:"terms"`
	Significant int     `json:"significant"`
	Enriched    int     `json:"enriched"`
	Purified    int     `json:"purified"`
	MinP        float64 `json:"min_p"`
	MaxP        float64 `json:"max_p"`
	MeanP       float64 `json:"mean_p"`
	MedianP     float64 `json:"median_p"`
	Q25P        float64 `json:"q25_p"`
	Q75P        float64 `json:"q75_p"`
}

// Summarize computes distribution statistics over the record p-values.
// Records below alpha count as significant.
func Summarize(records []*domainStats.EnrichmentRecord, alpha float64) (Summary, error) {
	summary := Summary{Terms: len(records)}
	if len(records) == 0 {
		return summary, nil
	}

	data := make([]float64, len(records))
	for i, rec := range records {
		data[i] = rec.PValue
		if rec.PValue < alpha {
			summary.Significant++
		}
		if rec.Enrichment == domainStats.Enriched {
			summary.Enriched++
		} else {
			summary.Purified++
		}
	}

	mean, err := stats.Mean(data)
	if err != nil {
		return summary, err
	}
	median, err := stats.Median(data)
	if err != nil {
		return summary, err
	}
	minP, err := stats.Min(data)
	if err != nil {
		return summary, err
	}
	maxP, err := stats.Max(data)
	if err != nil {
		return summary, err
	}

	summary.MeanP = mean
	summary.MedianP = median
	summary.MinP = minP
	summary.MaxP = maxP

	// A lone p-value has no interior quartiles to place.
	summary.Q25P = minP
	summary.Q75P = maxP
	if len(data) > 1 {
		quartiles, err := stats.Quartile(data)
		if err != nil {
			return summary, err
		}
		summary.Q25P = quartiles.Q1
		summary.Q75P = quartiles.Q3
	}
	return summary, nil
}
