// Package chart maps compression records onto chart-ready series. Rendering is
// left to the consumer.
package chart

import (
	"slices"

	"github.com/shandysiswandi/compressdash/internal/compression/analytics"
	"github.com/shandysiswandi/compressdash/internal/compression/entity"
)

const (
	labelMaxRunes = 8
	dateLayout    = "Jan 2"
)

type SizePoint struct {
	Label           string  `json:"label"`
	OriginalBytes   float64 `json:"original_bytes"`
	CompressedBytes float64 `json:"compressed_bytes"`
}

type TrendPoint struct {
	DateLabel      string  `json:"date_label"`
	RatioPercent   float64 `json:"ratio_percent"`
	SavingsPercent float64 `json:"savings_percent"`
}

type DistributionPoint struct {
	Class entity.EfficiencyClass `json:"class"`
	Count int                    `json:"count"`
}

// Series bundles the three chart views of one snapshot.
type Series struct {
	SizeComparison []SizePoint         `json:"size_comparison"`
	Trend          []TrendPoint        `json:"trend"`
	Efficiency     []DistributionPoint `json:"efficiency"`
}

func Build(records []entity.CompressionRecord) Series {
	return Series{
		SizeComparison: SizeComparison(records),
		Trend:          Trend(records),
		Efficiency:     EfficiencyDistribution(records),
	}
}

// SizeComparison emits one point per record, oldest first.
func SizeComparison(records []entity.CompressionRecord) []SizePoint {
	sorted := chronological(records)
	points := make([]SizePoint, 0, len(sorted))
	for _, rec := range sorted {
		points = append(points, SizePoint{
			Label:           TruncateLabel(rec.Filename),
			OriginalBytes:   float64(rec.OriginalSizeBits) / 8,
			CompressedBytes: float64(rec.CompressedSizeBits) / 8,
		})
	}
	return points
}

// Trend emits ratio and savings percentages per record, oldest first.
func Trend(records []entity.CompressionRecord) []TrendPoint {
	sorted := chronological(records)
	points := make([]TrendPoint, 0, len(sorted))
	for _, rec := range sorted {
		points = append(points, TrendPoint{
			DateLabel:      rec.CreatedAt.Format(dateLayout),
			RatioPercent:   rec.CompressionRatio * 100,
			SavingsPercent: (1 - rec.CompressionRatio) * 100,
		})
	}
	return points
}

// EfficiencyDistribution counts records per class. Classes come out best to
// worst and absent classes are omitted.
func EfficiencyDistribution(records []entity.CompressionRecord) []DistributionPoint {
	counts := make(map[entity.EfficiencyClass]int, len(entity.EfficiencyClasses))
	for _, rec := range records {
		counts[analytics.Classify(rec.CompressionRatio)]++
	}

	points := make([]DistributionPoint, 0, len(counts))
	for _, class := range entity.EfficiencyClasses {
		if n := counts[class]; n > 0 {
			points = append(points, DistributionPoint{Class: class, Count: n})
		}
	}
	return points
}

// TruncateLabel clips names longer than 8 characters and marks the cut with "...".
func TruncateLabel(name string) string {
	runes := []rune(name)
	if len(runes) <= labelMaxRunes {
		return name
	}
	return string(runes[:labelMaxRunes]) + "..."
}

// chronological returns a copy ordered by CreatedAt ascending; equal timestamps keep input order.
func chronological(records []entity.CompressionRecord) []entity.CompressionRecord {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b entity.CompressionRecord) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return sorted
}
