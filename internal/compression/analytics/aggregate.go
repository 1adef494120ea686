// Package analytics derives portfolio statistics from a set of compression records.
// Everything here is a pure function of its input.
package analytics

import "github.com/shandysiswandi/compressdash/internal/compression/entity"

// hoursPerSavedMB is the dashboard's rough transfer-time estimate per saved megabyte.
const hoursPerSavedMB = 0.1

// Summary holds the portfolio-level statistics of a record set.
type Summary struct {
	TotalCount            int
	AverageRatio          float64
	AverageSavingsPercent float64
	TotalSpaceSavedBytes  float64
	TotalOriginalBytes    float64
	TotalCompressedBytes  float64
	EstimatedHoursSaved   float64
}

// Summarize computes the statistics over records. An empty set yields the zero Summary.
func Summarize(records []entity.CompressionRecord) Summary {
	if len(records) == 0 {
		return Summary{}
	}

	var origBits, compBits int64
	for _, rec := range records {
		origBits += rec.OriginalSizeBits
		compBits += rec.CompressedSizeBits
	}

	avg := AverageRatio(records)
	saved := TotalSpaceSavedBytes(records)

	return Summary{
		TotalCount:            len(records),
		AverageRatio:          avg,
		AverageSavingsPercent: (1 - avg) * 100,
		TotalSpaceSavedBytes:  saved,
		TotalOriginalBytes:    float64(origBits) / 8,
		TotalCompressedBytes:  float64(compBits) / 8,
		EstimatedHoursSaved:   saved / 1e6 * hoursPerSavedMB,
	}
}

// AverageRatio is the unweighted mean of the supplied ratios, 0 for an empty set.
func AverageRatio(records []entity.CompressionRecord) float64 {
	if len(records) == 0 {
		return 0
	}

	var sum float64
	for _, rec := range records {
		sum += rec.CompressionRatio
	}
	return sum / float64(len(records))
}

// TotalSpaceSavedBytes sums the per-record savings; records that grew contribute nothing.
func TotalSpaceSavedBytes(records []entity.CompressionRecord) float64 {
	var bits int64
	for _, rec := range records {
		bits += rec.SavedBits()
	}
	return float64(bits) / 8
}
