package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/shandysiswandi/compressdash/internal/compression/entity"
)

func record(id string, orig, comp int64, ratio float64) entity.CompressionRecord {
	return entity.CompressionRecord{
		ID:                 id,
		Filename:           id + ".csv",
		OriginalSizeBits:   orig,
		CompressedSizeBits: comp,
		CompressionRatio:   ratio,
		CodecParameter:     4,
		CreatedAt:          time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestSummarizeEmpty(t *testing.T) {
	got := Summarize(nil)

	assert.Equal(t, Summary{}, got)
	assert.Zero(t, AverageRatio(nil))
	assert.Zero(t, TotalSpaceSavedBytes([]entity.CompressionRecord{}))
}

func TestSummarizeThreeRecords(t *testing.T) {
	records := []entity.CompressionRecord{
		record("a", 8000, 4000, 0.5),
		record("b", 16000, 4000, 0.25),
		record("c", 800, 720, 0.9),
	}

	got := Summarize(records)

	assert.Equal(t, 3, got.TotalCount)
	assert.InDelta(t, (0.5+0.25+0.9)/3, got.AverageRatio, 1e-9)
	assert.InDelta(t, 0.55, got.AverageRatio, 1e-9)
	assert.InDelta(t, 45, got.AverageSavingsPercent, 1e-9)
	assert.InDelta(t, 2010, got.TotalSpaceSavedBytes, 1e-9)
	assert.InDelta(t, 3100, got.TotalOriginalBytes, 1e-9)
	assert.InDelta(t, 1090, got.TotalCompressedBytes, 1e-9)
	assert.InDelta(t, 2010/1e6*0.1, got.EstimatedHoursSaved, 1e-12)
}

func TestTotalSpaceSavedIgnoresGrowth(t *testing.T) {
	records := []entity.CompressionRecord{
		record("grew", 800, 1600, 2.0),
		record("shrunk", 1600, 800, 0.5),
	}

	assert.InDelta(t, 100, TotalSpaceSavedBytes(records), 1e-9)

	got := Summarize(records)
	assert.InDelta(t, 1.25, got.AverageRatio, 1e-9)
	assert.InDelta(t, -25, got.AverageSavingsPercent, 1e-9)
}

func TestSummarizeTrustsSuppliedRatio(t *testing.T) {
	// The supplied ratio disagrees with the sizes on purpose.
	records := []entity.CompressionRecord{record("a", 8000, 8000, 0.1)}

	got := Summarize(records)
	assert.InDelta(t, 0.1, got.AverageRatio, 1e-9)
	assert.Zero(t, got.TotalSpaceSavedBytes)
}
