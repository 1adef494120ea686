package chart

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/compressdash/internal/compression/entity"
)

var base = time.Date(2024, time.March, 5, 9, 0, 0, 0, time.UTC)

func fixtures() []entity.CompressionRecord {
	return []entity.CompressionRecord{
		{ID: "3", Filename: "sensor_readings_2024.csv", OriginalSizeBits: 16000, CompressedSizeBits: 4000, CompressionRatio: 0.25, CreatedAt: base.Add(48 * time.Hour)},
		{ID: "1", Filename: "db.csv", OriginalSizeBits: 8000, CompressedSizeBits: 4000, CompressionRatio: 0.5, CreatedAt: base},
		{ID: "2", Filename: "metrics.csv", OriginalSizeBits: 800, CompressedSizeBits: 720, CompressionRatio: 0.9, CreatedAt: base.Add(24 * time.Hour)},
		{ID: "4", Filename: "prices.csv", OriginalSizeBits: 800, CompressedSizeBits: 160, CompressionRatio: 0.2, CreatedAt: base},
	}
}

func TestSizeComparison(t *testing.T) {
	got := SizeComparison(fixtures())

	require.Len(t, got, 4)
	assert.Equal(t, SizePoint{Label: "db.csv", OriginalBytes: 1000, CompressedBytes: 500}, got[0])
	assert.Equal(t, "prices.c...", got[1].Label)
	assert.Equal(t, "metrics....", got[2].Label)
	assert.Equal(t, "sensor_r...", got[3].Label)
	assert.InDelta(t, 2000, got[3].OriginalBytes, 1e-9)
}

func TestTrendOrderAndValues(t *testing.T) {
	records := fixtures()
	got := Trend(records)

	require.Len(t, got, len(records))
	assert.Equal(t, []string{"Mar 5", "Mar 5", "Mar 6", "Mar 7"}, []string{got[0].DateLabel, got[1].DateLabel, got[2].DateLabel, got[3].DateLabel})
	assert.InDelta(t, 50, got[0].RatioPercent, 1e-9)
	assert.InDelta(t, 50, got[0].SavingsPercent, 1e-9)
	// equal timestamps keep input order: db.csv before prices.csv
	assert.InDelta(t, 20, got[1].RatioPercent, 1e-9)
	assert.InDelta(t, 75, got[3].SavingsPercent, 1e-9)
}

func TestEfficiencyDistribution(t *testing.T) {
	got := EfficiencyDistribution(fixtures())

	assert.Equal(t, []DistributionPoint{
		{Class: entity.EfficiencyExcellent, Count: 2},
		{Class: entity.EfficiencyFair, Count: 1},
		{Class: entity.EfficiencyPoor, Count: 1},
	}, got)
}

func TestBuildersTolerateEmptyInput(t *testing.T) {
	for _, records := range [][]entity.CompressionRecord{nil, {}} {
		got := Build(records)
		assert.Empty(t, got.SizeComparison)
		assert.Empty(t, got.Trend)
		assert.Empty(t, got.Efficiency)
		assert.NotNil(t, got.Trend)
	}
}

func TestBuildIsIdempotentAndDoesNotMutate(t *testing.T) {
	records := fixtures()
	snapshot := slices.Clone(records)

	first := Build(records)
	second := Build(records)

	assert.Equal(t, first, second)
	assert.Equal(t, snapshot, records)
}

func TestTruncateLabel(t *testing.T) {
	assert.Equal(t, "", TruncateLabel(""))
	assert.Equal(t, "12345678", TruncateLabel("12345678"))
	assert.Equal(t, "12345678...", TruncateLabel("123456789"))
	assert.Equal(t, "überdate...", TruncateLabel("überdaten.csv"))
}
