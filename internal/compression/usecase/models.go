package usecase

import (
	"time"

	"github.com/shandysiswandi/compressdash/internal/compression/chart"
	"github.com/shandysiswandi/compressdash/internal/compression/entity"
)

// RecordView is a record with its presentation labels resolved.
type RecordView struct {
	Record          entity.CompressionRecord
	OriginalSize    string
	CompressedSize  string
	SpaceSaved      string
	Ratio           string
	SavingsPercent  string
	Efficiency      entity.EfficiencyClass
	CreatedRelative string
}

type RecordsResult struct {
	Query     string
	Records   []RecordView
	FetchedAt time.Time
}

type DashboardResult struct {
	TotalFiles            int
	AverageRatio          float64
	AverageRatioLabel     string
	AverageSavingsPercent float64
	AverageSavingsLabel   string
	SpaceSavedBytes       float64
	SpaceSavedLabel       string
	EstimatedHoursSaved   float64
	EstimatedTimeLabel    string
	Recent                []RecordView
	FetchedAt             time.Time
}

type ChartsResult struct {
	Series    chart.Series
	FetchedAt time.Time
}

type RefreshResult struct {
	Count     int
	FetchedAt time.Time
}

// JobResult is the single-file summary shown once a job completes. Grade uses
// the result view thresholds, not the dashboard efficiency classes.
type JobResult struct {
	RecordView
	Grade entity.ResultGrade
}

type JobView struct {
	State  entity.JobState
	Result *JobResult
}
