package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/compressdash/internal/compression/analytics"
	"github.com/shandysiswandi/compressdash/internal/compression/chart"
	"github.com/shandysiswandi/compressdash/internal/compression/entity"
	"github.com/shandysiswandi/compressdash/internal/compression/format"
	"github.com/shandysiswandi/compressdash/internal/pkg/pkgerror"
)

// DefaultRecentLimit matches the size of the dashboard's recent activity list.
const DefaultRecentLimit = 3

type Store interface {
	Refresh(ctx context.Context) error
	Snapshot() []entity.CompressionRecord
	Filter(query string) []entity.CompressionRecord
	MostRecent(n int) []entity.CompressionRecord
	FetchedAt() time.Time
}

type Jobs interface {
	State() entity.JobState
	Start(ctx context.Context, file entity.File) (func(ctx context.Context) entity.JobState, error)
	Reset(ctx context.Context) entity.JobState
}

type Downloads interface {
	Download(ctx context.Context, id string) (entity.Blob, error)
}

type Runner interface {
	Go(ctx context.Context, f func(ctx context.Context) error)
}

type Clock interface {
	Now() time.Time
}

type Dependency struct {
	Store       Store
	Jobs        Jobs
	Downloads   Downloads
	Runner      Runner
	Clock       Clock
	RecentLimit int
	RootCtx     context.Context
}

type Usecase struct {
	store       Store
	jobs        Jobs
	downloads   Downloads
	runner      Runner
	clock       Clock
	recentLimit int
	rootCtx     context.Context
}

func New(dep Dependency) *Usecase {
	root := dep.RootCtx
	if root == nil {
		root = context.Background()
	}

	clock := dep.Clock
	if clock == nil {
		clock = realClock{}
	}

	limit := dep.RecentLimit
	if limit < 1 {
		limit = DefaultRecentLimit
	}

	return &Usecase{
		store:       dep.Store,
		jobs:        dep.Jobs,
		downloads:   dep.Downloads,
		runner:      dep.Runner,
		clock:       clock,
		recentLimit: limit,
		rootCtx:     root,
	}
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

func (u *Usecase) Records(ctx context.Context, query string) (RecordsResult, error) {
	records := u.store.Filter(query)

	return RecordsResult{
		Query:     query,
		Records:   u.views(records),
		FetchedAt: u.store.FetchedAt(),
	}, nil
}

func (u *Usecase) Dashboard(ctx context.Context) (DashboardResult, error) {
	sum := analytics.Summarize(u.store.Snapshot())

	return DashboardResult{
		TotalFiles:            sum.TotalCount,
		AverageRatio:          sum.AverageRatio,
		AverageRatioLabel:     format.FormatRatioPercent(sum.AverageRatio),
		AverageSavingsPercent: sum.AverageSavingsPercent,
		AverageSavingsLabel:   format.FormatPercent(sum.AverageSavingsPercent),
		SpaceSavedBytes:       sum.TotalSpaceSavedBytes,
		SpaceSavedLabel:       format.FormatBytes(sum.TotalSpaceSavedBytes),
		EstimatedHoursSaved:   sum.EstimatedHoursSaved,
		EstimatedTimeLabel:    format.FormatHours(sum.EstimatedHoursSaved),
		Recent:                u.views(u.store.MostRecent(u.recentLimit)),
		FetchedAt:             u.store.FetchedAt(),
	}, nil
}

func (u *Usecase) Charts(ctx context.Context) (ChartsResult, error) {
	return ChartsResult{
		Series:    chart.Build(u.store.Snapshot()),
		FetchedAt: u.store.FetchedAt(),
	}, nil
}

// Refresh reloads the listing. On failure the previous records keep being
// served and the upstream error is returned.
func (u *Usecase) Refresh(ctx context.Context) (RefreshResult, error) {
	if err := u.store.Refresh(ctx); err != nil {
		slog.WarnContext(ctx, "refresh failed, serving previous records", "error", err)
		return RefreshResult{}, normalizeErr(err)
	}

	return RefreshResult{
		Count:     len(u.store.Snapshot()),
		FetchedAt: u.store.FetchedAt(),
	}, nil
}

// StartJob selects file and uploads it in the background. The returned view is
// the Uploading state; callers poll CurrentJob for the outcome.
func (u *Usecase) StartJob(ctx context.Context, file entity.File) (JobView, error) {
	if u.jobs == nil || u.runner == nil {
		return JobView{}, pkgerror.NewServer(errors.New("missing dependency"))
	}

	run, err := u.jobs.Start(ctx, file)
	if err != nil {
		return JobView{}, normalizeErr(err)
	}

	u.runner.Go(u.rootCtx, func(ctx context.Context) error {
		st := run(ctx)
		if st.Status == entity.JobStatusFailed {
			return errors.New(st.Err)
		}
		return nil
	})

	return u.jobView(u.jobs.State()), nil
}

func (u *Usecase) CurrentJob(ctx context.Context) (JobView, error) {
	if u.jobs == nil {
		return JobView{}, pkgerror.NewServer(errors.New("missing dependency"))
	}
	return u.jobView(u.jobs.State()), nil
}

func (u *Usecase) ResetJob(ctx context.Context) (JobView, error) {
	if u.jobs == nil {
		return JobView{}, pkgerror.NewServer(errors.New("missing dependency"))
	}
	return u.jobView(u.jobs.Reset(ctx)), nil
}

func (u *Usecase) Download(ctx context.Context, id string) (entity.Blob, error) {
	if u.downloads == nil {
		return entity.Blob{}, pkgerror.NewServer(errors.New("missing dependency"))
	}

	blob, err := u.downloads.Download(ctx, id)
	if err != nil {
		return entity.Blob{}, mapStoreErr(err)
	}
	return blob, nil
}

func (u *Usecase) views(records []entity.CompressionRecord) []RecordView {
	now := u.clock.Now()
	out := make([]RecordView, 0, len(records))
	for _, rec := range records {
		out = append(out, toView(rec, now))
	}
	return out
}

func (u *Usecase) jobView(st entity.JobState) JobView {
	view := JobView{State: st}
	if st.Status == entity.JobStatusCompleted && st.Result != nil {
		view.Result = &JobResult{
			RecordView: toView(*st.Result, u.clock.Now()),
			Grade:      analytics.Grade(st.Result.CompressionRatio),
		}
	}
	return view
}

func toView(rec entity.CompressionRecord, now time.Time) RecordView {
	view := RecordView{
		Record:         rec,
		OriginalSize:   format.FormatSize(rec.OriginalSizeBits),
		CompressedSize: format.FormatSize(rec.CompressedSizeBits),
		SpaceSaved:     format.FormatSize(rec.SavedBits()),
		Ratio:          format.FormatRatioPercent(rec.CompressionRatio),
		SavingsPercent: format.FormatPercent((1 - rec.CompressionRatio) * 100),
		Efficiency:     analytics.Classify(rec.CompressionRatio),
	}
	if !rec.CreatedAt.IsZero() {
		view.CreatedRelative = format.RelativeTime(rec.CreatedAt, now)
	}
	return view
}

func mapStoreErr(err error) error {
	if errors.Is(err, pkgerror.ErrNotFound) {
		return pkgerror.NewBusiness("record not found", pkgerror.CodeNotFound)
	}
	return normalizeErr(err)
}

func normalizeErr(err error) error {
	var perr *pkgerror.Error
	if errors.As(err, &perr) {
		return perr
	}
	return pkgerror.NewServer(err)
}
