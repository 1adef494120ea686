package inbound

import (
	"context"

	"github.com/shandysiswandi/compressdash/internal/compression/entity"
	"github.com/shandysiswandi/compressdash/internal/compression/usecase"
	"github.com/shandysiswandi/compressdash/internal/pkg/pkgrouter"
)

// multipartOverhead is the room left for part headers and boundaries on top of
// the file itself.
const multipartOverhead = 1 << 20

type uc interface {
	Records(ctx context.Context, query string) (usecase.RecordsResult, error)
	Dashboard(ctx context.Context) (usecase.DashboardResult, error)
	Charts(ctx context.Context) (usecase.ChartsResult, error)
	Refresh(ctx context.Context) (usecase.RefreshResult, error)
	StartJob(ctx context.Context, file entity.File) (usecase.JobView, error)
	CurrentJob(ctx context.Context) (usecase.JobView, error)
	ResetJob(ctx context.Context) (usecase.JobView, error)
	Download(ctx context.Context, id string) (entity.Blob, error)
}

// RegisterHTTPEndpoint mounts the dashboard API. maxUploadBytes bounds the
// multipart file accepted by POST /jobs; 0 leaves it unbounded.
func RegisterHTTPEndpoint(r *pkgrouter.Router, uc uc, maxUploadBytes int64) {
	end := &HTTPEndpoint{uc: uc, maxUploadBytes: maxUploadBytes}

	r.GET("/records", end.Records) // ?q=
	r.GET("/records/:id/download", end.Download)
	r.POST("/refresh", end.Refresh)

	r.GET("/dashboard", end.Dashboard)
	r.GET("/charts", end.Charts)

	jobBody := pkgrouter.LimitBody(0)
	if maxUploadBytes > 0 {
		jobBody = pkgrouter.LimitBody(maxUploadBytes + multipartOverhead)
	}
	r.POST("/jobs", end.StartJob, jobBody)
	r.GET("/jobs/current", end.CurrentJob)
	r.DELETE("/jobs/current", end.ResetJob)
}
