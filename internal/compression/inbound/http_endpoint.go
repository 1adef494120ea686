package inbound

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/shandysiswandi/compressdash/internal/compression/entity"
	"github.com/shandysiswandi/compressdash/internal/compression/usecase"
	"github.com/shandysiswandi/compressdash/internal/pkg/pkgerror"
	"github.com/shandysiswandi/compressdash/internal/pkg/pkgrouter"
)

type HTTPEndpoint struct {
	uc             uc
	maxUploadBytes int64
}

func (h *HTTPEndpoint) Records(ctx context.Context, r *http.Request) (any, error) {
	query := r.URL.Query().Get("q")

	result, err := h.uc.Records(ctx, query)
	if err != nil {
		return nil, err
	}

	return RecordsResponse{
		Records:   NewRecords(result.Records),
		query:     result.Query,
		fetchedAt: result.FetchedAt,
	}, nil
}

func (h *HTTPEndpoint) Dashboard(ctx context.Context, r *http.Request) (any, error) {
	result, err := h.uc.Dashboard(ctx)
	if err != nil {
		return nil, err
	}

	return NewDashboard(result), nil
}

func (h *HTTPEndpoint) Charts(ctx context.Context, r *http.Request) (any, error) {
	result, err := h.uc.Charts(ctx)
	if err != nil {
		return nil, err
	}

	return ChartsResponse{
		Series:    result.Series,
		fetchedAt: result.FetchedAt,
	}, nil
}

func (h *HTTPEndpoint) Refresh(ctx context.Context, r *http.Request) (any, error) {
	result, err := h.uc.Refresh(ctx)
	if err != nil {
		return nil, err
	}

	return RefreshResponse{Count: result.Count, FetchedAt: result.FetchedAt}, nil
}

func (h *HTTPEndpoint) StartJob(ctx context.Context, r *http.Request) (any, error) {
	file, err := h.extractFile(r)
	if err != nil {
		return nil, err
	}

	view, err := h.uc.StartJob(ctx, file)
	if err != nil {
		return nil, err
	}

	return JobAcceptedResponse{Job: NewJob(view)}, nil
}

func (h *HTTPEndpoint) CurrentJob(ctx context.Context, r *http.Request) (any, error) {
	view, err := h.uc.CurrentJob(ctx)
	if err != nil {
		return nil, err
	}

	return NewJob(view), nil
}

func (h *HTTPEndpoint) ResetJob(ctx context.Context, r *http.Request) (any, error) {
	view, err := h.uc.ResetJob(ctx)
	if err != nil {
		return nil, err
	}

	return NewJob(view), nil
}

func (h *HTTPEndpoint) Download(ctx context.Context, r *http.Request) (any, error) {
	id := pkgrouter.GetParam(ctx, "id")
	if id == "" {
		return nil, pkgerror.NewInvalidInput(errors.New("id is required"))
	}

	blob, err := h.uc.Download(ctx, id)
	if err != nil {
		return nil, err
	}

	return AttachmentResponse{blob: blob}, nil
}

// extractFile reads the multipart "file" part into memory so the job can
// reopen it for a later resubmission.
func (h *HTTPEndpoint) extractFile(r *http.Request) (entity.File, error) {
	reader, err := r.MultipartReader()
	if err != nil {
		return entity.File{}, pkgerror.NewInvalidFormat()
	}

	for {
		part, err := reader.NextPart()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return entity.File{}, pkgerror.NewInvalidInput(errors.New("file part is required"))
			}
			return entity.File{}, h.bodyError(err)
		}

		if part.FormName() != "file" {
			_ = part.Close()
			continue
		}

		data, err := h.readPart(part)
		_ = part.Close()
		if err != nil {
			return entity.File{}, err
		}

		return entity.FileFromBytes(part.FileName(), data), nil
	}
}

func (h *HTTPEndpoint) readPart(part io.Reader) ([]byte, error) {
	if h.maxUploadBytes <= 0 {
		data, err := io.ReadAll(part)
		if err != nil {
			return nil, pkgerror.NewInvalidFormat()
		}
		return data, nil
	}

	data, err := io.ReadAll(io.LimitReader(part, h.maxUploadBytes+1))
	if err != nil {
		return nil, h.bodyError(err)
	}
	if int64(len(data)) > h.maxUploadBytes {
		return nil, h.tooLarge()
	}
	return data, nil
}

func (h *HTTPEndpoint) bodyError(err error) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return h.tooLarge()
	}
	return pkgerror.NewInvalidFormat()
}

func (h *HTTPEndpoint) tooLarge() error {
	return pkgerror.NewInvalidInput(fmt.Errorf("file exceeds %d bytes", h.maxUploadBytes))
}

// NewDashboard maps the dashboard summary to its wire shape.
func NewDashboard(result usecase.DashboardResult) DashboardResponse {
	return DashboardResponse{
		TotalFiles:            result.TotalFiles,
		AverageRatio:          result.AverageRatio,
		AverageRatioLabel:     result.AverageRatioLabel,
		AverageSavingsPercent: result.AverageSavingsPercent,
		AverageSavingsLabel:   result.AverageSavingsLabel,
		SpaceSavedBytes:       result.SpaceSavedBytes,
		SpaceSavedLabel:       result.SpaceSavedLabel,
		EstimatedHoursSaved:   result.EstimatedHoursSaved,
		EstimatedTimeLabel:    result.EstimatedTimeLabel,
		Recent:                NewRecords(result.Recent),
		fetchedAt:             result.FetchedAt,
	}
}

func NewRecords(views []usecase.RecordView) []Record {
	records := make([]Record, 0, len(views))
	for _, view := range views {
		records = append(records, NewRecord(view))
	}
	return records
}

func NewRecord(view usecase.RecordView) Record {
	rec := view.Record
	return Record{
		ID:                 rec.ID,
		Filename:           rec.Filename,
		OriginalSizeBits:   rec.OriginalSizeBits,
		CompressedSizeBits: rec.CompressedSizeBits,
		CompressionRatio:   rec.CompressionRatio,
		Rows:               rec.Rows,
		Cols:               rec.Cols,
		CodecParameter:     rec.CodecParameter,
		CreatedAt:          rec.CreatedAt,
		OriginalSize:       view.OriginalSize,
		CompressedSize:     view.CompressedSize,
		SpaceSaved:         view.SpaceSaved,
		Ratio:              view.Ratio,
		SavingsPercent:     view.SavingsPercent,
		Efficiency:         view.Efficiency,
		CreatedRelative:    view.CreatedRelative,
	}
}

func NewJob(view usecase.JobView) Job {
	st := view.State
	job := Job{
		JobID:    st.JobID,
		Status:   st.Status,
		FileName: st.FileName,
		FileSize: st.FileSize,
		Progress: st.Progress,
		Message:  st.Message,
	}
	if view.Result != nil {
		rec := NewRecord(view.Result.RecordView)
		job.Result = &JobResult{Record: rec, Grade: view.Result.Grade}
	}
	return job
}
