package inbound

import (
	"net/http"
	"strconv"
	"time"

	"github.com/shandysiswandi/compressdash/internal/compression/chart"
	"github.com/shandysiswandi/compressdash/internal/compression/entity"
)

type Record struct {
	ID                 string                 `json:"id"`
	Filename           string                 `json:"filename"`
	OriginalSizeBits   int64                  `json:"original_size_bits"`
	CompressedSizeBits int64                  `json:"compressed_size_bits"`
	CompressionRatio   float64                `json:"compression_ratio"`
	Rows               int64                  `json:"rows"`
	Cols               int64                  `json:"cols"`
	CodecParameter     int64                  `json:"m"`
	CreatedAt          time.Time              `json:"created_at"`
	OriginalSize       string                 `json:"original_size"`
	CompressedSize     string                 `json:"compressed_size"`
	SpaceSaved         string                 `json:"space_saved"`
	Ratio              string                 `json:"ratio"`
	SavingsPercent     string                 `json:"savings_percent"`
	Efficiency         entity.EfficiencyClass `json:"efficiency"`
	CreatedRelative    string                 `json:"created_relative,omitempty"`
}

type RecordsResponse struct {
	Records   []Record `json:"records"`
	query     string
	fetchedAt time.Time
}

func (r RecordsResponse) Meta() map[string]any {
	return map[string]any{
		"query":      r.query,
		"total":      len(r.Records),
		"fetched_at": fetchedAt(r.fetchedAt),
	}
}

type DashboardResponse struct {
	TotalFiles            int      `json:"total_files"`
	AverageRatio          float64  `json:"average_ratio"`
	AverageRatioLabel     string   `json:"average_ratio_label"`
	AverageSavingsPercent float64  `json:"average_savings_percent"`
	AverageSavingsLabel   string   `json:"average_savings_label"`
	SpaceSavedBytes       float64  `json:"space_saved_bytes"`
	SpaceSavedLabel       string   `json:"space_saved_label"`
	EstimatedHoursSaved   float64  `json:"estimated_hours_saved"`
	EstimatedTimeLabel    string   `json:"estimated_time_label"`
	Recent                []Record `json:"recent"`
	fetchedAt             time.Time
}

func (r DashboardResponse) Meta() map[string]any {
	return map[string]any{"fetched_at": fetchedAt(r.fetchedAt)}
}

type ChartsResponse struct {
	chart.Series
	fetchedAt time.Time
}

func (r ChartsResponse) Meta() map[string]any {
	return map[string]any{"fetched_at": fetchedAt(r.fetchedAt)}
}

type RefreshResponse struct {
	Count     int       `json:"count"`
	FetchedAt time.Time `json:"fetched_at"`
}

func (RefreshResponse) Message() string {
	return "records refreshed"
}

type JobResult struct {
	Record Record             `json:"record"`
	Grade  entity.ResultGrade `json:"grade"`
}

type Job struct {
	JobID    int64            `json:"job_id,string"`
	Status   entity.JobStatus `json:"status"`
	FileName string           `json:"file_name,omitempty"`
	FileSize int64            `json:"file_size,omitempty"`
	Progress int              `json:"progress"`
	Message  string           `json:"message,omitempty"`
	Result   *JobResult       `json:"result,omitempty"`
}

type JobAcceptedResponse struct {
	Job
}

func (JobAcceptedResponse) StatusCode() int {
	return http.StatusAccepted
}

func (JobAcceptedResponse) Message() string {
	return "compression job accepted"
}

// AttachmentResponse streams a decompressed payload as a file download.
type AttachmentResponse struct {
	blob entity.Blob
}

func (a AttachmentResponse) Render(w http.ResponseWriter) {
	w.Header().Set("Content-Type", a.blob.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(a.blob.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(a.blob.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(a.blob.Data)
}

func fetchedAt(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
