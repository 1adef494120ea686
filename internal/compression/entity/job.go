package entity

type JobStatus string

const (
	JobStatusIdle           JobStatus = "IDLE"
	JobStatusFileSelected   JobStatus = "FILE_SELECTED"
	JobStatusUploading      JobStatus = "UPLOADING"
	JobStatusAwaitingResult JobStatus = "AWAITING_RESULT"
	JobStatusCompleted      JobStatus = "COMPLETED"
	JobStatusFailed         JobStatus = "FAILED"
)

// Terminal reports whether no further transition happens without a user action.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// JobState is a snapshot of the submission lifecycle. Only the fields that
// belong to Status are populated.
type JobState struct {
	JobID    int64
	Status   JobStatus
	FileName string
	FileSize int64
	Progress int
	Result   *CompressionRecord
	Message  string
	Err      string
}

// JobEvent is emitted on every state transition of a submission, in order.
type JobEvent struct {
	EventID string
	State   JobState
}
