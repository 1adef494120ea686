package entity

import "time"

// CompressionRecord is one compression result as reported by the remote service.
// Records are read-only on the client side.
type CompressionRecord struct {
	ID                 string
	Filename           string
	OriginalSizeBits   int64
	CompressedSizeBits int64
	// CompressionRatio is taken as supplied by the service and never re-derived.
	CompressionRatio float64
	Rows             int64
	Cols             int64
	// CodecParameter is the Golomb m used for the job, 0 when not reported.
	CodecParameter int64
	CreatedAt      time.Time
}

// SavedBits never goes negative, even when the compressed payload grew.
func (r CompressionRecord) SavedBits() int64 {
	if r.CompressedSizeBits >= r.OriginalSizeBits {
		return 0
	}
	return r.OriginalSizeBits - r.CompressedSizeBits
}

// CompressResult is the outcome of a successful POST /compress.
type CompressResult struct {
	Record  CompressionRecord
	Message string
}

// Blob is a downloaded payload ready to be handed to the user.
type Blob struct {
	Filename    string
	ContentType string
	Data        []byte
}
