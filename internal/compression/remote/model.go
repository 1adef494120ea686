package remote

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/shandysiswandi/compressdash/internal/compression/entity"
)

// wireRecord is the loose shape the service sends. Numbers may arrive as JSON
// numbers or numeric strings, so every field is coerced through toRecord. The
// body is decoded with UseNumber so integers arrive as json.Number unrounded.
type wireRecord struct {
	ID                 any `json:"id"`
	FileID             any `json:"file_id"`
	Filename           any `json:"filename"`
	Rows               any `json:"rows"`
	Cols               any `json:"cols"`
	M                  any `json:"m"`
	OriginalSizeBits   any `json:"original_size_bits"`
	CompressedSizeBits any `json:"compressed_size_bits"`
	CompressionRatio   any `json:"compression_ratio"`
	CreatedAt          any `json:"created_at"`
}

type listResponse struct {
	Files []wireRecord `json:"files"`
}

type compressResponse struct {
	wireRecord
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (w wireRecord) toRecord() (entity.CompressionRecord, error) {
	id := strings.TrimSpace(cast.ToString(scalar(w.ID)))
	if id == "" {
		id = strings.TrimSpace(cast.ToString(scalar(w.FileID)))
	}
	if id == "" {
		return entity.CompressionRecord{}, errors.New("missing id")
	}

	filename := strings.TrimSpace(cast.ToString(w.Filename))
	if filename == "" {
		return entity.CompressionRecord{}, fmt.Errorf("record %s: missing filename", id)
	}

	orig, err := nonNegative(w.OriginalSizeBits, "original_size_bits")
	if err != nil {
		return entity.CompressionRecord{}, fmt.Errorf("record %s: %w", id, err)
	}
	comp, err := nonNegative(w.CompressedSizeBits, "compressed_size_bits")
	if err != nil {
		return entity.CompressionRecord{}, fmt.Errorf("record %s: %w", id, err)
	}
	rows, err := nonNegative(w.Rows, "rows")
	if err != nil {
		return entity.CompressionRecord{}, fmt.Errorf("record %s: %w", id, err)
	}
	cols, err := nonNegative(w.Cols, "cols")
	if err != nil {
		return entity.CompressionRecord{}, fmt.Errorf("record %s: %w", id, err)
	}
	m, err := nonNegative(w.M, "m")
	if err != nil {
		return entity.CompressionRecord{}, fmt.Errorf("record %s: %w", id, err)
	}

	var ratio float64
	if w.CompressionRatio != nil {
		ratio, err = cast.ToFloat64E(scalar(w.CompressionRatio))
		if err != nil {
			return entity.CompressionRecord{}, fmt.Errorf("record %s: invalid compression_ratio: %w", id, err)
		}
	}

	var createdAt time.Time
	created := w.CreatedAt
	if n, ok := created.(json.Number); ok {
		// epoch seconds
		if secs, convErr := n.Int64(); convErr == nil {
			created = secs
		} else {
			created = n.String()
		}
	}
	if created != nil && cast.ToString(created) != "" {
		createdAt, err = cast.ToTimeE(created)
		if err != nil {
			return entity.CompressionRecord{}, fmt.Errorf("record %s: invalid created_at: %w", id, err)
		}
	}

	return entity.CompressionRecord{
		ID:                 id,
		Filename:           filename,
		OriginalSizeBits:   orig,
		CompressedSizeBits: comp,
		CompressionRatio:   ratio,
		Rows:               rows,
		Cols:               cols,
		CodecParameter:     m,
		CreatedAt:          createdAt,
	}, nil
}

// scalar turns json.Number into its literal so cast sees a plain string.
func scalar(v any) any {
	if n, ok := v.(json.Number); ok {
		return n.String()
	}
	return v
}

// nonNegative coerces v to a whole, non-negative int64; a missing value is 0.
// Strings are read in base 10 only, so "010" is ten and "0x10" is rejected.
// Fractional values are rejected rather than truncated.
func nonNegative(v any, field string) (int64, error) {
	var (
		n   int64
		err error
	)

	switch val := v.(type) {
	case nil:
		return 0, nil
	case json.Number:
		n, err = parseWhole(val.String())
	case string:
		n, err = parseWhole(val)
	case float64:
		n, err = wholeFloat(val)
	case float32:
		n, err = wholeFloat(float64(val))
	default:
		n, err = cast.ToInt64E(val)
	}
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", field, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative %s: %d", field, n)
	}
	return n, nil
}

func parseWhole(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}

	// "8000.0" and "8e3" are whole; anything with a fraction is not
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a base-10 number", s)
	}
	return wholeFloat(f)
}

func wholeFloat(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("%v is not a whole number", f)
	}
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("%v is out of range", f)
	}
	return int64(f), nil
}
