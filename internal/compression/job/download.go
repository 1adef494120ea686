package job

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"github.com/shandysiswandi/compressdash/internal/compression/entity"
	"github.com/shandysiswandi/compressdash/internal/pkg/pkgerror"
)

type Fetcher interface {
	Decompress(ctx context.Context, id string) ([]byte, string, error)
}

type RecordLookup interface {
	Get(id string) (entity.CompressionRecord, error)
}

// Downloader fetches decompressed payloads, one at a time.
type Downloader struct {
	fetcher Fetcher
	records RecordLookup
	busy    atomic.Bool
}

func NewDownloader(fetcher Fetcher, records RecordLookup) *Downloader {
	return &Downloader{fetcher: fetcher, records: records}
}

// Busy reports whether a download is running.
func (d *Downloader) Busy() bool {
	return d.busy.Load()
}

// Download returns the decompressed CSV of record id. A second call while one
// is running is rejected with a conflict; the flag is cleared on every path.
func (d *Downloader) Download(ctx context.Context, id string) (entity.Blob, error) {
	if strings.TrimSpace(id) == "" {
		return entity.Blob{}, pkgerror.NewInvalidInput(errors.New("record id is required"))
	}
	if d.fetcher == nil {
		return entity.Blob{}, pkgerror.NewServer(errors.New("missing fetcher"))
	}

	if !d.busy.CompareAndSwap(false, true) {
		return entity.Blob{}, pkgerror.NewBusiness("a download is already in progress", pkgerror.CodeConflict)
	}
	defer d.busy.Store(false)

	name := id
	if d.records != nil {
		rec, err := d.records.Get(id)
		if err != nil {
			return entity.Blob{}, err
		}
		name = rec.Filename
	}

	data, contentType, err := d.fetcher.Decompress(ctx, id)
	if err != nil {
		return entity.Blob{}, err
	}

	return entity.Blob{
		Filename:    DownloadFilename(name),
		ContentType: contentType,
		Data:        data,
	}, nil
}

// DownloadFilename names the decompressed payload of a stored file.
func DownloadFilename(filename string) string {
	return "decompressed_" + strings.TrimSuffix(filename, ".gz") + ".csv"
}
