package entity

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
)

// File is a local payload picked for compression. Open may be called more than
// once, so the same File can be submitted again after a failure.
type File struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// FileFromBytes wraps an in-memory payload.
func FileFromBytes(name string, data []byte) File {
	return File{
		Name: name,
		Size: int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// FileFromPath stats path and opens it lazily.
func FileFromPath(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, err
	}

	return File{
		Name: filepath.Base(path),
		Size: info.Size(),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}
