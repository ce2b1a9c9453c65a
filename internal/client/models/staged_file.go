package models

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
)

// StagedFile is a local file selected for submission. The content is opened
// lazily so staging a file does not read it.
type StagedFile struct {
	// Name is the base file name; it becomes the last storage path segment.
	Name string

	// Size is the byte size at staging time.
	Size int64

	// ContentType is the declared MIME type, possibly empty.
	ContentType string

	open func() (io.ReadCloser, error)
}

// NewStagedFileFromPath stats path and stages it. The content type is
// derived from the extension.
func NewStagedFileFromPath(path string) (StagedFile, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return StagedFile{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if fi.IsDir() {
		return StagedFile{}, fmt.Errorf("%s is a directory", path)
	}

	name := filepath.Base(path)
	return StagedFile{
		Name:        name,
		Size:        fi.Size(),
		ContentType: mime.TypeByExtension(filepath.Ext(name)),
		open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// NewStagedFileFromBytes stages an in-memory payload.
func NewStagedFileFromBytes(name, contentType string, data []byte) StagedFile {
	return StagedFile{
		Name:        name,
		Size:        int64(len(data)),
		ContentType: contentType,
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// Open returns a fresh reader over the file content. Callers must close it.
func (f StagedFile) Open() (io.ReadCloser, error) {
	if f.open == nil {
		return nil, fmt.Errorf("staged file %q has no content", f.Name)
	}
	return f.open()
}

// StoragePath is the object key for this file under referenceID.
func (f StagedFile) StoragePath(referenceID string) string {
	return StoragePath(referenceID, f.Name)
}

// StoragePath joins referenceID and fileName as "referenceID/fileName".
func StoragePath(referenceID, fileName string) string {
	return referenceID + "/" + fileName
}
