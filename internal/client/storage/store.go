// Package storage writes staged files into object storage. Every backend
// makes exactly one attempt per file: no chunking, resume or retry.
package storage

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/casconsole/internal/client/models"
)

// Backend names accepted by New.
const (
	BackendSAS    = "sas"
	BackendAzBlob = "azblob"
	BackendS3     = "s3"
)

// ObjectStore writes one file under path ("referenceID/fileName").
type ObjectStore interface {
	Put(ctx context.Context, path string, file models.StagedFile) error
}

// TransportError is a non-2xx answer from the storage service.
type TransportError struct {
	// Service is the display name used in the message ("Azure", "S3").
	Service    string
	Path       string
	StatusCode int
	StatusText string
	Err        error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s Upload Failed: %s", e.Service, e.StatusText)
}

func (e *TransportError) Unwrap() error { return e.Err }

func newTransportError(service, path string, code int, err error) *TransportError {
	return &TransportError{
		Service:    service,
		Path:       path,
		StatusCode: code,
		StatusText: http.StatusText(code),
		Err:        err,
	}
}

// Config selects and configures a backend.
type Config struct {
	Backend string

	// BaseURL is the container URL for sas and the account service URL for azblob.
	BaseURL string
	// AuthSuffix is appended verbatim to every sas object URL (e.g. "?sv=...&sig=...").
	AuthSuffix string
	// Container is the azblob container name.
	Container string

	S3 S3Config

	HTTPClient *http.Client
}

// New builds the configured backend. An empty Backend means sas.
func New(ctx context.Context, cfg Config) (ObjectStore, error) {
	switch cfg.Backend {
	case "", BackendSAS:
		return NewSASStore(cfg.HTTPClient, cfg.BaseURL, cfg.AuthSuffix)
	case BackendAzBlob:
		return NewAzureBlobStore(cfg.BaseURL+cfg.AuthSuffix, cfg.Container, cfg.HTTPClient)
	case BackendS3:
		return NewS3Store(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
