package client

import (
	"context"

	"github.com/dmitrijs2005/casconsole/internal/client/models"
)

// JobSubmitter hands a batch of stored documents to the backend processor.
type JobSubmitter interface {
	Submit(ctx context.Context, req models.UploadRequest, token string) (*models.UploadResult, error)
}

// HistoryFetcher loads the operator's submission history.
type HistoryFetcher interface {
	FetchHistory(ctx context.Context, token string) (*models.HistorySnapshot, error)
}

// Client is the full backend contract.
type Client interface {
	JobSubmitter
	HistoryFetcher
}

type requestIDKey struct{}

// WithRequestID attaches a correlation id sent as X-Request-ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the id set by WithRequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
