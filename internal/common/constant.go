// Package common contains header names and helpers shared by the console's
// HTTP adapters.
package common

const (
	// AuthorizationHeaderName carries the bearer credential on API calls.
	AuthorizationHeaderName = "Authorization"

	// BearerPrefix precedes the token in the Authorization header.
	BearerPrefix = "Bearer "

	// RequestIDHeaderName correlates all HTTP calls of one submission attempt.
	RequestIDHeaderName = "X-Request-ID"

	// BlobTypeHeaderName / BlobTypeBlock select block blobs on Azure-style stores.
	BlobTypeHeaderName = "x-ms-blob-type"
	BlobTypeBlock      = "BlockBlob"

	// DefaultContentType is used when a staged file declares no type.
	DefaultContentType = "application/octet-stream"

	// NotAvailable is the sentinel the backend sends instead of a download URL.
	NotAvailable = "N.A"
)
