// Package client talks to the document processing backend over HTTP+JSON.
//
// # Overview
//
// The package provides:
//  1. The contracts the services depend on: JobSubmitter (POST
//     /process-request) and HistoryFetcher (GET /agent-user-history).
//  2. APIClient, the HTTP implementation. Every call carries
//     "Authorization: Bearer <token>" and, when the context has one, an
//     X-Request-ID correlation id (see WithRequestID).
//  3. MockSubmitter, an in-process backend used in mock mode.
//
// # Error Handling
//
// Non-2xx answers are returned as *TransportError. Its Unwrap exposes the
// sentinels ErrUnauthorized (401/403) and ErrUnavailable (502/503/504), so
// callers can use errors.Is. A 2xx job answer whose status is not "success"
// is not an error here; interpreting it is the orchestrator's job.
package client
