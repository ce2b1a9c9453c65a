// Package services contains the console's application services: the upload
// orchestrator that drives a submission through storage and the backend,
// the history synchronizer that keeps the history view current, and the
// download manager for processing reports.
//
// Services receive their collaborators (storage, backend client, credential
// provider, session) through constructors and are safe for concurrent use.
package services
