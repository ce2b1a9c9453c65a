package services

import "errors"

var (
	ErrNothingToSubmit      = errors.New("reference id and at least one file are required")
	ErrSubmissionInProgress = errors.New("submission already in progress")
	ErrBusinessFailure      = errors.New("processing request failed")
	ErrFileIndexOutOfRange  = errors.New("file index out of range")
	ErrNotDownloadable      = errors.New("record has no downloadable report")
	ErrEmptyJobResponse     = errors.New("empty job response")
)

// ErrSessionInactive is returned by history refreshes while nobody is logged in.
var ErrSessionInactive = errors.New("no active session")
