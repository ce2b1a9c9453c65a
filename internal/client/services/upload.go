package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/casconsole/internal/client/auth"
	"github.com/dmitrijs2005/casconsole/internal/client/client"
	"github.com/dmitrijs2005/casconsole/internal/client/models"
	"github.com/dmitrijs2005/casconsole/internal/client/session"
	"github.com/dmitrijs2005/casconsole/internal/client/storage"
	"github.com/dmitrijs2005/casconsole/internal/logging"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Status messages shown while a submission runs.
const (
	MsgInitializing        = "Initializing secure storage..."
	MsgProcessing          = "Processing verified documents..."
	DefaultBusinessFailure = "Processing request failed"
)

func uploadingMessage(i, n int, name string) string {
	return fmt.Sprintf("Uploading %d/%d: %s...", i, n, name)
}

// OrchestratorState is a point-in-time copy of the orchestrator for views.
type OrchestratorState struct {
	Status      models.Status
	Message     string
	ReferenceID string
	Files       []models.StagedFile
	Result      *models.UploadResult
	AttemptID   string
}

// UploadOrchestrator drives one submission at a time through the
// idle -> uploading -> processing -> success|failed lifecycle.
//
// Contract:
//   - Staging mutations and Reset are rejected with ErrSubmissionInProgress
//     while a submission is active.
//   - Submit without a reference id or files returns ErrNothingToSubmit and
//     changes nothing.
//   - Submitting from success or failed first returns to idle; this is how a
//     failed batch is retried.
type UploadOrchestrator interface {
	SetReferenceID(id string) error
	AddFiles(files ...models.StagedFile) error
	RemoveFile(index int) error
	ClearFiles() error
	Submit(ctx context.Context) (*models.UploadResult, error)
	Reset() error
	State() OrchestratorState
	OnChange(fn func(OrchestratorState))
	OnSuccess(fn func(ctx context.Context, res models.UploadResult))
}

type uploadOrchestrator struct {
	store   storage.ObjectStore
	jobs    client.JobSubmitter
	creds   auth.Provider
	session *session.Context
	log     logging.Logger
	newID   func() string

	mu        sync.Mutex
	status    models.Status
	message   string
	ref       string
	files     []models.StagedFile
	result    *models.UploadResult
	attemptID string
	observers []func(OrchestratorState)
	onSuccess []func(context.Context, models.UploadResult)
}

// NewUploadOrchestrator wires the orchestrator to its collaborators. sess
// supplies the principal sent with each job and may be nil.
func NewUploadOrchestrator(store storage.ObjectStore, jobs client.JobSubmitter, creds auth.Provider, sess *session.Context, log logging.Logger) UploadOrchestrator {
	return &uploadOrchestrator{
		store:   store,
		jobs:    jobs,
		creds:   creds,
		session: sess,
		log:     log.With("component", "upload"),
		newID:   uuid.NewString,
		status:  models.StatusIdle,
	}
}

// snapshot must be called with mu held.
func (o *uploadOrchestrator) snapshot() OrchestratorState {
	st := OrchestratorState{
		Status:      o.status,
		Message:     o.message,
		ReferenceID: o.ref,
		Files:       append([]models.StagedFile(nil), o.files...),
		AttemptID:   o.attemptID,
	}
	if o.result != nil {
		r := *o.result
		st.Result = &r
	}
	return st
}

func (o *uploadOrchestrator) notify(states ...OrchestratorState) {
	o.mu.Lock()
	obs := append([]func(OrchestratorState){}, o.observers...)
	o.mu.Unlock()

	for _, st := range states {
		for _, fn := range obs {
			fn(st)
		}
	}
}

// toIdle must be called with mu held. It reports whether the status changed.
func (o *uploadOrchestrator) toIdle() bool {
	if o.status == models.StatusIdle {
		return false
	}
	o.status = models.StatusIdle
	o.message = ""
	o.result = nil
	return true
}

// mutate applies fn to the staging area unless a submission is active. A
// finished attempt is cleared back to idle first so the new staging is
// submitted fresh.
func (o *uploadOrchestrator) mutate(fn func() error) error {
	o.mu.Lock()
	if o.status.Active() {
		o.mu.Unlock()
		return ErrSubmissionInProgress
	}
	if err := fn(); err != nil {
		o.mu.Unlock()
		return err
	}
	changed := o.toIdle()
	st := o.snapshot()
	o.mu.Unlock()

	if changed {
		o.notify(st)
	}
	return nil
}

func (o *uploadOrchestrator) SetReferenceID(id string) error {
	return o.mutate(func() error {
		o.ref = strings.TrimSpace(id)
		return nil
	})
}

func (o *uploadOrchestrator) AddFiles(files ...models.StagedFile) error {
	return o.mutate(func() error {
		o.files = append(o.files, files...)
		return nil
	})
}

// RemoveFile removes the staged file at index (0-based).
func (o *uploadOrchestrator) RemoveFile(index int) error {
	return o.mutate(func() error {
		if index < 0 || index >= len(o.files) {
			return ErrFileIndexOutOfRange
		}
		o.files = append(o.files[:index:index], o.files[index+1:]...)
		return nil
	})
}

func (o *uploadOrchestrator) ClearFiles() error {
	return o.mutate(func() error {
		o.files = nil
		return nil
	})
}

// Reset clears staging, reference id and the last result.
func (o *uploadOrchestrator) Reset() error {
	o.mu.Lock()
	if o.status.Active() {
		o.mu.Unlock()
		return ErrSubmissionInProgress
	}
	o.ref = ""
	o.files = nil
	o.attemptID = ""
	changed := o.toIdle()
	st := o.snapshot()
	o.mu.Unlock()

	if changed {
		o.notify(st)
	}
	return nil
}

func (o *uploadOrchestrator) State() OrchestratorState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshot()
}

// OnChange registers fn to be called after every status or message change.
// fn runs on the goroutine that made the change and must not call back into
// the orchestrator's mutating methods.
func (o *uploadOrchestrator) OnChange(fn func(OrchestratorState)) {
	o.mu.Lock()
	o.observers = append(o.observers, fn)
	o.mu.Unlock()
}

// OnSuccess registers a hook run after a batch succeeds, before Submit returns.
func (o *uploadOrchestrator) OnSuccess(fn func(context.Context, models.UploadResult)) {
	o.mu.Lock()
	o.onSuccess = append(o.onSuccess, fn)
	o.mu.Unlock()
}

// set updates status and message and notifies observers.
func (o *uploadOrchestrator) set(status models.Status, msg string) {
	o.mu.Lock()
	o.status = status
	o.message = msg
	st := o.snapshot()
	o.mu.Unlock()

	o.notify(st)
}

func (o *uploadOrchestrator) principal() string {
	if o.session == nil {
		return ""
	}
	return o.session.Principal()
}

func (o *uploadOrchestrator) Submit(ctx context.Context) (*models.UploadResult, error) {
	o.mu.Lock()
	if o.status.Active() {
		o.mu.Unlock()
		return nil, ErrSubmissionInProgress
	}
	if o.ref == "" || len(o.files) == 0 {
		o.mu.Unlock()
		return nil, ErrNothingToSubmit
	}

	var pending []OrchestratorState
	if o.toIdle() {
		pending = append(pending, o.snapshot())
	}

	ref := o.ref
	files := append([]models.StagedFile(nil), o.files...)
	o.attemptID = o.newID()
	o.status = models.StatusUploading
	o.message = ""
	pending = append(pending, o.snapshot())
	attempt := o.attemptID
	o.mu.Unlock()

	o.notify(pending...)

	ctx = client.WithRequestID(ctx, attempt)
	log := o.log.With("attempt_id", attempt, "cas_id", ref)
	log.Info(ctx, "submission started", "files", len(files))

	token, err := o.creds.Token(ctx)
	if err != nil {
		return nil, o.fail(ctx, log, err)
	}

	o.set(models.StatusUploading, MsgInitializing)

	paths, err := o.upload(ctx, log, ref, files)
	if err != nil {
		return nil, o.fail(ctx, log, err)
	}

	o.set(models.StatusProcessing, MsgProcessing)

	req := models.UploadRequest{
		ReferenceID:  ref,
		StoragePaths: paths,
		Principal:    o.principal(),
	}
	res, err := o.jobs.Submit(ctx, req, token)
	if err != nil {
		return nil, o.fail(ctx, log, err)
	}
	if res == nil {
		return nil, o.fail(ctx, log, ErrEmptyJobResponse)
	}

	return o.finish(ctx, log, res)
}

// upload writes every file concurrently and waits for all of them. The first
// error is returned; siblings are not cancelled. Paths keep staging order.
func (o *uploadOrchestrator) upload(ctx context.Context, log logging.Logger, ref string, files []models.StagedFile) ([]string, error) {
	paths := make([]string, len(files))

	var g errgroup.Group
	for i, f := range files {
		p := f.StoragePath(ref)
		paths[i] = p

		o.set(models.StatusUploading, uploadingMessage(i+1, len(files), f.Name))

		g.Go(func() error {
			if err := o.store.Put(ctx, p, f); err != nil {
				log.Warn(ctx, "storage write failed", "path", p, "error", err)
				return err
			}
			log.Debug(ctx, "storage write done", "path", p, "bytes", f.Size)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

func (o *uploadOrchestrator) fail(ctx context.Context, log logging.Logger, err error) error {
	o.set(models.StatusFailed, err.Error())
	log.Error(ctx, "submission failed", "error", err)
	return err
}

func (o *uploadOrchestrator) finish(ctx context.Context, log logging.Logger, res *models.UploadResult) (*models.UploadResult, error) {
	o.mu.Lock()
	r := *res
	o.result = &r
	if r.IsSuccess() {
		o.status = models.StatusSuccess
	} else {
		o.status = models.StatusFailed
		o.message = r.ErrorMessage
		if o.message == "" {
			o.message = DefaultBusinessFailure
		}
	}
	st := o.snapshot()
	hooks := append([]func(context.Context, models.UploadResult){}, o.onSuccess...)
	o.mu.Unlock()

	o.notify(st)

	if !r.IsSuccess() {
		log.Warn(ctx, "batch rejected", "status", r.Status, "error_message", st.Message)
		return res, fmt.Errorf("%w: %s", ErrBusinessFailure, st.Message)
	}

	log.Info(ctx, "batch processed", "report_path", r.ReportPath)
	for _, h := range hooks {
		h(ctx, r)
	}
	return res, nil
}
