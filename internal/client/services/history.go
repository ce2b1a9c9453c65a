package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/casconsole/internal/client/auth"
	"github.com/dmitrijs2005/casconsole/internal/client/client"
	"github.com/dmitrijs2005/casconsole/internal/client/models"
	"github.com/dmitrijs2005/casconsole/internal/client/session"
	"github.com/dmitrijs2005/casconsole/internal/logging"
)

// DefaultPollInterval is the history refresh period.
const DefaultPollInterval = 3 * time.Second

// HistoryStats counts refresh outcomes.
type HistoryStats struct {
	Refreshes   int64
	Failures    int64
	LastError   string
	LastSuccess time.Time
}

// HistorySynchronizer keeps a snapshot of the submission history current.
//
// Contract:
//   - Refresh toggles the loading flag around the fetch; RefreshSilent never
//     touches it.
//   - A failed refresh keeps the previous snapshot. The failure is logged at
//     WARN and counted in Stats; it is not returned. Only ErrSessionInactive
//     reaches the caller.
//   - Start polls every interval until Stop, ctx cancellation or the end of
//     the session. Once Stop returns no further fetch is issued.
//   - Reset installs the empty snapshot; a fetch that was in flight at that
//     moment is discarded.
type HistorySynchronizer interface {
	Refresh(ctx context.Context) error
	RefreshSilent(ctx context.Context) error
	Start(ctx context.Context)
	Stop()
	Running() bool
	Snapshot() *models.HistorySnapshot
	Loading() bool
	View(query string) []models.HistoryRecord
	Reset()
	Stats() HistoryStats
}

type historySynchronizer struct {
	fetcher  client.HistoryFetcher
	creds    auth.Provider
	session  *session.Context
	interval time.Duration
	log      logging.Logger
	now      func() time.Time

	snap    atomic.Pointer[models.HistorySnapshot]
	loading atomic.Int32

	// swapMu orders snapshot stores against Reset; readers never take it.
	swapMu sync.Mutex
	gen    atomic.Uint64

	statsMu sync.Mutex
	stats   HistoryStats

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewHistorySynchronizer returns a stopped synchronizer holding the empty
// snapshot. A non-positive interval uses DefaultPollInterval.
func NewHistorySynchronizer(fetcher client.HistoryFetcher, creds auth.Provider, sess *session.Context, interval time.Duration, log logging.Logger) HistorySynchronizer {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	h := &historySynchronizer{
		fetcher:  fetcher,
		creds:    creds,
		session:  sess,
		interval: interval,
		log:      log.With("component", "history"),
		now:      time.Now,
	}
	h.snap.Store(models.EmptySnapshot())
	return h
}

func (h *historySynchronizer) Refresh(ctx context.Context) error {
	h.loading.Add(1)
	defer h.loading.Add(-1)
	return h.refresh(ctx)
}

func (h *historySynchronizer) RefreshSilent(ctx context.Context) error {
	return h.refresh(ctx)
}

func (h *historySynchronizer) refresh(ctx context.Context) error {
	if h.session != nil && !h.session.Active() {
		return ErrSessionInactive
	}
	gen := h.gen.Load()

	snap, err := h.fetch(ctx)
	if err != nil {
		h.recordFailure(ctx, err)
		return nil
	}

	h.swapMu.Lock()
	if h.gen.Load() != gen {
		h.swapMu.Unlock()
		h.log.Debug(ctx, "discarding history fetched before reset")
		return nil
	}
	h.snap.Store(snap)
	h.swapMu.Unlock()

	h.statsMu.Lock()
	h.stats.Refreshes++
	h.stats.LastSuccess = h.now()
	h.statsMu.Unlock()
	return nil
}

func (h *historySynchronizer) fetch(ctx context.Context) (*models.HistorySnapshot, error) {
	token, err := h.creds.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("history token: %w", err)
	}
	return h.fetcher.FetchHistory(ctx, token)
}

func (h *historySynchronizer) recordFailure(ctx context.Context, err error) {
	h.statsMu.Lock()
	h.stats.Failures++
	h.stats.LastError = err.Error()
	h.statsMu.Unlock()

	h.log.Warn(ctx, "history refresh failed, keeping previous snapshot", "error", err)
}

// Start performs an interactive load and then polls in the background.
// Calling Start on a running synchronizer does nothing.
func (h *historySynchronizer) Start(ctx context.Context) {
	h.mu.Lock()
	if h.cancel != nil {
		h.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	h.cancel, h.done = cancel, done
	h.mu.Unlock()

	var sessionDone <-chan struct{}
	if h.session != nil {
		sessionDone = h.session.Done()
	}

	_ = h.Refresh(ctx)

	go h.poll(ctx, sessionDone, done)
}

func (h *historySynchronizer) poll(ctx context.Context, sessionDone <-chan struct{}, done chan struct{}) {
	defer h.detach(done)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sessionDone:
			h.log.Debug(ctx, "session ended, history poller stopping")
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			_ = h.RefreshSilent(ctx)
		}
	}
}

// detach clears the running state if it still belongs to done, then closes done.
func (h *historySynchronizer) detach(done chan struct{}) {
	h.mu.Lock()
	if h.done == done {
		h.cancel()
		h.cancel, h.done = nil, nil
	}
	h.mu.Unlock()
	close(done)
}

// Stop cancels the poller and waits for it to exit. Safe to call repeatedly.
func (h *historySynchronizer) Stop() {
	h.mu.Lock()
	cancel, done := h.cancel, h.done
	h.cancel, h.done = nil, nil
	h.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (h *historySynchronizer) Running() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cancel != nil
}

// Snapshot returns the current snapshot. Callers must not modify it.
func (h *historySynchronizer) Snapshot() *models.HistorySnapshot {
	return h.snap.Load()
}

func (h *historySynchronizer) Loading() bool {
	return h.loading.Load() > 0
}

// View filters and orders a copy of the current records for display.
func (h *historySynchronizer) View(query string) []models.HistoryRecord {
	return h.snap.Load().Filter(query)
}

func (h *historySynchronizer) Reset() {
	h.swapMu.Lock()
	h.gen.Add(1)
	h.snap.Store(models.EmptySnapshot())
	h.swapMu.Unlock()
}

func (h *historySynchronizer) Stats() HistoryStats {
	h.statsMu.Lock()
	defer h.statsMu.Unlock()
	return h.stats
}
