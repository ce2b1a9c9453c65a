package client

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/dmitrijs2005/casconsole/internal/client/models"
	"github.com/google/uuid"
)

// MockSubmitter is an in-process backend: every submission succeeds after
// Delay and is appended to its own history.
type MockSubmitter struct {
	Delay time.Duration
	now   func() time.Time

	mu      sync.Mutex
	records []models.HistoryRecord
}

func NewMockSubmitter(delay time.Duration) *MockSubmitter {
	return &MockSubmitter{Delay: delay, now: time.Now}
}

func (m *MockSubmitter) Submit(ctx context.Context, r models.UploadRequest, _ string) (*models.UploadResult, error) {
	start := m.now()

	if m.Delay > 0 {
		t := time.NewTimer(m.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	}

	report := r.ReferenceID + "_report.csv"
	res := &models.UploadResult{
		Status:      models.ResultStatusSuccess,
		ReferenceID: r.ReferenceID,
		ReportPath:  report,
		DownloadURL: "/agent/download-report?path=" + url.QueryEscape(report),
	}

	m.mu.Lock()
	m.records = append(m.records, models.HistoryRecord{
		ID:            uuid.NewString(),
		UserID:        r.Principal,
		ReferenceID:   r.ReferenceID,
		Status:        models.RecordStatusComplete,
		Summary:       fmt.Sprintf("%d document(s) processed", len(r.StoragePaths)),
		TotalFiles:    len(r.StoragePaths),
		AcceptedFiles: len(r.StoragePaths),
		LatencyMs:     m.now().Sub(start).Milliseconds(),
		CreatedAt:     m.now().UTC(),
		DownloadURL:   res.DownloadURL,
	})
	m.mu.Unlock()

	return res, nil
}

func (m *MockSubmitter) FetchHistory(context.Context, string) (*models.HistorySnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	recs := append([]models.HistoryRecord{}, m.records...)
	return &models.HistorySnapshot{
		Status:     "success",
		TotalCount: len(recs),
		Records:    recs,
	}, nil
}
