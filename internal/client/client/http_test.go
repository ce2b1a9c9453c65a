package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/casconsole/internal/client/models"
	"github.com/dmitrijs2005/casconsole/internal/logging"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *APIClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewAPIClient(srv.URL+"/api", srv.Client(), 2*time.Second, logging.Nop())
	require.NoError(t, err)
	return c
}

func TestNewAPIClient_Validation(t *testing.T) {
	_, err := NewAPIClient("not-a-url", nil, 0, logging.Nop())
	require.Error(t, err)
	_, err = NewAPIClient("://bad", nil, 0, logging.Nop())
	require.Error(t, err)
}

func TestSubmit_RequestShape(t *testing.T) {
	var (
		gotPath, gotAuth, gotReqID, gotCT string
		gotBody                           map[string]any
	)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotReqID = r.Header.Get("X-Request-ID")
		gotCT = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","cas_id":"CAS-1","report_path":"CAS-1_report.csv","download_url":"/agent/download-report?path=CAS-1_report.csv"}`))
	})

	ctx := WithRequestID(context.Background(), "attempt-1")
	res, err := c.Submit(ctx, models.UploadRequest{
		ReferenceID:  "CAS-1",
		StoragePaths: []string{"CAS-1/a.pdf", "CAS-1/b.pdf"},
		Principal:    "alice",
	}, "tok")
	require.NoError(t, err)

	assert.Equal(t, "POST /api/process-request", gotPath)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "attempt-1", gotReqID)
	assert.Equal(t, "application/json", gotCT)

	want := map[string]any{
		"cas_id":        "CAS-1",
		"document_path": []any{"CAS-1/a.pdf", "CAS-1/b.pdf"},
		"username":      "alice",
	}
	if diff := cmp.Diff(want, gotBody); diff != "" {
		t.Fatalf("request body mismatch (-want +got):\n%s", diff)
	}

	assert.True(t, res.IsSuccess())
	assert.Equal(t, "CAS-1_report.csv", res.ReportPath)
}

func TestSubmit_OmitsEmptyPrincipal(t *testing.T) {
	var raw string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		raw = string(b)
		_, _ = w.Write([]byte(`{"status":"success"}`))
	})

	_, err := c.Submit(context.Background(), models.UploadRequest{ReferenceID: "X", StoragePaths: []string{"X/a"}}, "t")
	require.NoError(t, err)
	assert.NotContains(t, raw, "username")
}

func TestSubmit_BusinessFailureIsNotAnError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"fail","cas_id":"X","error_message":"duplicate batch"}`))
	})

	res, err := c.Submit(context.Background(), models.UploadRequest{ReferenceID: "X"}, "t")
	require.NoError(t, err)
	assert.False(t, res.IsSuccess())
	assert.Equal(t, "duplicate batch", res.ErrorMessage)
}

func TestSubmit_Non2xx(t *testing.T) {
	tests := []struct {
		code     int
		sentinel error
	}{
		{http.StatusInternalServerError, nil},
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrUnauthorized},
		{http.StatusBadGateway, ErrUnavailable},
		{http.StatusServiceUnavailable, ErrUnavailable},
		{http.StatusGatewayTimeout, ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.code), func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.code)
			})

			_, err := c.Submit(context.Background(), models.UploadRequest{ReferenceID: "X"}, "t")
			require.Error(t, err)
			assert.Equal(t, "Processing Request Failed: "+http.StatusText(tt.code), err.Error())

			var te *TransportError
			require.True(t, errors.As(err, &te))
			assert.Equal(t, tt.code, te.StatusCode)
			assert.Equal(t, "nope", te.Body)
			if tt.sentinel != nil {
				assert.ErrorIs(t, err, tt.sentinel)
			}
		})
	}
}

func TestSubmit_MalformedJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":`))
	})
	_, err := c.Submit(context.Background(), models.UploadRequest{ReferenceID: "X"}, "t")
	require.ErrorContains(t, err, "decode process-request response")
}

func TestSubmit_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	c, err := NewAPIClient(srv.URL, srv.Client(), 0, logging.Nop())
	require.NoError(t, err)
	srv.Close()

	_, err = c.Submit(context.Background(), models.UploadRequest{ReferenceID: "X"}, "t")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestSubmit_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c, err := NewAPIClient(srv.URL, srv.Client(), 50*time.Millisecond, logging.Nop())
	require.NoError(t, err)

	_, err = c.Submit(context.Background(), models.UploadRequest{ReferenceID: "X"}, "t")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestFetchHistory(t *testing.T) {
	var gotPath, gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(`{
			"status": "success",
			"Total_Count": 3,
			"Rejected": 1,
			"data": [{
				"id": "r1", "user_id": "alice", "cas_id": "CAS-1", "status": "complete",
				"summary": "ok", "total_files": 2, "accepted_files": 2, "latency_ms": 1200,
				"created_at": "2026-03-01T10:00:00Z", "download_url": "N.A"
			}]
		}`))
	})

	snap, err := c.FetchHistory(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "GET /api/agent-user-history", gotPath)
	assert.Equal(t, "Bearer tok", gotAuth)

	assert.Equal(t, 3, snap.TotalCount)
	assert.Equal(t, 1, snap.RejectedCount)
	assert.Equal(t, 2, snap.SuccessCount())
	require.Len(t, snap.Records, 1)
	rec := snap.Records[0]
	assert.Equal(t, "CAS-1", rec.ReferenceID)
	assert.Equal(t, int64(1200), rec.LatencyMs)
	assert.Equal(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), rec.CreatedAt.UTC())
	assert.False(t, rec.Downloadable())
}

func TestFetchHistory_LenientRecordFields(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","Total_Count":2,"Rejected":0,"data":[
			{"id":7,"cas_id":"CAS-7","created_at":"2025-01-20T10:00:00.123456","download_url":"N.A"},
			{"id":"r8","cas_id":"CAS-8","created_at":"not a date","download_url":"N.A"}]}`))
	})

	snap, err := c.FetchHistory(context.Background(), "t")
	require.NoError(t, err)
	require.Len(t, snap.Records, 2)

	assert.Equal(t, "7", snap.Records[0].ID)
	assert.Equal(t, time.Date(2025, 1, 20, 10, 0, 0, 123456000, time.UTC), snap.Records[0].CreatedAt.UTC())
	assert.Equal(t, "r8", snap.Records[1].ID)
	assert.True(t, snap.Records[1].CreatedAt.IsZero())

	rec, ok := snap.Find("7")
	require.True(t, ok)
	assert.Equal(t, "CAS-7", rec.ReferenceID)
}

func TestFetchHistory_NullDataIsEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","Total_Count":0,"Rejected":0,"data":null}`))
	})
	snap, err := c.FetchHistory(context.Background(), "t")
	require.NoError(t, err)
	assert.NotNil(t, snap.Records)
	assert.Empty(t, snap.Records)
}

func TestFetchHistory_Errors(t *testing.T) {
	t.Run("non 2xx", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
		_, err := c.FetchHistory(context.Background(), "t")
		require.ErrorIs(t, err, ErrUnauthorized)
		assert.Equal(t, "History Request Failed: Unauthorized", err.Error())
	})

	t.Run("html body", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<html>login</html>`))
		})
		_, err := c.FetchHistory(context.Background(), "t")
		require.ErrorIs(t, err, ErrUnexpectedContentType)
	})

	t.Run("malformed json", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"data": [`))
		})
		_, err := c.FetchHistory(context.Background(), "t")
		require.ErrorContains(t, err, "decode history")
	})
}

func TestResolve(t *testing.T) {
	c, err := NewAPIClient("https://api.example.com/v1", nil, 0, logging.Nop())
	require.NoError(t, err)

	got, err := c.Resolve("/agent/download-report?path=CAS-1_report.csv")
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/agent/download-report?path=CAS-1_report.csv", got)

	got, err = c.Resolve("https://cdn.example.com/r.csv")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/r.csv", got)
}

func TestRequestIDFromContext(t *testing.T) {
	assert.Empty(t, RequestIDFromContext(context.Background()))
	assert.Equal(t, "x", RequestIDFromContext(WithRequestID(context.Background(), "x")))
}
