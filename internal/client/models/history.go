package models

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// Values of HistoryRecord.Status.
const (
	RecordStatusComplete = "complete"
	RecordStatusFail     = "fail"
)

// downloadNotAvailable mirrors common.NotAvailable; models stays dependency free.
const downloadNotAvailable = "N.A"

// HistoryRecord is one past submission as reported by the backend.
type HistoryRecord struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	ReferenceID   string    `json:"cas_id"`
	Status        string    `json:"status"`
	Summary       string    `json:"summary"`
	TotalFiles    int       `json:"total_files"`
	AcceptedFiles int       `json:"accepted_files"`
	LatencyMs     int64     `json:"latency_ms"`
	CreatedAt     time.Time `json:"created_at"`
	DownloadURL   string    `json:"download_url"`
}

// createdAtLayouts are tried in order; the backend may omit the zone.
var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	time.DateOnly,
}

// UnmarshalJSON accepts a string or numeric id and a created_at in any of
// createdAtLayouts. An unparseable created_at becomes the zero time so a
// single odd row does not reject the whole history.
func (r *HistoryRecord) UnmarshalJSON(b []byte) error {
	type plain HistoryRecord
	aux := struct {
		*plain
		ID        json.RawMessage `json:"id"`
		CreatedAt json.RawMessage `json:"created_at"`
	}{plain: (*plain)(r)}

	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	r.ID = rawText(aux.ID)
	r.CreatedAt = parseCreatedAt(rawText(aux.CreatedAt))
	return nil
}

// rawText returns a JSON string's value, or the literal text of any other
// value. null yields "".
func rawText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func parseCreatedAt(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Downloadable is false for records without a report link.
func (r HistoryRecord) Downloadable() bool {
	u := strings.TrimSpace(r.DownloadURL)
	return u != "" && u != downloadNotAvailable
}

// HistorySnapshot is the full history payload. TotalCount and RejectedCount
// come from the server and may disagree with len(Records).
type HistorySnapshot struct {
	Status        string          `json:"status"`
	TotalCount    int             `json:"Total_Count"`
	RejectedCount int             `json:"Rejected"`
	Records       []HistoryRecord `json:"data"`
}

// EmptySnapshot is the snapshot shown before the first poll and after logout.
func EmptySnapshot() *HistorySnapshot {
	return &HistorySnapshot{Records: []HistoryRecord{}}
}

// SuccessCount is TotalCount - RejectedCount, a display value.
func (s *HistorySnapshot) SuccessCount() int {
	return s.TotalCount - s.RejectedCount
}

// Filter returns the records matching query, newest first. The match is a
// case-insensitive substring test on reference id, user id and summary.
// The snapshot itself is left untouched.
func (s *HistorySnapshot) Filter(query string) []HistoryRecord {
	q := strings.ToLower(strings.TrimSpace(query))

	out := make([]HistoryRecord, 0, len(s.Records))
	for _, r := range s.Records {
		if q == "" ||
			strings.Contains(strings.ToLower(r.ReferenceID), q) ||
			strings.Contains(strings.ToLower(r.UserID), q) ||
			strings.Contains(strings.ToLower(r.Summary), q) {
			out = append(out, r)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Find returns the record with the given id.
func (s *HistorySnapshot) Find(id string) (HistoryRecord, bool) {
	for _, r := range s.Records {
		if r.ID == id {
			return r, true
		}
	}
	return HistoryRecord{}, false
}
