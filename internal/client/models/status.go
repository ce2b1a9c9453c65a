package models

// Status is the lifecycle state of one submission attempt.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusUploading  Status = "uploading"
	StatusProcessing Status = "processing"
	StatusSuccess    Status = "success"
	StatusFailed     Status = "failed"
)

// Active reports whether an orchestration is running. Staging and
// submission are locked while active.
func (s Status) Active() bool {
	return s == StatusUploading || s == StatusProcessing
}

// Terminal reports whether the attempt has finished.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

func (s Status) String() string {
	return string(s)
}
