package models

// ResultStatusSuccess is the only job status treated as success.
const ResultStatusSuccess = "success"

// UploadRequest is the job submission payload, built after every storage
// write succeeded.
type UploadRequest struct {
	ReferenceID  string   `json:"cas_id"`
	StoragePaths []string `json:"document_path"`
	Principal    string   `json:"username,omitempty"`
}

// UploadResult is the backend's answer to a job submission.
type UploadResult struct {
	Status       string `json:"status"`
	ReferenceID  string `json:"cas_id"`
	ReportPath   string `json:"report_path,omitempty"`
	DownloadURL  string `json:"download_url,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// IsSuccess reports whether the backend accepted the batch.
func (r UploadResult) IsSuccess() bool {
	return r.Status == ResultStatusSuccess
}
