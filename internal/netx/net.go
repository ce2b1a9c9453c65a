// Package netx contains the raw HTTP primitives behind the storage and
// download adapters: a single-shot authenticated-by-URL PUT and a GET that
// materializes the response body into a local file.
package netx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// maxErrorBody bounds how much of a failed response body is kept for diagnostics.
const maxErrorBody = 4 << 10

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	Code       int
	StatusText string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d %s", e.Code, e.StatusText)
	}
	return fmt.Sprintf("unexpected status %d %s; body: %s", e.Code, e.StatusText, e.Body)
}

func newStatusError(resp *http.Response) *StatusError {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{
		Code:       resp.StatusCode,
		StatusText: statusText(resp),
		Body:       strings.TrimSpace(string(b)),
	}
}

// statusText strips the numeric code from resp.Status ("403 Forbidden" -> "Forbidden").
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

// IsSuccess reports whether code is 2xx.
func IsSuccess(code int) bool {
	return code >= 200 && code < 300
}

// Put sends body to url with a single PUT. size may be -1 when unknown.
// Any non-2xx status is returned as *StatusError.
func Put(ctx context.Context, client *http.Client, url string, body io.Reader, size int64, headers map[string]string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, body)
	if err != nil {
		return err
	}
	if size >= 0 {
		req.ContentLength = size
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if !IsSuccess(resp.StatusCode) {
		return newStatusError(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// DownloadToFile fetches url and writes the body to dest. The body goes to a
// uniquely named "<dest>.*.part" file first and is renamed on success; the
// temporary file is removed on every failure path so no partial file survives.
func DownloadToFile(ctx context.Context, client *http.Client, url, dest string, headers map[string]string) (err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if !IsSuccess(resp.StatusCode) {
		return newStatusError(resp)
	}

	f, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".*.part")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	if _, err = io.Copy(f, resp.Body); err != nil {
		return err
	}
	if err = f.Sync(); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, dest)
}
