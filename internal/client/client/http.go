package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/casconsole/internal/client/models"
	"github.com/dmitrijs2005/casconsole/internal/common"
	"github.com/dmitrijs2005/casconsole/internal/logging"
	"github.com/dmitrijs2005/casconsole/internal/netx"
)

const (
	processRequestPath = "process-request"
	historyPath        = "agent-user-history"

	maxErrorBody = 4 << 10
)

// APIClient is the HTTP implementation of Client.
type APIClient struct {
	baseURL    *url.URL
	httpClient *http.Client
	timeout    time.Duration
	log        logging.Logger
}

// NewAPIClient returns a client for the API rooted at baseURL. timeout
// bounds each call; zero means no per-call limit.
func NewAPIClient(baseURL string, httpClient *http.Client, timeout time.Duration, log logging.Logger) (*APIClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("api base url %q must be absolute", baseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &APIClient{
		baseURL:    u,
		httpClient: httpClient,
		timeout:    timeout,
		log:        log.With("component", "api"),
	}, nil
}

// Resolve turns a possibly relative link from the backend into an absolute URL.
func (c *APIClient) Resolve(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	if u.IsAbs() {
		return u.String(), nil
	}
	root := &url.URL{Scheme: c.baseURL.Scheme, Host: c.baseURL.Host}
	return root.ResolveReference(u).String(), nil
}

func (c *APIClient) endpoint(p string) string {
	return c.baseURL.ResolveReference(&url.URL{Path: p}).String()
}

func (c *APIClient) newRequest(ctx context.Context, method, p, token string, body any) (*http.Request, error) {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(p), rdr)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(common.AuthorizationHeaderName, common.BearerToken(token))
	if id := RequestIDFromContext(ctx); id != "" {
		req.Header.Set(common.RequestIDHeaderName, id)
	}
	return req, nil
}

func (c *APIClient) do(ctx context.Context, op string, req *http.Request) (*http.Response, error) {
	c.log.Debug(ctx, "api request", "method", req.Method, "url", req.URL.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if !netx.IsSuccess(resp.StatusCode) {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		text := strings.TrimSpace(strings.TrimPrefix(resp.Status, fmt.Sprint(resp.StatusCode)))
		if text == "" {
			text = http.StatusText(resp.StatusCode)
		}
		return nil, &TransportError{
			Op:         op,
			StatusCode: resp.StatusCode,
			StatusText: text,
			Body:       strings.TrimSpace(string(b)),
		}
	}
	return resp, nil
}

func (c *APIClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

// Submit posts the batch for processing. Only JSON well-formedness of the
// answer is checked.
func (c *APIClient) Submit(ctx context.Context, r models.UploadRequest, token string) (*models.UploadResult, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodPost, processRequestPath, token, r)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, OpProcessRequest, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var res models.UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("decode process-request response: %w", err)
	}
	return &res, nil
}

// FetchHistory loads the full history. Any answer that is not a 2xx JSON
// document is an error.
func (c *APIClient) FetchHistory(ctx context.Context, token string) (*models.HistorySnapshot, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodGet, historyPath, token, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, OpHistoryRequest, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	ct := resp.Header.Get("Content-Type")
	if mt, _, _ := mime.ParseMediaType(ct); mt != "application/json" {
		return nil, fmt.Errorf("%w: %q", ErrUnexpectedContentType, ct)
	}

	var snap models.HistorySnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	if snap.Records == nil {
		snap.Records = []models.HistoryRecord{}
	}
	return &snap, nil
}
