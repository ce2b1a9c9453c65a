package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"sync"

	"github.com/dmitrijs2005/casconsole/internal/client/auth"
	"github.com/dmitrijs2005/casconsole/internal/client/models"
	"github.com/dmitrijs2005/casconsole/internal/common"
	"github.com/dmitrijs2005/casconsole/internal/filex"
	"github.com/dmitrijs2005/casconsole/internal/logging"
	"github.com/dmitrijs2005/casconsole/internal/netx"
)

// Opener hands a link to the operator when a report cannot be fetched.
type Opener interface {
	Open(ctx context.Context, url string) error
}

// PrintOpener writes the link to W.
type PrintOpener struct {
	W io.Writer
}

func (p PrintOpener) Open(_ context.Context, url string) error {
	_, err := fmt.Fprintf(p.W, "Download failed, open the report manually: %s\n", url)
	return err
}

// URLResolver turns backend links into absolute URLs.
type URLResolver interface {
	Resolve(ref string) (string, error)
}

// DownloadManager fetches processing reports to the local download directory.
//
// Contract:
//   - InFlight reports whether any download of a record is running. A second
//     request for the same record is allowed; each writes its own temp file.
//   - Records without a report link return ErrNotDownloadable, no request.
//   - A failed resolve or fetch falls back to the Opener and returns ("", nil).
type DownloadManager interface {
	Download(ctx context.Context, rec models.HistoryRecord) (string, error)
	InFlight(id string) bool
}

type downloadManager struct {
	httpClient *http.Client
	resolver   URLResolver
	creds      auth.Provider
	dir        string
	opener     Opener
	log        logging.Logger

	mu       sync.Mutex
	inFlight map[string]int
}

func NewDownloadManager(httpClient *http.Client, resolver URLResolver, creds auth.Provider, dir string, opener Opener, log logging.Logger) DownloadManager {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &downloadManager{
		httpClient: httpClient,
		resolver:   resolver,
		creds:      creds,
		dir:        dir,
		opener:     opener,
		log:        log.With("component", "download"),
		inFlight:   make(map[string]int),
	}
}

func (m *downloadManager) InFlight(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inFlight[id] > 0
}

func (m *downloadManager) acquire(id string) {
	m.mu.Lock()
	m.inFlight[id]++
	m.mu.Unlock()
}

func (m *downloadManager) release(id string) {
	m.mu.Lock()
	if m.inFlight[id]--; m.inFlight[id] <= 0 {
		delete(m.inFlight, id)
	}
	m.mu.Unlock()
}

// Download saves the record's report and returns the local path.
func (m *downloadManager) Download(ctx context.Context, rec models.HistoryRecord) (string, error) {
	if !rec.Downloadable() {
		return "", ErrNotDownloadable
	}
	m.acquire(rec.ID)
	defer m.release(rec.ID)

	link, err := m.resolver.Resolve(rec.DownloadURL)
	if err != nil {
		return "", m.handOff(ctx, rec, rec.DownloadURL, fmt.Errorf("resolve %q: %w", rec.DownloadURL, err))
	}

	dest, err := m.fetch(ctx, rec, link)
	if err != nil {
		return "", m.handOff(ctx, rec, link, err)
	}

	m.log.Info(ctx, "report downloaded", "record_id", rec.ID, "path", dest)
	return dest, nil
}

// handOff gives link to the Opener after a failed download. Only an Opener
// failure is returned.
func (m *downloadManager) handOff(ctx context.Context, rec models.HistoryRecord, link string, cause error) error {
	m.log.Warn(ctx, "report download failed, handing link to operator", "record_id", rec.ID, "url", link, "error", cause)
	if err := m.opener.Open(ctx, link); err != nil {
		return fmt.Errorf("open %s: %w", link, err)
	}
	return nil
}

func (m *downloadManager) fetch(ctx context.Context, rec models.HistoryRecord, link string) (string, error) {
	dir, err := filex.EnsureDir(m.dir)
	if err != nil {
		return "", err
	}
	dest := filepath.Join(dir, filex.DeriveFileName(link, rec.ReferenceID+"_report"))

	var headers map[string]string
	if token, err := m.creds.Token(ctx); err == nil {
		headers = map[string]string{common.AuthorizationHeaderName: common.BearerToken(token)}
	}

	if err := netx.DownloadToFile(ctx, m.httpClient, link, dest, headers); err != nil {
		return "", err
	}
	return dest, nil
}
