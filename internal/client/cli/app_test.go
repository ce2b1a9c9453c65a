package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/casconsole/internal/client/auth"
	"github.com/dmitrijs2005/casconsole/internal/client/client"
	"github.com/dmitrijs2005/casconsole/internal/client/config"
	"github.com/dmitrijs2005/casconsole/internal/client/models"
	"github.com/dmitrijs2005/casconsole/internal/client/services"
	"github.com/dmitrijs2005/casconsole/internal/client/session"
	"github.com/dmitrijs2005/casconsole/internal/logging"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

// memObjects is an in-memory storage.ObjectStore.
type memObjects struct {
	mu   sync.Mutex
	puts map[string][]byte
	fail error
}

func (m *memObjects) Put(_ context.Context, path string, f models.StagedFile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return err
	}
	if m.puts == nil {
		m.puts = map[string][]byte{}
	}
	m.puts[path] = data
	return nil
}

func (m *memObjects) setFail(err error) {
	m.mu.Lock()
	m.fail = err
	m.mu.Unlock()
}

type testEnv struct {
	app     *App
	out     *bytes.Buffer
	objects *memObjects
	backend *client.MockSubmitter
	sess    *session.Context
	store   *session.MemoryStore
	dlDir   string
	reports *httptest.Server
}

func newTestEnv(t *testing.T, input string, token string) *testEnv {
	t.Helper()

	reports := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("report for " + r.URL.Query().Get("path")))
	}))
	t.Cleanup(reports.Close)

	api, err := client.NewAPIClient(reports.URL+"/api/", reports.Client(), 0, logging.Nop())
	require.NoError(t, err)

	env := &testEnv{
		out:     &bytes.Buffer{},
		objects: &memObjects{},
		backend: client.NewMockSubmitter(0),
		store:   session.NewMemoryStore(),
		dlDir:   t.TempDir(),
		reports: reports,
	}
	log := logging.Nop()
	env.sess = session.New(env.store, log)
	creds := auth.NewStaticProvider(token)

	env.app = newApp(Deps{
		Session:   env.sess,
		Uploads:   services.NewUploadOrchestrator(env.objects, env.backend, creds, env.sess, log),
		History:   services.NewHistorySynchronizer(env.backend, creds, env.sess, time.Hour, log),
		Downloads: services.NewDownloadManager(reports.Client(), api, creds, env.dlDir, services.PrintOpener{W: env.out}, log),
		Creds:     creds,
		Log:       log,
		In:        strings.NewReader(input),
		Out:       env.out,
	})
	t.Cleanup(env.app.history.Stop)
	return env
}

func writeDocs(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("content of "+n), 0o600))
	}
	return dir
}

func TestApp_FullFlow(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "alice\n", auth.MockToken)
	a := env.app
	docs := writeDocs(t, "a.pdf", "b.pdf", "notes.txt")

	require.NoError(t, a.Login(ctx, nil))
	assert.True(t, a.isLoggedIn())
	assert.True(t, a.history.Running())
	assert.Equal(t, "(alice idle)", a.getStatus())

	require.NoError(t, a.SetReference(ctx, []string{"CAS-1"}))
	require.NoError(t, a.AddFiles(ctx, []string{filepath.Join(docs, "*.pdf")}))
	require.NoError(t, a.ListFiles(ctx, nil))
	assert.Contains(t, env.out.String(), "a.pdf")
	assert.Equal(t, "(alice idle CAS-1)", a.getStatus())

	require.NoError(t, a.Submit(ctx, nil))

	out := env.out.String()
	assert.Contains(t, out, services.MsgInitializing)
	assert.Contains(t, out, "Uploading 1/2: a.pdf...")
	assert.Contains(t, out, "Uploading 2/2: b.pdf...")
	assert.Contains(t, out, services.MsgProcessing)
	assert.Contains(t, out, "CAS-1 processed, report CAS-1_report.csv")

	assert.Equal(t, []byte("content of a.pdf"), env.objects.puts["CAS-1/a.pdf"])
	assert.Contains(t, env.objects.puts, "CAS-1/b.pdf")

	snap := a.history.Snapshot()
	require.Len(t, snap.Records, 1, "history refreshed after success")
	rec := snap.Records[0]
	assert.Equal(t, "alice", rec.UserID)

	env.out.Reset()
	require.NoError(t, a.History(ctx, []string{"cas-1"}))
	assert.Contains(t, env.out.String(), "Total: 1  Completed: 1  Rejected: 0")
	assert.Contains(t, env.out.String(), rec.ID)

	env.out.Reset()
	require.NoError(t, a.Download(ctx, nil))
	saved := filepath.Join(env.dlDir, "CAS-1_report.csv")
	assert.Contains(t, env.out.String(), "Saved "+saved)
	data, err := os.ReadFile(saved)
	require.NoError(t, err)
	assert.Equal(t, "report for CAS-1_report.csv", string(data))

	require.NoError(t, os.Remove(saved))
	require.NoError(t, a.Download(ctx, []string{rec.ID}))
	assert.FileExists(t, saved)

	require.NoError(t, a.Logout(ctx, nil))
	assert.False(t, a.isLoggedIn())
	assert.False(t, a.history.Running())
	assert.Empty(t, a.history.Snapshot().Records)
	st := a.uploads.State()
	assert.Equal(t, models.StatusIdle, st.Status)
	assert.Empty(t, st.Files)
	assert.Equal(t, "(logged out)", a.getStatus())
}

func TestApp_SubmitFailureThenRetry(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "alice\n", auth.MockToken)
	a := env.app
	docs := writeDocs(t, "a.pdf")

	require.NoError(t, a.Login(ctx, nil))
	require.NoError(t, a.SetReference(ctx, []string{"CAS-9"}))
	require.NoError(t, a.AddFiles(ctx, []string{filepath.Join(docs, "a.pdf")}))

	env.objects.setFail(errors.New("Azure Upload Failed: Forbidden"))
	err := a.Submit(ctx, nil)
	require.EqualError(t, err, "Azure Upload Failed: Forbidden")
	assert.Equal(t, models.StatusFailed, a.uploads.State().Status)
	assert.Empty(t, a.history.Snapshot().Records)

	env.objects.setFail(nil)
	require.NoError(t, a.Retry(ctx, nil))
	assert.Equal(t, models.StatusSuccess, a.uploads.State().Status)

	env.out.Reset()
	require.NoError(t, a.Retry(ctx, nil))
	assert.Contains(t, env.out.String(), "Nothing to retry")
}

func TestApp_SubmitWithoutStaging(t *testing.T) {
	env := newTestEnv(t, "alice\n", auth.MockToken)

	err := env.app.Submit(context.Background(), nil)
	require.ErrorIs(t, err, services.ErrNothingToSubmit)
}

func TestApp_StagingErrors(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "", auth.MockToken)
	a := env.app
	docs := writeDocs(t, "a.pdf")

	require.Error(t, a.SetReference(ctx, nil))
	require.Error(t, a.AddFiles(ctx, nil))

	err := a.AddFiles(ctx, []string{filepath.Join(docs, "a.pdf"), filepath.Join(docs, "missing.pdf")})
	require.Error(t, err)
	assert.Empty(t, a.uploads.State().Files, "nothing staged when any file fails")

	require.NoError(t, a.AddFiles(ctx, []string{filepath.Join(docs, "a.pdf")}))
	require.Error(t, a.RemoveFile(ctx, []string{"x"}))
	require.ErrorIs(t, a.RemoveFile(ctx, []string{"2"}), services.ErrFileIndexOutOfRange)
	require.NoError(t, a.RemoveFile(ctx, []string{"1"}))
	assert.Empty(t, a.uploads.State().Files)

	env.out.Reset()
	require.NoError(t, a.ListFiles(ctx, nil))
	assert.Equal(t, "No files staged\n", env.out.String())
}

func TestApp_DownloadErrors(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "alice\n", auth.MockToken)
	a := env.app
	require.NoError(t, a.Login(ctx, nil))

	require.Error(t, a.Download(ctx, nil), "no successful submission yet")
	require.Error(t, a.Download(ctx, []string{"missing"}))
	require.Error(t, a.Download(ctx, []string{"a", "b"}))
}

func TestApp_LoginRequiresName(t *testing.T) {
	env := newTestEnv(t, "\n", auth.MockToken)

	require.Error(t, env.app.Login(context.Background(), nil))
	assert.False(t, env.app.isLoggedIn())
}

func TestApp_LoginTwice(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "alice\n", auth.MockToken)

	require.NoError(t, env.app.Login(ctx, nil))
	require.NoError(t, env.app.Login(ctx, nil))
	assert.Contains(t, env.out.String(), "Already logged in as alice")
}

func TestApp_RunRestoresSession(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "status\nexit\n", auth.MockToken)
	require.NoError(t, env.store.Save(ctx, session.State{Active: true, Principal: "bob"}))

	env.app.Run(ctx)

	out := env.out.String()
	assert.Contains(t, out, "Welcome back, bob")
	assert.True(t, env.sess.Active())
	assert.False(t, env.app.history.Running(), "poller stops when the console exits")
}

func TestApp_RunEndsSessionWithoutCredential(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "exit\n", "")
	require.NoError(t, env.store.Save(ctx, session.State{Active: true, Principal: "bob"}))

	env.app.Run(ctx)

	assert.Contains(t, env.out.String(), "Previous session expired")
	assert.False(t, env.sess.Active())
	st, err := env.store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, st.Active)
}

func TestApp_PasswordLogin(t *testing.T) {
	idp := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.Form.Get("username") != "carol" || r.Form.Get("password") != "pw" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"opaque","token_type":"Bearer","expires_in":3600}`))
	}))
	defer idp.Close()

	origPw := getPassword
	getPassword = func(io.Writer) ([]byte, error) { return []byte("pw"), nil }
	t.Cleanup(func() { getPassword = origPw })

	env := newTestEnv(t, "carol\n", "")
	env.app.authMode = config.AuthModePassword
	env.app.oauth = auth.NewOAuth2Provider(auth.OAuth2Config{
		ClientID:   "console",
		HTTPClient: idp.Client(),
		Endpoint:   oauth2.Endpoint{TokenURL: idp.URL + "/token"},
	})

	require.NoError(t, env.app.Login(context.Background(), nil))
	assert.Equal(t, "carol", env.sess.Principal(), "opaque tokens fall back to the typed name")

	tok, err := env.app.oauth.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "opaque", tok)

	require.NoError(t, env.app.Logout(context.Background(), nil))
	_, err = env.app.oauth.Token(context.Background())
	require.ErrorIs(t, err, auth.ErrNoCredential)
}

func TestApp_PasswordLoginRejected(t *testing.T) {
	idp := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer idp.Close()

	origPw := getPassword
	getPassword = func(io.Writer) ([]byte, error) { return []byte("wrong"), nil }
	t.Cleanup(func() { getPassword = origPw })

	env := newTestEnv(t, "carol\n", "")
	env.app.authMode = config.AuthModePassword
	env.app.oauth = auth.NewOAuth2Provider(auth.OAuth2Config{
		ClientID:   "console",
		HTTPClient: idp.Client(),
		Endpoint:   oauth2.Endpoint{TokenURL: idp.URL + "/token"},
	})

	require.Error(t, env.app.Login(context.Background(), nil))
	assert.False(t, env.sess.Active())
}

type failingFetcher struct{ err error }

func (f failingFetcher) FetchHistory(context.Context, string) (*models.HistorySnapshot, error) {
	return nil, f.err
}

func TestApp_RefreshFailureIsReportedAsNote(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "alice\n", auth.MockToken)
	a := env.app
	a.history = services.NewHistorySynchronizer(
		failingFetcher{err: errors.New("History Request Failed: Bad Gateway")},
		auth.NewStaticProvider(auth.MockToken), env.sess, time.Hour, logging.Nop())
	require.NoError(t, env.sess.Begin(ctx, "alice"))

	require.NoError(t, a.Refresh(ctx, nil))
	assert.Contains(t, env.out.String(), "Note: last refresh failed: History Request Failed: Bad Gateway")
	assert.NotContains(t, env.out.String(), "History updated")

	env.out.Reset()
	require.NoError(t, a.History(ctx, nil))
	assert.Contains(t, env.out.String(), "Note: last refresh failed")
	assert.Contains(t, env.out.String(), "No records")
}
