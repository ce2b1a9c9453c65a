package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/casconsole/internal/client/auth"
	"github.com/dmitrijs2005/casconsole/internal/client/config"
	"github.com/dmitrijs2005/casconsole/internal/client/models"
	"github.com/dmitrijs2005/casconsole/internal/client/services"
	"github.com/dmitrijs2005/casconsole/internal/client/session"
	"github.com/dmitrijs2005/casconsole/internal/logging"
	"github.com/fatih/color"
)

// Deps are the collaborators an App drives. Build them with NewApp or supply
// fakes in tests.
type Deps struct {
	Session   *session.Context
	Uploads   services.UploadOrchestrator
	History   services.HistorySynchronizer
	Downloads services.DownloadManager

	// Creds serves tokens for every backend call. OAuth is set when the
	// console logs in against an identity provider and is nil in static mode.
	Creds    auth.Provider
	OAuth    *auth.OAuth2Provider
	AuthMode string

	Log logging.Logger
	In  io.Reader
	Out io.Writer
}

type App struct {
	session   *session.Context
	uploads   services.UploadOrchestrator
	history   services.HistorySynchronizer
	downloads services.DownloadManager
	creds     auth.Provider
	oauth     *auth.OAuth2Provider
	authMode  string
	log       logging.Logger

	reader *bufio.Reader
	out    io.Writer
}

func newApp(d Deps) *App {
	if d.AuthMode == "" {
		d.AuthMode = config.AuthModeStatic
	}
	a := &App{
		session:   d.Session,
		uploads:   d.Uploads,
		history:   d.History,
		downloads: d.Downloads,
		creds:     d.Creds,
		oauth:     d.OAuth,
		authMode:  d.AuthMode,
		log:       d.Log,
		reader:    bufio.NewReader(d.In),
		out:       d.Out,
	}

	a.uploads.OnChange(a.printProgress)
	a.uploads.OnSuccess(func(ctx context.Context, _ models.UploadResult) {
		if err := a.history.RefreshSilent(ctx); err != nil {
			a.log.Debug(ctx, "history refresh after submission failed", "error", err)
		}
	})
	return a
}

func (a *App) isLoggedIn() bool {
	return a.session.Active()
}

func (a *App) getStatus() string {
	if !a.session.Active() {
		return "(logged out)"
	}
	st := a.uploads.State()
	s := a.session.Principal() + " " + string(st.Status)
	if st.ReferenceID != "" {
		s += " " + st.ReferenceID
	}
	return fmt.Sprintf("(%s)", s)
}

func statusLabel(s models.Status) string {
	switch s {
	case models.StatusSuccess:
		return color.GreenString(string(s))
	case models.StatusFailed:
		return color.RedString(string(s))
	case models.StatusUploading, models.StatusProcessing:
		return color.YellowString(string(s))
	default:
		return string(s)
	}
}

// printProgress echoes progress messages of an active submission.
func (a *App) printProgress(st services.OrchestratorState) {
	if st.Message == "" || !st.Status.Active() {
		return
	}
	fmt.Fprintf(a.out, "[%s] %s\n", statusLabel(st.Status), st.Message)
}

// Run restores a persisted session and serves the REPL until exit or EOF.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "CAS Document Console (type 'help' for commands)")

	if err := a.restore(ctx); err != nil {
		a.log.Warn(ctx, "session restore failed", "error", err)
	}

	scanner := bufio.NewScanner(lineSource{r: a.reader})
	runREPL(ctx, a, a.getStatus, scanner)

	a.history.Stop()
}

// restore resumes a persisted session. In identity provider modes the token
// does not survive a restart, so such a session is ended instead.
func (a *App) restore(ctx context.Context) error {
	if err := a.session.Restore(ctx); err != nil {
		return err
	}
	if !a.session.Active() {
		return nil
	}
	if _, err := a.creds.Token(ctx); err != nil {
		fmt.Fprintln(a.out, "Previous session expired, please login again")
		return a.session.End(ctx)
	}

	fmt.Fprintf(a.out, "Welcome back, %s\n", a.session.Principal())
	a.history.Start(ctx)
	return nil
}

func oneArg(args []string, usage string) (string, error) {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return "", fmt.Errorf("usage: %s", usage)
	}
	return args[0], nil
}
