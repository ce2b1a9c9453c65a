package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/casconsole/internal/client/models"
	"github.com/fatih/color"
)

func recordStatus(s string) string {
	switch s {
	case models.RecordStatusComplete:
		return color.GreenString(s)
	case models.RecordStatusFail:
		return color.RedString(s)
	default:
		return s
	}
}

// History prints the current snapshot, optionally filtered by query.
func (a *App) History(_ context.Context, args []string) error {
	snap := a.history.Snapshot()
	query := strings.Join(args, " ")
	recs := a.history.View(query)

	fmt.Fprintf(a.out, "Total: %d  Completed: %d  Rejected: %d\n", snap.TotalCount, snap.SuccessCount(), snap.RejectedCount)
	if st := a.history.Stats(); st.LastError != "" && st.Failures > 0 {
		fmt.Fprintf(a.out, "%s last refresh failed: %s\n", color.YellowString("Note:"), st.LastError)
	}
	if len(recs) == 0 {
		fmt.Fprintln(a.out, "No records")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCAS\tUSER\tSTATUS\tFILES\tCREATED\tREPORT")
	for _, r := range recs {
		report := "N.A"
		if r.Downloadable() {
			report = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d/%d\t%s\t%s\n",
			r.ID, r.ReferenceID, r.UserID, recordStatus(r.Status),
			r.AcceptedFiles, r.TotalFiles,
			r.CreatedAt.Local().Format(time.DateTime), report)
	}
	return tw.Flush()
}

// Refresh reloads the history. A failed fetch is reported as a note and
// the previous records stay on screen.
func (a *App) Refresh(ctx context.Context, _ []string) error {
	before := a.history.Stats().Failures
	if err := a.history.Refresh(ctx); err != nil {
		return err
	}
	if st := a.history.Stats(); st.Failures > before {
		fmt.Fprintf(a.out, "%s last refresh failed: %s\n", color.YellowString("Note:"), st.LastError)
		return nil
	}
	fmt.Fprintf(a.out, "History updated: %d record(s)\n", len(a.history.Snapshot().Records))
	return nil
}

// Download saves a report. With a record id it uses that history record;
// without one it uses the last successful submission.
func (a *App) Download(ctx context.Context, args []string) error {
	var rec models.HistoryRecord

	switch len(args) {
	case 0:
		st := a.uploads.State()
		if st.Result == nil || !st.Result.IsSuccess() {
			return fmt.Errorf("usage: download <record-id>")
		}
		rec = models.HistoryRecord{
			ID:          st.AttemptID,
			ReferenceID: st.Result.ReferenceID,
			DownloadURL: st.Result.DownloadURL,
		}
		if rec.ReferenceID == "" {
			rec.ReferenceID = st.ReferenceID
		}
	case 1:
		r, ok := a.history.Snapshot().Find(args[0])
		if !ok {
			return fmt.Errorf("no history record %q", args[0])
		}
		rec = r
	default:
		return fmt.Errorf("usage: download [record-id]")
	}

	path, err := a.downloads.Download(ctx, rec)
	if err != nil {
		return err
	}
	if path != "" {
		fmt.Fprintf(a.out, "Saved %s\n", path)
	}
	return nil
}
