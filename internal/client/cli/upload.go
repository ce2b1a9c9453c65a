package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/dmitrijs2005/casconsole/internal/client/models"
	"github.com/dmitrijs2005/casconsole/internal/client/services"
)

func (a *App) SetReference(_ context.Context, args []string) error {
	id, err := oneArg(args, "cas <reference-id>")
	if err != nil {
		return err
	}
	if err := a.uploads.SetReferenceID(id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Reference id set to %s\n", a.uploads.State().ReferenceID)
	return nil
}

// expandPatterns resolves each argument as a glob. An argument without
// matches is kept as-is so the stat error names it.
func expandPatterns(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			matches = []string{arg}
		}
		paths = append(paths, matches...)
	}
	return paths, nil
}

// AddFiles stages files. Nothing is staged when any argument fails.
func (a *App) AddFiles(_ context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: add <file|glob>...")
	}
	paths, err := expandPatterns(args)
	if err != nil {
		return err
	}

	files := make([]models.StagedFile, 0, len(paths))
	for _, p := range paths {
		f, err := models.NewStagedFileFromPath(p)
		if err != nil {
			return err
		}
		files = append(files, f)
	}

	if err := a.uploads.AddFiles(files...); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Staged %d file(s), %d total\n", len(files), len(a.uploads.State().Files))
	return nil
}

// RemoveFile takes the 1-based position shown by "files".
func (a *App) RemoveFile(_ context.Context, args []string) error {
	arg, err := oneArg(args, "rm <n>")
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(arg)
	if err != nil {
		return fmt.Errorf("usage: rm <n>: %w", err)
	}
	return a.uploads.RemoveFile(n - 1)
}

func (a *App) ClearFiles(context.Context, []string) error {
	return a.uploads.ClearFiles()
}

func (a *App) ListFiles(context.Context, []string) error {
	st := a.uploads.State()
	if len(st.Files) == 0 {
		fmt.Fprintln(a.out, "No files staged")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tSIZE\tTYPE")
	for i, f := range st.Files {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", i+1, f.Name, f.Size, f.ContentType)
	}
	return tw.Flush()
}

func (a *App) Submit(ctx context.Context, _ []string) error {
	res, err := a.uploads.Submit(ctx)
	if err != nil {
		if errors.Is(err, services.ErrNothingToSubmit) {
			return fmt.Errorf("%w (use cas and add first)", err)
		}
		return err
	}

	fmt.Fprintf(a.out, "[%s] %s processed, report %s\n", statusLabel(models.StatusSuccess), res.ReferenceID, res.ReportPath)
	if res.DownloadURL != "" {
		fmt.Fprintln(a.out, "Use 'download' to save the report")
	}
	return nil
}

// Retry resubmits the current staging after a failure.
func (a *App) Retry(ctx context.Context, args []string) error {
	if a.uploads.State().Status != models.StatusFailed {
		fmt.Fprintln(a.out, "Nothing to retry")
		return nil
	}
	return a.Submit(ctx, args)
}

func (a *App) Reset(context.Context, []string) error {
	if err := a.uploads.Reset(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Cleared")
	return nil
}

func (a *App) Status(context.Context, []string) error {
	st := a.uploads.State()

	fmt.Fprintf(a.out, "Status:    %s\n", statusLabel(st.Status))
	if st.Message != "" {
		fmt.Fprintf(a.out, "Message:   %s\n", st.Message)
	}
	fmt.Fprintf(a.out, "Reference: %s\n", st.ReferenceID)
	fmt.Fprintf(a.out, "Files:     %d\n", len(st.Files))
	if st.AttemptID != "" {
		fmt.Fprintf(a.out, "Attempt:   %s\n", st.AttemptID)
	}
	if r := st.Result; r != nil {
		fmt.Fprintf(a.out, "Result:    %s", r.Status)
		if r.ReportPath != "" {
			fmt.Fprintf(a.out, " (report %s)", r.ReportPath)
		}
		fmt.Fprintln(a.out)
	}
	return nil
}
