package cli

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the command surface the REPL dispatches to.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context, args []string) error
	Logout(ctx context.Context, args []string) error
	SetReference(ctx context.Context, args []string) error
	AddFiles(ctx context.Context, args []string) error
	RemoveFile(ctx context.Context, args []string) error
	ClearFiles(ctx context.Context, args []string) error
	ListFiles(ctx context.Context, args []string) error
	Submit(ctx context.Context, args []string) error
	Retry(ctx context.Context, args []string) error
	Reset(ctx context.Context, args []string) error
	Status(ctx context.Context, args []string) error
	History(ctx context.Context, args []string) error
	Refresh(ctx context.Context, args []string) error
	Download(ctx context.Context, args []string) error
}

// lineSource hands its scanner at most one line per Read, so prompts that
// read from the same bufio.Reader see the lines after the command.
type lineSource struct {
	r *bufio.Reader
}

func (l lineSource) Read(p []byte) (int, error) {
	if _, err := l.r.Peek(1); err != nil {
		return 0, err
	}
	buf, _ := l.r.Peek(l.r.Buffered())
	if i := bytes.IndexByte(buf, '\n'); i >= 0 {
		buf = buf[:i+1]
	}
	n := copy(p, buf)
	_, _ = l.r.Discard(n)
	return n, nil
}

const (
	helpLoggedOut = "Available commands: login, help, exit"
	helpLoggedIn  = "Available commands: cas <id>, add <file|glob>..., rm <n>, clear, files, submit, retry, reset, status, history [query], refresh, download [record-id], logout, exit"
)

// runREPL reads commands line by line from scanner and dispatches them to a.
// The loop exits on scanner EOF or when the user types "exit" or "quit".
//
// Everything except help, login and exit requires an active session.
// Handler errors are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("cas %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var handler func(context.Context, []string) error

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpLoggedOut)
			}
			continue

		case "exit", "quit":
			printlnFn("Bye!")
			return

		case "login":
			handler = a.Login
		case "logout":
			handler = a.Logout
		case "cas":
			handler = a.SetReference
		case "add":
			handler = a.AddFiles
		case "rm":
			handler = a.RemoveFile
		case "clear":
			handler = a.ClearFiles
		case "files", "ls":
			handler = a.ListFiles
		case "submit":
			handler = a.Submit
		case "retry":
			handler = a.Retry
		case "reset":
			handler = a.Reset
		case "status":
			handler = a.Status
		case "history", "h":
			handler = a.History
		case "refresh":
			handler = a.Refresh
		case "download", "dl":
			handler = a.Download

		default:
			printlnFn("Unknown command:", cmd)
			continue
		}

		if cmd != "login" && !a.isLoggedIn() {
			printlnFn("Please login first")
			continue
		}

		if err := handler(ctx, args); err != nil {
			printlnFn(color.RedString("Error:"), err)
		}
	}
}
