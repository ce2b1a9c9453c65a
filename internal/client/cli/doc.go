// Package cli provides the interactive CAS document console.
//
// It wires configuration, the session store, storage and backend clients and
// the upload, history and download services behind a line-oriented REPL.
// Typical flow: login, set a reference id with "cas", stage documents with
// "add", "submit", then inspect "history" and "download" reports.
//
// History polling starts on login and stops on logout or exit. A persisted
// session is resumed at start-up.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See NewApp, App and runREPL for details.
package cli
