// Package filex holds filesystem helpers for the console: resolving the
// report download directory and naming downloaded files.
package filex

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// EnsureDir creates dir (and parents) if needed and returns its absolute path.
// Relative paths are resolved against the current working directory.
func EnsureDir(dir string) (string, error) {
	if !filepath.IsAbs(dir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		dir = filepath.Join(cwd, dir)
	}

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// DeriveFileName picks a local file name for a download URL.
//
// A "path" query parameter wins (the report endpoint uses
// /download-report?path=<name>), then the last segment of the URL path.
// fallback is used when the chosen source yields no usable name. Directory
// components are always stripped and names starting with ".." are never
// used, so the result stays inside the download directory.
func DeriveFileName(rawURL, fallback string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fallback
	}

	if p := u.Query().Get("path"); p != "" {
		if name := path.Base(p); usableName(name) {
			return name
		}
		return fallback
	}

	if name := path.Base(u.Path); usableName(name) {
		return name
	}
	return fallback
}

func usableName(name string) bool {
	name = strings.TrimSpace(name)
	return name != "" && name != "." && name != "/" &&
		!strings.HasPrefix(name, "..") && !strings.ContainsAny(name, `/\`)
}
