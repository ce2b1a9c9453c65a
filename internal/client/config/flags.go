package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/casconsole/internal/flagx"
)

var knownFlags = []string{"-a", "-m", "-i", "-t", "-d", "-s", "-l", "-f"}

// parseFlags overlays cfg with command-line flags.
//
//	-a string   api base url
//	-m string   api mode (http or mock)
//	-i int      history poll interval (seconds)
//	-t int      request timeout (seconds, 0 disables)
//	-d string   report download directory
//	-s string   storage backend (sas, azblob, s3)
//	-l string   log level
//	-f string   log format (text or json)
//
// args is filtered with flagx.FilterArgs first so flags owned by other
// loaders (-c) do not break parsing.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, knownFlags)

	fs := flag.NewFlagSet("casconsole", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "api base url")
	fs.StringVar(&cfg.APIMode, "m", cfg.APIMode, "api mode: http or mock")
	poll := fs.Int("i", int(cfg.PollInterval.Seconds()), "history poll interval (in seconds)")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.StringVar(&cfg.DownloadDir, "d", cfg.DownloadDir, "report download directory")
	fs.StringVar(&cfg.Storage.Backend, "s", cfg.Storage.Backend, "storage backend: sas, azblob or s3")
	fs.StringVar(&cfg.Log.Level, "l", cfg.Log.Level, "log level")
	fs.StringVar(&cfg.Log.Format, "f", cfg.Log.Format, "log format: text or json")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "i":
			cfg.PollInterval = time.Duration(*poll) * time.Second
		case "t":
			cfg.RequestTimeout = time.Duration(*timeout) * time.Second
		}
	})
	return nil
}
