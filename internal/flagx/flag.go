// Package flagx lets the console's config layers share one argv: each layer
// picks out the flags it owns and ignores the rest.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// ConfigPathEnv names the config file when neither -c nor -config is given.
const ConfigPathEnv = "CASCONSOLE_CONFIG"

// FilterArgs keeps the arguments that belong to allowed flags, in order.
// Both "-c file" and "-c=file" forms are recognised; a separate value is
// taken only when it does not start with "-". Positional arguments and
// unknown flags are dropped.
func FilterArgs(args []string, allowed []string) []string {
	known := make(map[string]bool, len(allowed))
	for _, f := range allowed {
		known[f] = true
	}

	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		name, _, inline := splitFlag(args[i])
		if !known[name] {
			continue
		}
		out = append(out, args[i])
		if !inline && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			i++
			out = append(out, args[i])
		}
	}
	return out
}

// splitFlag separates "-name=value". inline is false for arguments without
// '=' and for anything that is not a flag.
func splitFlag(arg string) (name, value string, inline bool) {
	if !strings.HasPrefix(arg, "-") {
		return arg, "", false
	}
	name, value, inline = strings.Cut(arg, "=")
	return name, value, inline
}

// ConfigPath returns the JSON config file named by -c or -config in args,
// or $CASCONSOLE_CONFIG. The last flag wins. "" means no file.
func ConfigPath(args []string) string {
	var path string

	fs := flag.NewFlagSet("config-path", flag.ContinueOnError)
	fs.StringVar(&path, "config", "", "config file")
	fs.StringVar(&path, "c", "", "config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config"}))

	if path == "" {
		path = os.Getenv(ConfigPathEnv)
	}
	return path
}
