package logging

import (
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// Options configures the root logger.
type Options struct {
	Level      string
	JSONFormat bool
	Output     io.Writer
}

// New creates the named root logger. VULNSCOUT_LOG_LEVEL wins over
// opts.Level. Logs go to stderr by default so command output stays clean.
func New(name string, opts Options) hclog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Level:      ParseLevel(levelFrom(opts.Level)),
		JSONFormat: opts.JSONFormat,
		Output:     out,
	})
}

func levelFrom(configured string) string {
	if env := os.Getenv("VULNSCOUT_LOG_LEVEL"); env != "" {
		return env
	}
	return configured
}

// ParseLevel converts a level name to an hclog.Level, defaulting to Info.
func ParseLevel(s string) hclog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return hclog.Trace
	case "DEBUG":
		return hclog.Debug
	case "INFO", "":
		return hclog.Info
	case "WARN", "WARNING":
		return hclog.Warn
	case "ERROR":
		return hclog.Error
	case "OFF":
		return hclog.Off
	default:
		return hclog.Info
	}
}
