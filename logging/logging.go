// Package logging wires up zerolog the way the teacher's log package
// does (console writer, custom field names, a package-level level),
// but parameterized by config instead of hardcoded to a fixed file.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Level orders the CLI log-level flags: DEBUG < INFO < WARNING < ERROR
// < CRITICAL, most-restrictive-wins on conflict.
type Level int

const (
	Debug Level = iota
	Info
	Warning
	Error
	Critical
)

// ParseLevel accepts the config/CLI spelling ("debug", "info", ...),
// case-insensitively. Unknown values fall back to Info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return Debug
	case "warning", "warn":
		return Warning
	case "error":
		return Error
	case "critical", "fatal":
		return Critical
	default:
		return Info
	}
}

// Restrictive returns whichever of a, b excludes more output, for
// resolving conflicting CLI log-level flags.
func Restrictive(a, b Level) Level {
	if b > a {
		return b
	}
	return a
}

func (l Level) zerolog() zerolog.Level {
	switch l {
	case Debug:
		return zerolog.DebugLevel
	case Warning:
		return zerolog.WarnLevel
	case Error:
		return zerolog.ErrorLevel
	case Critical:
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// Config configures New, sourced from the `logging.*` config block.
type Config struct {
	Level  Level
	Format string // "console" or "json"; anything else defaults to console
	File   string // empty writes to stderr
}

// New builds a zerolog.Logger per cfg. On file-open failure it falls
// back to stderr and logs the failure through the fallback logger
// itself, matching the teacher's "never let logging setup crash the
// program" posture without the teacher's own panic-on-open-failure.
func New(cfg Config) zerolog.Logger {
	zerolog.TimestampFieldName = "t"
	zerolog.LevelFieldName = "l"
	zerolog.MessageFieldName = "m"

	var out io.Writer = os.Stderr
	var openErr error
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			openErr = err
		} else {
			out = f
		}
	}

	if strings.ToLower(cfg.Format) != "json" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	logger := zerolog.New(out).Level(cfg.Level.zerolog()).With().Timestamp().Logger()
	if openErr != nil {
		logger.Warn().Err(openErr).Str("file", cfg.File).Msg("log file open failed, writing to stderr instead")
	}
	return logger
}

// ErrUnknownFormat describes a logging.format that names something
// other than console/json; no code in this module returns it.
var ErrUnknownFormat = fmt.Errorf("logging: unknown format, want %q or %q", "console", "json")
