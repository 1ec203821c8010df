// Package logging configures the logrus logger shared by every component.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// LevelEnv overrides the default log level.
const LevelEnv = "STEWARD_LOG_LEVEL"

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// New returns a logger writing to w (stderr when nil). An empty level falls
// back to $STEWARD_LOG_LEVEL and then to info.
func New(level, format string, w io.Writer) (*logrus.Logger, error) {
	if level == "" {
		level = os.Getenv(LevelEnv)
	}
	if level == "" {
		level = logrus.InfoLevel.String()
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	log := logrus.New()
	if w == nil {
		w = os.Stderr
	}
	log.SetOutput(w)
	log.SetLevel(lvl)

	switch strings.ToLower(format) {
	case "", FormatText:
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	case FormatJSON:
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("invalid log format %q (want %s or %s)", format, FormatText, FormatJSON)
	}
	return log, nil
}

// VerbosityLevel raises base by one level per -v, up to trace.
func VerbosityLevel(base logrus.Level, verbose int) logrus.Level {
	lvl := base + logrus.Level(verbose)
	if lvl > logrus.TraceLevel {
		return logrus.TraceLevel
	}
	return lvl
}
