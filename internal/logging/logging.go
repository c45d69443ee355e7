// Package logging configures the process-wide logrus logger.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup applies level and format ("text" or "json") to the standard logger.
// An unknown level falls back to info.
func Setup(level, format string) {
	SetupWriter(os.Stderr, level, format)
}

// SetupFile is Setup writing to a rotated log file. An empty path logs to
// stderr.
func SetupFile(path, level, format string) io.Closer {
	if strings.TrimSpace(path) == "" {
		Setup(level, format)
		return nopCloser{}
	}
	out := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    100,
		MaxBackups: 5,
	}
	SetupWriter(out, level, format)
	return out
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// SetupWriter is Setup with an explicit output.
func SetupWriter(out io.Writer, level, format string) {
	logrus.SetOutput(out)

	parsed, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logrus.SetLevel(parsed)

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if err != nil && strings.TrimSpace(level) != "" {
		logrus.Warnf("unknown log level %q, using info", level)
	}
}
