package logutils

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger.
var Log = logrus.New()

type Fields = logrus.Fields

//nolint:gochecknoinits // the logger is configured exactly once
func init() {
	Log.SetOutput(os.Stderr)
	Log.SetLevel(logrus.WarnLevel)
	Log.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
	})
	Configure(os.Getenv("INKY_LOG_LEVEL"), os.Getenv("INKY_LOG_FORMAT"))
}

// Configure applies a level name and a format ("text" or "json"). Empty or
// unknown values leave the current setting untouched.
func Configure(level, format string) {
	if lvl, err := logrus.ParseLevel(strings.TrimSpace(level)); err == nil {
		Log.SetLevel(lvl)
	}
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		Log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05Z07:00"})
	case "text":
		Log.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
			FullTimestamp:   true,
		})
	}
}
