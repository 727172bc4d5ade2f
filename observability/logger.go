package observability

import (
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// NewLogger builds a logrus logger writing to stderr. format is "json" or
// "text"; unknown levels fall back to info.
func NewLogger(level, format string) *logrus.Logger {
	return newLogger(os.Stderr, level, format)
}

func newLogger(w io.Writer, level, format string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)

	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	if format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}

// NewRunID generates an identifier for one analysis run.
func NewRunID() string {
	return uuid.New().String()
}

// WithRun returns an entry carrying the run id, generating one when empty.
func WithRun(log logrus.FieldLogger, runID string) *logrus.Entry {
	if runID == "" {
		runID = NewRunID()
	}
	return log.WithField("run_id", runID)
}
