package utils

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var baseLogger = newBaseLogger()

func newBaseLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}

// ConfigureLogger applies LOG_LEVEL / LOG_FORMAT style settings to every component logger.
// Unknown levels fall back to info.
func ConfigureLogger(level, format string) {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	baseLogger.SetLevel(lvl)

	if strings.EqualFold(format, "json") {
		baseLogger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		baseLogger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// NewLogger returns an entry tagged with the component name.
func NewLogger(component string) *logrus.Entry {
	return baseLogger.WithField("component", component)
}
