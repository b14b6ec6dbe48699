package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

var logg = logrus.New()

// Init configures the shared logger. Unknown levels fall back to info.
func Init(level, format string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logg.SetLevel(lvl)
	logg.SetOutput(os.Stdout)

	if format == "json" {
		logg.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logg.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

func Get() *logrus.Logger {
	return logg
}

// WithComponent returns an entry tagged with the subsystem name, e.g. "Fallback" or "Sweeper".
func WithComponent(name string) *logrus.Entry {
	return logg.WithField("component", name)
}

func LogError(entry *logrus.Entry, funcName string, context string, data any, err error) {
	fields := logrus.Fields{
		"funcName": funcName,
		"context":  context,
	}
	if data != nil {
		fields["data"] = data
	}
	entry.WithFields(fields).Error(err.Error())
}
