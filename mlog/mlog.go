// Package mlog wraps a single package-level logrus logger with the
// per-subsystem field tagging used throughout the solver.
package mlog

import (
	"os"

	"github.com/sirupsen/logrus"
)

var base = newBase()

func newBase() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}

// SetLevel adjusts verbosity for every subsystem logger at once.
func SetLevel(level logrus.Level) {
	base.SetLevel(level)
}

// For returns a logger tagged with the given subsystem name, e.g.
// mlog.For("solver"), mlog.For("arith").
func For(subsystem string) *logrus.Entry {
	return base.WithField("subsystem", subsystem)
}
