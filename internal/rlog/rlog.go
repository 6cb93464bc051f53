// Package rlog is the diagnostic logging channel shared by the file
// server, the runner, and the interceptor. Output goes to the process's
// stderr; inside a target program that has the Interceptor preloaded,
// that is the target program's own stderr, so diagnostics are not kept
// apart from the calling program's streams.
package rlog

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

var std = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if os.Getenv("REMOTELINK_DEBUG") != "" {
		l.SetLevel(logrus.DebugLevel)
	} else {
		l.SetLevel(logrus.InfoLevel)
	}
	return l
}

func subject(s interface{}) string {
	if s == nil {
		return "-"
	}
	return fmt.Sprintf("%v", s)
}

// Debugf logs a low-level diagnostic about subject. Only emitted when
// REMOTELINK_DEBUG is set.
func Debugf(subject2 interface{}, format string, args ...interface{}) {
	std.WithField("subject", subject(subject2)).Debugf(format, args...)
}

// Logf logs a normal informational message about subject.
func Logf(subject2 interface{}, format string, args ...interface{}) {
	std.WithField("subject", subject(subject2)).Infof(format, args...)
}

// Errorf logs an error-level message about subject to stderr. It never
// returns an error.
func Errorf(subject2 interface{}, format string, args ...interface{}) {
	std.WithField("subject", subject(subject2)).Errorf(format, args...)
}
