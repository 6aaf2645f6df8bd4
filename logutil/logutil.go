// Package logutil centralizes the logrus setup every package's
// package-scoped logger uses: a prefixed console formatter matching the
// teacher's own CLI logging convention.
package logutil

import (
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// Configure installs the prefixed formatter and parses level (empty
// defaults to "info").
func Configure(level string) error {
	logrus.SetFormatter(&prefixed.TextFormatter{
		FullTimestamp:   true,
		ForceFormatting: true,
	})
	if level == "" {
		level = "info"
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	logrus.SetLevel(parsed)
	return nil
}

// New returns a package-scoped entry tagged with prefix, the
// convention every package in this tree uses for its logger.
func New(prefix string) *logrus.Entry {
	return logrus.WithField("prefix", prefix)
}
