package util

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// SanitizeLog prevents certain classes of injection attacks before logging
// https://codeql.github.com/codeql-query-help/go/go-log-injection/
func SanitizeLog(log string) string {
	escapedLog := strings.ReplaceAll(log, "\n", "")
	return strings.ReplaceAll(escapedLog, "\r", "")
}

// LoggingNewError logs msg and returns it as an error.
func LoggingNewError(msg string) error {
	logrus.Error(msg)
	return errors.New(msg)
}

// LoggingErrorMsg logs err with msg and returns err wrapped with msg.
func LoggingErrorMsg(err error, msg string) error {
	logrus.WithError(err).Error(msg)
	return errors.Wrap(err, msg)
}
