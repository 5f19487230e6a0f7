// Package obs holds observability helpers shared by the binaries.
package obs

import (
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the JSON structured logger used across the service.
// level is one of logrus's level names; anything unparseable falls back to
// info.
func NewLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}
