// Package logger provides the process-wide logger used by every other
// package. It is a thin layer over charmbracelet/log so callers depend
// on a narrow interface rather than on the library itself.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

var (
	defaultLogger *log.Logger
	once          sync.Once
)

// New creates a logger writing to w (os.Stderr when nil) with
// timestamps enabled.
func New(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	return log.NewWithOptions(w, log.Options{ReportTimestamp: true})
}

// GetLogger returns the shared logger, constructing it on first use.
// The LOG_LEVEL environment variable (debug, info, warn, error) selects
// the minimum level; the default is info.
func GetLogger() *log.Logger {
	once.Do(func() {
		defaultLogger = New(os.Stderr)
		switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
		case "debug":
			defaultLogger.SetLevel(log.DebugLevel)
		case "warn":
			defaultLogger.SetLevel(log.WarnLevel)
		case "error":
			defaultLogger.SetLevel(log.ErrorLevel)
		default:
			defaultLogger.SetLevel(log.InfoLevel)
		}
	})
	return defaultLogger
}
