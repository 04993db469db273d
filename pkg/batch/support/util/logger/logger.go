// Package logger provides the level-filtered logging utility used across trajbatch.
// It wraps the standard `log` package and drops messages below the configured level.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

// LogLevel is a type representing the logging level.
type LogLevel int32

const (
	// LevelDebug is the log level used for detailed debugging information.
	LevelDebug LogLevel = iota
	// LevelInfo is the log level used for general informational messages.
	LevelInfo
	// LevelWarn is the log level used for potential issues.
	LevelWarn
	// LevelError is the log level used for error messages.
	LevelError
	// LevelFatal is the log level used for messages that terminate the process.
	LevelFatal
	// LevelSilent suppresses everything except Fatalf.
	LevelSilent
)

var logLevel atomic.Int32

func init() {
	logLevel.Store(int32(LevelInfo))
}

// ParseLevel converts a level name into a LogLevel.
// TRACE is accepted as an alias of DEBUG. Unknown names report ok=false.
func ParseLevel(level string) (LogLevel, bool) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "TRACE", "DEBUG":
		return LevelDebug, true
	case "INFO":
		return LevelInfo, true
	case "WARN", "WARNING":
		return LevelWarn, true
	case "ERROR":
		return LevelError, true
	case "FATAL":
		return LevelFatal, true
	case "SILENT":
		return LevelSilent, true
	default:
		return LevelInfo, false
	}
}

// SetLogLevel sets the global log level.
// Valid values are "TRACE", "DEBUG", "INFO", "WARN", "ERROR", "FATAL", "SILENT" (case-insensitive).
// An invalid value falls back to INFO and prints a notice to stderr.
func SetLogLevel(level string) {
	lvl, ok := ParseLevel(level)
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown log level '%s' specified. Defaulting to INFO level.\n", level)
	}
	logLevel.Store(int32(lvl))
}

// CurrentLevel returns the active log level.
func CurrentLevel() LogLevel {
	return LogLevel(logLevel.Load())
}

// SetOutput redirects all log output. Tests use it to capture messages.
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

func enabled(l LogLevel) bool {
	return CurrentLevel() <= l
}

// Debugf formats and outputs a DEBUG level log message.
func Debugf(format string, v ...interface{}) {
	if enabled(LevelDebug) {
		log.Printf("[DEBUG] "+format, v...)
	}
}

// Infof formats and outputs an INFO level log message.
func Infof(format string, v ...interface{}) {
	if enabled(LevelInfo) {
		log.Printf("[INFO] "+format, v...)
	}
}

// Warnf formats and outputs a WARN level log message.
func Warnf(format string, v ...interface{}) {
	if enabled(LevelWarn) {
		log.Printf("[WARN] "+format, v...)
	}
}

// Errorf formats and outputs an ERROR level log message.
func Errorf(format string, v ...interface{}) {
	if enabled(LevelError) {
		log.Printf("[ERROR] "+format, v...)
	}
}

// Fatalf outputs a FATAL level log message and terminates the program with os.Exit(1).
func Fatalf(format string, v ...interface{}) {
	log.Fatalf("[FATAL] "+format, v...)
}
