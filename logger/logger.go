// Package logger is the level-filtered logging facade used by logbuf.
// Any backend can be plugged in with SetLogger.
package logger

import (
	"fmt"
	"log"
)

// Logger is the backend that receives formatted log records.
type Logger interface {
	// Debugf prints debug level log.
	Debugf(format string, args ...interface{})
	// Infof prints info level log.
	Infof(format string, args ...interface{})
	// Warnf prints warn level log.
	Warnf(format string, args ...interface{})
	// Errorf prints error level log.
	Errorf(format string, args ...interface{})
}

// Level is level of logger.
type Level int8

func (s Level) String() string {
	switch s {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

const (
	// LevelDebug is DEBUG level.
	LevelDebug Level = iota
	// LevelInfo is INFO level.
	LevelInfo
	// LevelWarn is WARN level.
	LevelWarn
	// LevelError is ERROR level.
	LevelError
)

var (
	lvl                  = LevelInfo
	defaultLogger        = stdLogger{}
	current       Logger = defaultLogger
)

type stdLogger struct{}

func (stdLogger) Debugf(format string, args ...interface{}) {
	log.Printf(fmt.Sprintf("[%s] %s", LevelDebug, format), args...)
}

func (stdLogger) Infof(format string, args ...interface{}) {
	log.Printf(fmt.Sprintf("[%s] %s", LevelInfo, format), args...)
}

func (stdLogger) Warnf(format string, args ...interface{}) {
	log.Printf(fmt.Sprintf("[%s] %s", LevelWarn, format), args...)
}

func (stdLogger) Errorf(format string, args ...interface{}) {
	log.Printf(fmt.Sprintf("[%s] %s", LevelError, format), args...)
}

// SetLevel set global log level.
// Available levels are `LevelDebug`, `LevelInfo`, `LevelWarn` and `LevelError`.
func SetLevel(level Level) {
	lvl = level
}

// GetLevel returns current logger level.
func GetLevel() Level {
	return lvl
}

// SetLogger replaces the backend. A nil logger restores the standard library backend.
func SetLogger(logger Logger) {
	if logger == nil {
		current = defaultLogger
		return
	}
	current = logger
}

// IsDebugEnabled returns true if debug level is open.
func IsDebugEnabled() bool {
	return lvl <= LevelDebug
}

// Debugf prints debug level log.
func Debugf(format string, v ...interface{}) {
	if lvl > LevelDebug {
		return
	}
	current.Debugf(format, v...)
}

// Infof prints info level log.
func Infof(format string, v ...interface{}) {
	if lvl > LevelInfo {
		return
	}
	current.Infof(format, v...)
}

// Warnf prints warn level log.
func Warnf(format string, v ...interface{}) {
	if lvl > LevelWarn {
		return
	}
	current.Warnf(format, v...)
}

// Errorf prints error level log.
func Errorf(format string, v ...interface{}) {
	current.Errorf(format, v...)
}
