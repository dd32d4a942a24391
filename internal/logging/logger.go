// Package logging provides simple leveled logging for fwact and its cmd/fwapply CLI.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

// Logger wraps stdlib log with level support.
type Logger struct {
	logger *log.Logger
	level  Level
	mu     sync.Mutex
}

var (
	defaultLogger *Logger
	defaultMu     sync.RWMutex
)

// Level represents the available log levels.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Config holds logging configuration.
type Config struct {
	Level  Level
	Output io.Writer
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		Level:  LevelInfo,
		Output: os.Stderr,
	}
}

// NewLogger creates a new logger.
func NewLogger(config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}
	output := config.Output
	if output == nil {
		output = os.Stderr
	}
	return &Logger{
		logger: log.New(output, "", log.LstdFlags),
		level:  config.Level,
	}
}

// Default returns the default logger, creating it if necessary.
func Default() *Logger {
	defaultMu.RLock()
	if defaultLogger != nil {
		defer defaultMu.RUnlock()
		return defaultLogger
	}
	defaultMu.RUnlock()

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		defaultLogger = NewLogger(nil)
	}
	return defaultLogger
}

// SetDefault sets the default logger.
func SetDefault(logger *Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = logger
}

// formatArgs converts key-value pairs to a trailing " key=value ..." string.
func formatArgs(args []any) string {
	if len(args) == 0 {
		return ""
	}
	var result string
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			if result != "" {
				result += " "
			}
			result += fmt.Sprintf("%v=%v", args[i], args[i+1])
		}
	}
	if result != "" {
		return " " + result
	}
	return ""
}

func (l *Logger) log(level Level, prefix, msg string, args ...any) {
	if level < l.level {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.Printf("%s %s%s", prefix, msg, formatArgs(args))
}

func (l *Logger) Debug(msg string, args ...any) { l.log(LevelDebug, "[DEBUG]", msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.log(LevelInfo, "[INFO]", msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.log(LevelWarn, "[WARN]", msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.log(LevelError, "[ERROR]", msg, args...) }

// Debugf, Infof, Warnf, Errorf are printf-style variants.
func (l *Logger) Debugf(format string, args ...any) { l.log(LevelDebug, "[DEBUG]", fmt.Sprintf(format, args...)) }
func (l *Logger) Infof(format string, args ...any)  { l.log(LevelInfo, "[INFO]", fmt.Sprintf(format, args...)) }
func (l *Logger) Warnf(format string, args ...any)  { l.log(LevelWarn, "[WARN]", fmt.Sprintf(format, args...)) }
func (l *Logger) Errorf(format string, args ...any) { l.log(LevelError, "[ERROR]", fmt.Sprintf(format, args...)) }

// Printf logs at info level, matching the ifaces.Logger contract the
// dispatcher expects.
func (l *Logger) Printf(format string, args ...any) {
	l.Infof(format, args...)
}

// ForAction returns a logger that prefixes every message with the action
// name, so progress and warning output from a long action list can be
// traced back to its source without threading an action name through
// every call site.
func (l *Logger) ForAction(action string) *ActionLogger {
	return &ActionLogger{parent: l, action: action}
}

// ActionLogger scopes log output to a single running action.
type ActionLogger struct {
	parent *Logger
	action string
}

func (a *ActionLogger) Printf(format string, args ...any) {
	a.parent.Infof("[%s] %s", a.action, fmt.Sprintf(format, args...))
}

func (a *ActionLogger) Debugf(format string, args ...any) {
	a.parent.Debugf("[%s] %s", a.action, fmt.Sprintf(format, args...))
}

func (a *ActionLogger) Warnf(format string, args ...any) {
	a.parent.Warnf("[%s] %s", a.action, fmt.Sprintf(format, args...))
}

// Global convenience functions operating on the default logger.
func Debug(msg string, args ...any) { Default().Debug(msg, args...) }
func Info(msg string, args ...any)  { Default().Info(msg, args...) }
func Warn(msg string, args ...any)  { Default().Warn(msg, args...) }
func Error(msg string, args ...any) { Default().Error(msg, args...) }
