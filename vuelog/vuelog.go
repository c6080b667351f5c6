// Package vuelog is the leveled, prefix-tagged logger used by every
// component of the core: Codec, Reassembler, history, Forwarder, Scanner
// and Advertiser all log through here rather than fmt/log directly.
package vuelog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// LogLevel mirrors logrus levels but keeps the names this codebase's
// call sites expect.
type LogLevel int

const (
	TRACE LogLevel = iota
	DEBUG
	INFO
	WARN
	ERROR
)

var (
	mu     sync.RWMutex
	base   = newBaseLogger()
	levels = map[LogLevel]logrus.Level{
		TRACE: logrus.TraceLevel,
		DEBUG: logrus.DebugLevel,
		INFO:  logrus.InfoLevel,
		WARN:  logrus.WarnLevel,
		ERROR: logrus.ErrorLevel,
	}
)

func newBaseLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		DisableColors:    false,
	})
	return l
}

// SetLevel sets the global log level.
func SetLevel(level LogLevel) {
	mu.Lock()
	defer mu.Unlock()
	base.SetLevel(levels[level])
}

// GetLevel returns the current log level.
func GetLevel() LogLevel {
	mu.RLock()
	defer mu.RUnlock()
	switch base.GetLevel() {
	case logrus.TraceLevel:
		return TRACE
	case logrus.DebugLevel:
		return DEBUG
	case logrus.InfoLevel:
		return INFO
	case logrus.WarnLevel:
		return WARN
	default:
		return ERROR
	}
}

// ParseLevel converts a string to a LogLevel, defaulting to INFO.
func ParseLevel(level string) LogLevel {
	switch strings.ToUpper(level) {
	case "TRACE":
		return TRACE
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

func entry(prefix string) *logrus.Entry {
	if prefix == "" {
		return logrus.NewEntry(base)
	}
	return base.WithField("component", prefix)
}

func log(level LogLevel, prefix, format string, args ...interface{}) {
	e := entry(prefix)
	msg := fmt.Sprintf(format, args...)
	switch level {
	case TRACE:
		e.Trace(msg)
	case DEBUG:
		e.Debug(msg)
	case INFO:
		e.Info(msg)
	case WARN:
		e.Warn(msg)
	case ERROR:
		e.Error(msg)
	}
}

// Trace logs low-level details: individual advertisement bytes, timer ticks.
func Trace(prefix, format string, args ...interface{}) { log(TRACE, prefix, format, args...) }

// Debug logs protocol-level events: parsed packets, bucket state transitions.
func Debug(prefix, format string, args ...interface{}) { log(DEBUG, prefix, format, args...) }

// Info logs high-level events: accepted message, forward decision, scan start/stop.
func Info(prefix, format string, args ...interface{}) { log(INFO, prefix, format, args...) }

// Warn logs recoverable problems: malformed advertisement, storage corruption.
func Warn(prefix, format string, args ...interface{}) { log(WARN, prefix, format, args...) }

// Error logs adapter/storage failures that aborted an operation.
func Error(prefix, format string, args ...interface{}) { log(ERROR, prefix, format, args...) }

// ToJSON renders v as pretty-printed JSON for log messages.
func ToJSON(v interface{}) string {
	b, err := json.MarshalIndent(v, "", " ")
	if err != nil {
		return fmt.Sprintf("<error: %v>", err)
	}
	return string(b)
}

// DebugJSON logs a debug message followed by a JSON dump of v.
func DebugJSON(prefix, label string, v interface{}) {
	if GetLevel() > DEBUG {
		return
	}
	log(DEBUG, prefix, "%s:\n%s", label, ToJSON(v))
}
