// Package logger provides leveled logging tagged with the emitting component,
// in the "LEVEL component: message" form used across the service.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// Level is the severity of a log line.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
	SILENT
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case SILENT:
		return "SILENT"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel accepts level names in any case. Unknown names return INFO and an error.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG, nil
	case "", "INFO":
		return INFO, nil
	case "WARN", "WARNING":
		return WARN, nil
	case "ERROR":
		return ERROR, nil
	case "SILENT", "NONE":
		return SILENT, nil
	default:
		return INFO, fmt.Errorf("invalid log level: %s", s)
	}
}

// Logger writes leveled lines for one component.
type Logger struct {
	component string
	core      *core
}

type core struct {
	mu    sync.Mutex
	level Level
	out   *log.Logger
}

var (
	defaultCore = &core{level: INFO, out: log.New(os.Stderr, "", log.LstdFlags)}
)

// Init configures the process-wide level and output.
func Init(level Level, w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	defaultCore.mu.Lock()
	defer defaultCore.mu.Unlock()
	defaultCore.level = level
	defaultCore.out = log.New(w, "", log.LstdFlags)
}

// New returns a logger for component that shares the process-wide settings.
func New(component string) *Logger {
	return &Logger{component: component, core: defaultCore}
}

// NewWithOutput returns a standalone logger, mainly for tests.
func NewWithOutput(component string, level Level, w io.Writer) *Logger {
	return &Logger{
		component: component,
		core:      &core{level: level, out: log.New(w, "", 0)},
	}
}

// Enabled reports whether lines at level would be written.
func (l *Logger) Enabled(level Level) bool {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	return level >= l.core.level && l.core.level != SILENT
}

func (l *Logger) logf(level Level, format string, args ...any) {
	if !l.Enabled(level) {
		return
	}
	msg := fmt.Sprintf(format, args...)
	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	if l.component == "" {
		l.core.out.Printf("%s %s", level, msg)
		return
	}
	l.core.out.Printf("%s %s: %s", level, l.component, msg)
}

func (l *Logger) Debugf(format string, args ...any) { l.logf(DEBUG, format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.logf(INFO, format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.logf(WARN, format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.logf(ERROR, format, args...) }
