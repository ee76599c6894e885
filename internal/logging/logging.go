package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// Field is a simple key/value pair for structured logging fields.
type Field struct {
	Key   string
	Value any
}

// Logger is a deliberately small, framework-agnostic logging interface.
// Keep implementations here so components can swap in any logger.
type Logger interface {
	// Debug logs a debug-level message.
	Debug(msg string, fields ...Field)

	// Info logs an informational message.
	Info(msg string, fields ...Field)

	// Warn logs a warning.
	Warn(msg string, fields ...Field)

	// Error logs an error.
	Error(msg string, fields ...Field)

	// With returns a child logger with persistent fields.
	With(fields ...Field) Logger
}

// StdLogger is a tiny structured logger that prints JSON lines.
type StdLogger struct {
	out       io.Writer
	component string
	persist   []Field
	minRank   int
}

var levelRank = map[string]int{"debug": 0, "info": 1, "warn": 2, "error": 3}

// NewStdLogger creates a StdLogger writing to stdout. component is optional
// and is included on every entry.
func NewStdLogger(component string) *StdLogger {
	return &StdLogger{out: os.Stdout, component: component}
}

// NewStdLoggerTo creates a StdLogger writing to w, useful in tests.
func NewStdLoggerTo(w io.Writer, component string) *StdLogger {
	return &StdLogger{out: w, component: component}
}

// SetMinLevel drops entries below level. Unknown levels are treated as debug.
func (s *StdLogger) SetMinLevel(level string) {
	s.minRank = levelRank[level]
}

func (s *StdLogger) log(level, msg string, fields ...Field) {
	if levelRank[level] < s.minRank {
		return
	}
	type entry struct {
		Level     string         `json:"level"`
		Msg       string         `json:"msg"`
		Component string         `json:"component,omitempty"`
		Time      string         `json:"time"`
		Fields    map[string]any `json:"fields,omitempty"`
	}

	m := make(map[string]any, len(s.persist)+len(fields))
	for _, f := range s.persist {
		m[f.Key] = f.Value
	}
	for _, f := range fields {
		m[f.Key] = f.Value
	}

	e := entry{
		Level:     level,
		Msg:       msg,
		Component: s.component,
		Time:      time.Now().UTC().Format(time.RFC3339),
		Fields:    m,
	}

	enc, err := json.Marshal(e)
	if err != nil {
		// Fallback plain formatting if a field value cannot be marshaled.
		fmt.Fprintf(s.out, "%s %s %v\n", level, msg, m)
		return
	}
	fmt.Fprintln(s.out, string(enc))
}

func (s *StdLogger) Debug(msg string, fields ...Field) { s.log("debug", msg, fields...) }
func (s *StdLogger) Info(msg string, fields ...Field)  { s.log("info", msg, fields...) }
func (s *StdLogger) Warn(msg string, fields ...Field)  { s.log("warn", msg, fields...) }
func (s *StdLogger) Error(msg string, fields ...Field) { s.log("error", msg, fields...) }

func (s *StdLogger) With(fields ...Field) Logger {
	child := &StdLogger{out: s.out, component: s.component, minRank: s.minRank}
	child.persist = append(child.persist, s.persist...)
	for _, f := range fields {
		if f.Key == "component" {
			if str, ok := f.Value.(string); ok {
				child.component = str
				continue
			}
		}
		child.persist = append(child.persist, f)
	}
	return child
}

// NopLogger discards everything. Handy default for library construction paths
// where the caller did not provide a logger.
type NopLogger struct{}

func (NopLogger) Debug(msg string, fields ...Field) {}
func (NopLogger) Info(msg string, fields ...Field)  {}
func (NopLogger) Warn(msg string, fields ...Field)  {}
func (NopLogger) Error(msg string, fields ...Field) {}
func (n NopLogger) With(fields ...Field) Logger     { return n }
