package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestStdLoggerEmitsJSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewStdLoggerTo(&buf, "test")

	l.Info("hello", Field{Key: "answer", Value: 42})

	var entry struct {
		Level     string         `json:"level"`
		Msg       string         `json:"msg"`
		Component string         `json:"component"`
		Fields    map[string]any `json:"fields"`
	}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry.Level != "info" || entry.Msg != "hello" || entry.Component != "test" {
		t.Errorf("entry = %+v", entry)
	}
	if entry.Fields["answer"] != float64(42) {
		t.Errorf("fields = %v", entry.Fields)
	}
}

func TestWithPersistsFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewStdLoggerTo(&buf, "root")

	child := l.With(Field{Key: "request_id", Value: "abc"})
	child.Warn("something")

	if !strings.Contains(buf.String(), `"request_id":"abc"`) {
		t.Errorf("persistent field missing: %s", buf.String())
	}
}

func TestWithComponentOverride(t *testing.T) {
	var buf bytes.Buffer
	l := NewStdLoggerTo(&buf, "root")

	child := l.With(Field{Key: "component", Value: "sub"})
	child.Info("x")

	if !strings.Contains(buf.String(), `"component":"sub"`) {
		t.Errorf("component not overridden: %s", buf.String())
	}
}

func TestSetMinLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := NewStdLoggerTo(&buf, "test")
	l.SetMinLevel("warn")

	l.Debug("dropped")
	l.Info("dropped too")
	l.Warn("kept")
	l.Error("kept too")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("filtered levels leaked: %s", out)
	}
	if !strings.Contains(out, "kept") || !strings.Contains(out, "kept too") {
		t.Errorf("warn/error missing: %s", out)
	}
}

func TestChildInheritsMinLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewStdLoggerTo(&buf, "test")
	l.SetMinLevel("error")

	l.With(Field{Key: "k", Value: "v"}).Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("child ignored the parent's level: %s", buf.String())
	}
}

func TestNopLogger(t *testing.T) {
	// Must be safe to use everywhere a logger is optional.
	var l Logger = NopLogger{}
	l = l.With(Field{Key: "a", Value: 1})
	l.Debug("x")
	l.Info("x")
	l.Warn("x")
	l.Error("x")
}
