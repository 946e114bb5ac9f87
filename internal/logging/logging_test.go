package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input     string
		wantLevel slog.Level
		wantOK    bool
	}{
		{"debug", slog.LevelDebug, true},
		{"info", slog.LevelInfo, true},
		{"warn", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"DEBUG", slog.LevelDebug, true},
		{"Warn", slog.LevelWarn, true},
		{"", slog.LevelInfo, false},
		{"trace", slog.LevelInfo, false},
		{"warning", slog.LevelInfo, false},
	}
	for _, tt := range tests {
		gotLevel, gotOK := ParseLevel(tt.input)
		if gotOK != tt.wantOK {
			t.Errorf("ParseLevel(%q) ok = %v, want %v", tt.input, gotOK, tt.wantOK)
		}
		if gotLevel != tt.wantLevel {
			t.Errorf("ParseLevel(%q) level = %v, want %v", tt.input, gotLevel, tt.wantLevel)
		}
	}
}

func TestParseLevelOrDefault(t *testing.T) {
	if got := ParseLevelOrDefault("error"); got != slog.LevelError {
		t.Errorf("ParseLevelOrDefault(error) = %v", got)
	}
	if got := ParseLevelOrDefault("nonsense"); got != DefaultLevel {
		t.Errorf("ParseLevelOrDefault(nonsense) = %v, want default", got)
	}
}

func TestRouteSwitchesDestination(t *testing.T) {
	var before, after bytes.Buffer
	h := newRoutingHandler(slog.NewTextHandler(&before, nil))
	logger := slog.New(h)

	logger.Info("first message")
	h.route(slog.NewTextHandler(&after, nil))
	logger.Info("second message")

	if !strings.Contains(before.String(), "first message") {
		t.Errorf("first message missing from original destination: %s", before.String())
	}
	if strings.Contains(before.String(), "second message") {
		t.Error("second message should not reach the original destination")
	}
	if !strings.Contains(after.String(), "second message") {
		t.Errorf("second message missing from new destination: %s", after.String())
	}
}

func TestRoutingHandlerWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := newRoutingHandler(slog.NewTextHandler(&buf, nil))

	child := h.WithAttrs([]slog.Attr{slog.String("component", "sink")})
	if _, ok := child.(*routingHandler); !ok {
		t.Fatal("WithAttrs should return a *routingHandler")
	}

	slog.New(child).Info("attr test")
	if !strings.Contains(buf.String(), "component=sink") {
		t.Errorf("attribute missing from output: %s", buf.String())
	}
}

func TestRoutingHandlerWithGroup(t *testing.T) {
	var buf bytes.Buffer
	h := newRoutingHandler(slog.NewJSONHandler(&buf, nil))

	slog.New(h.WithGroup("ingest")).Info("group test", "doc_id", "x")
	if !strings.Contains(buf.String(), "ingest") {
		t.Errorf("group missing from output: %s", buf.String())
	}
}

func TestBootstrapModeTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newRoutingHandler(slog.NewTextHandler(&buf, nil)))

	logger.Info("bootstrap test", "foo", "bar")

	output := buf.String()
	if strings.HasPrefix(strings.TrimSpace(output), "{") {
		t.Errorf("bootstrap mode should use text format, got JSON-like: %s", output)
	}
	if !strings.Contains(output, "foo=bar") {
		t.Errorf("text format should have key=value, got: %s", output)
	}
}

func TestNewManagerBootstrapMode(t *testing.T) {
	mgr := NewManager()
	defer func() { _ = mgr.Close() }()

	if mgr.Logger() == nil {
		t.Fatal("Manager.Logger() returned nil")
	}
	if mgr.Logger() != mgr.Logger() {
		t.Error("Manager.Logger() should return the same instance")
	}
}

func TestUpgradeWritesJSONFile(t *testing.T) {
	mgr := NewManager()
	defer func() { _ = mgr.Close() }()

	logFile := filepath.Join(t.TempDir(), "docingest.log")
	if err := mgr.Upgrade(logFile, slog.LevelInfo); err != nil {
		t.Fatalf("Upgrade() error = %v", err)
	}

	mgr.Logger().Info("test message", "doc_id", "rag_upload_abc")

	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(content), &entry); err != nil {
		t.Fatalf("Log file content is not valid JSON: %v\nContent: %s", err, content)
	}
	if entry["msg"] != "test message" {
		t.Errorf("Log entry missing or wrong msg: %v", entry)
	}
	if entry["doc_id"] != "rag_upload_abc" {
		t.Errorf("Log entry missing structured attr: %v", entry)
	}
}

func TestUpgradeWithoutFileStaysStderrOnly(t *testing.T) {
	mgr := NewManager()
	defer func() { _ = mgr.Close() }()

	if err := mgr.Upgrade("", slog.LevelDebug); err != nil {
		t.Fatalf("Upgrade() error = %v", err)
	}
	mgr.Logger().Debug("no file sink configured")
}

func TestSetLevelAppliesAtRuntime(t *testing.T) {
	mgr := NewManager()
	defer func() { _ = mgr.Close() }()

	logFile := filepath.Join(t.TempDir(), "docingest.log")
	if err := mgr.Upgrade(logFile, slog.LevelInfo); err != nil {
		t.Fatalf("Upgrade() error = %v", err)
	}

	mgr.Logger().Debug("debug message 1")
	mgr.SetLevel(slog.LevelDebug)
	mgr.Logger().Debug("debug message 2")

	content, _ := os.ReadFile(logFile)
	output := string(content)
	if strings.Contains(output, "debug message 1") {
		t.Error("Debug message 1 should not appear at Info level")
	}
	if !strings.Contains(output, "debug message 2") {
		t.Error("Debug message 2 should appear after SetLevel(Debug)")
	}
}

func TestLevelFiltering(t *testing.T) {
	mgr := NewManager()
	defer func() { _ = mgr.Close() }()

	logFile := filepath.Join(t.TempDir(), "docingest.log")
	if err := mgr.Upgrade(logFile, slog.LevelInfo); err != nil {
		t.Fatalf("Upgrade() error = %v", err)
	}

	logger := mgr.Logger()
	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	content, _ := os.ReadFile(logFile)
	output := string(content)
	if strings.Contains(output, "debug message") {
		t.Error("Debug message should be suppressed at Info level")
	}
	for _, want := range []string{"info message", "warn message", "error message"} {
		if !strings.Contains(output, want) {
			t.Errorf("%q should appear in log file", want)
		}
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	mgr := NewManager()

	logFile := filepath.Join(t.TempDir(), "docingest.log")
	if err := mgr.Upgrade(logFile, slog.LevelInfo); err != nil {
		t.Fatalf("Upgrade() error = %v", err)
	}
	mgr.Logger().Info("before close")

	if err := mgr.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := mgr.Close(); err != nil {
		t.Errorf("Close() second call error = %v", err)
	}
}

func TestChildLoggerContext(t *testing.T) {
	mgr := NewManager()
	defer func() { _ = mgr.Close() }()

	logFile := filepath.Join(t.TempDir(), "docingest.log")
	if err := mgr.Upgrade(logFile, slog.LevelInfo); err != nil {
		t.Fatalf("Upgrade() error = %v", err)
	}

	child := mgr.Logger().With("component", "sink", "sink", "solr")
	if child == mgr.Logger() {
		t.Error("With() should return a new logger instance")
	}
	child.Info("child message", "doc_id", "x")

	content, _ := os.ReadFile(logFile)
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(content), &entry); err != nil {
		t.Fatalf("Failed to parse log line: %v", err)
	}
	if entry["component"] != "sink" {
		t.Errorf("child log missing component context: %v", entry)
	}
	if entry["doc_id"] != "x" {
		t.Errorf("child log missing call attrs: %v", entry)
	}
}
