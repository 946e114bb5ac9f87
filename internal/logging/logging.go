// Package logging manages the service's slog setup. The process starts with
// a stderr-only text logger before configuration is available; once config
// loads, Upgrade reroutes the same logger instances to the configured sinks,
// including a rotating JSON file when a log path is set.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	slogmulti "github.com/samber/slog-multi"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log file rotation settings.
const (
	maxLogSizeMB  = 100
	maxLogBackups = 5
	maxLogAgeDays = 30
)

// DefaultLevel applies when no level is configured.
const DefaultLevel = slog.LevelInfo

var levelNames = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// ParseLevel maps a configured level name onto a slog.Level. Names are
// matched case-insensitively; an unrecognized name returns
// (DefaultLevel, false).
func ParseLevel(s string) (slog.Level, bool) {
	level, ok := levelNames[strings.ToLower(s)]
	if !ok {
		return DefaultLevel, false
	}
	return level, true
}

// ParseLevelOrDefault is ParseLevel with the fallback already applied.
func ParseLevelOrDefault(s string) slog.Level {
	level, _ := ParseLevel(s)
	return level
}

// routingHandler forwards records to a replaceable destination handler.
// Loggers handed out before configuration loads keep working after the
// destination changes, because replacement is atomic under concurrent use.
type routingHandler struct {
	dst atomic.Pointer[slog.Handler]
}

func newRoutingHandler(dst slog.Handler) *routingHandler {
	r := &routingHandler{}
	r.dst.Store(&dst)
	return r
}

// route atomically replaces the destination handler.
func (r *routingHandler) route(dst slog.Handler) {
	r.dst.Store(&dst)
}

func (r *routingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return (*r.dst.Load()).Enabled(ctx, level)
}

func (r *routingHandler) Handle(ctx context.Context, rec slog.Record) error {
	return (*r.dst.Load()).Handle(ctx, rec)
}

func (r *routingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return newRoutingHandler((*r.dst.Load()).WithAttrs(attrs))
}

func (r *routingHandler) WithGroup(name string) slog.Handler {
	return newRoutingHandler((*r.dst.Load()).WithGroup(name))
}

// Manager owns the service logger across its lifecycle. Components obtain a
// logger via Logger() and keep it; Upgrade reroutes all of them in place.
type Manager struct {
	handler *routingHandler
	logger  *slog.Logger
	fileOut io.WriteCloser
	level   *slog.LevelVar
	mu      sync.Mutex
}

// NewManager creates a manager in bootstrap mode: text records to stderr at
// DefaultLevel. Call Upgrade once configuration is loaded.
func NewManager() *Manager {
	level := new(slog.LevelVar)
	level.Set(DefaultLevel)

	handler := newRoutingHandler(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	return &Manager{
		handler: handler,
		logger:  slog.New(handler),
		level:   level,
	}
}

// Logger returns the service logger. The instance is stable across Upgrade
// calls.
func (m *Manager) Logger() *slog.Logger {
	return m.logger
}

// Upgrade applies the configured level and sinks. With a non-empty
// logFilePath records fan out to stderr as text and to a rotating file as
// JSON; with an empty path logging stays stderr-only.
func (m *Manager) Upgrade(logFilePath string, level slog.Level) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.level.Set(level)
	opts := &slog.HandlerOptions{Level: m.level}

	if logFilePath == "" {
		m.handler.route(slog.NewTextHandler(os.Stderr, opts))
		return nil
	}

	rotating := &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    maxLogSizeMB,
		MaxBackups: maxLogBackups,
		MaxAge:     maxLogAgeDays,
		Compress:   true,
	}

	if m.fileOut != nil {
		_ = m.fileOut.Close()
	}
	m.fileOut = rotating

	m.handler.route(slogmulti.Fanout(
		slog.NewTextHandler(os.Stderr, opts),
		slog.NewJSONHandler(rotating, opts),
	))
	return nil
}

// SetLevel changes the log level at runtime for all future records.
func (m *Manager) SetLevel(level slog.Level) {
	m.level.Set(level)
}

// Close shuts down the rotating file sink, if any.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fileOut != nil {
		err := m.fileOut.Close()
		m.fileOut = nil
		return err
	}
	return nil
}
