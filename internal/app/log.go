package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// sink is one log destination with its minimum level.
type sink struct {
	w     io.Writer
	level slog.Level
}

// pmHandler is a custom slog.Handler that formats log records as:
//
//	<timestamp>\t<level>\t<opID>\t<message>\t<key=value ...>
//
// and writes each line to every sink whose level admits the record.
type pmHandler struct {
	sinks []sink
	opID  string
	attrs []slog.Attr
}

func (h *pmHandler) Enabled(_ context.Context, level slog.Level) bool {
	for _, s := range h.sinks {
		if level >= s.level {
			return true
		}
	}
	return false
}

func (h *pmHandler) Handle(_ context.Context, r slog.Record) error {
	var line bytes.Buffer
	fmt.Fprintf(&line, "%s\t%s\t%s\t%s", r.Time.UTC().Format("2006-01-02T15:04:05Z"), r.Level.String(), h.opID, r.Message)

	for _, a := range h.attrs {
		fmt.Fprintf(&line, "\t%s=%v", a.Key, a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(&line, "\t%s=%v", a.Key, a.Value)
		return true
	})
	line.WriteByte('\n')

	var firstErr error
	for _, s := range h.sinks {
		if r.Level < s.level {
			continue
		}
		if _, err := s.w.Write(line.Bytes()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (h *pmHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &pmHandler{
		sinks: h.sinks,
		opID:  h.opID,
		attrs: append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
}

func (h *pmHandler) WithGroup(string) slog.Handler { return h }

func (h *pmHandler) withOpID(opID string) *pmHandler {
	return &pmHandler{sinks: h.sinks, opID: opID, attrs: h.attrs}
}

// logLevels returns the file and stderr levels for a run.
func logLevels(verbose bool) (file, stderr slog.Level) {
	if verbose {
		return slog.LevelDebug, slog.LevelInfo
	}
	return slog.LevelInfo, slog.LevelWarn
}

// newLogger creates a structured logger that writes to logDir/pm.log and stderr.
// It returns the slog.Logger, the open log file (for cleanup), and any error.
func newLogger(logDir string, opID string, verbose bool, stderr io.Writer) (*slog.Logger, *os.File, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	logPath := filepath.Join(logDir, "pm.log")
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	fileLevel, stderrLevel := logLevels(verbose)
	handler := &pmHandler{
		sinks: []sink{{w: f, level: fileLevel}, {w: stderr, level: stderrLevel}},
		opID:  opID,
	}
	return slog.New(handler), f, nil
}

// newConsoleLogger creates a logger for commands that run outside an archive
// session. It writes to stderr only.
func newConsoleLogger(stderr io.Writer, verbose bool) *slog.Logger {
	_, level := logLevels(verbose)
	return slog.New(&pmHandler{sinks: []sink{{w: stderr, level: level}}, opID: "-"})
}

// slogAdapter wraps *slog.Logger to satisfy the pm.Logger interface.
type slogAdapter struct {
	l *slog.Logger
}

func (a *slogAdapter) Debug(msg string, args ...any) { a.l.Debug(msg, args...) }
func (a *slogAdapter) Info(msg string, args ...any)  { a.l.Info(msg, args...) }
func (a *slogAdapter) Warn(msg string, args ...any)  { a.l.Warn(msg, args...) }
func (a *slogAdapter) Error(msg string, args ...any) { a.l.Error(msg, args...) }

// setOpID replaces the session ID column for every later line.
func (a *slogAdapter) setOpID(opID string) {
	if h, ok := a.l.Handler().(*pmHandler); ok {
		a.l = slog.New(h.withOpID(opID))
	}
}
