// Package cli implements the drilldown command-line interface.
//
// Commands operate on document files (JSON or YAML) or on documents kept in
// the configured storage backend. The CLI is built using cobra and logs via
// charmbracelet/log.
//
// # Commands
//
//   - new, tree, inspect, check, stats: create and examine documents
//   - edit: interactive terminal builder
//   - export, import, render, layout: convert, draw and arrange documents
//   - groups: manage the style groups of a document
//   - save, load, store: move documents in and out of the storage backend
//   - serve: HTTP API over one editing session
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// surfaces the editor's silent no-ops ("op", "reason" records). Loggers are
// passed through context.Context.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a logger with "HH:MM:SS.ms" timestamps.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs completion of an operation with its elapsed time.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g. "Rendered payments.svg (12ms)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
