// Copyright 2025 orbitfm
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// 🎨 Display configuration
const (
	fileIndent  = 4  // spaces to indent file entries
	nameWidth   = 35 // base width for filename
	actionWidth = 12 // width for the action column
)

// 🎯 FileEvent represents one per-file outcome for logging
type FileEvent struct {
	Path    string // file path
	Action  string // copied/moved/deleted/skipped/failed
	Bytes   uint64 // bytes transferred, when meaningful
	Skipped bool   // whether the file was skipped after an error
	Failed  bool   // whether the file failed outright
}

// 📦 OperationBanner describes a queued operation for the header line
type OperationBanner struct {
	Label       string // progressive-tense label, e.g. "Copying"
	Sources     int    // number of sources
	Destination string // destination path, empty for deletes
}

// 🎯 Logger handles structured logging with console output
type Logger struct {
	zlog      zerolog.Logger
	console   io.Writer
	mu        sync.Mutex
	currentOp *OperationBanner
	events    []FileEvent
}

// 🏭 New creates a new logger
func New(console io.Writer, level zerolog.Level) *Logger {
	zlog := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger().Level(level)
	return &Logger{
		zlog:    zlog,
		console: console,
		mu:      sync.Mutex{},
	}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// 📝 formatFileEvent formats a per-file outcome for display
func (l *Logger) formatFileEvent(ev FileEvent) string {
	var symbol rune
	var symbolColor color.Attribute
	switch {
	case ev.Failed:
		symbol = '✗'
		symbolColor = color.FgRed
	case ev.Skipped:
		symbol = '-'
		symbolColor = color.FgYellow
	default:
		symbol = '✓'
		symbolColor = color.FgGreen
	}

	var actionColor color.Attribute
	switch ev.Action {
	case "deleted":
		actionColor = color.FgRed
	case "moved":
		actionColor = color.FgBlue
	case "skipped":
		actionColor = color.FgYellow
	default:
		actionColor = color.FgCyan
	}

	return fmt.Sprintf("%s%s %s %s",
		fmt.Sprintf("%*s", fileIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, ev.Path),
		color.New(actionColor).Sprint(fmt.Sprintf("%-*s", actionWidth, ev.Action)))
}

// 📝 LogFileEvent logs one per-file outcome
func (l *Logger) LogFileEvent(ctx context.Context, ev FileEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.events = append(l.events, ev)

	fmt.Fprintln(l.console, l.formatFileEvent(ev))

	l.zlog.Info().
		Str("file", ev.Path).
		Str("action", ev.Action).
		Uint64("bytes", ev.Bytes).
		Bool("skipped", ev.Skipped).
		Bool("failed", ev.Failed).
		Msg("file event")
}

// 📝 StartOperation prints the banner for a newly launched operation
func (l *Logger) StartOperation(ctx context.Context, op OperationBanner) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.currentOp = &op
	l.events = nil

	target := op.Destination
	if target == "" {
		target = "trash"
	}
	fmt.Fprintf(l.console, "%s %s %s %s\n",
		color.New(color.FgMagenta).Sprint("◆"),
		color.New(color.Bold).Sprint(op.Label),
		color.New(color.Faint).Sprintf("%d item(s) →", op.Sources),
		color.New(color.FgCyan).Sprint(target))

	l.zlog.Info().
		Str("label", op.Label).
		Int("sources", op.Sources).
		Str("destination", op.Destination).
		Msg("starting operation")
}

// 📝 EndOperation closes the current banner with a summary
func (l *Logger) EndOperation(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.currentOp == nil {
		return
	}

	l.zlog.Info().
		Str("label", l.currentOp.Label).
		Int("files", len(l.events)).
		Msg("operation complete")

	l.currentOp = nil
	l.events = nil
}

// 📝 LogNewline logs a newline
func (l *Logger) LogNewline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console)
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	appText := color.New(color.Bold, color.FgCyan).Sprint("fileops")
	fmt.Fprintf(l.console, "\n%s %s\n\n", appText, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}
