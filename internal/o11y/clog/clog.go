// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package clog provides context aware logging.
// It can store trace, spanID, and arbitrary labels on each context.
// The main use case is to attach rule-keying context (which build, which
// rule) to each log entry automatically: a Builder's context carries a
// span labeled with its build id and, for a nested rule, the target it
// is resolving for, and the default formatter below
// renders those labels on every line so a reader can tell two
// concurrently-resolving rules' log output apart.
//
// It uses the Cloud Logging Entry/Severity vocabulary so that a future
// Cloud Logging sink can be dropped in without changing call sites, but
// today it only renders locally through glog.
package clog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/logging"
	"github.com/golang/glog"
)

type contextKeyType int

var contextKey contextKeyType

// defaultFormatter prefixes the entry's labels, sorted by key for
// stable output, ahead of the payload — so a span's rule-keying
// identity (build id, target) set via NewSpan actually reaches the
// rendered line instead of living only in the unrendered Entry.
var defaultFormatter = func(e logging.Entry) string {
	if len(e.Labels) == 0 {
		return fmt.Sprintf("%v", e.Payload)
	}
	keys := make([]string, 0, len(e.Labels))
	for k := range e.Labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + e.Labels[k]
	}
	return fmt.Sprintf("[%s] %v", strings.Join(pairs, " "), e.Payload)
}

// New creates a new Logger.
func New(ctx context.Context) *Logger {
	return &Logger{
		Formatter: defaultFormatter,
	}
}

// NewContext sets the given logger on the context.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, contextKey, logger)
}

// NewSpan sets a new Logger.Span with the given labels on the context.
func NewSpan(ctx context.Context, trace, spanID string, labels map[string]string) context.Context {
	logger, _ := ctx.Value(contextKey).(*Logger)
	return NewContext(ctx, logger.Span(trace, spanID, labels))
}

// FromContext returns the logger on the context, or nil if none is set.
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey).(*Logger)
	if !ok {
		return nil
	}
	return logger
}

// Logger holds the trace, spanID, and labels of a context.
// It can have a custom formatter for the rendered entry.
type Logger struct {
	// Formatter renders an Entry for glog. Defaults to the payload,
	// prefixed by the entry's labels sorted by key when there are any.
	Formatter func(e logging.Entry) string

	// The following mirror fields of logging.LogEntry. See
	// https://cloud.google.com/logging/docs/reference/v2/rest/v2/LogEntry
	trace  string
	spanID string
	labels map[string]string
}

// Span returns a sub-logger for the given trace span.
func (l *Logger) Span(trace, spanID string, labels map[string]string) *Logger {
	return &Logger{
		Formatter: l.Formatter,
		trace:     trace,
		spanID:    spanID,
		labels:    labels,
	}
}

// Labels returns the labels attached to this logger.
func (l *Logger) Labels() map[string]string {
	if l == nil {
		return nil
	}
	return l.labels
}

func (l *Logger) log(e logging.Entry) {
	l.glogEntry(e)
}

func (l *Logger) glogEntry(e logging.Entry) {
	msg := l.Formatter(e)
	switch e.Severity {
	case logging.Info:
		glog.InfoDepth(3, msg)
	case logging.Warning:
		glog.WarningDepth(3, msg)
	case logging.Error:
		glog.ErrorDepth(3, msg)
	case logging.Critical:
		glog.FatalDepth(3, msg)
	default:
		glog.InfoDepth(3, fmt.Sprintf("%s %s", e.Severity, msg))
	}
}

// Info logs at info level in the manner of fmt.Print.
func (l *Logger) Info(args ...interface{}) {
	l.log(l.Entry(logging.Info, fmt.Sprint(args...)))
}

// Infof logs at info level in the manner of fmt.Printf.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.log(l.Entry(logging.Info, fmt.Sprintf(format, args...)))
}

// Infof logs at info level on the logger stored in ctx, if any.
func Infof(ctx context.Context, format string, args ...interface{}) {
	logger := FromContext(ctx)
	if logger == nil {
		return
	}
	logger.log(logger.Entry(logging.Info, fmt.Sprintf(format, args...)))
}

// Warningf logs at warning level in the manner of fmt.Printf.
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.log(l.Entry(logging.Warning, fmt.Sprintf(format, args...)))
}

// Warningf logs at warning level on the logger stored in ctx, if any.
func Warningf(ctx context.Context, format string, args ...interface{}) {
	logger := FromContext(ctx)
	if logger == nil {
		return
	}
	logger.log(logger.Entry(logging.Warning, fmt.Sprintf(format, args...)))
}

// Errorf logs at error level in the manner of fmt.Printf.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.log(l.Entry(logging.Error, fmt.Sprintf(format, args...)))
}

// Errorf logs at error level on the logger stored in ctx, if any.
func Errorf(ctx context.Context, format string, args ...interface{}) {
	logger := FromContext(ctx)
	if logger == nil {
		return
	}
	logger.log(logger.Entry(logging.Error, fmt.Sprintf(format, args...)))
}

// Entry creates a new log entry at the given severity.
func (l *Logger) Entry(severity logging.Severity, payload interface{}) logging.Entry {
	return logging.Entry{
		Timestamp: time.Now(),
		Severity:  severity,
		Payload:   payload,
		Labels:    l.labels,
		Trace:     l.trace,
		SpanID:    l.spanID,
	}
}

// V reports whether verbose logging is enabled at the given level.
func (l *Logger) V(level int) bool {
	return bool(glog.V(glog.Level(level)))
}
