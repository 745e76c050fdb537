// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package rulekeylog implements the rule-keying engine's Logging sink
// (spec §6): a structured observer of the exact event vocabulary the
// spec names, with a no-op default and a human-readable verbose
// renderer for local diagnosis. The log never influences the digest —
// every Sink method here is a pure side effect.
package rulekeylog

import (
	"context"

	charmlog "github.com/charmbracelet/log"

	"go.chromium.org/infra/build/rulekey/internal/o11y/clog"
)

// Sink receives the structured events named in spec §6:
// added-value, push-key, null-value, added-path, added-archive-member,
// push-map, push-map-key, push-map-value, push-source-with-flags, and
// registered-rule-key.
type Sink interface {
	AddedValue(ctx context.Context, kind string, repr string)
	PushKey(ctx context.Context, name string)
	NullValue(ctx context.Context)
	AddedPath(ctx context.Context, path string, digest string)
	AddedArchiveMember(ctx context.Context, member string, digest string)
	PushMap(ctx context.Context)
	PushMapKey(ctx context.Context)
	PushMapValue(ctx context.Context)
	PushSourceWithFlags(ctx context.Context)
	RegisteredRuleKey(ctx context.Context, target string, ruleKey string)
	UnorderedCollection(ctx context.Context, field string)
}

// Noop discards every event. It is the default sink (spec §6:
// "Implementations MUST expose a no-op sink by default").
type Noop struct{}

func (Noop) AddedValue(context.Context, string, string)          {}
func (Noop) PushKey(context.Context, string)                     {}
func (Noop) NullValue(context.Context)                           {}
func (Noop) AddedPath(context.Context, string, string)           {}
func (Noop) AddedArchiveMember(context.Context, string, string)  {}
func (Noop) PushMap(context.Context)                             {}
func (Noop) PushMapKey(context.Context)                          {}
func (Noop) PushMapValue(context.Context)                        {}
func (Noop) PushSourceWithFlags(context.Context)                 {}
func (Noop) RegisteredRuleKey(context.Context, string, string)   {}
func (Noop) UnorderedCollection(context.Context, string)         {}

// Clog renders events through the context-scoped clog.Logger, at
// verbose level so it stays silent unless the ambient log level asks
// for it — the same separation the teacher draws between clog (always
// wired) and ui.LogUI (opt-in human output).
type Clog struct{}

func (Clog) log(ctx context.Context, format string, args ...interface{}) {
	logger := clog.FromContext(ctx)
	if logger == nil || !logger.V(2) {
		return
	}
	logger.Infof(format, args...)
}

func (c Clog) AddedValue(ctx context.Context, kind, repr string) {
	c.log(ctx, "added-value kind=%s value=%s", kind, repr)
}
func (c Clog) PushKey(ctx context.Context, name string) { c.log(ctx, "push-key name=%s", name) }
func (c Clog) NullValue(ctx context.Context)             { c.log(ctx, "null-value") }
func (c Clog) AddedPath(ctx context.Context, path, digest string) {
	c.log(ctx, "added-path path=%s digest=%s", path, digest)
}
func (c Clog) AddedArchiveMember(ctx context.Context, member, digest string) {
	c.log(ctx, "added-archive-member member=%s digest=%s", member, digest)
}
func (c Clog) PushMap(ctx context.Context)      { c.log(ctx, "push-map") }
func (c Clog) PushMapKey(ctx context.Context)   { c.log(ctx, "push-map-key") }
func (c Clog) PushMapValue(ctx context.Context) { c.log(ctx, "push-map-value") }
func (c Clog) PushSourceWithFlags(ctx context.Context) { c.log(ctx, "push-source-with-flags") }
func (c Clog) RegisteredRuleKey(ctx context.Context, target, ruleKey string) {
	c.log(ctx, "registered-rule-key target=%s rule_key=%s", target, ruleKey)
}
func (c Clog) UnorderedCollection(ctx context.Context, field string) {
	logger := clog.FromContext(ctx)
	if logger == nil {
		return
	}
	logger.Warningf("unordered collection fed under field %q; digest is stable only within this process", field)
}

// Verbose renders every event as a readable line via
// github.com/charmbracelet/log, for interactive diagnosis of why two
// supposedly-identical rules produced different rule keys. It can be
// combined with the Clog sink through Multi.
type Verbose struct {
	Logger *charmlog.Logger
}

// NewVerbose returns a Verbose sink writing to the given charmbracelet
// logger, or the package default logger if nil.
func NewVerbose(logger *charmlog.Logger) Verbose {
	if logger == nil {
		logger = charmlog.Default()
	}
	return Verbose{Logger: logger}
}

func (v Verbose) AddedValue(_ context.Context, kind, repr string) {
	v.Logger.Debug("added value", "kind", kind, "value", repr)
}
func (v Verbose) PushKey(_ context.Context, name string) { v.Logger.Debug("push key", "name", name) }
func (v Verbose) NullValue(context.Context)              { v.Logger.Debug("null value") }
func (v Verbose) AddedPath(_ context.Context, path, digest string) {
	v.Logger.Debug("added path", "path", path, "digest", digest)
}
func (v Verbose) AddedArchiveMember(_ context.Context, member, digest string) {
	v.Logger.Debug("added archive member", "member", member, "digest", digest)
}
func (v Verbose) PushMap(context.Context)      { v.Logger.Debug("push map") }
func (v Verbose) PushMapKey(context.Context)   { v.Logger.Debug("push map key") }
func (v Verbose) PushMapValue(context.Context) { v.Logger.Debug("push map value") }
func (v Verbose) PushSourceWithFlags(context.Context) {
	v.Logger.Debug("push source with flags")
}
func (v Verbose) RegisteredRuleKey(_ context.Context, target, ruleKey string) {
	v.Logger.Info("registered rule key", "target", target, "rule_key", ruleKey)
}
func (v Verbose) UnorderedCollection(_ context.Context, field string) {
	v.Logger.Warn("unordered collection", "field", field)
}

// Multi fans a single event out to several sinks, so a caller can
// combine, e.g., Clog with Verbose.
type Multi []Sink

func (m Multi) AddedValue(ctx context.Context, kind, repr string) {
	for _, s := range m {
		s.AddedValue(ctx, kind, repr)
	}
}
func (m Multi) PushKey(ctx context.Context, name string) {
	for _, s := range m {
		s.PushKey(ctx, name)
	}
}
func (m Multi) NullValue(ctx context.Context) {
	for _, s := range m {
		s.NullValue(ctx)
	}
}
func (m Multi) AddedPath(ctx context.Context, path, digest string) {
	for _, s := range m {
		s.AddedPath(ctx, path, digest)
	}
}
func (m Multi) AddedArchiveMember(ctx context.Context, member, digest string) {
	for _, s := range m {
		s.AddedArchiveMember(ctx, member, digest)
	}
}
func (m Multi) PushMap(ctx context.Context) {
	for _, s := range m {
		s.PushMap(ctx)
	}
}
func (m Multi) PushMapKey(ctx context.Context) {
	for _, s := range m {
		s.PushMapKey(ctx)
	}
}
func (m Multi) PushMapValue(ctx context.Context) {
	for _, s := range m {
		s.PushMapValue(ctx)
	}
}
func (m Multi) PushSourceWithFlags(ctx context.Context) {
	for _, s := range m {
		s.PushSourceWithFlags(ctx)
	}
}
func (m Multi) RegisteredRuleKey(ctx context.Context, target, ruleKey string) {
	for _, s := range m {
		s.RegisteredRuleKey(ctx, target, ruleKey)
	}
}
func (m Multi) UnorderedCollection(ctx context.Context, field string) {
	for _, s := range m {
		s.UnorderedCollection(ctx, field)
	}
}

var _ Sink = Noop{}
var _ Sink = Clog{}
var _ Sink = Verbose{}
var _ Sink = Multi(nil)
