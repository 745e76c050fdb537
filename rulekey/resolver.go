// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package rulekey

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"go.chromium.org/infra/build/rulekey/internal/digestsink"
	"go.chromium.org/infra/build/rulekey/internal/fshash"
	"go.chromium.org/infra/build/rulekey/internal/o11y/clog"
	"go.chromium.org/infra/build/rulekey/internal/rulekeylog"
	"go.chromium.org/infra/build/rulekey/internal/rulekeyvalue"
	"go.chromium.org/infra/build/rulekey/internal/rulepath"
)

// Resolver is the Appendable & Rule Resolution component (spec §4.F),
// folded into this package rather than split into its own (the Builder
// it drives and the rules it resolves reference each other, and Go
// gives no way to split mutually-recursive types across packages
// without an interface seam — which is exactly what FieldSink already
// is). It also owns the process-wide collaborators a Builder needs: the
// File-Hash Oracle and the Path Resolver (spec §5, §9 "Global state").
//
// A Resolver is created once per build and shared by every Builder the
// build spawns.
type Resolver struct {
	oracle *fshash.Oracle
	paths  *rulepath.Resolver
	strict bool
	log    rulekeylog.Sink

	mu         sync.Mutex
	memo       map[string]digestsink.RuleKey
	inProgress map[string]bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithStrictMode controls whether an unordered Set or Map fails the
// computation (spec I3, §9's recommended default) or is merely logged
// and treated as ordered by iteration. A Resolver from NewResolver
// defaults to strict, per §9's open-question resolution: "a strict implementation
// should elevate this to a fatal error by default."
func WithStrictMode(strict bool) Option {
	return func(r *Resolver) { r.strict = strict }
}

// WithLogSink installs the Logging sink (spec §6). The default is
// rulekeylog.Noop.
func WithLogSink(sink rulekeylog.Sink) Option {
	return func(r *Resolver) { r.log = sink }
}

// NewResolver creates a Resolver backed by the given File-Hash Oracle
// and Path Resolver. Strict mode is on by default; pass
// WithStrictMode(false) to preserve the source's warn-only behavior.
func NewResolver(oracle *fshash.Oracle, paths *rulepath.Resolver, opts ...Option) *Resolver {
	r := &Resolver{
		oracle:     oracle,
		paths:      paths,
		strict:     true,
		log:        rulekeylog.Noop{},
		memo:       make(map[string]digestsink.RuleKey),
		inProgress: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) logSink() rulekeylog.Sink { return r.log }

// NewBuilder returns a fresh Builder for computing one rule's RuleKey.
// Its context is tagged with a fresh build id, correlating every log
// line this Builder produces without that id ever reaching the digest
// (spec §5, §6).
func (r *Resolver) NewBuilder(ctx context.Context) *Builder {
	return r.newLabeledBuilder(ctx, "")
}

// newLabeledBuilder is NewBuilder plus an optional target label, used
// when driving a sub-Builder on behalf of a specific BuildRule
// (resolveRule) so its log lines can be tied back to what is being
// resolved. An Appendable has no target, so resolveAppendable's
// sub-Builder carries only a build id.
func (r *Resolver) newLabeledBuilder(ctx context.Context, target string) *Builder {
	buildID := uuid.New().String()
	if clog.FromContext(ctx) != nil {
		labels := map[string]string{"build_id": buildID}
		if target != "" {
			labels["target"] = target
		}
		ctx = clog.NewSpan(ctx, "", buildID, labels)
	}
	return newBuilder(ctx, r)
}

// RuleKey resolves rule's RuleKey, computing and memoizing it if this
// is the first request for its BuildTarget (spec §4.F). It is the
// entry point a build-rule-graph walker calls for each top-level rule;
// classifyBuildRule (classify.go) calls the same logic for rules
// encountered as field values.
func (r *Resolver) RuleKey(ctx context.Context, rule BuildRule) (RuleKey, error) {
	return r.resolveRule(ctx, rule)
}

// resolveRule implements §4.F's BuildRule resolution: memo lookup,
// cycle detection, and (on a cache miss) driving a fresh Builder with
// the rule's declared inputs.
func (r *Resolver) resolveRule(ctx context.Context, rule rulekeyvalue.BuildRule) (digestsink.RuleKey, error) {
	target := rule.Target().FullyQualifiedName()

	r.mu.Lock()
	if k, ok := r.memo[target]; ok {
		r.mu.Unlock()
		return k, nil
	}
	if r.inProgress[target] {
		r.mu.Unlock()
		return digestsink.RuleKey{}, &CyclicRuleGraphError{Target: target}
	}
	r.inProgress[target] = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.inProgress, target)
		r.mu.Unlock()
	}()

	sub := r.newLabeledBuilder(ctx, target)
	if err := rule.ContributeInputs(sub); err != nil {
		return digestsink.RuleKey{}, err
	}
	key, err := sub.Finalize()
	if err != nil {
		return digestsink.RuleKey{}, err
	}

	r.mu.Lock()
	r.memo[target] = key
	r.mu.Unlock()
	r.log.RegisteredRuleKey(ctx, target, key.String())
	return key, nil
}

// resolveAppendable implements §4.F's Appendable resolution: drive a
// fresh Builder and return its finalized sub-key. Unlike a BuildRule,
// an Appendable has no BuildTarget identity to memoize against, so
// every call recomputes — matching the source, where an appendable
// sub-structure's sub-key is only ever as expensive as the fields it
// declares.
func (r *Resolver) resolveAppendable(ctx context.Context, app rulekeyvalue.Appendable) (digestsink.RuleKey, error) {
	sub := r.NewBuilder(ctx)
	if err := app.AppendToRuleKey(sub); err != nil {
		return digestsink.RuleKey{}, err
	}
	return sub.Finalize()
}

// Snapshot returns the current BuildTarget → RuleKey memo as
// target-fully-qualified-name → lowercase-hex pairs, suitable for
// persistence by internal/rulekeycache between builds (spec §4.F,
// §5 "Rule RuleKey memoization").
func (r *Resolver) Snapshot() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string, len(r.memo))
	for target, key := range r.memo {
		out[target] = key.String()
	}
	return out
}

// Restore seeds the memo from a prior Snapshot. It is meant to be
// called once, immediately after NewResolver, before any Builder is
// created; restoring into a Resolver that has already resolved rules
// silently overwrites their memo entries.
func (r *Resolver) Restore(snapshot map[string]string) error {
	memo := make(map[string]digestsink.RuleKey, len(snapshot))
	for target, hex := range snapshot {
		key, err := digestsink.ParseRuleKey(hex)
		if err != nil {
			return err
		}
		memo[target] = key
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for target, key := range memo {
		r.memo[target] = key
	}
	return nil
}
