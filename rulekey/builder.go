// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package rulekey

import (
	"context"
	"fmt"

	"go.chromium.org/infra/build/rulekey/internal/digestsink"
	"go.chromium.org/infra/build/rulekey/internal/rulekeyvalue"
)

// Builder is the Rule-Key Builder (spec §4.E). It is created by a
// Resolver, fed in a single-threaded fashion with Set, and finalized
// exactly once. A Builder is not safe for concurrent use; the overall
// workload is embarrassingly parallel across distinct Builders
// instead (spec §5).
type Builder struct {
	ctx      context.Context
	resolver *Resolver
	sink     *digestsink.Sink

	// stack is the key-context stack (spec §3 "Key-Context Stack", §4.E
	// "Context emission"): field names pushed but not yet drained. It is
	// modeled, per spec §9, as a length-counted slice with a drain
	// operation invoked from every primitive entry point, not as a
	// side channel.
	stack []string

	// failed is the first error any Set call returned; once set, Finalize
	// refuses to produce a RuleKey.
	failed error

	done bool
}

func newBuilder(ctx context.Context, r *Resolver) *Builder {
	return &Builder{ctx: ctx, resolver: r, sink: digestsink.New()}
}

// Set is the spec's set_reflectively (§4.E): the sole public entry
// point for feeding a (field-name, value) pair. It pushes name onto
// the key-context stack, dispatches value through the four
// set_reflectively steps (Appendable/BuildRule, Option, collection
// splat, classifier), then pops the stack back to the height it had on
// entry — a no-op if dispatch already drained it, a cleanup if value
// turned out to carry no primitives at all (the empty-collection case,
// spec P4).
func (b *Builder) Set(name string, v Value) error {
	if b.done {
		return fmt.Errorf("rulekey: Set(%q) called after Finalize", name)
	}
	oldHeight := len(b.stack)
	b.stack = append(b.stack, name)
	b.resolver.logSink().PushKey(b.ctx, name)
	err := b.dispatch(name, v)
	if len(b.stack) > oldHeight {
		b.stack = b.stack[:oldHeight]
	}
	if err != nil && b.failed == nil {
		b.failed = err
	}
	return err
}

// Finalize checks that no key-context remains (Set's own bookkeeping
// guarantees it) and asks the sink for its digest. It fails if any
// earlier Set call failed.
func (b *Builder) Finalize() (RuleKey, error) {
	if b.done {
		return RuleKey{}, fmt.Errorf("rulekey: Finalize called twice")
	}
	b.done = true
	if b.failed != nil {
		return RuleKey{}, fmt.Errorf("rulekey: Finalize after a failed Set: %w", b.failed)
	}
	if len(b.stack) != 0 {
		return RuleKey{}, fmt.Errorf("rulekey: %d unconsumed key-context entries at finalize", len(b.stack))
	}
	return b.sink.Finalize(), nil
}

// dispatch implements set_reflectively's four-step algorithm (spec
// §4.E) over a value already pushed onto the context stack under name.
func (b *Builder) dispatch(name string, v Value) error {
	switch val := v.(type) {
	case rulekeyvalue.AppendableVal:
		return b.dispatchAppendable(name, val.Appendable, nil)
	case rulekeyvalue.RuleVal:
		var app rulekeyvalue.Appendable
		if a, ok := val.Rule.(rulekeyvalue.Appendable); ok {
			app = a
		}
		return b.dispatchAppendable(name, app, val.Rule)
	case rulekeyvalue.Option:
		if !val.Present {
			return b.dispatch(name, rulekeyvalue.NullValue())
		}
		return b.dispatch(name, val.Inner)
	case rulekeyvalue.Either:
		if val.IsLeft {
			return b.dispatch(name, val.Left)
		}
		return b.dispatch(name, val.Right)
	case rulekeyvalue.Seq:
		for _, e := range val.Elems {
			if err := b.dispatch(name, e); err != nil {
				return err
			}
		}
		return nil
	case rulekeyvalue.Set:
		if !val.Ordered {
			if err := b.warnOrRejectUnordered(name); err != nil {
				return err
			}
		}
		for _, e := range val.Elems {
			if err := b.dispatch(name, e); err != nil {
				return err
			}
		}
		return nil
	case rulekeyvalue.Map:
		if !val.Ordered {
			if err := b.warnOrRejectUnordered(name); err != nil {
				return err
			}
		}
		return b.dispatchMap(name, val)
	case rulekeyvalue.Thunk:
		forced, err := val.Force()
		if err != nil {
			return err
		}
		return b.dispatch(name, forced)
	default:
		return b.classify(v)
	}
}

// dispatchAppendable implements set_reflectively step 1 (spec §4.E): if
// app is non-nil, compute its sub-key via F and recurse on that sub-key
// under "name.appendableSubKey"; if rule is non-nil (the value is also
// a BuildRule), additionally fall through to the classifier's BuildRule
// row under the original name (spec §8 scenario 8).
func (b *Builder) dispatchAppendable(name string, app rulekeyvalue.Appendable, rule rulekeyvalue.BuildRule) error {
	if app != nil {
		subkey, err := b.resolver.resolveAppendable(b.ctx, app)
		if err != nil {
			return err
		}
		if err := b.Set(name+".appendableSubKey", rulekeyvalue.RuleKeyValue(subkey)); err != nil {
			return err
		}
	}
	if rule == nil {
		return nil
	}
	return b.classifyBuildRule(name, rule)
}

// dispatchMap implements the ordered-map classifier row (spec §4.D)
// inline, since each entry's key and value recurse through the full
// set_reflectively dispatch under the shared field name (spec §8
// scenario 5), not through the leaf classifier alone.
func (b *Builder) dispatchMap(name string, m rulekeyvalue.Map) error {
	b.feedString("{")
	b.resolver.logSink().PushMap(b.ctx)
	for _, entry := range m.Entries {
		b.resolver.logSink().PushMapKey(b.ctx)
		if err := b.Set(name, entry.Key); err != nil {
			return err
		}
		b.feedString(" -> ")
		b.resolver.logSink().PushMapValue(b.ctx)
		if err := b.Set(name, entry.Value); err != nil {
			return err
		}
	}
	b.feedString("}")
	return nil
}

func (b *Builder) warnOrRejectUnordered(field string) error {
	b.resolver.logSink().UnorderedCollection(b.ctx, field)
	if b.resolver.strict {
		return &UnorderedCollectionError{Field: field}
	}
	return nil
}

// drain absorbs the key-context stack, top to bottom (spec §4.E
// "Context emission": "drains the stack (top to bottom)"), clearing
// it. It must run before any primitive byte reaches the sink.
func (b *Builder) drain() {
	for i := len(b.stack) - 1; i >= 0; i-- {
		b.sink.AbsorbChars(b.stack[i])
		b.sink.AbsorbSeparator()
	}
	b.stack = b.stack[:0]
}

// feedString drains the context stack, then absorbs s as chars.
func (b *Builder) feedString(s string) {
	b.drain()
	b.sink.AbsorbChars(s)
	b.sink.AbsorbSeparator()
}

// feedBytes drains the context stack, then absorbs raw bytes.
func (b *Builder) feedBytes(bs []byte) {
	b.drain()
	b.sink.AbsorbBytes(bs)
	b.sink.AbsorbSeparator()
}

// feedInt drains the context stack, then absorbs a fixed-width
// big-endian integer.
func (b *Builder) feedInt(width int, v int64) error {
	b.drain()
	if err := b.sink.AbsorbInt(width, v); err != nil {
		return err
	}
	b.sink.AbsorbSeparator()
	return nil
}

// feedFloat drains the context stack, then absorbs a fixed-width
// IEEE-754 float.
func (b *Builder) feedFloat(width int, v float64) error {
	b.drain()
	if err := b.sink.AbsorbFloat(width, v); err != nil {
		return err
	}
	b.sink.AbsorbSeparator()
	return nil
}

// feedSha1Raw drains the context stack, then absorbs the raw digest
// bytes of a bare Sha1HashCode Value (spec §4.D: "Sha1HashCode | raw
// digest bytes followed by ‖" — distinct from the hex textual form a
// SourcePath's own digest contribution uses, spec §4.D.1).
func (b *Builder) feedSha1Raw(h digestsink.Sha1HashCode) {
	b.feedBytes(h[:])
}
