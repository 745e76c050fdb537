// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package rulekey

import (
	"errors"
	"fmt"

	"go.chromium.org/infra/build/rulekey/internal/rulekeyvalue"
	"go.chromium.org/infra/build/rulekey/internal/rulepath"
)

// classify is the Value Classifier (spec §4.D) over the leaf variants:
// everything set_reflectively's four dispatch steps (builder.go's
// dispatch) did not already handle. It assumes the key-context stack
// already carries the field name the caller is classifying under.
func (b *Builder) classify(v Value) error {
	switch val := v.(type) {
	case rulekeyvalue.Null:
		b.resolver.logSink().NullValue(b.ctx)
		b.feedBytes(nil)
		return nil
	case rulekeyvalue.Bool:
		b.resolver.logSink().AddedValue(b.ctx, "bool", fmt.Sprint(bool(val)))
		if val {
			b.feedString("t")
		} else {
			b.feedString("f")
		}
		return nil
	case rulekeyvalue.Enum:
		b.resolver.logSink().AddedValue(b.ctx, "enum", val.Name)
		b.feedString(val.Name)
		return nil
	case rulekeyvalue.RuleType:
		b.resolver.logSink().AddedValue(b.ctx, "rule-type", val.Name)
		b.feedString(val.Name)
		return nil
	case rulekeyvalue.Int:
		b.resolver.logSink().AddedValue(b.ctx, "int", fmt.Sprint(val.V))
		return b.feedInt(val.Width, val.V)
	case rulekeyvalue.Float:
		b.resolver.logSink().AddedValue(b.ctx, "float", fmt.Sprint(val.V))
		return b.feedFloat(val.Width, val.V)
	case rulekeyvalue.String:
		b.resolver.logSink().AddedValue(b.ctx, "string", string(val))
		b.feedString(string(val))
		return nil
	case rulekeyvalue.Regex:
		if val.Re == nil {
			return fmt.Errorf("%w: nil regex", ErrUnsupportedValue)
		}
		b.resolver.logSink().AddedValue(b.ctx, "regex", val.Re.String())
		b.feedString(val.Re.String())
		return nil
	case rulekeyvalue.Blob:
		b.resolver.logSink().AddedValue(b.ctx, "blob", fmt.Sprintf("%d bytes", len(val)))
		b.feedBytes([]byte(val))
		return nil
	case rulekeyvalue.BuildTargetVal:
		b.feedString(val.Target.FullyQualifiedName())
		return nil
	case rulekeyvalue.RuleKeyVal:
		b.feedString(val.Key.String())
		return nil
	case rulekeyvalue.Sha1Val:
		b.feedSha1Raw(val.Hash)
		return nil
	case rulekeyvalue.SourceRoot:
		b.feedString(val.Name)
		return nil
	case rulekeyvalue.BarePath:
		return fmt.Errorf("%w: %s", ErrAmbiguousPath, val.Path)
	case rulekeyvalue.SourcePathVal:
		return b.classifySourcePath(val.SP)
	case rulekeyvalue.NonHashingSourcePathVal:
		return b.classifyNonHashingSourcePath(val.SP)
	case rulekeyvalue.SourceWithFlags:
		return b.classifySourceWithFlags(val)
	default:
		// rulekeyvalue.RuleVal and rulekeyvalue.AppendableVal never reach
		// here: dispatch (builder.go) intercepts them in set_reflectively
		// step 1 before falling through to the classifier.
		return fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
}

// classifyBuildRule implements the classifier's BuildRule row (spec
// §4.D: "delegate to §4.F (emit its computed RuleKey)") together with
// the annotation on §8 scenario 8: the rule's identity text — here, the
// field name it was fed under — is emitted immediately before its
// sub-key.
func (b *Builder) classifyBuildRule(name string, rule rulekeyvalue.BuildRule) error {
	key, err := b.resolver.resolveRule(b.ctx, rule)
	if err != nil {
		return err
	}
	b.feedString(name)
	b.feedString(key.String())
	return nil
}

// classifySourcePath implements §4.D.1.
func (b *Builder) classifySourcePath(sp SourcePath) error {
	if amp, ok := sp.(ArchiveMemberSourcePath); ok {
		return b.classifyArchiveMember(amp)
	}
	if rop, ok := sp.(RuleOutputSourcePath); ok {
		return b.classifyRuleOutput(rop)
	}
	return b.classifyHashedPath(sp)
}

// classifyRuleOutput implements §4.D.1 step 2: absorb the source
// path's textual identity, then recurse on the owning BuildRule,
// emitting its resolved RuleKey. This resolves the owning rule's key
// directly rather than delegating to the classifier's BuildRule row
// (classifyBuildRule): that row independently emits its own identity
// text (the field name it was classifying under, scenario 8), and a
// rule-output path has already supplied its identity text one line
// above — delegating would absorb that identity twice. Absorbing it
// once, immediately followed by the key, is the literal reading of
// §4.D.1 step 2: "absorb the source path's textual identity, then
// recurse on the owning BuildRule (emitting its RuleKey)."
func (b *Builder) classifyRuleOutput(rop RuleOutputSourcePath) error {
	identity := rop.Target.FullyQualifiedName()
	if rop.OutputPath != "" {
		identity = identity + "!" + rop.OutputPath
	}
	b.feedString(identity)
	if rop.Rule == nil {
		return fmt.Errorf("%w: rule-output source path %q has no producing rule", ErrMissingFileHash, identity)
	}
	key, err := b.resolver.resolveRule(b.ctx, rop.Rule)
	if err != nil {
		return err
	}
	b.feedString(key.String())
	return nil
}

// classifyHashedPath implements §4.D.1 step 3: resolve an absolute
// path, try to relativize it, retrieve the content digest, and emit
// the chosen path text (narrowed to filename-only if relativization
// failed, spec I4) followed by the digest's hex text.
func (b *Builder) classifyHashedPath(sp SourcePath) error {
	abs, err := b.resolver.paths.ResolveAbsolute(sp)
	if err != nil {
		return err
	}
	digest, err := b.resolver.oracle.Digest(b.ctx, abs)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMissingFileHash, err)
	}
	text, err := b.resolver.paths.ResolveRelative(sp)
	if err != nil {
		text = filenameOf(abs)
	}
	b.resolver.logSink().AddedPath(b.ctx, text, digest.String())
	b.feedString(text)
	b.feedString(digest.String())
	return nil
}

// classifyNonHashingSourcePath implements §4.D.2: emit only a
// path-identity string, never file content.
func (b *Builder) classifyNonHashingSourcePath(sp SourcePath) error {
	if res, ok := sp.(ResourceSourcePath); ok {
		b.feedString(res.ResourceID)
		return nil
	}
	text, err := b.resolver.paths.ResolveRelative(sp)
	if err != nil {
		abs, aerr := b.resolver.paths.ResolveAbsolute(sp)
		if aerr != nil {
			return aerr
		}
		text = filenameOf(abs)
	}
	b.feedString(text)
	return nil
}

// classifyArchiveMember implements §4.D.3.
func (b *Builder) classifyArchiveMember(amp ArchiveMemberSourcePath) error {
	absArchive, relMember, err := b.resolver.paths.ResolveArchiveMember(amp)
	if err != nil {
		if errors.Is(err, rulepath.ErrInvalidArchiveMemberPath) {
			return fmt.Errorf("%w: %w", ErrInvalidArchiveMemberPath, err)
		}
		return err
	}
	digest, err := b.resolver.oracle.DigestArchiveMember(b.ctx, absArchive, relMember)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMissingFileHash, err)
	}
	b.resolver.logSink().AddedArchiveMember(b.ctx, relMember, digest.String())
	b.feedString(relMember)
	b.feedString(digest.String())
	return nil
}

// classifySourceWithFlags implements the classifier's SourceWithFlags
// row (spec §4.D): recurse on the inner SourcePath, then absorb the
// bracketed, comma-terminated flag list.
func (b *Builder) classifySourceWithFlags(val rulekeyvalue.SourceWithFlags) error {
	b.resolver.logSink().PushSourceWithFlags(b.ctx)
	if err := b.classifySourcePath(val.SP); err != nil {
		return err
	}
	b.feedString("[")
	for _, flag := range val.Flags {
		b.feedString(flag)
		b.feedString(",")
	}
	b.feedString("]")
	return nil
}

func filenameOf(absPath string) string {
	for i := len(absPath) - 1; i >= 0; i-- {
		if absPath[i] == '/' {
			return absPath[i+1:]
		}
	}
	return absPath
}
