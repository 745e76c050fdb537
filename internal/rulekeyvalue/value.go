// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package rulekeyvalue defines the closed tagged union of values the
// rule-keying engine can absorb (spec §3) and the handful of supporting
// types (BuildTarget, BuildRule, SourcePath and its variants) values of
// that union can carry.
//
// Every variant is a concrete Go type implementing the unexported
// value() method; there is no reflection-based fallback, matching the
// source's runtime type-test chain mapped onto a statically-typed
// pattern match (spec §9, "Open value set -> tagged union").
package rulekeyvalue

import (
	"regexp"

	"go.chromium.org/infra/build/rulekey/internal/digestsink"
)

// Value is the closed tagged union accepted by the Value Classifier
// (spec §3, §4.D). Construct instances with the functions below; the
// zero value of an unexported struct is never a valid Value.
type Value interface {
	value()
}

// Null is the null variant.
type Null struct{}

func (Null) value() {}

// NullValue returns the null Value.
func NullValue() Value { return Null{} }

// Bool is the boolean variant.
type Bool bool

func (Bool) value() {}

// BoolValue wraps a bool.
func BoolValue(b bool) Value { return Bool(b) }

// Int is a signed integer of a declared bit width (8, 16, 32, or 64).
type Int struct {
	Width int
	V     int64
}

func (Int) value() {}

// Int8Value, Int16Value, Int32Value, and Int64Value wrap signed
// integers of the named width.
func Int8Value(v int8) Value   { return Int{Width: 1, V: int64(v)} }
func Int16Value(v int16) Value { return Int{Width: 2, V: int64(v)} }
func Int32Value(v int32) Value { return Int{Width: 4, V: int64(v)} }
func Int64Value(v int64) Value { return Int{Width: 8, V: v} }

// Float is a floating-point number of a declared bit width (32 or 64).
type Float struct {
	Width int
	V     float64
}

func (Float) value() {}

// Float32Value and Float64Value wrap floating-point numbers of the
// named width.
func Float32Value(v float32) Value { return Float{Width: 4, V: float64(v)} }
func Float64Value(v float64) Value { return Float{Width: 8, V: v} }

// String is the string variant.
type String string

func (String) value() {}

// StringValue wraps a string.
func StringValue(s string) Value { return String(s) }

// Regex is the regex variant; it contributes its source text, not its
// compiled form, to the digest (spec §4.D).
type Regex struct {
	Re *regexp.Regexp
}

func (Regex) value() {}

// RegexValue wraps a compiled regular expression.
func RegexValue(re *regexp.Regexp) Value { return Regex{Re: re} }

// Blob is the raw byte-blob variant.
type Blob []byte

func (Blob) value() {}

// BlobValue wraps a byte slice.
func BlobValue(b []byte) Value { return Blob(b) }

// Enum is an enumeration label, contributing its textual name.
type Enum struct {
	Name string
}

func (Enum) value() {}

// EnumValue wraps an enumeration label.
func EnumValue(name string) Value { return Enum{Name: name} }

// RuleType is a build-rule-type label (spec SPEC_FULL.md supplement to
// §4.D): distinct from Enum so a caller can't accidentally conflate a
// rule's type name with an arbitrary enumerator.
type RuleType struct {
	Name string
}

func (RuleType) value() {}

// RuleTypeValue wraps a build-rule-type name.
func RuleTypeValue(name string) Value { return RuleType{Name: name} }

// Seq is an ordered sequence of Value.
type Seq struct {
	Elems []Value
}

func (Seq) value() {}

// SeqValue wraps an ordered sequence.
func SeqValue(elems ...Value) Value { return Seq{Elems: elems} }

// Set is a set of Value with a declared total order. Ordered is false
// when the caller could not guarantee a stable iteration order (e.g. it
// was built by ranging over a Go map); the classifier logs a warning in
// that case and, in strict mode, rejects it (spec I3, §7
// UnorderedCollection).
type Set struct {
	Elems   []Value
	Ordered bool
}

func (Set) value() {}

// OrderedSetValue wraps a set whose Elems are already in the set's
// declared total order.
func OrderedSetValue(elems ...Value) Value { return Set{Elems: elems, Ordered: true} }

// UnorderedSetValue wraps a set whose Elems came from an iteration with
// no declared order.
func UnorderedSetValue(elems ...Value) Value { return Set{Elems: elems, Ordered: false} }

// MapEntry is one key/value pair of a Map.
type MapEntry struct {
	Key   Value
	Value Value
}

// Map is a mapping from Value to Value. Ordered has the same meaning as
// Set.Ordered.
type Map struct {
	Entries []MapEntry
	Ordered bool
}

func (Map) value() {}

// OrderedMapValue wraps a mapping whose Entries are already in the
// map's declared key order.
func OrderedMapValue(entries ...MapEntry) Value { return Map{Entries: entries, Ordered: true} }

// UnorderedMapValue wraps a mapping whose Entries came from an
// iteration with no declared order.
func UnorderedMapValue(entries ...MapEntry) Value { return Map{Entries: entries, Ordered: false} }

// Thunk is a lazy computation producing a Value.
type Thunk struct {
	Force func() (Value, error)
}

func (Thunk) value() {}

// ThunkValue wraps a lazy computation.
func ThunkValue(force func() (Value, error)) Value { return Thunk{Force: force} }

// Option is the presence/absence of an inner Value.
type Option struct {
	Present bool
	Inner   Value
}

func (Option) value() {}

// SomeValue wraps a present Option.
func SomeValue(v Value) Value { return Option{Present: true, Inner: v} }

// NoneValue returns the absent Option.
func NoneValue() Value { return Option{Present: false} }

// Either is one of two Values, tagged Left or Right.
type Either struct {
	IsLeft bool
	Left   Value
	Right  Value
}

func (Either) value() {}

// LeftValue and RightValue wrap the left and right side of an Either.
func LeftValue(v Value) Value  { return Either{IsLeft: true, Left: v} }
func RightValue(v Value) Value { return Either{IsLeft: false, Right: v} }

// SourcePathVal carries a SourcePath of any of its four variants.
type SourcePathVal struct {
	SP SourcePath
}

func (SourcePathVal) value() {}

// SourcePathValue wraps a SourcePath.
func SourcePathValue(sp SourcePath) Value { return SourcePathVal{SP: sp} }

// NonHashingSourcePathVal carries a SourcePath that contributes only a
// path-identity string, never file content (spec §4.D.2).
type NonHashingSourcePathVal struct {
	SP SourcePath
}

func (NonHashingSourcePathVal) value() {}

// NonHashingSourcePathValue wraps a SourcePath for non-hashing use.
func NonHashingSourcePathValue(sp SourcePath) Value { return NonHashingSourcePathVal{SP: sp} }

// BuildTargetVal carries a BuildTarget.
type BuildTargetVal struct {
	Target BuildTarget
}

func (BuildTargetVal) value() {}

// BuildTargetValue wraps a BuildTarget.
func BuildTargetValue(t BuildTarget) Value { return BuildTargetVal{Target: t} }

// RuleVal carries a BuildRule; the classifier resolves and absorbs its
// own RuleKey (spec §4.F).
type RuleVal struct {
	Rule BuildRule
}

func (RuleVal) value() {}

// RuleValue wraps a BuildRule.
func RuleValue(r BuildRule) Value { return RuleVal{Rule: r} }

// AppendableVal carries an Appendable that is not itself a BuildRule.
type AppendableVal struct {
	Appendable Appendable
}

func (AppendableVal) value() {}

// AppendableValue wraps an Appendable.
func AppendableValue(a Appendable) Value { return AppendableVal{Appendable: a} }

// RuleKeyVal carries an already-computed RuleKey.
type RuleKeyVal struct {
	Key digestsink.RuleKey
}

func (RuleKeyVal) value() {}

// RuleKeyValue wraps an already-computed RuleKey.
func RuleKeyValue(k digestsink.RuleKey) Value { return RuleKeyVal{Key: k} }

// Sha1Val carries an already-computed Sha1HashCode.
type Sha1Val struct {
	Hash digestsink.Sha1HashCode
}

func (Sha1Val) value() {}

// Sha1Value wraps an already-computed Sha1HashCode.
func Sha1Value(h digestsink.Sha1HashCode) Value { return Sha1Val{Hash: h} }

// SourceWithFlags pairs a SourcePath with an ordered list of flag
// strings (e.g. per-file compiler flags).
type SourceWithFlags struct {
	SP    SourcePath
	Flags []string
}

func (SourceWithFlags) value() {}

// SourceWithFlagsValue wraps a SourcePath and its flags.
func SourceWithFlagsValue(sp SourcePath, flags ...string) Value {
	return SourceWithFlags{SP: sp, Flags: flags}
}

// SourceRoot is a named root directory.
type SourceRoot struct {
	Name string
}

func (SourceRoot) value() {}

// SourceRootValue wraps a named root directory.
func SourceRootValue(name string) Value { return SourceRoot{Name: name} }

// BarePath marks a bare filesystem path offered where a SourcePath was
// required. It exists only so that feeding one produces the specific
// AmbiguousPath error of spec I2/§7, rather than a generic
// "unsupported value" error — constructing it is always a caller bug.
type BarePath struct {
	Path string
}

func (BarePath) value() {}

// BarePathValue wraps a bare filesystem path. Classifying it always
// fails with AmbiguousPath (spec I2).
func BarePathValue(path string) Value { return BarePath{Path: path} }
