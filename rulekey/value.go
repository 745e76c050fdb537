// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package rulekey is the rule-keying engine: a deterministic
// content-addressing computation that reduces a heterogeneous build
// rule description (tools, source paths, numbers, strings,
// collections, nested rules, hashed file content) into a fixed-size
// digest identifying a cacheable build result.
//
// Callers construct a Resolver once per build (it owns the File-Hash
// Oracle and Path Resolver, and the process-wide rule key memo), then
// ask it for a Builder per rule, feeding it (name, Value) pairs with
// Set before calling Finalize.
package rulekey

import (
	"go.chromium.org/infra/build/rulekey/internal/digestsink"
	"go.chromium.org/infra/build/rulekey/internal/rulekeyvalue"
)

// Value is the closed tagged union the builder accepts. The concrete
// variants live in internal/rulekeyvalue; this package re-exports the
// type and its constructors so callers never import an internal
// package directly — the same shape as the teacher's reapi/digest
// package aliasing its RE API protobuf type.
type Value = rulekeyvalue.Value

// BuildTarget, BuildRule, Appendable, SourcePath and its variants, and
// FieldSink are re-exported the same way.
type (
	BuildTarget             = rulekeyvalue.BuildTarget
	BuildRule                = rulekeyvalue.BuildRule
	Appendable               = rulekeyvalue.Appendable
	FieldSink                = rulekeyvalue.FieldSink
	SourcePath               = rulekeyvalue.SourcePath
	FilesystemSourcePath     = rulekeyvalue.FilesystemSourcePath
	RuleOutputSourcePath     = rulekeyvalue.RuleOutputSourcePath
	ArchiveMemberSourcePath  = rulekeyvalue.ArchiveMemberSourcePath
	ResourceSourcePath       = rulekeyvalue.ResourceSourcePath
	MapEntry                 = rulekeyvalue.MapEntry
)

// RuleKey is the opaque 160-bit digest a Builder finalizes to.
type RuleKey = digestsink.RuleKey

// Sha1HashCode is a 160-bit content digest of a file or archive
// member, as returned by the File-Hash Oracle.
type Sha1HashCode = digestsink.Sha1HashCode

// NewBuildTarget, ParseRuleKey, and ParseSha1HashCode are re-exported
// constructors for the types above.
var (
	NewBuildTarget     = rulekeyvalue.NewBuildTarget
	ParseRuleKey       = digestsink.ParseRuleKey
	ParseSha1HashCode  = digestsink.ParseSha1HashCode
)

// Value constructors, re-exported from rulekeyvalue.
var (
	NullValue               = rulekeyvalue.NullValue
	BoolValue                = rulekeyvalue.BoolValue
	Int8Value                = rulekeyvalue.Int8Value
	Int16Value               = rulekeyvalue.Int16Value
	Int32Value               = rulekeyvalue.Int32Value
	Int64Value               = rulekeyvalue.Int64Value
	Float32Value             = rulekeyvalue.Float32Value
	Float64Value             = rulekeyvalue.Float64Value
	StringValue              = rulekeyvalue.StringValue
	RegexValue               = rulekeyvalue.RegexValue
	BlobValue                = rulekeyvalue.BlobValue
	EnumValue                = rulekeyvalue.EnumValue
	RuleTypeValue            = rulekeyvalue.RuleTypeValue
	SeqValue                 = rulekeyvalue.SeqValue
	OrderedSetValue          = rulekeyvalue.OrderedSetValue
	UnorderedSetValue        = rulekeyvalue.UnorderedSetValue
	OrderedMapValue          = rulekeyvalue.OrderedMapValue
	UnorderedMapValue        = rulekeyvalue.UnorderedMapValue
	ThunkValue               = rulekeyvalue.ThunkValue
	SomeValue                = rulekeyvalue.SomeValue
	NoneValue                = rulekeyvalue.NoneValue
	LeftValue                = rulekeyvalue.LeftValue
	RightValue               = rulekeyvalue.RightValue
	SourcePathValue          = rulekeyvalue.SourcePathValue
	NonHashingSourcePathValue = rulekeyvalue.NonHashingSourcePathValue
	BuildTargetValue         = rulekeyvalue.BuildTargetValue
	RuleValue                = rulekeyvalue.RuleValue
	AppendableValue          = rulekeyvalue.AppendableValue
	RuleKeyValue             = rulekeyvalue.RuleKeyValue
	Sha1Value                = rulekeyvalue.Sha1Value
	SourceWithFlagsValue     = rulekeyvalue.SourceWithFlagsValue
	SourceRootValue          = rulekeyvalue.SourceRootValue
	BarePathValue            = rulekeyvalue.BarePathValue
)
