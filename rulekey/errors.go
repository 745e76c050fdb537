// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package rulekey

import "errors"

// The error kinds of spec §7. None of them is locally recovered: any of
// them aborts the rule-key computation in progress (spec §7
// "Propagation policy"). Use errors.Is against these sentinels, or
// errors.As against UnorderedCollectionError for the collection's field
// name.

// ErrAmbiguousPath is returned when a bare filesystem path is offered
// as a Value (spec I2). The caller must present it as one of the
// SourcePath variants instead.
var ErrAmbiguousPath = errors.New("rulekey: bare filesystem paths cannot be disambiguated; use a SourcePath variant")

// ErrMissingFileHash is returned when the File-Hash Oracle has no
// digest for a required path.
var ErrMissingFileHash = errors.New("rulekey: missing file hash")

// ErrUnsupportedValue is returned when the classifier encounters a
// Value variant it does not know about — a bug in the caller, since the
// Value union in rulekeyvalue is closed.
var ErrUnsupportedValue = errors.New("rulekey: unsupported value variant")

// ErrUnorderedCollection is returned in strict mode when an unordered
// Set or Map is fed to the builder (spec I3).
var ErrUnorderedCollection = errors.New("rulekey: unordered collection fed to rule key in strict mode")

// ErrInvalidArchiveMemberPath is returned when the absolute/relative
// invariants on an archive-member source path are violated.
var ErrInvalidArchiveMemberPath = errors.New("rulekey: invalid archive member source path")

// ErrCyclicRuleGraph is returned when resolving a BuildRule's RuleKey
// encounters that same rule already in progress.
var ErrCyclicRuleGraph = errors.New("rulekey: cyclic rule graph")

// UnorderedCollectionError wraps ErrUnorderedCollection with the field
// name the unordered collection was fed under.
type UnorderedCollectionError struct {
	Field string
}

func (e *UnorderedCollectionError) Error() string {
	return "rulekey: unordered collection fed under field " + e.Field
}

func (e *UnorderedCollectionError) Unwrap() error { return ErrUnorderedCollection }

// CyclicRuleGraphError wraps ErrCyclicRuleGraph with the target whose
// resolution cycled back on itself.
type CyclicRuleGraphError struct {
	Target string
}

func (e *CyclicRuleGraphError) Error() string {
	return "rulekey: cyclic rule graph at " + e.Target
}

func (e *CyclicRuleGraphError) Unwrap() error { return ErrCyclicRuleGraph }
