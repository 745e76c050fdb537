// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package rulekeyvalue

// SourcePath is the polymorphic handle to a file input (spec §3): a
// workspace-relative or absolute filesystem location, a rule-produced
// output, an archive member, or an opaque resource identifier used only
// in non-hashing mode. It deliberately has no exported fields of its
// own — only the four concrete variants below implement it — so a
// caller cannot conjure a fifth shape that the Path Resolver and Value
// Classifier don't know about.
type SourcePath interface {
	sourcePath()
}

// FilesystemSourcePath is a SourcePath naming a file directly on disk,
// either workspace-relative or absolute.
type FilesystemSourcePath struct {
	// Path is the path as given by the caller: either slash-separated
	// and relative to the workspace root, or absolute.
	Path string
}

func (FilesystemSourcePath) sourcePath() {}

// RuleOutputSourcePath is a SourcePath naming a file produced by another
// rule's build step. Its identity for keying purposes is the owning
// rule's own RuleKey (spec §4.D.1 step 2), not file content directly.
type RuleOutputSourcePath struct {
	// Target identifies the producing rule.
	Target BuildTarget
	// Rule is the producing rule itself, consulted to resolve its
	// RuleKey and to locate the produced output on disk.
	Rule BuildRule
	// OutputPath is the rule-relative path of the specific output file
	// this SourcePath names, for rules with more than one output.
	OutputPath string
}

func (RuleOutputSourcePath) sourcePath() {}

// ArchiveMemberSourcePath is a SourcePath naming a file inside an
// archive (e.g. a .jar or .zip). Spec §4.D.1 step 1 dispatches these
// before any other SourcePath handling, and §4.D.3 requires the
// resolved absolute archive path to be absolute and the member path to
// be relative.
type ArchiveMemberSourcePath struct {
	// Archive is the SourcePath of the containing archive file.
	Archive SourcePath
	// Member is the slash-separated path of the member within the
	// archive, relative to the archive root.
	Member string
}

func (ArchiveMemberSourcePath) sourcePath() {}

// ResourceSourcePath is a SourcePath naming an opaque resource by
// identifier rather than by filesystem location. Spec §3 notes it is
// "used only in non-hashing mode" — it carries no file content to
// digest, only an identity string, so it is meaningful only wrapped in
// a NonHashingSourcePath value.
type ResourceSourcePath struct {
	ResourceID string
}

func (ResourceSourcePath) sourcePath() {}
