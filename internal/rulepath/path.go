// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package rulepath implements the rule-keying engine's Path Resolver
// (spec §4.C): it resolves SourcePath handles to absolute paths,
// workspace-relative paths, and (for rule-output paths) the rule that
// produces them.
//
// It is modeled on the teacher's build.Path (build/path.go), which
// converts cwd-relative paths to exec-root-relative ones and interns
// the results; here the conversion is workspace-root-relative instead,
// and failure to relativize is an expected, handled case (spec I4)
// rather than an error log line.
package rulepath

import (
	"errors"
	"fmt"
	"path/filepath"

	"go.chromium.org/infra/build/rulekey/internal/rulekeyvalue"
)

// ErrOutsideWorkspace is returned by ResolveRelative when the path
// cannot be expressed relative to the workspace root (spec I4): the
// caller is expected to fall back to the absolute path's filename.
var ErrOutsideWorkspace = errors.New("rulepath: path is outside the workspace")

// Resolver is the Path Resolver. It is immutable after construction
// (spec §5) and safe for concurrent use by multiple RuleKeyBuilders.
type Resolver struct {
	workspaceRoot string
	intern        symtab
}

// New returns a Resolver rooted at workspaceRoot, which must be an
// absolute path.
func New(workspaceRoot string) (*Resolver, error) {
	if !filepath.IsAbs(workspaceRoot) {
		return nil, fmt.Errorf("rulepath: workspace root must be absolute: %q", workspaceRoot)
	}
	return &Resolver{workspaceRoot: filepath.Clean(workspaceRoot)}, nil
}

// ResolveAbsolute resolves sp to an absolute filesystem path. A
// rule-output SourcePath resolves to its OutputPath joined onto the
// workspace root. Archive-member SourcePaths are not handled here;
// callers dispatch those to ResolveArchiveMember, per spec §4.D.1.
func (r *Resolver) ResolveAbsolute(sp rulekeyvalue.SourcePath) (string, error) {
	switch v := sp.(type) {
	case rulekeyvalue.FilesystemSourcePath:
		return r.absolute(v.Path), nil
	case rulekeyvalue.RuleOutputSourcePath:
		return r.absolute(v.OutputPath), nil
	case rulekeyvalue.ResourceSourcePath:
		return "", fmt.Errorf("rulepath: resource source path %q has no filesystem location", v.ResourceID)
	case rulekeyvalue.ArchiveMemberSourcePath:
		return "", fmt.Errorf("rulepath: archive member source path must be resolved with ResolveArchiveMember")
	default:
		return "", fmt.Errorf("rulepath: unsupported source path type %T", sp)
	}
}

// ResolveRelative resolves sp to a workspace-relative, slash-separated
// path. It returns ErrOutsideWorkspace if the absolute form of sp lies
// outside the workspace root (spec I4).
func (r *Resolver) ResolveRelative(sp rulekeyvalue.SourcePath) (string, error) {
	abs, err := r.ResolveAbsolute(sp)
	if err != nil {
		return "", err
	}
	return r.relativize(abs)
}

// OwningRule returns the rule that produces sp, if sp is a rule-output
// SourcePath.
func (r *Resolver) OwningRule(sp rulekeyvalue.SourcePath) (rulekeyvalue.BuildRule, bool) {
	v, ok := sp.(rulekeyvalue.RuleOutputSourcePath)
	if !ok || v.Rule == nil {
		return nil, false
	}
	return v.Rule, true
}

// ResolveArchiveMember resolves an ArchiveMemberSourcePath to the
// absolute path of its containing archive and the relative path of the
// member within it (spec §4.C, §4.D.3).
func (r *Resolver) ResolveArchiveMember(sp rulekeyvalue.ArchiveMemberSourcePath) (absoluteArchive, relativeMember string, err error) {
	if sp.Archive == nil {
		return "", "", errors.New("rulepath: archive member source path has no containing archive")
	}
	absoluteArchive, err = r.ResolveAbsolute(sp.Archive)
	if err != nil {
		return "", "", fmt.Errorf("rulepath: resolve archive: %w", err)
	}
	if !filepath.IsAbs(absoluteArchive) {
		return "", "", fmt.Errorf("rulepath: %w: resolved archive path %q is not absolute", ErrInvalidArchiveMemberPath, absoluteArchive)
	}
	relativeMember = filepath.ToSlash(sp.Member)
	if filepath.IsAbs(relativeMember) {
		return "", "", fmt.Errorf("rulepath: %w: member path %q is absolute", ErrInvalidArchiveMemberPath, sp.Member)
	}
	return absoluteArchive, relativeMember, nil
}

// ErrInvalidArchiveMemberPath reports a violation of the
// absolute/relative invariant on an archive-member source path (spec
// §4.C, §7 InvalidArchiveMemberPaths): programmer error, always fatal.
var ErrInvalidArchiveMemberPath = errors.New("rulepath: invalid archive member path")

func (r *Resolver) absolute(p string) string {
	if filepath.IsAbs(p) {
		return r.intern.intern(filepath.Clean(p))
	}
	return r.intern.intern(filepath.Join(r.workspaceRoot, p))
}

func (r *Resolver) relativize(abs string) (string, error) {
	rel, err := filepath.Rel(r.workspaceRoot, abs)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrOutsideWorkspace, err)
	}
	if !filepath.IsLocal(rel) {
		return "", ErrOutsideWorkspace
	}
	return r.intern.intern(filepath.ToSlash(rel)), nil
}
