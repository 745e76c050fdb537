// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package rulepath

import (
	"errors"
	"path/filepath"
	"testing"

	"go.chromium.org/infra/build/rulekey/internal/rulekeyvalue"
)

func TestNew_RejectsRelativeRoot(t *testing.T) {
	if _, err := New("relative/root"); err == nil {
		t.Fatal("New(relative root) = nil error, want error")
	}
}

func TestResolveAbsolute_WorkspaceRelative(t *testing.T) {
	r, err := New("/workspace")
	if err != nil {
		t.Fatal(err)
	}
	got, err := r.ResolveAbsolute(rulekeyvalue.FilesystemSourcePath{Path: "foo/Bar.txt"})
	if err != nil {
		t.Fatalf("ResolveAbsolute: %v", err)
	}
	if want := filepath.Join("/workspace", "foo/Bar.txt"); got != want {
		t.Errorf("ResolveAbsolute() = %q, want %q", got, want)
	}
}

func TestResolveAbsolute_AlreadyAbsolute(t *testing.T) {
	r, err := New("/workspace")
	if err != nil {
		t.Fatal(err)
	}
	got, err := r.ResolveAbsolute(rulekeyvalue.FilesystemSourcePath{Path: "/elsewhere/tool"})
	if err != nil {
		t.Fatalf("ResolveAbsolute: %v", err)
	}
	if want := "/elsewhere/tool"; got != want {
		t.Errorf("ResolveAbsolute() = %q, want %q", got, want)
	}
}

func TestResolveRelative_InsideWorkspace(t *testing.T) {
	r, err := New("/workspace")
	if err != nil {
		t.Fatal(err)
	}
	got, err := r.ResolveRelative(rulekeyvalue.FilesystemSourcePath{Path: "foo/Bar.txt"})
	if err != nil {
		t.Fatalf("ResolveRelative: %v", err)
	}
	if want := "foo/Bar.txt"; got != want {
		t.Errorf("ResolveRelative() = %q, want %q", got, want)
	}
}

func TestResolveRelative_OutsideWorkspace(t *testing.T) {
	r, err := New("/workspace")
	if err != nil {
		t.Fatal(err)
	}
	_, err = r.ResolveRelative(rulekeyvalue.FilesystemSourcePath{Path: "/elsewhere/tool"})
	if !errors.Is(err, ErrOutsideWorkspace) {
		t.Errorf("ResolveRelative outside workspace error = %v, want ErrOutsideWorkspace", err)
	}
}

func TestOwningRule(t *testing.T) {
	r, err := New("/workspace")
	if err != nil {
		t.Fatal(err)
	}
	rule := &fakeRule{}
	sp := rulekeyvalue.RuleOutputSourcePath{Rule: rule}
	got, ok := r.OwningRule(sp)
	if !ok || got != rule {
		t.Errorf("OwningRule() = %v, %v, want %v, true", got, ok, rule)
	}
	if _, ok := r.OwningRule(rulekeyvalue.FilesystemSourcePath{Path: "x"}); ok {
		t.Error("OwningRule(FilesystemSourcePath) = true, want false")
	}
}

func TestResolveArchiveMember(t *testing.T) {
	r, err := New("/workspace")
	if err != nil {
		t.Fatal(err)
	}
	sp := rulekeyvalue.ArchiveMemberSourcePath{
		Archive: rulekeyvalue.FilesystemSourcePath{Path: "lib.jar"},
		Member:  "com/example/Foo.class",
	}
	absArchive, relMember, err := r.ResolveArchiveMember(sp)
	if err != nil {
		t.Fatalf("ResolveArchiveMember: %v", err)
	}
	if want := filepath.Join("/workspace", "lib.jar"); absArchive != want {
		t.Errorf("absArchive = %q, want %q", absArchive, want)
	}
	if relMember != "com/example/Foo.class" {
		t.Errorf("relMember = %q, want %q", relMember, "com/example/Foo.class")
	}
}

func TestResolveArchiveMember_AbsoluteMemberRejected(t *testing.T) {
	r, err := New("/workspace")
	if err != nil {
		t.Fatal(err)
	}
	sp := rulekeyvalue.ArchiveMemberSourcePath{
		Archive: rulekeyvalue.FilesystemSourcePath{Path: "lib.jar"},
		Member:  "/abs/member",
	}
	if _, _, err := r.ResolveArchiveMember(sp); !errors.Is(err, ErrInvalidArchiveMemberPath) {
		t.Errorf("ResolveArchiveMember with absolute member error = %v, want ErrInvalidArchiveMemberPath", err)
	}
}

func TestResolveArchiveMember_NoContainingArchive(t *testing.T) {
	r, err := New("/workspace")
	if err != nil {
		t.Fatal(err)
	}
	sp := rulekeyvalue.ArchiveMemberSourcePath{Member: "x"}
	if _, _, err := r.ResolveArchiveMember(sp); err == nil {
		t.Fatal("ResolveArchiveMember with no archive = nil error, want error")
	}
}

type fakeRule struct{}

func (f *fakeRule) Target() rulekeyvalue.BuildTarget { return rulekeyvalue.NewBuildTarget("//pkg", "x") }
func (f *fakeRule) ContributeInputs(sink rulekeyvalue.FieldSink) error { return nil }
