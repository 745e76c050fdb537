// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package fshash

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.chromium.org/infra/build/rulekey/internal/digestsink"
)

func TestOracle_Digest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	o := New()
	got, err := o.Digest(context.Background(), path)
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	want := digestsink.SumBytes([]byte("hello"))
	if got != want {
		t.Errorf("Digest() = %s, want %s", got, want)
	}
}

func TestOracle_Digest_CachesAcrossCalls(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}
	o := New()
	first, err := o.Digest(context.Background(), path)
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	// Changing the file on disk without going through the oracle must
	// not be observed: the in-process cache is authoritative for the
	// remainder of this Oracle's lifetime, the same as hashfs's
	// per-build digest cache.
	if err := os.WriteFile(path, []byte("v2-longer-content"), 0o644); err != nil {
		t.Fatal(err)
	}
	second, err := o.Digest(context.Background(), path)
	if err != nil {
		t.Fatalf("Digest (second): %v", err)
	}
	if first != second {
		t.Errorf("Digest() changed across calls within one Oracle: %s != %s", first, second)
	}
}

func TestOracle_Digest_MissingFile(t *testing.T) {
	o := New()
	_, err := o.Digest(context.Background(), filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Fatal("Digest of a missing file = nil error, want error")
	}
}

func TestOracle_DigestArchiveMember(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "a.zip")
	f, err := os.Create(archivePath)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create("member.txt")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("member content")); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	o := New()
	got, err := o.DigestArchiveMember(context.Background(), archivePath, "member.txt")
	if err != nil {
		t.Fatalf("DigestArchiveMember: %v", err)
	}
	want := digestsink.SumBytes([]byte("member content"))
	if got != want {
		t.Errorf("DigestArchiveMember() = %s, want %s", got, want)
	}
}

func TestOracle_DigestArchiveMember_MissingMember(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "a.zip")
	f, err := os.Create(archivePath)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	o := New()
	if _, err := o.DigestArchiveMember(context.Background(), archivePath, "absent.txt"); err == nil {
		t.Fatal("DigestArchiveMember of a missing member = nil error, want error")
	}
}

func TestOracle_Warm(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i := 0; i < 4; i++ {
		p := filepath.Join(dir, string(rune('a'+i))+".txt")
		if err := os.WriteFile(p, []byte{byte(i)}, 0o644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, p)
	}
	o := New()
	o.Warm(context.Background(), paths)
	for i, p := range paths {
		got, err := o.Digest(context.Background(), p)
		if err != nil {
			t.Fatalf("Digest after Warm: %v", err)
		}
		if want := digestsink.SumBytes([]byte{byte(i)}); got != want {
			t.Errorf("Digest(%s) after Warm = %s, want %s", p, got, want)
		}
	}
}
