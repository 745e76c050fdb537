// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package rulekeycache

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSaveLoad_RoundTrip(t *testing.T) {
	snapshot := map[string]string{
		"//pkg:a": "0000000000000000000000000000000000000001",
		"//pkg:b": "0000000000000000000000000000000000000002",
	}
	var buf bytes.Buffer
	if err := Save(&buf, snapshot); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(&buf)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(snapshot, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveLoad_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := Save(&buf, map[string]string{}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(&buf)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Load() of an empty snapshot = %v, want empty", got)
	}
}

func TestLoad_RejectsTruncatedData(t *testing.T) {
	var buf bytes.Buffer
	if err := Save(&buf, map[string]string{"x": "y"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	corrupted := buf.Bytes()
	if _, err := Load(bytes.NewReader(corrupted[:len(corrupted)/2])); err == nil {
		t.Error("Load of truncated data = nil error, want error")
	}
}
