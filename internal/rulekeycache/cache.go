// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package rulekeycache persists a Resolver's BuildTarget → RuleKey memo
// (spec §4.F, §5 "Rule RuleKey memoization") across builds, the way the
// teacher's reapi/digest package persists a DigestStore's entries: CBOR
// in Core Deterministic Encoding for a stable on-disk byte-for-byte
// form (github.com/fxamacker/cbor/v2), wrapped in zstd compression
// (github.com/klauspost/compress/zstd, already a teacher dependency)
// since memo snapshots for a large build can run into the tens of
// thousands of entries.
package rulekeycache

import (
	"bytes"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
)

// magic versions the on-disk format so a future encoding change never
// silently misreads an old snapshot.
const magic = "rulekeycache/v1"

type onDisk struct {
	Magic   string            `cbor:"1,keyasint"`
	Entries map[string]string `cbor:"2,keyasint"`
}

var encMode = func() cbor.EncMode {
	opts := cbor.CoreDetEncOptions()
	mode, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("rulekeycache: build cbor encode mode: %v", err))
	}
	return mode
}()

// Save writes snapshot (as returned by rulekey.Resolver.Snapshot) to w,
// CBOR-encoded in Core Deterministic Encoding and zstd-compressed.
func Save(w io.Writer, snapshot map[string]string) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("rulekeycache: new zstd writer: %w", err)
	}
	payload, err := encMode.Marshal(onDisk{Magic: magic, Entries: snapshot})
	if err != nil {
		zw.Close()
		return fmt.Errorf("rulekeycache: marshal: %w", err)
	}
	if _, err := zw.Write(payload); err != nil {
		zw.Close()
		return fmt.Errorf("rulekeycache: write: %w", err)
	}
	return zw.Close()
}

// Load reads a snapshot previously written by Save, suitable for
// rulekey.Resolver.Restore.
func Load(r io.Reader) (map[string]string, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("rulekeycache: new zstd reader: %w", err)
	}
	defer zr.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(zr); err != nil {
		return nil, fmt.Errorf("rulekeycache: read: %w", err)
	}
	var d onDisk
	if err := cbor.Unmarshal(buf.Bytes(), &d); err != nil {
		return nil, fmt.Errorf("rulekeycache: unmarshal: %w", err)
	}
	if d.Magic != magic {
		return nil, fmt.Errorf("rulekeycache: unrecognized format %q", d.Magic)
	}
	return d.Entries, nil
}
