// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package digestsink implements the rule-keying engine's Digest Sink: a
// streaming 160-bit hash that field encoders absorb bytes into, plus the
// two opaque 160-bit digest types built on top of it (RuleKey and
// Sha1HashCode).
//
// RuleKey and Sha1HashCode play the role the teacher's reapi/digest.Digest
// plays for a CAS blob: an opaque fixed-size value type, not the
// content itself. The streaming absorb-then-finalize API and its
// panic-on-reuse discipline are not carried over from reapi/digest
// (which hashes a Data value once, all at once, via NewFromBlob or
// NewFromReader) — no pack repo builds a digest incrementally across
// many typed calls the way the Rule-Key Builder needs to. This is a
// purpose-built API for the spec's requirement that callers absorb many
// typed pieces across the lifetime of one rule-key computation.
package digestsink

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

// Size is the width, in bytes, of a RuleKey or Sha1HashCode.
const Size = sha1.Size

// RuleKey is the opaque 160-bit digest identifying a rule's cacheable
// output (spec §3, §6: "the RuleKey textual form is the lowercase
// hexadecimal of the digest").
type RuleKey [Size]byte

// String returns the lowercase hexadecimal form of the digest.
func (k RuleKey) String() string {
	return hex.EncodeToString(k[:])
}

// IsZero reports whether k is the zero RuleKey.
func (k RuleKey) IsZero() bool {
	return k == RuleKey{}
}

// ParseRuleKey parses the lowercase hexadecimal form produced by String.
func ParseRuleKey(s string) (RuleKey, error) {
	var k RuleKey
	b, err := hex.DecodeString(s)
	if err != nil {
		return k, fmt.Errorf("rulekey: parse rule key %q: %w", s, err)
	}
	if len(b) != Size {
		return k, fmt.Errorf("rulekey: parse rule key %q: want %d bytes, got %d", s, Size, len(b))
	}
	copy(k[:], b)
	return k, nil
}

// Sha1HashCode is the 160-bit content digest of a file or archive
// member, as reported by the File-Hash Oracle.
type Sha1HashCode [Size]byte

// String returns the lowercase hexadecimal form of the digest.
func (h Sha1HashCode) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether h is the zero Sha1HashCode.
func (h Sha1HashCode) IsZero() bool {
	return h == Sha1HashCode{}
}

// ParseSha1HashCode parses the lowercase hexadecimal form produced by
// String.
func ParseSha1HashCode(s string) (Sha1HashCode, error) {
	var h Sha1HashCode
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("rulekey: parse sha1 %q: %w", s, err)
	}
	if len(b) != Size {
		return h, fmt.Errorf("rulekey: parse sha1 %q: want %d bytes, got %d", s, Size, len(b))
	}
	copy(h[:], b)
	return h, nil
}

// SumBytes returns the Sha1HashCode of b. Used by implementations of the
// File-Hash Oracle that hash in-memory content (e.g. archive member
// extraction) rather than streaming a file off disk.
func SumBytes(b []byte) Sha1HashCode {
	return Sha1HashCode(sha1.Sum(b))
}
