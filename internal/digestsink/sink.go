// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package digestsink

import (
	"crypto/sha1"
	"fmt"
	"hash"
	"math"
)

// Sink is the Digest Sink of spec §4.A: it accepts a byte stream and,
// on Finalize, yields a RuleKey. A Sink is single-use and is not safe
// for concurrent use, matching the single-threaded, single-use
// RuleKeyBuilder it backs (spec §5).
type Sink struct {
	h      hash.Hash
	done   bool
	nbytes int64
}

// New creates an empty Sink.
func New() *Sink {
	return &Sink{h: sha1.New()}
}

// AbsorbBytes appends raw bytes to the stream.
func (s *Sink) AbsorbBytes(b []byte) {
	s.mustBeOpen()
	s.h.Write(b)
	s.nbytes += int64(len(b))
}

// AbsorbChars appends the string's UTF-8 bytes to the stream. Per
// spec §4.A and §9's open question on platform string encoding, this
// implementation pins the scheme to raw UTF-8 bytes and never mixes it
// with another encoding; digests will not match an implementation that
// absorbs, say, UTF-16 code units instead.
func (s *Sink) AbsorbChars(str string) {
	s.AbsorbBytes([]byte(str))
}

// AbsorbSeparator appends a single zero byte, the field/value separator
// used throughout the canonical encoding (spec §4.A, §4.D).
func (s *Sink) AbsorbSeparator() {
	s.mustBeOpen()
	s.h.Write([]byte{0})
	s.nbytes++
}

// AbsorbInt appends a signed integer in big-endian fixed-width form.
// width must be 1, 2, 4, or 8 bytes.
func (s *Sink) AbsorbInt(width int, v int64) error {
	s.mustBeOpen()
	var buf [8]byte
	switch width {
	case 1:
		buf[0] = byte(v)
	case 2:
		buf[0] = byte(v >> 8)
		buf[1] = byte(v)
	case 4:
		buf[0] = byte(v >> 24)
		buf[1] = byte(v >> 16)
		buf[2] = byte(v >> 8)
		buf[3] = byte(v)
	case 8:
		for i := 0; i < 8; i++ {
			buf[i] = byte(v >> (56 - 8*i))
		}
	default:
		return fmt.Errorf("digestsink: unsupported integer width %d", width)
	}
	s.AbsorbBytes(buf[:width])
	return nil
}

// AbsorbFloat appends a floating-point number as IEEE-754 bits in
// big-endian form. width must be 4 (float32) or 8 (float64) bytes.
func (s *Sink) AbsorbFloat(width int, v float64) error {
	s.mustBeOpen()
	switch width {
	case 4:
		return s.AbsorbInt(4, int64(int32(math.Float32bits(float32(v)))))
	case 8:
		return s.AbsorbInt(8, int64(math.Float64bits(v)))
	default:
		return fmt.Errorf("digestsink: unsupported float width %d", width)
	}
}

// Len returns the number of bytes absorbed so far.
func (s *Sink) Len() int64 {
	return s.nbytes
}

// Finalize consumes the sink and returns the digest of everything
// absorbed. Calling any Absorb method after Finalize panics.
func (s *Sink) Finalize() RuleKey {
	s.mustBeOpen()
	s.done = true
	var k RuleKey
	s.h.Sum(k[:0])
	return k
}

func (s *Sink) mustBeOpen() {
	if s.done {
		panic("digestsink: sink used after Finalize")
	}
}
