// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package fshash implements the rule-keying engine's File-Hash Oracle
// (spec §4.B): a thread-safe, referentially-transparent map from an
// absolute path (or archive-member path) to the content digest of that
// file, for the duration of one build.
//
// It is modeled on the teacher's hashfs package: digest computation runs
// under a bounded semaphore (golang.org/x/sync/semaphore, the same
// module hashfs already leans on for hashfs/fs.go's errgroup fan-out)
// and, where the platform supports it, a freshly computed digest is
// cached in an extended attribute so a second oracle instance in the
// same build — or a later build against an unchanged file — can skip
// rehashing (hashfs/digester.go's xattr fast path).
package fshash

import (
	"archive/zip"
	"context"
	"crypto/sha1"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/xattr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"go.chromium.org/infra/build/rulekey/internal/digestsink"
	"go.chromium.org/infra/build/rulekey/internal/o11y/clog"
)

// xattrName is the extended attribute a freshly computed digest is
// cached under. It is versioned so a format change never collides with
// a stale attribute from an older binary.
const xattrName = "user.rulekey.sha1.v1"

// DigestSemaphore bounds concurrent file digest computation across all
// Oracles in the process, the way hashfs.DigestSemaphore does.
var DigestSemaphore = semaphore.NewWeighted(int64(runtime.NumCPU()))

// doUnderSemaphore acquires one unit of sem, runs f, and releases it —
// the same acquire/run/release shape the teacher's own named semaphore
// wrapped in its Do method, now over golang.org/x/sync/semaphore's
// weighted primitive instead of a hand-rolled channel-backed one.
func doUnderSemaphore(ctx context.Context, sem *semaphore.Weighted, f func(ctx context.Context) error) error {
	if err := sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer sem.Release(1)
	return f(ctx)
}

// ErrMissingFileHash is returned (and wrapped with path context) when
// no digest could be computed for a required path: the file (or archive
// member) does not exist, is a directory, or cannot be read. Spec §7
// MissingFileHash: fatal for
// the rule key being computed.
var ErrMissingFileHash = errors.New("fshash: missing file hash")

type cacheKey struct {
	path   string
	member string // empty for a plain file
}

// Oracle is the File-Hash Oracle. The zero value is not usable; create
// one with New. An Oracle is safe for concurrent use by many
// RuleKeyBuilders (spec §5).
type Oracle struct {
	mu    sync.Mutex
	cache map[cacheKey]digestsink.Sha1HashCode
}

// New creates an empty Oracle.
func New() *Oracle {
	return &Oracle{cache: make(map[cacheKey]digestsink.Sha1HashCode)}
}

// Digest returns the content digest of the file at absPath, computing
// and caching it if necessary.
func (o *Oracle) Digest(ctx context.Context, absPath string) (digestsink.Sha1HashCode, error) {
	key := cacheKey{path: absPath}
	if h, ok := o.lookup(key); ok {
		return h, nil
	}
	var h digestsink.Sha1HashCode
	err := doUnderSemaphore(ctx, DigestSemaphore, func(ctx context.Context) error {
		computed, err := digestFile(absPath)
		if err != nil {
			return err
		}
		h = computed
		return nil
	})
	if err != nil {
		return digestsink.Sha1HashCode{}, fmt.Errorf("%w: %s: %v", ErrMissingFileHash, absPath, err)
	}
	o.store(key, h)
	return h, nil
}

// DigestArchiveMember returns the content digest of relMember inside
// the archive at absArchivePath.
func (o *Oracle) DigestArchiveMember(ctx context.Context, absArchivePath, relMember string) (digestsink.Sha1HashCode, error) {
	key := cacheKey{path: absArchivePath, member: relMember}
	if h, ok := o.lookup(key); ok {
		return h, nil
	}
	var h digestsink.Sha1HashCode
	err := doUnderSemaphore(ctx, DigestSemaphore, func(ctx context.Context) error {
		computed, err := digestArchiveMember(absArchivePath, relMember)
		if err != nil {
			return err
		}
		h = computed
		return nil
	})
	if err != nil {
		return digestsink.Sha1HashCode{}, fmt.Errorf("%w: %s!%s: %v", ErrMissingFileHash, absArchivePath, relMember, err)
	}
	o.store(key, h)
	return h, nil
}

// Warm computes and caches digests for absPaths concurrently, bounded
// by DigestSemaphore. It is a pure prefetch: callers still call Digest
// to retrieve the result and get the MissingFileHash error for any path
// that failed. Modeled on hashfs's use of errgroup for batched work
// (hashfs/fs.go, hashfs/state.go).
func (o *Oracle) Warm(ctx context.Context, absPaths []string) {
	eg, ctx := errgroup.WithContext(ctx)
	for _, p := range absPaths {
		p := p
		eg.Go(func() error {
			_, err := o.Digest(ctx, p)
			if err != nil {
				clog.Warningf(ctx, "fshash: warm %s: %v", p, err)
			}
			return nil
		})
	}
	_ = eg.Wait()
}

func (o *Oracle) lookup(key cacheKey) (digestsink.Sha1HashCode, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	h, ok := o.cache[key]
	return h, ok
}

func (o *Oracle) store(key cacheKey, h digestsink.Sha1HashCode) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cache[key] = h
}

// digestFile computes the SHA-1 content digest of a single file,
// consulting and then refreshing the cached extended attribute.
func digestFile(absPath string) (digestsink.Sha1HashCode, error) {
	info, err := os.Stat(absPath)
	if err != nil {
		return digestsink.Sha1HashCode{}, err
	}
	if info.IsDir() {
		return digestsink.Sha1HashCode{}, fmt.Errorf("%s is a directory", absPath)
	}
	stamp := xattrStamp(info)
	if cached, ok := readXattrDigest(absPath, stamp); ok {
		return cached, nil
	}
	f, err := os.Open(absPath)
	if err != nil {
		return digestsink.Sha1HashCode{}, err
	}
	defer f.Close()
	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return digestsink.Sha1HashCode{}, err
	}
	var sum digestsink.Sha1HashCode
	h.Sum(sum[:0])
	writeXattrDigest(absPath, stamp, sum)
	return sum, nil
}

func digestArchiveMember(absArchivePath, relMember string) (digestsink.Sha1HashCode, error) {
	zr, err := zip.OpenReader(absArchivePath)
	if err != nil {
		return digestsink.Sha1HashCode{}, err
	}
	defer zr.Close()
	for _, f := range zr.File {
		if f.Name != relMember {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return digestsink.Sha1HashCode{}, err
		}
		defer rc.Close()
		h := sha1.New()
		if _, err := io.Copy(h, rc); err != nil {
			return digestsink.Sha1HashCode{}, err
		}
		var sum digestsink.Sha1HashCode
		h.Sum(sum[:0])
		return sum, nil
	}
	return digestsink.Sha1HashCode{}, fmt.Errorf("member %q not found in %s", relMember, absArchivePath)
}

// xattrStamp encodes the file's size and modification time, the
// cheapest invalidation signal available without rereading the file.
func xattrStamp(info os.FileInfo) string {
	return strconv.FormatInt(info.Size(), 36) + ":" + strconv.FormatInt(info.ModTime().UnixNano(), 36)
}

func readXattrDigest(absPath, stamp string) (digestsink.Sha1HashCode, bool) {
	raw, err := xattr.Get(absPath, xattrName)
	if err != nil {
		return digestsink.Sha1HashCode{}, false
	}
	s := string(raw)
	idx := strings.IndexByte(s, '|')
	if idx < 0 || s[:idx] != stamp {
		return digestsink.Sha1HashCode{}, false
	}
	h, err := digestsink.ParseSha1HashCode(s[idx+1:])
	if err != nil {
		return digestsink.Sha1HashCode{}, false
	}
	return h, true
}

func writeXattrDigest(absPath, stamp string, h digestsink.Sha1HashCode) {
	value := stamp + "|" + h.String()
	// Best-effort: an unsupported filesystem (e.g. tmpfs without xattr
	// support, or Windows) just means every build rehashes.
	_ = xattr.Set(absPath, xattrName, []byte(value))
}
