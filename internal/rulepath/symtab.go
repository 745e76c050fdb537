// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package rulepath

import "sync"

// symtab interns strings so that repeated resolution of the same path
// returns a shared backing array instead of a fresh copy each time.
type symtab struct {
	m sync.Map
}

func (s *symtab) intern(v string) string {
	vv, _ := s.m.LoadOrStore(v, v)
	return vv.(string)
}
