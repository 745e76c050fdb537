// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package rulekeyvalue

import (
	"sort"
	"strings"
)

// BuildTarget is a canonicalized fully-qualified rule name: a namespace,
// a name, and an ordered flavor set (spec §3). Identity is the
// fully-qualified string.
type BuildTarget struct {
	Namespace string
	Name      string
	Flavors   []string
}

// NewBuildTarget returns a BuildTarget with its flavor set canonicalized
// into a deduplicated, sorted order, so two callers that declare the
// same flavors in different order agree on identity.
func NewBuildTarget(namespace, name string, flavors ...string) BuildTarget {
	t := BuildTarget{Namespace: namespace, Name: name}
	if len(flavors) == 0 {
		return t
	}
	seen := make(map[string]bool, len(flavors))
	t.Flavors = make([]string, 0, len(flavors))
	for _, f := range flavors {
		if seen[f] {
			continue
		}
		seen[f] = true
		t.Flavors = append(t.Flavors, f)
	}
	sort.Strings(t.Flavors)
	return t
}

// FullyQualifiedName returns the canonical string identity of the
// target: "namespace:name#flavor,flavor...".
func (t BuildTarget) FullyQualifiedName() string {
	var b strings.Builder
	b.WriteString(t.Namespace)
	b.WriteByte(':')
	b.WriteString(t.Name)
	if len(t.Flavors) > 0 {
		b.WriteByte('#')
		b.WriteString(strings.Join(t.Flavors, ","))
	}
	return b.String()
}

// String implements fmt.Stringer.
func (t BuildTarget) String() string { return t.FullyQualifiedName() }
