// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package rulekeyvalue

// FieldSink is the minimal surface a BuildRule or Appendable needs to
// declare its inputs: it is satisfied by *rulekey.Builder without this
// package importing rulekey, avoiding an import cycle between the value
// model and the builder that consumes it.
type FieldSink interface {
	// Set declares that the field named name carries value v. It is the
	// spec's set_reflectively (§4.E).
	Set(name string, v Value) error
}

// Appendable is a sub-structure that contributes its own sub-key to a
// rule key rather than inlining its fields (spec §3, §4.F): a fresh
// builder is driven by AppendToRuleKey, and the outer builder absorbs
// the resulting RuleKey under a derived field name.
//
// Appendable and BuildRule are deliberately independent interfaces,
// not one embedded in the other: a BuildRule's own identity is
// contributed through the classifier's dedicated BuildRule row (spec
// §4.D, §8 scenario 8), not through the appendableSubKey path. A
// concrete rule type MAY additionally implement Appendable if it also
// wants to contribute a derived sub-key (spec §4.E.set_reflectively
// step 1's "if the value is also a BuildRule, fall through" clause
// covers that case); most do not.
type Appendable interface {
	AppendToRuleKey(sink FieldSink) error
}

// BuildRule has a BuildTarget and a set of declared input Values. Its
// ContributeInputs method drives a fresh sub-builder the same way
// AppendToRuleKey does, but under a distinct name so that a plain
// BuildRule (one that does not also implement Appendable) is not
// mistaken for one during set_reflectively's dispatch (spec
// §4.E.set_reflectively step 1 vs. the classifier's BuildRule row).
type BuildRule interface {
	Target() BuildTarget
	ContributeInputs(sink FieldSink) error
}
