// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dataflow

import (
	"github.com/awslabs/argot-activity/analysis/alias"
	"github.com/awslabs/argot-activity/analysis/ir"
	"github.com/awslabs/argot-activity/analysis/loc"
)

// CallLocs are the locations of the caller a call site reads and may write, regardless of its callees
type CallLocs struct {
	// Uses are the locations read by the actual arguments
	Uses *loc.Set
	// Defs are the may-locations of the result targets and the locations the actuals may point to
	Defs *loc.Set
}

// CallLocs returns the locations of the caller a call site reads and may write. The analyses use them to model
// calls without a known callee, which may do anything with their arguments.
func (t *Translator) CallLocs(call ir.CallID) CallLocs {
	cs := t.prog.Call(call)
	res := CallLocs{Uses: loc.NewSet(), Defs: loc.NewSet()}
	for _, actual := range cs.Actuals {
		for _, h := range alias.ExprLocs(t.aliases, actual) {
			res.Uses.Insert(h)
		}
		pointees := alias.PointeeLocs(t.aliases, t.prog, cs.Proc, actual)
		if len(pointees) == 1 && pointees[0] == loc.UnknownHandle {
			continue
		}
		for _, h := range pointees {
			res.Defs.Insert(h)
		}
	}
	for _, m := range cs.Results {
		if m == ir.NoMemRef {
			continue
		}
		for _, h := range t.aliases.MayLocs(m) {
			res.Defs.Insert(h)
		}
	}
	return res
}

// Escapes returns true if some location of s is visible outside the procedure of the call: a non-local location,
// the unknown location, or a location the call may write.
func (c CallLocs) Escapes(arena *loc.Arena, s *loc.Set) bool {
	for _, h := range s.Handles() {
		if !arena.IsLocal(h) {
			return true
		}
	}
	return loc.AnyOverlap(arena, s, c.Defs)
}
