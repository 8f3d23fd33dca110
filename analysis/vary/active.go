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

package vary

import (
	"github.com/awslabs/argot-activity/analysis/alias"
	"github.com/awslabs/argot-activity/analysis/ir"
	"github.com/awslabs/argot-activity/analysis/loc"
	"github.com/awslabs/argot-activity/analysis/useful"
)

// ActivePerStmt holds the active locations before and after every statement: the varying locations that may
// overlap a useful location at the same program point.
type ActivePerStmt struct {
	in         map[ir.StmtID]*loc.Set
	out        map[ir.StmtID]*loc.Set
	activeDefs map[ir.StmtID]*loc.Set
}

// NewActivePerStmt intersects the varying and useful sets of every statement analyzed by the Vary analysis. When u
// is nil, the varying sets are taken as they are. The active defs of a statement are the locations its defined
// memory references may denote that are active after it.
func NewActivePerStmt(prog *ir.Program, aliases alias.Results, v *InterVary, u *useful.InterUseful) *ActivePerStmt {
	arena := aliases.Arena()
	res := &ActivePerStmt{
		in:         map[ir.StmtID]*loc.Set{},
		out:        map[ir.StmtID]*loc.Set{},
		activeDefs: map[ir.StmtID]*loc.Set{},
	}
	for s := range v.in {
		in, out := v.InVary(s).Clone(), v.OutVary(s).Clone()
		if u != nil {
			in = loc.OverlapIntersection(arena, in, u.InUseful(s))
			out = loc.OverlapIntersection(arena, out, u.OutUseful(s))
		}
		res.in[s] = in
		res.out[s] = out
		defs := loc.NewSet()
		for _, m := range prog.Stmt(s).Defs {
			for _, h := range aliases.MayLocs(m) {
				if loc.Overlaps(arena, out, h) {
					defs.Insert(h)
				}
			}
		}
		res.activeDefs[s] = defs
	}
	return res
}

// InActive returns the locations active before stmt
func (a *ActivePerStmt) InActive(stmt ir.StmtID) *loc.Set { return lookup(a.in, stmt) }

// OutActive returns the locations active after stmt
func (a *ActivePerStmt) OutActive(stmt ir.StmtID) *loc.Set { return lookup(a.out, stmt) }

// ActiveDefs returns the locations defined by stmt that are active after it
func (a *ActivePerStmt) ActiveDefs(stmt ir.StmtID) *loc.Set { return lookup(a.activeDefs, stmt) }

// IsActiveStmt returns true if stmt defines an active location
func (a *ActivePerStmt) IsActiveStmt(stmt ir.StmtID) bool {
	return !a.ActiveDefs(stmt).IsEmpty()
}
