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

package useful

import (
	"fmt"
	"strings"

	"github.com/awslabs/argot-activity/analysis/ir"
	"github.com/awslabs/argot-activity/analysis/loc"
	"github.com/awslabs/argot-activity/internal/funcutil"
)

// UsefulStandard is the result of the Useful analysis for one procedure
type UsefulStandard struct {
	proc    ir.ProcID
	arena   *loc.Arena
	in      map[ir.StmtID]*loc.Set
	out     map[ir.StmtID]*loc.Set
	callOut map[ir.CallID]*loc.Set
	depLocs *loc.Set
}

func newUsefulStandard(proc ir.ProcID, arena *loc.Arena, depLocs *loc.Set) *UsefulStandard {
	return &UsefulStandard{
		proc:    proc,
		arena:   arena,
		in:      map[ir.StmtID]*loc.Set{},
		out:     map[ir.StmtID]*loc.Set{},
		callOut: map[ir.CallID]*loc.Set{},
		depLocs: depLocs,
	}
}

// Proc returns the procedure of the result
func (u *UsefulStandard) Proc() ir.ProcID {
	return u.proc
}

// InUseful returns the locations useful before stmt. The set is empty for a statement that was not analyzed.
func (u *UsefulStandard) InUseful(stmt ir.StmtID) *loc.Set {
	if s, ok := u.in[stmt]; ok {
		return s
	}
	return loc.NewSet()
}

// OutUseful returns the locations useful after stmt
func (u *UsefulStandard) OutUseful(stmt ir.StmtID) *loc.Set {
	if s, ok := u.out[stmt]; ok {
		return s
	}
	return loc.NewSet()
}

// CallOutUseful returns the locations useful after the call site returns
func (u *UsefulStandard) CallOutUseful(call ir.CallID) *loc.Set {
	if s, ok := u.callOut[call]; ok {
		return s
	}
	return loc.NewSet()
}

// DepLocs returns the dependent locations the procedure was seeded with
func (u *UsefulStandard) DepLocs() *loc.Set {
	return u.depLocs
}

// Stmts returns the analyzed statements in increasing order
func (u *UsefulStandard) Stmts() []ir.StmtID {
	return funcutil.SortedKeys(u.in)
}

func (u *UsefulStandard) record(stmt ir.StmtID, in, out *loc.Set) {
	u.in[stmt] = in
	u.out[stmt] = out
}

// String returns the useful sets of every statement
func (u *UsefulStandard) String(prog *ir.Program) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: dependents %s\n", prog.ProcName(u.proc), u.depLocs.Format(u.arena, prog))
	for _, s := range u.Stmts() {
		fmt.Fprintf(&b, "  %s: in %s out %s\n", prog.StmtString(s),
			u.in[s].Format(u.arena, prog), u.out[s].Format(u.arena, prog))
	}
	return b.String()
}

// InterUseful is the result of the interprocedural Useful analysis: one UsefulStandard per procedure
type InterUseful struct {
	procs      map[ir.ProcID]*UsefulStandard
	stmtProc   map[ir.StmtID]ir.ProcID
	callProc   map[ir.CallID]ir.ProcID
	iterations int
}

// Standard returns the result of proc. It panics if proc was not analyzed.
func (r *InterUseful) Standard(proc ir.ProcID) *UsefulStandard {
	u, ok := r.procs[proc]
	if !ok {
		panic(fmt.Sprintf("procedure %d has no useful result", proc))
	}
	return u
}

// Procedures returns the analyzed procedures in increasing order
func (r *InterUseful) Procedures() []ir.ProcID {
	return funcutil.SortedKeys(r.procs)
}

// InUseful returns the locations useful before stmt, or the empty set if stmt was not analyzed
func (r *InterUseful) InUseful(stmt ir.StmtID) *loc.Set {
	if p, ok := r.stmtProc[stmt]; ok {
		return r.procs[p].InUseful(stmt)
	}
	return loc.NewSet()
}

// OutUseful returns the locations useful after stmt, or the empty set if stmt was not analyzed
func (r *InterUseful) OutUseful(stmt ir.StmtID) *loc.Set {
	if p, ok := r.stmtProc[stmt]; ok {
		return r.procs[p].OutUseful(stmt)
	}
	return loc.NewSet()
}

// CallOutUseful returns the locations useful after call returns, or the empty set if call was not analyzed
func (r *InterUseful) CallOutUseful(call ir.CallID) *loc.Set {
	if p, ok := r.callProc[call]; ok {
		return r.procs[p].CallOutUseful(call)
	}
	return loc.NewSet()
}

// DepLocs returns the dependent locations of proc. It panics if proc was not analyzed.
func (r *InterUseful) DepLocs(proc ir.ProcID) *loc.Set {
	return r.Standard(proc).DepLocs()
}

// Iterations returns the number of sweeps of the solver
func (r *InterUseful) Iterations() int {
	return r.iterations
}
