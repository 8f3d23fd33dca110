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

package activity

import (
	"fmt"
	"strings"
	"time"

	"github.com/awslabs/argot-activity/analysis/ir"
	"github.com/awslabs/argot-activity/analysis/loc"
	"github.com/awslabs/argot-activity/internal/funcutil"
)

// Problem gives the independent and dependent locations of each procedure of interest
type Problem struct {
	// Independents are the input locations, seeded at the entry of their procedure
	Independents map[ir.ProcID][]loc.Handle
	// Dependents are the output locations, seeded at the exit of their procedure
	Dependents map[ir.ProcID][]loc.Handle
}

// IsEmpty returns true if the problem has no independent and no dependent location
func (p Problem) IsEmpty() bool {
	return len(p.Independents) == 0 && len(p.Dependents) == 0
}

// ActiveStandard is the activity result of one procedure
type ActiveStandard struct {
	proc          ir.ProcID
	activeLocs    *loc.Set
	activeStmts   map[ir.StmtID]bool
	activeMemRefs map[ir.MemRefID]bool
	activeSyms    map[ir.SymID]bool
}

func newActiveStandard(proc ir.ProcID) *ActiveStandard {
	return &ActiveStandard{
		proc:          proc,
		activeLocs:    loc.NewSet(),
		activeStmts:   map[ir.StmtID]bool{},
		activeMemRefs: map[ir.MemRefID]bool{},
		activeSyms:    map[ir.SymID]bool{},
	}
}

// Proc returns the procedure of the result
func (a *ActiveStandard) Proc() ir.ProcID { return a.proc }

// ActiveLocs returns the locations active at some point of the procedure
func (a *ActiveStandard) ActiveLocs() *loc.Set { return a.activeLocs }

// IsActiveStmt returns true if stmt defines a location that is active after it
func (a *ActiveStandard) IsActiveStmt(stmt ir.StmtID) bool { return a.activeStmts[stmt] }

// IsActiveMemRef returns true if m may denote a location active at its statement: after it for a def, before it for
// a use
func (a *ActiveStandard) IsActiveMemRef(m ir.MemRefID) bool { return a.activeMemRefs[m] }

// ActiveStmts returns the active statements in increasing order
func (a *ActiveStandard) ActiveStmts() []ir.StmtID { return funcutil.SortedKeys(a.activeStmts) }

// ActiveMemRefs returns the active memory references in increasing order
func (a *ActiveStandard) ActiveMemRefs() []ir.MemRefID { return funcutil.SortedKeys(a.activeMemRefs) }

// ActiveSymbols returns the symbols of the active locations of the procedure in increasing order
func (a *ActiveStandard) ActiveSymbols() []ir.SymID { return funcutil.SetToOrderedSlice(a.activeSyms) }

// Stats are the statistics of one run of the pipeline
type Stats struct {
	DepIterations    int
	UsefulIterations int
	VaryIterations   int
	// ActiveSymbols is the number of active symbols, all the symbols of the program if unknown is active
	ActiveSymbols int
	ActiveStmts   int
	// RecursiveProcedures are the procedures in a cycle of the call graph
	RecursiveProcedures []ir.ProcID
	// RecursionCycles are the elementary cycles of the call graph between at least two procedures. Each cycle starts
	// with its smallest procedure and is not closed.
	RecursionCycles [][]ir.ProcID
	DepTime         time.Duration
	UsefulTime      time.Duration
	VaryTime        time.Duration
}

// InterActive is the activity result of the whole program
type InterActive struct {
	prog          *ir.Program
	procs         map[ir.ProcID]*ActiveStandard
	activeSyms    map[ir.SymID]bool
	unknownActive bool
	sizeInBytes   int64
	stats         Stats
}

func newInterActive(prog *ir.Program) *InterActive {
	return &InterActive{
		prog:       prog,
		procs:      map[ir.ProcID]*ActiveStandard{},
		activeSyms: map[ir.SymID]bool{},
	}
}

// register adds the result of a procedure and its active symbols
func (r *InterActive) register(a *ActiveStandard, arena *loc.Arena) {
	r.procs[a.proc] = a
	for _, h := range a.activeLocs.Handles() {
		if h == loc.UnknownHandle {
			r.markUnknownActive()
			continue
		}
		if sym, ok := arena.Symbol(h); ok {
			a.activeSyms[sym] = true
		}
	}
	r.activeSyms = funcutil.Union(r.activeSyms, a.activeSyms)
}

// markUnknownActive makes every symbol active. The flag is never reset.
func (r *InterActive) markUnknownActive() {
	r.unknownActive = true
}

// Standard returns the result of proc. It panics if proc was not analyzed.
func (r *InterActive) Standard(proc ir.ProcID) *ActiveStandard {
	a, ok := r.procs[proc]
	if !ok {
		panic(fmt.Sprintf("procedure %d has no activity result", proc))
	}
	return a
}

// Procedures returns the analyzed procedures in increasing order
func (r *InterActive) Procedures() []ir.ProcID {
	return funcutil.SortedKeys(r.procs)
}

// IsActiveSym returns true if the symbol is active in some procedure, or if the unknown location is active
func (r *InterActive) IsActiveSym(sym ir.SymID) bool {
	return r.unknownActive || r.activeSyms[sym]
}

// IsActiveStmt returns true if stmt of proc is active. It panics if proc was not analyzed.
func (r *InterActive) IsActiveStmt(proc ir.ProcID, stmt ir.StmtID) bool {
	return r.Standard(proc).IsActiveStmt(stmt)
}

// IsActiveMemRef returns true if memory reference m of proc is active. It panics if proc was not analyzed.
func (r *InterActive) IsActiveMemRef(proc ir.ProcID, m ir.MemRefID) bool {
	return r.Standard(proc).IsActiveMemRef(m)
}

// ActiveLocs returns the active locations of proc. It panics if proc was not analyzed.
func (r *InterActive) ActiveLocs(proc ir.ProcID) *loc.Set {
	return r.Standard(proc).ActiveLocs()
}

// ActiveStmts returns the active statements of proc. It panics if proc was not analyzed.
func (r *InterActive) ActiveStmts(proc ir.ProcID) []ir.StmtID {
	return r.Standard(proc).ActiveStmts()
}

// ActiveSymbols returns the active symbols in increasing order: every symbol of the program if the unknown location
// is active.
func (r *InterActive) ActiveSymbols() []ir.SymID {
	if !r.unknownActive {
		return funcutil.SetToOrderedSlice(r.activeSyms)
	}
	syms := make([]ir.SymID, 0, len(r.prog.Symbols()))
	for _, s := range r.prog.Symbols() {
		syms = append(syms, s.ID)
	}
	return syms
}

// UnknownActive returns true if the unknown location is active in some procedure
func (r *InterActive) UnknownActive() bool {
	return r.unknownActive
}

// SizeInBytes returns the total static size of the active symbols
func (r *InterActive) SizeInBytes() int64 {
	return r.sizeInBytes
}

// Stats returns the statistics of the run
func (r *InterActive) Stats() Stats {
	return r.stats
}

// String returns a summary of the active statements and symbols
func (r *InterActive) String() string {
	var b strings.Builder
	for _, proc := range r.Procedures() {
		stmts := r.procs[proc].ActiveStmts()
		if len(stmts) == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s:\n", r.prog.ProcName(proc))
		for _, s := range stmts {
			fmt.Fprintf(&b, "  %s\n", r.prog.StmtString(s))
		}
	}
	names := funcutil.Map(r.ActiveSymbols(), r.prog.Name)
	fmt.Fprintf(&b, "active symbols (%d bytes): %s\n", r.sizeInBytes, strings.Join(names, ", "))
	return b.String()
}
