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

package alias

import (
	"github.com/awslabs/argot-activity/analysis/config"
	"github.com/awslabs/argot-activity/analysis/ir"
	"github.com/awslabs/argot-activity/analysis/loc"
	"github.com/awslabs/argot-activity/internal/funcutil"
)

// FIAlias is a flow-insensitive, context-insensitive alias analysis. Points-to sets of pointer-holding locations are
// computed to a fixed point from the assignments of the program:
//   - p = &x makes p point to x,
//   - p = q makes p point to what q points to (also through expression operands),
//   - allocation statements make their target point to a fresh heap cell.
//
// Dereferencing a formal that has no known pointee denotes the Invisible location of that formal. Dereferencing
// anything else with no known pointee denotes the unknown location. Only non-local pointees flow across calls.
type FIAlias struct {
	prog   *ir.Program
	arena  *loc.Arena
	logger *config.LogGroup
	pts    map[loc.Handle]*loc.Set
	may    [][]loc.Handle
	must   [][]loc.Handle
	// Iterations is the number of rounds needed to reach the points-to fixed point
	Iterations int
}

// NewFIAlias runs the alias analysis on the program. A fresh arena is created when arena is nil.
func NewFIAlias(logger *config.LogGroup, prog *ir.Program, arena *loc.Arena) *FIAlias {
	if arena == nil {
		arena = loc.NewArena()
	}
	a := &FIAlias{
		prog:   prog,
		arena:  arena,
		logger: config.OrDefault(logger),
		pts:    map[loc.Handle]*loc.Set{},
	}
	a.solve()
	a.may = make([][]loc.Handle, 0, prog.NumMemRefs())
	a.must = make([][]loc.Handle, 0, prog.NumMemRefs())
	for i := 0; i < prog.NumMemRefs(); i++ {
		m := a.prog.MemRef(ir.MemRefID(i))
		may := a.locsOf(m.Proc, m.Expr)
		a.may = append(a.may, may)
		if len(may) == 1 && a.arena.FullAccuracy(may[0]) {
			a.must = append(a.must, may)
		} else {
			a.must = append(a.must, nil)
		}
	}
	a.logger.Debugf("alias: %d memory references resolved in %d rounds, %d locations\n",
		len(a.may), a.Iterations, a.arena.Len())
	return a
}

// Arena implements Results
func (a *FIAlias) Arena() *loc.Arena { return a.arena }

// MayLocs implements Results
func (a *FIAlias) MayLocs(m ir.MemRefID) []loc.Handle {
	if m < 0 || int(m) >= len(a.may) {
		return []loc.Handle{loc.UnknownHandle}
	}
	return append([]loc.Handle(nil), a.may[m]...)
}

// MustLocs implements Results
func (a *FIAlias) MustLocs(m ir.MemRefID) []loc.Handle {
	if m < 0 || int(m) >= len(a.must) {
		return nil
	}
	return append([]loc.Handle(nil), a.must[m]...)
}

// ExprMayLocs implements Results
func (a *FIAlias) ExprMayLocs(proc ir.ProcID, e ir.MemRefExpr) []loc.Handle {
	return a.locsOf(proc, e)
}

// PointsTo returns the pointees of the location h
func (a *FIAlias) PointsTo(h loc.Handle) []loc.Handle {
	if s, ok := a.pts[h]; ok {
		return s.Handles()
	}
	return nil
}

// locsOf returns the locations denoted by e in proc, with the current points-to sets
func (a *FIAlias) locsOf(proc ir.ProcID, e ir.MemRefExpr) []loc.Handle {
	r := &resolver{alias: a, proc: proc}
	e.Accept(r)
	return funcutil.Dedup(r.locs)
}

type resolver struct {
	alias *FIAlias
	proc  ir.ProcID
	locs  []loc.Handle
}

func (r *resolver) VisitNamed(e *ir.NamedRef) {
	r.locs = []loc.Handle{r.alias.arena.NamedHandle(r.alias.prog.Symbol(e.Sym))}
}

func (r *resolver) VisitField(e *ir.FieldRef) {
	r.subsets(e.Base, e.Name)
}

func (r *resolver) VisitIndex(e *ir.IndexRef) {
	r.subsets(e.Base, loc.AnyElement)
}

func (r *resolver) subsets(base ir.MemRefExpr, part string) {
	var locs []loc.Handle
	for _, b := range r.alias.locsOf(r.proc, base) {
		locs = append(locs, r.alias.arena.SubsetHandle(b, part))
	}
	r.locs = locs
}

func (r *resolver) VisitDeref(e *ir.DerefRef) {
	r.locs = r.alias.pointees(r.proc, e.Inner)
}

// VisitAddr resolves to no location: an address computation does not read memory.
func (r *resolver) VisitAddr(*ir.AddrRef) {
	r.locs = nil
}

// pointees returns the locations the value of the expression e may point to
func (a *FIAlias) pointees(proc ir.ProcID, e ir.MemRefExpr) []loc.Handle {
	if addr, ok := e.(*ir.AddrRef); ok {
		return a.locsOf(proc, addr.Inner)
	}
	var res []loc.Handle
	for _, v := range a.locsOf(proc, e) {
		if v == loc.UnknownHandle {
			return []loc.Handle{loc.UnknownHandle}
		}
		if s, ok := a.pts[v]; ok {
			res = append(res, s.Handles()...)
		}
		if n, ok := a.arena.Get(v).(loc.Named); ok {
			if sym := a.prog.Symbol(n.Sym); sym.Kind == ir.FormalSym && n.Proc == proc {
				res = append(res, a.arena.Intern(loc.Invisible{Formal: n.Sym, Proc: proc}))
			}
		}
	}
	if len(res) == 0 {
		return []loc.Handle{loc.UnknownHandle}
	}
	return res
}

// valuePointees returns the pointees of the value computed by expression e
func (a *FIAlias) valuePointees(proc ir.ProcID, e ir.Expr) []loc.Handle {
	var res []loc.Handle
	for _, m := range ir.MemRefsOf(e) {
		mexpr := a.prog.MemRef(m).Expr
		if addr, ok := mexpr.(*ir.AddrRef); ok {
			res = append(res, a.locsOf(proc, addr.Inner)...)
			continue
		}
		for _, l := range a.locsOf(proc, mexpr) {
			if s, ok := a.pts[l]; ok {
				res = append(res, s.Handles()...)
			}
		}
	}
	return res
}

func (a *FIAlias) addPointees(target loc.Handle, pointees []loc.Handle, nonLocalOnly bool) bool {
	if target == loc.UnknownHandle || len(pointees) == 0 {
		return false
	}
	s, ok := a.pts[target]
	if !ok {
		s = loc.NewSet()
		a.pts[target] = s
	}
	changed := false
	for _, p := range pointees {
		if nonLocalOnly && a.arena.IsLocal(p) {
			continue
		}
		if s.Insert(p) {
			changed = true
		}
	}
	return changed
}

// solve computes the points-to sets to a fixed point
func (a *FIAlias) solve() {
	for changed := true; changed; {
		changed = false
		a.Iterations++
		for i := 0; i < a.prog.NumStmts(); i++ {
			s := a.prog.Stmt(ir.StmtID(i))
			if a.stmtPointsTo(s) {
				changed = true
			}
		}
		for _, c := range a.prog.Calls() {
			if a.callPointsTo(c) {
				changed = true
			}
		}
	}
}

func (a *FIAlias) stmtPointsTo(s *ir.Stmt) bool {
	changed := false
	for _, pair := range s.Pairs {
		targets := a.locsOf(s.Proc, a.prog.MemRef(pair.Target).Expr)
		var pointees []loc.Handle
		nonLocal := false
		switch src := pair.Source.(type) {
		case *ir.CallNode:
			c := a.prog.Call(src.Call)
			idx := funcutil.Index(c.Results, pair.Target)
			for _, callee := range c.Callees {
				results := a.prog.Procedure(callee).Results
				if idx >= 0 && idx < len(results) {
					pointees = append(pointees, a.PointsTo(a.arena.NamedHandle(a.prog.Symbol(results[idx])))...)
				}
			}
			nonLocal = true
		default:
			if s.Kind == ir.AllocStmt {
				pointees = []loc.Handle{a.arena.Intern(loc.Unnamed{Site: s.ID, Proc: s.Proc})}
			} else {
				pointees = a.valuePointees(s.Proc, pair.Source)
			}
		}
		for _, t := range targets {
			if a.addPointees(t, pointees, nonLocal) {
				changed = true
			}
		}
	}
	return changed
}

func (a *FIAlias) callPointsTo(c *ir.CallSite) bool {
	changed := false
	for _, callee := range c.Callees {
		formals := a.prog.Procedure(callee).Formals
		for i, actual := range c.Actuals {
			if i >= len(formals) {
				break
			}
			f := a.arena.NamedHandle(a.prog.Symbol(formals[i]))
			if a.addPointees(f, a.valuePointees(c.Proc, actual), true) {
				changed = true
			}
		}
	}
	return changed
}
