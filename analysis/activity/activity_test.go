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

package activity_test

import (
	"sort"
	"testing"

	"github.com/awslabs/argot-activity/analysis/activity"
	"github.com/awslabs/argot-activity/analysis/alias"
	"github.com/awslabs/argot-activity/analysis/ir"
	"github.com/awslabs/argot-activity/analysis/loc"
	"github.com/google/go-cmp/cmp"
)

type env struct {
	prog    *ir.Program
	aliases *alias.FIAlias
}

func newEnv(t *testing.T, b *ir.Builder) *env {
	prog, err := b.Build()
	if err != nil {
		t.Fatalf("failed to build program: %v", err)
	}
	return &env{prog: prog, aliases: alias.NewFIAlias(nil, prog, nil)}
}

func (e *env) named(s ir.SymID) loc.Handle {
	return e.aliases.Arena().NamedHandle(e.prog.Symbol(s))
}

func (e *env) run(m *activity.Manager, p activity.Problem) *activity.InterActive {
	return m.PerformAnalysis(e.prog, ir.NewICFG(e.prog), e.aliases, ir.NewParamBindings(e.prog), p)
}

func (e *env) symNames(syms []ir.SymID) []string {
	var res []string
	for _, s := range syms {
		res = append(res, e.prog.Name(s))
	}
	sort.Strings(res)
	return res
}

func TestStraightLineChain(t *testing.T) {
	b := ir.NewBuilder()
	f := b.Procedure("f")
	x, a, bb, z := b.Local(f, "x", 8), b.Local(f, "a", 8), b.Local(f, "b", 8), b.Local(f, "z", 8)
	s1 := b.Assign(f, 0, ir.Named(a), ir.Use(ir.Named(x)))
	s2 := b.Assign(f, 0, ir.Named(bb), ir.Use(ir.Named(a)))
	s3 := b.Assign(f, 0, ir.Named(z), ir.Const("0"))
	e := newEnv(t, b)
	res := e.run(activity.NewManager(nil), activity.Problem{
		Independents: map[ir.ProcID][]loc.Handle{f: {e.named(x)}},
		Dependents:   map[ir.ProcID][]loc.Handle{f: {e.named(bb)}},
	})

	if diff := cmp.Diff([]ir.StmtID{s1, s2}, res.ActiveStmts(f)); diff != "" {
		t.Errorf("active statements mismatch (-want +got):\n%s", diff)
	}
	if res.IsActiveStmt(f, s3) {
		t.Errorf("z = 0 should not be active")
	}
	if diff := cmp.Diff([]string{"a", "b", "x"}, e.symNames(res.ActiveSymbols())); diff != "" {
		t.Errorf("active symbols mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]ir.SymID{x, a, bb}, res.Standard(f).ActiveSymbols()); diff != "" {
		t.Errorf("active symbols of f mismatch (-want +got):\n%s", diff)
	}
	if res.IsActiveSym(z) || !res.IsActiveSym(a) {
		t.Errorf("a should be active and z should not")
	}
	if res.SizeInBytes() != 24 {
		t.Errorf("expected 24 active bytes, got %d", res.SizeInBytes())
	}
	for _, m := range e.prog.Stmt(s2).Defs {
		if !res.IsActiveMemRef(f, m) {
			t.Errorf("the def of b = a should be an active memory reference")
		}
	}
	stats := res.Stats()
	if stats.ActiveStmts != 2 || stats.ActiveSymbols != 3 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if stats.DepIterations < 1 || stats.UsefulIterations < 1 || stats.VaryIterations < 1 {
		t.Errorf("every solver should run at least one sweep, got %+v", stats)
	}
}

func TestDeadBranch(t *testing.T) {
	b := ir.NewBuilder()
	f := b.Procedure("f")
	x, a, c, bb, cond := b.Local(f, "x", 8), b.Local(f, "a", 8), b.Local(f, "c", 8), b.Local(f, "b", 8),
		b.Local(f, "cond", 1)
	then, join := b.NewBlock(f), b.NewBlock(f)
	b.Assign(f, 0, ir.Named(a), ir.Use(ir.Named(x)))
	b.Branch(f, 0, ir.Use(ir.Named(cond)))
	b.Jump(f, 0, then)
	b.Jump(f, 0, join)
	dead := b.Assign(f, then, ir.Named(c), ir.Use(ir.Named(a)))
	b.Jump(f, then, join)
	last := b.Assign(f, join, ir.Named(bb), ir.Const("5"))
	e := newEnv(t, b)
	problem := activity.Problem{
		Independents: map[ir.ProcID][]loc.Handle{f: {e.named(x)}},
		Dependents:   map[ir.ProcID][]loc.Handle{f: {e.named(bb)}},
	}

	res := e.run(activity.NewManager(nil), problem)
	if res.IsActiveStmt(f, dead) || res.IsActiveStmt(f, last) {
		t.Errorf("no statement should be active")
	}
	if got := res.ActiveSymbols(); len(got) != 0 {
		t.Errorf("no symbol should be active, got %v", e.symNames(got))
	}

	// without the useful restriction, everything reached from x is reported
	m := activity.NewManager(nil)
	m.VaryOnly = true
	res = e.run(m, problem)
	if len(m.Dep().DepSet(last).Pairs()) != 0 {
		t.Errorf("the constant assignment should have no dependence pair")
	}
	if !m.Vary().InVary(dead).Has(e.named(a)) {
		t.Errorf("a should vary at c = a")
	}
	if !res.IsActiveStmt(f, dead) || res.IsActiveStmt(f, last) {
		t.Errorf("with vary-only, c = a should be active and b = 5 should not")
	}
	if diff := cmp.Diff([]string{"a", "c", "x"}, e.symNames(res.ActiveSymbols())); diff != "" {
		t.Errorf("vary-only active symbols mismatch (-want +got):\n%s", diff)
	}
}

func TestInterproceduralPassThrough(t *testing.T) {
	b := ir.NewBuilder()
	callee := b.Procedure("callee")
	p := b.Formal(callee, "p", true, 8)
	q := b.Local(callee, "q", 8)
	inCallee := b.Assign(callee, 0, ir.Named(q), ir.Use(ir.Named(p)))
	main := b.Procedure("main")
	x := b.Local(main, "x", 8)
	b.Call(main, 0, []ir.ProcID{callee}, []ir.Expr{ir.Use(ir.Named(x))}, nil)
	e := newEnv(t, b)
	m := activity.NewManager(nil)
	res := e.run(m, activity.Problem{
		Independents: map[ir.ProcID][]loc.Handle{main: {e.named(x)}},
		Dependents:   map[ir.ProcID][]loc.Handle{callee: {e.named(q)}},
	})

	if !m.Vary().InVary(inCallee).Has(e.named(p)) {
		t.Errorf("p should vary in the callee")
	}
	if diff := cmp.Diff([]string{"p", "q", "x"}, e.symNames(res.ActiveSymbols())); diff != "" {
		t.Errorf("active symbols mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]ir.StmtID{inCallee}, res.ActiveStmts(callee)); diff != "" {
		t.Errorf("active statements of callee mismatch (-want +got):\n%s", diff)
	}
	stmt := e.prog.Stmt(inCallee)
	for _, refs := range [][]ir.MemRefID{stmt.Defs, stmt.Uses} {
		for _, ref := range refs {
			if !res.IsActiveMemRef(callee, ref) {
				t.Errorf("memory reference %d of q = p should be active", ref)
			}
		}
	}
	if diff := cmp.Diff([]ir.ProcID{callee, main}, res.Procedures()); diff != "" {
		t.Errorf("procedures mismatch (-want +got):\n%s", diff)
	}
}

func TestCallResultThroughGlobal(t *testing.T) {
	b := ir.NewBuilder()
	g := b.Global("g", 8)
	f := b.Procedure("f")
	b.Result(f, 8)
	ret := b.Return(f, 0, ir.Use(ir.Named(g)))
	main := b.Procedure("main")
	y, w := b.Local(main, "y", 8), b.Local(main, "w", 8)
	callStmt, call := b.Call(main, 0, []ir.ProcID{f}, nil, []ir.MemRefExpr{ir.Named(y)})
	use := b.Assign(main, 0, ir.Named(w), ir.Use(ir.Named(y)))
	e := newEnv(t, b)
	m := activity.NewManager(nil)
	res := e.run(m, activity.Problem{
		Independents: map[ir.ProcID][]loc.Handle{main: {e.named(g)}},
		Dependents:   map[ir.ProcID][]loc.Handle{main: {e.named(w)}},
	})

	if !m.Vary().OutVary(callStmt).Has(e.named(y)) {
		t.Errorf("y should vary after y = f()")
	}
	if !m.Vary().CallInVary(call).Has(e.named(g)) {
		t.Errorf("g should vary before the call")
	}
	if diff := cmp.Diff([]ir.StmtID{callStmt, use}, res.ActiveStmts(main)); diff != "" {
		t.Errorf("active statements of main mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]ir.StmtID{ret}, res.ActiveStmts(f)); diff != "" {
		t.Errorf("active statements of f mismatch (-want +got):\n%s", diff)
	}
	for _, d := range e.prog.Stmt(callStmt).Defs {
		if !res.IsActiveMemRef(main, d) {
			t.Errorf("the def of y = f() should be an active memory reference")
		}
	}
}

func TestUnknownMakesEverythingActive(t *testing.T) {
	b := ir.NewBuilder()
	g := b.Global("g", 16)
	other := b.Procedure("other")
	b.Local(other, "z", 4)
	main := b.Procedure("main")
	x, p, y := b.Local(main, "x", 8), b.Local(main, "p", 8), b.Local(main, "y", 8)
	b.Assign(main, 0, ir.Named(y), ir.Use(ir.Deref(ir.Named(p))))
	e := newEnv(t, b)
	res := e.run(activity.NewManager(nil), activity.Problem{
		Independents: map[ir.ProcID][]loc.Handle{main: {e.named(x)}},
		Dependents:   map[ir.ProcID][]loc.Handle{main: {e.named(y)}},
	})

	if !res.UnknownActive() {
		t.Fatalf("the unknown location should be active")
	}
	// the answer must not depend on the order of the queries
	for _, order := range [][]ir.SymID{{g, x}, {x, g}} {
		for _, s := range order {
			if !res.IsActiveSym(s) {
				t.Errorf("%s should be active", e.prog.Name(s))
			}
		}
	}
	for _, s := range e.prog.Symbols() {
		if !res.IsActiveSym(s.ID) {
			t.Errorf("%s should be active", s.Name)
		}
	}
	if len(res.ActiveSymbols()) != len(e.prog.Symbols()) {
		t.Errorf("every symbol should be listed as active")
	}
	if res.SizeInBytes() != 16+4+8+8+8 {
		t.Errorf("expected every symbol to count, got %d bytes", res.SizeInBytes())
	}
	if !res.UnknownActive() {
		t.Errorf("the unknown flag should never be reset")
	}
}

func TestRecursiveProceduresInStats(t *testing.T) {
	b := ir.NewBuilder()
	f := b.Procedure("f")
	b.Call(f, 0, []ir.ProcID{f}, nil, nil)
	g, h := b.Procedure("g"), b.Procedure("h")
	b.Call(g, 0, []ir.ProcID{h}, nil, nil)
	b.Call(h, 0, []ir.ProcID{g}, nil, nil)
	main := b.Procedure("main")
	b.Call(main, 0, []ir.ProcID{f}, nil, nil)
	b.Call(main, 0, []ir.ProcID{g}, nil, nil)
	e := newEnv(t, b)
	res := e.run(activity.NewManager(nil), activity.Problem{})
	if diff := cmp.Diff([]ir.ProcID{f, g, h}, res.Stats().RecursiveProcedures); diff != "" {
		t.Errorf("recursive procedures mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][]ir.ProcID{{g, h}}, res.Stats().RecursionCycles); diff != "" {
		t.Errorf("recursion cycles mismatch (-want +got):\n%s", diff)
	}
}

func TestQueryingUnknownProcedurePanics(t *testing.T) {
	b := ir.NewBuilder()
	b.Procedure("f")
	e := newEnv(t, b)
	res := e.run(activity.NewManager(nil), activity.Problem{})
	defer func() {
		if recover() == nil {
			t.Errorf("querying a procedure that was not analyzed should panic")
		}
	}()
	res.IsActiveStmt(7, 0)
}
