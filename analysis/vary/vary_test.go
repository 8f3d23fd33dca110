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

package vary_test

import (
	"sort"
	"testing"

	"github.com/awslabs/argot-activity/analysis/alias"
	"github.com/awslabs/argot-activity/analysis/dep"
	"github.com/awslabs/argot-activity/analysis/ir"
	"github.com/awslabs/argot-activity/analysis/loc"
	"github.com/awslabs/argot-activity/analysis/useful"
	"github.com/awslabs/argot-activity/analysis/vary"
	"github.com/google/go-cmp/cmp"
)

type env struct {
	prog     *ir.Program
	aliases  *alias.FIAlias
	bindings ir.ParamBindings
	icfg     *ir.Graph
	deps     *dep.ICFGDep
}

func newEnv(t *testing.T, b *ir.Builder) *env {
	prog, err := b.Build()
	if err != nil {
		t.Fatalf("failed to build program: %v", err)
	}
	e := &env{prog: prog, aliases: alias.NewFIAlias(nil, prog, nil), bindings: ir.NewParamBindings(prog)}
	e.icfg = ir.NewICFG(prog)
	e.deps = dep.NewManager(nil).PerformAnalysis(prog, e.icfg, e.aliases, e.bindings)
	return e
}

func (e *env) named(s ir.SymID) loc.Handle {
	return e.aliases.Arena().NamedHandle(e.prog.Symbol(s))
}

func (e *env) vary(independents map[ir.ProcID][]loc.Handle, u *useful.InterUseful) *vary.InterVary {
	return vary.NewManager(nil).PerformAnalysis(e.prog, e.icfg, e.aliases, e.bindings, e.deps, independents, u)
}

func (e *env) names(s *loc.Set) []string {
	var res []string
	for _, h := range s.Handles() {
		res = append(res, e.aliases.Arena().Format(h, e.prog))
	}
	sort.Strings(res)
	return res
}

func TestStraightLineChain(t *testing.T) {
	b := ir.NewBuilder()
	f := b.Procedure("f")
	x, a, bb := b.Local(f, "x", 8), b.Local(f, "a", 8), b.Local(f, "b", 8)
	s1 := b.Assign(f, 0, ir.Named(a), ir.Use(ir.Named(x)))
	s2 := b.Assign(f, 0, ir.Named(bb), ir.Use(ir.Named(a)))
	e := newEnv(t, b)
	independents := map[ir.ProcID][]loc.Handle{f: {e.named(x)}}
	u := useful.NewManager(nil).PerformAnalysis(e.prog, e.icfg, e.aliases, e.bindings, e.deps,
		map[ir.ProcID][]loc.Handle{f: {e.named(bb)}})
	plain := e.vary(independents, nil)
	restricted := e.vary(independents, u)
	active := vary.NewActivePerStmt(e.prog, e.aliases, restricted, u)
	unrestricted := vary.NewActivePerStmt(e.prog, e.aliases, plain, nil)

	tests := []struct {
		name string
		got  *loc.Set
		want []string
	}{
		{"in of a = x", plain.InVary(s1), []string{"f:x"}},
		{"out of a = x", plain.OutVary(s1), []string{"f:a", "f:x"}},
		{"out of b = a", plain.OutVary(s2), []string{"f:a", "f:b", "f:x"}},
		{"restricted out of a = x", restricted.OutVary(s1), []string{"f:a"}},
		{"restricted out of b = a", restricted.OutVary(s2), []string{"f:b"}},
		{"in active of a = x", active.InActive(s1), []string{"f:x"}},
		{"out active of a = x", active.OutActive(s1), []string{"f:a"}},
		{"in active of b = a", active.InActive(s2), []string{"f:a"}},
		{"active defs of b = a", active.ActiveDefs(s2), []string{"f:b"}},
		{"unrestricted out active of b = a", unrestricted.OutActive(s2), []string{"f:a", "f:b", "f:x"}},
		{"unrestricted active defs of a = x", unrestricted.ActiveDefs(s1), []string{"f:a"}},
		{"independents", plain.IndepLocs(f), []string{"f:x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, e.names(tt.got)); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
	if plain.Restricted() || !restricted.Restricted() {
		t.Errorf("only the analysis given useful results should be restricted")
	}
	if !active.IsActiveStmt(s1) || !active.IsActiveStmt(s2) {
		t.Errorf("both statements should be active")
	}
	if diff := cmp.Diff([]ir.StmtID{s1, s2}, plain.Stmts(f)); diff != "" {
		t.Errorf("statements mismatch (-want +got):\n%s", diff)
	}
}

func TestVaryCrossesCalls(t *testing.T) {
	b := ir.NewBuilder()
	callee := b.Procedure("callee")
	p := b.Formal(callee, "p", true, 8)
	q := b.Local(callee, "q", 8)
	inCallee := b.Assign(callee, 0, ir.Named(q), ir.Use(ir.Named(p)))
	main := b.Procedure("main")
	x := b.Local(main, "x", 8)
	stmt, call := b.Call(main, 0, []ir.ProcID{callee}, []ir.Expr{ir.Use(ir.Named(x))}, nil)
	e := newEnv(t, b)
	res := e.vary(map[ir.ProcID][]loc.Handle{main: {e.named(x)}}, nil)

	if diff := cmp.Diff([]string{"callee:p"}, e.names(res.InVary(inCallee))); diff != "" {
		t.Errorf("the formal bound to x should vary in the callee (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"callee:p", "callee:q"}, e.names(res.OutVary(inCallee))); diff != "" {
		t.Errorf("q should vary after q = p (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"main:x"}, e.names(res.CallInVary(call))); diff != "" {
		t.Errorf("vary set at the call mismatch (-want +got):\n%s", diff)
	}
	if !res.InVary(stmt).Equal(res.CallInVary(call)) {
		t.Errorf("the vary set of the call statement and the call site should be equal")
	}
}

func TestUnresolvedCall(t *testing.T) {
	b := ir.NewBuilder()
	main := b.Procedure("main")
	x, r, w := b.Local(main, "x", 8), b.Local(main, "r", 8), b.Local(main, "w", 8)
	b.Call(main, 0, nil, []ir.Expr{ir.Use(ir.Named(x))}, []ir.MemRefExpr{ir.Named(r)})
	after := b.Assign(main, 0, ir.Named(w), ir.Use(ir.Named(r)))
	quiet := b.Procedure("quiet")
	y, z := b.Local(quiet, "y", 8), b.Local(quiet, "z", 8)
	quietCall, _ := b.Call(quiet, 0, nil, []ir.Expr{ir.Use(ir.Named(y))}, []ir.MemRefExpr{ir.Named(z)})
	e := newEnv(t, b)
	res := e.vary(map[ir.ProcID][]loc.Handle{main: {e.named(x)}}, nil)

	if diff := cmp.Diff([]string{"<unknown>", "main:r", "main:x"}, e.names(res.InVary(after))); diff != "" {
		t.Errorf("an unknown call reading a varying location should make unknown vary (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"<unknown>", "main:r", "main:w", "main:x"}, e.names(res.OutVary(after))); diff != "" {
		t.Errorf("out vary mismatch (-want +got):\n%s", diff)
	}
	if got := res.OutVary(quietCall); !got.IsEmpty() {
		t.Errorf("nothing varies in quiet, got %v", e.names(got))
	}
}

func TestAbsentStatement(t *testing.T) {
	b := ir.NewBuilder()
	f := b.Procedure("f")
	b.Local(f, "x", 8)
	e := newEnv(t, b)
	res := e.vary(nil, nil)
	if !res.InVary(7).IsEmpty() || !res.OutVary(7).IsEmpty() || !res.CallInVary(3).IsEmpty() {
		t.Errorf("absent statements should have empty vary sets")
	}
}
