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

package ir_test

import (
	"testing"

	"github.com/awslabs/argot-activity/analysis/ir"
	"gonum.org/v1/gonum/graph"
)

// buildCallProgram builds
//
//	proc callee(ref p) { q = p }
//	proc main(x) { callee(x); y = x; }
func buildCallProgram(t *testing.T) (*ir.Program, ir.ProcID, ir.ProcID, ir.CallID) {
	b := ir.NewBuilder()
	callee := b.Procedure("callee")
	p := b.Formal(callee, "p", true, 8)
	q := b.Local(callee, "q", 8)
	b.Assign(callee, 0, ir.Named(q), ir.Use(ir.Named(p)))

	main := b.Procedure("main")
	x := b.Formal(main, "x", false, 8)
	y := b.Local(main, "y", 8)
	_, call := b.Call(main, 0, []ir.ProcID{callee}, []ir.Expr{ir.Use(ir.Named(x))}, nil)
	b.Assign(main, 0, ir.Named(y), ir.Use(ir.Named(x)))
	prog, err := b.Build()
	if err != nil {
		t.Fatalf("failed to build program: %v", err)
	}
	return prog, callee, main, call
}

func countNodes(it graph.Nodes) int {
	n := 0
	for it.Next() {
		n++
	}
	return n
}

func TestBuilderErrors(t *testing.T) {
	tests := []struct {
		name  string
		build func(b *ir.Builder)
	}{
		{"unknown procedure", func(b *ir.Builder) { b.Local(3, "x", 8) }},
		{"invalid block", func(b *ir.Builder) {
			p := b.Procedure("f")
			b.Assign(p, 2, ir.Named(b.Local(p, "x", 8)), ir.Const("1"))
		}},
		{"invalid edge", func(b *ir.Builder) {
			p := b.Procedure("f")
			b.Jump(p, 0, 5)
		}},
		{"too many return values", func(b *ir.Builder) {
			p := b.Procedure("f")
			b.Return(p, 0, ir.Const("1"))
		}},
		{"too many actuals", func(b *ir.Builder) {
			f := b.Procedure("f")
			g := b.Procedure("g")
			b.Call(g, 0, []ir.ProcID{f}, []ir.Expr{ir.Const("1")}, nil)
		}},
		{"node reused", func(b *ir.Builder) {
			p := b.Procedure("f")
			x := b.Local(p, "x", 8)
			u := ir.Use(ir.Named(x))
			b.Assign(p, 0, ir.Named(x), u)
			b.Assign(p, 0, ir.Named(x), u)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := ir.NewBuilder()
			tt.build(b)
			if prog, err := b.Build(); err == nil || prog != nil {
				t.Errorf("expected an error when building the program")
			}
		})
	}
}

func TestBuilderStatements(t *testing.T) {
	prog, callee, main, call := buildCallProgram(t)
	if prog.NumProcedures() != 2 {
		t.Fatalf("expected 2 procedures, got %d", prog.NumProcedures())
	}
	stmts := prog.StmtsOf(main)
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements in main, got %d", len(stmts))
	}
	c := prog.Call(call)
	if !c.Resolved() || c.Callees[0] != callee || c.Stmt != stmts[0] {
		t.Errorf("unexpected call site %+v", c)
	}
	s := prog.Stmt(stmts[0])
	if s.Kind != ir.CallStmt || s.Call != call || len(s.Uses) != 1 || len(s.Defs) != 0 {
		t.Errorf("unexpected call statement %+v", s)
	}
	assign := prog.Stmt(stmts[1])
	if len(assign.Pairs) != 1 || len(assign.Defs) != 1 || len(assign.Uses) != 1 {
		t.Fatalf("unexpected assignment %+v", assign)
	}
	if got := prog.MemRef(assign.Pairs[0].Target).Expr.Format(prog); got != "y" {
		t.Errorf("expected target y, got %s", got)
	}
	if got := assign.Pairs[0].Source.Format(prog); got != "x" {
		t.Errorf("expected source x, got %s", got)
	}
	if prog.LookupSymbol(main, "x") == ir.NoSym || prog.LookupSymbol(main, "q") != ir.NoSym {
		t.Errorf("symbol lookup is not scoped to the procedure")
	}
}

func TestParamBindings(t *testing.T) {
	prog, callee, _, call := buildCallProgram(t)
	bindings := ir.NewParamBindings(prog)
	p := prog.Procedure(callee).Formals[0]
	if !bindings.IsRefParam(p) {
		t.Errorf("p should be a reference parameter")
	}
	m, ok := ir.BoundMemRef(bindings, call, p)
	if !ok {
		t.Fatalf("p should be bound to a memory reference")
	}
	if got := prog.MemRef(m).Expr.Format(prog); got != "x" {
		t.Errorf("p should be bound to x, got %s", got)
	}
	q := prog.LookupSymbol(callee, "q")
	if _, ok := bindings.Actual(call, q); ok {
		t.Errorf("a local should not be bound to an actual")
	}
}

func TestResultTargets(t *testing.T) {
	b := ir.NewBuilder()
	f := b.Procedure("f")
	b.Result(f, 8)
	b.Result(f, 8)
	b.Return(f, 0, ir.Const("1"), ir.Const("2"))
	g := b.Procedure("g")
	y := b.Local(g, "y", 8)
	_, call := b.Call(g, 0, []ir.ProcID{f}, nil, []ir.MemRefExpr{nil, ir.Named(y)})
	prog, err := b.Build()
	if err != nil {
		t.Fatalf("failed to build program: %v", err)
	}
	bindings := ir.NewParamBindings(prog)
	results := prog.Procedure(f).Results
	if _, ok := bindings.ResultTarget(call, results[0]); ok {
		t.Errorf("first result is discarded")
	}
	m, ok := bindings.ResultTarget(call, results[1])
	if !ok || prog.MemRef(m).Expr.Format(prog) != "y" {
		t.Errorf("second result should be bound to y")
	}
	if prog.Name(results[1]) != "$ret1" {
		t.Errorf("unexpected result name %s", prog.Name(results[1]))
	}
}

func TestNewCFG(t *testing.T) {
	b := ir.NewBuilder()
	p := b.Procedure("f")
	x := b.Local(p, "x", 8)
	then := b.NewBlock(p)
	join := b.NewBlock(p)
	b.Branch(p, 0, ir.Use(ir.Named(x)))
	b.Assign(p, then, ir.Named(x), ir.Const("1"))
	b.Jump(p, 0, then)
	b.Jump(p, 0, join)
	b.Jump(p, then, join)
	prog, err := b.Build()
	if err != nil {
		t.Fatalf("failed to build program: %v", err)
	}
	cfg := ir.NewCFG(prog, p)
	if cfg.Len() != 5 {
		t.Errorf("expected 5 nodes (entry, 3 blocks, exit), got %d", cfg.Len())
	}
	entry, exit := cfg.Entry(p), cfg.Exit(p)
	if countNodes(cfg.To(entry.ID())) != 0 || countNodes(cfg.From(exit.ID())) != 0 {
		t.Errorf("entry should have no predecessor and exit no successor")
	}
	if countNodes(cfg.To(exit.ID())) != 1 {
		t.Errorf("only the join block should flow to the exit")
	}
	if cfg.Node(42) != nil || cfg.Edge(exit.ID(), entry.ID()) != nil {
		t.Errorf("missing nodes and edges should be nil")
	}
	thenNode := cfg.NodeOf(prog.StmtsOf(p)[1])
	if cfg.HasEdgeBetween(exit.ID(), thenNode.ID()) || countNodes(cfg.From(thenNode.ID())) != 1 {
		t.Errorf("the then block should only flow to the join block")
	}
}

func TestNewICFG(t *testing.T) {
	prog, callee, main, call := buildCallProgram(t)
	icfg := ir.NewICFG(prog)
	callNode, retNode := icfg.CallNodeOf(call), icfg.ReturnNodeOf(call)
	if callNode == nil || retNode == nil {
		t.Fatalf("missing call or return site node")
	}
	if callNode.Kind != ir.CallSiteNode || retNode.Kind != ir.ReturnSiteNode || len(retNode.Stmts) != 0 {
		t.Errorf("unexpected call site nodes %v %v", callNode, retNode)
	}
	callStmt := prog.Call(call).Stmt
	if len(callNode.Stmts) != 1 || callNode.Stmts[0] != callStmt || prog.Stmt(callStmt).Call != call {
		t.Errorf("the call site node should hold exactly the statement of the call, got %v", callNode.Stmts)
	}
	checkEdge := func(u, v *ir.Node, kind ir.EdgeKind) {
		e := icfg.Edge(u.ID(), v.ID())
		if e == nil {
			t.Errorf("missing edge %v -> %v", u, v)
			return
		}
		if e.(*ir.Edge).Kind != kind {
			t.Errorf("edge %v has kind %s, want %s", e, e.(*ir.Edge).Kind, kind)
		}
	}
	checkEdge(callNode, icfg.Entry(callee), ir.CallEdge)
	checkEdge(icfg.Exit(callee), retNode, ir.ReturnEdge)
	checkEdge(callNode, retNode, ir.CallToReturnEdge)
	after := icfg.NodeOf(prog.StmtsOf(main)[1])
	checkEdge(retNode, after, ir.FlowEdge)
	checkEdge(after, icfg.Exit(main), ir.FlowEdge)
	if countNodes(icfg.Nodes()) != icfg.Len() {
		t.Errorf("node iterator does not visit every node")
	}
}

func TestNodeSetIterator(t *testing.T) {
	prog, _, _, _ := buildCallProgram(t)
	it := ir.NewICFG(prog).Nodes()
	total := it.Len()
	if it.Node() != nil {
		t.Errorf("iterator should not have a current node before Next")
	}
	it.Next()
	if it.Len() != total-1 {
		t.Errorf("Len should count remaining nodes")
	}
	for it.Next() {
	}
	if it.Len() != 0 || it.Node() != nil {
		t.Errorf("exhausted iterator should be empty")
	}
	it.Reset()
	if countNodes(it) != total {
		t.Errorf("Reset should restart the iteration")
	}
}

func TestCallGraph(t *testing.T) {
	prog, callee, main, _ := buildCallProgram(t)
	cg := ir.NewCallGraph(prog)
	roots := cg.Roots()
	if len(roots) != 1 || roots[0] != main {
		t.Errorf("main should be the only root, got %v", roots)
	}
	if len(cg.Callers(callee)) != 1 || len(cg.Callees(main)) != 1 {
		t.Errorf("unexpected call graph edges")
	}
}
