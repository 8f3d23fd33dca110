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

package dataflow_test

import (
	"testing"

	"github.com/awslabs/argot-activity/analysis/alias"
	"github.com/awslabs/argot-activity/analysis/dataflow"
	"github.com/awslabs/argot-activity/analysis/ir"
	"github.com/awslabs/argot-activity/analysis/loc"
	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
)

// reach is a forward reachability problem over a gonum graph: a node is reached if a predecessor is
type reach struct {
	root    int64
	reached map[int64]bool
	// in holds the facts received from the edges
	in        map[int64]bool
	finalized int
}

func (r *reach) Initialize(g graph.Directed) {
	r.reached = map[int64]bool{}
	r.in = map[int64]bool{r.root: true}
	r.finalized = 0
}

func (r *reach) AtNode(n graph.Node, _ dataflow.Direction) bool {
	if r.in[n.ID()] && !r.reached[n.ID()] {
		r.reached[n.ID()] = true
		return true
	}
	return false
}

func (r *reach) AtEdge(e graph.Edge, dir dataflow.Direction) bool {
	from, to := e.From().ID(), e.To().ID()
	if dir == dataflow.Backward {
		from, to = to, from
	}
	if r.reached[from] && !r.in[to] {
		r.in[to] = true
		return true
	}
	return false
}

func (r *reach) FinalizeNode(graph.Node, dataflow.Direction) { r.finalized++ }
func (r *reach) FinalizeEdge(graph.Edge, dataflow.Direction) { r.finalized++ }

func TestSolverReachesFixedPoint(t *testing.T) {
	g := simple.NewDirectedGraph()
	// 0 -> 1 -> 2 -> 1, 3 -> 2, 4 isolated
	for _, e := range [][2]int64{{0, 1}, {1, 2}, {2, 1}, {3, 2}} {
		g.SetEdge(g.NewEdge(simple.Node(e[0]), simple.Node(e[1])))
	}
	g.AddNode(simple.Node(4))
	tests := []struct {
		name string
		root int64
		dir  dataflow.Direction
		want map[int64]bool
	}{
		{"forward from 0", 0, dataflow.Forward, map[int64]bool{0: true, 1: true, 2: true}},
		{"backward from 2", 2, dataflow.Backward, map[int64]bool{0: true, 1: true, 2: true, 3: true}},
		{"isolated", 4, dataflow.Forward, map[int64]bool{4: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &reach{root: tt.root}
			s := dataflow.NewSolver(nil)
			s.Solve(g, p, tt.dir)
			if diff := cmp.Diff(tt.want, p.reached); diff != "" {
				t.Errorf("reached nodes mismatch (-want +got):\n%s", diff)
			}
			if s.Iterations() < 1 {
				t.Errorf("expected at least one sweep")
			}
			// 5 nodes and 4 edges are finalized exactly once
			if p.finalized != 9 {
				t.Errorf("expected 9 finalize calls, got %d", p.finalized)
			}
			// one more sweep does not change anything
			nodes := g.Nodes()
			for nodes.Next() {
				if p.AtNode(nodes.Node(), tt.dir) {
					t.Errorf("node %d changed after the fixed point", nodes.Node().ID())
				}
			}
			for _, e := range graph.EdgesOf(g.Edges()) {
				if p.AtEdge(e, tt.dir) {
					t.Errorf("edge %v changed after the fixed point", e)
				}
			}
		})
	}
}

// defined is a forward CFG problem collecting the may-locations defined so far
type defined struct {
	prog    *ir.Program
	aliases alias.Results
	proc    ir.ProcID
	seed    *loc.Set
}

func (d *defined) InitializeTop() *loc.Set    { return loc.NewTop() }
func (d *defined) InitializeBottom() *loc.Set { return loc.NewSet() }
func (d *defined) InitializeNodeIn(n *ir.Node) *loc.Set {
	if n.Kind == ir.EntryNode && d.seed != nil {
		return d.seed.Clone()
	}
	return loc.NewTop()
}
func (d *defined) InitializeNodeOut(*ir.Node) *loc.Set { return loc.NewTop() }
func (d *defined) Meet(a, b *loc.Set) *loc.Set         { return loc.Meet(a, b) }
func (d *defined) Transfer(s *loc.Set, stmt ir.StmtID) *loc.Set {
	for _, m := range d.prog.Stmt(stmt).Defs {
		for _, h := range d.aliases.MayLocs(m) {
			s.Insert(h)
		}
	}
	return s
}

// used is a backward CFG problem collecting the may-locations used later
type used struct {
	defined
}

func (u *used) Transfer(s *loc.Set, stmt ir.StmtID) *loc.Set {
	for _, m := range u.prog.Stmt(stmt).Uses {
		for _, h := range u.aliases.MayLocs(m) {
			s.Insert(h)
		}
	}
	return s
}

// branchProgram builds
//
//	f(c) { if c { a = c } else { b = 1 }; r = a }
func branchProgram(t *testing.T) (*ir.Program, ir.ProcID) {
	b := ir.NewBuilder()
	f := b.Procedure("f")
	c := b.Formal(f, "c", false, 8)
	a := b.Local(f, "a", 8)
	bb := b.Local(f, "b", 8)
	r := b.Local(f, "r", 8)
	then, els, join := b.NewBlock(f), b.NewBlock(f), b.NewBlock(f)
	b.Branch(f, 0, ir.Use(ir.Named(c)))
	b.Jump(f, 0, then)
	b.Jump(f, 0, els)
	b.Assign(f, then, ir.Named(a), ir.Use(ir.Named(c)))
	b.Jump(f, then, join)
	b.Assign(f, els, ir.Named(bb), ir.Const("1"))
	b.Jump(f, els, join)
	b.Assign(f, join, ir.Named(r), ir.Use(ir.Named(a)))
	prog, err := b.Build()
	if err != nil {
		t.Fatalf("failed to build program: %v", err)
	}
	return prog, f
}

func format(prog *ir.Program, arena *loc.Arena, s *loc.Set) []string {
	var res []string
	for _, h := range s.Handles() {
		res = append(res, arena.Format(h, prog))
	}
	return res
}

func TestCFGSolverForward(t *testing.T) {
	prog, f := branchProgram(t)
	aliases := alias.NewFIAlias(nil, prog, nil)
	cfg := ir.NewCFG(prog, f)
	solver := dataflow.NewCFGSolver[*loc.Set](nil, &defined{prog: prog, aliases: aliases, proc: f})
	out := solver.Solve(cfg, f, dataflow.Forward)
	if diff := cmp.Diff([]string{"f:a", "f:b", "f:r"}, format(prog, aliases.Arena(), out)); diff != "" {
		t.Errorf("defined locations at exit mismatch (-want +got):\n%s", diff)
	}
	// the then block only sees its own definition
	then := cfg.NodeOf(prog.StmtsOf(f)[1])
	if diff := cmp.Diff([]string{"f:a"}, format(prog, aliases.Arena(), solver.Out(then))); diff != "" {
		t.Errorf("defined locations after then block mismatch (-want +got):\n%s", diff)
	}
	// solving twice gives the same result
	if again := solver.Solve(cfg, f, dataflow.Forward); !again.Equal(out) {
		t.Errorf("second solve gave a different result")
	}
}

func TestCFGSolverBackward(t *testing.T) {
	prog, f := branchProgram(t)
	aliases := alias.NewFIAlias(nil, prog, nil)
	cfg := ir.NewCFG(prog, f)
	solver := dataflow.NewCFGSolver[*loc.Set](nil, &used{defined{prog: prog, aliases: aliases, proc: f}})
	in := solver.Solve(cfg, f, dataflow.Backward)
	if diff := cmp.Diff([]string{"f:a", "f:c"}, format(prog, aliases.Arena(), in)); diff != "" {
		t.Errorf("used locations at entry mismatch (-want +got):\n%s", diff)
	}
	els := cfg.NodeOf(prog.StmtsOf(f)[2])
	if diff := cmp.Diff([]string{"f:a"}, format(prog, aliases.Arena(), solver.In(els))); diff != "" {
		t.Errorf("used locations before else block mismatch (-want +got):\n%s", diff)
	}
}
