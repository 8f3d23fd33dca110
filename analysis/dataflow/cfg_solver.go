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
	"fmt"

	"github.com/awslabs/argot-activity/analysis/config"
	"github.com/awslabs/argot-activity/analysis/ir"
	"gonum.org/v1/gonum/graph"
)

// Lattice is the constraint on the values of the facts of the adapters
type Lattice[S any] interface {
	// Clone returns a deep copy
	Clone() S
	// Equal returns true if both values denote the same element of the lattice
	Equal(S) bool
}

// CFGProblem is the client of the CFG adapter.
// Meet and Transfer receive a private copy as first argument, which they may mutate and return. They must not
// mutate any other argument.
type CFGProblem[S Lattice[S]] interface {
	InitializeTop() S
	InitializeBottom() S
	// InitializeNodeIn returns the initial IN fact of a node. Clients special-case the entry node here.
	InitializeNodeIn(n *ir.Node) S
	// InitializeNodeOut returns the initial OUT fact of a node. Clients special-case the exit node here.
	InitializeNodeOut(n *ir.Node) S
	Meet(a, b S) S
	Transfer(s S, stmt ir.StmtID) S
}

// nodeFacts stores the IN and OUT facts of every node of a graph. IN is before the statements of the node in
// program order, OUT after them, regardless of the direction of the analysis.
type nodeFacts[S Lattice[S]] struct {
	in  map[int64]S
	out map[int64]S
}

func newNodeFacts[S Lattice[S]]() nodeFacts[S] {
	return nodeFacts[S]{in: map[int64]S{}, out: map[int64]S{}}
}

// transferNode applies transfer through the statements of n and stores the result. It returns true if the
// stored fact changed.
func (f nodeFacts[S]) transferNode(n *ir.Node, dir Direction, transfer func(S, ir.StmtID) S,
	boundary func(S) S) bool {
	if dir == Forward {
		val := f.in[n.ID()].Clone()
		if boundary != nil {
			val = boundary(val)
		}
		for _, s := range n.Stmts {
			val = transfer(val, s)
		}
		if val.Equal(f.out[n.ID()]) {
			return false
		}
		f.out[n.ID()] = val
		return true
	}
	val := f.out[n.ID()].Clone()
	if boundary != nil {
		val = boundary(val)
	}
	for i := len(n.Stmts) - 1; i >= 0; i-- {
		val = transfer(val, n.Stmts[i])
	}
	if val.Equal(f.in[n.ID()]) {
		return false
	}
	f.in[n.ID()] = val
	return true
}

// source returns the fact a node sends to its neighbours in direction dir
func (f nodeFacts[S]) source(n graph.Node, dir Direction) S {
	if dir == Forward {
		return f.out[n.ID()]
	}
	return f.in[n.ID()]
}

// meetInto merges val into the fact that receives facts of node n in direction dir. It returns true if that fact
// changed.
func (f nodeFacts[S]) meetInto(n graph.Node, dir Direction, val S, meet func(a, b S) S) bool {
	target := f.in
	if dir == Backward {
		target = f.out
	}
	old := target[n.ID()]
	merged := meet(old.Clone(), val)
	if merged.Equal(old) {
		return false
	}
	target[n.ID()] = merged
	return true
}

func asNode(n graph.Node) *ir.Node {
	node, ok := n.(*ir.Node)
	if !ok {
		panic(fmt.Sprintf("node %v is not a control-flow graph node", n))
	}
	return node
}

func asEdge(e graph.Edge) *ir.Edge {
	edge, ok := e.(*ir.Edge)
	if !ok {
		panic(fmt.Sprintf("edge %v is not a control-flow graph edge", e))
	}
	return edge
}

// CFGSolver solves a CFGProblem over the control-flow graph of one procedure. It implements Problem.
type CFGSolver[S Lattice[S]] struct {
	client CFGProblem[S]
	solver *Solver
	facts  nodeFacts[S]
	graph  *ir.Graph
}

// NewCFGSolver returns a CFG adapter for the client
func NewCFGSolver[S Lattice[S]](logger *config.LogGroup, client CFGProblem[S]) *CFGSolver[S] {
	return &CFGSolver[S]{client: client, solver: NewSolver(logger)}
}

// Solve computes the fixed point of the client over cfg. It returns the OUT fact of the exit node for forward
// problems and the IN fact of the entry node for backward problems.
func (c *CFGSolver[S]) Solve(cfg *ir.Graph, proc ir.ProcID, dir Direction) S {
	c.graph = cfg
	if cfg.Len() == 0 || cfg.Entry(proc) == nil {
		return c.client.InitializeBottom()
	}
	c.solver.Solve(cfg, c, dir)
	if dir == Forward {
		return c.Out(cfg.Exit(proc)).Clone()
	}
	return c.In(cfg.Entry(proc)).Clone()
}

// Iterations returns the number of sweeps of the last solve
func (c *CFGSolver[S]) Iterations() int {
	return c.solver.Iterations()
}

// In returns the fact before the statements of n
func (c *CFGSolver[S]) In(n *ir.Node) S {
	return c.facts.in[n.ID()]
}

// Out returns the fact after the statements of n
func (c *CFGSolver[S]) Out(n *ir.Node) S {
	return c.facts.out[n.ID()]
}

// Initialize implements Problem
func (c *CFGSolver[S]) Initialize(g graph.Directed) {
	c.facts = newNodeFacts[S]()
	nodes := g.Nodes()
	for nodes.Next() {
		n := asNode(nodes.Node())
		c.facts.in[n.ID()] = c.client.InitializeNodeIn(n)
		c.facts.out[n.ID()] = c.client.InitializeNodeOut(n)
	}
}

// AtNode implements Problem
func (c *CFGSolver[S]) AtNode(n graph.Node, dir Direction) bool {
	return c.facts.transferNode(asNode(n), dir, c.client.Transfer, nil)
}

// AtEdge implements Problem
func (c *CFGSolver[S]) AtEdge(e graph.Edge, dir Direction) bool {
	if dir == Forward {
		return c.facts.meetInto(e.To(), dir, c.facts.source(e.From(), dir), c.client.Meet)
	}
	return c.facts.meetInto(e.From(), dir, c.facts.source(e.To(), dir), c.client.Meet)
}

// FinalizeNode implements Problem
func (c *CFGSolver[S]) FinalizeNode(graph.Node, Direction) {}

// FinalizeEdge implements Problem
func (c *CFGSolver[S]) FinalizeEdge(graph.Edge, Direction) {}
