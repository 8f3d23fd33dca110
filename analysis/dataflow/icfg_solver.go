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
	"github.com/awslabs/argot-activity/analysis/config"
	"github.com/awslabs/argot-activity/analysis/ir"
	"gonum.org/v1/gonum/graph"
)

// ICFGProblem is the client of the ICFG adapter. In addition to the CFG callbacks, it is called when facts cross
// procedure boundaries. The set argument of every callback is a private copy the client may mutate and return.
//
// The callee argument of CallToReturn is ir.NoProc when the call is unresolved: the client must then apply its
// conservative default, since no call and return edges exist for that call.
type ICFGProblem[S Lattice[S]] interface {
	CFGProblem[S]

	// EntryTransfer is applied at the entry node of proc
	EntryTransfer(proc ir.ProcID, s S) S
	// ExitTransfer is applied at the exit node of proc
	ExitTransfer(proc ir.ProcID, s S) S
	// CallerToCallee re-expresses s, a fact of caller at call site call, in the namespace of callee
	CallerToCallee(caller ir.ProcID, s S, call ir.CallID, callee ir.ProcID) S
	// CalleeToCaller re-expresses s, a fact of callee, in the namespace of caller at call site call
	CalleeToCaller(callee ir.ProcID, s S, call ir.CallID, caller ir.ProcID) S
	// CallToReturn computes what flows around the call, from the call site to the return site or backward
	CallToReturn(caller ir.ProcID, s S, call ir.CallID, callee ir.ProcID) S
}

// ICFGSolver solves an ICFGProblem over an interprocedural control-flow graph. It implements Problem.
//
// Edges are handled according to their kind and the direction:
//   - forward, the call edge sends the fact before the call statement through CallerToCallee, the return edge
//     sends the fact at the callee exit through CalleeToCaller and the call-to-return edge sends the fact after
//     the call statement through CallToReturn;
//   - backward, the call edge sends the fact at the callee entry through CalleeToCaller, the return edge sends
//     the fact at the return site through CallerToCallee and the call-to-return edge sends it through
//     CallToReturn.
type ICFGSolver[S Lattice[S]] struct {
	prog   *ir.Program
	client ICFGProblem[S]
	solver *Solver
	facts  nodeFacts[S]
}

// NewICFGSolver returns an ICFG adapter for the client
func NewICFGSolver[S Lattice[S]](logger *config.LogGroup, prog *ir.Program, client ICFGProblem[S]) *ICFGSolver[S] {
	return &ICFGSolver[S]{prog: prog, client: client, solver: NewSolver(logger)}
}

// Solve computes the fixed point of the client over icfg
func (c *ICFGSolver[S]) Solve(icfg *ir.Graph, dir Direction) {
	if icfg.Len() == 0 {
		c.facts = newNodeFacts[S]()
		return
	}
	c.solver.Solve(icfg, c, dir)
}

// Iterations returns the number of sweeps of the last solve
func (c *ICFGSolver[S]) Iterations() int {
	return c.solver.Iterations()
}

// In returns the fact before the statements of n
func (c *ICFGSolver[S]) In(n *ir.Node) S {
	return c.facts.in[n.ID()]
}

// Out returns the fact after the statements of n
func (c *ICFGSolver[S]) Out(n *ir.Node) S {
	return c.facts.out[n.ID()]
}

// Initialize implements Problem
func (c *ICFGSolver[S]) Initialize(g graph.Directed) {
	c.facts = newNodeFacts[S]()
	nodes := g.Nodes()
	for nodes.Next() {
		n := asNode(nodes.Node())
		c.facts.in[n.ID()] = c.client.InitializeNodeIn(n)
		c.facts.out[n.ID()] = c.client.InitializeNodeOut(n)
	}
}

// AtNode implements Problem
func (c *ICFGSolver[S]) AtNode(n graph.Node, dir Direction) bool {
	node := asNode(n)
	var boundary func(S) S
	switch node.Kind {
	case ir.EntryNode:
		boundary = func(s S) S { return c.client.EntryTransfer(node.Proc, s) }
	case ir.ExitNode:
		boundary = func(s S) S { return c.client.ExitTransfer(node.Proc, s) }
	}
	return c.facts.transferNode(node, dir, c.client.Transfer, boundary)
}

// firstCallee returns the callee passed to CallToReturn: the first callee, or ir.NoProc for unresolved calls
func (c *ICFGSolver[S]) firstCallee(call ir.CallID) ir.ProcID {
	if cs := c.prog.Call(call); cs.Resolved() {
		return cs.Callees[0]
	}
	return ir.NoProc
}

// AtEdge implements Problem
func (c *ICFGSolver[S]) AtEdge(e graph.Edge, dir Direction) bool {
	edge := asEdge(e)
	u, v := edge.Source(), edge.Target()
	if dir == Forward {
		var val S
		switch edge.Kind {
		case ir.CallEdge:
			val = c.client.CallerToCallee(u.Proc, c.facts.in[u.ID()].Clone(), edge.Call, v.Proc)
		case ir.ReturnEdge:
			val = c.client.CalleeToCaller(u.Proc, c.facts.out[u.ID()].Clone(), edge.Call, v.Proc)
		case ir.CallToReturnEdge:
			val = c.client.CallToReturn(u.Proc, c.facts.out[u.ID()].Clone(), edge.Call, c.firstCallee(edge.Call))
		default:
			val = c.facts.out[u.ID()]
		}
		return c.facts.meetInto(v, dir, val, c.client.Meet)
	}
	var val S
	switch edge.Kind {
	case ir.CallEdge:
		val = c.client.CalleeToCaller(v.Proc, c.facts.in[v.ID()].Clone(), edge.Call, u.Proc)
	case ir.ReturnEdge:
		val = c.client.CallerToCallee(v.Proc, c.facts.in[v.ID()].Clone(), edge.Call, u.Proc)
	case ir.CallToReturnEdge:
		val = c.client.CallToReturn(u.Proc, c.facts.in[v.ID()].Clone(), edge.Call, c.firstCallee(edge.Call))
	default:
		val = c.facts.in[v.ID()]
	}
	return c.facts.meetInto(u, dir, val, c.client.Meet)
}

// FinalizeNode implements Problem
func (c *ICFGSolver[S]) FinalizeNode(graph.Node, Direction) {}

// FinalizeEdge implements Problem
func (c *ICFGSolver[S]) FinalizeEdge(graph.Edge, Direction) {}
