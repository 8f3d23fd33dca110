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

package ir

// NewCFG returns the control-flow graph of one procedure: an entry node, one body node per block and an exit node.
// Blocks without successors flow to the exit node.
func NewCFG(prog *Program, proc ProcID) *Graph {
	g := newGraph()
	p := prog.Procedure(proc)
	entry := g.addNode(EntryNode, proc, nil, NoCall)
	g.entry[proc] = entry
	blocks := make([]*Node, len(p.Blocks))
	for i, b := range p.Blocks {
		blocks[i] = g.addNode(BodyNode, proc, b.Stmts, NoCall)
	}
	exit := g.addNode(ExitNode, proc, nil, NoCall)
	g.exit[proc] = exit
	if len(blocks) == 0 {
		g.addEdge(entry, exit, FlowEdge, NoCall)
		return g
	}
	g.addEdge(entry, blocks[0], FlowEdge, NoCall)
	for i, b := range p.Blocks {
		for _, succ := range b.Succs {
			g.addEdge(blocks[i], blocks[succ], FlowEdge, NoCall)
		}
		if len(b.Succs) == 0 {
			g.addEdge(blocks[i], exit, FlowEdge, NoCall)
		}
	}
	return g
}

// NewICFG returns the interprocedural control-flow graph of the program. Blocks are split at statements containing
// call sites: such a statement gets its own call site node, followed by a return site node. Call site nodes are
// linked to the entries of the callees, and the exits of the callees to the return site nodes. Every call site node
// is linked to its return site node, which is the only path for unresolved calls.
func NewICFG(prog *Program) *Graph {
	g := newGraph()
	spans := make([][]blockSpan, prog.NumProcedures())

	for _, p := range prog.Procedures() {
		g.entry[p.ID] = g.addNode(EntryNode, p.ID, nil, NoCall)
		g.exit[p.ID] = g.addNode(ExitNode, p.ID, nil, NoCall)
		spans[p.ID] = make([]blockSpan, len(p.Blocks))
		for i, b := range p.Blocks {
			spans[p.ID][i] = g.splitBlock(prog, p.ID, b)
		}
	}

	for _, p := range prog.Procedures() {
		entry, exit := g.entry[p.ID], g.exit[p.ID]
		if len(p.Blocks) == 0 {
			g.addEdge(entry, exit, FlowEdge, NoCall)
			continue
		}
		g.addEdge(entry, spans[p.ID][0].head, FlowEdge, NoCall)
		for i, b := range p.Blocks {
			for _, succ := range b.Succs {
				g.addEdge(spans[p.ID][i].tail, spans[p.ID][succ].head, FlowEdge, NoCall)
			}
			if len(b.Succs) == 0 {
				g.addEdge(spans[p.ID][i].tail, exit, FlowEdge, NoCall)
			}
		}
	}

	for _, c := range prog.Calls() {
		call, ret := g.callMap[c.ID], g.retMap[c.ID]
		if call == nil {
			continue
		}
		for _, callee := range c.Callees {
			g.addEdge(call, g.entry[callee], CallEdge, c.ID)
			g.addEdge(g.exit[callee], ret, ReturnEdge, c.ID)
		}
	}
	return g
}

// blockSpan is the first and last node of a block in an ICFG
type blockSpan struct {
	head *Node
	tail *Node
}

// splitBlock adds the nodes of block b and the flow edges between them, and returns the first and last nodes.
func (g *Graph) splitBlock(prog *Program, proc ProcID, b *Block) (sp blockSpan) {
	cur := g.addNode(BodyNode, proc, nil, NoCall)
	sp.head = cur
	for i, s := range b.Stmts {
		stmt := prog.Stmt(s)
		if stmt.Call == NoCall {
			cur.Stmts = append(cur.Stmts, s)
			g.stmtMap[s] = cur
			continue
		}
		call := g.addNode(CallSiteNode, proc, []StmtID{s}, stmt.Call)
		ret := g.addNode(ReturnSiteNode, proc, nil, stmt.Call)
		g.callMap[stmt.Call] = call
		g.retMap[stmt.Call] = ret
		g.addEdge(cur, call, FlowEdge, NoCall)
		g.addEdge(call, ret, CallToReturnEdge, stmt.Call)
		cur = ret
		if i < len(b.Stmts)-1 {
			next := g.addNode(BodyNode, proc, nil, NoCall)
			g.addEdge(cur, next, FlowEdge, NoCall)
			cur = next
		}
	}
	sp.tail = cur
	return sp
}
