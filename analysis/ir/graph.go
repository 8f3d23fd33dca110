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

import (
	"fmt"

	"gonum.org/v1/gonum/graph"
)

// NodeKind is the kind of a node of a control-flow graph
type NodeKind int

const (
	// EntryNode is the distinguished entry node of a procedure
	EntryNode NodeKind = iota
	// ExitNode is the distinguished exit node of a procedure
	ExitNode
	// BodyNode holds a sequence of statements without calls (in an ICFG) or a whole block (in a CFG)
	BodyNode
	// CallSiteNode holds the statement containing a call site
	CallSiteNode
	// ReturnSiteNode is where control returns after a call. It holds no statement.
	ReturnSiteNode
)

func (k NodeKind) String() string {
	return [...]string{"entry", "exit", "body", "call", "return"}[k]
}

// EdgeKind is the kind of an edge of a control-flow graph
type EdgeKind int

const (
	// FlowEdge is an intraprocedural control-flow edge
	FlowEdge EdgeKind = iota
	// CallEdge goes from a call site node to the entry of a callee
	CallEdge
	// ReturnEdge goes from the exit of a callee to the return site of the call
	ReturnEdge
	// CallToReturnEdge goes from a call site node to its return site node
	CallToReturnEdge
)

func (k EdgeKind) String() string {
	return [...]string{"flow", "call", "return", "call-to-return"}[k]
}

// Node is a node of a CFG or ICFG. It implements gonum's graph.Node.
type Node struct {
	id    int64
	Kind  NodeKind
	Proc  ProcID
	Stmts []StmtID
	// Call is the call site of call and return site nodes, NoCall otherwise
	Call CallID
}

// ID implements graph.Node
func (n *Node) ID() int64 { return n.id }

func (n *Node) String() string {
	return fmt.Sprintf("%s#%d(proc %d)", n.Kind, n.id, n.Proc)
}

// Edge is an edge of a CFG or ICFG. It implements gonum's graph.Edge.
type Edge struct {
	from *Node
	to   *Node
	Kind EdgeKind
	// Call is the call site of call, return and call-to-return edges, NoCall otherwise
	Call CallID
}

// From returns the origin of the edge
func (e *Edge) From() graph.Node { return e.from }

// To returns the destination of the edge
func (e *Edge) To() graph.Node { return e.to }

// ReversedEdge returns a new value representing the reversed edge
func (e *Edge) ReversedEdge() graph.Edge {
	return &Edge{from: e.to, to: e.from, Kind: e.Kind, Call: e.Call}
}

// Source returns the origin node of the edge
func (e *Edge) Source() *Node { return e.from }

// Target returns the destination node of the edge
func (e *Edge) Target() *Node { return e.to }

func (e *Edge) String() string {
	return fmt.Sprintf("%d -%s-> %d", e.from.id, e.Kind, e.to.id)
}

// Graph is a control-flow graph, either of one procedure or of the whole program. It implements gonum's
// graph.Directed. Iteration orders are deterministic: nodes by id, edges by insertion order.
type Graph struct {
	nodes   []*Node
	out     map[int64][]*Edge
	in      map[int64][]*Edge
	edges   map[[2]int64]*Edge
	entry   map[ProcID]*Node
	exit    map[ProcID]*Node
	stmtMap map[StmtID]*Node
	callMap map[CallID]*Node
	retMap  map[CallID]*Node
}

func newGraph() *Graph {
	return &Graph{
		out:     map[int64][]*Edge{},
		in:      map[int64][]*Edge{},
		edges:   map[[2]int64]*Edge{},
		entry:   map[ProcID]*Node{},
		exit:    map[ProcID]*Node{},
		stmtMap: map[StmtID]*Node{},
		callMap: map[CallID]*Node{},
		retMap:  map[CallID]*Node{},
	}
}

func (g *Graph) addNode(kind NodeKind, proc ProcID, stmts []StmtID, call CallID) *Node {
	n := &Node{id: int64(len(g.nodes)), Kind: kind, Proc: proc, Stmts: stmts, Call: call}
	g.nodes = append(g.nodes, n)
	for _, s := range stmts {
		g.stmtMap[s] = n
	}
	return n
}

// addEdge adds the edge u -> v. There is at most one edge between two nodes; the first one added is kept.
func (g *Graph) addEdge(u, v *Node, kind EdgeKind, call CallID) {
	key := [2]int64{u.id, v.id}
	if _, ok := g.edges[key]; ok {
		return
	}
	e := &Edge{from: u, to: v, Kind: kind, Call: call}
	g.edges[key] = e
	g.out[u.id] = append(g.out[u.id], e)
	g.in[v.id] = append(g.in[v.id], e)
}

// *************** Graph interface implementation **********************

// Node implements the graph.Graph interface. It returns nil if the node does not exist.
func (g *Graph) Node(id int64) graph.Node {
	if id < 0 || id >= int64(len(g.nodes)) {
		return nil
	}
	return g.nodes[id]
}

// Nodes returns the set of nodes in the graph
func (g *Graph) Nodes() graph.Nodes {
	return &NodeSet{nodes: g.nodes, cur: -1}
}

// From returns the successors of the node id
func (g *Graph) From(id int64) graph.Nodes {
	es := g.out[id]
	nodes := make([]*Node, len(es))
	for i, e := range es {
		nodes[i] = e.to
	}
	return &NodeSet{nodes: nodes, cur: -1}
}

// To returns the predecessors of the node id
func (g *Graph) To(id int64) graph.Nodes {
	es := g.in[id]
	nodes := make([]*Node, len(es))
	for i, e := range es {
		nodes[i] = e.from
	}
	return &NodeSet{nodes: nodes, cur: -1}
}

// HasEdgeBetween returns a boolean indicating whether an edge exists between the two node identifiers
func (g *Graph) HasEdgeBetween(xid, yid int64) bool {
	return g.HasEdgeFromTo(xid, yid) || g.HasEdgeFromTo(yid, xid)
}

// HasEdgeFromTo returns whether an edge exists from u to v
func (g *Graph) HasEdgeFromTo(uid, vid int64) bool {
	_, ok := g.edges[[2]int64{uid, vid}]
	return ok
}

// Edge returns the edge between the two identifiers (nil if none exists)
func (g *Graph) Edge(uid, vid int64) graph.Edge {
	if e, ok := g.edges[[2]int64{uid, vid}]; ok {
		return e
	}
	return nil
}

// *************** Typed accessors **********************

// NodeList returns the nodes in id order
func (g *Graph) NodeList() []*Node { return g.nodes }

// Len returns the number of nodes
func (g *Graph) Len() int { return len(g.nodes) }

// NumEdges returns the number of edges
func (g *Graph) NumEdges() int { return len(g.edges) }

// OutEdges returns the edges leaving n
func (g *Graph) OutEdges(n *Node) []*Edge { return g.out[n.id] }

// InEdges returns the edges entering n
func (g *Graph) InEdges(n *Node) []*Edge { return g.in[n.id] }

// EdgeList returns all the edges, grouped by origin node
func (g *Graph) EdgeList() []*Edge {
	var es []*Edge
	for _, n := range g.nodes {
		es = append(es, g.out[n.id]...)
	}
	return es
}

// Entry returns the entry node of the procedure, or nil if the procedure is not in the graph
func (g *Graph) Entry(p ProcID) *Node { return g.entry[p] }

// Exit returns the exit node of the procedure, or nil if the procedure is not in the graph
func (g *Graph) Exit(p ProcID) *Node { return g.exit[p] }

// NodeOf returns the node containing the statement
func (g *Graph) NodeOf(s StmtID) *Node { return g.stmtMap[s] }

// CallNodeOf returns the call site node of the call, in an ICFG
func (g *Graph) CallNodeOf(c CallID) *Node { return g.callMap[c] }

// ReturnNodeOf returns the return site node of the call, in an ICFG
func (g *Graph) ReturnNodeOf(c CallID) *Node { return g.retMap[c] }

// *************** Nodes implementation **********************

// NodeSet implements the graph.Nodes interface, an iterator over a sequence of nodes
type NodeSet struct {
	nodes []*Node
	// cur is the index of the current node; -1 before the first call to Next
	cur int
}

// Next moves the current node to the next, and returns true if such a node exists.
func (ns *NodeSet) Next() bool {
	if ns.cur < len(ns.nodes)-1 {
		ns.cur++
		return true
	}
	ns.cur = len(ns.nodes)
	return false
}

// Len returns the number of remaining nodes
func (ns *NodeSet) Len() int {
	if ns.cur >= len(ns.nodes) {
		return 0
	}
	return len(ns.nodes) - ns.cur - 1
}

// Reset restarts the iteration
func (ns *NodeSet) Reset() {
	ns.cur = -1
}

// Node returns the current node, or nil when the iterator is not positioned on a node
func (ns *NodeSet) Node() graph.Node {
	if ns.cur < 0 || ns.cur >= len(ns.nodes) {
		return nil
	}
	return ns.nodes[ns.cur]
}
