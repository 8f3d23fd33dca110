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
	"github.com/awslabs/argot-activity/internal/graphutil"
	"gonum.org/v1/gonum/graph"
)

// Direction is the orientation in which the solver follows the edges of a graph
type Direction int

const (
	// Forward follows the edges as given
	Forward Direction = iota
	// Backward follows the edges reversed
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// Problem is a dataflow problem the Solver computes a fixed point of. The problem owns the facts; the solver only
// schedules the calls.
type Problem interface {
	// Initialize is called once before the first sweep
	Initialize(g graph.Directed)

	// AtNode updates the facts of node n and returns true if they changed
	AtNode(n graph.Node, dir Direction) bool

	// AtEdge propagates facts along edge e (given in the orientation of the graph) and returns true if the facts
	// of its target in the direction dir changed
	AtEdge(e graph.Edge, dir Direction) bool

	// FinalizeNode is called once per node after the fixed point is reached
	FinalizeNode(n graph.Node, dir Direction)

	// FinalizeEdge is called once per edge after the fixed point is reached
	FinalizeEdge(e graph.Edge, dir Direction)
}

// Solver is a round-robin iterative solver. It does not detect non-termination: a problem whose facts are not
// monotone over a finite-height lattice makes it loop forever.
type Solver struct {
	logger     *config.LogGroup
	iterations int
}

// NewSolver returns a solver logging to logger
func NewSolver(logger *config.LogGroup) *Solver {
	return &Solver{logger: config.OrDefault(logger)}
}

// Iterations returns the number of sweeps performed by the last call to Solve
func (s *Solver) Iterations() int {
	return s.iterations
}

// Solve computes the fixed point of p over g in the direction dir.
func (s *Solver) Solve(g graph.Directed, p Problem, dir Direction) {
	p.Initialize(g)
	order := graphutil.ReversePostorder(g, dir == Backward)
	incident := make([][]graph.Edge, len(order))
	for i, n := range order {
		incident[i] = incidentEdges(g, n, dir)
	}

	s.iterations = 0
	for changed := true; changed; {
		changed = false
		s.iterations++
		for i, n := range order {
			if p.AtNode(n, dir) {
				changed = true
			}
			for _, e := range incident[i] {
				if p.AtEdge(e, dir) {
					changed = true
				}
			}
		}
		s.logger.Tracef("%s sweep %d over %d nodes, changed: %t\n", dir, s.iterations, len(order), changed)
	}
	s.logger.Debugf("%s solve converged after %d sweeps\n", dir, s.iterations)

	for _, n := range order {
		p.FinalizeNode(n, dir)
	}
	for i := range order {
		for _, e := range incident[i] {
			p.FinalizeEdge(e, dir)
		}
	}
}

// incidentEdges returns the edges leaving n in the direction dir, in the orientation of the graph and in order of
// the ids of the neighbours
func incidentEdges(g graph.Directed, n graph.Node, dir Direction) []graph.Edge {
	var edges []graph.Edge
	if dir == Forward {
		for _, m := range graphutil.SortedNodes(g.From(n.ID())) {
			edges = append(edges, g.Edge(n.ID(), m.ID()))
		}
	} else {
		for _, m := range graphutil.SortedNodes(g.To(n.ID())) {
			edges = append(edges, g.Edge(m.ID(), n.ID()))
		}
	}
	return edges
}
