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

package graphutil

import (
	"sort"

	"github.com/awslabs/argot-activity/analysis/ir"
	"github.com/yourbasic/graph"
)

// RecursiveProcedures returns the procedures that belong to a cycle of the call graph, in increasing order. A
// procedure calling itself directly is recursive.
func RecursiveProcedures(cg CGraph) []ir.ProcID {
	var res []ir.ProcID
	for _, component := range graph.StrongComponents(cg) {
		if len(component) >= 2 {
			for _, v := range component {
				res = append(res, ir.ProcID(v))
			}
		} else if len(component) == 1 && cg.Edges[int64(component[0])][int64(component[0])] {
			res = append(res, ir.ProcID(component[0]))
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}

// RecursionCycles returns the elementary cycles of the call graph that go through at least two procedures, in
// lexicographic order. Each cycle starts with its smallest procedure and does not repeat it at the end.
func RecursionCycles(cg CGraph) [][]ir.ProcID {
	var res [][]ir.ProcID
	for _, cycle := range FindAllElementaryCycles(cg) {
		procs := make([]ir.ProcID, 0, len(cycle)-1)
		for _, v := range cycle[:len(cycle)-1] {
			procs = append(procs, ir.ProcID(v))
		}
		res = append(res, procs)
	}
	sort.Slice(res, func(i, j int) bool {
		a, b := res[i], res[j]
		for k := 0; k < len(a) && k < len(b); k++ {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return len(a) < len(b)
	})
	return res
}

// FindAllElementaryCycles finds all elementary cycles of length at least two in the graph CGraph
// This uses Donald B. Johnson's algorithm presented in
// "Finding All The Elementary Circuits of a Directed Graph", 1975
//
//	cg : the graph with cycles
func FindAllElementaryCycles(cg CGraph) [][]int64 {
	s := &cycleState{
		blocked: map[int64]bool{},
		blist:   map[int64]map[int64]bool{},
	}
	start := 0
	for start < len(cg.Keys) {
		fg := Subgraph(cg, cg.Keys[start:])
		least := -1
		for _, component := range graph.StrongComponents(fg) {
			if len(component) < 2 {
				continue
			}
			for _, v := range component {
				if least < 0 || v < least {
					least = v
				}
			}
		}
		if least < 0 {
			break
		}
		// restrict to the nodes from the least node of a non-trivial component onwards
		sub := Subgraph(cg, keysFrom(cg.Keys, int64(least)))
		s.stack = nil
		s.blocked = map[int64]bool{}
		s.blist = map[int64]map[int64]bool{}
		s.circuit(int64(least), int64(least), sub)
		start = sort.Search(len(cg.Keys), func(i int) bool { return cg.Keys[i] > int64(least) })
	}
	return s.cycles
}

func keysFrom(keys []int64, k int64) []int64 {
	i := sort.Search(len(keys), func(i int) bool { return keys[i] >= k })
	return keys[i:]
}

type cycleState struct {
	blocked map[int64]bool
	blist   map[int64]map[int64]bool
	stack   []int64
	cycles  [][]int64
}

func (s *cycleState) unblock(u int64) {
	s.blocked[u] = false
	for w := range s.blist[u] {
		delete(s.blist[u], w)
		if s.blocked[w] {
			s.unblock(w)
		}
	}
}

func (s *cycleState) circuit(v int64, start int64, g CGraph) bool {
	found := false
	s.stack = append(s.stack, v)
	s.blocked[v] = true
	for w := range g.Edges[v] {
		if w == start {
			if len(s.stack) >= 2 {
				cycle := append(append([]int64(nil), s.stack...), w)
				s.cycles = append(s.cycles, cycle)
			}
			found = true
		} else if !s.blocked[w] {
			if s.circuit(w, start, g) {
				found = true
			}
		}
	}
	if found {
		s.unblock(v)
	} else {
		for w := range g.Edges[v] {
			if s.blist[w] == nil {
				s.blist[w] = map[int64]bool{}
			}
			s.blist[w][v] = true
		}
	}
	s.stack = s.stack[:len(s.stack)-1]
	return found
}
