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

package graphutil_test

import (
	"sort"
	"testing"

	"github.com/awslabs/argot-activity/analysis/ir"
	"github.com/awslabs/argot-activity/internal/graphutil"
	"github.com/google/go-cmp/cmp"
	"github.com/yourbasic/graph"
	"gonum.org/v1/gonum/graph/simple"
)

// callProgram builds a program whose call graph has the given edges between n procedures
func callProgram(t *testing.T, n int, edges [][2]int) *ir.Program {
	b := ir.NewBuilder()
	for i := 0; i < n; i++ {
		b.Procedure(string(rune('a' + i)))
	}
	for _, e := range edges {
		b.Call(ir.ProcID(e[0]), 0, []ir.ProcID{ir.ProcID(e[1])}, nil, nil)
	}
	prog, err := b.Build()
	if err != nil {
		t.Fatalf("failed to build program: %v", err)
	}
	return prog
}

func TestRecursiveProcedures(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		edges [][2]int
		want  []ir.ProcID
	}{
		{"no recursion", 3, [][2]int{{0, 1}, {1, 2}}, nil},
		{"self recursion", 3, [][2]int{{0, 1}, {1, 1}}, []ir.ProcID{1}},
		{"mutual recursion", 4, [][2]int{{0, 1}, {1, 2}, {2, 1}, {2, 3}}, []ir.ProcID{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cg := graphutil.NewCallgraphIterator(ir.NewCallGraph(callProgram(t, tt.n, tt.edges)))
			if diff := cmp.Diff(tt.want, graphutil.RecursiveProcedures(cg)); diff != "" {
				t.Errorf("recursive procedures mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFindAllElementaryCycles(t *testing.T) {
	// 0 -> 1 -> 2 -> 0, 1 -> 3 -> 1, 2 -> 2
	prog := callProgram(t, 4, [][2]int{{0, 1}, {1, 2}, {2, 0}, {1, 3}, {3, 1}, {2, 2}})
	iterator := graphutil.NewCallgraphIterator(ir.NewCallGraph(prog))
	stats := graph.Check(iterator)
	if stats.Size != 6 || stats.Loops != 1 {
		t.Errorf("unexpected graph statistics: size %d, loops %d", stats.Size, stats.Loops)
	}
	cycles := graphutil.FindAllElementaryCycles(iterator)
	var got []string
	for _, c := range cycles {
		s := ""
		for _, x := range c {
			s += string(rune('0' + x))
		}
		got = append(got, s)
	}
	sort.Strings(got)
	if diff := cmp.Diff([]string{"0120", "131"}, got); diff != "" {
		t.Errorf("cycles mismatch (-want +got):\n%s", diff)
	}
}

func TestRecursionCycles(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		edges [][2]int
		want  [][]ir.ProcID
	}{
		{"no recursion", 3, [][2]int{{0, 1}, {1, 2}}, nil},
		{"self recursion only", 2, [][2]int{{0, 1}, {1, 1}}, nil},
		{"two cycles", 4, [][2]int{{0, 1}, {1, 2}, {2, 0}, {1, 3}, {3, 1}, {2, 2}},
			[][]ir.ProcID{{0, 1, 2}, {1, 3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cg := graphutil.NewCallgraphIterator(ir.NewCallGraph(callProgram(t, tt.n, tt.edges)))
			if diff := cmp.Diff(tt.want, graphutil.RecursionCycles(cg)); diff != "" {
				t.Errorf("cycles mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCGraphImplementsGonumGraph(t *testing.T) {
	prog := callProgram(t, 3, [][2]int{{0, 1}, {0, 2}})
	cg := graphutil.NewCallgraphIterator(ir.NewCallGraph(prog))
	if cg.Node(5) != nil {
		t.Errorf("Node should return nil for an absent id")
	}
	if !cg.HasEdgeBetween(1, 0) || cg.Edge(1, 0) != nil || cg.Edge(0, 1) == nil {
		t.Errorf("unexpected edges")
	}
	if n := len(graphutil.SortedNodes(cg.From(0))); n != 2 {
		t.Errorf("expected 2 callees, got %d", n)
	}
}

func TestReversePostorder(t *testing.T) {
	// diamond 0 -> {1, 2} -> 3 and an isolated cycle 4 <-> 5
	g := simple.NewDirectedGraph()
	for _, e := range [][2]int64{{0, 1}, {0, 2}, {1, 3}, {2, 3}, {4, 5}, {5, 4}} {
		g.SetEdge(g.NewEdge(simple.Node(e[0]), simple.Node(e[1])))
	}
	tests := []struct {
		name     string
		backward bool
		check    func(pos map[int64]int) bool
	}{
		{"forward", false, func(pos map[int64]int) bool {
			return pos[0] < pos[1] && pos[0] < pos[2] && pos[1] < pos[3] && pos[2] < pos[3]
		}},
		{"backward", true, func(pos map[int64]int) bool {
			return pos[3] < pos[1] && pos[3] < pos[2] && pos[1] < pos[0] && pos[2] < pos[0]
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := graphutil.ReversePostorder(g, tt.backward)
			if len(order) != 6 {
				t.Fatalf("expected every node once, got %d nodes", len(order))
			}
			pos := map[int64]int{}
			for i, n := range order {
				if _, dup := pos[n.ID()]; dup {
					t.Fatalf("node %d appears twice", n.ID())
				}
				pos[n.ID()] = i
			}
			if !tt.check(pos) {
				t.Errorf("order %v is not a reverse post-order", order)
			}
		})
	}
}
