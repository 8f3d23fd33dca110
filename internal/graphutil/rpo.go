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

	"github.com/awslabs/argot-activity/internal/funcutil"
	"gonum.org/v1/gonum/graph"
)

// SortedNodes returns the nodes of the iterator in increasing id order
func SortedNodes(it graph.Nodes) []graph.Node {
	var nodes []graph.Node
	for it.Next() {
		nodes = append(nodes, it.Node())
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID() < nodes[j].ID() })
	return nodes
}

// ReversePostorder returns the nodes of g in reverse post-order of a depth-first traversal. When backward is true,
// the edges of g are followed in reverse.
// The traversal starts from the nodes without incoming edges (in the chosen orientation), in id order, and then
// from the remaining unvisited nodes in id order, so every node appears exactly once.
func ReversePostorder(g graph.Directed, backward bool) []graph.Node {
	succs := func(n graph.Node) []graph.Node {
		if backward {
			return SortedNodes(g.To(n.ID()))
		}
		return SortedNodes(g.From(n.ID()))
	}
	hasPreds := func(n graph.Node) bool {
		if backward {
			return g.From(n.ID()).Len() > 0
		}
		return g.To(n.ID()).Len() > 0
	}

	all := SortedNodes(g.Nodes())
	visited := make(map[int64]bool, len(all))
	post := make([]graph.Node, 0, len(all))

	type frame struct {
		node  graph.Node
		succs []graph.Node
		next  int
	}
	visit := func(root graph.Node) {
		visited[root.ID()] = true
		stack := []*frame{{node: root, succs: succs(root)}}
		for len(stack) > 0 {
			top := stack[len(stack)-1]
			if top.next < len(top.succs) {
				s := top.succs[top.next]
				top.next++
				if !visited[s.ID()] {
					visited[s.ID()] = true
					stack = append(stack, &frame{node: s, succs: succs(s)})
				}
				continue
			}
			post = append(post, top.node)
			stack = stack[:len(stack)-1]
		}
	}
	for _, n := range all {
		if !visited[n.ID()] && !hasPreds(n) {
			visit(n)
		}
	}
	for _, n := range all {
		if !visited[n.ID()] {
			visit(n)
		}
	}
	funcutil.Reverse(post)
	return post
}
