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

import "github.com/awslabs/argot-activity/internal/funcutil"

// CallGraph is the call graph induced by the resolved call sites of a program
type CallGraph struct {
	n       int
	callees map[ProcID][]ProcID
	callers map[ProcID][]ProcID
}

// NewCallGraph returns the call graph of the program
func NewCallGraph(prog *Program) *CallGraph {
	cg := &CallGraph{
		n:       prog.NumProcedures(),
		callees: map[ProcID][]ProcID{},
		callers: map[ProcID][]ProcID{},
	}
	for _, c := range prog.Calls() {
		for _, callee := range c.Callees {
			if !funcutil.Contains(cg.callees[c.Proc], callee) {
				cg.callees[c.Proc] = append(cg.callees[c.Proc], callee)
				cg.callers[callee] = append(cg.callers[callee], c.Proc)
			}
		}
	}
	return cg
}

// NumProcedures returns the number of procedures in the call graph
func (cg *CallGraph) NumProcedures() int { return cg.n }

// Callees returns the procedures p may call
func (cg *CallGraph) Callees(p ProcID) []ProcID { return cg.callees[p] }

// Callers returns the procedures that may call p
func (cg *CallGraph) Callers(p ProcID) []ProcID { return cg.callers[p] }

// Roots returns the procedures that have no callers, in id order
func (cg *CallGraph) Roots() []ProcID {
	var roots []ProcID
	for p := 0; p < cg.n; p++ {
		if len(cg.callers[ProcID(p)]) == 0 {
			roots = append(roots, ProcID(p))
		}
	}
	return roots
}
