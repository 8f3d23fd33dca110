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

/*
The dataflow package implements the generic iterative dataflow solver and its two adapters.

The [Solver] computes a fixed point of a [Problem] over any gonum graph.Directed, following the edges forward or
backward. Nodes are visited in reverse post-order, and sweeps are repeated until no node or edge reports a change.

The [CFGSolver] specializes the solver to the control-flow graph of one procedure, with a client [CFGProblem] over a
single lattice type. The [ICFGSolver] does the same for the interprocedural control-flow graph, and additionally
calls the [ICFGProblem] callbacks when facts cross procedure boundaries. Clients translating location sets between
the namespaces of callers and callees use a [Translator]:

	t := dataflow.NewTranslator(prog, aliases, bindings)
	inCallee := t.CallerToCallee(set, call, callee, dataflow.AtEntry)

Facts are owned by the node that stores them: the adapters always hand a private copy to Meet and Transfer.
*/
package dataflow
