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

package dep

import (
	"fmt"
	"strings"
	"time"

	"github.com/awslabs/argot-activity/analysis/alias"
	"github.com/awslabs/argot-activity/analysis/config"
	"github.com/awslabs/argot-activity/analysis/dataflow"
	"github.com/awslabs/argot-activity/analysis/ir"
	"github.com/awslabs/argot-activity/analysis/loc"
	"github.com/awslabs/argot-activity/internal/funcutil"
)

// ICFGDep is the result of the Dep analysis: the dependence set and the must-defined locations of every reachable
// statement. Queries for statements the analysis did not reach return empty results.
type ICFGDep struct {
	arena      *loc.Arena
	deps       map[ir.StmtID]*DepDFSet
	mustDefs   map[ir.StmtID]*loc.Set
	procOf     map[ir.StmtID]ir.ProcID
	iterations int
}

// DepSet returns the dependence set of stmt. The set of a statement that was not reached only has implicit
// dependences.
func (r *ICFGDep) DepSet(stmt ir.StmtID) *DepDFSet {
	if d, ok := r.deps[stmt]; ok {
		return d
	}
	return NewDepDFSet()
}

// MustDefs returns the locations stmt must define
func (r *ICFGDep) MustDefs(stmt ir.StmtID) []loc.Handle {
	if s, ok := r.mustDefs[stmt]; ok {
		return s.Handles()
	}
	return nil
}

// ProcOf returns the procedure of a reached statement, and false if the statement was not reached
func (r *ICFGDep) ProcOf(stmt ir.StmtID) (ir.ProcID, bool) {
	p, ok := r.procOf[stmt]
	return p, ok
}

// DefsOf returns the locations that may depend on use at stmt
func (r *ICFGDep) DefsOf(stmt ir.StmtID, use loc.Handle) []loc.Handle {
	return r.DepSet(stmt).DefsOf(use)
}

// UsesOf returns the locations def may depend on at stmt
func (r *ICFGDep) UsesOf(stmt ir.StmtID, def loc.Handle) []loc.Handle {
	return r.DepSet(stmt).UsesOf(def)
}

// MayDefs returns the locations that may be defined at stmt as a function of l
func (r *ICFGDep) MayDefs(stmt ir.StmtID, l loc.Handle) *loc.Set {
	return r.DepSet(stmt).MayDefs(r.arena, l)
}

// DiffUses returns the locations that may contribute to the value of l after stmt
func (r *ICFGDep) DiffUses(stmt ir.StmtID, l loc.Handle) *loc.Set {
	return r.DepSet(stmt).DiffUses(r.arena, l)
}

// Stmts returns the reached statements in increasing order
func (r *ICFGDep) Stmts() []ir.StmtID {
	return funcutil.SortedKeys(r.deps)
}

// Iterations returns the number of sweeps of the solver
func (r *ICFGDep) Iterations() int {
	return r.iterations
}

// Arena returns the arena of the locations of the result
func (r *ICFGDep) Arena() *loc.Arena {
	return r.arena
}

// String returns the dependence sets of all reached statements
func (r *ICFGDep) String(prog *ir.Program) string {
	var b strings.Builder
	for _, s := range r.Stmts() {
		fmt.Fprintf(&b, "%s: %s\n", prog.StmtString(s), r.deps[s].String(r.arena, prog))
	}
	return b.String()
}

// Manager runs the Dep analysis
type Manager struct {
	logger *config.LogGroup
}

// NewManager returns a Dep manager logging to logger
func NewManager(logger *config.LogGroup) *Manager {
	return &Manager{logger: config.OrDefault(logger)}
}

// PerformAnalysis computes the dependence sets of every statement reachable in icfg from the entry of a procedure.
//
// The interprocedural effects of calls are not part of the dependence set of the call statement: only the results
// of the call depend on the actual arguments that are not passed by reference. The Useful and Vary analyses
// account for the callees when crossing call edges.
func (m *Manager) PerformAnalysis(prog *ir.Program, icfg *ir.Graph, aliases alias.Results,
	bindings ir.ParamBindings) *ICFGDep {
	start := time.Now()
	res := &ICFGDep{
		arena:    aliases.Arena(),
		deps:     map[ir.StmtID]*DepDFSet{},
		mustDefs: map[ir.StmtID]*loc.Set{},
		procOf:   map[ir.StmtID]ir.ProcID{},
	}
	p := &depProblem{prog: prog, aliases: aliases, bindings: bindings, res: res}
	solver := dataflow.NewICFGSolver[reached](m.logger, prog, p)
	solver.Solve(icfg, dataflow.Forward)
	res.iterations = solver.Iterations()
	m.logger.Debugf("dep: %d statements reached in %d sweeps (%.2f s)\n",
		len(res.deps), res.iterations, time.Since(start).Seconds())
	if m.logger.LogsTrace() {
		m.logger.Tracef("dep sets:\n%s", res.String(prog))
	}
	return res
}

// reached is the lattice of the Dep solve: whether a program point is reachable
type reached bool

func (r reached) Clone() reached        { return r }
func (r reached) Equal(o reached) bool { return r == o }

// depProblem builds the dependence set of each statement the first time it is reached
type depProblem struct {
	prog     *ir.Program
	aliases  alias.Results
	bindings ir.ParamBindings
	res      *ICFGDep
}

func (p *depProblem) InitializeTop() reached    { return false }
func (p *depProblem) InitializeBottom() reached { return false }

func (p *depProblem) InitializeNodeIn(n *ir.Node) reached {
	return n.Kind == ir.EntryNode
}

func (p *depProblem) InitializeNodeOut(*ir.Node) reached { return false }

func (p *depProblem) Meet(a, b reached) reached { return a || b }

// EntryTransfer makes every procedure entry reachable: each procedure may be analyzed on its own.
func (p *depProblem) EntryTransfer(ir.ProcID, reached) reached { return true }

func (p *depProblem) ExitTransfer(_ ir.ProcID, s reached) reached { return s }

func (p *depProblem) CallerToCallee(_ ir.ProcID, s reached, _ ir.CallID, _ ir.ProcID) reached { return s }

func (p *depProblem) CalleeToCaller(_ ir.ProcID, s reached, _ ir.CallID, _ ir.ProcID) reached { return s }

func (p *depProblem) CallToReturn(_ ir.ProcID, s reached, _ ir.CallID, _ ir.ProcID) reached { return s }

func (p *depProblem) Transfer(s reached, stmt ir.StmtID) reached {
	if !s {
		return s
	}
	if _, done := p.res.deps[stmt]; !done {
		p.process(p.prog.Stmt(stmt))
	}
	return s
}

// process computes the dependence set of one statement
func (p *depProblem) process(stmt *ir.Stmt) {
	d := NewDepDFSet()
	must := loc.NewSet()
	arena := p.aliases.Arena()

	for _, def := range stmt.Defs {
		for _, h := range p.aliases.MustLocs(def) {
			if arena.FullAccuracy(h) {
				must.Insert(h)
				d.RemoveImplicitDep(h, h)
			}
		}
	}

	pairDefs := map[ir.MemRefID]bool{}
	for _, pair := range stmt.Pairs {
		pairDefs[pair.Target] = true
		uses := p.diffUses(stmt, pair.Source)
		for _, def := range p.aliases.MayLocs(pair.Target) {
			for _, use := range uses {
				d.InsertDep(use, def)
			}
		}
	}

	if len(stmt.Loose) > 0 {
		var uses []loc.Handle
		for _, m := range stmt.Loose {
			uses = append(uses, p.aliases.MayLocs(m)...)
		}
		for _, def := range stmt.Defs {
			if pairDefs[def] {
				continue
			}
			for _, h := range p.aliases.MayLocs(def) {
				for _, use := range uses {
					d.InsertDep(use, h)
				}
			}
		}
	}

	p.res.deps[stmt.ID] = d
	p.res.mustDefs[stmt.ID] = must
	p.res.procOf[stmt.ID] = stmt.Proc
}

// diffUses returns the differentiable use locations of an assignment source. The source of a call result is the
// set of actual arguments that are evaluated as values: the actuals bound to a by-reference formal of a callee are
// excluded, all actuals are included for unresolved calls.
func (p *depProblem) diffUses(stmt *ir.Stmt, source ir.Expr) []loc.Handle {
	cn, ok := source.(*ir.CallNode)
	if !ok {
		return alias.ExprLocs(p.aliases, source)
	}
	call := p.prog.Call(cn.Call)
	var uses []loc.Handle
	for i, actual := range call.Actuals {
		if p.passedByRef(call, i) {
			continue
		}
		uses = append(uses, alias.ExprLocs(p.aliases, actual)...)
	}
	return uses
}

// passedByRef returns true if the i-th actual of call is bound to a by-reference formal of every callee
func (p *depProblem) passedByRef(call *ir.CallSite, i int) bool {
	if !call.Resolved() {
		return false
	}
	for _, callee := range call.Callees {
		formals := p.prog.Procedure(callee).Formals
		if i >= len(formals) || !p.bindings.IsRefParam(formals[i]) {
			return false
		}
	}
	return true
}
