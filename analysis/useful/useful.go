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

package useful

import (
	"time"

	"github.com/awslabs/argot-activity/analysis/alias"
	"github.com/awslabs/argot-activity/analysis/config"
	"github.com/awslabs/argot-activity/analysis/dataflow"
	"github.com/awslabs/argot-activity/analysis/dep"
	"github.com/awslabs/argot-activity/analysis/ir"
	"github.com/awslabs/argot-activity/analysis/loc"
)

// Manager runs the Useful analysis
type Manager struct {
	logger *config.LogGroup
}

// NewManager returns a Useful manager logging to logger
func NewManager(logger *config.LogGroup) *Manager {
	return &Manager{logger: config.OrDefault(logger)}
}

// PerformAnalysis computes the useful sets of every statement of the ICFG. The exit of each procedure is seeded
// with its dependent locations; procedures without dependents only get the useful locations flowing back from
// their callers.
func (m *Manager) PerformAnalysis(prog *ir.Program, icfg *ir.Graph, aliases alias.Results, bindings ir.ParamBindings,
	deps *dep.ICFGDep, dependents map[ir.ProcID][]loc.Handle) *InterUseful {
	start := time.Now()
	p := newProblem(prog, aliases, bindings, deps, dependents)
	solver := dataflow.NewICFGSolver[*loc.Set](m.logger, prog, p)
	solver.Solve(icfg, dataflow.Backward)

	res := &InterUseful{
		procs:      map[ir.ProcID]*UsefulStandard{},
		stmtProc:   map[ir.StmtID]ir.ProcID{},
		callProc:   map[ir.CallID]ir.ProcID{},
		iterations: solver.Iterations(),
	}
	for _, proc := range prog.Procedures() {
		if icfg.Entry(proc.ID) != nil {
			res.procs[proc.ID] = newUsefulStandard(proc.ID, aliases.Arena(), p.seeds(proc.ID))
		}
	}
	for _, n := range icfg.NodeList() {
		if len(n.Stmts) == 0 {
			continue
		}
		u := res.procs[n.Proc]
		out := solver.Out(n).Clone()
		if n.Kind == ir.CallSiteNode {
			// after the call in program order is the return site, not the callee entries
			out = solver.In(icfg.ReturnNodeOf(n.Call)).Clone()
			u.callOut[n.Call] = out
			res.callProc[n.Call] = n.Proc
			u.record(n.Stmts[0], solver.In(n).Clone(), out)
			res.stmtProc[n.Stmts[0]] = n.Proc
			continue
		}
		p.replay(u, n.Stmts, out)
		for _, s := range n.Stmts {
			res.stmtProc[s] = n.Proc
		}
	}
	m.logger.Debugf("useful: %d procedures in %d sweeps (%.2f s)\n",
		len(res.procs), res.iterations, time.Since(start).Seconds())
	if m.logger.LogsTrace() {
		for _, proc := range res.Procedures() {
			m.logger.Tracef("%s", res.procs[proc].String(prog))
		}
	}
	return res
}

// PerformIntraAnalysis computes the useful sets of the statements of proc only. Every call of proc is modelled as
// a call to an unknown procedure.
func (m *Manager) PerformIntraAnalysis(prog *ir.Program, proc ir.ProcID, aliases alias.Results,
	bindings ir.ParamBindings, deps *dep.ICFGDep, dependents []loc.Handle) *UsefulStandard {
	p := newProblem(prog, aliases, bindings, deps, map[ir.ProcID][]loc.Handle{proc: dependents})
	p.intra = true
	cfg := ir.NewCFG(prog, proc)
	solver := dataflow.NewCFGSolver[*loc.Set](m.logger, p)
	solver.Solve(cfg, proc, dataflow.Backward)

	u := newUsefulStandard(proc, aliases.Arena(), p.seeds(proc))
	for _, n := range cfg.NodeList() {
		if len(n.Stmts) > 0 {
			p.replay(u, n.Stmts, solver.Out(n).Clone())
		}
	}
	m.logger.Debugf("useful: %s solved in %d sweeps\n", prog.ProcName(proc), solver.Iterations())
	return u
}

// problem is the backward Useful problem. It implements dataflow.ICFGProblem.
type problem struct {
	prog       *ir.Program
	arena      *loc.Arena
	deps       *dep.ICFGDep
	translator *dataflow.Translator
	dependents map[ir.ProcID][]loc.Handle
	// intra is set when the problem is solved on one CFG: calls are then transferred as unknown calls
	intra bool
}

func newProblem(prog *ir.Program, aliases alias.Results, bindings ir.ParamBindings, deps *dep.ICFGDep,
	dependents map[ir.ProcID][]loc.Handle) *problem {
	return &problem{
		prog:       prog,
		arena:      aliases.Arena(),
		deps:       deps,
		translator: dataflow.NewTranslator(prog, aliases, bindings),
		dependents: dependents,
	}
}

func (p *problem) seeds(proc ir.ProcID) *loc.Set {
	return loc.NewSet(p.dependents[proc]...)
}

// replay recomputes the facts of the statements of a node from the fact after its last statement and records them
func (p *problem) replay(u *UsefulStandard, stmts []ir.StmtID, out *loc.Set) {
	for i := len(stmts) - 1; i >= 0; i-- {
		in := p.Transfer(out.Clone(), stmts[i])
		u.record(stmts[i], in, out)
		if c := p.prog.Stmt(stmts[i]).Call; c != ir.NoCall {
			u.callOut[c] = out
		}
		out = in.Clone()
	}
}

func (p *problem) InitializeTop() *loc.Set    { return loc.NewTop() }
func (p *problem) InitializeBottom() *loc.Set { return loc.NewSet() }

func (p *problem) InitializeNodeIn(*ir.Node) *loc.Set { return loc.NewSet() }

func (p *problem) InitializeNodeOut(n *ir.Node) *loc.Set {
	if n.Kind == ir.ExitNode {
		return p.seeds(n.Proc)
	}
	return loc.NewSet()
}

func (p *problem) Meet(a, b *loc.Set) *loc.Set { return loc.Meet(a, b) }

// Transfer returns the locations useful before stmt given the locations useful after it
func (p *problem) Transfer(out *loc.Set, stmt ir.StmtID) *loc.Set {
	s := p.prog.Stmt(stmt)
	if p.intra && s.Call != ir.NoCall {
		out = p.unknownCall(out, s.Call)
	}
	in := loc.NewSet()
	for _, l := range out.Handles() {
		in.UnionWith(p.deps.DiffUses(stmt, l))
	}
	return in
}

func (p *problem) EntryTransfer(_ ir.ProcID, s *loc.Set) *loc.Set { return s }

// ExitTransfer adds the dependents of proc to the useful locations at its exit
func (p *problem) ExitTransfer(proc ir.ProcID, s *loc.Set) *loc.Set {
	for _, h := range p.dependents[proc] {
		s.Insert(h)
	}
	return s
}

// CallerToCallee translates the useful locations at the return site to the exit of the callee
func (p *problem) CallerToCallee(_ ir.ProcID, s *loc.Set, call ir.CallID, callee ir.ProcID) *loc.Set {
	return p.translator.CallerToCallee(s, call, callee, dataflow.AtExit)
}

// CalleeToCaller translates the useful locations at the entry of the callee to the call site
func (p *problem) CalleeToCaller(callee ir.ProcID, s *loc.Set, call ir.CallID, _ ir.ProcID) *loc.Set {
	return p.translator.CalleeToCaller(s, call, callee, dataflow.AtEntry)
}

// CallToReturn keeps the locations of the caller around a resolved call; the other locations are translated
// through the callees. Unresolved calls are unknown calls.
func (p *problem) CallToReturn(caller ir.ProcID, s *loc.Set, call ir.CallID, callee ir.ProcID) *loc.Set {
	if callee == ir.NoProc {
		return p.unknownCall(s, call)
	}
	res := loc.NewSet()
	for _, h := range s.Handles() {
		if p.arena.IsLocalTo(h, caller) {
			res.Insert(h)
		}
	}
	return res
}

// unknownCall makes every location read by the call useful, together with the unknown location, when something the
// call may write is useful after it.
func (p *problem) unknownCall(s *loc.Set, call ir.CallID) *loc.Set {
	locs := p.translator.CallLocs(call)
	if !locs.Escapes(p.arena, s) {
		return s
	}
	s.Insert(loc.UnknownHandle)
	s.UnionWith(locs.Uses)
	s.UnionWith(locs.Defs)
	return s
}
