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

package activity

import (
	"time"

	"github.com/awslabs/argot-activity/analysis/alias"
	"github.com/awslabs/argot-activity/analysis/config"
	"github.com/awslabs/argot-activity/analysis/dep"
	"github.com/awslabs/argot-activity/analysis/ir"
	"github.com/awslabs/argot-activity/analysis/loc"
	"github.com/awslabs/argot-activity/analysis/useful"
	"github.com/awslabs/argot-activity/analysis/vary"
	"github.com/awslabs/argot-activity/internal/graphutil"
)

// Manager runs the activity pipeline
type Manager struct {
	logger *config.LogGroup
	// VaryOnly computes the active locations from the plain vary sets, instead of the vary sets restricted to
	// useful locations
	VaryOnly bool

	deps   *dep.ICFGDep
	useful *useful.InterUseful
	vary   *vary.InterVary
	active *vary.ActivePerStmt
}

// NewManager returns an activity manager logging to logger
func NewManager(logger *config.LogGroup) *Manager {
	return &Manager{logger: config.OrDefault(logger)}
}

// NewManagerFromConfig returns an activity manager with the options and the log level of the config
func NewManagerFromConfig(cfg *config.Config) *Manager {
	m := NewManager(config.NewLogGroup(cfg))
	m.VaryOnly = cfg.VaryOnly
	return m
}

// PerformAnalysis runs the Dep, Useful and Vary analyses over icfg and assembles the activity result of every
// procedure of the program.
func (m *Manager) PerformAnalysis(prog *ir.Program, icfg *ir.Graph, aliases alias.Results,
	bindings ir.ParamBindings, problem Problem) *InterActive {
	res := newInterActive(prog)
	arena := aliases.Arena()

	cg := graphutil.NewCallgraphIterator(ir.NewCallGraph(prog))
	recursive := graphutil.RecursiveProcedures(cg)
	for _, p := range recursive {
		m.logger.Debugf("%s is recursive\n", prog.ProcName(p))
	}
	res.stats.RecursiveProcedures = recursive
	res.stats.RecursionCycles = graphutil.RecursionCycles(cg)

	start := time.Now()
	m.deps = dep.NewManager(m.logger).PerformAnalysis(prog, icfg, aliases, bindings)
	res.stats.DepTime = time.Since(start)
	res.stats.DepIterations = m.deps.Iterations()

	start = time.Now()
	m.useful = useful.NewManager(m.logger).PerformAnalysis(prog, icfg, aliases, bindings, m.deps,
		problem.Dependents)
	res.stats.UsefulTime = time.Since(start)
	res.stats.UsefulIterations = m.useful.Iterations()

	start = time.Now()
	restrict := m.useful
	if m.VaryOnly {
		restrict = nil
	}
	m.vary = vary.NewManager(m.logger).PerformAnalysis(prog, icfg, aliases, bindings, m.deps,
		problem.Independents, restrict)
	res.stats.VaryTime = time.Since(start)
	res.stats.VaryIterations = m.vary.Iterations()

	m.active = vary.NewActivePerStmt(prog, aliases, m.vary, restrict)
	for _, proc := range prog.Procedures() {
		if icfg.Entry(proc.ID) == nil {
			continue
		}
		res.register(m.activeStandard(prog, aliases, proc.ID), arena)
	}

	for _, sym := range res.ActiveSymbols() {
		res.sizeInBytes += prog.SymbolSize(sym)
	}
	res.stats.ActiveSymbols = len(res.ActiveSymbols())
	for _, a := range res.procs {
		res.stats.ActiveStmts += len(a.activeStmts)
	}
	if res.unknownActive {
		m.logger.Warnf("the unknown location is active: every symbol is considered active\n")
	}
	m.logger.Debugf("activity: %d active statements, %d active symbols (%d bytes)\n",
		res.stats.ActiveStmts, res.stats.ActiveSymbols, res.sizeInBytes)
	if m.logger.LogsTrace() {
		m.logger.Tracef("activity:\n%s", res.String())
	}
	return res
}

// activeStandard collects the active locations, statements and memory references of proc
func (m *Manager) activeStandard(prog *ir.Program, aliases alias.Results, proc ir.ProcID) *ActiveStandard {
	arena := aliases.Arena()
	a := newActiveStandard(proc)
	for _, s := range m.vary.Stmts(proc) {
		in, out := m.active.InActive(s), m.active.OutActive(s)
		a.activeLocs.UnionWith(in)
		a.activeLocs.UnionWith(out)
		if m.active.IsActiveStmt(s) {
			a.activeStmts[s] = true
		}
		stmt := prog.Stmt(s)
		for _, d := range stmt.Defs {
			if anyOverlaps(arena, out, aliases.MayLocs(d)) {
				a.activeMemRefs[d] = true
			}
		}
		for _, u := range stmt.Uses {
			if anyOverlaps(arena, in, aliases.MayLocs(u)) {
				a.activeMemRefs[u] = true
			}
		}
	}
	return a
}

func anyOverlaps(arena *loc.Arena, s *loc.Set, hs []loc.Handle) bool {
	for _, h := range hs {
		if loc.Overlaps(arena, s, h) {
			return true
		}
	}
	return false
}

// Dep returns the dependence result of the last run
func (m *Manager) Dep() *dep.ICFGDep { return m.deps }

// Useful returns the useful result of the last run
func (m *Manager) Useful() *useful.InterUseful { return m.useful }

// Vary returns the vary result of the last run
func (m *Manager) Vary() *vary.InterVary { return m.vary }

// ActivePerStmt returns the active locations per statement of the last run
func (m *Manager) ActivePerStmt() *vary.ActivePerStmt { return m.active }
