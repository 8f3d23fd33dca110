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

package vary

import (
	"fmt"
	"strings"
	"time"

	"github.com/awslabs/argot-activity/analysis/alias"
	"github.com/awslabs/argot-activity/analysis/config"
	"github.com/awslabs/argot-activity/analysis/dataflow"
	"github.com/awslabs/argot-activity/analysis/dep"
	"github.com/awslabs/argot-activity/analysis/ir"
	"github.com/awslabs/argot-activity/analysis/loc"
	"github.com/awslabs/argot-activity/analysis/useful"
	"github.com/awslabs/argot-activity/internal/funcutil"
)

// InterVary holds the varying locations before and after every statement of the ICFG
type InterVary struct {
	arena      *loc.Arena
	in         map[ir.StmtID]*loc.Set
	out        map[ir.StmtID]*loc.Set
	callIn     map[ir.CallID]*loc.Set
	indepLocs  map[ir.ProcID]*loc.Set
	stmtProc   map[ir.StmtID]ir.ProcID
	restricted bool
	iterations int
}

func lookup[K comparable](m map[K]*loc.Set, k K) *loc.Set {
	if s, ok := m[k]; ok {
		return s
	}
	return loc.NewSet()
}

// InVary returns the locations that vary before stmt, or the empty set if stmt was not analyzed
func (r *InterVary) InVary(stmt ir.StmtID) *loc.Set { return lookup(r.in, stmt) }

// OutVary returns the locations that vary after stmt, or the empty set if stmt was not analyzed
func (r *InterVary) OutVary(stmt ir.StmtID) *loc.Set { return lookup(r.out, stmt) }

// CallInVary returns the locations that vary when call is reached
func (r *InterVary) CallInVary(call ir.CallID) *loc.Set { return lookup(r.callIn, call) }

// IndepLocs returns the independent locations proc was seeded with
func (r *InterVary) IndepLocs(proc ir.ProcID) *loc.Set { return lookup(r.indepLocs, proc) }

// Restricted returns true if the varying sets were restricted to useful locations
func (r *InterVary) Restricted() bool { return r.restricted }

// Iterations returns the number of sweeps of the solver
func (r *InterVary) Iterations() int { return r.iterations }

// Stmts returns the analyzed statements of proc in increasing order
func (r *InterVary) Stmts(proc ir.ProcID) []ir.StmtID {
	var res []ir.StmtID
	for _, s := range funcutil.SortedKeys(r.in) {
		if r.stmtProc[s] == proc {
			res = append(res, s)
		}
	}
	return res
}

// String returns the varying sets of the statements of proc
func (r *InterVary) String(prog *ir.Program, proc ir.ProcID) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: independents %s\n", prog.ProcName(proc), r.IndepLocs(proc).Format(r.arena, prog))
	for _, s := range r.Stmts(proc) {
		fmt.Fprintf(&b, "  %s: in %s out %s\n", prog.StmtString(s),
			r.in[s].Format(r.arena, prog), r.out[s].Format(r.arena, prog))
	}
	return b.String()
}

// Manager runs the Vary analysis
type Manager struct {
	logger *config.LogGroup
}

// NewManager returns a Vary manager logging to logger
func NewManager(logger *config.LogGroup) *Manager {
	return &Manager{logger: config.OrDefault(logger)}
}

// PerformAnalysis computes the varying locations of every statement of the ICFG. The entry of each procedure is
// seeded with its independent locations. If usefulRes is not nil, the varying locations after each statement are
// restricted to the ones that may overlap a location useful after it.
func (m *Manager) PerformAnalysis(prog *ir.Program, icfg *ir.Graph, aliases alias.Results,
	bindings ir.ParamBindings, deps *dep.ICFGDep, independents map[ir.ProcID][]loc.Handle,
	usefulRes *useful.InterUseful) *InterVary {
	start := time.Now()
	p := &problem{
		prog:         prog,
		arena:        aliases.Arena(),
		deps:         deps,
		translator:   dataflow.NewTranslator(prog, aliases, bindings),
		independents: independents,
		useful:       usefulRes,
	}
	solver := dataflow.NewICFGSolver[*loc.Set](m.logger, prog, p)
	solver.Solve(icfg, dataflow.Forward)

	res := &InterVary{
		arena:      p.arena,
		in:         map[ir.StmtID]*loc.Set{},
		out:        map[ir.StmtID]*loc.Set{},
		callIn:     map[ir.CallID]*loc.Set{},
		indepLocs:  map[ir.ProcID]*loc.Set{},
		stmtProc:   map[ir.StmtID]ir.ProcID{},
		restricted: usefulRes != nil,
		iterations: solver.Iterations(),
	}
	for proc, hs := range independents {
		res.indepLocs[proc] = loc.NewSet(hs...)
	}
	for _, n := range icfg.NodeList() {
		if len(n.Stmts) == 0 {
			continue
		}
		in := solver.In(n).Clone()
		if n.Kind == ir.CallSiteNode {
			// after the call in program order is the return site, where the callee effects are merged
			s := n.Stmts[0]
			res.in[s] = in
			res.out[s] = p.restrict(s, solver.In(icfg.ReturnNodeOf(n.Call)).Clone())
			res.stmtProc[s] = n.Proc
			res.callIn[n.Call] = in
			continue
		}
		for _, s := range n.Stmts {
			out := p.Transfer(in.Clone(), s)
			res.in[s] = in
			res.out[s] = out
			res.stmtProc[s] = n.Proc
			if c := prog.Stmt(s).Call; c != ir.NoCall {
				res.callIn[c] = in
			}
			in = out.Clone()
		}
	}
	m.logger.Debugf("vary: %d statements in %d sweeps (%.2f s)\n",
		len(res.in), res.iterations, time.Since(start).Seconds())
	if m.logger.LogsTrace() {
		for _, proc := range prog.Procedures() {
			m.logger.Tracef("%s", res.String(prog, proc.ID))
		}
	}
	return res
}

// problem is the forward Vary problem. It implements dataflow.ICFGProblem.
type problem struct {
	prog         *ir.Program
	arena        *loc.Arena
	deps         *dep.ICFGDep
	translator   *dataflow.Translator
	independents map[ir.ProcID][]loc.Handle
	useful       *useful.InterUseful
}

func (p *problem) InitializeTop() *loc.Set    { return loc.NewTop() }
func (p *problem) InitializeBottom() *loc.Set { return loc.NewSet() }

func (p *problem) InitializeNodeIn(n *ir.Node) *loc.Set {
	if n.Kind == ir.EntryNode {
		return loc.NewSet(p.independents[n.Proc]...)
	}
	return loc.NewSet()
}

func (p *problem) InitializeNodeOut(*ir.Node) *loc.Set { return loc.NewSet() }

func (p *problem) Meet(a, b *loc.Set) *loc.Set { return loc.Meet(a, b) }

// Transfer returns the locations varying after stmt given the locations varying before it
func (p *problem) Transfer(in *loc.Set, stmt ir.StmtID) *loc.Set {
	out := loc.NewSet()
	for _, l := range in.Handles() {
		out.UnionWith(p.deps.MayDefs(stmt, l))
	}
	return p.restrict(stmt, out)
}

// restrict keeps the locations of out that may overlap a location useful after stmt. Without useful results, out is
// returned unchanged.
func (p *problem) restrict(stmt ir.StmtID, out *loc.Set) *loc.Set {
	if p.useful == nil {
		return out
	}
	usefulOut := p.useful.OutUseful(stmt)
	return loc.NewSet(funcutil.Filter(out.Handles(), func(h loc.Handle) bool {
		return loc.Overlaps(p.arena, usefulOut, h)
	})...)
}

// EntryTransfer adds the independents of proc to the varying locations at its entry
func (p *problem) EntryTransfer(proc ir.ProcID, s *loc.Set) *loc.Set {
	for _, h := range p.independents[proc] {
		s.Insert(h)
	}
	return s
}

func (p *problem) ExitTransfer(_ ir.ProcID, s *loc.Set) *loc.Set { return s }

// CallerToCallee translates the varying locations at the call site to the entry of the callee
func (p *problem) CallerToCallee(_ ir.ProcID, s *loc.Set, call ir.CallID, callee ir.ProcID) *loc.Set {
	return p.translator.CallerToCallee(s, call, callee, dataflow.AtEntry)
}

// CalleeToCaller translates the varying locations at the exit of the callee to the return site
func (p *problem) CalleeToCaller(callee ir.ProcID, s *loc.Set, call ir.CallID, _ ir.ProcID) *loc.Set {
	return p.translator.CalleeToCaller(s, call, callee, dataflow.AtExit)
}

// CallToReturn keeps the locations of the caller around a resolved call. After an unresolved call that may read a
// varying location, the unknown location and everything the call may write vary.
func (p *problem) CallToReturn(caller ir.ProcID, s *loc.Set, call ir.CallID, callee ir.ProcID) *loc.Set {
	if callee != ir.NoProc {
		res := loc.NewSet()
		for _, h := range s.Handles() {
			if p.arena.IsLocalTo(h, caller) {
				res.Insert(h)
			}
		}
		return res
	}
	locs := p.translator.CallLocs(call)
	if !locs.Escapes(p.arena, s) && !loc.AnyOverlap(p.arena, s, locs.Uses) {
		return s
	}
	s.Insert(loc.UnknownHandle)
	s.UnionWith(locs.Defs)
	return s
}
