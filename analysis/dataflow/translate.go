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
	"github.com/awslabs/argot-activity/analysis/alias"
	"github.com/awslabs/argot-activity/analysis/ir"
	"github.com/awslabs/argot-activity/analysis/loc"
)

// CallSide is the side of a call a translation happens at
type CallSide int

const (
	// AtEntry translates between the call site and the entry of the callee
	AtEntry CallSide = iota
	// AtExit translates between the exit of the callee and the return site
	AtExit
)

// Translator re-expresses location sets between the namespaces of callers and callees. Translations never modify
// their argument and always return a fresh set.
//
// From the callee to the caller:
//   - a by-reference formal becomes the may-locations of its actual,
//   - a by-value formal becomes the locations read by its actual, at the entry only,
//   - a result slot becomes the may-locations of the result target, at the exit only,
//   - the invisible location of a formal becomes the may-locations of the dereferenced actual,
//   - other locations local to the callee are dropped,
//   - non-local locations and the unknown location are unchanged,
//   - subsets are re-wrapped over the translation of their base.
//
// From the caller to the callee, a formal (resp. result slot, invisible location) is in the result when the set
// may overlap the locations bound to it. Locations local to the caller are dropped, non-local locations and the
// unknown location are unchanged and never bound to invisible locations.
type Translator struct {
	prog     *ir.Program
	aliases  alias.Results
	bindings ir.ParamBindings
}

// NewTranslator returns a translator using the alias results and parameter bindings
func NewTranslator(prog *ir.Program, aliases alias.Results, bindings ir.ParamBindings) *Translator {
	return &Translator{prog: prog, aliases: aliases, bindings: bindings}
}

// CalleeToCaller translates s from the namespace of callee to the namespace of the caller at call
func (t *Translator) CalleeToCaller(s *loc.Set, call ir.CallID, callee ir.ProcID, side CallSide) *loc.Set {
	v := &toCaller{t: t, call: t.prog.Call(call), callee: callee, side: side}
	res := loc.NewSet()
	for _, h := range s.Handles() {
		for _, x := range v.translate(h) {
			res.Insert(x)
		}
	}
	return res
}

// toCaller is the location visitor translating one callee location to caller locations
type toCaller struct {
	t      *Translator
	call   *ir.CallSite
	callee ir.ProcID
	side   CallSide
	out    []loc.Handle
}

func (v *toCaller) translate(h loc.Handle) []loc.Handle {
	arena := v.t.aliases.Arena()
	if !arena.IsLocal(h) {
		return []loc.Handle{h}
	}
	if !arena.IsLocalTo(h, v.callee) {
		return nil
	}
	v.out = nil
	arena.Accept(h, v)
	return v.out
}

func (v *toCaller) VisitNamed(l loc.Named) {
	sym := v.t.prog.Symbol(l.Sym)
	switch sym.Kind {
	case ir.FormalSym:
		actual, ok := v.t.bindings.Actual(v.call.ID, sym.ID)
		if !ok {
			return
		}
		if v.t.bindings.IsRefParam(sym.ID) {
			if m, ok := actual.(*ir.MemRefNode); ok && m.Ref >= 0 {
				v.out = v.t.aliases.MayLocs(m.Ref)
			}
			return
		}
		if v.side == AtEntry {
			v.out = alias.ExprLocs(v.t.aliases, actual)
		}
	case ir.ResultSym:
		if v.side != AtExit {
			return
		}
		if m, ok := v.t.bindings.ResultTarget(v.call.ID, sym.ID); ok {
			v.out = v.t.aliases.MayLocs(m)
		}
	}
}

func (v *toCaller) VisitUnnamed(loc.Unnamed) {}

func (v *toCaller) VisitInvisible(l loc.Invisible) {
	if actual, ok := v.t.bindings.Actual(v.call.ID, l.Formal); ok {
		v.out = alias.PointeeLocs(v.t.aliases, v.t.prog, v.call.Proc, actual)
	}
}

func (v *toCaller) VisitUnknown(loc.Unknown) {
	v.out = []loc.Handle{loc.UnknownHandle}
}

func (v *toCaller) VisitSubset(l loc.Subset) {
	arena := v.t.aliases.Arena()
	bases := v.translate(l.Base)
	var out []loc.Handle
	for _, b := range bases {
		out = append(out, arena.SubsetHandle(b, l.Part))
	}
	v.out = out
}

// binding is a location of the callee together with the caller locations bound to it at a call
type binding struct {
	calleeLoc loc.Handle
	bound     []loc.Handle
	invisible bool
}

// bindingsAt returns the bindings of the formals, invisible locations and results of callee at the call
func (t *Translator) bindingsAt(call *ir.CallSite, callee ir.ProcID, side CallSide) []binding {
	arena := t.aliases.Arena()
	proc := t.prog.Procedure(callee)
	var res []binding
	for _, f := range proc.Formals {
		actual, ok := t.bindings.Actual(call.ID, f)
		if !ok {
			continue
		}
		sym := t.prog.Symbol(f)
		if t.bindings.IsRefParam(f) {
			if m, ok := actual.(*ir.MemRefNode); ok && m.Ref >= 0 {
				res = append(res, binding{calleeLoc: arena.NamedHandle(sym), bound: t.aliases.MayLocs(m.Ref)})
			}
		} else if side == AtEntry {
			res = append(res, binding{calleeLoc: arena.NamedHandle(sym), bound: alias.ExprLocs(t.aliases, actual)})
		}
		// an actual with only unknown pointees is not known to be a pointer; the unknown location itself still
		// overlaps the invisible location in the callee
		if pointees := alias.PointeeLocs(t.aliases, t.prog, call.Proc, actual); len(pointees) > 0 &&
			!(len(pointees) == 1 && pointees[0] == loc.UnknownHandle) {
			invisible := arena.Intern(loc.Invisible{Formal: f, Proc: callee})
			res = append(res, binding{calleeLoc: invisible, bound: pointees, invisible: true})
		}
	}
	if side == AtExit {
		for _, r := range proc.Results {
			if m, ok := t.bindings.ResultTarget(call.ID, r); ok {
				res = append(res, binding{calleeLoc: arena.NamedHandle(t.prog.Symbol(r)), bound: t.aliases.MayLocs(m)})
			}
		}
	}
	return res
}

// CallerToCallee translates s from the namespace of the caller at call to the namespace of callee
func (t *Translator) CallerToCallee(s *loc.Set, call ir.CallID, callee ir.ProcID, side CallSide) *loc.Set {
	arena := t.aliases.Arena()
	cs := t.prog.Call(call)
	bindings := t.bindingsAt(cs, callee, side)
	v := &toCallee{arena: arena, exact: map[loc.Handle][]loc.Handle{}}
	for _, b := range bindings {
		if len(b.bound) == 1 && !(b.invisible && !arena.IsLocal(b.bound[0])) {
			v.exact[b.bound[0]] = append(v.exact[b.bound[0]], b.calleeLoc)
		}
	}

	res := loc.NewSet()
	for _, h := range s.Handles() {
		nonLocal := !arena.IsLocal(h)
		if nonLocal {
			res.Insert(h)
		}
		for _, x := range v.images(h) {
			res.Insert(x)
		}
		for _, b := range bindings {
			// a non-local location is named as such in the callee, where it overlaps the invisible locations
			if res.Has(b.calleeLoc) || (nonLocal && b.invisible) {
				continue
			}
			for _, x := range b.bound {
				if arena.MayOverlap(h, x) && !(len(b.bound) == 1 && arena.Covers(x, h)) {
					res.Insert(b.calleeLoc)
					break
				}
			}
		}
	}
	return res
}

// toCallee is the location visitor computing the exact callee images of a caller location: the callee locations
// bound to exactly that location, and the subsets of the images of its base.
type toCallee struct {
	arena *loc.Arena
	exact map[loc.Handle][]loc.Handle
	out   []loc.Handle
}

func (v *toCallee) images(h loc.Handle) []loc.Handle {
	if img, ok := v.exact[h]; ok {
		return img
	}
	v.out = nil
	v.arena.Accept(h, v)
	return v.out
}

func (v *toCallee) VisitNamed(loc.Named)         {}
func (v *toCallee) VisitUnnamed(loc.Unnamed)     {}
func (v *toCallee) VisitInvisible(loc.Invisible) {}
func (v *toCallee) VisitUnknown(loc.Unknown)     {}

func (v *toCallee) VisitSubset(l loc.Subset) {
	var out []loc.Handle
	for _, b := range v.images(l.Base) {
		out = append(out, v.arena.SubsetHandle(b, l.Part))
	}
	v.out = out
}
