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

package loc

import (
	"fmt"

	"github.com/awslabs/argot-activity/analysis/ir"
)

// An Arena interns locations. Every location is stored once and identified by its Handle. The unknown location is
// always interned at UnknownHandle.
type Arena struct {
	locs  []Location
	index map[Location]Handle
}

// NewArena returns an arena containing only the unknown location
func NewArena() *Arena {
	a := &Arena{index: map[Location]Handle{}}
	a.Intern(Unknown{})
	return a
}

// Intern returns the handle of l, adding it to the arena if needed. Subsets of the unknown location are the unknown
// location.
func (a *Arena) Intern(l Location) Handle {
	if sub, ok := l.(Subset); ok && sub.Base == UnknownHandle {
		return UnknownHandle
	}
	if h, ok := a.index[l]; ok {
		return h
	}
	h := Handle(len(a.locs))
	a.locs = append(a.locs, l)
	a.index[l] = h
	return h
}

// Lookup returns the handle of l if it has been interned
func (a *Arena) Lookup(l Location) (Handle, bool) {
	h, ok := a.index[l]
	return h, ok
}

// Get returns the location of a handle. It panics if the handle was not produced by this arena.
func (a *Arena) Get(h Handle) Location {
	if h < 0 || int(h) >= len(a.locs) {
		panic(fmt.Sprintf("location handle %d is not in the arena", h))
	}
	return a.locs[h]
}

// Len returns the number of interned locations
func (a *Arena) Len() int { return len(a.locs) }

// Accept calls the method of v corresponding to the kind of location h
func (a *Arena) Accept(h Handle, v Visitor) {
	a.Get(h).Accept(v)
}

// NamedHandle returns the handle of the Named location of symbol s
func (a *Arena) NamedHandle(s *ir.Symbol) Handle {
	return a.Intern(NamedOf(s))
}

// SubsetHandle returns the handle of the part of base
func (a *Arena) SubsetHandle(base Handle, part string) Handle {
	return a.Intern(Subset{Base: base, Part: part})
}

// FullAccuracy returns true when h describes exactly one storage cell
func (a *Arena) FullAccuracy(h Handle) bool {
	switch l := a.Get(h).(type) {
	case Named:
		return true
	case Subset:
		return l.Part != AnyElement && a.FullAccuracy(l.Base)
	default:
		return false
	}
}

// IsUnknown returns true if h is the unknown location
func (a *Arena) IsUnknown(h Handle) bool {
	return h == UnknownHandle
}

// Base returns the root of the subset chain of h
func (a *Arena) Base(h Handle) Handle {
	for {
		sub, ok := a.Get(h).(Subset)
		if !ok {
			return h
		}
		h = sub.Base
	}
}

// IsLocal returns true when h lives in the namespace of a procedure, and that procedure is returned by Proc
func (a *Arena) IsLocal(h Handle) bool {
	switch l := a.Get(a.Base(h)).(type) {
	case Named:
		return l.Local
	case Unnamed:
		return l.Local
	case Invisible:
		return true
	default:
		return false
	}
}

// IsLocalTo returns true if h lives in the namespace of proc
func (a *Arena) IsLocalTo(h Handle, proc ir.ProcID) bool {
	return a.IsLocal(h) && a.Proc(h) == proc
}

// Proc returns the procedure of the namespace of h, ir.NoProc for global and unknown locations
func (a *Arena) Proc(h Handle) ir.ProcID {
	switch l := a.Get(a.Base(h)).(type) {
	case Named:
		return l.Proc
	case Unnamed:
		return l.Proc
	case Invisible:
		return l.Proc
	default:
		return ir.NoProc
	}
}

// Symbol returns the symbol at the root of h, when the root is a Named location
func (a *Arena) Symbol(h Handle) (ir.SymID, bool) {
	if n, ok := a.Get(a.Base(h)).(Named); ok {
		return n.Sym, true
	}
	return ir.NoSym, false
}

// parts returns the parts from the root of h to h
func (a *Arena) parts(h Handle) []string {
	var ps []string
	for {
		sub, ok := a.Get(h).(Subset)
		if !ok {
			break
		}
		ps = append(ps, sub.Part)
		h = sub.Base
	}
	for i, j := 0, len(ps)-1; i < j; i, j = i+1, j-1 {
		ps[i], ps[j] = ps[j], ps[i]
	}
	return ps
}

// MayOverlap returns true if x and y may denote overlapping storage in some execution. The unknown location may
// overlap everything. Invisible locations may overlap the invisible locations of the same procedure and every
// non-local location.
func (a *Arena) MayOverlap(x, y Handle) bool {
	if x == y || x == UnknownHandle || y == UnknownHandle {
		return true
	}
	rx, ry := a.Base(x), a.Base(y)
	if rx != ry {
		return a.mayAliasRoots(rx, ry)
	}
	px, py := a.parts(x), a.parts(y)
	for i := 0; i < len(px) && i < len(py); i++ {
		if px[i] != py[i] && px[i] != AnyElement && py[i] != AnyElement {
			return false
		}
	}
	return true
}

func (a *Arena) mayAliasRoots(rx, ry Handle) bool {
	ix, xInvisible := a.Get(rx).(Invisible)
	iy, yInvisible := a.Get(ry).(Invisible)
	switch {
	case xInvisible && yInvisible:
		return ix.Proc == iy.Proc
	case xInvisible:
		return !a.IsLocal(ry)
	case yInvisible:
		return !a.IsLocal(rx)
	default:
		return false
	}
}

// MustOverlap returns true if x and y denote the same storage cell in every execution
func (a *Arena) MustOverlap(x, y Handle) bool {
	return x == y && a.FullAccuracy(x)
}

// Covers returns true if the storage of y is contained in the storage of x, i.e. x == y or y is a part of x
func (a *Arena) Covers(x, y Handle) bool {
	for {
		if x == y {
			return true
		}
		sub, ok := a.Get(y).(Subset)
		if !ok {
			return false
		}
		y = sub.Base
	}
}

// Format returns a readable representation of h, using n to name symbols
func (a *Arena) Format(h Handle, n ir.Namer) string {
	f := &formatter{arena: a, namer: n}
	a.Accept(h, f)
	return f.s
}

type formatter struct {
	arena *Arena
	namer ir.Namer
	s     string
}

func (f *formatter) VisitNamed(l Named) {
	if l.Local && f.namer != nil {
		f.s = fmt.Sprintf("%s:%s", f.namer.ProcName(l.Proc), f.namer.Name(l.Sym))
	} else if f.namer != nil {
		f.s = f.namer.Name(l.Sym)
	} else {
		f.s = fmt.Sprintf("sym%d", l.Sym)
	}
}

func (f *formatter) VisitUnnamed(l Unnamed) { f.s = fmt.Sprintf("heap@%d", l.Site) }

func (f *formatter) VisitInvisible(l Invisible) {
	if f.namer != nil {
		f.s = fmt.Sprintf("%s:*%s", f.namer.ProcName(l.Proc), f.namer.Name(l.Formal))
	} else {
		f.s = fmt.Sprintf("*sym%d", l.Formal)
	}
}

func (f *formatter) VisitUnknown(Unknown) { f.s = "<unknown>" }

func (f *formatter) VisitSubset(l Subset) {
	base := f.arena.Format(l.Base, f.namer)
	if l.Part == AnyElement {
		f.s = base + AnyElement
	} else {
		f.s = base + "." + l.Part
	}
}
