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

	"github.com/awslabs/argot-activity/analysis/ir"
	"github.com/awslabs/argot-activity/analysis/loc"
	"github.com/awslabs/argot-activity/internal/funcutil"
)

// DepDFSet is the dependence relation of one statement: a set of (use, def) location pairs meaning that the value
// of def after the statement may depend on the value of use before it.
//
// Every location implicitly depends on itself, since a statement that does not define it leaves it unchanged.
// RemoveImplicitDep drops that implicit pair for a location the statement must define.
type DepDFSet struct {
	usesToDefs map[loc.Handle]map[loc.Handle]bool
	defsToUses map[loc.Handle]map[loc.Handle]bool
	removed    *loc.Set
}

// NewDepDFSet returns a dependence set with only implicit dependences
func NewDepDFSet() *DepDFSet {
	return &DepDFSet{
		usesToDefs: map[loc.Handle]map[loc.Handle]bool{},
		defsToUses: map[loc.Handle]map[loc.Handle]bool{},
		removed:    loc.NewSet(),
	}
}

func insertPair(m map[loc.Handle]map[loc.Handle]bool, k, v loc.Handle) bool {
	vs, ok := m[k]
	if !ok {
		vs = map[loc.Handle]bool{}
		m[k] = vs
	}
	if vs[v] {
		return false
	}
	vs[v] = true
	return true
}

// InsertDep records that def may depend on use. Both directions of the relation are updated. It returns false if
// the pair was already present.
func (d *DepDFSet) InsertDep(use, def loc.Handle) bool {
	added := insertPair(d.usesToDefs, use, def)
	insertPair(d.defsToUses, def, use)
	return added
}

// RemoveImplicitDep removes the implicit dependence of def on use. Only reflexive implicit dependences exist, so
// the call has an effect only when use == def: it records that the statement must define that location.
func (d *DepDFSet) RemoveImplicitDep(use, def loc.Handle) {
	if use == def {
		d.removed.Insert(def)
	}
}

// IsImplicitRemoved returns true if the implicit dependence of h on itself has been removed
func (d *DepDFSet) IsImplicitRemoved(h loc.Handle) bool {
	return d.removed.Has(h)
}

// HasDep returns true if the explicit pair (use, def) is in the set
func (d *DepDFSet) HasDep(use, def loc.Handle) bool {
	return d.usesToDefs[use][def]
}

// DefsOf returns the locations that may depend on use: the explicit pairs with key use, and use itself unless its
// implicit dependence was removed. The result is empty for an unknown key whose implicit dependence was removed.
func (d *DepDFSet) DefsOf(use loc.Handle) []loc.Handle {
	res := funcutil.SortedKeys(d.usesToDefs[use])
	if !d.removed.Has(use) && !d.usesToDefs[use][use] {
		res = append(res, use)
	}
	return res
}

// UsesOf returns the locations def may depend on: the explicit pairs with key def, and def itself unless its
// implicit dependence was removed.
func (d *DepDFSet) UsesOf(def loc.Handle) []loc.Handle {
	res := funcutil.SortedKeys(d.defsToUses[def])
	if !d.removed.Has(def) && !d.defsToUses[def][def] {
		res = append(res, def)
	}
	return res
}

// implicitKept returns true if the implicit dependence of h is kept: no removed location covers h
func (d *DepDFSet) implicitKept(arena *loc.Arena, h loc.Handle) bool {
	kept := true
	d.removed.ForEach(func(r loc.Handle) {
		if kept && arena.Covers(r, h) {
			kept = false
		}
	})
	return kept
}

// MayDefs returns the locations whose value may depend on the value of l before the statement: the defs of every
// explicit use that may overlap l, and l itself unless it is contained in a must-defined location.
func (d *DepDFSet) MayDefs(arena *loc.Arena, l loc.Handle) *loc.Set {
	return d.related(arena, l, d.usesToDefs)
}

// DiffUses returns the locations whose value before the statement may contribute to the value of l after it: the
// uses of every explicit def that may overlap l, and l itself unless it is contained in a must-defined location.
func (d *DepDFSet) DiffUses(arena *loc.Arena, l loc.Handle) *loc.Set {
	return d.related(arena, l, d.defsToUses)
}

func (d *DepDFSet) related(arena *loc.Arena, l loc.Handle, m map[loc.Handle]map[loc.Handle]bool) *loc.Set {
	res := loc.NewSet()
	for k, vs := range m {
		if arena.MayOverlap(k, l) {
			for v := range vs {
				res.Insert(v)
			}
		}
	}
	if d.implicitKept(arena, l) {
		res.Insert(l)
	}
	return res
}

// Pairs returns the explicit pairs, sorted by use then def
func (d *DepDFSet) Pairs() [][2]loc.Handle {
	var res [][2]loc.Handle
	for _, u := range funcutil.SortedKeys(d.usesToDefs) {
		for _, def := range funcutil.SortedKeys(d.usesToDefs[u]) {
			res = append(res, [2]loc.Handle{u, def})
		}
	}
	return res
}

// Removed returns the locations whose implicit dependence was removed
func (d *DepDFSet) Removed() []loc.Handle {
	return d.removed.Handles()
}

// Clone returns a deep copy of the set
func (d *DepDFSet) Clone() *DepDFSet {
	c := NewDepDFSet()
	for _, p := range d.Pairs() {
		c.InsertDep(p[0], p[1])
	}
	c.removed = d.removed.Clone()
	return c
}

// Equal returns true if both sets have the same explicit pairs and removed implicit dependences
func (d *DepDFSet) Equal(o *DepDFSet) bool {
	if o == nil {
		return false
	}
	if !d.removed.Equal(o.removed) || len(d.usesToDefs) != len(o.usesToDefs) {
		return false
	}
	for u, defs := range d.usesToDefs {
		odefs := o.usesToDefs[u]
		if len(defs) != len(odefs) {
			return false
		}
		for def := range defs {
			if !odefs[def] {
				return false
			}
		}
	}
	return true
}

// String returns a readable representation of the set, naming symbols with n
func (d *DepDFSet) String(arena *loc.Arena, n ir.Namer) string {
	var b strings.Builder
	b.WriteString("{")
	for i, p := range d.Pairs() {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "(%s, %s)", arena.Format(p[0], n), arena.Format(p[1], n))
	}
	b.WriteString("}")
	if removed := d.removed.Handles(); len(removed) > 0 {
		b.WriteString(" must-defs: ")
		b.WriteString(d.removed.Format(arena, n))
	}
	return b.String()
}
