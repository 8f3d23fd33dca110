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

// Package alias provides the alias information consumed by the dataflow analyses: the locations a memory reference
// may or must denote.
package alias

import (
	"github.com/awslabs/argot-activity/analysis/ir"
	"github.com/awslabs/argot-activity/analysis/loc"
)

// Results answers alias queries. The returned slices are owned by the caller and may contain the unknown location,
// which signals that nothing is known.
type Results interface {
	// Arena returns the arena the locations are interned in
	Arena() *loc.Arena

	// MayLocs returns the locations the memory reference may denote
	MayLocs(m ir.MemRefID) []loc.Handle

	// MustLocs returns the locations the memory reference denotes in every execution
	MustLocs(m ir.MemRefID) []loc.Handle

	// ExprMayLocs returns the locations the memory reference expression may denote in the namespace of proc. It is
	// used for expressions that do not occur in the program, e.g. the dereference of an actual argument.
	ExprMayLocs(proc ir.ProcID, e ir.MemRefExpr) []loc.Handle
}

// ExprLocs returns the locations an expression reads: the may-locations of every memory reference of the tree,
// except for address computations. Calls read nothing.
func ExprLocs(r Results, e ir.Expr) []loc.Handle {
	var locs []loc.Handle
	for _, m := range ir.MemRefsOf(e) {
		locs = append(locs, r.MayLocs(m)...)
	}
	return locs
}

// PointeeLocs returns the locations the value of the expression may point to, in the namespace of proc: for an
// actual argument &x it is x, for an actual argument p it is *p.
func PointeeLocs(r Results, prog *ir.Program, proc ir.ProcID, e ir.Expr) []loc.Handle {
	m, ok := e.(*ir.MemRefNode)
	if !ok || m.Ref < 0 {
		return nil
	}
	return r.ExprMayLocs(proc, ir.Deref(prog.MemRef(m.Ref).Expr))
}
