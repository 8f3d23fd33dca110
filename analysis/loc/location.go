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

import "github.com/awslabs/argot-activity/analysis/ir"

// Handle is the interned representation of a Location in an Arena. Handles are cheap to compare and hash; the arena
// owns the location payloads.
type Handle int32

// UnknownHandle is the handle of the unknown location in every arena
const UnknownHandle Handle = 0

// AnyElement is the part of a Subset denoting some element of an array
const AnyElement = "[]"

// Location is an abstract storage cell. It is a closed sum type: the variants are Named, Unnamed, Invisible, Unknown
// and Subset. Algorithms dispatching on the kind of a location implement Visitor.
// All variants are comparable values, so they can be map keys.
type Location interface {
	Accept(v Visitor)
	isLocation()
}

// Visitor dispatches on the variant of a Location
type Visitor interface {
	VisitNamed(l Named)
	VisitUnnamed(l Unnamed)
	VisitInvisible(l Invisible)
	VisitUnknown(l Unknown)
	VisitSubset(l Subset)
}

// Named is the storage of a symbol. Local is true when the symbol belongs to the namespace of Proc.
type Named struct {
	Sym   ir.SymID
	Proc  ir.ProcID
	Local bool
}

// Unnamed is a heap cell allocated at a statement. Local is true when the cell does not escape Proc.
type Unnamed struct {
	Site  ir.StmtID
	Proc  ir.ProcID
	Local bool
}

// Invisible is the storage reachable by dereferencing the pointer formal Formal of Proc, which Proc cannot name
// otherwise.
type Invisible struct {
	Formal ir.SymID
	Proc   ir.ProcID
}

// Unknown is the location that may overlap every other location
type Unknown struct{}

// Subset is a part of the storage of Base: the field Part, or some element when Part is AnyElement
type Subset struct {
	Base Handle
	Part string
}

func (l Named) Accept(v Visitor)     { v.VisitNamed(l) }
func (l Unnamed) Accept(v Visitor)   { v.VisitUnnamed(l) }
func (l Invisible) Accept(v Visitor) { v.VisitInvisible(l) }
func (l Unknown) Accept(v Visitor)   { v.VisitUnknown(l) }
func (l Subset) Accept(v Visitor)    { v.VisitSubset(l) }

func (Named) isLocation()     {}
func (Unnamed) isLocation()   {}
func (Invisible) isLocation() {}
func (Unknown) isLocation()   {}
func (Subset) isLocation()    {}

// NamedOf returns the Named location of a symbol
func NamedOf(s *ir.Symbol) Named {
	return Named{Sym: s.ID, Proc: s.Proc, Local: s.IsLocal()}
}
