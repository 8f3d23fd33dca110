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

package ir

import "fmt"

// MemRefExpr is the shape of a memory reference. It is a closed sum type: the variants are NamedRef, DerefRef,
// FieldRef, IndexRef and AddrRef. Algorithms over memory reference expressions implement MemRefVisitor.
type MemRefExpr interface {
	Accept(v MemRefVisitor)
	Format(n Namer) string
	isMemRefExpr()
}

// MemRefVisitor dispatches on the variant of a MemRefExpr
type MemRefVisitor interface {
	VisitNamed(e *NamedRef)
	VisitDeref(e *DerefRef)
	VisitField(e *FieldRef)
	VisitIndex(e *IndexRef)
	VisitAddr(e *AddrRef)
}

// NamedRef references the storage of a symbol
type NamedRef struct {
	Sym SymID
}

// DerefRef references the storage the value of Inner points to
type DerefRef struct {
	Inner MemRefExpr
}

// FieldRef references the field Name of the storage referenced by Base
type FieldRef struct {
	Base MemRefExpr
	Name string
}

// IndexRef references some element of the storage referenced by Base
type IndexRef struct {
	Base MemRefExpr
}

// AddrRef is the address of the storage referenced by Inner. It is a value, it does not read Inner.
type AddrRef struct {
	Inner MemRefExpr
}

// Named returns a reference to symbol s
func Named(s SymID) *NamedRef { return &NamedRef{Sym: s} }

// Deref returns a reference to *e
func Deref(e MemRefExpr) *DerefRef { return &DerefRef{Inner: e} }

// Field returns a reference to e.name
func Field(e MemRefExpr, name string) *FieldRef { return &FieldRef{Base: e, Name: name} }

// Index returns a reference to some element e[_]
func Index(e MemRefExpr) *IndexRef { return &IndexRef{Base: e} }

// Addr returns the address &e
func Addr(e MemRefExpr) *AddrRef { return &AddrRef{Inner: e} }

func (e *NamedRef) Accept(v MemRefVisitor) { v.VisitNamed(e) }
func (e *DerefRef) Accept(v MemRefVisitor) { v.VisitDeref(e) }
func (e *FieldRef) Accept(v MemRefVisitor) { v.VisitField(e) }
func (e *IndexRef) Accept(v MemRefVisitor) { v.VisitIndex(e) }
func (e *AddrRef) Accept(v MemRefVisitor)  { v.VisitAddr(e) }

func (e *NamedRef) isMemRefExpr() {}
func (e *DerefRef) isMemRefExpr() {}
func (e *FieldRef) isMemRefExpr() {}
func (e *IndexRef) isMemRefExpr() {}
func (e *AddrRef) isMemRefExpr()  {}

func (e *NamedRef) Format(n Namer) string { return n.Name(e.Sym) }
func (e *DerefRef) Format(n Namer) string { return "*" + e.Inner.Format(n) }
func (e *FieldRef) Format(n Namer) string { return fmt.Sprintf("%s.%s", e.Base.Format(n), e.Name) }
func (e *IndexRef) Format(n Namer) string { return e.Base.Format(n) + "[]" }
func (e *AddrRef) Format(n Namer) string  { return "&" + e.Inner.Format(n) }

// RootSymbol returns the symbol at the root of the expression, if any.
func RootSymbol(e MemRefExpr) (SymID, bool) {
	r := &rootFinder{sym: NoSym}
	e.Accept(r)
	return r.sym, r.sym != NoSym
}

type rootFinder struct{ sym SymID }

func (r *rootFinder) VisitNamed(e *NamedRef) { r.sym = e.Sym }
func (r *rootFinder) VisitDeref(e *DerefRef) { e.Inner.Accept(r) }
func (r *rootFinder) VisitField(e *FieldRef) { e.Base.Accept(r) }
func (r *rootFinder) VisitIndex(e *IndexRef) { e.Base.Accept(r) }
func (r *rootFinder) VisitAddr(e *AddrRef)   { e.Inner.Accept(r) }

// IsAddr returns true when e is an address computation, which does not read memory.
func IsAddr(e MemRefExpr) bool {
	_, ok := e.(*AddrRef)
	return ok
}
