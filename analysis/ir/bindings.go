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

// ParamBindings relates the formals of callees to the actual arguments of call sites.
type ParamBindings interface {
	// Actual returns the actual argument expression bound to the formal at the call site, and false when the
	// formal has no corresponding actual.
	Actual(call CallID, formal SymID) (Expr, bool)

	// ResultTarget returns the memory reference receiving the result slot at the call site, and false when the
	// result is discarded.
	ResultTarget(call CallID, result SymID) (MemRefID, bool)

	// IsRefParam returns true if the formal is passed by reference
	IsRefParam(formal SymID) bool
}

// PositionalBindings binds formals and results to actuals and result targets by position.
type PositionalBindings struct {
	prog *Program
}

// NewParamBindings returns the positional parameter bindings of the program
func NewParamBindings(prog *Program) *PositionalBindings {
	return &PositionalBindings{prog: prog}
}

// Actual implements ParamBindings
func (b *PositionalBindings) Actual(call CallID, formal SymID) (Expr, bool) {
	s := b.prog.Symbol(formal)
	c := b.prog.Call(call)
	if s.Kind != FormalSym || s.Index >= len(c.Actuals) {
		return nil, false
	}
	return c.Actuals[s.Index], true
}

// ResultTarget implements ParamBindings
func (b *PositionalBindings) ResultTarget(call CallID, result SymID) (MemRefID, bool) {
	s := b.prog.Symbol(result)
	c := b.prog.Call(call)
	if s.Kind != ResultSym || s.Index >= len(c.Results) || c.Results[s.Index] == NoMemRef {
		return NoMemRef, false
	}
	return c.Results[s.Index], true
}

// IsRefParam implements ParamBindings
func (b *PositionalBindings) IsRefParam(formal SymID) bool {
	s := b.prog.Symbol(formal)
	return s.Kind == FormalSym && s.ByRef
}

// BoundMemRef returns the memory reference of the actual bound to formal, when the actual is a single memory
// reference.
func BoundMemRef(b ParamBindings, call CallID, formal SymID) (MemRefID, bool) {
	e, ok := b.Actual(call, formal)
	if !ok {
		return NoMemRef, false
	}
	m, ok := e.(*MemRefNode)
	if !ok || m.Ref < 0 {
		return NoMemRef, false
	}
	return m.Ref, true
}
