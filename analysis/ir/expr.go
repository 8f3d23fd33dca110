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

import (
	"fmt"
	"strings"
)

// Expr is an expression tree of a statement. The leaves are memory references, constants and calls.
type Expr interface {
	Format(p *Program) string
	isExpr()
}

// MemRefNode is a memory reference occurring in an expression
type MemRefNode struct {
	Ref MemRefID
	// pending is the shape of the reference before the builder allocates it
	pending MemRefExpr
}

// OpNode applies an operator to its arguments
type OpNode struct {
	Op   string
	Args []Expr
}

// ConstNode is a constant. Constants depend on nothing.
type ConstNode struct {
	Value string
}

// CallNode is the value returned by a call site
type CallNode struct {
	Call CallID
}

func (*MemRefNode) isExpr() {}
func (*OpNode) isExpr()     {}
func (*ConstNode) isExpr()  {}
func (*CallNode) isExpr()   {}

// Use returns an expression reading the memory reference e. The memory reference is allocated when the expression
// is attached to a statement by a Builder.
func Use(e MemRefExpr) *MemRefNode { return &MemRefNode{Ref: -1, pending: e} }

// Op returns the expression op(args...)
func Op(op string, args ...Expr) *OpNode { return &OpNode{Op: op, Args: args} }

// Const returns a constant expression
func Const(v string) *ConstNode { return &ConstNode{Value: v} }

func (e *MemRefNode) Format(p *Program) string {
	if e.Ref < 0 || p == nil {
		return "?"
	}
	return p.MemRef(e.Ref).Expr.Format(p)
}

func (e *OpNode) Format(p *Program) string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.Format(p)
	}
	return fmt.Sprintf("%s(%s)", e.Op, strings.Join(args, ", "))
}

func (e *ConstNode) Format(*Program) string { return e.Value }

func (e *CallNode) Format(*Program) string { return fmt.Sprintf("call#%d", e.Call) }

// WalkExpr calls f on every node of the tree in pre-order. Children are not visited when f returns false.
func WalkExpr(e Expr, f func(Expr) bool) {
	if e == nil || !f(e) {
		return
	}
	if op, ok := e.(*OpNode); ok {
		for _, a := range op.Args {
			WalkExpr(a, f)
		}
	}
}

// MemRefsOf returns the memory references of the expression, in pre-order
func MemRefsOf(e Expr) []MemRefID {
	var refs []MemRefID
	WalkExpr(e, func(x Expr) bool {
		if m, ok := x.(*MemRefNode); ok {
			refs = append(refs, m.Ref)
		}
		return true
	})
	return refs
}
