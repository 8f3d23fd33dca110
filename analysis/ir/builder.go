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
	"errors"
	"fmt"
	"go/token"

	"github.com/awslabs/argot-activity/analysis/config"
	"github.com/awslabs/argot-activity/internal/funcutil"
)

// A Builder constructs a Program. Errors are accumulated and reported by Build.
type Builder struct {
	prog *Program
	errs []error
}

// NewBuilder returns a builder for an empty program
func NewBuilder() *Builder {
	return &Builder{prog: &Program{}}
}

func (b *Builder) errorf(format string, args ...any) {
	b.errs = append(b.errs, fmt.Errorf(format, args...))
}

func (b *Builder) validProc(p ProcID) bool {
	if p < 0 || int(p) >= len(b.prog.procs) {
		b.errorf("unknown procedure %d", p)
		return false
	}
	return true
}

func (b *Builder) newSymbol(name string, proc ProcID, kind SymbolKind, size int64) *Symbol {
	s := &Symbol{ID: SymID(len(b.prog.syms)), Name: name, Proc: proc, Kind: kind, Size: size}
	b.prog.syms = append(b.prog.syms, s)
	return s
}

// Global adds a global variable
func (b *Builder) Global(name string, size int64) SymID {
	s := b.newSymbol(name, NoProc, GlobalSym, size)
	b.prog.globals = append(b.prog.globals, s.ID)
	return s.ID
}

// Procedure adds a procedure with an empty entry block
func (b *Builder) Procedure(name string) ProcID {
	p := &Procedure{ID: ProcID(len(b.prog.procs)), Name: name}
	p.Blocks = []*Block{{Index: 0}}
	b.prog.procs = append(b.prog.procs, p)
	return p.ID
}

// Formal adds the next formal parameter of p
func (b *Builder) Formal(p ProcID, name string, byRef bool, size int64) SymID {
	if !b.validProc(p) {
		return NoSym
	}
	proc := b.prog.procs[p]
	s := b.newSymbol(name, p, FormalSym, size)
	s.ByRef = byRef
	s.Index = len(proc.Formals)
	proc.Formals = append(proc.Formals, s.ID)
	return s.ID
}

// Result adds the next result slot of p. Result slots are named $ret0, $ret1, ...
func (b *Builder) Result(p ProcID, size int64) SymID {
	if !b.validProc(p) {
		return NoSym
	}
	proc := b.prog.procs[p]
	s := b.newSymbol(fmt.Sprintf("%s%d", config.ResultNamePrefix, len(proc.Results)), p, ResultSym, size)
	s.Index = len(proc.Results)
	proc.Results = append(proc.Results, s.ID)
	return s.ID
}

// Local adds a local variable to p
func (b *Builder) Local(p ProcID, name string, size int64) SymID {
	if !b.validProc(p) {
		return NoSym
	}
	proc := b.prog.procs[p]
	s := b.newSymbol(name, p, LocalSym, size)
	proc.Locals = append(proc.Locals, s.ID)
	return s.ID
}

// NewBlock adds an empty block to p and returns its index
func (b *Builder) NewBlock(p ProcID) int {
	if !b.validProc(p) {
		return -1
	}
	proc := b.prog.procs[p]
	blk := &Block{Index: len(proc.Blocks)}
	proc.Blocks = append(proc.Blocks, blk)
	return blk.Index
}

// Jump adds a control-flow edge between two blocks of p
func (b *Builder) Jump(p ProcID, from, to int) {
	if !b.validProc(p) {
		return
	}
	proc := b.prog.procs[p]
	if from < 0 || from >= len(proc.Blocks) || to < 0 || to >= len(proc.Blocks) {
		b.errorf("invalid edge %d -> %d in %s", from, to, proc.Name)
		return
	}
	if !funcutil.Contains(proc.Blocks[from].Succs, to) {
		proc.Blocks[from].Succs = append(proc.Blocks[from].Succs, to)
	}
}

func (b *Builder) newStmt(p ProcID, blk int, kind StmtKind) *Stmt {
	if !b.validProc(p) {
		return nil
	}
	proc := b.prog.procs[p]
	if blk < 0 || blk >= len(proc.Blocks) {
		b.errorf("invalid block %d in %s", blk, proc.Name)
		return nil
	}
	s := &Stmt{ID: StmtID(len(b.prog.stmts)), Proc: p, Block: blk, Kind: kind, Call: NoCall}
	b.prog.stmts = append(b.prog.stmts, s)
	proc.Blocks[blk].Stmts = append(proc.Blocks[blk].Stmts, s.ID)
	return s
}

func (b *Builder) newMemRef(s *Stmt, e MemRefExpr, isDef bool) MemRefID {
	m := &MemRef{ID: MemRefID(len(b.prog.memrefs)), Proc: s.Proc, Stmt: s.ID, Expr: e, IsDef: isDef}
	b.prog.memrefs = append(b.prog.memrefs, m)
	if isDef {
		s.Defs = append(s.Defs, m.ID)
	} else {
		s.Uses = append(s.Uses, m.ID)
	}
	return m.ID
}

// attach allocates the memory references of the expression for statement s
func (b *Builder) attach(s *Stmt, e Expr) {
	WalkExpr(e, func(x Expr) bool {
		m, ok := x.(*MemRefNode)
		if !ok {
			return true
		}
		if m.Ref >= 0 {
			b.errorf("expression node of %s attached to two statements", m.Format(b.prog))
			return false
		}
		if m.pending == nil {
			b.errorf("memory reference node without expression in statement %d", s.ID)
			return false
		}
		m.Ref = b.newMemRef(s, m.pending, false)
		return false
	})
}

// Assign adds the statement target := source to block blk of p
func (b *Builder) Assign(p ProcID, blk int, target MemRefExpr, source Expr) StmtID {
	s := b.newStmt(p, blk, AssignStmt)
	if s == nil {
		return NoStmt
	}
	b.attach(s, source)
	t := b.newMemRef(s, target, true)
	s.Pairs = []AssignPair{{Target: t, Source: source}}
	return s.ID
}

// Alloc adds a statement storing the address of a fresh heap cell in target
func (b *Builder) Alloc(p ProcID, blk int, target MemRefExpr) StmtID {
	s := b.newStmt(p, blk, AllocStmt)
	if s == nil {
		return NoStmt
	}
	t := b.newMemRef(s, target, true)
	s.Pairs = []AssignPair{{Target: t, Source: Const("new")}}
	return s.ID
}

// Call adds a statement calling callees with actuals, and storing the results in the result targets. An empty callee
// list denotes an unresolved call. A nil result target means the result is discarded.
func (b *Builder) Call(p ProcID, blk int, callees []ProcID, actuals []Expr, results []MemRefExpr) (StmtID, CallID) {
	s := b.newStmt(p, blk, CallStmt)
	if s == nil {
		return NoStmt, NoCall
	}
	c := &CallSite{ID: CallID(len(b.prog.calls)), Stmt: s.ID, Proc: p, Actuals: actuals}
	b.prog.calls = append(b.prog.calls, c)
	s.Call = c.ID
	b.SetCallees(c.ID, callees)
	for _, a := range actuals {
		b.attach(s, a)
	}
	for _, r := range results {
		if r == nil {
			c.Results = append(c.Results, NoMemRef)
			continue
		}
		t := b.newMemRef(s, r, true)
		c.Results = append(c.Results, t)
		s.Pairs = append(s.Pairs, AssignPair{Target: t, Source: &CallNode{Call: c.ID}})
	}
	return s.ID, c.ID
}

// SetCallees replaces the callees of call c
func (b *Builder) SetCallees(c CallID, callees []ProcID) {
	if c < 0 || int(c) >= len(b.prog.calls) {
		b.errorf("unknown call %d", c)
		return
	}
	var cs []ProcID
	for _, callee := range callees {
		if b.validProc(callee) && !funcutil.Contains(cs, callee) {
			cs = append(cs, callee)
		}
	}
	b.prog.calls[c].Callees = cs
}

// Return adds a return statement assigning the values to the result slots of p, in order
func (b *Builder) Return(p ProcID, blk int, values ...Expr) StmtID {
	s := b.newStmt(p, blk, ReturnStmt)
	if s == nil {
		return NoStmt
	}
	proc := b.prog.procs[p]
	if len(values) > len(proc.Results) {
		b.errorf("return with %d values in %s which has %d results", len(values), proc.Name, len(proc.Results))
		return s.ID
	}
	for i, v := range values {
		b.attach(s, v)
		t := b.newMemRef(s, Named(proc.Results[i]), true)
		s.Pairs = append(s.Pairs, AssignPair{Target: t, Source: v})
	}
	return s.ID
}

// Branch adds a statement that only evaluates cond
func (b *Builder) Branch(p ProcID, blk int, cond Expr) StmtID {
	s := b.newStmt(p, blk, BranchStmt)
	if s == nil {
		return NoStmt
	}
	b.attach(s, cond)
	s.Loose = append(s.Loose, s.Uses...)
	return s.ID
}

// Other adds a statement defining defs with values that may depend on all the uses
func (b *Builder) Other(p ProcID, blk int, defs []MemRefExpr, uses []Expr) StmtID {
	s := b.newStmt(p, blk, OtherStmt)
	if s == nil {
		return NoStmt
	}
	for _, u := range uses {
		b.attach(s, u)
	}
	s.Loose = append(s.Loose, s.Uses...)
	for _, d := range defs {
		b.newMemRef(s, d, true)
	}
	return s.ID
}

// SetPos records the source position and text of a statement
func (b *Builder) SetPos(s StmtID, pos token.Position, text string) {
	if s < 0 || int(s) >= len(b.prog.stmts) {
		return
	}
	b.prog.stmts[s].Pos = pos
	b.prog.stmts[s].Text = text
}

// Build validates and returns the program. The builder must not be used afterwards.
func (b *Builder) Build() (*Program, error) {
	for _, c := range b.prog.calls {
		for _, callee := range c.Callees {
			proc := b.prog.procs[callee]
			if len(c.Actuals) > len(proc.Formals) {
				b.errorf("call %d passes %d arguments to %s which has %d formals",
					c.ID, len(c.Actuals), proc.Name, len(proc.Formals))
			}
		}
	}
	if len(b.errs) > 0 {
		return nil, fmt.Errorf("invalid program: %w", errors.Join(b.errs...))
	}
	return b.prog, nil
}
