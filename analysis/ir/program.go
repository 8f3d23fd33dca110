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
	"go/token"
)

type (
	// ProcID identifies a procedure of a Program
	ProcID int32
	// SymID identifies a symbol (variable) of a Program
	SymID int32
	// StmtID identifies a statement of a Program
	StmtID int32
	// MemRefID identifies a memory reference of a Program
	MemRefID int32
	// CallID identifies a call site of a Program
	CallID int32
)

const (
	// NoProc is the procedure id of global symbols, and the callee passed for calls without a resolved callee.
	NoProc ProcID = -1
	// NoSym is returned when a symbol lookup fails
	NoSym SymID = -1
	// NoStmt marks memory references that are not attached to a statement
	NoStmt StmtID = -1
	// NoCall is the call of statements that do not call anything
	NoCall CallID = -1
	// NoMemRef marks a discarded call result
	NoMemRef MemRefID = -1
)

// SymbolKind is the kind of storage a symbol denotes
type SymbolKind int

const (
	// GlobalSym is a global (package-level or static) variable
	GlobalSym SymbolKind = iota
	// LocalSym is a local variable of a procedure
	LocalSym
	// FormalSym is a formal parameter of a procedure
	FormalSym
	// ResultSym is a result slot of a procedure, assigned by return statements
	ResultSym
)

func (k SymbolKind) String() string {
	switch k {
	case GlobalSym:
		return "global"
	case LocalSym:
		return "local"
	case FormalSym:
		return "formal"
	case ResultSym:
		return "result"
	default:
		return "?"
	}
}

// A Symbol is a named variable of the program.
type Symbol struct {
	ID   SymID
	Name string
	// Proc is the procedure the symbol belongs to, NoProc for globals
	Proc ProcID
	Kind SymbolKind
	// ByRef is true for formals passed by reference: the formal denotes the storage of the actual argument.
	ByRef bool
	// Index is the position of formals and results in the signature
	Index int
	// Size is the static size of the symbol in bytes
	Size int64
}

// IsLocal returns true if the symbol lives in the namespace of a procedure
func (s *Symbol) IsLocal() bool {
	return s.Kind != GlobalSym
}

// StmtKind classifies statements
type StmtKind int

const (
	// AssignStmt assigns values to its targets
	AssignStmt StmtKind = iota
	// CallStmt contains a call site; its targets receive the results of the call
	CallStmt
	// ReturnStmt assigns the result symbols of its procedure
	ReturnStmt
	// AllocStmt stores the address of a fresh heap cell in its target
	AllocStmt
	// BranchStmt only uses values
	BranchStmt
	// OtherStmt is any other statement; its defs may depend on all its uses
	OtherStmt
)

func (k StmtKind) String() string {
	return [...]string{"assign", "call", "return", "alloc", "branch", "other"}[k]
}

// AssignPair is one (target := source) assignment of a statement
type AssignPair struct {
	Target MemRefID
	Source Expr
}

// Stmt is a statement of a procedure
type Stmt struct {
	ID    StmtID
	Proc  ProcID
	Block int
	Kind  StmtKind
	// Pairs are the assignment pairs of assignment-like statements
	Pairs []AssignPair
	// Defs are all the memory references defined by the statement
	Defs []MemRefID
	// Uses are all the memory references used by the statement
	Uses []MemRefID
	// Loose are the uses that are neither in an assignment source nor a call actual
	Loose []MemRefID
	// Call is the call site embedded in the statement, or NoCall
	Call CallID
	Pos  token.Position
	Text string
}

// MemRef is an occurrence of a memory reference expression in a statement
type MemRef struct {
	ID    MemRefID
	Proc  ProcID
	Stmt  StmtID
	Expr  MemRefExpr
	IsDef bool
}

// CallSite is a call embedded in a statement
type CallSite struct {
	ID   CallID
	Stmt StmtID
	Proc ProcID
	// Callees are the procedures the call may invoke. An empty list means the call is unresolved.
	Callees []ProcID
	// Actuals are the actual argument expressions, in order
	Actuals []Expr
	// Results are the memory references receiving the results of the call, in order. A discarded result is
	// NoMemRef.
	Results []MemRefID
}

// Resolved returns true if at least one callee is known
func (c *CallSite) Resolved() bool {
	return len(c.Callees) > 0
}

// Block is a basic block of a procedure. Blocks without successors flow to the exit of the procedure.
type Block struct {
	Index int
	Stmts []StmtID
	Succs []int
}

// Procedure is a function of the program with its body
type Procedure struct {
	ID      ProcID
	Name    string
	Formals []SymID
	Results []SymID
	Locals  []SymID
	// Blocks of the procedure. Block 0 is the entry block.
	Blocks []*Block
}

// Program is the whole program representation the analyses run on. It is immutable once built.
type Program struct {
	procs   []*Procedure
	syms    []*Symbol
	stmts   []*Stmt
	memrefs []*MemRef
	calls   []*CallSite
	globals []SymID
}

// Procedures returns all the procedures, in id order
func (p *Program) Procedures() []*Procedure { return p.procs }

// Procedure returns the procedure with the given id. Panics for an id that is not in the program.
func (p *Program) Procedure(id ProcID) *Procedure {
	if id < 0 || int(id) >= len(p.procs) {
		panic(fmt.Sprintf("procedure %d is not in the program", id))
	}
	return p.procs[id]
}

// NumProcedures returns the number of procedures
func (p *Program) NumProcedures() int { return len(p.procs) }

// Symbols returns all the symbols, in id order
func (p *Program) Symbols() []*Symbol { return p.syms }

// Symbol returns the symbol with the given id
func (p *Program) Symbol(id SymID) *Symbol { return p.syms[id] }

// Globals returns the global symbols
func (p *Program) Globals() []SymID { return p.globals }

// Stmt returns the statement with the given id
func (p *Program) Stmt(id StmtID) *Stmt { return p.stmts[id] }

// NumStmts returns the number of statements
func (p *Program) NumStmts() int { return len(p.stmts) }

// MemRef returns the memory reference with the given id
func (p *Program) MemRef(id MemRefID) *MemRef { return p.memrefs[id] }

// NumMemRefs returns the number of memory references of the program
func (p *Program) NumMemRefs() int { return len(p.memrefs) }

// Call returns the call site with the given id
func (p *Program) Call(id CallID) *CallSite { return p.calls[id] }

// Calls returns all the call sites, in id order
func (p *Program) Calls() []*CallSite { return p.calls }

// StmtsOf returns the statements of the procedure, block by block. The returned slice is fresh.
func (p *Program) StmtsOf(proc ProcID) []StmtID {
	var stmts []StmtID
	for _, b := range p.Procedure(proc).Blocks {
		stmts = append(stmts, b.Stmts...)
	}
	return stmts
}

// SymbolSize returns the static size in bytes of the symbol
func (p *Program) SymbolSize(id SymID) int64 {
	return p.syms[id].Size
}

// Name returns the name of the symbol. It implements Namer.
func (p *Program) Name(id SymID) string {
	if id < 0 || int(id) >= len(p.syms) {
		return fmt.Sprintf("sym%d", id)
	}
	return p.syms[id].Name
}

// ProcName returns the name of the procedure. It implements Namer.
func (p *Program) ProcName(id ProcID) string {
	if id < 0 || int(id) >= len(p.procs) {
		return "<none>"
	}
	return p.procs[id].Name
}

// LookupSymbol returns the symbol named name in proc, or the global named name if proc has none.
func (p *Program) LookupSymbol(proc ProcID, name string) SymID {
	if proc != NoProc {
		pr := p.Procedure(proc)
		for _, group := range [][]SymID{pr.Formals, pr.Results, pr.Locals} {
			for _, s := range group {
				if p.syms[s].Name == name {
					return s
				}
			}
		}
	}
	for _, g := range p.globals {
		if p.syms[g].Name == name {
			return g
		}
	}
	return NoSym
}

// StmtString returns a short representation of the statement
func (p *Program) StmtString(id StmtID) string {
	s := p.stmts[id]
	if s.Text != "" {
		return s.Text
	}
	return fmt.Sprintf("%s#%d", s.Kind, s.ID)
}

// Namer gives names to symbols and procedures
type Namer interface {
	Name(SymID) string
	ProcName(ProcID) string
}
