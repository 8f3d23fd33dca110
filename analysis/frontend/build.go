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

package frontend

import (
	"fmt"
	"go/token"
	"go/types"
	"sort"
	"strings"

	"github.com/awslabs/argot-activity/analysis/alias"
	"github.com/awslabs/argot-activity/analysis/config"
	"github.com/awslabs/argot-activity/analysis/ir"
	"github.com/awslabs/argot-activity/internal/analysisutil"
	"golang.org/x/tools/go/callgraph/cha"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// Result is the IR translation of an SSA program, with the collaborators the activity analyses consume.
type Result struct {
	Program  *ir.Program
	Aliases  *alias.FIAlias
	Bindings *ir.PositionalBindings
	ICFG     *ir.Graph

	// FuncOf maps each procedure to the function it translates
	FuncOf map[ir.ProcID]*ssa.Function
	// ProcOf maps each translated function to its procedure
	ProcOf map[*ssa.Function]ir.ProcID

	Fset *token.FileSet
}

// translator holds the state shared by the translation of all the functions of a program
type translator struct {
	logger  *config.LogGroup
	b       *ir.Builder
	fset    *token.FileSet
	sizes   types.Sizes
	procOf  map[*ssa.Function]ir.ProcID
	funcOf  map[ir.ProcID]*ssa.Function
	syms    map[ssa.Value]ir.SymID
	globals map[*ssa.Global]ir.SymID
	// invokes maps interface method calls to the callees computed by CHA
	invokes map[ssa.CallInstruction][]*ssa.Function
}

// Build translates the functions of prog that pass the package filter of cfg into an IR program, and computes the
// alias information, the parameter bindings and the interprocedural control flow graph of that program.
// Without a package filter, every function of the program is translated, the standard library included.
func Build(logger *config.LogGroup, cfg *config.Config, prog *ssa.Program) (*Result, error) {
	logger = config.OrDefault(logger)
	if cfg == nil {
		cfg = config.NewDefault()
	}
	t := &translator{
		logger:  logger,
		b:       ir.NewBuilder(),
		fset:    prog.Fset,
		sizes:   types.SizesFor("gc", "amd64"),
		procOf:  map[*ssa.Function]ir.ProcID{},
		funcOf:  map[ir.ProcID]*ssa.Function{},
		syms:    map[ssa.Value]ir.SymID{},
		globals: map[*ssa.Global]ir.SymID{},
	}
	if cfg.UseCHA {
		t.invokes = invokeCallees(prog)
	}

	funcs := selectFunctions(cfg, prog)
	for _, fn := range funcs {
		t.declare(fn)
	}
	for _, fn := range funcs {
		t.translate(fn)
	}

	irprog, err := t.b.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to translate program: %w", err)
	}
	logger.Debugf("frontend: %d procedures, %d statements, %d call sites\n",
		irprog.NumProcedures(), irprog.NumStmts(), len(irprog.Calls()))

	aliases := alias.NewFIAlias(logger, irprog, nil)
	return &Result{
		Program:  irprog,
		Aliases:  aliases,
		Bindings: ir.NewParamBindings(irprog),
		ICFG:     ir.NewICFG(irprog),
		FuncOf:   t.funcOf,
		ProcOf:   t.procOf,
		Fset:     prog.Fset,
	}, nil
}

// selectFunctions returns the functions that are translated, in a deterministic order
func selectFunctions(cfg *config.Config, prog *ssa.Program) []*ssa.Function {
	var funcs []*ssa.Function
	for fn := range ssautil.AllFunctions(prog) {
		// Generic function bodies are not translated; calls to them are unresolved.
		if len(fn.Blocks) == 0 || fn.Pkg == nil || isGeneric(fn.Signature) {
			continue
		}
		if !cfg.MatchPkgFilter(fn.Pkg.Pkg.Path()) {
			continue
		}
		funcs = append(funcs, fn)
	}
	sort.Slice(funcs, func(i, j int) bool {
		si, sj := funcs[i].String(), funcs[j].String()
		if si != sj {
			return si < sj
		}
		return funcs[i].Pos() < funcs[j].Pos()
	})
	return funcs
}

func isGeneric(sig *types.Signature) bool {
	return sig.TypeParams().Len() > 0 || sig.RecvTypeParams().Len() > 0
}

// invokeCallees resolves the interface method calls of prog with class hierarchy analysis
func invokeCallees(prog *ssa.Program) map[ssa.CallInstruction][]*ssa.Function {
	res := map[ssa.CallInstruction][]*ssa.Function{}
	cg := cha.CallGraph(prog)
	for _, node := range cg.Nodes {
		for _, e := range node.Out {
			if e.Site != nil && e.Site.Common().IsInvoke() && e.Callee.Func != nil {
				res[e.Site] = append(res[e.Site], e.Callee.Func)
			}
		}
	}
	for _, callees := range res {
		sort.Slice(callees, func(i, j int) bool { return callees[i].String() < callees[j].String() })
	}
	return res
}

// declare creates the procedure of fn with its formals and results
func (t *translator) declare(fn *ssa.Function) {
	p := t.b.Procedure(fn.String())
	t.procOf[fn] = p
	t.funcOf[p] = fn
	for _, param := range fn.Params {
		t.syms[param] = t.b.Formal(p, param.Name(), false, t.sizeof(param.Type()))
	}
	results := fn.Signature.Results()
	for i := 0; i < results.Len(); i++ {
		t.b.Result(p, t.sizeof(results.At(i).Type()))
	}
}

func (t *translator) sizeof(typ types.Type) int64 {
	if tuple, ok := typ.(*types.Tuple); ok {
		var size int64
		for i := 0; i < tuple.Len(); i++ {
			size += t.sizeof(tuple.At(i).Type())
		}
		return size
	}
	if _, ok := typ.(*types.TypeParam); ok {
		return 0
	}
	return t.sizes.Sizeof(typ)
}

func (t *translator) global(g *ssa.Global) ir.SymID {
	if s, ok := t.globals[g]; ok {
		return s
	}
	name := g.Name()
	if g.Pkg != nil {
		name = g.Pkg.Pkg.Name() + "." + name
	}
	s := t.b.Global(name, t.sizeof(deref(g.Type())))
	t.globals[g] = s
	return s
}

func deref(typ types.Type) types.Type {
	if p, ok := typ.Underlying().(*types.Pointer); ok {
		return p.Elem()
	}
	return typ
}

// funcTranslator translates the body of one function
type funcTranslator struct {
	*translator
	fn   *ssa.Function
	proc ir.ProcID
}

func (t *translator) translate(fn *ssa.Function) {
	ft := &funcTranslator{translator: t, fn: fn, proc: t.procOf[fn]}
	// Block indexes of the procedure are the indexes of the SSA blocks
	for i := 1; i < len(fn.Blocks); i++ {
		t.b.NewBlock(ft.proc)
	}
	for _, blk := range fn.Blocks {
		for _, succ := range blk.Succs {
			t.b.Jump(ft.proc, blk.Index, succ.Index)
		}
		for _, instr := range blk.Instrs {
			s := ft.instr(blk.Index, instr)
			if s != ir.NoStmt && instr.Pos().IsValid() {
				t.b.SetPos(s, t.fset.Position(instr.Pos()), instrText(instr))
			}
		}
	}
}

func instrText(instr ssa.Instruction) string {
	if v, ok := instr.(ssa.Value); ok && v.Name() != "" {
		return v.Name() + " = " + instr.String()
	}
	return instr.String()
}

// sym returns the symbol holding the value v in the procedure, creating a local symbol on first use
func (ft *funcTranslator) sym(v ssa.Value) ir.SymID {
	if s, ok := ft.syms[v]; ok {
		return s
	}
	s := ft.b.Local(ft.proc, v.Name(), ft.sizeof(v.Type()))
	ft.syms[v] = s
	return s
}

// value returns the expression computing v
func (ft *funcTranslator) value(v ssa.Value) ir.Expr {
	switch v := v.(type) {
	case *ssa.Const:
		if v.Value == nil {
			return ir.Const("nil")
		}
		return ir.Const(v.Value.ExactString())
	case *ssa.Function:
		return ir.Const(v.String())
	case *ssa.Builtin:
		return ir.Const(v.Name())
	case *ssa.Global:
		return ir.Use(ir.Addr(ir.Named(ft.global(v))))
	default:
		return ir.Use(ir.Named(ft.sym(v)))
	}
}

// storage returns the memory reference of the value v
func (ft *funcTranslator) storage(v ssa.Value) ir.MemRefExpr {
	return ir.Named(ft.sym(v))
}

// pointee returns the memory reference of the storage the pointer v points to
func (ft *funcTranslator) pointee(v ssa.Value) ir.MemRefExpr {
	if g, ok := v.(*ssa.Global); ok {
		return ir.Named(ft.global(g))
	}
	return ir.Deref(ir.Named(ft.sym(v)))
}

func (ft *funcTranslator) operands(instr ssa.Instruction) []ir.Expr {
	var res []ir.Expr
	for _, op := range instr.Operands(nil) {
		if op != nil && *op != nil {
			res = append(res, ft.value(*op))
		}
	}
	return res
}

func opName(instr ssa.Instruction) string {
	return strings.ToLower(strings.TrimPrefix(fmt.Sprintf("%T", instr), "*ssa."))
}

// instr translates instr into a statement of block blk, returning ir.NoStmt when instr has no statement
func (ft *funcTranslator) instr(blk int, instr ssa.Instruction) ir.StmtID {
	p := ft.proc
	b := ft.b
	switch i := instr.(type) {
	case *ssa.Alloc:
		if i.Heap {
			return b.Alloc(p, blk, ft.storage(i))
		}
		name := i.Comment
		if name == "" {
			name = i.Name() + "$cell"
		}
		cell := b.Local(p, name, ft.sizeof(deref(i.Type())))
		return b.Assign(p, blk, ft.storage(i), ir.Use(ir.Addr(ir.Named(cell))))
	case *ssa.MakeSlice, *ssa.MakeMap, *ssa.MakeChan:
		return b.Alloc(p, blk, ft.storage(i.(ssa.Value)))
	case *ssa.Store:
		return b.Assign(p, blk, ft.pointee(i.Addr), ft.value(i.Val))
	case *ssa.UnOp:
		if i.Op == token.MUL {
			return b.Assign(p, blk, ft.storage(i), ir.Use(ft.pointee(i.X)))
		}
		return b.Assign(p, blk, ft.storage(i), ir.Op(i.Op.String(), ft.value(i.X)))
	case *ssa.BinOp:
		return b.Assign(p, blk, ft.storage(i), ir.Op(i.Op.String(), ft.value(i.X), ft.value(i.Y)))
	case *ssa.FieldAddr:
		field := ir.Field(ft.pointee(i.X), analysisutil.FieldAddrFieldName(i))
		return b.Assign(p, blk, ft.storage(i), ir.Use(ir.Addr(field)))
	case *ssa.Field:
		field := ir.Field(ft.storage(i.X), analysisutil.FieldFieldName(i))
		return b.Assign(p, blk, ft.storage(i), ir.Use(field))
	case *ssa.IndexAddr:
		return b.Assign(p, blk, ft.storage(i), ir.Use(ir.Addr(ir.Index(ft.pointee(i.X)))))
	case *ssa.Index:
		return b.Assign(p, blk, ft.storage(i), ir.Use(ir.Index(ft.storage(i.X))))
	case *ssa.Lookup:
		if _, isMap := i.X.Type().Underlying().(*types.Map); isMap {
			return b.Assign(p, blk, ft.storage(i), ir.Use(ir.Index(ft.pointee(i.X))))
		}
		return b.Assign(p, blk, ft.storage(i), ir.Op("lookup", ft.value(i.X), ft.value(i.Index)))
	case *ssa.MapUpdate:
		return b.Assign(p, blk, ir.Index(ft.pointee(i.Map)), ft.value(i.Value))
	case *ssa.Extract:
		field := ir.Field(ft.storage(i.Tuple), analysisutil.TupleFieldName(i.Index))
		return b.Assign(p, blk, ft.storage(i), ir.Use(field))
	case *ssa.Phi:
		return b.Assign(p, blk, ft.storage(i), ir.Op("phi", ft.operands(i)...))
	case *ssa.Call:
		return ft.call(blk, i, i)
	case *ssa.Go:
		return ft.call(blk, i, nil)
	case *ssa.Defer:
		return ft.call(blk, i, nil)
	case *ssa.Return:
		return b.Return(p, blk, ft.operands(i)...)
	case *ssa.If:
		return b.Branch(p, blk, ft.value(i.Cond))
	case *ssa.Jump, *ssa.DebugRef, *ssa.RunDefers:
		return ir.NoStmt
	case ssa.Value:
		return b.Assign(p, blk, ft.storage(i), ir.Op(opName(instr), ft.operands(instr)...))
	default:
		return b.Other(p, blk, nil, ft.operands(instr))
	}
}

// call translates a call instruction. The result is nil for go and defer statements.
func (ft *funcTranslator) call(blk int, instr ssa.CallInstruction, result ssa.Value) ir.StmtID {
	common := instr.Common()
	if b, ok := common.Value.(*ssa.Builtin); ok && !common.IsInvoke() {
		return ft.builtin(blk, b, common.Args, result)
	}
	var actuals []ir.Expr
	if common.IsInvoke() {
		actuals = append(actuals, ft.value(common.Value))
	}
	for _, arg := range common.Args {
		actuals = append(actuals, ft.value(arg))
	}
	var results []ir.MemRefExpr
	if result != nil {
		if tuple, ok := result.Type().(*types.Tuple); ok {
			for k := 0; k < tuple.Len(); k++ {
				results = append(results, ir.Field(ft.storage(result), analysisutil.TupleFieldName(k)))
			}
		} else {
			results = append(results, ft.storage(result))
		}
	}
	callees := ft.callees(instr, len(actuals))
	if len(callees) == 0 {
		ft.logger.Tracef("unresolved call %s in %s\n", instr, ft.fn)
	}
	s, _ := ft.b.Call(ft.proc, blk, callees, actuals, results)
	return s
}

// callees returns the procedures called by instr. The call is unresolved when one of its possible callees has not
// been translated.
func (ft *funcTranslator) callees(instr ssa.CallInstruction, numActuals int) []ir.ProcID {
	var funcs []*ssa.Function
	if f := instr.Common().StaticCallee(); f != nil {
		funcs = []*ssa.Function{f}
	} else if instr.Common().IsInvoke() {
		funcs = ft.invokes[instr]
	}
	var res []ir.ProcID
	for _, f := range funcs {
		p, ok := ft.procOf[f]
		if !ok || len(f.Params) < numActuals {
			return nil
		}
		res = append(res, p)
	}
	return res
}

// builtin translates a call to a builtin function. Builtins are not procedures: their effect on memory is
// translated directly.
func (ft *funcTranslator) builtin(blk int, b *ssa.Builtin, args []ssa.Value, result ssa.Value) ir.StmtID {
	var uses []ir.Expr
	for _, arg := range args {
		uses = append(uses, ft.value(arg))
	}
	switch b.Name() {
	case "copy":
		if len(args) == 2 {
			if _, isString := args[1].Type().Underlying().(*types.Basic); isString {
				return ft.b.Assign(ft.proc, blk, ir.Index(ft.pointee(args[0])), uses[1])
			}
			return ft.b.Assign(ft.proc, blk, ir.Index(ft.pointee(args[0])), ir.Use(ir.Index(ft.pointee(args[1]))))
		}
	case "delete", "clear":
		if len(args) > 0 {
			return ft.b.Other(ft.proc, blk, []ir.MemRefExpr{ir.Index(ft.pointee(args[0]))}, uses[1:])
		}
	}
	if result != nil && result.Name() != "" {
		if tuple, ok := result.Type().(*types.Tuple); !ok || tuple.Len() > 0 {
			return ft.b.Assign(ft.proc, blk, ft.storage(result), ir.Op(b.Name(), uses...))
		}
	}
	return ft.b.Other(ft.proc, blk, nil, uses)
}
