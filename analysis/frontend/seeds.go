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
	"errors"
	"fmt"
	"strings"

	"github.com/awslabs/argot-activity/analysis/activity"
	"github.com/awslabs/argot-activity/analysis/config"
	"github.com/awslabs/argot-activity/analysis/ir"
	"github.com/awslabs/argot-activity/analysis/loc"
	"github.com/awslabs/argot-activity/internal/analysisutil"
)

// Seeds returns the activity problem specified by the activity problems of cfg over the translated program. Every
// variable name that cannot be resolved in a matched function is reported in the returned error; the problem
// returned still contains all the names that could be resolved.
func Seeds(logger *config.LogGroup, cfg *config.Config, res *Result) (activity.Problem, error) {
	logger = config.OrDefault(logger)
	problem := activity.Problem{
		Independents: map[ir.ProcID][]loc.Handle{},
		Dependents:   map[ir.ProcID][]loc.Handle{},
	}
	var errs []error
	for _, proc := range res.Program.Procedures() {
		fn := res.FuncOf[proc.ID]
		if fn == nil {
			continue
		}
		for _, spec := range cfg.ProblemsFor(analysisutil.FuncIdentifier(fn)) {
			for _, name := range spec.Independents {
				h, err := resolveVariable(res, proc.ID, name)
				if err != nil {
					errs = append(errs, err)
					continue
				}
				problem.Independents[proc.ID] = append(problem.Independents[proc.ID], h)
			}
			for _, name := range spec.Dependents {
				h, err := resolveVariable(res, proc.ID, name)
				if err != nil {
					errs = append(errs, err)
					continue
				}
				problem.Dependents[proc.ID] = append(problem.Dependents[proc.ID], h)
			}
			logger.Debugf("%s: %d independents, %d dependents\n", proc.Name,
				len(problem.Independents[proc.ID]), len(problem.Dependents[proc.ID]))
		}
	}
	return problem, errors.Join(errs...)
}

// resolveVariable returns the location denoted by name in proc. The name is the name of a formal, a result ($ret0,
// ...), a local cell, a global (qualified by its package name or not), or *p for the memory pointed to by the
// formal p.
func resolveVariable(res *Result, proc ir.ProcID, name string) (loc.Handle, error) {
	prog := res.Program
	arena := res.Aliases.Arena()
	if pointer, ok := strings.CutPrefix(name, config.PointeePrefix); ok {
		sym := prog.LookupSymbol(proc, pointer)
		if sym == ir.NoSym || prog.Symbol(sym).Kind != ir.FormalSym {
			return loc.UnknownHandle, fmt.Errorf("%s: %q is not a parameter", prog.ProcName(proc), pointer)
		}
		return arena.Intern(loc.Invisible{Formal: sym, Proc: proc}), nil
	}
	sym := prog.LookupSymbol(proc, name)
	if sym == ir.NoSym {
		if fn := res.FuncOf[proc]; fn != nil && fn.Pkg != nil {
			sym = prog.LookupSymbol(proc, fn.Pkg.Pkg.Name()+"."+name)
		}
	}
	if sym == ir.NoSym {
		return loc.UnknownHandle, fmt.Errorf("%s: no variable named %q", prog.ProcName(proc), name)
	}
	return arena.NamedHandle(prog.Symbol(sym)), nil
}
