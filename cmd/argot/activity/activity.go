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

package activity

import (
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/awslabs/argot-activity/analysis/activity"
	"github.com/awslabs/argot-activity/analysis/annotate"
	"github.com/awslabs/argot-activity/analysis/config"
	"github.com/awslabs/argot-activity/analysis/frontend"
	"github.com/awslabs/argot-activity/analysis/ir"
	"github.com/awslabs/argot-activity/analysis/loc"
	"github.com/awslabs/argot-activity/cmd/argot/tools"
	"github.com/awslabs/argot-activity/internal/formatutil"
	"github.com/awslabs/argot-activity/internal/funcutil"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
)

// Usage is the help message of the activity command
const Usage = ` Compute the active variables and statements of your functions.
Usage:
  argot activity [options] <package path(s)>
Examples:
  % argot activity -config config.yaml package...
  % argot activity -config config.yaml -annotate out main.go
`

// Flags represents the parsed flags for the activity analysis.
type Flags struct {
	tools.CommonFlags
	annotateDir string
}

// NewFlags returns the parsed flags for the activity analysis with args.
func NewFlags(args []string) (Flags, error) {
	flags := tools.NewUnparsedCommonFlags("activity")
	annotateDir := flags.FlagSet.String("annotate", "",
		"write annotated copies of the source files in this directory")
	tools.SetUsage(flags.FlagSet, Usage)
	if err := flags.FlagSet.Parse(args); err != nil {
		return Flags{}, fmt.Errorf("failed to parse command activity with args %v: %w", args, err)
	}

	return Flags{
		CommonFlags: tools.CommonFlags{
			FlagSet:    flags.FlagSet,
			ConfigPath: *flags.ConfigPath,
			Verbose:    *flags.Verbose,
			WithTest:   *flags.WithTest,
		},
		annotateDir: *annotateDir,
	}, nil
}

// Run runs the activity analysis with flags, printing the results on w.
func Run(flags Flags, w io.Writer) error {
	cfg, err := tools.LoadConfig(flags.ConfigPath)
	if err != nil {
		return err
	}
	// Override config parameters with command-line parameters
	if flags.Verbose {
		cfg.LogLevel = int(config.DebugLevel)
	}
	logger := config.NewLogGroup(cfg)
	logger.Infof(formatutil.Faint("Argot activity tool - " + tools.Version))
	logger.Infof(formatutil.Faint("Reading sources") + "\n")

	lp, err := frontend.LoadProgram(tools.PackagesConfig(flags.WithTest), "", ssa.InstantiateGenerics,
		flags.FlagSet.Args())
	if err != nil {
		return fmt.Errorf("could not load program: %w", err)
	}
	if cfg.PkgFilter == "" {
		cfg.SetPkgFilter(packagesFilter(lp.Packages))
	}
	logger.Infof("Loaded %d packages, analyzing packages matching %q\n", lp.NumPackages, cfg.PkgFilter)

	res, err := frontend.Build(logger, cfg, lp.Program)
	if err != nil {
		return fmt.Errorf("activity analysis failed: %w", err)
	}
	problem, err := frontend.Seeds(logger, cfg, res)
	if err != nil {
		return fmt.Errorf("invalid activity problem: %w", err)
	}
	if problem.IsEmpty() {
		logger.Warnf("no activity problem matched a function of the program\n")
	}

	start := time.Now()
	m := activity.NewManager(logger)
	m.VaryOnly = cfg.VaryOnly
	result := m.PerformAnalysis(res.Program, res.ICFG, res.Aliases, res.Bindings, problem)
	logger.Infof("Analysis took %3.4f s\n", time.Since(start).Seconds())

	Report(w, res, result)

	dir := flags.annotateDir
	if dir == "" && cfg.ReportsDir != "" {
		dir = cfg.ReportsDir
		if !filepath.IsAbs(dir) {
			dir = cfg.RelPath(dir)
		}
	}
	if dir != "" {
		written, err := annotate.Files(dir, ActiveLines(res, m))
		if err != nil {
			return fmt.Errorf("failed to annotate sources: %w", err)
		}
		for _, f := range written {
			logger.Infof("Wrote %s\n", f)
		}
	}
	return nil
}

// packagesFilter returns a regex matching exactly the paths of pkgs
func packagesFilter(pkgs []*packages.Package) string {
	paths := funcutil.Map(pkgs, func(p *packages.Package) string { return regexp.QuoteMeta(p.PkgPath) })
	return "^(" + strings.Join(funcutil.Dedup(paths), "|") + ")$"
}

// Report prints the active statements of each procedure, the active symbols and the statistics of the analysis
func Report(w io.Writer, res *frontend.Result, result *activity.InterActive) {
	prog := res.Program
	for _, proc := range result.Procedures() {
		stmts := result.ActiveStmts(proc)
		if len(stmts) == 0 {
			continue
		}
		fmt.Fprintf(w, "%s (%d active statements)\n", formatutil.Bold(prog.ProcName(proc)), len(stmts))
		for _, s := range stmts {
			pos := prog.Stmt(s).Pos
			if pos.IsValid() {
				fmt.Fprintf(w, "  %s %s\n", formatutil.Faint(pos.String()), formatutil.Sanitize(prog.StmtString(s)))
			} else {
				fmt.Fprintf(w, "  %s\n", formatutil.Sanitize(prog.StmtString(s)))
			}
		}
	}

	syms := funcutil.Map(result.ActiveSymbols(), prog.Name)
	slices.Sort(syms)
	fmt.Fprintf(w, "%s %d symbols, %d bytes\n", formatutil.Green("Active:"), len(syms), result.SizeInBytes())
	for _, s := range syms {
		fmt.Fprintf(w, "  %s\n", s)
	}
	if result.UnknownActive() {
		fmt.Fprintf(w, "%s\n", formatutil.Red("The unknown location is active: every symbol is active"))
	}
	stats := result.Stats()
	fmt.Fprintf(w, "Sweeps: dep %d, useful %d, vary %d\n",
		stats.DepIterations, stats.UsefulIterations, stats.VaryIterations)
	for _, p := range stats.RecursiveProcedures {
		fmt.Fprintf(w, "%s %s is recursive\n", formatutil.Yellow("Note:"), prog.ProcName(p))
	}
	for _, cycle := range stats.RecursionCycles {
		names := funcutil.Map(cycle, prog.ProcName)
		fmt.Fprintf(w, "%s recursion cycle %s -> %s\n", formatutil.Yellow("Note:"),
			strings.Join(names, " -> "), names[0])
	}
}

// ActiveLines returns, for each source file, the lines holding active statements with the names of the locations
// those statements define.
func ActiveLines(res *frontend.Result, m *activity.Manager) map[string]map[int][]string {
	prog := res.Program
	arena := res.Aliases.Arena()
	lines := map[string]map[int][]string{}
	active := m.ActivePerStmt()
	for i := 0; i < prog.NumStmts(); i++ {
		s := ir.StmtID(i)
		pos := prog.Stmt(s).Pos
		if !pos.IsValid() || !active.IsActiveStmt(s) {
			continue
		}
		if _, ok := lines[pos.Filename]; !ok {
			lines[pos.Filename] = map[int][]string{}
		}
		for _, h := range active.ActiveDefs(s).Handles() {
			lines[pos.Filename][pos.Line] = append(lines[pos.Filename][pos.Line], shortName(arena, prog, h))
		}
	}
	for _, l := range lines {
		for _, line := range maps.Keys(l) {
			l[line] = funcutil.Dedup(l[line])
		}
	}
	return lines
}

func shortName(arena *loc.Arena, prog *ir.Program, h loc.Handle) string {
	if _, isNamed := arena.Get(h).(loc.Named); isNamed {
		sym, _ := arena.Symbol(h)
		return prog.Name(sym)
	}
	return arena.Format(h, prog)
}
