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

// Package annotate writes copies of Go source files where the active statements are marked with an end-of-line
// comment listing their active variables.
package annotate

import (
	"bytes"
	"fmt"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"

	"github.com/awslabs/argot-activity/internal/funcutil"
	"github.com/dave/dst"
	"github.com/dave/dst/decorator"
	"github.com/dave/dst/dstutil"
)

// Prefix starts every comment added by the annotator
const Prefix = "// active:"

// Source parses the Go file src and returns its source where the first simple statement of each line in lines is
// followed by a comment listing the names lines maps that line to.
func Source(filename string, src []byte, lines map[int][]string) ([]byte, error) {
	fset := token.NewFileSet()
	// the decorator does not survive partial files, parse errors are reported first
	astFile, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
	}
	dec := decorator.NewDecorator(fset)
	f, err := dec.DecorateFile(astFile)
	if err != nil {
		return nil, fmt.Errorf("failed to decorate %s: %w", filename, err)
	}

	done := map[int]bool{}
	dstutil.Apply(f, nil, func(c *dstutil.Cursor) bool {
		n := c.Node()
		if !isSimpleStmt(n) {
			return true
		}
		astNode, ok := dec.Ast.Nodes[n]
		if !ok {
			return true
		}
		line := fset.Position(astNode.Pos()).Line
		names, ok := lines[line]
		if !ok || done[line] {
			return true
		}
		done[line] = true
		n.Decorations().End.Append(comment(names))
		return true
	})

	var buf bytes.Buffer
	if err := decorator.Fprint(&buf, f); err != nil {
		return nil, fmt.Errorf("failed to print %s: %w", filename, err)
	}
	return buf.Bytes(), nil
}

// isSimpleStmt returns true for the statements that fit on one line
func isSimpleStmt(n dst.Node) bool {
	switch n.(type) {
	case *dst.AssignStmt, *dst.ExprStmt, *dst.IncDecStmt, *dst.ReturnStmt, *dst.SendStmt, *dst.DeclStmt,
		*dst.GoStmt, *dst.DeferStmt:
		return true
	default:
		return false
	}
}

func comment(names []string) string {
	sorted := funcutil.Dedup(append([]string(nil), names...))
	return Prefix + " " + strings.Join(sorted, ", ")
}

// Files writes an annotated copy of each file of lines into dir. The keys of lines are file names, and the values
// map line numbers to the names listed on that line. The copies keep the base name of the original files. Files
// returns the paths of the files written.
func Files(dir string, lines map[string]map[int][]string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create %s: %w", dir, err)
	}
	filenames := funcutil.SortedKeys(lines)
	var written []string
	for _, filename := range filenames {
		src, err := os.ReadFile(filename)
		if err != nil {
			return written, fmt.Errorf("could not read %s: %w", filename, err)
		}
		out, err := Source(filename, src, lines[filename])
		if err != nil {
			return written, err
		}
		target := filepath.Join(dir, filepath.Base(filename))
		if err := os.WriteFile(target, out, 0o644); err != nil {
			return written, fmt.Errorf("could not write %s: %w", target, err)
		}
		written = append(written, target)
	}
	return written, nil
}
