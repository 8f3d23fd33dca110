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

// Package analysistest loads the Go test programs of the analyses and reads the expected results annotated in their
// source.
package analysistest

import (
	"fmt"
	"go/parser"
	"go/token"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/awslabs/argot-activity/analysis/config"
	"github.com/awslabs/argot-activity/analysis/frontend"
	"golang.org/x/tools/go/ssa"
)

// LoadTest loads the program in the directory dir, looking for a main.go and a config.yaml. If additional files
// are specified as extraFiles, the program will be loaded using those files too.
func LoadTest(t *testing.T, dir string, extraFiles []string) (*ssa.Program, *config.Config) {
	configFile := filepath.Join(dir, "config.yaml")
	files := []string{filepath.Join(dir, "./main.go")}
	for _, extraFile := range extraFiles {
		files = append(files, filepath.Join(dir, extraFile))
	}

	lp, err := frontend.LoadProgram(nil, "", ssa.BuilderMode(0), files)
	if err != nil {
		t.Fatalf("error loading packages: %v", err)
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		t.Fatalf("error loading config: %v", err)
	}
	return lp.Program, cfg
}

// ActiveRegex matches annotations of the form "@Active"
var ActiveRegex = regexp.MustCompile(`//.*@Active\b`)

// InactiveRegex matches annotations of the form "@Inactive"
var InactiveRegex = regexp.MustCompile(`//.*@Inactive\b`)

// LPos is a position without column. Filename is the base name of the file.
type LPos struct {
	Filename string
	Line     int
}

func (p LPos) String() string {
	return fmt.Sprintf("%s:%d", p.Filename, p.Line)
}

// RemoveColumn drops the column and the directory of the position
func RemoveColumn(pos token.Position) LPos {
	return LPos{Line: pos.Line, Filename: filepath.Base(pos.Filename)}
}

// GetExpectedActivity analyzes the files in dir and looks for comments @Active and @Inactive. It returns a map from
// annotated lines to true when the line is expected to contain an active statement, and to false when it is
// expected to contain none.
func GetExpectedActivity(dir string) (map[LPos]bool, error) {
	fset := token.NewFileSet() // positions are relative to fset
	pkgs, err := parser.ParseDir(fset, dir, nil, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", dir, err)
	}

	expected := map[LPos]bool{}
	for _, pkg := range pkgs {
		for _, f := range pkg.Files {
			for _, c := range f.Comments {
				for _, c1 := range c.List {
					pos := RemoveColumn(fset.Position(c1.Pos()))
					switch {
					case ActiveRegex.MatchString(c1.Text):
						expected[pos] = true
					case InactiveRegex.MatchString(c1.Text):
						expected[pos] = false
					}
				}
			}
		}
	}
	return expected, nil
}
