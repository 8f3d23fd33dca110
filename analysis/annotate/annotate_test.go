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

package annotate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sample = `package main

func f(x float64) float64 {
	y := x * 2
	z := 3.0
	if y > z {
		y = y + z
	}
	return y
}
`

func TestSource(t *testing.T) {
	tests := []struct {
		name  string
		lines map[int][]string
		want  []string
		not   []string
	}{
		{
			name:  "assignment",
			lines: map[int][]string{4: {"y", "x"}},
			want:  []string{"y := x * 2 // active: x, y"},
			not:   []string{"z := 3.0 //"},
		},
		{
			name:  "duplicate names",
			lines: map[int][]string{7: {"y", "y"}},
			want:  []string{"y = y + z // active: y"},
		},
		{
			name:  "return",
			lines: map[int][]string{9: {"y"}},
			want:  []string{"return y // active: y"},
		},
		{
			name:  "compound statements are not annotated",
			lines: map[int][]string{6: {"y"}},
			not:   []string{Prefix},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Source("sample.go", []byte(sample), tt.lines)
			if err != nil {
				t.Fatalf("Source returned an error: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(string(out), w) {
					t.Errorf("expected %q in output:\n%s", w, out)
				}
			}
			for _, n := range tt.not {
				if strings.Contains(string(out), n) {
					t.Errorf("did not expect %q in output:\n%s", n, out)
				}
			}
		})
	}
}

func TestSourceInvalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"missing package name", "package"},
		{"unterminated function", "package main\n\nfunc f() {\n\tx := 1\n"},
		{"bad statement", "package main\n\nfunc f() {\n\tx := := 1\n}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Source("bad.go", []byte(tt.src), map[int][]string{4: {"x"}})
			if err == nil {
				t.Fatalf("expected a parse error")
			}
			if !strings.Contains(err.Error(), "failed to parse bad.go") {
				t.Errorf("unexpected error %q", err)
			}
		})
	}
}

func TestFiles(t *testing.T) {
	src := t.TempDir()
	filename := filepath.Join(src, "sample.go")
	if err := os.WriteFile(filename, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(t.TempDir(), "annotated")
	written, err := Files(out, map[string]map[int][]string{filename: {4: {"y"}}})
	if err != nil {
		t.Fatalf("Files returned an error: %v", err)
	}
	if len(written) != 1 || written[0] != filepath.Join(out, "sample.go") {
		t.Fatalf("unexpected files written: %v", written)
	}
	b, err := os.ReadFile(written[0])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "y := x * 2 // active: y") {
		t.Errorf("annotated file does not contain the comment:\n%s", b)
	}
	if _, err := Files(out, map[string]map[int][]string{filepath.Join(src, "missing.go"): {1: {"x"}}}); err == nil {
		t.Errorf("expected an error for a missing file")
	}
}
