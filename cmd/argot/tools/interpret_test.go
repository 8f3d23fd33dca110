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

package tools

import (
	"strings"
	"testing"
)

func TestHintForErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		errorMsg string
		hint     string
	}{
		{
			name:     "flag after files",
			errorMsg: "error: could not load program:\n -: named files must be .go files: -v",
			hint:     "all command line flags should be before the path",
		},
		{
			name:     "failed load",
			errorMsg: "error: could not load program:\n errors found, exiting\n",
			hint:     "you have provided the right arguments for an analyzer to load a Go program",
		},
		{
			name:     "unknown variable",
			errorMsg: "error: invalid activity problem: command-line-arguments.f: no variable named \"y\"",
			hint:     "only parameters, results ($ret0, ...), address-taken locals and globals can be named",
		},
		{
			name:     "pointee of a local",
			errorMsg: "error: invalid activity problem: command-line-arguments.f: \"z\" is not a parameter",
			hint:     "*p denotes the memory pointed to by the parameter p",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if hint := HintForErrorMessage(tt.errorMsg); !strings.Contains(hint, tt.hint) {
				t.Errorf("incorrect hint %q; check and update error message if necessary", hint)
			}
		})
	}
}

func TestNoHint(t *testing.T) {
	if hint := HintForErrorMessage("something else"); hint != "" {
		t.Errorf("expected no hint, got %q", hint)
	}
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil || cfg == nil || !cfg.UseCHA {
		t.Errorf("an empty path should yield the default config, got %v, %v", cfg, err)
	}
	if _, err := LoadConfig("does-not-exist.yaml"); err == nil {
		t.Errorf("expected an error for a missing file")
	}
}

func TestPackagesConfig(t *testing.T) {
	cfg := PackagesConfig(true)
	if !cfg.Tests || cfg.Fset == nil {
		t.Errorf("tests should be loaded in a fresh file set")
	}
}
