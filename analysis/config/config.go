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

package config

import (
	"fmt"
	"os"
	"path"
	"regexp"
	"strings"

	"github.com/awslabs/argot-activity/internal/funcutil"
	"gopkg.in/yaml.v3"
)

// Config contains the options and the activity problems of an analysis run.
// To add elements to a config file, add fields to this struct.
// If some field is not defined in the config file, it will be empty/zero in the struct.
// private fields are not populated from a yaml file, but computed after initialization
type Config struct {
	Options `yaml:"options"`

	sourceFile string

	// if the PkgFilter is specified
	pkgFilterRegex *regexp.Regexp

	// ActivityProblems lists the activity analysis specifications: which function is analyzed, with which
	// independent (input) and dependent (output) variables.
	ActivityProblems []ActivitySpec `yaml:"activity-problems"`
}

// ActivitySpec identifies the independent and dependent variables of one function.
type ActivitySpec struct {
	// Function identifies the functions the spec applies to. Package, Method and Receiver are matched as regexes.
	Function CodeIdentifier `yaml:"function"`

	// Independents are the names of the input variables. A name is either a parameter name, a global name (with or
	// without its package prefix), a local variable name, or "*p" to denote the memory pointed to by parameter p.
	Independents []string `yaml:"independents"`

	// Dependents are the names of the output variables. The i-th result of the function is named "$ret<i>".
	Dependents []string `yaml:"dependents"`
}

// Options holds the global options of the analyses.
type Options struct {
	// ReportsDir is the directory where annotated sources are written when no other directory has been given on the
	// command line.
	ReportsDir string `yaml:"reports-dir"`

	// PkgFilter restricts the functions that are translated for the analysis to the ones whose package path matches
	// the filter. Calls to other functions are treated as unresolved calls.
	PkgFilter string `yaml:"pkg-filter"`

	// UseCHA resolves interface method calls using class hierarchy analysis. When false, those calls are unresolved.
	UseCHA bool `yaml:"use-cha"`

	// VaryOnly makes the activity analysis compute the plain vary sets instead of the vary sets restricted to
	// useful locations.
	VaryOnly bool `yaml:"vary-only"`

	// Loglevel controls the verbosity of the tool
	LogLevel int `yaml:"log-level"`

	// Suppress warnings
	SilenceWarn bool `yaml:"silence-warn"`
}

// NewDefault returns an empty default config.
func NewDefault() *Config {
	return &Config{
		sourceFile:       "",
		ActivityProblems: nil,
		Options: Options{
			ReportsDir:  "",
			PkgFilter:   "",
			UseCHA:      true,
			VaryOnly:    false,
			LogLevel:    int(InfoLevel),
			SilenceWarn: false,
		},
	}
}

// Load reads a configuration from a file
func Load(filename string) (*Config, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	return LoadFromBytes(filename, b)
}

// LoadFromBytes parses the configuration in b. The filename is only used to resolve relative paths.
func LoadFromBytes(filename string, b []byte) (*Config, error) {
	cfg := NewDefault()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config file %s: %w", filename, err)
	}

	cfg.sourceFile = filename

	// If logLevel has not been specified (i.e. it is 0) set the default to Info
	if cfg.LogLevel == 0 {
		cfg.LogLevel = int(InfoLevel)
	}

	cfg.SetPkgFilter(cfg.PkgFilter)

	for i := range cfg.ActivityProblems {
		spec := &cfg.ActivityProblems[i]
		spec.Function = CompileRegexes(spec.Function)
		if len(spec.Independents) == 0 && len(spec.Dependents) == 0 {
			return nil, fmt.Errorf("activity problem %d in %s has neither independents nor dependents", i, filename)
		}
		if funcutil.Exists(spec.Independents, func(s string) bool { return strings.TrimSpace(s) == "" }) ||
			funcutil.Exists(spec.Dependents, func(s string) bool { return strings.TrimSpace(s) == "" }) {
			return nil, fmt.Errorf("activity problem %d in %s has an empty variable name", i, filename)
		}
	}

	return cfg, nil
}

// RelPath returns filename path relative to the config source file
func (c Config) RelPath(filename string) string {
	return path.Join(path.Dir(c.sourceFile), filename)
}

// SetPkgFilter replaces the package filter of the config. When filter does not compile to a regex, it is matched as
// a prefix of package paths.
func (c *Config) SetPkgFilter(filter string) {
	c.PkgFilter = filter
	c.pkgFilterRegex = nil
	if filter != "" {
		if r, err := regexp.Compile(filter); err == nil {
			c.pkgFilterRegex = r
		}
	}
}

// MatchPkgFilter returns true if the package name pkgname matches the package filter set in the config file. If no
// package filter has been set in the config file, the regex will match anything and return true. This function safely
// considers the case where a filter has been specified by the user, but it could not be compiled to a regex. The safe
// case is to check whether the package filter string is a prefix of the pkgname
func (c Config) MatchPkgFilter(pkgname string) bool {
	if c.pkgFilterRegex != nil {
		return c.pkgFilterRegex.MatchString(pkgname)
	} else if c.PkgFilter != "" {
		return strings.HasPrefix(pkgname, c.PkgFilter)
	} else {
		return true
	}
}

// ProblemsFor returns the activity specs whose function identifier matches cid.
func (c Config) ProblemsFor(cid CodeIdentifier) []ActivitySpec {
	var specs []ActivitySpec
	for _, spec := range c.ActivityProblems {
		if cid.equalOnNonEmptyFields(spec.Function) {
			specs = append(specs, spec)
		}
	}
	return specs
}

// HasActivityProblems returns true when at least one activity problem is specified.
func (c Config) HasActivityProblems() bool {
	return len(c.ActivityProblems) > 0
}

// Verbose returns true is the configuration verbosity setting is larger than Info (i.e. Debug or Trace)
func (c Config) Verbose() bool {
	return c.LogLevel >= int(DebugLevel)
}
