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
	"regexp"
)

// CodeIdentifier identifies a function in the analyzed program. Each non-empty field is interpreted as a regex
// when it compiles to one, otherwise as a plain string.
type CodeIdentifier struct {
	Package  string `yaml:"package"`
	Method   string `yaml:"method"`
	Receiver string `yaml:"receiver"`
	// This will not be part of the yaml config
	computedRegexs *codeIdentifierRegex
}

type codeIdentifierRegex struct {
	packageRegex  *regexp.Regexp
	methodRegex   *regexp.Regexp
	receiverRegex *regexp.Regexp
}

// CompileRegexes compiles the strings in the code identifier into regexes. It compiles all identifiers into regexes
// or none.
func CompileRegexes(cid CodeIdentifier) CodeIdentifier {
	packageRegex, err := regexp.Compile(anchor(cid.Package))
	if err != nil {
		return cid
	}
	methodRegex, err := regexp.Compile(anchor(cid.Method))
	if err != nil {
		return cid
	}
	receiverRegex, err := regexp.Compile(anchor(cid.Receiver))
	if err != nil {
		return cid
	}
	cid.computedRegexs = &codeIdentifierRegex{
		packageRegex:  packageRegex,
		methodRegex:   methodRegex,
		receiverRegex: receiverRegex,
	}
	return cid
}

// anchor makes the regex match whole names only, so that the method "f" does not match "fun".
func anchor(s string) string {
	if s == "" {
		return s
	}
	return "^(" + s + ")$"
}

// equalOnNonEmptyFields returns true if each of the receiver's fields are either equal to the corresponding
// argument's field, or the argument's field is empty
func (cid CodeIdentifier) equalOnNonEmptyFields(cidRef CodeIdentifier) bool {
	if cidRef.computedRegexs != nil {
		return (cidRef.Package == "" || cidRef.computedRegexs.packageRegex.MatchString(cid.Package)) &&
			(cidRef.Method == "" || cidRef.computedRegexs.methodRegex.MatchString(cid.Method)) &&
			(cidRef.Receiver == "" || cidRef.computedRegexs.receiverRegex.MatchString(cid.Receiver))
	}
	return (cidRef.Package == "" || cid.Package == cidRef.Package) &&
		(cidRef.Method == "" || cid.Method == cidRef.Method) &&
		(cidRef.Receiver == "" || cid.Receiver == cidRef.Receiver)
}

// Matches returns true if the identifier cid is matched by the specification ref
func (cid CodeIdentifier) Matches(ref CodeIdentifier) bool {
	return cid.equalOnNonEmptyFields(ref)
}

func (cid CodeIdentifier) String() string {
	if cid.Receiver != "" {
		return fmt.Sprintf("%s.(%s).%s", cid.Package, cid.Receiver, cid.Method)
	}
	return fmt.Sprintf("%s.%s", cid.Package, cid.Method)
}
