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

// Package frontend translates Go programs into the intermediate representation analyzed by the activity engine.
//
// A program is loaded with LoadProgram and converted to SSA form. Build then creates one IR procedure for each SSA
// function that has a body and whose package matches the package filter of the config. SSA registers, parameters,
// free variables, local cells and results become symbols; SSA instructions become IR statements. Calls are resolved
// with the static callee, or with class hierarchy analysis for interface method calls when the config enables it.
//
// Seeds maps the activity problems of the config to the independent and dependent locations of the translated
// procedures.
package frontend
