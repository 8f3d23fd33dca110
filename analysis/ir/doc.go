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

/*
Package ir contains the program representation the activity analyses run on.

A [Program] is made of procedures, symbols, statements, memory references and call sites, all identified by small
integer ids. Programs are constructed with a [Builder], either directly (tests, other frontends) or from Go SSA by
the frontend package.

Memory references have a shape given by a [MemRefExpr]: a named symbol, a dereference, a field, some element of an
array, or an address. Statements carry expression trees ([Expr]) whose leaves are memory references, constants and
call results.

[NewCFG] and [NewICFG] build the intraprocedural and interprocedural control-flow graphs. Both return a [Graph], which
implements gonum's graph.Directed interface.
*/
package ir
