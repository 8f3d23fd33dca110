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

// Package useful implements the Useful analysis: a backward analysis computing, for every statement, the locations
// whose value before (InUseful) or after (OutUseful) the statement may still influence the value of a dependent
// location at the exit of its procedure.
//
// The interprocedural analysis runs over the ICFG and translates the useful sets through call sites. Calls without
// known callee are modelled conservatively: if anything the call may write is useful after the call, the unknown
// location and every location read by the actual arguments are useful before it.
package useful
