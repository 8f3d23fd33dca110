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

// Package activity runs the activity analysis pipeline: the Dep, Useful and Vary analyses over the
// interprocedural control-flow graph of a program, from which it derives the active locations, statements, memory
// references and symbols of every procedure.
//
// A location is active at a program point when its value may depend on an independent location (it varies) and may
// influence a dependent location (it is useful). If the unknown location is active anywhere, every symbol of the
// program is active.
package activity
