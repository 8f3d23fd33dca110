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
Package loc defines the locations manipulated by the dataflow analyses and the set-of-locations lattice.

Locations are abstract storage cells: [Named] variables, [Unnamed] heap cells, [Invisible] storage reachable through
pointer formals, the [Unknown] location and [Subset] parts of other locations. They are interned in an [Arena] and
referred to by [Handle]. Dataflow sets ([Set]) are sparse bit sets of handles.

The unknown location may overlap every location. Analyses use it as the conservative answer when nothing is known.
*/
package loc
