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

// Package vary implements the Vary analysis, a forward analysis computing for every statement the locations whose
// value may depend on an independent location at the entry of its procedure, and the active locations: the varying
// locations that are also useful.
//
// When the analysis is given the result of the Useful analysis, the varying locations after each statement are
// restricted to the locations that may overlap a useful one (the InActive analysis).
package vary
