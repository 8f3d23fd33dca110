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

const (
	// ResultNamePrefix is the prefix of the names given to the results of a function. The i-th result of a function
	// is named ResultNamePrefix followed by i.
	ResultNamePrefix = "$ret"
	// PointeePrefix prefixes a parameter name to denote the memory the parameter points to.
	PointeePrefix = "*"
)
