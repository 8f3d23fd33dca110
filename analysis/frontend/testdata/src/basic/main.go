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

package main

var scale = 2.0

var sink float64

func square(x float64) float64 {
	return x * x // @Active
}

func f(x float64, n int) float64 {
	y := x * scale      // @Active
	z := float64(n) + 1 // @Inactive
	w := square(y)      // @Active
	return w + z        // @Active
}

func main() {
	sink = f(3.0, 2) // @Inactive
}
