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

type Shape interface {
	Area(scale float64) float64
}

type Square struct {
	side float64
}

func (s *Square) Area(scale float64) float64 {
	return s.side * s.side * scale // @Active
}

type Circle struct {
	r float64
}

func (c *Circle) Area(scale float64) float64 {
	return 3 * c.r * c.r * scale // @Active
}

func update(p *float64, v float64) {
	*p = *p + v // @Active
}

func total(shapes []Shape, scale float64) float64 {
	sum := 0.0 // @Inactive
	for _, s := range shapes {
		a := s.Area(scale) // @Active
		update(&sum, a)
	}
	return sum // @Active
}

var sink float64

func main() {
	shapes := []Shape{&Square{side: 2}, &Circle{r: 1}} // @Inactive
	sink = total(shapes, 1.5)
}
