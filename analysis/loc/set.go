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

package loc

import (
	"strings"

	"github.com/awslabs/argot-activity/analysis/ir"
	"golang.org/x/tools/container/intsets"
)

// Set is the set-of-locations lattice element (LocDFSet). A top set denotes "no information" and compares equal to
// the empty set. Sets must not be copied by value; use Clone.
type Set struct {
	bits intsets.Sparse
	top  bool
}

// NewSet returns a populated set containing the handles
func NewSet(hs ...Handle) *Set {
	s := &Set{}
	for _, h := range hs {
		s.bits.Insert(int(h))
	}
	return s
}

// NewTop returns a set denoting no information
func NewTop() *Set {
	return &Set{top: true}
}

// IsTop returns true if the set has never been populated
func (s *Set) IsTop() bool {
	return s.top && s.bits.IsEmpty()
}

// Insert adds h to the set and returns true if it was not present
func (s *Set) Insert(h Handle) bool {
	s.top = false
	return s.bits.Insert(int(h))
}

// Remove removes h from the set and returns true if it was present
func (s *Set) Remove(h Handle) bool {
	return s.bits.Remove(int(h))
}

// Has returns true if h is in the set
func (s *Set) Has(h Handle) bool {
	return s.bits.Has(int(h))
}

// Len returns the number of locations in the set
func (s *Set) Len() int {
	return s.bits.Len()
}

// IsEmpty returns true if the set has no location
func (s *Set) IsEmpty() bool {
	return s.bits.IsEmpty()
}

// Clone returns a deep copy of the set
func (s *Set) Clone() *Set {
	c := &Set{top: s.top}
	c.bits.Copy(&s.bits)
	return c
}

// Equal returns true if the sets contain the same locations. A top set is equal to the empty set.
func (s *Set) Equal(o *Set) bool {
	if o == nil {
		return s.IsEmpty()
	}
	return s.bits.Equals(&o.bits)
}

// UnionWith adds all the locations of o to s and returns true if s changed. It never modifies o.
func (s *Set) UnionWith(o *Set) bool {
	if o == nil {
		return false
	}
	if !o.top {
		s.top = false
	}
	return s.bits.UnionWith(&o.bits)
}

// Union returns a new set containing the locations of s and o. Neither s nor o is modified.
func (s *Set) Union(o *Set) *Set {
	c := s.Clone()
	c.UnionWith(o)
	return c
}

// Intersection returns a new set containing the locations in both s and o
func (s *Set) Intersection(o *Set) *Set {
	c := &Set{}
	if o != nil {
		c.bits.Intersection(&s.bits, &o.bits)
	}
	return c
}

// Handles returns the locations of the set in increasing handle order. The slice is fresh, so iteration can be
// restarted and the set modified while iterating.
func (s *Set) Handles() []Handle {
	ints := s.bits.AppendTo(nil)
	hs := make([]Handle, len(ints))
	for i, x := range ints {
		hs[i] = Handle(x)
	}
	return hs
}

// ForEach calls f on every location of the set, in increasing handle order
func (s *Set) ForEach(f func(Handle)) {
	for _, h := range s.Handles() {
		f(h)
	}
}

func (s *Set) String() string {
	if s.IsTop() {
		return "T"
	}
	return s.bits.String()
}

// Format returns the set with readable location names
func (s *Set) Format(a *Arena, n ir.Namer) string {
	if s.IsTop() {
		return "T"
	}
	names := make([]string, 0, s.Len())
	for _, h := range s.Handles() {
		names = append(names, a.Format(h, n))
	}
	return "{" + strings.Join(names, ", ") + "}"
}

// Meet is the meet of the Useful and Vary lattices: set union. It adds b to a and returns a; b is not modified,
// so a must be a private copy of the caller.
func Meet(a, b *Set) *Set {
	a.UnionWith(b)
	return a
}

// Overlaps returns true if some location of s may overlap h
func Overlaps(a *Arena, s *Set, h Handle) bool {
	if s.IsEmpty() {
		return false
	}
	if h == UnknownHandle || s.Has(h) || s.Has(UnknownHandle) {
		return true
	}
	for _, x := range s.Handles() {
		if a.MayOverlap(x, h) {
			return true
		}
	}
	return false
}

// AnyOverlap returns true if some location of x may overlap some location of y
func AnyOverlap(a *Arena, x, y *Set) bool {
	for _, h := range x.Handles() {
		if Overlaps(a, y, h) {
			return true
		}
	}
	return false
}

// OverlapIntersection returns the locations of x that may overlap some location of y, together with the locations
// of y that may overlap some location of x. This is the intersection of location sets under may-overlap.
func OverlapIntersection(a *Arena, x, y *Set) *Set {
	res := NewSet()
	for _, h := range x.Handles() {
		if Overlaps(a, y, h) {
			res.Insert(h)
		}
	}
	for _, h := range y.Handles() {
		if !res.Has(h) && Overlaps(a, x, h) {
			res.Insert(h)
		}
	}
	return res
}
