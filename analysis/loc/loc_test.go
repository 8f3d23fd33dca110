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
	"math/rand"
	"testing"

	"github.com/awslabs/argot-activity/analysis/ir"
	"github.com/google/go-cmp/cmp"
)

type testLocs struct {
	arena *Arena
	g     Handle // global
	x     Handle // local of proc 0
	y     Handle // local of proc 0
	z     Handle // local of proc 1
	xf    Handle // x.f
	xg    Handle // x.g
	xe    Handle // x[]
	xef   Handle // x[].f
	inv   Handle // invisible of proc 0
	heap  Handle // escaping heap cell
}

func newTestLocs() testLocs {
	a := NewArena()
	l := testLocs{arena: a}
	l.g = a.Intern(Named{Sym: 0, Proc: ir.NoProc})
	l.x = a.Intern(Named{Sym: 1, Proc: 0, Local: true})
	l.y = a.Intern(Named{Sym: 2, Proc: 0, Local: true})
	l.z = a.Intern(Named{Sym: 3, Proc: 1, Local: true})
	l.xf = a.SubsetHandle(l.x, "f")
	l.xg = a.SubsetHandle(l.x, "g")
	l.xe = a.SubsetHandle(l.x, AnyElement)
	l.xef = a.SubsetHandle(l.xe, "f")
	l.inv = a.Intern(Invisible{Formal: 4, Proc: 0})
	l.heap = a.Intern(Unnamed{Site: 7, Proc: 0})
	return l
}

func TestInternIsIdempotent(t *testing.T) {
	a := NewArena()
	if a.Len() != 1 || a.Get(UnknownHandle) != (Unknown{}) {
		t.Fatalf("a new arena should only contain the unknown location")
	}
	h1 := a.Intern(Named{Sym: 3, Proc: 1, Local: true})
	h2 := a.Intern(Named{Sym: 3, Proc: 1, Local: true})
	if h1 != h2 || a.Len() != 2 {
		t.Errorf("interning the same location twice should return the same handle")
	}
	if a.SubsetHandle(UnknownHandle, "f") != UnknownHandle {
		t.Errorf("a part of the unknown location should be the unknown location")
	}
}

func TestGetPanicsOnForeignHandle(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("Get should panic on a handle that is not in the arena")
		}
	}()
	NewArena().Get(12)
}

func TestMayOverlap(t *testing.T) {
	l := newTestLocs()
	tests := []struct {
		name string
		a, b Handle
		want bool
	}{
		{"same", l.x, l.x, true},
		{"unknown", UnknownHandle, l.z, true},
		{"distinct named", l.x, l.y, false},
		{"field of base", l.x, l.xf, true},
		{"distinct fields", l.xf, l.xg, false},
		{"element and field", l.xe, l.xf, true},
		{"element field and field", l.xef, l.xf, true},
		{"invisible and global", l.inv, l.g, true},
		{"invisible and escaping heap", l.inv, l.heap, true},
		{"invisible and local", l.inv, l.x, false},
		{"local and global", l.x, l.g, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := l.arena.MayOverlap(tt.a, tt.b); got != tt.want {
				t.Errorf("MayOverlap = %v, want %v", got, tt.want)
			}
			if got := l.arena.MayOverlap(tt.b, tt.a); got != tt.want {
				t.Errorf("MayOverlap is not symmetric")
			}
		})
	}
}

func TestAccuracyAndCovers(t *testing.T) {
	l := newTestLocs()
	a := l.arena
	for _, h := range []Handle{l.x, l.xf, l.g} {
		if !a.FullAccuracy(h) {
			t.Errorf("%s should have full accuracy", a.Format(h, nil))
		}
	}
	for _, h := range []Handle{UnknownHandle, l.xe, l.xef, l.inv, l.heap} {
		if a.FullAccuracy(h) {
			t.Errorf("%s should not have full accuracy", a.Format(h, nil))
		}
	}
	if !a.Covers(l.x, l.xef) || a.Covers(l.xf, l.x) || a.Covers(l.y, l.xf) {
		t.Errorf("unexpected covers relation")
	}
	if !a.MustOverlap(l.xf, l.xf) || a.MustOverlap(l.xe, l.xe) {
		t.Errorf("must overlap requires full accuracy")
	}
	if a.Base(l.xef) != l.x || !a.IsLocalTo(l.xef, 0) || a.IsLocal(l.g) || a.Proc(l.inv) != 0 {
		t.Errorf("unexpected base properties")
	}
	if s, ok := a.Symbol(l.xf); !ok || s != 1 {
		t.Errorf("the symbol of x.f should be x")
	}
}

func TestFormat(t *testing.T) {
	l := newTestLocs()
	if got := l.arena.Format(l.xef, nil); got != "sym1[].f" {
		t.Errorf("unexpected format %q", got)
	}
	if got := l.arena.Format(UnknownHandle, nil); got != "<unknown>" {
		t.Errorf("unexpected format %q", got)
	}
}

func randomSet(r *rand.Rand) *Set {
	s := NewSet()
	for i := 0; i < r.Intn(10); i++ {
		s.Insert(Handle(r.Intn(20)))
	}
	return s
}

func TestMeetIdempotentCommutative(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		a, b := randomSet(r), randomSet(r)
		ab := Meet(a.Clone(), b)
		ba := Meet(b.Clone(), a)
		if !ab.Equal(ba) {
			t.Errorf("meet is not commutative on %s and %s", a, b)
		}
		if aa := Meet(a.Clone(), a); !aa.Equal(a) {
			t.Errorf("meet is not idempotent on %s", a)
		}
		bBefore := b.Clone()
		Meet(a.Clone(), b)
		if !b.Equal(bBefore) {
			t.Errorf("meet modified its second operand")
		}
	}
}

func TestCloneIndependence(t *testing.T) {
	orig := NewSet(1, 2, 3)
	c := orig.Clone()
	c.Insert(4)
	orig.Remove(1)
	if diff := cmp.Diff([]Handle{1, 2, 3, 4}, c.Handles()); diff != "" {
		t.Errorf("clone changed (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Handle{2, 3}, orig.Handles()); diff != "" {
		t.Errorf("original changed (-want +got):\n%s", diff)
	}
}

func TestTop(t *testing.T) {
	top := NewTop()
	if !top.IsTop() || !top.Equal(NewSet()) {
		t.Errorf("top should be equal to the empty set")
	}
	s := top.Union(NewSet(3))
	if s.IsTop() || !top.IsTop() {
		t.Errorf("union should be pure and the result populated")
	}
	if top.UnionWith(NewTop()) || !top.IsTop() {
		t.Errorf("union of top sets should stay top")
	}
}

func TestOverlapIntersection(t *testing.T) {
	l := newTestLocs()
	vary := NewSet(l.x, l.y)
	useful := NewSet(l.xf, l.z)
	got := OverlapIntersection(l.arena, vary, useful)
	if diff := cmp.Diff([]Handle{l.x, l.xf}, got.Handles()); diff != "" {
		t.Errorf("unexpected intersection (-want +got):\n%s", diff)
	}
	withUnknown := OverlapIntersection(l.arena, NewSet(l.y), NewSet(UnknownHandle))
	if !withUnknown.Has(UnknownHandle) || !withUnknown.Has(l.y) {
		t.Errorf("the unknown location should overlap every location")
	}
	if AnyOverlap(l.arena, NewSet(l.x), NewSet(l.y, l.z)) {
		t.Errorf("x does not overlap y or z")
	}
}
