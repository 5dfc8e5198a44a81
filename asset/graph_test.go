/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/
package asset

import (
	"reflect"
	"testing"
)

func TestGraphDependents(t *testing.T) {
	g := NewGraph()
	g.AddDependency("/a.js", "/c.js")
	g.AddDependency("/b.js", "/c.js")

	got := g.Dependents("/c.js")
	want := []string{"/a.js", "/b.js"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Dependents() = %v, want %v", got, want)
	}
	if got := g.Dependents("/nowhere.js"); got != nil {
		t.Errorf("Dependents(nowhere) = %v, want nil", got)
	}
}

func TestGraphTransitiveDependents(t *testing.T) {
	g := NewGraph()
	g.AddDependency("/a.js", "/b.js")
	g.AddDependency("/b.js", "/c.js")
	g.AddDependency("/d.js", "/c.js")

	got := g.TransitiveDependents("/c.js")
	want := []string{"/a.js", "/b.js", "/d.js"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TransitiveDependents() = %v, want %v", got, want)
	}
}

func TestGraphClone(t *testing.T) {
	g := NewGraph()
	g.AddDependency("/a.js", "/b.js")

	clone := g.Clone()
	clone.AddDependency("/x.js", "/b.js")

	if got := g.Dependents("/b.js"); len(got) != 1 {
		t.Errorf("original graph mutated by clone: Dependents(/b.js) = %v", got)
	}
	if got := clone.Dependents("/b.js"); len(got) != 2 {
		t.Errorf("clone missing added edge: Dependents(/b.js) = %v", got)
	}
}

func TestGraphRemoveAsset(t *testing.T) {
	g := NewGraph()
	g.AddDependency("/a.js", "/b.js")
	g.AddDependency("/c.js", "/b.js")

	removed := g.RemoveAsset("/b.js")
	want := []string{"/a.js", "/c.js"}
	if !reflect.DeepEqual(removed, want) {
		t.Errorf("RemoveAsset() = %v, want %v", removed, want)
	}
	if got := g.Dependents("/b.js"); got != nil {
		t.Errorf("expected no dependents after removal, got %v", got)
	}
}
