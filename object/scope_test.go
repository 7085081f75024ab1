package object

import (
	"errors"
	"testing"

	"calq.dev/calq/trie"
)

func declare(t *testing.T, s *Scope, name string, v int32, mutable bool) Handle {
	t.Helper()
	h, err := s.arena.Alloc(Number{Value: v})
	if err != nil {
		t.Fatal(err)
	}
	defer s.arena.Release(h)
	if err = s.Declare(name, h, mutable); err != nil {
		t.Fatal(err)
	}
	return h
}

func TestScopeDeclareLookup(t *testing.T) {
	a := newTestArena(t, 16)
	root := NewRootScope(a)
	declare(t, root, "x", 1, false)
	h, _ := a.Alloc(Number{Value: 2})
	if err := root.Declare("x", h, true); !errors.Is(err, ErrDuplicateDeclaration) {
		t.Errorf("expected DuplicateDeclaration, got %v", err)
	}
	a.Release(h)
	inner := NewEnclosedScope(root)
	declare(t, inner, "x", 3, true) // shadowing is allowed.
	sym, err := inner.Lookup("x")
	if err != nil || a.Get(sym.Handle).Inspect() != "3" || !sym.Mutable {
		t.Errorf("inner lookup got %+v %v", sym, err)
	}
	sym, _ = root.Lookup("x")
	if a.Get(sym.Handle).Inspect() != "1" {
		t.Errorf("outer x changed: %+v", sym)
	}
	if _, err = inner.Lookup("y"); !errors.Is(err, ErrUndeclaredVariable) {
		t.Errorf("expected UndeclaredVariable, got %v", err)
	}
	inner.Release()
	if a.InUse() != 1 {
		t.Errorf("expected only x=1 left, %d cells in use", a.InUse())
	}
}

func TestScopeRebind(t *testing.T) {
	a := newTestArena(t, 16)
	root := NewRootScope(a)
	old := declare(t, root, "m", 1, true)
	alias := declare(t, root, "alias", 1, false)
	if old != alias {
		t.Fatalf("expected aliasing of 1")
	}
	inner := NewEnclosedScope(root)
	h, _ := a.Alloc(Number{Value: 2})
	if err := inner.Rebind("m", h); err != nil {
		t.Fatal(err)
	}
	if err := inner.Rebind("alias", h); !errors.Is(err, ErrImmutableAssignment) {
		t.Errorf("expected ImmutableAssignment, got %v", err)
	}
	if err := inner.Rebind("nope", h); !errors.Is(err, ErrUndeclaredVariable) {
		t.Errorf("expected UndeclaredVariable, got %v", err)
	}
	a.Release(h)
	sym, _ := root.Lookup("m")
	if sym.Handle != h {
		t.Errorf("rebind should update the declaring scope")
	}
	sym, _ = root.Lookup("alias")
	if a.Get(sym.Handle).Inspect() != "1" || a.Refs(old) != 1 {
		t.Errorf("alias must keep the old value: %s refs %d", a.Get(sym.Handle).Inspect(), a.Refs(old))
	}
}

func TestScopeCapture(t *testing.T) {
	a := newTestArena(t, 16)
	root := NewRootScope(a)
	declare(t, root, "a", 1, false)
	declare(t, root, "b", 2, true)
	inner := NewEnclosedScope(root)
	declare(t, inner, "b", 20, false)
	declare(t, inner, "c", 30, true)
	snap := inner.Capture()
	if snap.Parent() != nil {
		t.Errorf("snapshot must be parentless")
	}
	want := map[string]string{"a": "1", "b": "20", "c": "30"}
	if len(snap.Names()) != len(want) {
		t.Errorf("got names %v", snap.Names())
	}
	for name, v := range want {
		sym, err := snap.Lookup(name)
		if err != nil || a.Get(sym.Handle).Inspect() != v {
			t.Errorf("%s: got %+v %v", name, sym, err)
		}
	}
	sym, _ := snap.Lookup("b")
	if sym.Mutable {
		t.Errorf("inner b is immutable, the snapshot should say so")
	}
	// later rebinding in the live chain doesn't reach the snapshot.
	h, _ := a.Alloc(Number{Value: 99})
	if err := inner.Rebind("c", h); err != nil {
		t.Fatal(err)
	}
	a.Release(h)
	sym, _ = snap.Lookup("c")
	if a.Get(sym.Handle).Inspect() != "30" {
		t.Errorf("snapshot changed: %s", a.Get(sym.Handle).Inspect())
	}
	snap.Release()
	inner.Release()
	if a.InUse() != 2 { // root a and b.
		t.Errorf("expected 2 cells in use, got %d", a.InUse())
	}
}

func TestScopeTrie(t *testing.T) {
	a := newTestArena(t, 8)
	root := NewRootScope(a)
	declare(t, root, "alpha", 1, false)
	tr := trie.NewTrie()
	root.RegisterTrie(tr)
	declare(t, root, "alps", 2, true)
	l, words := tr.PrefixAll("al")
	if l != 3 || len(words) != 2 {
		t.Errorf("got %d %v", l, words)
	}
}
