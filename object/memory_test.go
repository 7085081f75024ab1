package object

import (
	"errors"
	"testing"
)

func newTestArena(t *testing.T, n int) *Arena {
	t.Helper()
	a, err := NewArena(n)
	if err != nil {
		t.Fatalf("NewArena(%d): %v", n, err)
	}
	return a
}

func TestNewArenaInvalidSize(t *testing.T) {
	if _, err := NewArena(0); err == nil {
		t.Errorf("expected an error for a 0 cells arena")
	}
}

func TestArenaInterning(t *testing.T) {
	a := newTestArena(t, 8)
	h1, err := a.Alloc(Number{Value: 42})
	if err != nil {
		t.Fatal(err)
	}
	h2, err := a.Alloc(Number{Value: 42})
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Errorf("equal numbers should share a cell: %d vs %d", h1, h2)
	}
	if a.Refs(h1) != 2 || a.InUse() != 1 {
		t.Errorf("refs %d in use %d", a.Refs(h1), a.InUse())
	}
	h3, _ := a.Alloc(Number{Value: 7})
	if h3 == h1 {
		t.Errorf("different numbers got the same cell %d", h3)
	}
	hn1, _ := a.Alloc(NULL)
	hn2, _ := a.Alloc(Null{})
	if hn1 != hn2 {
		t.Errorf("null should be interned: %d vs %d", hn1, hn2)
	}
	f1 := &Function{Name: "f", Env: NewRootScope(a)}
	f2 := &Function{Name: "f", Env: NewRootScope(a)}
	hf1, _ := a.Alloc(f1)
	hf2, _ := a.Alloc(f2)
	if hf1 == hf2 {
		t.Errorf("distinct functions must not be interned together")
	}
	hf3, _ := a.Alloc(f1)
	if hf3 != hf1 {
		t.Errorf("same function instance should be interned: %d vs %d", hf3, hf1)
	}
	st := a.Stats()
	if st.Allocs != 5 || st.Interned != 3 || st.Peak != 5 {
		t.Errorf("unexpected stats %+v", st)
	}
}

func TestArenaFirstFitAndRelease(t *testing.T) {
	a := newTestArena(t, 3)
	h0, _ := a.Alloc(Number{Value: 0})
	h1, _ := a.Alloc(Number{Value: 1})
	h2, _ := a.Alloc(Number{Value: 2})
	if h0 != 0 || h1 != 1 || h2 != 2 {
		t.Fatalf("expected first fit order, got %d %d %d", h0, h1, h2)
	}
	_, err := a.Alloc(Number{Value: 3})
	if !errors.Is(err, ErrOutOfMemory) {
		t.Fatalf("expected OutOfMemory, got %v", err)
	}
	a.Release(h1)
	if a.InUse() != 2 {
		t.Errorf("expected 2 cells in use, got %d", a.InUse())
	}
	h3, err := a.Alloc(Number{Value: 3})
	if err != nil {
		t.Fatal(err)
	}
	if h3 != h1 {
		t.Errorf("expected the freed cell %d to be reused, got %d", h1, h3)
	}
	if v := a.Get(h3); !Equals(v, Number{Value: 3}) {
		t.Errorf("got %v", v)
	}
	// 1 was overwritten, must not be found through the index anymore.
	a.Release(h0)
	h4, _ := a.Alloc(Number{Value: 1})
	if h4 != h0 || a.Get(h4).Inspect() != "1" {
		t.Errorf("expected 1 in cell %d, got %s in %d", h0, a.Get(h4).Inspect(), h4)
	}
}

func TestArenaReviveFreedNumber(t *testing.T) {
	a := newTestArena(t, 2)
	h, _ := a.Alloc(Number{Value: 9})
	a.Release(h)
	if a.Refs(h) != 0 || a.InUse() != 0 {
		t.Fatalf("cell should be free")
	}
	h2, _ := a.Alloc(Number{Value: 9})
	if h2 != h || a.Refs(h) != 1 {
		t.Errorf("freed number should be picked up again: %d refs %d", h2, a.Refs(h))
	}
}

func TestReleaseFunctionReleasesSnapshot(t *testing.T) {
	a := newTestArena(t, 4)
	root := NewRootScope(a)
	hv, _ := a.Alloc(Number{Value: 5})
	if err := root.Declare("v", hv, false); err != nil {
		t.Fatal(err)
	}
	a.Release(hv)
	f := &Function{Name: "f", Env: root.Capture()}
	if a.Refs(hv) != 2 {
		t.Errorf("capture should retain v: refs %d", a.Refs(hv))
	}
	hf, _ := a.Alloc(f)
	f.Env.BindSelf("f", hf)
	if a.Refs(hf) != 1 {
		t.Errorf("self binding must be weak: refs %d", a.Refs(hf))
	}
	a.Release(hf)
	if !f.released || a.Refs(hv) != 1 {
		t.Errorf("released %t, v refs %d", f.released, a.Refs(hv))
	}
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("expected a panic storing a released function")
		}
	}()
	_, _ = a.Alloc(f)
}

func TestRegisters(t *testing.T) {
	a := newTestArena(t, 4)
	r := NewRegisters(a)
	if r.Value(0) != NULL || r.Get(3) != NoHandle {
		t.Errorf("registers should start empty")
	}
	h, _ := a.Alloc(Number{Value: 1})
	r.Set(0, h)
	r.Set(1, h)
	a.Release(h)
	if a.Refs(h) != 2 {
		t.Errorf("each register owns a reference, got %d", a.Refs(h))
	}
	h2, _ := a.Alloc(Number{Value: 2})
	r.Set(0, h2)
	a.Release(h2)
	if a.Refs(h) != 1 || r.Value(0).Inspect() != "2" {
		t.Errorf("overwriting a register should release its old content")
	}
	r.ClearAll()
	if a.InUse() != 0 {
		t.Errorf("expected all cells free, %d in use", a.InUse())
	}
}
