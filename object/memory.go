package object

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"unsafe"

	"fortio.org/log"
)

// Handle is an index into the Arena. It is the unit of aliasing: variables,
// registers and captured scopes hold handles, never values.
type Handle int32

const NoHandle Handle = -1

// DefaultArenaSize is the number of cells of a new runtime's arena.
const DefaultArenaSize = 1024

type cell struct {
	value Object
	refs  int
}

// Arena is the fixed capacity, reference counted store backing every value.
// A cell is free when its reference count is back to 0. Values are interned:
// storing a value equal to one already held returns the existing cell.
type Arena struct {
	cells []cell
	// Interning index: value -> cell holding it. Numbers and Null stay indexed
	// after their cell is freed (the stale value can be picked up again as is),
	// functions are removed when their cell is freed.
	index map[Object]Handle
	inUse int
	stats ArenaStats
}

type ArenaStats struct {
	Allocs   int64 // new cells filled.
	Interned int64 // allocations served by an existing cell.
	Frees    int64 // cells whose last reference was released.
	Peak     int   // max cells in use at once.
}

// Returns the amount of free memory in bytes.
func FreeMemory() int64 {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	currentAlloc := memStats.HeapAlloc
	// retrieve the current limit.
	gomemlimit := debug.SetMemoryLimit(-1)
	return gomemlimit - int64(currentAlloc) //nolint:gosec // necessary, can be negative.
}

// SizeOk checks that n cells fit in the memory left under GOMEMLIMIT.
func SizeOk(n int) (bool, int64) {
	if n <= 4096 { // no checks for small arenas
		return true, 0
	}
	free := FreeMemory()
	return ((free >= 0) && ((int64(n) * int64(unsafe.Sizeof(cell{}))) < free)), free
}

func NewArena(capacity int) (*Arena, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("invalid arena size %d", capacity)
	}
	if ok, free := SizeOk(capacity); !ok {
		runtime.GC()
		if ok, free = SizeOk(capacity); !ok {
			return nil, fmt.Errorf("arena of %d cells would exceed memory, %d bytes free", capacity, free)
		}
	}
	return &Arena{
		cells: make([]cell, capacity),
		index: make(map[Object]Handle),
	}, nil
}

func (a *Arena) Cap() int {
	return len(a.cells)
}

// InUse is the number of cells with at least one reference.
func (a *Arena) InUse() int {
	return a.inUse
}

func (a *Arena) Stats() ArenaStats {
	return a.stats
}

// Refs returns the reference count of the cell, for introspection.
func (a *Arena) Refs(h Handle) int {
	if !a.valid(h) {
		return 0
	}
	return a.cells[h].refs
}

func (a *Arena) valid(h Handle) bool {
	return h >= 0 && int(h) < len(a.cells)
}

// Get dereferences a handle.
func (a *Arena) Get(h Handle) Object {
	if !a.valid(h) {
		panic(fmt.Sprintf("bug: invalid handle %d", h))
	}
	v := a.cells[h].value
	if v == nil {
		return NULL
	}
	return v
}

// Alloc stores v and returns a handle the caller owns one reference of (to
// Release when done). An existing cell holding an equal value is reused,
// otherwise the first free cell is taken.
func (a *Arena) Alloc(v Object) (Handle, error) {
	if f, ok := v.(*Function); ok && f.released {
		panic("bug: storing a function whose captured scope was released: " + f.Name)
	}
	if h, ok := a.index[v]; ok {
		a.stats.Interned++
		a.Retain(h)
		return h, nil
	}
	for i := range a.cells {
		c := &a.cells[i]
		if c.refs != 0 {
			continue
		}
		h := Handle(i) //nolint:gosec // capacity is checked to fit.
		if c.value != nil {
			if old, ok := a.index[c.value]; ok && old == h {
				delete(a.index, c.value)
			}
		}
		c.value = v
		a.index[v] = h
		a.stats.Allocs++
		a.Retain(h)
		log.Debugf("arena: %s stored in cell %d", v.Inspect(), h)
		return h, nil
	}
	log.LogVf("arena: out of memory (%d cells)", len(a.cells))
	return NoHandle, &Error{Kind: OutOfMemory, Expected: len(a.cells)}
}

func (a *Arena) Retain(h Handle) {
	if h == NoHandle {
		return
	}
	c := &a.cells[h]
	c.refs++
	if c.refs == 1 {
		a.inUse++
		a.stats.Peak = max(a.stats.Peak, a.inUse)
	}
}

// Release drops one reference. When it was the last one the cell becomes free
// and, for a function, its captured scope releases its own references.
func (a *Arena) Release(h Handle) {
	if h == NoHandle {
		return
	}
	c := &a.cells[h]
	if c.refs <= 0 {
		panic(fmt.Sprintf("bug: release of free cell %d", h))
	}
	c.refs--
	if c.refs > 0 {
		return
	}
	a.inUse--
	a.stats.Frees++
	log.Debugf("arena: cell %d (%s) freed", h, a.Get(h).Inspect())
	if f, ok := c.value.(*Function); ok {
		delete(a.index, c.value)
		c.value = nil
		f.released = true
		f.Env.Release()
	}
}
