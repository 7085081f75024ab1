package object

// NumRegisters is the size of the register file: the most arguments a call can pass.
const NumRegisters = 8

// Registers are the scratch handles used to pass call arguments (0..n-1) and
// to receive a call's result (0). Each register owns one reference.
type Registers struct {
	arena *Arena
	regs  [NumRegisters]Handle
}

func NewRegisters(a *Arena) *Registers {
	r := &Registers{arena: a}
	for i := range r.regs {
		r.regs[i] = NoHandle
	}
	return r
}

// Set stores h in register i, taking a new reference to it and releasing the
// previous content.
func (r *Registers) Set(i int, h Handle) {
	r.arena.Retain(h)
	old := r.regs[i]
	r.regs[i] = h
	r.arena.Release(old)
}

func (r *Registers) Get(i int) Handle {
	return r.regs[i]
}

// Value dereferences register i, Null when empty.
func (r *Registers) Value(i int) Object {
	h := r.regs[i]
	if h == NoHandle {
		return NULL
	}
	return r.arena.Get(h)
}

func (r *Registers) Clear(i int) {
	old := r.regs[i]
	r.regs[i] = NoHandle
	r.arena.Release(old)
}

func (r *Registers) ClearAll() {
	for i := range r.regs {
		r.Clear(i)
	}
}
