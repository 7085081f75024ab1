package object

import (
	"maps"
	"slices"

	"calq.dev/calq/trie"
	"fortio.org/log"
)

type Symbol struct {
	Name    string
	Handle  Handle
	Mutable bool
	weak    bool // self binding of a function in its own snapshot, not counted.
}

// Scope is one frame of the lexical environment. Each scope owns one
// reference on the handle of every (non weak) symbol it holds.
type Scope struct {
	store     map[string]*Symbol
	outer     *Scope
	arena     *Arena
	name      string     // function name for call scopes, used for error stacks.
	ids       *trie.Trie // records top level declarations for completion, root scope only.
	ownsOuter bool       // call scope: outer is a private copy of the snapshot.
}

func NewRootScope(a *Arena) *Scope {
	return &Scope{store: make(map[string]*Symbol), arena: a}
}

// NewEnclosedScope creates a block scope whose parent is outer.
func NewEnclosedScope(outer *Scope) *Scope {
	return &Scope{store: make(map[string]*Symbol), outer: outer, arena: outer.arena}
}

// NewFunctionScope creates the scope of a call: its parent is a copy of the
// function's captured snapshot, not the caller's scope. Assignments to
// captured names land in that copy and are dropped when the call scope is
// released, the snapshot stored in the function's cell never changes.
func NewFunctionScope(f *Function) *Scope {
	s := NewEnclosedScope(f.Env.clone())
	s.name = f.Name
	s.ownsOuter = true
	return s
}

// clone is a parentless copy of s holding its own references.
func (s *Scope) clone() *Scope {
	c := &Scope{store: make(map[string]*Symbol, len(s.store)), arena: s.arena}
	for name, sym := range s.store {
		cp := *sym
		if !cp.weak {
			s.arena.Retain(cp.Handle)
		}
		c.store[name] = &cp
	}
	return c
}

func (s *Scope) Name() string {
	return s.name
}

func (s *Scope) Parent() *Scope {
	return s.outer
}

// Len is the number of symbols visible from this scope, shadowed ones included.
func (s *Scope) Len() int {
	if s.outer != nil {
		return len(s.store) + s.outer.Len()
	}
	return len(s.store)
}

// Names returns the sorted names declared directly in this scope.
func (s *Scope) Names() []string {
	return slices.Sorted(maps.Keys(s.store))
}

// RegisterTrie sets up the Trie to record all the names declared in this scope.
func (s *Scope) RegisterTrie(t *trie.Trie) {
	s.ids = t
	for name := range s.store {
		t.Insert(name)
	}
}

// Declare binds name in this scope, taking its own reference on h.
func (s *Scope) Declare(name string, h Handle, mutable bool) error {
	if _, ok := s.store[name]; ok {
		return NewError(DuplicateDeclaration, name)
	}
	s.arena.Retain(h)
	s.store[name] = &Symbol{Name: name, Handle: h, Mutable: mutable}
	if s.ids != nil {
		s.ids.Insert(name)
	}
	log.Debugf("declare %s -> cell %d (mutable %t)", name, h, mutable)
	return nil
}

// Lookup walks the scope chain, innermost first.
func (s *Scope) Lookup(name string) (Symbol, error) {
	for e := s; e != nil; e = e.outer {
		if sym, ok := e.store[name]; ok {
			return *sym, nil
		}
	}
	return Symbol{}, NewError(UndeclaredVariable, name)
}

// Rebind points an existing mutable name to another cell. The value of the
// old cell is left untouched, only the binding changes.
func (s *Scope) Rebind(name string, h Handle) error {
	for e := s; e != nil; e = e.outer {
		sym, ok := e.store[name]
		if !ok {
			continue
		}
		if !sym.Mutable {
			return NewError(ImmutableAssignment, name)
		}
		s.arena.Retain(h)
		old := sym.Handle
		sym.Handle = h
		s.arena.Release(old)
		return nil
	}
	return NewError(UndeclaredVariable, name)
}

// Capture flattens the whole chain into one parentless snapshot. Inner
// bindings win over outer ones of the same name.
func (s *Scope) Capture() *Scope {
	chain := []*Scope{}
	for e := s; e != nil; e = e.outer {
		chain = append(chain, e)
	}
	snap := &Scope{store: make(map[string]*Symbol, s.Len()), arena: s.arena}
	for _, e := range slices.Backward(chain) {
		for name, sym := range e.store {
			snap.store[name] = &Symbol{Name: name, Handle: sym.Handle, Mutable: sym.Mutable}
		}
	}
	for _, sym := range snap.store {
		s.arena.Retain(sym.Handle)
	}
	log.LogVf("captured %d symbols from %d scopes", len(snap.store), len(chain))
	return snap
}

// BindSelf installs the weak, immutable self binding of a function in its
// own snapshot, replacing any captured binding of the same name.
func (s *Scope) BindSelf(name string, h Handle) {
	if old, ok := s.store[name]; ok && !old.weak {
		s.arena.Release(old.Handle)
	}
	s.store[name] = &Symbol{Name: name, Handle: h, weak: true}
}

// Release drops the references this scope holds. Called when a block or
// call scope is exited and when a function's cell is freed. A call scope
// also releases its copy of the snapshot.
func (s *Scope) Release() {
	for name, sym := range s.store {
		if !sym.weak {
			s.arena.Release(sym.Handle)
		}
		delete(s.store, name)
	}
	if s.ownsOuter {
		s.ownsOuter = false
		s.outer.Release()
	}
}
