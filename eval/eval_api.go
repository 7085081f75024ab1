package eval

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"calq.dev/calq/ast"
	"calq.dev/calq/lexer"
	"calq.dev/calq/object"
	"calq.dev/calq/parser"
	"calq.dev/calq/trie"
	"fortio.org/log"
)

// Exported part of the eval package.

// Maximum call depth, well below what would overflow the goroutine stack
// given each call nests a few Go frames per statement level.
const DefaultMaxDepth = 10_000

// State is one calq runtime: arena, registers and scope chain. It is not
// safe for concurrent use; a host serializes groups on it.
type State struct {
	Out io.Writer
	// Max depth / recursion level of function calls - default DefaultMaxDepth.
	MaxDepth int
	arena    *object.Arena
	regs     *object.Registers
	env      *object.Scope
	rootEnv  *object.Scope   // global scope, used for reset in panic recovery.
	depth    int             // current call depth
	calls    []string        // names of the functions being called, outermost first.
	frames   []*object.Scope // block and call scopes entered since the root, innermost last.
	ctx      context.Context
}

// NewState returns a runtime with a DefaultArenaSize cells arena writing to stdout.
func NewState() *State {
	st, err := NewStateSize(object.DefaultArenaSize)
	if err != nil {
		panic(err) // default size always fits.
	}
	return st
}

// NewStateSize returns a runtime whose arena has the given number of cells.
func NewStateSize(cells int) (*State, error) {
	a, err := object.NewArena(cells)
	if err != nil {
		return nil, err
	}
	st := &State{
		Out:      os.Stdout,
		MaxDepth: DefaultMaxDepth,
		arena:    a,
		regs:     object.NewRegisters(a),
		env:      object.NewRootScope(a),
	}
	st.rootEnv = st.env
	return st, nil
}

// Reset post panic recovery. Releases the block and call scopes a panic
// left behind, innermost first.
func (s *State) Reset() {
	for i := len(s.frames) - 1; i >= 0; i-- {
		s.frames[i].Release()
	}
	s.frames = s.frames[:0]
	s.env = s.rootEnv
	s.depth = 0
	s.calls = s.calls[:0]
	s.regs.ClearAll()
}

// RegisterTrie sets up the Trie to record all top level ids and functions.
// Forwards to the root scope.
func (s *State) RegisterTrie(t *trie.Trie) {
	s.rootEnv.RegisterTrie(t)
}

// Len is the number of global bindings.
func (s *State) Len() int {
	return s.rootEnv.Len()
}

func (s *State) Arena() *object.Arena {
	return s.arena
}

// Handle returns the cell a name is bound to in the global scope, for
// introspection of aliasing.
func (s *State) Handle(name string) (object.Handle, error) {
	sym, err := s.rootEnv.Lookup(name)
	if err != nil {
		return object.NoHandle, err
	}
	return sym.Handle, nil
}

// Get returns the current value of a global.
func (s *State) Get(name string) (object.Object, error) {
	h, err := s.Handle(name)
	if err != nil {
		return nil, err
	}
	return s.arena.Get(h), nil
}

// Binding is the description of one global, as dumped by the host.
type Binding struct {
	Name    string `yaml:"name"`
	Value   string `yaml:"value"`
	Mutable bool   `yaml:"mutable"`
	Cell    int32  `yaml:"cell"`
	Refs    int    `yaml:"refs"`
}

// Globals lists the global bindings sorted by name.
func (s *State) Globals() []Binding {
	names := s.rootEnv.Names()
	res := make([]Binding, 0, len(names))
	for _, name := range names {
		sym, _ := s.rootEnv.Lookup(name)
		v := s.arena.Get(sym.Handle)
		value := v.Inspect()
		if f, ok := v.(*object.Function); ok {
			value = f.Signature()
		}
		res = append(res, Binding{
			Name:    name,
			Value:   value,
			Mutable: sym.Mutable,
			Cell:    int32(sym.Handle),
			Refs:    s.arena.Refs(sym.Handle),
		})
	}
	return res
}

// Run evaluates one top level statement group. It returns the trailing
// value: the value of a final expression statement or of a top level
// return, Null otherwise. On error the bindings made by the statements that
// ran before the failure are kept.
func (s *State) Run(ctx context.Context, program *ast.Statements) (object.Object, error) {
	s.ctx = ctx
	defer func() {
		s.ctx = nil
		s.regs.ClearAll()
	}()
	f, err := s.evalStatements(program.Statements)
	if err != nil {
		log.LogVf("group aborted: %v", err)
		return object.NULL, err
	}
	if f.value == nil {
		return object.NULL, nil
	}
	return f.value, nil
}

// ParseError is returned by EvalString when the code doesn't parse.
type ParseError struct {
	Errors []string
}

func (e *ParseError) Error() string {
	return "parsing error: " + strings.Join(e.Errors, ", ")
}

// EvalString parses and runs code in this runtime.
func (s *State) EvalString(ctx context.Context, code string) (object.Object, error) {
	p := parser.New(lexer.New(code))
	program := p.ParseProgram()
	if errs := p.Errors(); len(errs) != 0 {
		return object.NULL, &ParseError{Errors: errs}
	}
	return s.Run(ctx, program)
}

// Describe is a one line summary of the arena usage.
func (s *State) Describe() string {
	st := s.arena.Stats()
	return fmt.Sprintf("%d/%d cells in use (peak %d), %d allocs, %d interned, %d frees",
		s.arena.InUse(), s.arena.Cap(), st.Peak, st.Allocs, st.Interned, st.Frees)
}
