package eval

import (
	"errors"
	"fmt"
	"slices"

	"calq.dev/calq/object"
	"fortio.org/log"
)

// Returns the names of the functions being called, innermost first.
func (s *State) Stack() []string {
	stack := slices.Clone(s.calls)
	slices.Reverse(stack)
	log.Debugf("Stack() depth %d returning %v", s.depth, stack)
	return stack
}

// withStack annotates a runtime error with the call stack at the point it
// leaves the innermost function, once.
func (s *State) withStack(err error) error {
	var e *object.Error
	if errors.As(err, &e) && e.Stack == nil {
		e.Stack = s.Stack()
	}
	return err
}

// Errorf creates a type mismatch error with the given details.
func (s *State) Errorf(format string, args ...any) *object.Error {
	return &object.Error{Kind: object.TypeMismatch, Detail: fmt.Sprintf(format, args...)}
}
