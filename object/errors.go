package object

import (
	"fmt"
	"strings"
)

type ErrorKind uint8

const (
	_ ErrorKind = iota
	UndeclaredVariable
	DuplicateDeclaration
	ImmutableAssignment
	TypeMismatch
	DivisionByZero
	ModuloByZero
	ArityMismatch
	NotCallable
	OutOfMemory
	NoSolution
	TooManyArguments
	MaxDepthExceeded
	Interrupted
)

var kindNames = [...]string{
	UndeclaredVariable:   "UndeclaredVariable",
	DuplicateDeclaration: "DuplicateDeclaration",
	ImmutableAssignment:  "ImmutableAssignment",
	TypeMismatch:         "TypeMismatch",
	DivisionByZero:       "DivisionByZero",
	ModuloByZero:         "ModuloByZero",
	ArityMismatch:        "ArityMismatch",
	NotCallable:          "NotCallable",
	OutOfMemory:          "OutOfMemory",
	NoSolution:           "NoSolution",
	TooManyArguments:     "TooManyArguments",
	MaxDepthExceeded:     "MaxDepthExceeded",
	Interrupted:          "Interrupted",
}

func (k ErrorKind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("ErrorKind(%d)", k)
}

// Error is a calq runtime error. Use errors.Is with the Err* sentinels to
// check the kind, errors.As to get the details.
type Error struct {
	Kind     ErrorKind
	Name     string // variable or function involved, if any.
	Detail   string
	Expected int
	Got      int
	Stack    []string // function names, innermost first.
	Cause    error
}

var (
	ErrUndeclaredVariable   = &Error{Kind: UndeclaredVariable}
	ErrDuplicateDeclaration = &Error{Kind: DuplicateDeclaration}
	ErrImmutableAssignment  = &Error{Kind: ImmutableAssignment}
	ErrTypeMismatch         = &Error{Kind: TypeMismatch}
	ErrDivisionByZero       = &Error{Kind: DivisionByZero}
	ErrModuloByZero         = &Error{Kind: ModuloByZero}
	ErrArityMismatch        = &Error{Kind: ArityMismatch}
	ErrNotCallable          = &Error{Kind: NotCallable}
	ErrOutOfMemory          = &Error{Kind: OutOfMemory}
	ErrNoSolution           = &Error{Kind: NoSolution}
	ErrTooManyArguments     = &Error{Kind: TooManyArguments}
	ErrMaxDepthExceeded     = &Error{Kind: MaxDepthExceeded}
	ErrInterrupted          = &Error{Kind: Interrupted}
)

func NewError(kind ErrorKind, name string) *Error {
	return &Error{Kind: kind, Name: name}
}

func (e *Error) Error() string {
	var msg string
	switch e.Kind { //nolint:exhaustive // default handles the name-less kinds.
	case UndeclaredVariable:
		msg = "undeclared variable: " + e.Name
	case DuplicateDeclaration:
		msg = "duplicate declaration: " + e.Name
	case ImmutableAssignment:
		msg = "assignment to immutable variable: " + e.Name
	case TypeMismatch:
		msg = "type mismatch: " + e.Detail
	case DivisionByZero:
		msg = "division by zero"
	case ModuloByZero:
		msg = "modulo by zero"
	case ArityMismatch:
		msg = fmt.Sprintf("%s expects %d arguments, got %d", e.Name, e.Expected, e.Got)
	case NotCallable:
		msg = "not callable: " + e.Name
	case OutOfMemory:
		msg = fmt.Sprintf("out of memory: all %d cells in use", e.Expected)
	case NoSolution:
		msg = "no solution"
		if e.Cause != nil {
			msg = e.Cause.Error()
		}
	case TooManyArguments:
		msg = fmt.Sprintf("%s called with %d arguments, at most %d can be passed", e.Name, e.Got, e.Expected)
	case MaxDepthExceeded:
		msg = fmt.Sprintf("max depth %d reached", e.Expected)
	case Interrupted:
		msg = "interrupted"
		if e.Cause != nil {
			msg += ": " + e.Cause.Error()
		}
	default:
		msg = e.Kind.String()
	}
	if len(e.Stack) > 0 {
		msg += " (in " + strings.Join(e.Stack, " < ") + ")"
	}
	return msg
}

// Is matches on the kind only, so errors.Is(err, ErrDivisionByZero) works
// whatever the details are.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Cause
}
