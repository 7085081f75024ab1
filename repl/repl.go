// Package repl hosts calq runtimes: one shot evaluation of strings and
// streams, and the interactive read-eval-print loop.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"calq.dev/calq/ast"
	"calq.dev/calq/eval"
	"calq.dev/calq/lexer"
	"calq.dev/calq/object"
	"calq.dev/calq/parser"
	"calq.dev/calq/token"
	"fortio.org/log"
	"fortio.org/terminal"
	"fortio.org/version"
)

const (
	PROMPT       = "calq> "
	CONTINUATION = "  ... "
)

type Options struct {
	ShowParse  bool
	ShowEval   bool
	FormatOnly bool
	Compact    bool
	// Print errors on the output, in red, rather than logging them.
	ErrorsToOut bool
	HistoryFile string
	MaxHistory  int
	ArenaSize   int           // cells, 0 for object.DefaultArenaSize.
	MaxDepth    int           // 0 for eval.DefaultMaxDepth.
	MaxDuration time.Duration // per group, 0 for unlimited.
	PanicOk     bool
}

// NewState creates a runtime configured per the options.
func NewState(options Options, out io.Writer) (*eval.State, error) {
	size := options.ArenaSize
	if size <= 0 {
		size = object.DefaultArenaSize
	}
	s, err := eval.NewStateSize(size)
	if err != nil {
		return nil, err
	}
	if options.MaxDepth > 0 {
		s.MaxDepth = options.MaxDepth
	}
	s.Out = out
	return s, nil
}

func logParserErrors(p *parser.Parser) []string {
	errs := p.Errors()
	if len(errs) == 0 {
		return nil
	}
	log.Critf("parser has %d error(s)", len(errs))
	for _, msg := range p.Diagnostics() {
		log.Errf("parser error: %s", msg)
	}
	return errs
}

// FormatError names the kind of runtime errors, e.g. "DivisionByZero: division by zero".
func FormatError(err error) string {
	var e *object.Error
	if errors.As(err, &e) {
		return e.Kind.String() + ": " + e.Error()
	}
	return err.Error()
}

// EvalString evaluates code on a fresh runtime and returns what it printed
// (plus its trailing value) and the errors.
func EvalString(what string) (res string, errs []string) {
	return EvalStringWithOption(context.Background(), Options{ShowEval: true}, what)
}

func EvalStringWithOption(ctx context.Context, o Options, what string) (res string, errs []string) {
	out := strings.Builder{}
	s, err := NewState(o, &out)
	if err != nil {
		return "", []string{err.Error()}
	}
	errs = EvalOne(ctx, s, what, &out, o)
	return out.String(), errs
}

// EvalAll reads all of in and evaluates it as one group.
func EvalAll(ctx context.Context, s *eval.State, in io.Reader, out io.Writer, options Options) []string {
	b, err := io.ReadAll(in)
	if err != nil {
		log.Errf("%v", err)
		return []string{err.Error()}
	}
	return EvalOne(ctx, s, string(b), out, options)
}

// EvalOne parses and runs one statement group, returning its errors (parse
// errors or the runtime error that aborted the group).
func EvalOne(ctx context.Context, s *eval.State, what string, out io.Writer, options Options) (errs []string) {
	p := parser.New(lexer.New(what))
	program := p.ParseProgram()
	if errs = logParserErrors(p); len(errs) > 0 {
		if options.ErrorsToOut {
			for _, msg := range p.Diagnostics() {
				fmt.Fprintf(out, "%s%s%s\n", log.Colors.Red, msg, log.Colors.Reset)
			}
		}
		return errs
	}
	if options.ShowParse || options.FormatOnly {
		ps := ast.NewPrintState()
		ps.Compact = options.Compact
		if options.ShowParse {
			fmt.Fprint(out, "== Parse ==> ")
		}
		fmt.Fprintln(out, program.PrettyPrint(ps).String())
		if options.FormatOnly {
			return nil
		}
	}
	if options.ShowParse && options.ShowEval {
		fmt.Fprint(out, "== Eval  ==> ")
	}
	if options.MaxDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, options.MaxDuration)
		defer cancel()
	}
	obj, err := safeRun(ctx, s, program, options.PanicOk)
	if err != nil {
		msg := FormatError(err)
		if options.ErrorsToOut {
			fmt.Fprintf(out, "%s%s%s\n", log.Colors.Red, msg, log.Colors.Reset)
		} else {
			log.Errf("%s", msg)
		}
		return []string{msg}
	}
	if options.ShowEval && obj.Type() != object.NIL {
		fmt.Fprint(out, log.Colors.Green)
		fmt.Fprint(out, obj.Inspect())
		fmt.Fprintln(out, log.Colors.Reset)
	}
	return nil
}

func safeRun(ctx context.Context, s *eval.State, program *ast.Statements, panicOk bool) (res object.Object, err error) {
	if !panicOk {
		defer func() {
			if r := recover(); r != nil {
				log.Critf("Caught panic: %v", r)
				err = fmt.Errorf("panic: %v", r)
				s.Reset()
			}
		}()
	}
	return s.Run(ctx, program)
}

// Nesting is the raw bracket depth of code: () and {} opened and not yet
// closed. Interactive input is accumulated until it is back to 0.
func Nesting(code string) int {
	l := lexer.New(code)
	depth := 0
	for {
		tok := l.NextToken()
		switch tok.Type { //nolint:exhaustive // only brackets matter.
		case token.EOF:
			return depth
		case token.LPAREN, token.LBRACE:
			depth++
		case token.RPAREN, token.RBRACE:
			depth--
		}
	}
}

// LineReader is the part of the terminal the interactive loop uses.
type LineReader interface {
	ReadLine() (string, error)
	SetPrompt(prompt string)
}

// Interactive runs the read-eval-print loop on the terminal until exit or
// end of input. Returns the exit code.
func Interactive(options Options) int {
	term, err := terminal.Open(context.Background())
	if err != nil {
		return log.FErrf("Error creating terminal: %v", err)
	}
	defer term.Close()
	term.LoggerSetup()
	options.ErrorsToOut = true
	options.ShowEval = true
	s, err := NewState(options, term.Out)
	if err != nil {
		return log.FErrf("Error creating runtime: %v", err)
	}
	autoComplete := NewCompletion()
	s.RegisterTrie(autoComplete.Trie)
	term.SetAutoCompleteCallback(autoComplete.AutoComplete())
	if options.MaxHistory > 0 {
		term.NewHistory(options.MaxHistory)
		if options.HistoryFile != "" {
			if err = term.SetHistoryFile(options.HistoryFile); err != nil {
				log.Warnf("Couldn't use history file %s: %v", options.HistoryFile, err)
			}
		}
	}
	short, _, _ := version.FromBuildInfoPath("calq.dev/calq")
	fmt.Fprintf(term.Out, "calq %s - type 'exit' or ^D to quit\n", short)
	return Loop(s, term, term.Out, options)
}

// Loop reads statement groups from in and evaluates them in s, reporting
// errors and keeping the bindings made so far.
func Loop(s *eval.State, in LineReader, out io.Writer, options Options) int {
	pending := strings.Builder{}
	in.SetPrompt(PROMPT)
	for {
		line, err := in.ReadLine()
		if errors.Is(err, terminal.ErrUserInterrupt) {
			if pending.Len() > 0 {
				log.Infof("Discarding pending input")
			}
			pending.Reset()
			in.SetPrompt(PROMPT)
			continue
		}
		if errors.Is(err, io.EOF) {
			log.Infof("Bye.")
			return 0
		}
		if err != nil {
			return log.FErrf("Error reading line: %v", err)
		}
		if pending.Len() == 0 && strings.TrimSpace(line) == "exit" {
			return 0
		}
		pending.WriteString(line)
		pending.WriteByte('\n')
		code := pending.String()
		if Nesting(code) > 0 {
			in.SetPrompt(CONTINUATION)
			continue
		}
		pending.Reset()
		in.SetPrompt(PROMPT)
		if strings.TrimSpace(code) == "" {
			continue
		}
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		EvalOne(ctx, s, code, out, options)
		cancel()
		log.LogVf("%s", s.Describe())
	}
}
