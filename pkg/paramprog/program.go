// Package paramprog implements parameter programs: small stack-based scripts
// that derive polygon geometry from a parameter set.
//
// A program is a sequence of statements. Number literals ("1000", "0.5mm")
// are pushed onto an int64 stack in nanometres; every other word is a command
// that may take bracketed arguments:
//
//	get-parameter [ courtyard_expansion ]
//	expand-polygon [ courtyard -1mm -1mm 1mm -1mm 1mm 1mm -1mm 1mm ]
//
// Commands are looked up in two tiers: the generic base table, then the
// extension table supplied by the program's owner. The two tables never share
// a name, so the lookup order only matters as a convention.
package paramprog

import (
	"errors"
	"fmt"

	"github.com/OpenTraceLab/OpenTracePool/pkg/parameter"
)

var errEmptyStack = errors.New("empty stack")

// Error reports the statement that stopped a program.
type Error struct {
	Command string // empty for syntax errors
	Line    int
	Reason  string
}

func (e *Error) Error() string {
	if e.Command == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Command, e.Reason)
}

// Argument is one bracketed command argument.
type Argument struct {
	IsNumber bool
	Number   int64
	Word     string
}

func (a Argument) String() string {
	if a.IsNumber {
		return fmt.Sprint(a.Number)
	}
	return a.Word
}

// Statement is one compiled program step.
type Statement struct {
	Line    int
	Literal *int64
	Command string
	Args    []Argument
}

// Machine is the state visible to command handlers during a run.
type Machine struct {
	Stack  []int64
	Params parameter.Set
}

// Push appends v to the stack.
func (m *Machine) Push(v int64) {
	m.Stack = append(m.Stack, v)
}

// Pop removes and returns the top of the stack.
func (m *Machine) Pop() (int64, error) {
	if len(m.Stack) == 0 {
		return 0, errEmptyStack
	}
	v := m.Stack[len(m.Stack)-1]
	m.Stack = m.Stack[:len(m.Stack)-1]
	return v, nil
}

// Handler executes one command. The returned error becomes the Reason of the
// run's *Error.
type Handler func(m *Machine, args []Argument) error

// CommandTable maps command names to handlers.
type CommandTable map[string]Handler

// Program is a compiled parameter program.
type Program struct {
	code       string
	statements []Statement
	compileErr error
	extend     func() CommandTable
}

// New compiles code. Compilation errors are kept and reported by Run.
func New(code string) *Program {
	p := &Program{code: code}
	p.statements, p.compileErr = compile(code)
	return p
}

// Code returns the source text.
func (p *Program) Code() string {
	return p.code
}

// Err returns the compilation error, if any.
func (p *Program) Err() error {
	return p.compileErr
}

// Statements returns the compiled statements.
func (p *Program) Statements() []Statement {
	return p.statements
}

// Extend binds the owner-specific command table. fn is called once per run so
// extensions can keep per-run state.
func (p *Program) Extend(fn func() CommandTable) {
	p.extend = fn
}

// Clone returns a copy without an extension; the new owner must bind its own.
func (p *Program) Clone() *Program {
	return &Program{
		code:       p.code,
		statements: p.statements,
		compileErr: p.compileErr,
	}
}

// Run executes the program against ps. It returns nil on success, or an
// *Error describing the first failing statement. Effects of statements that
// ran before the failure are not undone.
func (p *Program) Run(ps parameter.Set) error {
	if p.compileErr != nil {
		return p.compileErr
	}

	var ext CommandTable
	if p.extend != nil {
		ext = p.extend()
	}

	m := &Machine{Params: ps}
	for _, st := range p.statements {
		if st.Literal != nil {
			m.Push(*st.Literal)
			continue
		}

		h := lookup(st.Command, ext)
		if h == nil {
			return &Error{Command: st.Command, Line: st.Line, Reason: "unknown command"}
		}
		if err := h(m, st.Args); err != nil {
			return &Error{Command: st.Command, Line: st.Line, Reason: err.Error()}
		}
	}
	return nil
}

// lookup consults the base table first, then the owner's extension.
func lookup(name string, ext CommandTable) Handler {
	if h, ok := baseCommands[name]; ok {
		return h
	}
	if h, ok := ext[name]; ok {
		return h
	}
	return nil
}

func compile(code string) ([]Statement, error) {
	ast, err := programParser.ParseString("", code)
	if err != nil {
		return nil, &Error{Reason: fmt.Sprintf("syntax error: %v", err)}
	}

	statements := make([]Statement, 0, len(ast.Statements))
	for _, node := range ast.Statements {
		st := Statement{Line: node.Pos.Line}
		if node.Number != nil {
			v, err := parameter.ParseValue(*node.Number)
			if err != nil {
				return nil, &Error{Line: node.Pos.Line, Reason: err.Error()}
			}
			st.Literal = &v
		} else {
			st.Command = node.Command.Name
			for _, a := range node.Command.Args {
				if a.Number != nil {
					v, err := parameter.ParseValue(*a.Number)
					if err != nil {
						return nil, &Error{Command: st.Command, Line: node.Pos.Line, Reason: err.Error()}
					}
					st.Args = append(st.Args, Argument{IsNumber: true, Number: v})
				} else {
					st.Args = append(st.Args, Argument{Word: *a.Word})
				}
			}
		}
		statements = append(statements, st)
	}
	return statements, nil
}
