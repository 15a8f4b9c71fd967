package paramprog

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// programLexer tokenizes parameter program source. Numbers may carry an "mm"
// suffix; bare numbers are nanometres.
var programLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Number", Pattern: `[-+]?[0-9]+(\.[0-9]+)?(mm)?`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_\-]*`},
	{Name: "Operator", Pattern: `[-+*/]`},
	{Name: "Punct", Pattern: `[\[\]]`},
})

// programNode is the root of a parsed program.
type programNode struct {
	Statements []*statementNode `@@*`
}

// statementNode is either a literal pushed onto the stack or a command.
type statementNode struct {
	Pos     lexer.Position
	Number  *string      `  @Number`
	Command *commandNode `| @@`
}

// commandNode is a command name with optional bracketed arguments.
// Example: expand-polygon [ courtyard -1mm -1mm 1mm -1mm 1mm 1mm ]
type commandNode struct {
	Name string          `@( Ident | Operator )`
	Args []*argumentNode `( "[" @@* "]" )?`
}

type argumentNode struct {
	Number *string `  @Number`
	Word   *string `| @Ident`
}

var programParser = participle.MustBuild[programNode](
	participle.Lexer(programLexer),
	participle.Elide("Comment", "Whitespace"),
)
