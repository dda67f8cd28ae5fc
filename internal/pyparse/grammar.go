package pyparse

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// defHeader is the grammar for a function definition header, from the
// optional async keyword up to and including the colon that opens the body
type defHeader struct {
	Pos        lexer.Position
	Async      bool        `@"async"?`
	Name       string      `"def" @Ident`
	TypeParams *typeParams `@@?`
	Params     []*param    `"(" ( @@ ( "," @@? )* )? ")"`
	Returns    *expr       `( "->" @@ )? ":"`
}

// typeParams is a PEP 695 type parameter list, e.g. def f[T](x: T)
type typeParams struct {
	Items []*groupItem `"[" @@* "]"`
}

// param is one entry of the parameter list. The star prefix and the name
// are both optional so that the bare * and / markers fit the same rule.
type param struct {
	Pos        lexer.Position
	Stars      string `( @( "**" | "*" ) | @"/" )?`
	Name       string `@Ident?`
	Annotation *expr  `( ":" @@ )?`
	Default    *expr  `( "=" @@ )?`
}

// isEmpty reports whether the rule matched nothing, which happens for an
// empty parameter list or a trailing comma
func (p *param) isEmpty() bool {
	return p.Stars == "" && p.Name == "" && p.Annotation == nil && p.Default == nil
}

// expr is an annotation, default value or return annotation. It runs until
// a delimiter that ends it at bracket depth zero.
type expr struct {
	Parts []*fragment `@@+`
}

// fragment is a lambda head, a bracketed group or a single token
type fragment struct {
	Lambda *lambda `  @@`
	Group  *group  `| @@`
	Token  string  `| @!( "," | ")" | "]" | "}" | "=" | ":" | "(" | "[" | "{" )`
}

// lambda is the head of a lambda expression up to and including its colon.
// The body follows as ordinary fragments.
type lambda struct {
	Keyword string        `@"lambda"`
	Params  []*lambdaItem `@@*`
	Colon   string        `@":"`
}

// lambdaItem is one token or group of a lambda parameter list, where
// commas and equals signs are ordinary tokens
type lambdaItem struct {
	Group *group `  @@`
	Token string `| @!( ":" | ")" | "]" | "}" | "(" | "[" | "{" )`
}

// group is a balanced bracket pair and everything inside it
type group struct {
	Open  string       `@( "(" | "[" | "{" )`
	Items []*groupItem `@@*`
	Close string       `@( ")" | "]" | "}" )`
}

// groupItem is a token or nested group inside brackets, where commas,
// colons and equals signs are ordinary tokens
type groupItem struct {
	Group *group `  @@`
	Token string `| @!( ")" | "]" | "}" | "(" | "[" | "{" )`
}

// classHeader is the grammar for a class statement header up to and
// including its colon
type classHeader struct {
	Name       string       `"class" @Ident`
	TypeParams *typeParams  `@@?`
	Bases      []*groupItem `( "(" @@* ")" )? ":"`
}

// assignment is a module-level statement that starts with a name. Only
// those with an annotation or a plain "=" are declarations; the rest are
// expression statements and augmented assignments.
type assignment struct {
	Target     string       `@Ident`
	Annotation *expr        `( ":" @@ )?`
	Assign     bool         `@"="?`
	Value      []*groupItem `@@*`
}

// isDeclaration reports whether the statement binds Target
func (a *assignment) isDeclaration() bool {
	return a.Annotation != nil || a.Assign
}

// pythonLexer tokenizes the subset of Python needed for definition headers.
// Rule order matters: strings before identifiers so prefixed literals such
// as r"..." lex as one token, and multi-character operators before Punct.
var pythonLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "String", Pattern: `(?i:[rbuf]{0,2})(?:"""(?:[^\\]|\\[\s\S])*?"""|'''(?:[^\\]|\\[\s\S])*?'''|"(?:[^"\\\n]|\\[\s\S])*"|'(?:[^'\\\n]|\\[\s\S])*')`},
	{Name: "Number", Pattern: `0[xX][0-9a-fA-F_]+|0[oO][0-7_]+|0[bB][01_]+|(?:\d[\d_]*(?:\.[\d_]*)?|\.\d[\d_]*)(?:[eE][+-]?\d+)?[jJ]?`},
	{Name: "Ellipsis", Pattern: `\.\.\.`},
	{Name: "Op", Pattern: `->|\*\*|//|==|!=|<=|>=|<<|>>|:=`},
	{Name: "Ident", Pattern: `[\p{L}_][\p{L}\p{N}_]*`},
	{Name: "Punct", Pattern: `[-+*/%@&|^~<>=!.,:;()\[\]{}]`},
	{Name: "Whitespace", Pattern: `(?:\s|\\\n)+`},
	{Name: "Other", Pattern: `.`},
})

var parserOptions = []participle.Option{
	participle.Lexer(pythonLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(2),
}

var (
	// headerParser parses a single definition header
	headerParser = participle.MustBuild[defHeader](parserOptions...)
	// classParser parses a class statement header
	classParser = participle.MustBuild[classHeader](parserOptions...)
	// assignmentParser parses a module-level statement starting with a name
	assignmentParser = participle.MustBuild[assignment](parserOptions...)
)
