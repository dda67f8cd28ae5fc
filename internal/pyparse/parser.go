// Package pyparse extracts top-level function signatures and import
// statements from Python source files.
package pyparse

import (
	"strings"

	"github.com/alecthomas/participle/v2"

	"github.com/toyz/pystubs/internal/errors"
	"github.com/toyz/pystubs/internal/models"
)

// Parser extracts module-level definitions from Python source
type Parser struct {
	includeTypeCheckingImports bool
}

// Option configures a Parser
type Option func(*Parser)

// WithoutTypeCheckingImports stops the parser from carrying imports found
// inside top-level "if TYPE_CHECKING:" blocks
func WithoutTypeCheckingImports() Option {
	return func(p *Parser) {
		p.includeTypeCheckingImports = false
	}
}

// NewParser creates a new Python source parser
func NewParser(opts ...Option) *Parser {
	p := &Parser{includeTypeCheckingImports: true}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseModule extracts the top-level functions and imports of one source
// file. Methods and nested functions are ignored.
func (p *Parser) ParseModule(moduleName, path, source string) (*models.Module, error) {
	lines, err := splitLogicalLines(source)
	if err != nil {
		return nil, errors.WrapParseError(path, err).
			WithLocation(errors.SourceLocation{File: path})
	}

	mod := &models.Module{
		Name: moduleName,
		Path: path,
	}

	var (
		decorators   []string
		typeChecking bool // inside a top-level "if TYPE_CHECKING:" block
		bound        = make(map[string]bool)
	)

	for _, ll := range lines {
		if ll.isBlank() {
			continue
		}

		code := strings.TrimSpace(ll.Code)

		if ll.Indent > 0 {
			if typeChecking && p.includeTypeCheckingImports && isImport(code) {
				if imp, ok := normalizeImport(code); ok {
					mod.Imports = append(mod.Imports, models.Import{Text: imp, Line: ll.Line})
				}
			}
			continue
		}

		typeChecking = false

		switch {
		case strings.HasPrefix(code, "@"):
			decorators = append(decorators, collapseSpace(strings.TrimPrefix(code, "@")))
			continue

		case isDef(code):
			def, err := p.parseDef(path, ll)
			if err != nil {
				return nil, err
			}
			def.Decorators = decorators
			mod.Functions = append(mod.Functions, *def)

		case isClass(code):
			class, err := p.parseClass(path, ll)
			if err != nil {
				return nil, err
			}
			mod.Classes = append(mod.Classes, *class)

		case isImport(code):
			if imp, ok := normalizeImport(code); ok {
				mod.Imports = append(mod.Imports, models.Import{Text: imp, Line: ll.Line})
			}

		case isTypeCheckingGuard(code):
			typeChecking = true

		default:
			if v, ok := parseVariable(code, ll.Line); ok && !bound[v.Name] {
				bound[v.Name] = true
				mod.Variables = append(mod.Variables, v)
			}
		}

		decorators = nil
	}

	return mod, nil
}

// ParseSignature parses a single definition header such as
// "def f(x: int, *, copy: bool = False) -> None:"
func (p *Parser) ParseSignature(header string) (models.FunctionSignature, error) {
	def, err := p.parseDef("<signature>", logicalLine{Raw: header, Code: header, Line: 1})
	if err != nil {
		return models.FunctionSignature{}, err
	}
	return def.Signature, nil
}

// parseDef parses the header of a def logical line into a FunctionDef
func (p *Parser) parseDef(path string, ll logicalLine) (*models.FunctionDef, error) {
	loc := errors.SourceLocation{File: path, Line: ll.Line}

	end := headerEnd(ll.Code)
	if end < 0 {
		return nil, errors.NewSyntaxError("function definition has no ':'").
			WithLocation(loc).
			WithSnippet(strings.TrimSpace(ll.Code))
	}
	header := strings.TrimSpace(ll.Code[:end])

	ast, err := headerParser.ParseString(path, header)
	if err != nil {
		return nil, syntaxError(err, loc, header)
	}

	sig := models.FunctionSignature{
		Name:       ast.Name,
		TypeParams: ast.TypeParams.render(),
		ReturnType: ast.Returns.render(),
	}

	for _, prm := range ast.Params {
		if prm.isEmpty() {
			continue
		}
		converted, err := convertParam(prm)
		if err != nil {
			return nil, errors.WrapParseError("parameter of "+ast.Name, err).
				WithLocation(errors.SourceLocation{File: path, Line: ll.Line + prm.Pos.Line - 1}).
				WithSnippet(header)
		}
		sig.Parameters = append(sig.Parameters, converted)
	}

	if err := sig.Validate(); err != nil {
		return nil, errors.WrapParseError(ast.Name, err).
			WithLocation(loc).
			WithSnippet(header)
	}

	return &models.FunctionDef{
		Signature: sig,
		Async:     ast.Async,
		Line:      ll.Line,
	}, nil
}

// parseClass parses the header of a class logical line
func (p *Parser) parseClass(path string, ll logicalLine) (*models.ClassDef, error) {
	loc := errors.SourceLocation{File: path, Line: ll.Line}

	end := headerEnd(ll.Code)
	if end < 0 {
		return nil, errors.NewSyntaxError("class statement has no ':'").
			WithLocation(loc).
			WithSnippet(strings.TrimSpace(ll.Code))
	}
	header := strings.TrimSpace(ll.Code[:end])

	ast, err := classParser.ParseString(path, header)
	if err != nil {
		return nil, syntaxError(err, loc, header)
	}

	return &models.ClassDef{
		Name:       ast.Name,
		TypeParams: ast.TypeParams.render(),
		Bases:      renderItems(ast.Bases),
		Line:       ll.Line,
	}, nil
}

// convertParam maps a parsed parameter onto the canonical descriptor
func convertParam(prm *param) (models.Parameter, error) {
	out := models.Parameter{
		Name: prm.Name,
		Type: prm.Annotation.render(),
	}
	if prm.Default != nil {
		out.HasDefault = true
		out.DefaultValue = prm.Default.render()
	}

	switch prm.Stars {
	case "":
		out.Kind = models.KindOrdinary
		if prm.Name == "" {
			return out, errors.NewSyntaxError("parameter has no name")
		}
	case "*":
		out.Kind = models.KindStarArgs
		if prm.Name == "" && out.Type != "" {
			return out, errors.NewSyntaxError("bare '*' cannot be annotated")
		}
	case "**":
		out.Kind = models.KindStarKwargs
		if prm.Name == "" {
			return out, errors.NewSyntaxError("'**' must be followed by a name")
		}
	case "/":
		out.Kind = models.KindPositionalOnly
		if prm.Name != "" || out.Type != "" {
			return out, errors.NewSyntaxError("'/' marker cannot carry a name or annotation")
		}
	}

	if out.HasDefault && out.Kind != models.KindOrdinary {
		return out, errors.NewSyntaxError("only ordinary parameters can have defaults")
	}

	return out, nil
}

// syntaxError converts a participle error into a located SyntaxError
func syntaxError(err error, loc errors.SourceLocation, header string) *errors.SyntaxError {
	message := err.Error()
	if perr, ok := err.(participle.Error); ok {
		pos := perr.Position()
		loc.Line += pos.Line - 1
		if pos.Line == 1 {
			loc.Column = pos.Column
		}
		message = perr.Message()
	}
	return errors.NewSyntaxError("invalid function definition: " + message).
		WithLocation(loc).
		WithSnippet(header)
}

// isDef reports whether a statement starts a function definition
func isDef(code string) bool {
	if strings.HasPrefix(code, "async") {
		code = strings.TrimSpace(strings.TrimPrefix(code, "async"))
	}
	return strings.HasPrefix(code, "def ") || strings.HasPrefix(code, "def\t")
}

// isClass reports whether a statement starts a class definition
func isClass(code string) bool {
	return strings.HasPrefix(code, "class ") || strings.HasPrefix(code, "class\t")
}

// isImport reports whether a statement is an import
func isImport(code string) bool {
	return strings.HasPrefix(code, "import ") || strings.HasPrefix(code, "from ")
}

// isTypeCheckingGuard reports whether a statement opens an
// "if TYPE_CHECKING:" block
func isTypeCheckingGuard(code string) bool {
	code = collapseSpace(code)
	return code == "if TYPE_CHECKING:" || code == "if typing.TYPE_CHECKING:"
}

// normalizeImport flattens an import statement onto one line, dropping
// parentheses and trailing commas. __future__ imports are skipped since
// they have no meaning in a stub.
func normalizeImport(code string) (string, bool) {
	code = collapseSpace(code)
	if strings.HasPrefix(code, "from __future__ ") {
		return "", false
	}

	if open := strings.IndexByte(code, '('); open >= 0 {
		head := strings.TrimSpace(code[:open])
		body := strings.TrimSuffix(strings.TrimSpace(code[open+1:]), ")")
		var names []string
		for _, name := range strings.Split(body, ",") {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}
		code = head + " " + strings.Join(names, ", ")
	}

	return code, true
}

// collapseSpace replaces runs of whitespace with a single space
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
