package pyparse

import (
	"strings"
	"unicode"

	"github.com/toyz/pystubs/internal/models"
	"github.com/toyz/pystubs/internal/utils"
)

// dunderAll is the name whose value lists the public names of a module
const dunderAll = "__all__"

// parseVariable recognises a module-level declaration such as "x = 1",
// "x: int" or "__all__ = [...]". Statements that bind nothing, or bind
// through tuples, attributes or subscripts, are not declarations.
func parseVariable(code string, line int) (models.Variable, bool) {
	if !utils.IsPythonIdentifier(firstWord(code)) {
		return models.Variable{}, false
	}

	ast, err := assignmentParser.ParseString("", code)
	if err != nil || !ast.isDeclaration() {
		return models.Variable{}, false
	}

	v := models.Variable{
		Name:       ast.Target,
		Annotation: ast.Annotation.render(),
		Line:       line,
	}
	if !ast.Assign {
		return v, true
	}

	tokens := flattenItems(ast.Value, nil)
	if len(tokens) == 0 {
		return models.Variable{}, false
	}
	value := renderTokens(tokens)

	switch {
	case v.Name == dunderAll:
		if tokens[0] == "[" || tokens[0] == "(" {
			v.Value = value
		} else {
			v.Annotation = "list[str]"
		}
	case v.Annotation != "":
		if keepsValue(v.Annotation) {
			v.Value = value
		}
	default:
		if t := literalType(tokens); t != "" {
			v.Annotation = t
		} else if looksLikeTypeAlias(tokens) {
			v.Value = value
		}
	}

	return v, true
}

// firstWord returns the leading identifier of a statement
func firstWord(code string) string {
	end := strings.IndexFunc(code, func(r rune) bool {
		return r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if end < 0 {
		return code
	}
	return code[:end]
}

// keepsValue reports whether a declaration needs its value in a stub:
// Final constants and explicit type aliases
func keepsValue(annotation string) bool {
	for _, name := range []string{"Final", "TypeAlias"} {
		if annotation == name || strings.HasSuffix(annotation, "."+name) {
			return true
		}
	}
	return false
}

// literalType infers the type of a simple literal value, or returns ""
func literalType(tokens []string) string {
	if len(tokens) == 2 && (tokens[0] == "-" || tokens[0] == "+") && isNumber(tokens[1]) {
		tokens = tokens[1:]
	}
	if len(tokens) != 1 {
		return ""
	}

	tok := tokens[0]
	switch {
	case tok == "True" || tok == "False":
		return "bool"
	case tok == "None":
		return "None"
	case isNumber(tok):
		return numberType(tok)
	case isString(tok):
		prefix := strings.ToLower(tok[:strings.IndexAny(tok, `"'`)])
		if strings.Contains(prefix, "b") {
			return "bytes"
		}
		return "str"
	}
	return ""
}

func isNumber(tok string) bool {
	return tok != "" && (unicode.IsDigit(rune(tok[0])) || (tok[0] == '.' && len(tok) > 1))
}

func numberType(tok string) string {
	lower := strings.ToLower(tok)
	switch {
	case strings.HasSuffix(lower, "j"):
		return "complex"
	case strings.HasPrefix(lower, "0x"), strings.HasPrefix(lower, "0o"), strings.HasPrefix(lower, "0b"):
		return "int"
	case strings.ContainsAny(lower, ".e"):
		return "float"
	}
	return "int"
}

func isString(tok string) bool {
	i := strings.IndexAny(tok, `"'`)
	if i < 0 || i > 2 {
		return false
	}
	for _, r := range tok[:i] {
		if !strings.ContainsRune("rRbBuUfF", r) {
			return false
		}
	}
	return true
}

// looksLikeTypeAlias reports whether a value is a type expression such as
// "Union[int, str]", "np.ndarray" or "int | None". Calls and operators
// other than "|" disqualify it; literals are allowed inside subscripts.
func looksLikeTypeAlias(tokens []string) bool {
	if !utils.IsPythonIdentifier(tokens[0]) && tokens[0] != "None" {
		return false
	}

	depth := 0
	for _, tok := range tokens {
		switch {
		case tok == "[":
			depth++
		case tok == "]":
			depth--
		case tok == "." || tok == "|" || tok == "None":
		case tok == ",":
			if depth == 0 {
				return false
			}
		case utils.IsPythonIdentifier(tok):
		case depth > 0 && (isString(tok) || isNumber(tok) || tok == "True" || tok == "False" || tok == "..." || tok == "-"):
		default:
			return false
		}
	}
	return true
}
