package pyparse

import (
	"strings"
	"unicode"
)

// tokenClass is a coarse classification used to decide spacing when an
// expression is rendered back to text
type tokenClass int

const (
	classAtom tokenClass = iota // identifiers, keywords, numbers, strings, ...
	classOpen
	classClose
	classComma
	classColon
	classDot
	classOp
)

func classify(tok string) tokenClass {
	switch tok {
	case "(", "[", "{":
		return classOpen
	case ")", "]", "}":
		return classClose
	case ",":
		return classComma
	case ":":
		return classColon
	case ".":
		return classDot
	case "...":
		return classAtom
	}

	r := []rune(tok)[0]
	if r == '_' || r == '"' || r == '\'' || unicode.IsLetter(r) || unicode.IsDigit(r) {
		return classAtom
	}
	if r == '.' && len(tok) > 1 {
		return classAtom // .5
	}
	return classOp
}

// isUnaryCandidate reports whether an operator may be a prefix operator
func isUnaryCandidate(tok string) bool {
	switch tok {
	case "-", "+", "~", "*", "**":
		return true
	}
	return false
}

// flatten appends the token values of an expression in source order
func (e *expr) flatten(out []string) []string {
	for _, part := range e.Parts {
		switch {
		case part.Lambda != nil:
			out = part.Lambda.flatten(out)
		case part.Group != nil:
			out = part.Group.flatten(out)
		default:
			out = append(out, part.Token)
		}
	}
	return out
}

func (l *lambda) flatten(out []string) []string {
	out = append(out, l.Keyword)
	for _, item := range l.Params {
		if item.Group != nil {
			out = item.Group.flatten(out)
		} else {
			out = append(out, item.Token)
		}
	}
	return append(out, l.Colon)
}

func (g *group) flatten(out []string) []string {
	out = append(out, g.Open)
	out = flattenItems(g.Items, out)
	return append(out, g.Close)
}

func flattenItems(items []*groupItem, out []string) []string {
	for _, item := range items {
		if item.Group != nil {
			out = item.Group.flatten(out)
		} else {
			out = append(out, item.Token)
		}
	}
	return out
}

// renderTokens joins tokens with canonical Python spacing: a space after
// commas and around binary operators, none inside brackets, around dots,
// before call or subscript brackets, after prefix operators, or around
// keyword-argument equals signs.
func renderTokens(tokens []string) string {
	var b strings.Builder
	prevClass := classOpen // start of expression behaves like an opening bracket
	prevTok := ""
	prevUnary := false

	for i, tok := range tokens {
		class := classify(tok)
		unary := false
		if class == classOp && isUnaryCandidate(tok) {
			unary = i == 0 || prevClass == classOpen || prevClass == classComma ||
				prevClass == classColon || prevClass == classOp || prevTok == "lambda"
		}

		if i > 0 && needsSpace(prevTok, prevClass, prevUnary, tok, class) {
			b.WriteByte(' ')
		}
		b.WriteString(tok)

		prevTok, prevClass, prevUnary = tok, class, unary
	}

	return b.String()
}

func needsSpace(prevTok string, prev tokenClass, prevUnary bool, tok string, cur tokenClass) bool {
	switch {
	case cur == classClose, cur == classComma, cur == classColon:
		return false
	case cur == classDot, prev == classDot:
		return false
	case prev == classOpen:
		return false
	case prev == classComma, prev == classColon:
		return true
	case prevUnary:
		return false
	case tok == "=", prevTok == "=":
		return false
	case cur == classOpen:
		return prev == classOp
	case cur == classOp, prev == classOp:
		return true
	}
	// adjacent atoms: keywords such as "not x" or "x if y else z"
	return true
}

// render returns the canonical text of an expression, or "" for nil
func (e *expr) render() string {
	if e == nil {
		return ""
	}
	return renderTokens(e.flatten(nil))
}

// render returns the text between the brackets of a type parameter list,
// or "" for nil
func (t *typeParams) render() string {
	if t == nil {
		return ""
	}
	return renderItems(t.Items)
}

// renderItems returns the canonical text of a token sequence
func renderItems(items []*groupItem) string {
	return renderTokens(flattenItems(items, nil))
}
