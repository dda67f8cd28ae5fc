package pyparse

import (
	"fmt"
	"strings"
)

// logicalLine is one Python statement line: physical lines joined while a
// bracket is open, a string is unterminated or a backslash continues them
type logicalLine struct {
	Raw    string // original text including comments and newlines
	Code   string // text with comments removed
	Line   int    // 1-based number of the first physical line
	Indent int    // leading whitespace width of the first physical line
}

// isBlank reports whether the line holds no code
func (l logicalLine) isBlank() bool {
	return strings.TrimSpace(l.Code) == ""
}

// scanState tracks the lexical context while splitting logical lines
type scanState struct {
	depth  int    // open bracket depth
	quote  string // active string delimiter, empty outside strings
	escape bool   // previous character was a backslash inside a string
}

// splitLogicalLines splits source into logical lines. It understands
// strings, comments, brackets and backslash continuations, which is all
// that is needed to find statement boundaries.
func splitLogicalLines(src string) ([]logicalLine, error) {
	src = strings.ReplaceAll(src, "\r\n", "\n")

	var (
		lines []logicalLine
		st    scanState
		raw   strings.Builder
		code  strings.Builder
		start = 1
		line  = 1
	)

	flush := func() {
		r := raw.String()
		lines = append(lines, logicalLine{
			Raw:    r,
			Code:   code.String(),
			Line:   start,
			Indent: indentWidth(r),
		})
		raw.Reset()
		code.Reset()
	}

	for i := 0; i < len(src); i++ {
		c := src[i]

		if st.quote != "" {
			raw.WriteByte(c)
			code.WriteByte(c)
			switch {
			case st.escape:
				st.escape = false
			case c == '\\':
				st.escape = true
			case strings.HasPrefix(src[i:], st.quote):
				raw.WriteString(st.quote[1:])
				code.WriteString(st.quote[1:])
				i += len(st.quote) - 1
				st.quote = ""
			case c == '\n':
				if len(st.quote) == 1 {
					return nil, fmt.Errorf("line %d: unterminated string literal", line)
				}
			}
			if c == '\n' {
				line++
			}
			continue
		}

		switch c {
		case '#':
			end := strings.IndexByte(src[i:], '\n')
			if end < 0 {
				end = len(src) - i
			}
			raw.WriteString(src[i : i+end])
			i += end - 1
			continue
		case '"', '\'':
			q := string(c)
			if strings.HasPrefix(src[i:], strings.Repeat(q, 3)) {
				q = strings.Repeat(q, 3)
			}
			st.quote = q
			raw.WriteString(q)
			code.WriteString(q)
			i += len(q) - 1
			continue
		case '(', '[', '{':
			st.depth++
		case ')', ']', '}':
			if st.depth > 0 {
				st.depth--
			}
		case '\\':
			if i+1 < len(src) && src[i+1] == '\n' {
				raw.WriteString("\\\n")
				code.WriteString(" ")
				i++
				line++
				continue
			}
		case '\n':
			line++
			if st.depth == 0 {
				flush()
				start = line
				continue
			}
		}

		raw.WriteByte(c)
		code.WriteByte(c)
	}

	if st.quote != "" {
		return nil, fmt.Errorf("line %d: unterminated string literal", start)
	}
	if st.depth > 0 {
		return nil, fmt.Errorf("line %d: unclosed bracket", start)
	}
	if raw.Len() > 0 {
		flush()
	}

	return lines, nil
}

// indentWidth returns the width of the leading whitespace of s, counting a
// tab as eight columns
func indentWidth(s string) int {
	width := 0
	for _, c := range s {
		switch c {
		case ' ':
			width++
		case '\t':
			width += 8 - width%8
		default:
			return width
		}
	}
	return width
}

// headerEnd returns the index just past the colon that ends a def header,
// or -1 when the code has no such colon
func headerEnd(code string) int {
	depth := 0
	quote := ""
	for i := 0; i < len(code); i++ {
		c := code[i]
		if quote != "" {
			if c == '\\' {
				i++
				continue
			}
			if strings.HasPrefix(code[i:], quote) {
				i += len(quote) - 1
				quote = ""
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = string(c)
			if strings.HasPrefix(code[i:], strings.Repeat(quote, 3)) {
				quote = strings.Repeat(quote, 3)
			}
			i += len(quote) - 1
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ':':
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}
