// Package stubgen renders type stubs from extracted and transformed
// function signatures.
package stubgen

import (
	"strings"
	"unicode/utf8"

	"github.com/toyz/pystubs/internal/models"
)

// DefaultLineLength is the width above which a definition is wrapped one
// parameter per line
const DefaultLineLength = 88

// GeneratedHeader is the first line of every rendered stub. Stubs on disk
// without it are hand-written and are never overwritten or removed.
const GeneratedHeader = "# Generated by pystubs. Do not edit."

const (
	overloadDecorator = "overload"
	literalName       = "Literal"
	typeshedModule    = "_typeshed"
	incompleteName    = "Incomplete"
)

// IsGenerated reports whether stub text carries the generated header
func IsGenerated(content string) bool {
	return strings.HasPrefix(content, GeneratedHeader+"\n")
}

// Writer renders the stub text of one module
type Writer struct {
	// LineLength wraps definitions longer than this; 0 disables wrapping
	LineLength int
	// IncludePrivate keeps functions whose names start with an underscore
	IncludePrivate bool
	// PythonVersion is the target interpreter, e.g. "3.11"
	PythonVersion string
}

// NewWriter creates a writer with default settings
func NewWriter() *Writer {
	return &Writer{LineLength: DefaultLineLength}
}

// Select returns the signatures of the module that belong in its stub, in
// declaration order. Private functions are dropped unless IncludePrivate is
// set, and the implementation that follows a run of @overload definitions
// is dropped since stubs only declare the overloads.
func (w *Writer) Select(mod *models.Module) []models.FunctionSignature {
	var (
		sigs         []models.FunctionSignature
		overloadedBy string
	)

	for _, fn := range mod.Functions {
		name := fn.Signature.Name
		if fn.IsPrivate() && !w.IncludePrivate {
			overloadedBy = ""
			continue
		}

		if fn.HasDecorator(overloadDecorator) {
			overloadedBy = name
		} else if overloadedBy == name {
			overloadedBy = ""
			continue
		} else {
			overloadedBy = ""
		}

		sigs = append(sigs, fn.Signature)
	}

	return sigs
}

// Render returns the stub text for the module given the final signature
// sequence. Module-level variables and classes are declared ahead of the
// functions. Contiguous signatures sharing a name form an overload group;
// every member of a group of two or more is decorated with @overload. A
// module that declares nothing renders as "".
func (w *Writer) Render(mod *models.Module, sigs []models.FunctionSignature) string {
	variables, classes := w.declarations(mod, sigs)
	if len(sigs) == 0 && len(variables) == 0 && len(classes) == 0 {
		return ""
	}

	async := make(map[string]bool, len(mod.Functions))
	for _, fn := range mod.Functions {
		if fn.Async {
			async[fn.Signature.Name] = true
		}
	}

	imports := NewImportManager(w.PythonVersion)
	for _, imp := range mod.Imports {
		imports.AddModuleImport(imp.Text)
	}

	groups := groupOverloads(sigs)
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		imports.RequireTyping(overloadDecorator)
		for _, sig := range group {
			if usesLiteral(sig) {
				imports.RequireTyping(literalName)
			}
		}
	}

	var sections []string
	if len(variables) > 0 {
		var b strings.Builder
		for _, v := range variables {
			if v.Annotation == "" && v.Value == "" {
				imports.RequireName(typeshedModule, incompleteName)
			}
			b.WriteString(renderVariable(v) + "\n")
		}
		sections = append(sections, b.String())
	}

	if len(classes) > 0 {
		var b strings.Builder
		for _, c := range classes {
			b.WriteString(c.String() + "\n")
		}
		sections = append(sections, b.String())
	}

	for _, group := range groups {
		for _, sig := range group {
			def := w.renderDef(sig, async[sig.Name])
			if len(group) > 1 {
				def = "@" + overloadDecorator + "\n" + def
			}
			sections = append(sections, def)
		}
	}

	if header := imports.GenerateImports(); header != "" {
		sections = append([]string{header}, sections...)
	}

	return GeneratedHeader + "\n" + strings.Join(sections, "\n")
}

// declarations returns the variables and classes of the module that belong
// in its stub. Names also bound by a stubbed function or a class keep only
// that definition.
func (w *Writer) declarations(mod *models.Module, sigs []models.FunctionSignature) ([]models.Variable, []models.ClassDef) {
	defined := make(map[string]bool, len(sigs)+len(mod.Classes))
	for _, sig := range sigs {
		defined[sig.Name] = true
	}

	var classes []models.ClassDef
	for _, c := range mod.Classes {
		if models.IsPrivateName(c.Name) && !w.IncludePrivate {
			continue
		}
		if defined[c.Name] {
			continue
		}
		defined[c.Name] = true
		classes = append(classes, c)
	}

	var variables []models.Variable
	for _, v := range mod.Variables {
		if models.IsPrivateName(v.Name) && !w.IncludePrivate {
			continue
		}
		if defined[v.Name] {
			continue
		}
		variables = append(variables, v)
	}

	return variables, classes
}

// renderVariable declares a module-level name. Names whose type is unknown
// are declared Incomplete.
func renderVariable(v models.Variable) string {
	switch {
	case v.Annotation != "" && v.Value != "":
		return v.Name + ": " + v.Annotation + " = " + v.Value
	case v.Value != "":
		return v.Name + " = " + v.Value
	case v.Annotation != "":
		return v.Name + ": " + v.Annotation
	}
	return v.Name + ": " + incompleteName
}

// renderDef renders one definition with an ellipsis body, wrapping it when
// it does not fit on a line
func (w *Writer) renderDef(sig models.FunctionSignature, async bool) string {
	prefix := ""
	if async {
		prefix = "async "
	}
	suffix := ": ...\n"
	if sig.ReturnType != "" {
		suffix = " -> " + sig.ReturnType + suffix
	}

	params := sig.ParamStrings()
	line := prefix + "def " + sig.Head() + "(" + strings.Join(params, ", ") + ")" + suffix
	if w.LineLength <= 0 || len(params) == 0 || utf8.RuneCountInString(line)-1 <= w.LineLength {
		return line
	}

	var b strings.Builder
	b.WriteString(prefix + "def " + sig.Head() + "(\n")
	for _, p := range params {
		b.WriteString("    " + p + ",\n")
	}
	b.WriteString(")" + suffix)
	return b.String()
}

// groupOverloads splits a signature sequence into runs of equal names
func groupOverloads(sigs []models.FunctionSignature) [][]models.FunctionSignature {
	var groups [][]models.FunctionSignature
	for _, sig := range sigs {
		n := len(groups)
		if n > 0 && groups[n-1][0].Name == sig.Name {
			groups[n-1] = append(groups[n-1], sig)
			continue
		}
		groups = append(groups, []models.FunctionSignature{sig})
	}
	return groups
}

// usesLiteral reports whether any annotation of the signature is a bare
// Literal[...] form
func usesLiteral(sig models.FunctionSignature) bool {
	if strings.HasPrefix(sig.ReturnType, literalName+"[") {
		return true
	}
	for _, p := range sig.Parameters {
		if strings.HasPrefix(p.Type, literalName+"[") {
			return true
		}
	}
	return false
}
