package models

import (
	"fmt"
	"strings"
)

// ParamKind distinguishes ordinary parameters from the star markers that
// partition a parameter list
type ParamKind int

const (
	// KindOrdinary is a named positional-or-keyword or keyword-only parameter
	KindOrdinary ParamKind = iota
	// KindStarArgs is *args, or the bare * marker when Name is empty
	KindStarArgs
	// KindStarKwargs is **kwargs
	KindStarKwargs
	// KindPositionalOnly is the / marker
	KindPositionalOnly
)

// String returns the string representation of the parameter kind
func (k ParamKind) String() string {
	switch k {
	case KindOrdinary:
		return "ordinary"
	case KindStarArgs:
		return "star-args"
	case KindStarKwargs:
		return "star-kwargs"
	case KindPositionalOnly:
		return "positional-only-marker"
	default:
		return "unknown"
	}
}

// Parameter describes one entry of a function parameter list
type Parameter struct {
	Name         string    // identifier, empty for the bare * and / markers
	Type         string    // annotation text, empty when not annotated
	HasDefault   bool      // whether the parameter declares a default
	DefaultValue string    // default value text, set iff HasDefault
	Kind         ParamKind // ordinary or star marker
}

// IsStar reports whether the parameter is a *args, **kwargs or bare * marker
func (p Parameter) IsStar() bool {
	return p.Kind == KindStarArgs || p.Kind == KindStarKwargs
}

// String renders the parameter the way it appears in a stub
func (p Parameter) String() string {
	var b strings.Builder

	switch p.Kind {
	case KindStarArgs:
		b.WriteString("*")
	case KindStarKwargs:
		b.WriteString("**")
	case KindPositionalOnly:
		return "/"
	}
	b.WriteString(p.Name)

	if p.Type != "" {
		b.WriteString(": ")
		b.WriteString(p.Type)
	}

	if p.HasDefault {
		// PEP 8: spaces around = only when annotated
		if p.Type != "" {
			b.WriteString(" = ")
		} else {
			b.WriteString("=")
		}
		b.WriteString(p.DefaultValue)
	}

	return b.String()
}

// FunctionSignature is the canonical record for one function definition.
// Signatures are treated as values: transformations build new instances
// and never write through a shared Parameters slice.
type FunctionSignature struct {
	Name       string
	TypeParams string // PEP 695 type parameters without brackets, e.g. "T, *Ts"
	Parameters []Parameter
	ReturnType string
}

// Clone returns a copy of the signature that shares no backing storage
func (s FunctionSignature) Clone() FunctionSignature {
	params := make([]Parameter, len(s.Parameters))
	copy(params, s.Parameters)
	return FunctionSignature{
		Name:       s.Name,
		TypeParams: s.TypeParams,
		Parameters: params,
		ReturnType: s.ReturnType,
	}
}

// Param returns the index and value of the parameter with the given name
func (s FunctionSignature) Param(name string) (int, Parameter, bool) {
	for i, p := range s.Parameters {
		if p.Kind == KindOrdinary && p.Name == name {
			return i, p, true
		}
	}
	return -1, Parameter{}, false
}

// WithParam returns a copy of the signature whose parameter called name is
// replaced by param. Other parameters keep their position.
func (s FunctionSignature) WithParam(name string, param Parameter) FunctionSignature {
	out := s.Clone()
	for i, p := range out.Parameters {
		if p.Kind == KindOrdinary && p.Name == name {
			out.Parameters[i] = param
		}
	}
	return out
}

// WithReturnType returns a copy of the signature with a different return annotation
func (s FunctionSignature) WithReturnType(ret string) FunctionSignature {
	out := s.Clone()
	out.ReturnType = ret
	return out
}

// ParamStrings renders every parameter
func (s FunctionSignature) ParamStrings() []string {
	parts := make([]string, 0, len(s.Parameters))
	for _, p := range s.Parameters {
		parts = append(parts, p.String())
	}
	return parts
}

// Head renders the name and type parameter list, e.g. "f[T]"
func (s FunctionSignature) Head() string {
	if s.TypeParams == "" {
		return s.Name
	}
	return s.Name + "[" + s.TypeParams + "]"
}

// String renders the signature as a single-line stub definition header
// without the trailing colon
func (s FunctionSignature) String() string {
	out := fmt.Sprintf("def %s(%s)", s.Head(), strings.Join(s.ParamStrings(), ", "))
	if s.ReturnType != "" {
		out += " -> " + s.ReturnType
	}
	return out
}

// Equal reports whether two signatures are field-by-field identical
func (s FunctionSignature) Equal(other FunctionSignature) bool {
	if s.Name != other.Name || s.TypeParams != other.TypeParams || s.ReturnType != other.ReturnType {
		return false
	}
	if len(s.Parameters) != len(other.Parameters) {
		return false
	}
	for i := range s.Parameters {
		if s.Parameters[i] != other.Parameters[i] {
			return false
		}
	}
	return true
}

// Validate checks the invariants the extractor is responsible for. A
// non-nil result means the signature is malformed and must not be
// transformed.
func (s FunctionSignature) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("signature has no name")
	}

	starArgs, starKwargs := 0, 0
	for i, p := range s.Parameters {
		if p.HasDefault != (p.DefaultValue != "") {
			return fmt.Errorf("parameter %d (%q) of %s: default flag and default value disagree", i, p.Name, s.Name)
		}
		switch p.Kind {
		case KindStarArgs:
			starArgs++
		case KindStarKwargs:
			starKwargs++
		case KindOrdinary:
			if p.Name == "" {
				return fmt.Errorf("parameter %d of %s has no name", i, s.Name)
			}
		}
	}

	if starArgs > 1 {
		return fmt.Errorf("%s declares more than one *args marker", s.Name)
	}
	if starKwargs > 1 {
		return fmt.Errorf("%s declares more than one **kwargs parameter", s.Name)
	}
	return nil
}

// Import is a top-level import statement carried from a source module
// into its stub
type Import struct {
	Text string // statement text, normalised to a single line
	Line int    // 1-based line of the statement in the source
}

// FunctionDef is a function definition discovered in a source module
type FunctionDef struct {
	Signature  FunctionSignature
	Decorators []string // decorator expressions without the leading @
	Async      bool
	Line       int // 1-based line of the def keyword
}

// IsPrivate reports whether the function name marks it as private
func (f FunctionDef) IsPrivate() bool {
	return IsPrivateName(f.Signature.Name)
}

// IsPrivateName reports whether a module-level name starts with an
// underscore and is not a dunder name
func IsPrivateName(name string) bool {
	return strings.HasPrefix(name, "_") && !(strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__"))
}

// ClassDef is a top-level class statement. Stubs declare the class with
// an ellipsis body.
type ClassDef struct {
	Name       string
	TypeParams string // PEP 695 type parameters without brackets
	Bases      string // text between the parentheses, empty when absent
	Line       int
}

// String renders the class as a one-line stub declaration
func (c ClassDef) String() string {
	head := c.Name
	if c.TypeParams != "" {
		head += "[" + c.TypeParams + "]"
	}
	if c.Bases != "" {
		head += "(" + c.Bases + ")"
	}
	return "class " + head + ": ..."
}

// Variable is a module-level assignment or annotated declaration
type Variable struct {
	Name       string
	Annotation string // declared or inferred type, empty when unknown
	Value      string // value kept in the stub, e.g. for __all__ and type aliases
	Line       int
}

// HasDecorator reports whether the definition carries the named decorator,
// matching both bare and module-qualified spellings
func (f FunctionDef) HasDecorator(name string) bool {
	for _, d := range f.Decorators {
		if d == name || strings.HasSuffix(d, "."+name) {
			return true
		}
	}
	return false
}

// Module is the extracted view of one Python source file
type Module struct {
	Name      string // dotted module name
	Path      string // source file path
	Imports   []Import
	Functions []FunctionDef
	Classes   []ClassDef
	Variables []Variable // first binding of each name, in source order
}

// Signatures returns the signatures of the module's functions in
// declaration order
func (m *Module) Signatures() []FunctionSignature {
	sigs := make([]FunctionSignature, 0, len(m.Functions))
	for _, fn := range m.Functions {
		sigs = append(sigs, fn.Signature)
	}
	return sigs
}
