package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func copyFunction() FunctionSignature {
	return FunctionSignature{
		Name: "example",
		Parameters: []Parameter{
			{Name: "adata", Type: "AnnData"},
			{Kind: KindStarArgs},
			{Name: "copy", Type: "bool", HasDefault: true, DefaultValue: "False"},
		},
		ReturnType: "AnnData | None",
	}
}

func TestParameter_String(t *testing.T) {
	tests := []struct {
		name     string
		param    Parameter
		expected string
	}{
		{"bare", Parameter{Name: "x"}, "x"},
		{"annotated", Parameter{Name: "x", Type: "int"}, "x: int"},
		{"default without annotation", Parameter{Name: "x", HasDefault: true, DefaultValue: "1"}, "x=1"},
		{"annotated default", Parameter{Name: "x", Type: "int", HasDefault: true, DefaultValue: "1"}, "x: int = 1"},
		{"keyword-only marker", Parameter{Kind: KindStarArgs}, "*"},
		{"star args", Parameter{Name: "args", Type: "int", Kind: KindStarArgs}, "*args: int"},
		{"star kwargs", Parameter{Name: "kwargs", Kind: KindStarKwargs}, "**kwargs"},
		{"positional-only marker", Parameter{Kind: KindPositionalOnly}, "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.param.String())
		})
	}
}

func TestParamKind_String(t *testing.T) {
	assert.Equal(t, "ordinary", KindOrdinary.String())
	assert.Equal(t, "star-args", KindStarArgs.String())
	assert.Equal(t, "star-kwargs", KindStarKwargs.String())
	assert.Equal(t, "positional-only-marker", KindPositionalOnly.String())
	assert.Equal(t, "unknown", ParamKind(42).String())
}

func TestFunctionSignature_String(t *testing.T) {
	assert.Equal(t, "def example(adata: AnnData, *, copy: bool = False) -> AnnData | None", copyFunction().String())
	assert.Equal(t, "def f()", FunctionSignature{Name: "f"}.String())

	generic := FunctionSignature{Name: "h", TypeParams: "T", Parameters: []Parameter{{Name: "x", Type: "T"}}, ReturnType: "T"}
	assert.Equal(t, "def h[T](x: T) -> T", generic.String())
	assert.Equal(t, "T", generic.WithReturnType("list[T]").TypeParams, "copies keep type parameters")
	assert.False(t, generic.Equal(FunctionSignature{Name: "h", Parameters: generic.Parameters, ReturnType: "T"}))
}

func TestClassDef_String(t *testing.T) {
	assert.Equal(t, "class Result: ...", ClassDef{Name: "Result"}.String())
	assert.Equal(t, "class Box[T](Generic[T]): ...", ClassDef{Name: "Box", TypeParams: "T", Bases: "Generic[T]"}.String())
}

func TestIsPrivateName(t *testing.T) {
	assert.True(t, IsPrivateName("_cache"))
	assert.True(t, IsPrivateName("__mangled"))
	assert.False(t, IsPrivateName("__all__"))
	assert.False(t, IsPrivateName("public"))
}

func TestFunctionSignature_WithParamDoesNotAlias(t *testing.T) {
	original := copyFunction()

	changed := original.WithParam("copy", Parameter{Name: "copy", Type: "Literal[True]"}).
		WithReturnType("AnnData")

	assert.Equal(t, "bool", original.Parameters[2].Type)
	assert.Equal(t, "AnnData | None", original.ReturnType)
	assert.Equal(t, "Literal[True]", changed.Parameters[2].Type)
	assert.Equal(t, "AnnData", changed.ReturnType)
	assert.True(t, original.Equal(copyFunction()))
	assert.False(t, original.Equal(changed))
}

func TestFunctionSignature_Param(t *testing.T) {
	sig := copyFunction()

	i, p, ok := sig.Param("copy")
	require.True(t, ok)
	assert.Equal(t, 2, i)
	assert.Equal(t, "False", p.DefaultValue)

	_, _, ok = sig.Param("missing")
	assert.False(t, ok)

	_, _, ok = FunctionSignature{Name: "f", Parameters: []Parameter{{Name: "copy", Kind: KindStarKwargs}}}.Param("copy")
	assert.False(t, ok, "star parameters are not looked up by name")
}

func TestFunctionSignature_Validate(t *testing.T) {
	tests := []struct {
		name    string
		sig     FunctionSignature
		wantErr string
	}{
		{name: "valid", sig: copyFunction()},
		{name: "no name", sig: FunctionSignature{}, wantErr: "no name"},
		{
			name:    "default flag without value",
			sig:     FunctionSignature{Name: "f", Parameters: []Parameter{{Name: "x", HasDefault: true}}},
			wantErr: "disagree",
		},
		{
			name:    "value without default flag",
			sig:     FunctionSignature{Name: "f", Parameters: []Parameter{{Name: "x", DefaultValue: "1"}}},
			wantErr: "disagree",
		},
		{
			name:    "unnamed parameter",
			sig:     FunctionSignature{Name: "f", Parameters: []Parameter{{Type: "int"}}},
			wantErr: "has no name",
		},
		{
			name:    "two star markers",
			sig:     FunctionSignature{Name: "f", Parameters: []Parameter{{Kind: KindStarArgs}, {Name: "a", Kind: KindStarArgs}}},
			wantErr: "more than one *args",
		},
		{
			name:    "two kwargs",
			sig:     FunctionSignature{Name: "f", Parameters: []Parameter{{Name: "a", Kind: KindStarKwargs}, {Name: "b", Kind: KindStarKwargs}}},
			wantErr: "more than one **kwargs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sig.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFunctionDef(t *testing.T) {
	def := func(name string, decorators ...string) FunctionDef {
		return FunctionDef{Signature: FunctionSignature{Name: name}, Decorators: decorators}
	}

	assert.True(t, def("_helper").IsPrivate())
	assert.False(t, def("__getattr__").IsPrivate(), "dunder functions are public")
	assert.False(t, def("public").IsPrivate())

	assert.True(t, def("f", "overload").HasDecorator("overload"))
	assert.True(t, def("f", "typing.overload").HasDecorator("overload"))
	assert.False(t, def("f", "overloaded").HasDecorator("overload"))
}

func TestModule_Signatures(t *testing.T) {
	mod := &Module{Functions: []FunctionDef{
		{Signature: FunctionSignature{Name: "a"}},
		{Signature: FunctionSignature{Name: "b"}},
	}}

	sigs := mod.Signatures()
	require.Len(t, sigs, 2)
	assert.Equal(t, "a", sigs[0].Name)
	assert.Equal(t, "b", sigs[1].Name)
}

func TestGeneratorError(t *testing.T) {
	cause := errors.New("cause")

	assert.Equal(t, "a.py:3: broken", (&GeneratorError{File: "a.py", Line: 3, Message: "broken"}).Error())
	assert.Equal(t, "a.py: broken", (&GeneratorError{File: "a.py", Message: "broken"}).Error())
	assert.Equal(t, "broken", (&GeneratorError{Message: "broken", Cause: cause}).Error())
	assert.True(t, errors.Is(&GeneratorError{Cause: cause}, cause))
}

func TestGeneratedStub_IsEmpty(t *testing.T) {
	assert.True(t, (&GeneratedStub{}).IsEmpty())
	assert.False(t, (&GeneratedStub{Content: "def f(): ...\n"}).IsEmpty())
}
