package stubgen

import (
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"

	"github.com/toyz/pystubs/internal/models"
	"github.com/toyz/pystubs/internal/pyparse"
	"github.com/toyz/pystubs/internal/transform"
)

// TestGolden runs the extract, transform and render pipeline over every
// archive in testdata. Each archive holds input.py, the expected stub.pyi,
// optional key=value options and optional expected diagnostics.
func TestGolden(t *testing.T) {
	archives, err := filepath.Glob(filepath.Join("testdata", "*.txtar"))
	require.NoError(t, err)
	require.NotEmpty(t, archives)

	for _, path := range archives {
		name := strings.TrimSuffix(filepath.Base(path), ".txtar")
		t.Run(name, func(t *testing.T) {
			ar, err := txtar.ParseFile(path)
			require.NoError(t, err)

			files := make(map[string]string, len(ar.Files))
			for _, f := range ar.Files {
				files[f.Name] = string(f.Data)
			}
			input, ok := files["input.py"]
			require.True(t, ok, "archive has no input.py")
			expected, ok := files["stub.pyi"]
			require.True(t, ok, "archive has no stub.pyi")

			writer := writerFromOptions(t, files["options"])

			mod, err := pyparse.NewParser().ParseModule("golden", "golden.py", input)
			require.NoError(t, err)

			batch, err := transform.TransformAll(writer.Select(mod), transform.Options{})
			require.NoError(t, err)

			assert.Equal(t, expected, writer.Render(mod, batch.Signatures))

			var diagnostics []string
			for _, d := range batch.Diagnostics {
				diagnostics = append(diagnostics, d.String())
			}
			assert.Equal(t, nonEmptyLines(files["diagnostics"]), diagnostics)
		})
	}
}

func writerFromOptions(t *testing.T, options string) *Writer {
	t.Helper()

	w := NewWriter()
	for _, line := range nonEmptyLines(options) {
		key, value, ok := strings.Cut(line, "=")
		require.True(t, ok, "malformed option %q", line)
		switch key {
		case "line-length":
			n, err := strconv.Atoi(value)
			require.NoError(t, err)
			w.LineLength = n
		case "python-version":
			w.PythonVersion = value
		case "include-private":
			w.IncludePrivate = value == "true"
		default:
			t.Fatalf("unknown option %q", key)
		}
	}
	return w
}

func nonEmptyLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func TestRender_Empty(t *testing.T) {
	w := NewWriter()
	assert.Equal(t, "", w.Render(&models.Module{Name: "m"}, nil))
}

func TestRender_NoImports(t *testing.T) {
	w := NewWriter()
	sig := models.FunctionSignature{
		Name:       "f",
		Parameters: []models.Parameter{{Name: "x", Type: "int"}},
		ReturnType: "int",
	}
	mod := &models.Module{Functions: []models.FunctionDef{{Signature: sig}}}

	assert.Equal(t, GeneratedHeader+"\ndef f(x: int) -> int: ...\n", w.Render(mod, []models.FunctionSignature{sig}))
}

func TestRender_DeclarationsOnly(t *testing.T) {
	w := NewWriter()
	mod := &models.Module{
		Variables: []models.Variable{
			{Name: "registry"},
			{Name: "_cache"},
			{Name: "Result", Annotation: "int"},
		},
		Classes: []models.ClassDef{
			{Name: "Result"},
			{Name: "Box", TypeParams: "T", Bases: "Generic[T]"},
		},
	}

	expected := GeneratedHeader + "\n" +
		"from _typeshed import Incomplete\n" +
		"\n" +
		"registry: Incomplete\n" +
		"\n" +
		"class Result: ...\n" +
		"class Box[T](Generic[T]): ...\n"
	assert.Equal(t, expected, w.Render(mod, nil))
}

func TestIsGenerated(t *testing.T) {
	assert.True(t, IsGenerated(GeneratedHeader+"\ndef f() -> None: ...\n"))
	assert.False(t, IsGenerated("def f() -> None: ...\n"))
	assert.False(t, IsGenerated(""))
	assert.False(t, IsGenerated("# hand-written\n"+GeneratedHeader+"\n"))
}

func TestRenderDef_Wrapping(t *testing.T) {
	sig := models.FunctionSignature{
		Name: "fit",
		Parameters: []models.Parameter{
			{Name: "data"},
			{Kind: models.KindStarArgs},
			{Name: "steps", Type: "int", HasDefault: true, DefaultValue: "10"},
		},
	}

	tests := []struct {
		name       string
		lineLength int
		async      bool
		expected   string
	}{
		{
			name:       "fits",
			lineLength: 88,
			expected:   "def fit(data, *, steps: int = 10): ...\n",
		},
		{
			name:       "exact width fits",
			lineLength: len("def fit(data, *, steps: int = 10): ..."),
			expected:   "def fit(data, *, steps: int = 10): ...\n",
		},
		{
			name:       "wrapped",
			lineLength: 20,
			expected:   "def fit(\n    data,\n    *,\n    steps: int = 10,\n): ...\n",
		},
		{
			name:       "wrapping disabled",
			lineLength: 0,
			expected:   "def fit(data, *, steps: int = 10): ...\n",
		},
		{
			name:       "async wrapped",
			lineLength: 20,
			async:      true,
			expected:   "async def fit(\n    data,\n    *,\n    steps: int = 10,\n): ...\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &Writer{LineLength: tt.lineLength}
			assert.Equal(t, tt.expected, w.renderDef(sig, tt.async))
		})
	}
}

func TestRenderDef_WidthCountsCharacters(t *testing.T) {
	sig := models.FunctionSignature{
		Name:       "label",
		Parameters: []models.Parameter{{Name: "unit", Type: "str", HasDefault: true, DefaultValue: `"µm²"`}},
	}
	line := `def label(unit: str = "µm²"): ...`
	require.Greater(t, len(line), 34, "non-ASCII text takes more bytes than characters")

	w := &Writer{LineLength: 34}
	assert.Equal(t, line+"\n", w.renderDef(sig, false))
}

func TestRenderDef_TypeParameters(t *testing.T) {
	sig := models.FunctionSignature{
		Name:       "first",
		TypeParams: "T",
		Parameters: []models.Parameter{{Name: "items", Type: "list[T]"}},
		ReturnType: "T",
	}

	assert.Equal(t, "def first[T](items: list[T]) -> T: ...\n", NewWriter().renderDef(sig, false))
	assert.Equal(t, "def first[T](\n    items: list[T],\n) -> T: ...\n", (&Writer{LineLength: 10}).renderDef(sig, false))
}

func TestRenderDef_NoParametersNeverWraps(t *testing.T) {
	w := &Writer{LineLength: 5}
	sig := models.FunctionSignature{Name: "ping", ReturnType: "None"}
	assert.Equal(t, "def ping() -> None: ...\n", w.renderDef(sig, false))
}

func TestGroupOverloads(t *testing.T) {
	names := func(groups [][]models.FunctionSignature) [][]string {
		var out [][]string
		for _, g := range groups {
			var row []string
			for _, sig := range g {
				row = append(row, sig.Name)
			}
			out = append(out, row)
		}
		return out
	}

	sigs := []models.FunctionSignature{{Name: "a"}, {Name: "a"}, {Name: "b"}, {Name: "a"}}
	assert.Equal(t, [][]string{{"a", "a"}, {"b"}, {"a"}}, names(groupOverloads(sigs)))
	assert.Empty(t, groupOverloads(nil))
}

func TestSelect(t *testing.T) {
	def := func(name string, decorators ...string) models.FunctionDef {
		return models.FunctionDef{
			Signature:  models.FunctionSignature{Name: name},
			Decorators: decorators,
		}
	}

	mod := &models.Module{Functions: []models.FunctionDef{
		def("_hidden"),
		def("__call__"),
		def("get", "typing.overload"),
		def("get", "overload"),
		def("get"),
		def("put"),
	}}

	selected := func(w *Writer) []string {
		var out []string
		for _, sig := range w.Select(mod) {
			out = append(out, sig.Name)
		}
		return out
	}

	assert.Equal(t, []string{"__call__", "get", "get", "put"}, selected(NewWriter()))
	assert.Equal(t, []string{"_hidden", "__call__", "get", "get", "put"}, selected(&Writer{IncludePrivate: true}))
}
