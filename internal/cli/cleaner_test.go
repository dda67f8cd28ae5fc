package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/pystubs/internal/stubgen"
)

const generatedStub = stubgen.GeneratedHeader + "\ndef f() -> None: ...\n"

func TestCleaner_Clean(t *testing.T) {
	root := writeTree(t, map[string]string{
		"pkg/__init__.py":  "",
		"pkg/__init__.pyi": generatedStub,
		"pkg/core.py":      "",
		"pkg/core.pyi":     generatedStub,
		"pkg/nostub.py":    "",
		"pkg/_ext.pyi":     "def native() -> None: ...\n",
	})

	removed, err := NewCleaner().Clean(testConfig(root))
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(root, "pkg", "__init__.pyi"),
		filepath.Join(root, "pkg", "core.pyi"),
	}, removed)
	assert.NoFileExists(t, filepath.Join(root, "pkg", "core.pyi"))
	assert.FileExists(t, filepath.Join(root, "pkg", "_ext.pyi"), "stubs without a source are kept")
	assert.FileExists(t, filepath.Join(root, "pkg", "core.py"))
}

func TestCleaner_KeepsHandWrittenStubs(t *testing.T) {
	handWritten := "def f(x: int) -> int: ...\n"
	root := writeTree(t, map[string]string{
		"pkg/__init__.py": "",
		"pkg/core.py":     "def f(x): ...\n",
		"pkg/core.pyi":    handWritten,
		"pkg/extra.py":    "",
		"pkg/extra.pyi":   generatedStub,
	})

	removed, err := NewCleaner().Clean(testConfig(root))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "pkg", "extra.pyi")}, removed)

	assert.Equal(t, handWritten, readFile(t, filepath.Join(root, "pkg", "core.pyi")))
}

func TestCleaner_CleanOutputDir(t *testing.T) {
	root := writeTree(t, map[string]string{
		"pkg.py":          copyModule,
		"pkg.pyi":         copyStub,
		"typings/pkg.pyi": copyStub,
	})

	cfg := testConfig(root)
	cfg.OutputDir = "typings"

	removed, err := NewCleaner().Clean(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "typings", "pkg.pyi")}, removed)
	assert.FileExists(t, filepath.Join(root, "pkg.pyi"))
}

func TestCleaner_RoundTrip(t *testing.T) {
	root := writeTree(t, map[string]string{
		"pkg.py": copyModule,
	})

	require.NoError(t, newHarness().generator.Run(testConfig(root)))
	assert.FileExists(t, filepath.Join(root, "pkg.pyi"))

	removed, err := NewCleaner().Clean(testConfig(root))
	require.NoError(t, err)
	assert.Len(t, removed, 1)

	removed, err = NewCleaner().Clean(testConfig(root))
	require.NoError(t, err)
	assert.Empty(t, removed, "cleaning twice is a no-op")
}

func TestCleaner_CleanErrors(t *testing.T) {
	cfg := testConfig(t.TempDir())

	_, err := NewCleaner().Clean(cfg)
	assert.Error(t, err)

	cfg.PackageName = "not-valid"
	_, err = NewCleaner().Clean(cfg)
	assert.Error(t, err)
}
