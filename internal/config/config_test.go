package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/pystubs/internal/errors"
	"github.com/toyz/pystubs/internal/stubgen"
)

func writeProject(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectFile), []byte(content), 0644))
	return dir
}

func TestLoad_MissingFile(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.ProjectDir)
	assert.Empty(t, cfg.PackageName)
	assert.Equal(t, stubgen.DefaultLineLength, cfg.LineLength)
	assert.Equal(t, DefaultWorkers, cfg.Workers)
	assert.False(t, cfg.IncludePrivate)
}

func TestLoad_ProjectTable(t *testing.T) {
	dir := writeProject(t, `
[project]
name = "Scanpy-Extras"
requires-python = ">=3.9, <4"
`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "scanpy_extras", cfg.PackageName)
	assert.Equal(t, "3.9", cfg.PythonVersion)
	assert.Empty(t, cfg.OutputDir)
}

func TestLoad_ToolTableWins(t *testing.T) {
	dir := writeProject(t, `
[project]
name = "dist-name"
requires-python = ">=3.8"

[tool.pystubs]
package = "realpkg"
output-dir = "typings"
python-version = "3.12"
include-private = true
line-length = 0
workers = 1
`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "realpkg", cfg.PackageName)
	assert.Equal(t, "typings", cfg.OutputDir)
	assert.Equal(t, "3.12", cfg.PythonVersion)
	assert.True(t, cfg.IncludePrivate)
	assert.Equal(t, 0, cfg.LineLength)
	assert.Equal(t, 1, cfg.Workers)
}

func TestLoad_InvalidTOML(t *testing.T) {
	dir := writeProject(t, "[project\nname = ")

	_, err := Load(dir)
	require.Error(t, err)
	assert.Equal(t, errors.ConfigurationErrorCode, errors.CodeOf(err))
}

func TestApply(t *testing.T) {
	cfg := Default("/proj")
	cfg.PackageName = "fromfile"
	cfg.PythonVersion = "3.9"

	pkg := "fromflag"
	private := true
	width := 100
	cfg.Apply(Overrides{
		PackageName:    &pkg,
		IncludePrivate: &private,
		LineLength:     &width,
	})

	assert.Equal(t, "fromflag", cfg.PackageName)
	assert.Equal(t, "3.9", cfg.PythonVersion, "unset overrides keep the file value")
	assert.True(t, cfg.IncludePrivate)
	assert.Equal(t, 100, cfg.LineLength)
	assert.Equal(t, DefaultWorkers, cfg.Workers)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default("/proj")
		cfg.PackageName = "pkg"
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "valid with version", mutate: func(c *Config) { c.PythonVersion = "3.10" }},
		{name: "missing package", mutate: func(c *Config) { c.PackageName = "" }, field: "package"},
		{name: "package with dash", mutate: func(c *Config) { c.PackageName = "my-pkg" }, field: "package"},
		{name: "keyword package", mutate: func(c *Config) { c.PackageName = "class" }, field: "package"},
		{name: "bad version", mutate: func(c *Config) { c.PythonVersion = "three" }, field: "python-version"},
		{name: "major only version", mutate: func(c *Config) { c.PythonVersion = "3" }, field: "python-version"},
		{name: "negative width", mutate: func(c *Config) { c.LineLength = -1 }, field: "line-length"},
		{name: "too many workers", mutate: func(c *Config) { c.Workers = MaxWorkers + 1 }, field: "workers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, errors.ConfigurationErrorCode, errors.CodeOf(err))
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestStubDir(t *testing.T) {
	cfg := Default(filepath.FromSlash("/proj"))
	assert.Equal(t, filepath.FromSlash("/proj/src"), cfg.StubDir(filepath.FromSlash("/proj/src")))

	cfg.OutputDir = "typings"
	assert.Equal(t, filepath.FromSlash("/proj/typings"), cfg.StubDir(filepath.FromSlash("/proj/src")))

	abs := filepath.Join(t.TempDir(), "out")
	cfg.OutputDir = abs
	assert.Equal(t, abs, cfg.StubDir(filepath.FromSlash("/proj/src")))
}

func TestNormalizePackageName(t *testing.T) {
	assert.Equal(t, "scanpy", NormalizePackageName("scanpy"))
	assert.Equal(t, "hatch_scanpy_typeshed", NormalizePackageName("hatch-scanpy-typeshed"))
	assert.Equal(t, "a_b", NormalizePackageName(" A.-_B "))
}

func TestMinimumPythonVersion(t *testing.T) {
	tests := []struct {
		spec     string
		expected string
	}{
		{">=3.9", "3.9"},
		{">=3.10, <4", "3.10"},
		{"~=3.8.1", "3.8"},
		{">=3.11,>=3.9", "3.9"},
		{"==3.12.*", "3.12"},
		{"<4", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			assert.Equal(t, tt.expected, MinimumPythonVersion(tt.spec))
		})
	}
}
