// Package config resolves stub generation settings from a project's
// pyproject.toml and command-line overrides.
package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/mod/semver"

	"github.com/toyz/pystubs/internal/errors"
	"github.com/toyz/pystubs/internal/stubgen"
	"github.com/toyz/pystubs/internal/utils"
)

// ProjectFile is the name of the project metadata file
const ProjectFile = "pyproject.toml"

const (
	// DefaultWorkers is the default transform concurrency
	DefaultWorkers = 4
	// MaxWorkers bounds the transform concurrency
	MaxWorkers = 256
	// MaxLineLength bounds the wrapping width
	MaxLineLength = 1000
)

// Config holds the resolved settings for one generation run
type Config struct {
	// ProjectDir is the directory holding pyproject.toml
	ProjectDir string
	// PackageName is the import name of the top-level package
	PackageName string
	// OutputDir receives the stubs; empty writes them next to the sources
	OutputDir string
	// PythonVersion is the target interpreter, e.g. "3.11"
	PythonVersion string
	// IncludePrivate keeps functions whose names start with an underscore
	IncludePrivate bool
	// LineLength wraps longer definitions; 0 disables wrapping
	LineLength int
	// Workers is the number of signatures transformed concurrently
	Workers int
	// Check renders stubs without writing them
	Check bool
	// Verbose enables detailed logging and error reporting
	Verbose bool
}

// Default returns the settings used when nothing is configured
func Default(projectDir string) *Config {
	return &Config{
		ProjectDir: projectDir,
		LineLength: stubgen.DefaultLineLength,
		Workers:    DefaultWorkers,
	}
}

// pyproject mirrors the parts of pyproject.toml this tool reads
type pyproject struct {
	Project struct {
		Name           string `toml:"name"`
		RequiresPython string `toml:"requires-python"`
	} `toml:"project"`
	Tool struct {
		Pystubs toolTable `toml:"pystubs"`
	} `toml:"tool"`
}

// toolTable is the [tool.pystubs] table. Pointer fields distinguish unset
// keys from zero values.
type toolTable struct {
	Package        string `toml:"package"`
	OutputDir      string `toml:"output-dir"`
	PythonVersion  string `toml:"python-version"`
	IncludePrivate *bool  `toml:"include-private"`
	LineLength     *int   `toml:"line-length"`
	Workers        *int   `toml:"workers"`
}

// Load reads pyproject.toml from projectDir. A missing file yields the
// defaults with no package name.
func Load(projectDir string) (*Config, error) {
	cfg := Default(projectDir)
	path := filepath.Join(projectDir, ProjectFile)

	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, errors.WrapFileSystemError("read", path, err)
	}

	if err := cfg.merge(data); err != nil {
		return nil, errors.WrapConfigurationError(ProjectFile, "parse", err).
			WithLocation(errors.SourceLocation{File: path}).
			WithSuggestions("Check the TOML syntax of " + ProjectFile)
	}

	return cfg, nil
}

// merge applies the settings found in a pyproject.toml document
func (c *Config) merge(data []byte) error {
	var doc pyproject
	if err := toml.Unmarshal(data, &doc); err != nil {
		return err
	}

	tool := doc.Tool.Pystubs
	switch {
	case tool.Package != "":
		c.PackageName = tool.Package
	case doc.Project.Name != "":
		c.PackageName = NormalizePackageName(doc.Project.Name)
	}

	if tool.OutputDir != "" {
		c.OutputDir = tool.OutputDir
	}

	switch {
	case tool.PythonVersion != "":
		c.PythonVersion = tool.PythonVersion
	case doc.Project.RequiresPython != "":
		c.PythonVersion = MinimumPythonVersion(doc.Project.RequiresPython)
	}

	if tool.IncludePrivate != nil {
		c.IncludePrivate = *tool.IncludePrivate
	}
	if tool.LineLength != nil {
		c.LineLength = *tool.LineLength
	}
	if tool.Workers != nil {
		c.Workers = *tool.Workers
	}

	return nil
}

// Overrides carries command-line values. Nil fields leave the file value
// in place.
type Overrides struct {
	PackageName    *string
	OutputDir      *string
	PythonVersion  *string
	IncludePrivate *bool
	LineLength     *int
	Workers        *int
}

// Apply copies every set override onto the configuration
func (c *Config) Apply(o Overrides) {
	if o.PackageName != nil {
		c.PackageName = *o.PackageName
	}
	if o.OutputDir != nil {
		c.OutputDir = *o.OutputDir
	}
	if o.PythonVersion != nil {
		c.PythonVersion = *o.PythonVersion
	}
	if o.IncludePrivate != nil {
		c.IncludePrivate = *o.IncludePrivate
	}
	if o.LineLength != nil {
		c.LineLength = *o.LineLength
	}
	if o.Workers != nil {
		c.Workers = *o.Workers
	}
}

// Validate checks the resolved settings
func (c *Config) Validate() error {
	checks := []error{
		utils.ValidatePackageName("package")(c.PackageName),
		utils.ValidateOptionalPythonVersion("python-version")(c.PythonVersion),
		utils.IntRange("line-length", 0, MaxLineLength)(c.LineLength),
		utils.IntRange("workers", 0, MaxWorkers)(c.Workers),
	}

	for _, err := range checks {
		if err == nil {
			continue
		}
		var verr utils.ValidationError
		field := "settings"
		if stderrors.As(err, &verr) {
			field = verr.Field
		}
		return errors.WrapConfigurationError(field, "validate", err).
			WithSuggestions(suggestionFor(field))
	}
	return nil
}

// StubDir returns the directory stubs are written under
func (c *Config) StubDir(sourceRoot string) string {
	switch {
	case c.OutputDir == "":
		return sourceRoot
	case filepath.IsAbs(c.OutputDir):
		return c.OutputDir
	default:
		return filepath.Join(c.ProjectDir, c.OutputDir)
	}
}

// NewWriter builds a stub writer from the settings
func (c *Config) NewWriter() *stubgen.Writer {
	return &stubgen.Writer{
		LineLength:     c.LineLength,
		IncludePrivate: c.IncludePrivate,
		PythonVersion:  c.PythonVersion,
	}
}

func suggestionFor(field string) string {
	switch field {
	case "package":
		return "Set [project] name or [tool.pystubs] package, or pass --package"
	case "python-version":
		return "Use a MAJOR.MINOR version such as 3.11"
	case "line-length":
		return fmt.Sprintf("Use a width between 0 and %d; 0 disables wrapping", MaxLineLength)
	case "workers":
		return fmt.Sprintf("Use between 0 and %d workers", MaxWorkers)
	}
	return "Check the [tool.pystubs] table in " + ProjectFile
}

var nameSeparators = regexp.MustCompile(`[-_.]+`)

// NormalizePackageName turns a distribution name into its import name,
// e.g. "Scanpy-Extras" becomes "scanpy_extras"
func NormalizePackageName(name string) string {
	return nameSeparators.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "_")
}

var lowerBound = regexp.MustCompile(`(>=|~=|==)\s*(\d+(?:\.\d+){1,2})`)

// MinimumPythonVersion extracts the lowest admitted MAJOR.MINOR version from
// a requires-python specifier such as ">=3.9, <4". It returns "" when the
// specifier has no lower bound.
func MinimumPythonVersion(spec string) string {
	best := ""
	for _, m := range lowerBound.FindAllStringSubmatch(spec, -1) {
		v := "v" + m[2]
		if !semver.IsValid(v) {
			continue
		}
		if best == "" || semver.Compare(v, best) < 0 {
			best = v
		}
	}
	if best == "" {
		return ""
	}
	return strings.TrimPrefix(semver.MajorMinor(best), "v")
}
