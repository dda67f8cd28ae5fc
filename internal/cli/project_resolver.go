package cli

import (
	"fmt"
	"path/filepath"

	"github.com/toyz/pystubs/internal/utils"
	"github.com/toyz/pystubs/internal/utils/fileops"
)

// srcDir is the conventional directory of the src layout
const srcDir = "src"

// Layout describes where a project's importable code lives
type Layout struct {
	// SourceRoot is the directory that would be on sys.path
	SourceRoot string
	// Target is the package directory, or the file of a single-module project
	Target string
	// IsPackage is false for single-module projects
	IsPackage bool
}

// ProjectResolver locates the top-level package of a project
type ProjectResolver struct {
	fileProcessor *utils.FileProcessor
	fileOps       *fileops.FileOps
}

// NewProjectResolver creates a new project resolver
func NewProjectResolver() *ProjectResolver {
	return &ProjectResolver{
		fileProcessor: utils.NewFileProcessor(),
		fileOps:       fileops.NewFileOps(),
	}
}

// Resolve finds packageName inside projectDir. The src layout is preferred
// over the flat layout, and packages over single modules.
func (r *ProjectResolver) Resolve(projectDir, packageName string) (*Layout, error) {
	if packageName == "" {
		return nil, fmt.Errorf("no package name configured")
	}

	absProject, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project directory: %w", err)
	}

	roots := []string{filepath.Join(absProject, srcDir), absProject}

	for _, root := range roots {
		dir := filepath.Join(root, packageName)
		if r.isPackageDir(dir) {
			return &Layout{SourceRoot: root, Target: dir, IsPackage: true}, nil
		}
	}

	for _, root := range roots {
		file := filepath.Join(root, packageName+utils.PythonSourceExt)
		if r.fileOps.IsFile(file) {
			return &Layout{SourceRoot: root, Target: file}, nil
		}
	}

	return nil, fmt.Errorf("package %q not found in %s or %s", packageName, roots[0], roots[1])
}

// isPackageDir accepts regular packages and namespace packages that hold
// Python files directly
func (r *ProjectResolver) isPackageDir(dir string) bool {
	if !r.fileOps.IsDir(dir) {
		return false
	}
	if r.fileProcessor.IsPackage(dir) {
		return true
	}
	has, err := r.fileProcessor.HasPythonFiles(dir)
	return err == nil && has
}
