package utils

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	// PythonSourceExt is the extension of Python source files
	PythonSourceExt = ".py"
	// PackageMarker is the file that turns a directory into a regular package
	PackageMarker = "__init__.py"
)

// FileProcessor provides utilities for common file processing operations
type FileProcessor struct {
	directoryFilter DirectoryFilter
}

// NewFileProcessor creates a new file processor
func NewFileProcessor() *FileProcessor {
	return &FileProcessor{
		directoryFilter: DefaultDirectoryFilter(),
	}
}

// NewFileProcessorWithFilter creates a file processor with a custom
// directory filter
func NewFileProcessorWithFilter(filter DirectoryFilter) *FileProcessor {
	return &FileProcessor{
		directoryFilter: filter,
	}
}

// FileFilter defines a function that determines whether a file should be processed
type FileFilter func(path string, info fs.DirEntry) bool

// DirectoryFilter defines a function that determines whether a directory should be processed
type DirectoryFilter func(path string, info fs.DirEntry) bool

// FileWalkOptions configures file walking behavior
type FileWalkOptions struct {
	FileFilter      FileFilter
	DirectoryFilter DirectoryFilter
	SkipErrors      bool
}

// PythonSourceFilter matches .py files
func PythonSourceFilter() FileFilter {
	return func(path string, info fs.DirEntry) bool {
		return !info.IsDir() && strings.HasSuffix(info.Name(), PythonSourceExt)
	}
}

// DefaultDirectoryFilter skips directories that never hold package modules:
// hidden directories, bytecode caches, test suites, virtual environments
// and build output
func DefaultDirectoryFilter() DirectoryFilter {
	skipDirs := map[string]bool{
		"__pycache__":   true,
		"node_modules":  true,
		"site-packages": true,
		"venv":          true,
		"tests":         true,
		"test":          true,
		"testdata":      true,
		"build":         true,
		"dist":          true,
	}

	return func(path string, info fs.DirEntry) bool {
		if !info.IsDir() {
			return true
		}

		name := info.Name()

		// Skip hidden directories
		if strings.HasPrefix(name, ".") && name != "." && name != ".." {
			return false
		}

		if strings.HasSuffix(name, ".egg-info") {
			return false
		}

		return !skipDirs[name]
	}
}

// WalkFiles walks a directory tree in lexical order and returns the files
// accepted by the filters. The root itself is never filtered out.
func (fp *FileProcessor) WalkFiles(rootDir string, options FileWalkOptions) ([]string, error) {
	var matchedFiles []string

	err := filepath.WalkDir(rootDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if options.SkipErrors {
				return nil
			}
			return err
		}

		if entry.IsDir() {
			if path != rootDir && options.DirectoryFilter != nil && !options.DirectoryFilter(path, entry) {
				return filepath.SkipDir
			}
			return nil
		}

		if options.FileFilter == nil || options.FileFilter(path, entry) {
			matchedFiles = append(matchedFiles, path)
		}
		return nil
	})

	return matchedFiles, err
}

// FindSources returns every Python source below rootDir, skipping the
// directories rejected by the processor's directory filter
func (fp *FileProcessor) FindSources(rootDir string) ([]string, error) {
	files, err := fp.WalkFiles(rootDir, FileWalkOptions{
		FileFilter:      PythonSourceFilter(),
		DirectoryFilter: fp.directoryFilter,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s for Python sources: %w", rootDir, err)
	}
	return files, nil
}

// IsPackage reports whether dir is a regular Python package
func (fp *FileProcessor) IsPackage(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, PackageMarker))
	return err == nil && !info.IsDir()
}

// HasPythonFiles checks if a directory directly contains any .py files
func (fp *FileProcessor) HasPythonFiles(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, err
	}

	filter := PythonSourceFilter()
	for _, entry := range entries {
		if filter(filepath.Join(dir, entry.Name()), entry) {
			return true, nil
		}
	}

	return false, nil
}
