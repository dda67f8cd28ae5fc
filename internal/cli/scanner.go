package cli

import (
	"path/filepath"

	"github.com/toyz/pystubs/internal/errors"
	"github.com/toyz/pystubs/internal/stubgen"
	"github.com/toyz/pystubs/internal/utils"
)

// SourceFile is one Python module found in a project
type SourceFile struct {
	Path    string // absolute path of the .py file
	Module  string // dotted module name
	StubRel string // stub path relative to the stub directory
}

// StubFile returns where the module's stub lives under stubDir
func (f SourceFile) StubFile(stubDir string) string {
	return filepath.Join(stubDir, f.StubRel)
}

// SourceScanner lists the modules of a resolved project layout
type SourceScanner struct {
	fileProcessor *utils.FileProcessor
}

// NewSourceScanner creates a new source scanner
func NewSourceScanner() *SourceScanner {
	return &SourceScanner{
		fileProcessor: utils.NewFileProcessor(),
	}
}

// Scan returns every module of the layout in lexical path order
func (s *SourceScanner) Scan(layout *Layout) ([]SourceFile, error) {
	paths := []string{layout.Target}
	if layout.IsPackage {
		found, err := s.fileProcessor.FindSources(layout.Target)
		if err != nil {
			return nil, errors.WrapWithOperation("scan", layout.Target, err)
		}
		paths = found
	}

	sources := make([]SourceFile, 0, len(paths))
	for _, path := range paths {
		module, stub, err := stubgen.ModulePath(layout.SourceRoot, path)
		if err != nil {
			return nil, errors.WrapWithOperation("map", path, err)
		}
		sources = append(sources, SourceFile{Path: path, Module: module, StubRel: stub})
	}
	return sources, nil
}
