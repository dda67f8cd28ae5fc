package cli

import (
	"github.com/toyz/pystubs/internal/config"
	"github.com/toyz/pystubs/internal/models"
	"github.com/toyz/pystubs/internal/stubgen"
	"github.com/toyz/pystubs/internal/utils/fileops"
)

// Cleaner handles cleaning up generated stubs
type Cleaner struct {
	resolver *ProjectResolver
	scanner  *SourceScanner
	fileOps  *fileops.FileOps
}

// NewCleaner creates a new cleaner
func NewCleaner() *Cleaner {
	return &Cleaner{
		resolver: NewProjectResolver(),
		scanner:  NewSourceScanner(),
		fileOps:  fileops.NewFileOps(),
	}
}

// Clean removes the stub of every module of the configured package. Only
// .pyi files with a .py counterpart that carry the generated header are
// touched, so hand-written stubs survive. It returns the removed paths.
func (c *Cleaner) Clean(cfg *config.Config) ([]string, error) {
	if err := cfg.Validate(); err != nil {
		return nil, toGeneratorError(err, models.ErrorTypeConfiguration)
	}

	layout, err := c.resolver.Resolve(cfg.ProjectDir, cfg.PackageName)
	if err != nil {
		return nil, toGeneratorError(err, models.ErrorTypeFileSystem)
	}

	sources, err := c.scanner.Scan(layout)
	if err != nil {
		return nil, toGeneratorError(err, models.ErrorTypeFileSystem)
	}

	stubDir := cfg.StubDir(layout.SourceRoot)
	removed := make([]string, 0, len(sources))
	for _, src := range sources {
		path := src.StubFile(stubDir)
		if !c.fileOps.Exists(path) {
			continue
		}
		content, err := c.fileOps.ReadFile(path)
		if err != nil {
			return removed, toGeneratorError(err, models.ErrorTypeFileSystem)
		}
		if !stubgen.IsGenerated(content) {
			continue
		}

		ok, err := c.fileOps.RemoveFile(path)
		if err != nil {
			return removed, toGeneratorError(err, models.ErrorTypeFileSystem)
		}
		if ok {
			removed = append(removed, path)
		}
	}

	return removed, nil
}
