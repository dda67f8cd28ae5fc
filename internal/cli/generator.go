package cli

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/toyz/pystubs/internal/config"
	"github.com/toyz/pystubs/internal/errors"
	"github.com/toyz/pystubs/internal/models"
	"github.com/toyz/pystubs/internal/pyparse"
	"github.com/toyz/pystubs/internal/stubgen"
	"github.com/toyz/pystubs/internal/transform"
	"github.com/toyz/pystubs/internal/utils"
	"github.com/toyz/pystubs/internal/utils/fileops"
)

// Generator coordinates the stub generation process
type Generator struct {
	resolver    *ProjectResolver
	scanner     *SourceScanner
	parser      *pyparse.Parser
	fileOps     *fileops.FileOps
	reporter    *DiagnosticReporter
	diagnostics *utils.DiagnosticSystem
	summary     GenerationSummary
}

// GenerationSummary contains information about what was generated
type GenerationSummary struct {
	ModulesProcessed   int
	StubsWritten       int
	FunctionsStubbed   int
	OverloadsGenerated int
	Warnings           int
	Skipped            int      // modules whose stub would be empty
	GeneratedFiles     []string // stubs written, in scan order
	HandWritten        []string // existing stubs without the generated header
	OutOfDate          []string // stubs that differ from disk in check mode
	Duration           time.Duration
}

// CheckFailed reports whether a check run found anything to fix
func (s GenerationSummary) CheckFailed() bool {
	return s.Warnings > 0 || len(s.OutOfDate) > 0
}

// NewGenerator creates a new generator. A nil diagnostics system only
// reports errors.
func NewGenerator(diagnostics *utils.DiagnosticSystem, reporter *DiagnosticReporter) *Generator {
	if diagnostics == nil {
		diagnostics = utils.NewQuietDiagnostics()
	}
	if reporter == nil {
		reporter = NewDiagnosticReporter(false)
	}
	return &Generator{
		resolver:    NewProjectResolver(),
		scanner:     NewSourceScanner(),
		parser:      pyparse.NewParser(),
		fileOps:     fileops.NewFileOps(),
		reporter:    reporter,
		diagnostics: diagnostics,
	}
}

// GetSummary returns the summary of the last run
func (g *Generator) GetSummary() GenerationSummary {
	return g.summary
}

// Run generates the stubs of the configured package. Copy diagnostics are
// reported as warnings and never fail the run; per-module failures are
// collected so every broken module is reported at once.
func (g *Generator) Run(cfg *config.Config) error {
	startTime := time.Now()
	g.summary = GenerationSummary{GeneratedFiles: make([]string, 0)}
	defer func() { g.summary.Duration = time.Since(startTime) }()

	g.diagnostics.Debug("Project directory: %s", cfg.ProjectDir)

	if err := cfg.Validate(); err != nil {
		return toGeneratorError(err, models.ErrorTypeConfiguration)
	}

	g.diagnostics.StartProgress("Locating package " + cfg.PackageName)
	layout, err := g.resolver.Resolve(cfg.ProjectDir, cfg.PackageName)
	if err != nil {
		g.diagnostics.EndProgress(false, "")
		return &models.GeneratorError{
			Type:    models.ErrorTypeFileSystem,
			Message: err.Error(),
			Cause:   err,
			Suggestions: []string{
				"Check [project] name or [tool.pystubs] package in " + config.ProjectFile,
				"Use the src/<package> or <package> layout",
				"Pass --package with the import name explicitly",
			},
			Context: map[string]interface{}{
				"package":     cfg.PackageName,
				"project_dir": cfg.ProjectDir,
			},
		}
	}
	g.diagnostics.EndProgress(true, fmt.Sprintf("Found package %s in %s", cfg.PackageName, layout.SourceRoot))

	sources, err := g.scanner.Scan(layout)
	if err != nil {
		return toGeneratorError(err, models.ErrorTypeFileSystem)
	}
	g.diagnostics.Verbose("Found %d modules", len(sources))

	writer := cfg.NewWriter()
	stubDir := cfg.StubDir(layout.SourceRoot)
	failures := errors.NewMultipleErrors()

	for _, src := range sources {
		g.diagnostics.Debug("Processing %s", src.Module)

		stub, diags, err := g.generateModule(src, writer, cfg.Workers, stubDir)
		if err != nil {
			failures.Add(err)
			continue
		}

		for _, d := range diags {
			g.reporter.ReportWarning(d.String())
			g.summary.Warnings++
		}

		g.summary.ModulesProcessed++
		g.summary.FunctionsStubbed += stub.Functions
		g.summary.OverloadsGenerated += stub.Overloads

		if stub.IsEmpty() {
			g.diagnostics.Debug("Skipping %s: nothing to declare", src.Module)
			g.summary.Skipped++
			continue
		}

		if !g.ownsStub(stub.FilePath) {
			g.diagnostics.Warn("Skipping %s: not generated by pystubs", stub.FilePath)
			g.summary.HandWritten = append(g.summary.HandWritten, stub.FilePath)
			continue
		}

		if cfg.Check {
			if !g.isUpToDate(stub) {
				g.summary.OutOfDate = append(g.summary.OutOfDate, stub.FilePath)
			}
			continue
		}

		if err := g.fileOps.WriteFileAtomic(stub.FilePath, []byte(stub.Content)); err != nil {
			failures.Add(toGeneratorError(errors.WrapGenerateError("write", stub.FilePath, err), models.ErrorTypeGeneration))
			continue
		}
		g.summary.StubsWritten++
		g.summary.GeneratedFiles = append(g.summary.GeneratedFiles, stub.FilePath)
		g.diagnostics.Verbose("Wrote %s", stub.FilePath)
	}

	g.diagnostics.Info("Processed %d modules", g.summary.ModulesProcessed)
	switch len(g.summary.GeneratedFiles) {
	case 0:
	case 1:
		g.diagnostics.Info("Generated %s", g.summary.GeneratedFiles[0])
	default:
		g.diagnostics.Info("Generated files under %s", commonDir(g.summary.GeneratedFiles))
	}

	switch failures.Count() {
	case 0:
		return nil
	case 1:
		return toGeneratorError(failures.Errors[0], models.ErrorTypeGeneration)
	default:
		return &models.GeneratorError{
			Type:    models.ErrorTypeGeneration,
			Message: fmt.Sprintf("%d of %d modules failed", failures.Count(), len(sources)),
			Cause:   failures,
		}
	}
}

// generateModule renders the stub of one module without writing it
func (g *Generator) generateModule(src SourceFile, writer *stubgen.Writer, workers int, stubDir string) (*models.GeneratedStub, []transform.Diagnostic, error) {
	source, err := g.fileOps.ReadFile(src.Path)
	if err != nil {
		return nil, nil, toGeneratorError(err, models.ErrorTypeFileSystem)
	}

	mod, err := g.parser.ParseModule(src.Module, src.Path, source)
	if err != nil {
		return nil, nil, toGeneratorError(err, models.ErrorTypeSyntax)
	}

	sigs := writer.Select(mod)
	batch, err := transform.TransformAll(sigs, transform.Options{Workers: workers})
	if err != nil {
		return nil, nil, &models.GeneratorError{
			Type:    models.ErrorTypeMalformedSignature,
			File:    src.Path,
			Message: fmt.Sprintf("malformed signature in module %s", src.Module),
			Cause:   err,
			Suggestions: []string{
				"Report the definition as a parser bug; extracted signatures should always be well formed",
			},
			Context: map[string]interface{}{
				"module": src.Module,
			},
		}
	}

	return &models.GeneratedStub{
		Module:     src.Module,
		SourcePath: src.Path,
		FilePath:   src.StubFile(stubDir),
		Content:    writer.Render(mod, batch.Signatures),
		Functions:  len(sigs),
		Overloads:  batch.Splits,
	}, batch.Diagnostics, nil
}

// ownsStub reports whether path may be written: either nothing is there
// yet or the file on disk carries the generated header
func (g *Generator) ownsStub(path string) bool {
	if !g.fileOps.Exists(path) {
		return true
	}
	existing, err := g.fileOps.ReadFile(path)
	return err == nil && stubgen.IsGenerated(existing)
}

// isUpToDate reports whether the stub on disk matches the rendered one
func (g *Generator) isUpToDate(stub *models.GeneratedStub) bool {
	existing, err := g.fileOps.ReadFile(stub.FilePath)
	return err == nil && existing == stub.Content
}

// toGeneratorError converts err into a GeneratorError, using fallback when
// the error carries no category of its own
func toGeneratorError(err error, fallback models.ErrorType) *models.GeneratorError {
	genErr := asGeneratorError(err)
	if genErr == nil {
		return &models.GeneratorError{Type: fallback, Message: err.Error(), Cause: err}
	}
	if genErr.Type == models.ErrorTypeUnknown {
		genErr.Type = fallback
	}
	return genErr
}

// commonDir returns the deepest directory containing every path
func commonDir(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	dir := filepath.Dir(paths[0])
	for _, p := range paths[1:] {
		for !isWithin(dir, p) {
			parent := filepath.Dir(dir)
			if parent == dir {
				return dir
			}
			dir = parent
		}
	}
	return dir
}

func isWithin(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
