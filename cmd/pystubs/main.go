package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/toyz/pystubs/internal/cli"
	"github.com/toyz/pystubs/internal/config"
	"github.com/toyz/pystubs/internal/utils"
)

// builderVersion is reported to the build backend that loads the hook
const builderVersion = "in-tree"

var (
	// errReported marks failures already printed by the reporter
	errReported = stderrors.New("generation failed")
	// errCheckFailed marks a check run that found stale stubs or warnings
	errCheckFailed = stderrors.New("stubs are out of date")
)

// options holds the flag values shared by every command
type options struct {
	verbose        bool
	quiet          bool
	packageName    string
	outputDir      string
	pythonVersion  string
	includePrivate bool
	lineLength     int
	workers        int
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the command line and returns the process exit code
func execute(args []string, stdout, stderr io.Writer) int {
	root := newRootCommand(stdout, stderr)
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		if !stderrors.Is(err, errReported) && !stderrors.Is(err, errCheckFailed) {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	generateRun := func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd, opts, args, false, stdout, stderr)
	}

	root := &cobra.Command{
		Use:   "pystubs [project-dir]",
		Short: "Generate .pyi stubs with copy overloads for a Python package",
		Long: `pystubs - Stub generator for AnnData-style copy functions.

Scans the top-level functions of a Python package and writes .pyi stubs next
to the sources. A function taking a keyword-only "copy: bool" argument and
returning "AnnData | None" gets two overloads, so type checkers know that
copy=True returns AnnData and copy=False returns None.

Settings are read from [project] and [tool.pystubs] in pyproject.toml;
flags override them.

Examples:
  pystubs                       # Generate stubs for the project in .
  pystubs check ./myproject     # Fail if stubs are stale or copy is positional
  pystubs clean                 # Remove generated stubs
  pystubs --output-dir typings  # Write stubs to a separate tree`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          generateRun,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.BoolVar(&opts.verbose, "verbose", false, "Enable verbose output and detailed error reporting")
	flags.BoolVar(&opts.quiet, "quiet", false, "Only show errors and final results")
	flags.StringVar(&opts.packageName, "package", "", "Import name of the package (defaults to [project] name)")
	flags.StringVar(&opts.outputDir, "output-dir", "", "Directory receiving the stubs (defaults to next to the sources)")
	flags.StringVar(&opts.pythonVersion, "python-version", "", "Target Python version, e.g. 3.11")
	flags.BoolVar(&opts.includePrivate, "include-private", false, "Also stub functions whose names start with an underscore")
	flags.IntVar(&opts.lineLength, "line-length", 0, "Wrap definitions longer than this; 0 disables wrapping")
	flags.IntVar(&opts.workers, "workers", 0, "Number of signatures transformed concurrently")

	root.AddCommand(
		&cobra.Command{
			Use:   "generate [project-dir]",
			Short: "Write stubs for every module of the package",
			Args:  cobra.MaximumNArgs(1),
			RunE:  generateRun,
		},
		&cobra.Command{
			Use:   "check [project-dir]",
			Short: "Verify stubs are current without writing them",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runGenerate(cmd, opts, args, true, stdout, stderr)
			},
		},
		&cobra.Command{
			Use:   "clean [project-dir]",
			Short: "Remove the stubs of every module of the package",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runClean(cmd, opts, args, stdout, stderr)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the builder version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				fmt.Fprintln(stdout, builderVersion)
				return nil
			},
		},
	)

	return root
}

// loadConfig reads pyproject.toml from the project directory and applies
// the flags the user actually set
func loadConfig(cmd *cobra.Command, opts *options, args []string) (*config.Config, error) {
	if opts.quiet && opts.verbose {
		return nil, fmt.Errorf("--quiet and --verbose cannot be combined")
	}

	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	projectDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project directory: %w", err)
	}

	cfg, err := config.Load(projectDir)
	if err != nil {
		return nil, err
	}

	var o config.Overrides
	flags := cmd.Flags()
	if flags.Changed("package") {
		o.PackageName = &opts.packageName
	}
	if flags.Changed("output-dir") {
		o.OutputDir = &opts.outputDir
	}
	if flags.Changed("python-version") {
		o.PythonVersion = &opts.pythonVersion
	}
	if flags.Changed("include-private") {
		o.IncludePrivate = &opts.includePrivate
	}
	if flags.Changed("line-length") {
		o.LineLength = &opts.lineLength
	}
	if flags.Changed("workers") {
		o.Workers = &opts.workers
	}
	cfg.Apply(o)
	cfg.Verbose = opts.verbose

	return cfg, nil
}

// newDiagnostics creates the output channels for a run
func newDiagnostics(opts *options, stdout, stderr io.Writer) (*utils.DiagnosticSystem, *cli.DiagnosticReporter) {
	var diagnostics *utils.DiagnosticSystem
	if opts.quiet {
		diagnostics = utils.NewQuietDiagnostics()
	} else if opts.verbose {
		diagnostics = utils.NewVerboseDiagnostics()
	} else {
		diagnostics = utils.NewDiagnosticSystem(utils.DiagnosticInfo)
	}

	reporter := cli.NewDiagnosticReporter(opts.verbose)
	if stdout != io.Writer(os.Stdout) || stderr != io.Writer(os.Stderr) {
		diagnostics.SetOutput(stdout, stderr)
		reporter.SetOutput(stderr)
	}
	return diagnostics, reporter
}

func runGenerate(cmd *cobra.Command, opts *options, args []string, check bool, stdout, stderr io.Writer) error {
	cfg, err := loadConfig(cmd, opts, args)
	diagnostics, reporter := newDiagnostics(opts, stdout, stderr)
	if err != nil {
		reporter.ReportError(err)
		return errReported
	}
	cfg.Check = check

	if check {
		diagnostics.Header("checking stubs for " + cfg.PackageName)
	} else {
		diagnostics.Header("generating stubs for " + cfg.PackageName)
	}

	verbose := diagnostics.Enabled(utils.DiagnosticVerbose)
	if verbose {
		diagnostics.Subsection("Configuration")
		diagnostics.Indent()
		diagnostics.List("Project: %s", cfg.ProjectDir)
		diagnostics.List("Package: %s", cfg.PackageName)
		if cfg.PythonVersion != "" {
			diagnostics.List("Python version: %s", cfg.PythonVersion)
		}
		if cfg.OutputDir != "" {
			diagnostics.List("Output directory: %s", cfg.OutputDir)
		}
		diagnostics.List("Line length: %d", cfg.LineLength)
		diagnostics.List("Workers: %d", cfg.Workers)
		diagnostics.Unindent()
	}

	generator := cli.NewGenerator(diagnostics, reporter)
	if err := generator.Run(cfg); err != nil {
		reporter.ReportError(err)
		return errReported
	}

	summary := generator.GetSummary()
	stats := []utils.Stat{
		{Label: "Modules processed", Value: summary.ModulesProcessed},
		{Label: "Functions stubbed", Value: summary.FunctionsStubbed},
		{Label: "Copy overloads", Value: summary.OverloadsGenerated},
		{Label: "Warnings", Value: summary.Warnings},
	}
	if check {
		stats = append(stats, utils.Stat{Label: "Out of date", Value: len(summary.OutOfDate)})
	} else {
		stats = append(stats, utils.Stat{Label: "Stubs written", Value: summary.StubsWritten})
	}

	if len(summary.HandWritten) > 0 {
		stats = append(stats, utils.Stat{Label: "Hand-written stubs kept", Value: len(summary.HandWritten)})
	}

	if verbose && len(summary.GeneratedFiles) > 0 {
		diagnostics.Subsection("Generated Files")
		diagnostics.Indent()
		for _, file := range summary.GeneratedFiles {
			diagnostics.List("%s", file)
		}
		diagnostics.Unindent()
	}

	if check {
		for _, file := range summary.OutOfDate {
			diagnostics.Error("Stub out of date: %s", file)
		}
		if summary.CheckFailed() {
			diagnostics.Summary("Check Failed", stats)
			return errCheckFailed
		}
		diagnostics.Summary("Check Passed", stats)
		return nil
	}

	diagnostics.Summary("Generation Complete!", stats)
	return nil
}

func runClean(cmd *cobra.Command, opts *options, args []string, stdout, stderr io.Writer) error {
	cfg, err := loadConfig(cmd, opts, args)
	diagnostics, reporter := newDiagnostics(opts, stdout, stderr)
	if err != nil {
		reporter.ReportError(err)
		return errReported
	}

	diagnostics.StartProgress("Cleaning generated stubs")
	removed, err := cli.NewCleaner().Clean(cfg)
	if err != nil {
		diagnostics.EndProgress(false, "")
		reporter.ReportError(err)
		return errReported
	}
	diagnostics.EndProgress(true, "")

	for _, file := range removed {
		diagnostics.Verbose("Removed %s", file)
	}
	diagnostics.Success("Removed %d stubs", len(removed))
	return nil
}
