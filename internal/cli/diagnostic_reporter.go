package cli

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/toyz/pystubs/internal/errors"
	"github.com/toyz/pystubs/internal/models"
)

// DiagnosticReporter provides user-friendly error reporting and diagnostics
type DiagnosticReporter struct {
	verbose   bool
	useColors bool
	out       io.Writer
}

// NewDiagnosticReporter creates a new diagnostic reporter writing to stderr
func NewDiagnosticReporter(verbose bool) *DiagnosticReporter {
	return &DiagnosticReporter{
		verbose:   verbose,
		useColors: !color.NoColor,
		out:       os.Stderr,
	}
}

// SetOutput redirects the reporter and disables colors
func (r *DiagnosticReporter) SetOutput(w io.Writer) {
	r.out = w
	r.useColors = false
}

// ReportWarning prints a single warning line
func (r *DiagnosticReporter) ReportWarning(message string) {
	marker := "!"
	if r.useColors {
		marker = color.New(color.FgYellow, color.Bold).Sprint(marker)
	}
	fmt.Fprintf(r.out, "%s %s\n", marker, message)
}

// ReportError provides comprehensive error reporting with user-friendly output
func (r *DiagnosticReporter) ReportError(err error) {
	fmt.Fprintf(r.out, "\nERROR: Stub Generation Failed\n")
	fmt.Fprintf(r.out, "=============================\n\n")

	if genErr := asGeneratorError(err); genErr != nil {
		r.reportGeneratorError(genErr)
	} else {
		fmt.Fprintf(r.out, "Message: %s\n\n", err.Error())
	}

	fmt.Fprintf(r.out, "\n")
}

// reportGeneratorError reports a GeneratorError with full context and suggestions
func (r *DiagnosticReporter) reportGeneratorError(genErr *models.GeneratorError) {
	r.printErrorHeader(genErr.Type)

	fmt.Fprintf(r.out, "Message: %s\n\n", genErr.Message)

	if genErr.File != "" {
		if genErr.Line > 0 {
			fmt.Fprintf(r.out, "Location: %s:%d\n\n", genErr.File, genErr.Line)
		} else {
			fmt.Fprintf(r.out, "File: %s\n\n", genErr.File)
		}
	}

	var multi *errors.MultipleErrors
	if stderrors.As(genErr.Cause, &multi) {
		fmt.Fprintf(r.out, "Failures:\n")
		for i, e := range multi.Errors {
			fmt.Fprintf(r.out, "   %d. %s\n", i+1, e.Error())
		}
		fmt.Fprintf(r.out, "\n")
	} else if r.verbose && genErr.Cause != nil {
		fmt.Fprintf(r.out, "Underlying cause: %s\n\n", genErr.Cause.Error())
	}

	if len(genErr.Context) > 0 {
		r.printContext(genErr.Context)
	}

	if len(genErr.Suggestions) > 0 {
		r.printSuggestions(genErr.Suggestions)
	}

	r.printAdditionalHelp(genErr.Type)

	if r.verbose {
		r.printErrorChain(genErr)
	}
}

// printErrorHeader prints a formatted error header based on error type
func (r *DiagnosticReporter) printErrorHeader(errorType models.ErrorType) {
	var errorTypeStr string

	switch errorType {
	case models.ErrorTypeSyntax:
		errorTypeStr = "Syntax Error"
	case models.ErrorTypeValidation:
		errorTypeStr = "Validation Error"
	case models.ErrorTypeGeneration:
		errorTypeStr = "Stub Generation Error"
	case models.ErrorTypeFileSystem:
		errorTypeStr = "File System Error"
	case models.ErrorTypeConfiguration:
		errorTypeStr = "Configuration Error"
	case models.ErrorTypeMalformedSignature:
		errorTypeStr = "Malformed Signature"
	default:
		errorTypeStr = "Unknown Error"
	}

	fmt.Fprintf(r.out, "Type: %s\n", errorTypeStr)
	fmt.Fprintf(r.out, "%s\n\n", strings.Repeat("-", len(errorTypeStr)+6))
}

// printContext prints context information in a readable format
func (r *DiagnosticReporter) printContext(context map[string]interface{}) {
	fmt.Fprintf(r.out, "Context:\n")

	importantKeys := []string{"module", "function_name", "package", "project_dir"}
	printed := make(map[string]bool)

	for _, key := range importantKeys {
		if value, exists := context[key]; exists {
			fmt.Fprintf(r.out, "   %s: %v\n", formatContextKey(key), value)
			printed[key] = true
		}
	}

	var rest []string
	for key := range context {
		if !printed[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	for _, key := range rest {
		fmt.Fprintf(r.out, "   %s: %v\n", formatContextKey(key), context[key])
	}

	fmt.Fprintf(r.out, "\n")
}

// formatContextKey formats context keys to be more readable
func formatContextKey(key string) string {
	switch key {
	case "function_name":
		return "Function"
	case "project_dir":
		return "Project"
	default:
		// Convert snake_case to Title Case
		parts := strings.Split(key, "_")
		for i, part := range parts {
			if len(part) > 0 {
				parts[i] = strings.ToUpper(part[:1]) + part[1:]
			}
		}
		return strings.Join(parts, " ")
	}
}

// printSuggestions prints actionable suggestions
func (r *DiagnosticReporter) printSuggestions(suggestions []string) {
	fmt.Fprintf(r.out, "Suggestions:\n")
	for i, suggestion := range suggestions {
		fmt.Fprintf(r.out, "   %d. %s\n", i+1, suggestion)
	}
	fmt.Fprintf(r.out, "\n")
}

// printAdditionalHelp prints additional help based on error type
func (r *DiagnosticReporter) printAdditionalHelp(errorType models.ErrorType) {
	switch errorType {
	case models.ErrorTypeSyntax:
		fmt.Fprintf(r.out, "Only module-level def statements are parsed; check the reported\n")
		fmt.Fprintf(r.out, "definition compiles with the target Python version.\n\n")
	case models.ErrorTypeConfiguration:
		fmt.Fprintf(r.out, "Settings are read from [project] and [tool.pystubs] in pyproject.toml;\n")
		fmt.Fprintf(r.out, "command-line flags override them.\n\n")
	}

	fmt.Fprintf(r.out, "Run with --verbose for more detailed output\n")
}

// printErrorChain prints the wrapped causes in verbose mode
func (r *DiagnosticReporter) printErrorChain(genErr *models.GeneratorError) {
	if genErr.Cause == nil {
		return
	}

	fmt.Fprintf(r.out, "\nError Chain:\n")
	err := genErr.Cause
	for level := 1; err != nil; level++ {
		fmt.Fprintf(r.out, "    %d. %s\n", level, err.Error())
		err = stderrors.Unwrap(err)
	}
}

// Debug prints debug information when verbose mode is enabled
func (r *DiagnosticReporter) Debug(format string, args ...interface{}) {
	if r.verbose {
		fmt.Fprintf(r.out, "[DEBUG] "+format+"\n", args...)
	}
}

// asGeneratorError finds a GeneratorError in err's chain, or converts the
// first StubError found into one
func asGeneratorError(err error) *models.GeneratorError {
	if err == nil {
		return nil
	}

	var genErr *models.GeneratorError
	if stderrors.As(err, &genErr) {
		return genErr
	}

	var stubErr errors.StubError
	if stderrors.As(err, &stubErr) {
		loc := stubErr.Location()
		return &models.GeneratorError{
			Type:        errorTypeFor(stubErr.ErrorCode()),
			File:        loc.File,
			Line:        loc.Line,
			Message:     stubErr.Error(),
			Cause:       stderrors.Unwrap(stubErr),
			Suggestions: stubErr.Suggestions(),
			Context:     stubErr.Context(),
		}
	}

	return nil
}

// errorTypeFor maps an error code onto the CLI error categories
func errorTypeFor(code errors.ErrorCode) models.ErrorType {
	switch code {
	case errors.SyntaxErrorCode:
		return models.ErrorTypeSyntax
	case errors.ValidationErrorCode:
		return models.ErrorTypeValidation
	case errors.GenerationErrorCode:
		return models.ErrorTypeGeneration
	case errors.FileSystemErrorCode:
		return models.ErrorTypeFileSystem
	case errors.ConfigurationErrorCode:
		return models.ErrorTypeConfiguration
	default:
		return models.ErrorTypeUnknown
	}
}
