package transform

import "fmt"

// Outcome is the result of checking a signature for the copy overload split
type Outcome int

const (
	// Eligible signatures are split into two overloads
	Eligible Outcome = iota
	// Ineligible signatures pass through unchanged without comment
	Ineligible
	// IneligibleWithDiagnostic signatures pass through unchanged and the
	// caller should surface the attached diagnostic
	IneligibleWithDiagnostic
)

// String returns the string representation of the outcome
func (o Outcome) String() string {
	switch o {
	case Eligible:
		return "eligible"
	case Ineligible:
		return "ineligible"
	case IneligibleWithDiagnostic:
		return "ineligible_with_diagnostic"
	default:
		return "unknown"
	}
}

// Diagnostic is a non-fatal report about a signature that looked like a
// copy function but could not be split
type Diagnostic struct {
	Function  string // name of the offending function
	Signature string // rendered signature, for context
	Message   string
}

// String returns the message followed by the rendered signature
func (d Diagnostic) String() string {
	if d.Signature == "" {
		return d.Message
	}
	return fmt.Sprintf("%s: %s", d.Message, d.Signature)
}

// Decision explains whether a signature qualifies for the split
type Decision struct {
	Outcome    Outcome
	Reason     string      // short explanation when not eligible
	Diagnostic *Diagnostic // set only for IneligibleWithDiagnostic
}

// IsEligible reports whether the signature will be split
func (d Decision) IsEligible() bool {
	return d.Outcome == Eligible
}

func eligible() Decision {
	return Decision{Outcome: Eligible}
}

func ineligible(format string, args ...interface{}) Decision {
	return Decision{Outcome: Ineligible, Reason: fmt.Sprintf(format, args...)}
}

func ineligibleWithDiagnostic(diag Diagnostic, reason string) Decision {
	return Decision{Outcome: IneligibleWithDiagnostic, Reason: reason, Diagnostic: &diag}
}
