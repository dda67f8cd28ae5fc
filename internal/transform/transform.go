// Package transform rewrites functions following the copy convention into
// precise overloads.
//
// A function declared as
//
//	def x(adata: AnnData, *, copy: bool = False) -> AnnData | None: ...
//
// becomes
//
//	@overload
//	def x(adata: AnnData, *, copy: Literal[True]) -> AnnData: ...
//	@overload
//	def x(adata: AnnData, *, copy: Literal[False] = False) -> None: ...
package transform

import (
	"fmt"

	"github.com/toyz/pystubs/internal/models"
)

const (
	// CopyParam is the name of the discriminating parameter
	CopyParam = "copy"
	// CopyParamType is the only annotation that qualifies
	CopyParamType = "bool"
	// OptionalReturnType is the only return annotation that qualifies
	OptionalReturnType = "AnnData | None"
	// CopyReturnType is the return annotation of the copy=True overload
	CopyReturnType = "AnnData"
	// InPlaceReturnType is the return annotation of the copy=False overload
	InPlaceReturnType = "None"

	literalTrue  = "Literal[True]"
	literalFalse = "Literal[False]"
)

// Result is the output of transforming one signature. It holds either the
// original signature or the True and False overloads, in that order.
type Result struct {
	Signatures []models.FunctionSignature
	Decision   Decision
}

// Split reports whether the signature was replaced by overloads
func (r Result) Split() bool {
	return len(r.Signatures) == 2
}

// Check applies the qualification rule to a signature
func Check(sig models.FunctionSignature) Decision {
	i, copyParam, ok := sig.Param(CopyParam)
	if !ok {
		return ineligible("no %q parameter", CopyParam)
	}

	// Any default qualifies; the value itself is not inspected.
	if !copyParam.HasDefault {
		return ineligible("%q has no default", CopyParam)
	}
	if copyParam.Type != CopyParamType {
		return ineligible("%q is annotated %q, not %q", CopyParam, copyParam.Type, CopyParamType)
	}

	if !isKeywordOnly(sig, i) {
		return ineligibleWithDiagnostic(Diagnostic{
			Function:  sig.Name,
			Signature: sig.String(),
			Message:   fmt.Sprintf("Parameter '%s' must be a keyword-only argument in function `%s`", CopyParam, sig.Name),
		}, fmt.Sprintf("%q is positional", CopyParam))
	}

	if sig.ReturnType != OptionalReturnType {
		return ineligible("return type is %q, not %q", sig.ReturnType, OptionalReturnType)
	}

	return eligible()
}

// isKeywordOnly reports whether the parameter at index i comes strictly
// after a * or ** marker
func isKeywordOnly(sig models.FunctionSignature, i int) bool {
	for j, p := range sig.Parameters {
		if p.IsStar() {
			return i > j
		}
	}
	return false
}

// Transform returns the signature unchanged, or the two overloads that
// replace it. The input is never modified.
func Transform(sig models.FunctionSignature) Result {
	decision := Check(sig)
	if !decision.IsEligible() {
		return Result{
			Signatures: []models.FunctionSignature{sig},
			Decision:   decision,
		}
	}

	return Result{
		Signatures: []models.FunctionSignature{
			copyOverload(sig),
			inPlaceOverload(sig),
		},
		Decision: decision,
	}
}

// copyOverload builds the copy=True branch. The parameter has no default
// so it renders as a required keyword argument.
func copyOverload(sig models.FunctionSignature) models.FunctionSignature {
	return sig.
		WithParam(CopyParam, models.Parameter{
			Name: CopyParam,
			Type: literalTrue,
			Kind: models.KindOrdinary,
		}).
		WithReturnType(CopyReturnType)
}

// inPlaceOverload builds the copy=False branch
func inPlaceOverload(sig models.FunctionSignature) models.FunctionSignature {
	return sig.
		WithParam(CopyParam, models.Parameter{
			Name:         CopyParam,
			Type:         literalFalse,
			HasDefault:   true,
			DefaultValue: "False",
			Kind:         models.KindOrdinary,
		}).
		WithReturnType(InPlaceReturnType)
}
