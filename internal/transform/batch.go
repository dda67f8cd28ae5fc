package transform

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/toyz/pystubs/internal/errors"
	"github.com/toyz/pystubs/internal/models"
)

// Options configures a batch transformation
type Options struct {
	// Workers is the number of signatures transformed concurrently. Values
	// below 2 process the batch sequentially.
	Workers int
}

// Batch is the output of TransformAll
type Batch struct {
	Signatures  []models.FunctionSignature
	Diagnostics []Diagnostic
	Splits      int // number of input signatures replaced by overloads
}

// TransformAll transforms every signature and concatenates the results in
// input order, so each split appears as an adjacent True/False pair.
//
// Every signature is validated before any is transformed; a malformed
// signature fails the whole batch and no partial output is returned.
func TransformAll(sigs []models.FunctionSignature, opts Options) (*Batch, error) {
	for i, sig := range sigs {
		if err := sig.Validate(); err != nil {
			return nil, errors.WrapValidationError(fmt.Sprintf("signature %d", i), err).
				WithContext("function_name", sig.Name)
		}
	}

	results := make([]Result, len(sigs))
	if opts.Workers < 2 {
		for i, sig := range sigs {
			results[i] = Transform(sig)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(opts.Workers)
		for i, sig := range sigs {
			i, sig := i, sig
			g.Go(func() error {
				results[i] = Transform(sig)
				return nil
			})
		}
		_ = g.Wait()
	}

	batch := &Batch{Signatures: make([]models.FunctionSignature, 0, len(sigs))}
	for _, res := range results {
		batch.Signatures = append(batch.Signatures, res.Signatures...)
		if res.Split() {
			batch.Splits++
		}
		if res.Decision.Diagnostic != nil {
			batch.Diagnostics = append(batch.Diagnostics, *res.Decision.Diagnostic)
		}
	}

	return batch, nil
}
