package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/pystubs/internal/pyparse"
	"github.com/toyz/pystubs/internal/stubgen"
	"github.com/toyz/pystubs/internal/transform"
)

// TestStubPipelineIntegration runs a realistic module through extraction,
// the copy transform and stub rendering
func TestStubPipelineIntegration(t *testing.T) {
	source := `"""Preprocessing functions."""
from __future__ import annotations

from typing import TYPE_CHECKING

import numpy as np

if TYPE_CHECKING:
    from anndata import AnnData


def normalize_total(
    adata: AnnData,
    *,
    target_sum: float | None = None,  # counts per cell
    copy: bool = False,
) -> AnnData | None:
    """Normalize counts per cell."""

    def inner(x):
        return x

    return None


class Scaler:
    def fit(self, adata: AnnData, *, copy: bool = False) -> AnnData | None: ...


@deprecated("use normalize_total")
def log1p(adata: AnnData, *, base: float | None = None, copy: bool = False) -> AnnData | None:
    text = """
def not_a_function(copy: bool = False): ...
"""
    return None


def filter_cells(adata: AnnData, min_genes: int | None = None, copy: bool = False) -> AnnData | None: ...


def _check(adata: AnnData) -> None: ...
`

	expected := stubgen.GeneratedHeader + `
from typing import TYPE_CHECKING
import numpy as np
from anndata import AnnData
from typing import Literal, overload

class Scaler: ...

@overload
def normalize_total(
    adata: AnnData,
    *,
    target_sum: float | None = None,
    copy: Literal[True],
) -> AnnData: ...

@overload
def normalize_total(
    adata: AnnData,
    *,
    target_sum: float | None = None,
    copy: Literal[False] = False,
) -> None: ...

@overload
def log1p(
    adata: AnnData,
    *,
    base: float | None = None,
    copy: Literal[True],
) -> AnnData: ...

@overload
def log1p(
    adata: AnnData,
    *,
    base: float | None = None,
    copy: Literal[False] = False,
) -> None: ...

def filter_cells(
    adata: AnnData,
    min_genes: int | None = None,
    copy: bool = False,
) -> AnnData | None: ...
`

	mod, err := pyparse.NewParser().ParseModule("scanpy.pp", "scanpy/pp.py", source)
	require.NoError(t, err)

	writer := stubgen.NewWriter()
	sigs := writer.Select(mod)
	require.Len(t, sigs, 3, "methods, nested and private functions are not stubbed")
	require.Len(t, mod.Classes, 1)
	assert.Empty(t, mod.Variables, "names bound inside functions are not module variables")

	batch, err := transform.TransformAll(sigs, transform.Options{Workers: 4})
	require.NoError(t, err)
	assert.Equal(t, 2, batch.Splits)
	require.Len(t, batch.Diagnostics, 1)
	assert.Equal(t, "filter_cells", batch.Diagnostics[0].Function)

	assert.Equal(t, expected, writer.Render(mod, batch.Signatures))
}

// TestStubPipelineDeterministic checks that concurrency never changes the
// rendered stub
func TestStubPipelineDeterministic(t *testing.T) {
	source := ""
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		source += "def " + name + "(x, *, copy: bool = False) -> AnnData | None: ...\n"
		source += "def " + name + "_plain(x: int) -> int: ...\n"
	}

	mod, err := pyparse.NewParser().ParseModule("m", "m.py", source)
	require.NoError(t, err)

	writer := stubgen.NewWriter()
	sigs := writer.Select(mod)

	sequential, err := transform.TransformAll(sigs, transform.Options{Workers: 1})
	require.NoError(t, err)
	want := writer.Render(mod, sequential.Signatures)

	for i := 0; i < 10; i++ {
		batch, err := transform.TransformAll(sigs, transform.Options{Workers: 8})
		require.NoError(t, err)
		assert.Equal(t, want, writer.Render(mod, batch.Signatures))
	}
}
