package curation

import (
	"fmt"
	"slices"

	"github.com/desertthunder/maestro/internal/shared"
)

// Reorder moves the element at from so that it ends up at index to.
//
// The input is not modified. Every other element keeps its relative order, so
// Reorder(Reorder(s, i, j), j, i) returns s.
func Reorder[T any](seq []T, from, to int) ([]T, error) {
	n := len(seq)
	if from < 0 || from >= n || to < 0 || to >= n {
		return nil, fmt.Errorf("%w: cannot move %d to %d in a list of %d", shared.ErrInvalidArgument, from, to, n)
	}

	out := slices.Clone(seq)
	if from == to {
		return out, nil
	}

	item := out[from]
	out = slices.Delete(out, from, from+1)
	return slices.Insert(out, to, item), nil
}
