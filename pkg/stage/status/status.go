// Package status declares error constants returned by
// the stage package.
package status

import (
	"github.com/strataconf/strata/pkg/errors"
)

var (
	// ErrInvalidSelector indicates a combination of layer selectors that routes nowhere
	ErrInvalidSelector = errors.New("invalid layer selector combination")

	// ErrMissingContext indicates that a selector needs a context field that is not set
	ErrMissingContext = errors.New("selector requires a context field that is not set")

	// ErrInvalidEntry indicates a malformed staging request
	ErrInvalidEntry = errors.New("invalid staging entry")

	// ErrCorruptIndex indicates that the staging index cannot be decoded
	ErrCorruptIndex = errors.New("staging index is corrupted")

	// ErrNotStaged indicates that no staged content exists under the requested hash
	ErrNotStaged = errors.New("content is not staged")
)
