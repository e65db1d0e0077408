package model

import (
	"github.com/strataconf/strata/pkg/errors"
)

var (
	// ErrInvalidKind indicates a kind outside the known enumeration.
	ErrInvalidKind = errors.New("invalid layer kind")

	// ErrInvalidLayerID indicates a layer identifier whose fields do not
	// match its kind, or a canonical encoding that cannot be decoded.
	ErrInvalidLayerID = errors.New("invalid layer id")

	// ErrInvalidContext indicates a project context that fails validation.
	ErrInvalidContext = errors.New("invalid project context")

	// ErrNotLayerPath indicates a reference or storage path that does not
	// follow the layer path grammar.
	ErrNotLayerPath = errors.New("path does not address a layer")

	// ErrInvalidDescriptor indicates a commit or tree descriptor that
	// fails validation.
	ErrInvalidDescriptor = errors.New("invalid descriptor")
)
