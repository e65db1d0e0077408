// Package status declares error constants returned by
// the audit package.
package status

import (
	"github.com/strataconf/strata/pkg/errors"
)

var (
	// ErrTokenGenUpdate signals that we could not update the token generator
	ErrTokenGenUpdate = errors.New("failed to update the token generator")

	// ErrTokenAttributes indicates a failure when extracting the token generator attributes
	ErrTokenAttributes = errors.New("failed to get token generator attributes")

	// ErrKSUID indicates that we failed to generate a new ksuid.
	// An error here is telling of an issue with the random generator.
	ErrKSUID = errors.New("failed to generate ksuid")

	// ErrInvalidEntry indicates an audit record that does not describe a commit
	ErrInvalidEntry = errors.New("invalid audit entry")

	// ErrRecordEntry indicates a failure when appending a record to the audit trail
	ErrRecordEntry = errors.New("failed to record audit entry")

	// ErrListEntries indicates a failure when retrieving audit records
	ErrListEntries = errors.New("failed to list audit entries")

	// ErrCorruptEntry indicates that a stored audit record cannot be decoded
	ErrCorruptEntry = errors.New("audit entry is corrupted")
)
