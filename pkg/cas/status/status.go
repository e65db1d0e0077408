// Package status declares error constants returned by
// the cas package.
package status

import (
	"github.com/strataconf/strata/pkg/errors"
)

var (
	// ErrObjectNotFound indicates that no object is stored under the requested key
	ErrObjectNotFound = errors.New("object not found")

	// ErrObjectTooLarge indicates that an object exceeds the size this store is willing to load
	ErrObjectTooLarge = errors.New("object too large")

	// ErrCorruptedObject indicates that the content read back does not hash to its key
	ErrCorruptedObject = errors.New("corrupted object: content does not match key")

	// ErrRefNotFound indicates that a layer has no recorded head commit
	ErrRefNotFound = errors.New("reference not found")

	// ErrInvalidRef indicates that the stored reference content is not a valid key
	ErrInvalidRef = errors.New("invalid reference content")

	// ErrInvalidRefUpdate indicates a malformed reference update request
	ErrInvalidRefUpdate = errors.New("invalid reference update")

	// ErrLockTimeout indicates that a reference lock could not be acquired in time
	ErrLockTimeout = errors.New("timed out waiting for reference lock")

	// ErrTransactionFailed indicates that a multi-reference transaction was aborted:
	// either a precondition did not hold or a write failed and was rolled back.
	// No reference keeps a partial update.
	ErrTransactionFailed = errors.New("reference transaction failed")
)
