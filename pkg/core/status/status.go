// Package status exports errors produced by the core package.
package status

import (
	"github.com/strataconf/strata/pkg/errors"
)

var (
	// ErrConfiguration indicates an operation invoked with an invalid or
	// incomplete workspace configuration
	ErrConfiguration = errors.New("invalid workspace configuration")

	// ErrNotFound indicates a layer, commit or file that does not exist
	ErrNotFound = errors.New("not found")

	// ErrNothingToCommit indicates a commit attempt with an empty staging index
	ErrNothingToCommit = errors.New("nothing to commit")

	// ErrDirtyWorkspace indicates an apply refused because tracked files
	// were edited since the last apply
	ErrDirtyWorkspace = errors.New("workspace is dirty")

	// ErrDetachedWorkspace indicates metadata that no longer matches the
	// active context or resolvable layer commits
	ErrDetachedWorkspace = errors.New("workspace is detached")

	// ErrMergeConflict indicates unresolved conflicts that need manual
	// resolution before the operation can complete
	ErrMergeConflict = errors.New("merge conflict requires manual resolution")

	// ErrSyncFailed indicates a failure while reconciling a layer with a
	// remote store
	ErrSyncFailed = errors.New("failed to sync layer")
)
