package model

import (
	jsoniter "github.com/json-iterator/go"

	"time"
)

const (
	// WorkspaceDirName is the directory holding workspace bookkeeping
	// inside a project tree.
	WorkspaceDirName = ".strata"

	// ConflictSidecarSuffix is appended to a file path to name the
	// sidecar holding unresolved merge conflicts for that file.
	ConflictSidecarSuffix = ".conflict"

	workspaceMetadataFile = "workspace.json"
)

// workspace metadata must marshal deterministically, so map keys are
// sorted the way the standard library sorts them
var metaJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// WorkspaceState classifies a workspace against its recorded metadata.
type WorkspaceState uint

const (
	// StateClean means every applied file still matches its recorded hash.
	StateClean WorkspaceState = iota

	// StateDirty means at least one applied file was edited, added or
	// removed since the last apply.
	StateDirty

	// StateDetached means the recorded layers can no longer be resolved,
	// or the context asks for layers that were never applied.
	StateDetached
)

func (s WorkspaceState) String() string {
	switch s {
	case StateClean:
		return "CLEAN"
	case StateDirty:
		return "DIRTY"
	case StateDetached:
		return "DETACHED"
	default:
		return "UNKNOWN"
	}
}

// WorkspaceMetadata records the outcome of an apply: which layers were
// folded, when, and the hash of every file written. Status compares the
// workspace against this record to detect drift.
type WorkspaceMetadata struct {
	Timestamp     time.Time         `json:"timestamp"`
	AppliedLayers []LayerID         `json:"applied_layers"`
	Files         map[string]string `json:"files"`
	_             struct{}
}

// NewWorkspaceMetadata builds the record for an apply that folded the
// given layers and wrote the given files. Layers are sorted into
// ascending precedence order.
func NewWorkspaceMetadata(layers []LayerID, files map[string]string) *WorkspaceMetadata {
	sorted := make([]LayerID, len(layers))
	copy(sorted, layers)
	SortLayers(sorted)
	return &WorkspaceMetadata{
		Timestamp:     GetCommitTimeStamp(),
		AppliedLayers: sorted,
		Files:         files,
	}
}

// SameContent reports whether two records describe the same applied
// layers and file hashes, ignoring timestamps.
func (m *WorkspaceMetadata) SameContent(other *WorkspaceMetadata) bool {
	if other == nil || len(m.AppliedLayers) != len(other.AppliedLayers) || len(m.Files) != len(other.Files) {
		return false
	}
	for i, layer := range m.AppliedLayers {
		if layer != other.AppliedLayers[i] {
			return false
		}
	}
	for filePath, hash := range m.Files {
		if other.Files[filePath] != hash {
			return false
		}
	}
	return true
}

// Validate checks the record for internal consistency.
func (m *WorkspaceMetadata) Validate() error {
	for i, layer := range m.AppliedLayers {
		if err := layer.Validate(); err != nil {
			return err
		}
		if i > 0 && m.AppliedLayers[i-1].Precedence() > layer.Precedence() {
			return ErrInvalidDescriptor.WrapMessage("applied layers out of precedence order at %q", layer)
		}
	}
	for filePath, hash := range m.Files {
		if err := ValidateLayerFilePath(filePath); err != nil {
			return err
		}
		if hash == "" {
			return ErrInvalidDescriptor.WrapMessage("file %q has no hash", filePath)
		}
	}
	return nil
}

// GetPathToWorkspaceMetadata returns the path to the metadata record
// inside a workspace directory.
func GetPathToWorkspaceMetadata(workspaceDir string) string {
	return workspaceDir + "/" + workspaceMetadataFile
}

// GetConflictSidecarPath returns the sidecar path for a conflicted file.
func GetConflictSidecarPath(filePath string) string {
	return filePath + ConflictSidecarSuffix
}

// UnmarshalWorkspaceMetadata decodes a metadata record.
func UnmarshalWorkspaceMetadata(b []byte) (*WorkspaceMetadata, error) {
	if b == nil {
		return nil, ErrInvalidDescriptor.WrapMessage("received nil entry to unmarshal")
	}
	var m WorkspaceMetadata
	if err := metaJSON.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// MarshalWorkspaceMetadata encodes a metadata record. The encoding is
// deterministic: equal records yield equal bytes.
func MarshalWorkspaceMetadata(m *WorkspaceMetadata) ([]byte, error) {
	return metaJSON.MarshalIndent(m, "", "  ")
}
