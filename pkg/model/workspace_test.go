package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkspaceMetadataRoundTrip(t *testing.T) {
	meta := NewWorkspaceMetadata(
		[]LayerID{
			LocalLayer("website"),
			GlobalLayer(),
			ModeLayer("vim"),
		},
		map[string]string{
			"editor/settings.yaml": "aa11",
			"shell/env.toml":       "bb22",
		},
	)
	// the constructor sorts layers by precedence
	require.Equal(t, []LayerID{GlobalLayer(), ModeLayer("vim"), LocalLayer("website")}, meta.AppliedLayers)
	require.NoError(t, meta.Validate())

	b, err := MarshalWorkspaceMetadata(meta)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"mode:mode=vim"`)

	back, err := UnmarshalWorkspaceMetadata(b)
	require.NoError(t, err)
	require.Equal(t, meta.AppliedLayers, back.AppliedLayers)
	require.Equal(t, meta.Files, back.Files)
	require.True(t, meta.Timestamp.Equal(back.Timestamp))

	again, err := MarshalWorkspaceMetadata(back)
	require.NoError(t, err)
	require.Equal(t, b, again, "metadata must marshal deterministically")
}

func TestWorkspaceMetadataSameContent(t *testing.T) {
	files := map[string]string{"a.json": "0011"}
	meta := NewWorkspaceMetadata([]LayerID{GlobalLayer()}, files)

	same := NewWorkspaceMetadata([]LayerID{GlobalLayer()}, map[string]string{"a.json": "0011"})
	require.True(t, meta.SameContent(same))

	edited := NewWorkspaceMetadata([]LayerID{GlobalLayer()}, map[string]string{"a.json": "ffee"})
	require.False(t, meta.SameContent(edited))

	moreLayers := NewWorkspaceMetadata([]LayerID{GlobalLayer(), LocalLayer("website")}, files)
	require.False(t, meta.SameContent(moreLayers))

	require.False(t, meta.SameContent(nil))
}

func TestWorkspaceMetadataValidate(t *testing.T) {
	bad := &WorkspaceMetadata{
		AppliedLayers: []LayerID{LocalLayer("website"), GlobalLayer()},
		Files:         map[string]string{"a.json": "0011"},
	}
	require.Error(t, bad.Validate(), "layers out of precedence order must be rejected")

	escape := &WorkspaceMetadata{
		AppliedLayers: []LayerID{GlobalLayer()},
		Files:         map[string]string{"../oops": "0011"},
	}
	require.Error(t, escape.Validate())
}

func TestWorkspacePaths(t *testing.T) {
	require.Equal(t, ".strata/workspace.json", GetPathToWorkspaceMetadata(WorkspaceDirName))
	require.Equal(t, ".strata/context.yaml", GetPathToContext(WorkspaceDirName))
	require.Equal(t, "editor/settings.yaml.conflict", GetConflictSidecarPath("editor/settings.yaml"))
}
