package core

import (
	"context"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/strataconf/strata/pkg/cas"
	"github.com/strataconf/strata/pkg/core/status"
	"github.com/strataconf/strata/pkg/errors"
	"github.com/strataconf/strata/pkg/model"
	"github.com/strataconf/strata/pkg/stage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyMergesChain(t *testing.T) {
	w, _ := testWorkspace(t)
	ctx := context.Background()

	stageFile(t, w, model.GlobalLayer(), "service/config.json", `{"timeout": 30, "retries": 3}`)
	stageFile(t, w, model.ProjectLayer("website"), "service/config.json", `{"timeout": 5}`)
	commitAll(t, w, "layered service config")

	summary, err := w.Apply(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"service/config.json"}, summary.FilesWritten)
	assert.Equal(t, []model.LayerID{model.GlobalLayer(), model.ProjectLayer("website")}, summary.LayersUsed)

	// the project override wins the shared key, the global key survives
	merged := readWorkspaceFile(t, w, "service/config.json")
	require.JSONEq(t, `{"timeout": 5, "retries": 3}`, string(merged))

	meta, err := w.loadMetadata()
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, summary.LayersUsed, meta.AppliedLayers)
	assert.Equal(t, cas.HashBytes(merged).String(), meta.Files["service/config.json"])

	state, _, err := w.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.StateClean, state)
}

func TestApplyIdempotent(t *testing.T) {
	w, _ := testWorkspace(t)
	ctx := context.Background()

	stageFile(t, w, model.GlobalLayer(), "service/config.yaml", "timeout: 30\nretries: 3\n")
	stageFile(t, w, model.ProjectLayer("website"), "service/config.yaml", "timeout: 5\n")
	commitAll(t, w, "baseline")

	_, err := w.Apply(ctx, false)
	require.NoError(t, err)
	firstMeta := readWorkspaceFile(t, w, w.metadataPath())
	firstFile := readWorkspaceFile(t, w, "service/config.yaml")

	// an unchanged chain reapplies to byte-identical output, metadata
	// record and timestamp included
	_, err = w.Apply(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, string(firstMeta), string(readWorkspaceFile(t, w, w.metadataPath())))
	assert.Equal(t, string(firstFile), string(readWorkspaceFile(t, w, "service/config.yaml")))
}

func TestApplyRefusesDirty(t *testing.T) {
	w, _ := testWorkspace(t)
	ctx := context.Background()

	stageFile(t, w, model.GlobalLayer(), "service/config.json", `{"timeout": 30}`)
	commitAll(t, w, "baseline")
	_, err := w.Apply(ctx, false)
	require.NoError(t, err)

	require.NoError(t, afero.WriteFile(w.fs, "service/config.json", []byte(`{"timeout": 99}`), 0644))

	_, err = w.Apply(ctx, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrDirtyWorkspace))

	// force overwrites the hand edit
	_, err = w.Apply(ctx, true)
	require.NoError(t, err)
	require.JSONEq(t, `{"timeout": 30}`, string(readWorkspaceFile(t, w, "service/config.json")))

	state, _, err := w.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.StateClean, state)
}

func TestApplyRemovesStale(t *testing.T) {
	w, _ := testWorkspace(t)
	ctx := context.Background()
	layer := model.GlobalLayer()

	stageFile(t, w, layer, "editor/settings.json", `{"theme": "dark"}`)
	stageFile(t, w, layer, "obsolete.txt", "going away\n")
	commitAll(t, w, "baseline")
	_, err := w.Apply(ctx, false)
	require.NoError(t, err)

	_, err = w.stage.MarkDelete(ctx, "obsolete.txt", layer)
	require.NoError(t, err)
	commitAll(t, w, "drop obsolete file")

	summary, err := w.Apply(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"obsolete.txt"}, summary.FilesRemoved)

	exists, err := afero.Exists(w.fs, "obsolete.txt")
	require.NoError(t, err)
	assert.False(t, exists)

	meta, err := w.loadMetadata()
	require.NoError(t, err)
	_, tracked := meta.Files["obsolete.txt"]
	assert.False(t, tracked)
}

func TestApplyOpaqueLastLayerWins(t *testing.T) {
	w, _ := testWorkspace(t)
	ctx := context.Background()

	_, err := w.stage.Add(ctx, stage.AddEntry{
		Path:   "hooks/post-apply.sh",
		Stream: strings.NewReader("#!/bin/sh\necho global\n"),
		Layer:  model.GlobalLayer(),
	})
	require.NoError(t, err)
	_, err = w.stage.Add(ctx, stage.AddEntry{
		Path:   "hooks/post-apply.sh",
		Stream: strings.NewReader("#!/bin/sh\necho website\n"),
		Mode:   model.FileMode(0755),
		Layer:  model.ProjectLayer("website"),
	})
	require.NoError(t, err)
	commitAll(t, w, "hook script")

	_, err = w.Apply(ctx, false)
	require.NoError(t, err)

	// opaque content is never merged: the highest layer wins wholesale
	assert.Equal(t, "#!/bin/sh\necho website\n", string(readWorkspaceFile(t, w, "hooks/post-apply.sh")))

	fi, err := w.fs.Stat("hooks/post-apply.sh")
	require.NoError(t, err)
	assert.NotZero(t, fi.Mode()&0111)
}

func TestApplySingleLayerByteFaithful(t *testing.T) {
	w, _ := testWorkspace(t)
	ctx := context.Background()

	// comments and odd spacing survive when only one layer contributes
	content := "# deploy settings\ntimeout: 30   # seconds\n\nretries: 3\n"
	stageFile(t, w, model.GlobalLayer(), "deploy/settings.yaml", content)
	commitAll(t, w, "deploy settings")

	_, err := w.Apply(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, content, string(readWorkspaceFile(t, w, "deploy/settings.yaml")))
}

func TestApplyMalformedLayerFailsBeforeWriting(t *testing.T) {
	w, _ := testWorkspace(t)
	ctx := context.Background()

	stageFile(t, w, model.GlobalLayer(), "service/config.json", `{"timeout": 30}`)
	stageFile(t, w, model.ProjectLayer("website"), "service/config.json", `{not json`)
	commitAll(t, w, "one layer holds garbage")

	_, err := w.Apply(ctx, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrConfiguration))

	// nothing was written
	exists, err := afero.Exists(w.fs, "service/config.json")
	require.NoError(t, err)
	assert.False(t, exists)

	meta, err := w.loadMetadata()
	require.NoError(t, err)
	assert.Nil(t, meta)
}
