package core

import (
	"context"
	"path"
	"testing"

	"github.com/strataconf/strata/pkg/core/status"
	"github.com/strataconf/strata/pkg/errors"
	"github.com/strataconf/strata/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutLayer(t *testing.T) {
	w, _ := testWorkspace(t)
	ctx := context.Background()
	layer := model.ProjectLayer("website")

	stageFile(t, w, layer, "editor/settings.json", `{"theme": "light"}`)
	stageFile(t, w, layer, "notes.txt", "plain notes\n")
	commitAll(t, w, "project config")

	// default destination lives under the workspace directory
	files, err := w.CheckoutLayer(ctx, layer, "")
	require.NoError(t, err)

	dest := path.Join(model.WorkspaceDirName, model.GetCheckoutPathToLayer(layer))
	require.Equal(t, []string{
		path.Join(dest, "editor/settings.json"),
		path.Join(dest, "notes.txt"),
	}, files)
	require.JSONEq(t, `{"theme": "light"}`, string(readWorkspaceFile(t, w, files[0])))
	assert.Equal(t, "plain notes\n", string(readWorkspaceFile(t, w, files[1])))

	// checkout writes raw layer content, never the merged chain
	files, err = w.CheckoutLayer(ctx, layer, "inspect")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "plain notes\n", string(readWorkspaceFile(t, w, "inspect/notes.txt")))
}

func TestCheckoutLayerWithoutCommits(t *testing.T) {
	w, _ := testWorkspace(t)

	_, err := w.CheckoutLayer(context.Background(), model.ModeLayer("vim"), "inspect")
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrNotFound))
}

func TestCheckoutLayerValidation(t *testing.T) {
	w, _ := testWorkspace(t)

	_, err := w.CheckoutLayer(context.Background(), model.LayerID{}, "inspect")
	require.Error(t, err)
}
