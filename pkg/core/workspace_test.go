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
	"github.com/strataconf/strata/pkg/storage"
	"github.com/strataconf/strata/pkg/storage/localfs"
	"github.com/strataconf/strata/pkg/zlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testWorkspaceOver builds a workspace over the given backend,
// initialized for the website project
func testWorkspaceOver(t testing.TB, backend storage.Store, opts ...Option) (*Workspace, cas.Store) {
	t.Helper()

	quiet := zlog.MustGetLogger(zlog.LogLevelNone)
	objects, err := cas.New(cas.Backend(backend), cas.Logger(quiet))
	require.NoError(t, err)

	all := append([]Option{
		Filesystem(afero.NewMemMapFs()),
		Logger(quiet),
		Contributor(model.Contributor{Name: "dev", Email: "dev@example.com"}),
	}, opts...)
	w := New(objects, stage.New(backend, stage.Logger(quiet)), all...)

	_, err = w.Init(context.Background(), "website")
	require.NoError(t, err)
	return w, objects
}

func testWorkspace(t testing.TB, opts ...Option) (*Workspace, cas.Store) {
	t.Helper()
	return testWorkspaceOver(t, localfs.New(afero.NewMemMapFs()), opts...)
}

func stageFile(t testing.TB, w *Workspace, layer model.LayerID, pth, content string) {
	t.Helper()
	_, err := w.stage.Add(context.Background(), stage.AddEntry{
		Path:   pth,
		Stream: strings.NewReader(content),
		Layer:  layer,
	})
	require.NoError(t, err)
}

func commitAll(t testing.TB, w *Workspace, message string) []LayerCommitSummary {
	t.Helper()
	summaries, err := w.Commit(context.Background(), message)
	require.NoError(t, err)
	return summaries
}

func readWorkspaceFile(t testing.TB, w *Workspace, pth string) []byte {
	t.Helper()
	b, err := afero.ReadFile(w.fs, pth)
	require.NoError(t, err)
	return b
}

func TestWorkspaceInit(t *testing.T) {
	backend := localfs.New(afero.NewMemMapFs())
	quiet := zlog.MustGetLogger(zlog.LogLevelNone)
	objects, err := cas.New(cas.Backend(backend), cas.Logger(quiet))
	require.NoError(t, err)
	w := New(objects, stage.New(backend, stage.Logger(quiet)),
		Filesystem(afero.NewMemMapFs()), Logger(quiet))
	ctx := context.Background()

	_, err = w.Context(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrConfiguration))

	pc, err := w.Init(ctx, "website")
	require.NoError(t, err)
	assert.Equal(t, "website", pc.Project)
	assert.Equal(t, model.ContextVersion, pc.Version)

	got, err := w.Context(ctx)
	require.NoError(t, err)
	assert.Equal(t, pc, got)

	// a second init must not clobber the recorded project
	_, err = w.Init(ctx, "other")
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrConfiguration))

	got, err = w.Context(ctx)
	require.NoError(t, err)
	assert.Equal(t, "website", got.Project)
}

func TestWorkspaceInitValidation(t *testing.T) {
	backend := localfs.New(afero.NewMemMapFs())
	quiet := zlog.MustGetLogger(zlog.LogLevelNone)
	objects, err := cas.New(cas.Backend(backend), cas.Logger(quiet))
	require.NoError(t, err)
	w := New(objects, stage.New(backend, stage.Logger(quiet)),
		Filesystem(afero.NewMemMapFs()), Logger(quiet))

	_, err = w.Init(context.Background(), "")
	require.Error(t, err)
}

func TestWorkspaceAtomicWrite(t *testing.T) {
	w, _ := testWorkspace(t)

	require.NoError(t, w.writeFileAtomic("nested/dir/file.txt", []byte("one"), 0644))
	assert.Equal(t, "one", string(readWorkspaceFile(t, w, "nested/dir/file.txt")))

	// overwrites land fully or not at all, never as a partial file
	require.NoError(t, w.writeFileAtomic("nested/dir/file.txt", []byte("two"), 0644))
	assert.Equal(t, "two", string(readWorkspaceFile(t, w, "nested/dir/file.txt")))

	// no temp files are left behind
	infos, err := afero.ReadDir(w.fs, "nested/dir")
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "file.txt", infos[0].Name())
}
