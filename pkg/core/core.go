package core

import (
	"context"
	"os"
	"path"

	"github.com/spf13/afero"
	"github.com/strataconf/strata/pkg/audit"
	"github.com/strataconf/strata/pkg/cas"
	"github.com/strataconf/strata/pkg/core/status"
	"github.com/strataconf/strata/pkg/model"
	"github.com/strataconf/strata/pkg/stage"
	"github.com/strataconf/strata/pkg/zlog"
	"go.uber.org/zap"
)

// Workspace ties together the object store holding layer history, the
// staging area and the working directory of one project. All file paths
// are relative to the root of the workspace filesystem.
type Workspace struct {
	objects     cas.Store
	stage       *stage.Stage
	trail       audit.Sink
	fs          afero.Fs
	contributor model.Contributor
	l           *zap.Logger
}

// Option to configure a workspace
type Option func(*Workspace)

// Trail sets the audit sink receiving one record per committed layer.
// Without a sink, commits are not audited.
func Trail(t audit.Sink) Option {
	return func(w *Workspace) {
		w.trail = t
	}
}

// Filesystem roots the workspace at a filesystem, typically a base path
// wrapper around the project directory
func Filesystem(fs afero.Fs) Option {
	return func(w *Workspace) {
		if fs != nil {
			w.fs = fs
		}
	}
}

// Contributor identifies the author recorded on commits
func Contributor(c model.Contributor) Option {
	return func(w *Workspace) {
		w.contributor = c
	}
}

// Logger sets a logger for this workspace
func Logger(l *zap.Logger) Option {
	return func(w *Workspace) {
		if l != nil {
			w.l = l
		}
	}
}

func defaultWorkspace() *Workspace {
	return &Workspace{
		fs: afero.NewOsFs(),
		l:  zlog.MustGetLogger(zlog.LogLevelInfo),
	}
}

// New builds a workspace over an object store and a staging area
func New(objects cas.Store, stg *stage.Stage, opts ...Option) *Workspace {
	w := defaultWorkspace()
	for _, apply := range opts {
		apply(w)
	}
	w.objects = objects
	w.stage = stg
	return w
}

// Init records the project this workspace belongs to. It is required
// once before any other operation and refuses to clobber an existing
// context.
func (w *Workspace) Init(ctx context.Context, project string) (model.ProjectContext, error) {
	pc := model.ProjectContext{Project: project, Version: model.ContextVersion}
	if err := model.ValidateContext(pc); err != nil {
		return model.ProjectContext{}, err
	}
	if existing, err := w.loadContext(); err == nil {
		return model.ProjectContext{}, status.ErrConfiguration.WrapMessage(
			"workspace already initialized for project %q", existing.Project)
	}
	if err := w.saveContext(pc); err != nil {
		return model.ProjectContext{}, err
	}
	w.l.Info("initialized workspace", zap.String("project", project))
	return pc, nil
}

// Context returns the active project context
func (w *Workspace) Context(ctx context.Context) (model.ProjectContext, error) {
	return w.loadContext()
}

func (w *Workspace) contextPath() string {
	return model.GetPathToContext(model.WorkspaceDirName)
}

func (w *Workspace) metadataPath() string {
	return model.GetPathToWorkspaceMetadata(model.WorkspaceDirName)
}

func (w *Workspace) loadContext() (model.ProjectContext, error) {
	b, err := afero.ReadFile(w.fs, w.contextPath())
	if err != nil {
		if os.IsNotExist(err) {
			return model.ProjectContext{}, status.ErrConfiguration.WrapMessage(
				"workspace is not initialized: run init first")
		}
		return model.ProjectContext{}, err
	}
	pc, err := model.UnmarshalContext(b)
	if err != nil {
		return model.ProjectContext{}, status.ErrConfiguration.Wrap(err)
	}
	return *pc, nil
}

func (w *Workspace) saveContext(pc model.ProjectContext) error {
	b, err := model.MarshalContext(&pc)
	if err != nil {
		return err
	}
	return w.writeFileAtomic(w.contextPath(), b, 0644)
}

// loadMetadata returns nil without error when no apply was recorded yet
func (w *Workspace) loadMetadata() (*model.WorkspaceMetadata, error) {
	b, err := afero.ReadFile(w.fs, w.metadataPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return model.UnmarshalWorkspaceMetadata(b)
}

func (w *Workspace) saveMetadata(meta *model.WorkspaceMetadata) error {
	b, err := model.MarshalWorkspaceMetadata(meta)
	if err != nil {
		return err
	}
	return w.writeFileAtomic(w.metadataPath(), b, 0644)
}

func (w *Workspace) removeMetadata() (bool, error) {
	if err := w.fs.Remove(w.metadataPath()); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// writeFileAtomic lands data at pth through a rename, so a reader never
// observes a half-written file and an interrupted write changes nothing.
func (w *Workspace) writeFileAtomic(pth string, data []byte, mode os.FileMode) error {
	dir := path.Dir(pth)
	if dir != "." {
		if err := w.fs.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	tmp, err := afero.TempFile(w.fs, dir, "."+path.Base(pth)+".tmp-")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = w.fs.Remove(tmpName) }

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err = tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err = w.fs.Chmod(tmpName, mode); err != nil {
		cleanup()
		return err
	}
	if err = w.fs.Rename(tmpName, pth); err != nil {
		cleanup()
		return err
	}
	return nil
}
