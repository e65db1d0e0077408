package core

import (
	"context"

	"github.com/strataconf/strata/pkg/model"
	"go.uber.org/zap"
)

// UseMode activates a tool mode, or clears the active mode when name is
// empty. Metadata recorded under another mode is deleted so the next
// status reports DETACHED instead of comparing against the wrong
// layers. Reports whether metadata was cleared.
func (w *Workspace) UseMode(ctx context.Context, name string) (model.ProjectContext, bool, error) {
	return w.useContextField(ctx, func(pc *model.ProjectContext) { pc.Mode = name })
}

// UseScope activates a scope, or clears the active scope when name is
// empty. Reports whether metadata was cleared.
func (w *Workspace) UseScope(ctx context.Context, name string) (model.ProjectContext, bool, error) {
	return w.useContextField(ctx, func(pc *model.ProjectContext) { pc.Scope = name })
}

func (w *Workspace) useContextField(ctx context.Context, set func(*model.ProjectContext)) (model.ProjectContext, bool, error) {
	old, err := w.loadContext()
	if err != nil {
		return model.ProjectContext{}, false, err
	}
	updated := old
	set(&updated)
	if err = model.ValidateContext(updated); err != nil {
		return model.ProjectContext{}, false, err
	}

	// clear first: a stale record must never survive a context switch
	cleared, err := w.ClearMetadataIfContextChanged(ctx, old, updated)
	if err != nil {
		return model.ProjectContext{}, false, err
	}
	if err = w.saveContext(updated); err != nil {
		return model.ProjectContext{}, false, err
	}

	w.l.Info("switched context",
		zap.String("mode", updated.Mode), zap.String("scope", updated.Scope), zap.Bool("metadata cleared", cleared))
	return updated, cleared, nil
}

// ClearMetadataIfContextChanged deletes the workspace metadata when its
// recorded layers reference a mode, scope or project other than the one
// being activated. It reports true only when a record was deleted, and
// is idempotent: without metadata or without a qualifier change it does
// nothing.
func (w *Workspace) ClearMetadataIfContextChanged(ctx context.Context, old, updated model.ProjectContext) (bool, error) {
	if old.Mode == updated.Mode && old.Scope == updated.Scope && old.Project == updated.Project {
		return false, nil
	}
	meta, err := w.loadMetadata()
	if err != nil {
		return false, err
	}
	if meta == nil {
		return false, nil
	}

	for _, layer := range meta.AppliedLayers {
		if layer.Mode != "" && layer.Mode != updated.Mode ||
			layer.Scope != "" && layer.Scope != updated.Scope ||
			layer.Project != "" && layer.Project != updated.Project {
			w.l.Debug("recorded layer no longer matches the context",
				zap.Stringer("layer", layer))
			return w.removeMetadata()
		}
	}
	return false, nil
}
