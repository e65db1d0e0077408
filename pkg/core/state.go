package core

import (
	"context"
	"os"
	"sort"

	"github.com/spf13/afero"
	"github.com/strataconf/strata/pkg/cas"
	casstatus "github.com/strataconf/strata/pkg/cas/status"
	"github.com/strataconf/strata/pkg/errors"
	"github.com/strataconf/strata/pkg/model"
)

// StatusReport details how the working directory compares to the
// provenance recorded by the last apply
type StatusReport struct {
	State         model.WorkspaceState
	ModifiedPaths []string
	MissingPaths  []string

	// StaleLayers are layers out of step with the last apply: recorded
	// layers that no longer resolve to a commit or left the active
	// context, and active layers with commits the last apply never saw
	StaleLayers []model.LayerID

	Metadata *model.WorkspaceMetadata
	_        struct{}
}

// Status classifies the workspace. Drift is detected lazily, by
// rehashing the tracked files at call time, never by watching the
// filesystem.
func (w *Workspace) Status(ctx context.Context) (model.WorkspaceState, *StatusReport, error) {
	pc, err := w.loadContext()
	if err != nil {
		return model.StateDetached, nil, err
	}

	meta, err := w.loadMetadata()
	if err != nil {
		return model.StateDetached, nil, err
	}
	if meta == nil {
		report := &StatusReport{State: model.StateClean}
		if pc.Mode != "" || pc.Scope != "" {
			// the context selects qualified layers but nothing was applied
			report.State = model.StateDetached
		}
		return report.State, report, nil
	}

	report := &StatusReport{Metadata: meta}

	report.StaleLayers, err = w.staleLayers(ctx, pc, meta)
	if err != nil {
		return model.StateDetached, nil, err
	}
	if len(report.StaleLayers) > 0 {
		report.State = model.StateDetached
		return report.State, report, nil
	}

	if err = w.scanTrackedFiles(meta, report); err != nil {
		return model.StateDetached, nil, err
	}
	if len(report.ModifiedPaths) > 0 || len(report.MissingPaths) > 0 {
		report.State = model.StateDirty
		return report.State, report, nil
	}

	report.State = model.StateClean
	return report.State, report, nil
}

// staleLayers returns the layers that drifted out from under the
// metadata. A recorded layer is stale when its reference or commit
// vanished, or when its qualifiers disagree with the active context. An
// active chain layer is stale when it holds commits the last apply
// never folded, which happens after a context switch or a sync.
func (w *Workspace) staleLayers(ctx context.Context, pc model.ProjectContext, meta *model.WorkspaceMetadata) ([]model.LayerID, error) {
	var stale []model.LayerID
	applied := make(map[model.LayerID]struct{}, len(meta.AppliedLayers))
	for _, layer := range meta.AppliedLayers {
		applied[layer] = struct{}{}
		if layer.Mode != "" && layer.Mode != pc.Mode ||
			layer.Scope != "" && layer.Scope != pc.Scope ||
			layer.Project != "" && layer.Project != pc.Project {
			stale = append(stale, layer)
			continue
		}
		head, err := w.objects.ResolveRef(ctx, layer)
		if err != nil {
			if errors.Is(err, casstatus.ErrRefNotFound) {
				stale = append(stale, layer)
				continue
			}
			return nil, err
		}
		ok, err := w.objects.HasCommit(ctx, head)
		if err != nil {
			return nil, err
		}
		if !ok {
			stale = append(stale, layer)
		}
	}

	chain, err := model.ResolveActiveChain(pc)
	if err != nil {
		return nil, err
	}
	for _, layer := range chain {
		if _, ok := applied[layer]; ok {
			continue
		}
		head, err := w.objects.ResolveRef(ctx, layer)
		if err != nil {
			if errors.Is(err, casstatus.ErrRefNotFound) {
				// a layer with no commits contributes nothing
				continue
			}
			return nil, err
		}
		ok, err := w.objects.HasCommit(ctx, head)
		if err != nil {
			return nil, err
		}
		if ok {
			stale = append(stale, layer)
		}
	}
	return stale, nil
}

// scanTrackedFiles rehashes every tracked file and files drift into the
// report
func (w *Workspace) scanTrackedFiles(meta *model.WorkspaceMetadata, report *StatusReport) error {
	paths := make([]string, 0, len(meta.Files))
	for pth := range meta.Files {
		paths = append(paths, pth)
	}
	sort.Strings(paths)

	for _, pth := range paths {
		data, err := afero.ReadFile(w.fs, pth)
		if err != nil {
			if os.IsNotExist(err) {
				report.MissingPaths = append(report.MissingPaths, pth)
				continue
			}
			return err
		}
		if cas.HashBytes(data).String() != meta.Files[pth] {
			report.ModifiedPaths = append(report.ModifiedPaths, pth)
		}
	}
	return nil
}
