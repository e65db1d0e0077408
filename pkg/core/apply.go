package core

import (
	"context"
	"os"
	"sort"

	iradix "github.com/hashicorp/go-immutable-radix"
	"github.com/strataconf/strata/pkg/cas"
	"github.com/strataconf/strata/pkg/codec"
	"github.com/strataconf/strata/pkg/core/status"
	"github.com/strataconf/strata/pkg/merge"
	"github.com/strataconf/strata/pkg/model"
	"go.uber.org/zap"
)

// Applier folds the active layer chain into the working directory
type Applier interface {
	Apply(ctx context.Context, force bool) (ApplySummary, error)
}

var _ Applier = &Workspace{}

// ApplySummary reports the outcome of one apply
type ApplySummary struct {
	FilesWritten []string
	FilesRemoved []string
	LayersUsed   []model.LayerID
	_            struct{}
}

// contribution is one layer's version of a path
type contribution struct {
	layer model.LayerID
	entry model.TreeEntry
}

// fileResult is the merged content of one path, ready to be written
type fileResult struct {
	path string
	data []byte
	mode model.FileMode
}

// Apply materializes the active layer chain into the working directory.
// Every path present in any active layer is deep-merged across the
// chain in ascending precedence, or taken wholesale from the highest
// layer when its content is not structured. All results are computed
// before the first write, then every file lands through a rename, and
// the workspace metadata is rewritten last. A dirty workspace refuses
// to apply unless force is set.
func (w *Workspace) Apply(ctx context.Context, force bool) (ApplySummary, error) {
	var summary ApplySummary

	pc, err := w.loadContext()
	if err != nil {
		return summary, err
	}
	prior, err := w.loadMetadata()
	if err != nil {
		return summary, err
	}
	if !force {
		state, report, err := w.Status(ctx)
		if err != nil {
			return summary, err
		}
		if state == model.StateDirty {
			return summary, status.ErrDirtyWorkspace.WrapMessage(
				"%d modified and %d missing files, use force to overwrite",
				len(report.ModifiedPaths), len(report.MissingPaths))
		}
	}

	chain, err := model.ResolveActiveChain(pc)
	if err != nil {
		return summary, err
	}

	paths, layersUsed, err := w.indexChain(ctx, chain)
	if err != nil {
		return summary, err
	}

	// fold everything first so a malformed layer fails the apply before
	// anything is written
	results := make([]fileResult, 0, 16)
	var foldErr error
	paths.Root().Walk(func(k []byte, v interface{}) bool {
		pth := string(k)
		data, mode, err := w.foldContributions(ctx, pth, v.([]contribution))
		if err != nil {
			foldErr = err
			return true
		}
		results = append(results, fileResult{path: pth, data: data, mode: mode})
		return false
	})
	if foldErr != nil {
		return summary, foldErr
	}

	files := make(map[string]string, len(results))
	for _, res := range results {
		if err = w.writeFileAtomic(res.path, res.data, os.FileMode(res.mode)); err != nil {
			return summary, err
		}
		files[res.path] = cas.HashBytes(res.data).String()
		summary.FilesWritten = append(summary.FilesWritten, res.path)
	}
	summary.FilesRemoved = w.removeStaleFiles(prior, files)
	summary.LayersUsed = layersUsed

	meta := model.NewWorkspaceMetadata(layersUsed, files)
	if prior != nil && prior.SameContent(meta) {
		// applying an unchanged chain twice yields an identical record
		meta.Timestamp = prior.Timestamp
	}
	if err = w.saveMetadata(meta); err != nil {
		return summary, err
	}

	w.l.Info("applied configuration",
		zap.Int("files", len(summary.FilesWritten)),
		zap.Int("removed", len(summary.FilesRemoved)),
		zap.Int("layers", len(layersUsed)))
	return summary, nil
}

// indexChain loads the head tree of every resolvable layer in the chain
// and indexes contributions by path. The radix index keeps the path set
// sorted, so apply output and metadata are deterministic.
func (w *Workspace) indexChain(ctx context.Context, chain []model.LayerID) (*iradix.Tree, []model.LayerID, error) {
	txn := iradix.New().Txn()
	layersUsed := make([]model.LayerID, 0, len(chain))
	for _, layer := range chain {
		head, _, tree, err := w.layerHeadTree(ctx, layer)
		if err != nil {
			return nil, nil, err
		}
		if head.IsZero() {
			continue
		}
		layersUsed = append(layersUsed, layer)
		for _, entry := range tree.Entries {
			contribs := []contribution{{layer: layer, entry: entry}}
			if existing, ok := txn.Get([]byte(entry.Path)); ok {
				contribs = append(existing.([]contribution), contribs[0])
			}
			txn.Insert([]byte(entry.Path), contribs)
		}
	}
	return txn.Commit(), layersUsed, nil
}

// foldContributions merges the layered versions of one path. Structured
// content is decoded, deep-merged in ascending precedence and
// re-encoded in the same format. Everything else is opaque: the highest
// precedence layer wins wholesale, executable bit included.
func (w *Workspace) foldContributions(ctx context.Context, pth string, contribs []contribution) ([]byte, model.FileMode, error) {
	last := contribs[len(contribs)-1]

	c, structured := codec.ForPath(pth)
	if !structured || len(contribs) == 1 {
		data, err := w.readBlob(ctx, last.entry.Hash)
		if err != nil {
			return nil, 0, err
		}
		return data, last.entry.Mode, nil
	}

	values := make([]*merge.Value, 0, len(contribs))
	for _, contrib := range contribs {
		data, err := w.readBlob(ctx, contrib.entry.Hash)
		if err != nil {
			return nil, 0, err
		}
		value, err := c.Decode(data)
		if err != nil {
			return nil, 0, status.ErrConfiguration.WrapMessage(
				"layer %v holds malformed %s at %q: %v", contrib.layer, c.Name(), pth, err)
		}
		values = append(values, value)
	}

	out, err := c.Encode(merge.MergeAll(values...))
	if err != nil {
		return nil, 0, err
	}
	return out, last.entry.Mode, nil
}

func (w *Workspace) readBlob(ctx context.Context, hash string) ([]byte, error) {
	key, err := cas.KeyFromString(hash)
	if err != nil {
		return nil, err
	}
	return w.objects.GetBlob(ctx, key)
}

// removeStaleFiles drops files recorded by the previous apply that the
// new chain no longer produces. Cleanup is best effort.
func (w *Workspace) removeStaleFiles(prior *model.WorkspaceMetadata, files map[string]string) []string {
	if prior == nil {
		return nil
	}
	removed := make([]string, 0, len(prior.Files))
	for pth := range prior.Files {
		if _, ok := files[pth]; ok {
			continue
		}
		if err := w.fs.Remove(pth); err != nil {
			if !os.IsNotExist(err) {
				w.l.Warn("failed to remove stale file", zap.String("path", pth), zap.Error(err))
			}
			continue
		}
		removed = append(removed, pth)
	}
	sort.Strings(removed)
	return removed
}
