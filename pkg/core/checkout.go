package core

import (
	"context"
	"os"
	"path"

	"github.com/strataconf/strata/pkg/core/status"
	"github.com/strataconf/strata/pkg/model"
	"go.uber.org/zap"
)

// CheckoutLayer materializes the head tree of one layer into a
// directory for editing, defaulting to the layer's checkout path under
// the workspace bookkeeping directory. Returns the paths written.
func (w *Workspace) CheckoutLayer(ctx context.Context, layer model.LayerID, dest string) ([]string, error) {
	if err := layer.Validate(); err != nil {
		return nil, err
	}
	if dest == "" {
		dest = path.Join(model.WorkspaceDirName, model.GetCheckoutPathToLayer(layer))
	}

	head, _, tree, err := w.layerHeadTree(ctx, layer)
	if err != nil {
		return nil, err
	}
	if head.IsZero() {
		return nil, status.ErrNotFound.WrapMessage("layer %v has no commits", layer)
	}

	written := make([]string, 0, len(tree.Entries))
	for _, entry := range tree.Entries {
		data, err := w.readBlob(ctx, entry.Hash)
		if err != nil {
			return nil, err
		}
		target := path.Join(dest, entry.Path)
		if err = w.writeFileAtomic(target, data, os.FileMode(entry.Mode)); err != nil {
			return nil, err
		}
		written = append(written, target)
	}

	w.l.Info("checked out layer",
		zap.Stringer("layer", layer), zap.String("dest", dest), zap.Int("files", len(written)))
	return written, nil
}
