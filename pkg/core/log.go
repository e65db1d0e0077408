package core

import (
	"context"
	"time"

	"github.com/strataconf/strata/pkg/cas"
	"github.com/strataconf/strata/pkg/core/status"
	"github.com/strataconf/strata/pkg/model"
)

// CommitLogEntry is one revision in a layer's history
type CommitLogEntry struct {
	Commit       string
	Parents      []string
	Message      string
	Timestamp    time.Time
	Contributors []model.Contributor
	_            struct{}
}

// Log walks a layer's history from its head commit backwards along
// first parents, newest first. A max of zero returns the full history.
func (w *Workspace) Log(ctx context.Context, layer model.LayerID, max int) ([]CommitLogEntry, error) {
	if err := layer.Validate(); err != nil {
		return nil, err
	}
	head, _, _, err := w.layerHeadTree(ctx, layer)
	if err != nil {
		return nil, err
	}
	if head.IsZero() {
		return nil, status.ErrNotFound.WrapMessage("layer %v has no commits", layer)
	}

	var entries []CommitLogEntry
	for key := head; !key.IsZero(); {
		if max > 0 && len(entries) == max {
			break
		}
		commit, err := w.objects.GetCommit(ctx, key)
		if err != nil {
			return nil, err
		}
		entries = append(entries, CommitLogEntry{
			Commit:       key.String(),
			Parents:      commit.Parents,
			Message:      commit.Message,
			Timestamp:    commit.Timestamp,
			Contributors: commit.Contributors,
		})
		if len(commit.Parents) == 0 {
			break
		}
		if key, err = cas.KeyFromString(commit.Parents[0]); err != nil {
			return nil, err
		}
	}
	return entries, nil
}
