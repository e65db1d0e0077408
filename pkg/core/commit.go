package core

import (
	"context"

	"github.com/strataconf/strata/pkg/audit"
	"github.com/strataconf/strata/pkg/cas"
	casstatus "github.com/strataconf/strata/pkg/cas/status"
	"github.com/strataconf/strata/pkg/core/status"
	"github.com/strataconf/strata/pkg/errors"
	"github.com/strataconf/strata/pkg/model"
	"github.com/strataconf/strata/pkg/stage"
	"go.uber.org/zap"
)

// Committer lands staged changes as per-layer commits in one atomic
// multi-reference transaction.
type Committer interface {
	Commit(ctx context.Context, message string) ([]LayerCommitSummary, error)
}

var _ Committer = &Workspace{}

// LayerCommitSummary reports one layer advanced by a commit
type LayerCommitSummary struct {
	Layer      model.LayerID
	Commit     string
	Parent     string
	Adds       int
	Modifies   int
	Deletes    int
	AuditToken string
	_          struct{}
}

// Commit builds one commit per layer touched by the staging index and
// advances all touched layer references together: either every layer
// head moves to its new commit or none does. On success the staging
// index is cleared and one audit record is emitted per layer.
func (w *Workspace) Commit(ctx context.Context, message string) ([]LayerCommitSummary, error) {
	pending, err := w.stage.Pending(ctx)
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return nil, status.ErrNothingToCommit
	}

	updates := make([]cas.RefUpdate, 0, len(pending))
	summaries := make([]LayerCommitSummary, 0, len(pending))
	for _, changes := range pending {
		summary, update, err := w.commitLayer(ctx, changes, message)
		if err != nil {
			return nil, err
		}
		if update == nil {
			continue
		}
		updates = append(updates, *update)
		summaries = append(summaries, summary)
	}
	if len(updates) == 0 {
		// everything staged reproduced the current heads exactly
		if err = w.stage.Clear(ctx); err != nil {
			w.l.Warn("failed to clear staging index", zap.Error(err))
		}
		return nil, status.ErrNothingToCommit.WrapMessage("staged entries match the current layer heads")
	}

	if err = w.objects.UpdateRefs(ctx, updates); err != nil {
		return nil, err
	}

	// the commit landed: a failed cleanup would only re-stage no-ops
	if err = w.stage.Clear(ctx); err != nil {
		w.l.Warn("failed to clear staging index after commit", zap.Error(err))
	}
	w.recordAudit(ctx, message, summaries)

	w.l.Info("committed layers", zap.Int("layers", len(summaries)), zap.String("message", message))
	return summaries, nil
}

// commitLayer builds the blobs, tree and commit object for one layer.
// It returns a nil update when the staged entries leave the layer's
// tree unchanged.
func (w *Workspace) commitLayer(ctx context.Context, changes stage.LayerChanges, message string) (LayerCommitSummary, *cas.RefUpdate, error) {
	summary := LayerCommitSummary{Layer: changes.Layer}

	head, baseTreeHash, baseTree, err := w.layerHeadTree(ctx, changes.Layer)
	if err != nil {
		return summary, nil, err
	}

	merged := make(map[string]model.TreeEntry, len(baseTree.Entries)+len(changes.Entries))
	for _, entry := range baseTree.Entries {
		merged[entry.Path] = entry
	}

	for _, pendingEntry := range changes.Entries {
		switch pendingEntry.Op {
		case stage.OpDelete:
			if _, ok := merged[pendingEntry.Path]; !ok {
				w.l.Warn("staged delete for a path the layer does not track",
					zap.String("path", pendingEntry.Path), zap.Stringer("layer", changes.Layer))
				continue
			}
			delete(merged, pendingEntry.Path)
			summary.Deletes++
		default:
			data, err := w.stage.GetBlob(ctx, pendingEntry.Hash)
			if err != nil {
				return summary, nil, err
			}
			key, err := w.objects.PutBlob(ctx, data)
			if err != nil {
				return summary, nil, err
			}
			if _, ok := merged[pendingEntry.Path]; ok {
				summary.Modifies++
			} else {
				summary.Adds++
			}
			merged[pendingEntry.Path] = model.TreeEntry{
				Path: pendingEntry.Path,
				Hash: key.String(),
				Size: pendingEntry.Size,
				Mode: pendingEntry.Mode,
			}
		}
	}

	entries := make([]model.TreeEntry, 0, len(merged))
	for _, entry := range merged {
		entries = append(entries, entry)
	}
	if head.IsZero() && len(entries) == 0 {
		w.l.Warn("staged entries produce an empty first commit, skipping layer",
			zap.Stringer("layer", changes.Layer))
		return summary, nil, nil
	}

	tree := model.NewTreeDescriptor(entries...)
	treeKey, err := w.objects.PutTree(ctx, tree)
	if err != nil {
		return summary, nil, err
	}
	if !head.IsZero() && treeKey.String() == baseTreeHash {
		w.l.Info("no changes for layer", zap.Stringer("layer", changes.Layer))
		return summary, nil, nil
	}

	opts := []model.CommitDescriptorOption{model.CommitMessage(message)}
	if !head.IsZero() {
		opts = append(opts, model.CommitParents(head.String()))
		summary.Parent = head.String()
	}
	if w.contributor != (model.Contributor{}) {
		opts = append(opts, model.CommitContributors(w.contributor))
	}
	commitKey, err := w.objects.PutCommit(ctx, model.NewCommitDescriptor(changes.Layer, treeKey.String(), opts...))
	if err != nil {
		return summary, nil, err
	}
	summary.Commit = commitKey.String()

	return summary, &cas.RefUpdate{Layer: changes.Layer, Old: head, New: commitKey}, nil
}

// layerHeadTree resolves a layer's head commit and tree. A layer with
// no reference yet yields a zero key and an empty tree.
func (w *Workspace) layerHeadTree(ctx context.Context, layer model.LayerID) (cas.Key, string, *model.TreeDescriptor, error) {
	head, err := w.objects.ResolveRef(ctx, layer)
	if err != nil {
		if errors.Is(err, casstatus.ErrRefNotFound) {
			return cas.Key{}, "", model.NewTreeDescriptor(), nil
		}
		return cas.Key{}, "", nil, err
	}
	commit, err := w.objects.GetCommit(ctx, head)
	if err != nil {
		return cas.Key{}, "", nil, err
	}
	treeKey, err := cas.KeyFromString(commit.Tree)
	if err != nil {
		return cas.Key{}, "", nil, err
	}
	tree, err := w.objects.GetTree(ctx, treeKey)
	if err != nil {
		return cas.Key{}, "", nil, err
	}
	return head, commit.Tree, tree, nil
}

func (w *Workspace) recordAudit(ctx context.Context, message string, summaries []LayerCommitSummary) {
	if w.trail == nil {
		w.l.Debug("no audit sink configured, skipping audit records")
		return
	}
	for i := range summaries {
		entry := audit.Entry{
			Layer:   summaries[i].Layer,
			Commit:  summaries[i].Commit,
			Parent:  summaries[i].Parent,
			Message: message,
		}
		if w.contributor != (model.Contributor{}) {
			entry.Contributors = []model.Contributor{w.contributor}
		}
		token, err := w.trail.Record(ctx, entry)
		if err != nil {
			// the commit already landed, a missing audit record must not undo it
			w.l.Warn("failed to record audit entry",
				zap.Stringer("layer", summaries[i].Layer), zap.Error(err))
			continue
		}
		summaries[i].AuditToken = token
	}
}
