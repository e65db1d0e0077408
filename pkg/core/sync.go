package core

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sort"
	"unicode/utf8"

	"github.com/strataconf/strata/pkg/cas"
	casstatus "github.com/strataconf/strata/pkg/cas/status"
	"github.com/strataconf/strata/pkg/codec"
	"github.com/strataconf/strata/pkg/core/status"
	"github.com/strataconf/strata/pkg/errors"
	"github.com/strataconf/strata/pkg/merge"
	"github.com/strataconf/strata/pkg/model"
	"github.com/strataconf/strata/pkg/storage"
	"go.uber.org/zap"
)

// Syncer reconciles a layer's local history with a remote object store
type Syncer interface {
	Sync(ctx context.Context, layer model.LayerID, remote storage.Store) (SyncSummary, error)
}

var _ Syncer = &Workspace{}

// SyncAction names the outcome of one sync
type SyncAction string

const (
	// SyncUpToDate means local and remote already agree
	SyncUpToDate SyncAction = "up-to-date"
	// SyncLocalAhead means the remote holds nothing the local store is missing
	SyncLocalAhead SyncAction = "local-ahead"
	// SyncFastForward means the local head advanced to the remote head
	SyncFastForward SyncAction = "fast-forward"
	// SyncMerged means diverged histories were joined by a merge commit
	SyncMerged SyncAction = "merged"
)

// SyncSummary reports what one sync did to a layer
type SyncSummary struct {
	Layer      model.LayerID
	Action     SyncAction
	Commit     string
	Merged     []string
	Unresolved []string
	Sidecars   []string
	_          struct{}
}

// Sync pulls a layer's history from a remote object store and
// reconciles it with the local head. A remote strictly ahead
// fast-forwards the local reference. Diverged histories are joined by a
// three way merge against their nearest common ancestor, landed as a
// commit carrying both heads as parents. Paths the merge cannot
// reconcile keep their local version and are reported unresolved, with
// a conflict sidecar written next to the target file for text content.
// No reference moves until the merged history is fully in place, so an
// interrupted sync can simply run again.
func (w *Workspace) Sync(ctx context.Context, layer model.LayerID, remote storage.Store) (SyncSummary, error) {
	summary := SyncSummary{Layer: layer, Action: SyncUpToDate}
	if err := layer.Validate(); err != nil {
		return summary, err
	}
	remoteObjects, err := cas.New(cas.Backend(remote), cas.Logger(w.l))
	if err != nil {
		return summary, err
	}

	localHead, err := w.resolveHead(ctx, w.objects, layer)
	if err != nil {
		return summary, err
	}
	remoteHead, err := w.resolveHead(ctx, remoteObjects, layer)
	if err != nil {
		return summary, status.ErrSyncFailed.WrapWithLog(w.l, err, zap.Stringer("layer", layer))
	}

	if remoteHead.IsZero() {
		if !localHead.IsZero() {
			summary.Action = SyncLocalAhead
		}
		return summary, nil
	}
	if remoteHead == localHead {
		return summary, nil
	}

	localAncestors, err := w.ancestorSet(ctx, localHead)
	if err != nil {
		return summary, err
	}
	if _, ok := localAncestors[remoteHead.String()]; ok {
		summary.Action = SyncLocalAhead
		return summary, nil
	}

	if err = w.fetchHistory(ctx, remoteObjects, remoteHead); err != nil {
		return summary, status.ErrSyncFailed.WrapWithLog(w.l, err, zap.Stringer("layer", layer))
	}

	remoteAncestors, err := w.ancestorSet(ctx, remoteHead)
	if err != nil {
		return summary, err
	}
	if _, ok := remoteAncestors[localHead.String()]; localHead.IsZero() || ok {
		update := cas.RefUpdate{Layer: layer, Old: localHead, New: remoteHead}
		if err = w.objects.UpdateRefs(ctx, []cas.RefUpdate{update}); err != nil {
			return summary, err
		}
		summary.Action = SyncFastForward
		summary.Commit = remoteHead.String()
		w.l.Info("fast-forwarded layer",
			zap.Stringer("layer", layer), zap.String("commit", summary.Commit))
		return summary, nil
	}

	base, err := w.findMergeBase(ctx, localAncestors, remoteHead)
	if err != nil {
		return summary, err
	}
	mergeKey, err := w.mergeHeads(ctx, layer, base, localHead, remoteHead, &summary)
	if err != nil {
		return summary, err
	}
	if err = w.objects.UpdateRefs(ctx, []cas.RefUpdate{{Layer: layer, Old: localHead, New: mergeKey}}); err != nil {
		return summary, err
	}
	summary.Action = SyncMerged
	summary.Commit = mergeKey.String()

	w.l.Info("merged remote history",
		zap.Stringer("layer", layer),
		zap.String("commit", summary.Commit),
		zap.Int("merged", len(summary.Merged)),
		zap.Int("unresolved", len(summary.Unresolved)))
	return summary, nil
}

// resolveHead resolves a layer reference, mapping a missing reference
// to the zero key
func (w *Workspace) resolveHead(ctx context.Context, store cas.Store, layer model.LayerID) (cas.Key, error) {
	head, err := store.ResolveRef(ctx, layer)
	if err != nil {
		if errors.Is(err, casstatus.ErrRefNotFound) {
			return cas.Key{}, nil
		}
		return cas.Key{}, err
	}
	return head, nil
}

// ancestorSet collects every commit reachable from a head, the head
// included, following all parents through merge commits
func (w *Workspace) ancestorSet(ctx context.Context, from cas.Key) (map[string]struct{}, error) {
	seen := make(map[string]struct{})
	queue := []cas.Key{from}
	for len(queue) > 0 {
		key := queue[0]
		queue = queue[1:]
		if key.IsZero() {
			continue
		}
		if _, ok := seen[key.String()]; ok {
			continue
		}
		seen[key.String()] = struct{}{}

		commit, err := w.objects.GetCommit(ctx, key)
		if err != nil {
			return nil, err
		}
		for _, parent := range commit.Parents {
			parentKey, err := cas.KeyFromString(parent)
			if err != nil {
				return nil, err
			}
			queue = append(queue, parentKey)
		}
	}
	return seen, nil
}

// fetchHistory copies every commit reachable from head out of the
// remote store, with its tree and blobs. A commit already held locally
// terminates its branch of the walk: objects land blobs first and
// commit last, so a present commit implies its closure is present.
func (w *Workspace) fetchHistory(ctx context.Context, remote cas.Store, head cas.Key) error {
	queue := []cas.Key{head}
	visited := make(map[string]struct{})
	fetched := 0
	for len(queue) > 0 {
		key := queue[0]
		queue = queue[1:]
		if key.IsZero() {
			continue
		}
		if _, ok := visited[key.String()]; ok {
			continue
		}
		visited[key.String()] = struct{}{}

		present, err := w.objects.HasCommit(ctx, key)
		if err != nil {
			return err
		}
		if present {
			continue
		}

		commit, err := remote.GetCommit(ctx, key)
		if err != nil {
			return err
		}
		treeKey, err := cas.KeyFromString(commit.Tree)
		if err != nil {
			return err
		}
		tree, err := remote.GetTree(ctx, treeKey)
		if err != nil {
			return err
		}
		for _, entry := range tree.Entries {
			blobKey, err := cas.KeyFromString(entry.Hash)
			if err != nil {
				return err
			}
			have, err := w.objects.HasBlob(ctx, blobKey)
			if err != nil {
				return err
			}
			if have {
				continue
			}
			data, err := remote.GetBlob(ctx, blobKey)
			if err != nil {
				return err
			}
			if _, err = w.objects.PutBlob(ctx, data); err != nil {
				return err
			}
		}
		if _, err = w.objects.PutTree(ctx, tree); err != nil {
			return err
		}
		if _, err = w.objects.PutCommit(ctx, commit); err != nil {
			return err
		}
		fetched++

		for _, parent := range commit.Parents {
			parentKey, err := cas.KeyFromString(parent)
			if err != nil {
				return err
			}
			queue = append(queue, parentKey)
		}
	}
	if fetched > 0 {
		w.l.Debug("fetched remote commits", zap.Int("commits", fetched))
	}
	return nil
}

// findMergeBase walks the remote history newest first and returns the
// first commit also reachable from the local head. Unrelated histories
// merge against an empty base.
func (w *Workspace) findMergeBase(ctx context.Context, localAncestors map[string]struct{}, remoteHead cas.Key) (cas.Key, error) {
	queue := []cas.Key{remoteHead}
	visited := make(map[string]struct{})
	for len(queue) > 0 {
		key := queue[0]
		queue = queue[1:]
		if key.IsZero() {
			continue
		}
		if _, ok := visited[key.String()]; ok {
			continue
		}
		visited[key.String()] = struct{}{}
		if _, ok := localAncestors[key.String()]; ok {
			return key, nil
		}

		commit, err := w.objects.GetCommit(ctx, key)
		if err != nil {
			return cas.Key{}, err
		}
		for _, parent := range commit.Parents {
			parentKey, err := cas.KeyFromString(parent)
			if err != nil {
				return cas.Key{}, err
			}
			queue = append(queue, parentKey)
		}
	}
	return cas.Key{}, nil
}

// treeAt loads the tree a commit points at. The zero key yields an
// empty tree.
func (w *Workspace) treeAt(ctx context.Context, commitKey cas.Key) (*model.TreeDescriptor, error) {
	if commitKey.IsZero() {
		return model.NewTreeDescriptor(), nil
	}
	commit, err := w.objects.GetCommit(ctx, commitKey)
	if err != nil {
		return nil, err
	}
	treeKey, err := cas.KeyFromString(commit.Tree)
	if err != nil {
		return nil, err
	}
	return w.objects.GetTree(ctx, treeKey)
}

// mergeHeads builds the merged tree of two diverged heads and lands it
// as a commit carrying both as parents
func (w *Workspace) mergeHeads(ctx context.Context, layer model.LayerID, base, localHead, remoteHead cas.Key, summary *SyncSummary) (cas.Key, error) {
	baseTree, err := w.treeAt(ctx, base)
	if err != nil {
		return cas.Key{}, err
	}
	localTree, err := w.treeAt(ctx, localHead)
	if err != nil {
		return cas.Key{}, err
	}
	remoteTree, err := w.treeAt(ctx, remoteHead)
	if err != nil {
		return cas.Key{}, err
	}

	pathSet := make(map[string]struct{}, len(localTree.Entries)+len(remoteTree.Entries))
	for _, entry := range baseTree.Entries {
		pathSet[entry.Path] = struct{}{}
	}
	for _, entry := range localTree.Entries {
		pathSet[entry.Path] = struct{}{}
	}
	for _, entry := range remoteTree.Entries {
		pathSet[entry.Path] = struct{}{}
	}
	paths := make([]string, 0, len(pathSet))
	for pth := range pathSet {
		paths = append(paths, pth)
	}
	sort.Strings(paths)

	entries := make([]model.TreeEntry, 0, len(paths))
	for _, pth := range paths {
		entry, keep, err := w.mergePath(ctx, layer, pth, baseTree, localTree, remoteTree, summary)
		if err != nil {
			return cas.Key{}, err
		}
		if keep {
			entries = append(entries, entry)
		}
	}

	treeKey, err := w.objects.PutTree(ctx, model.NewTreeDescriptor(entries...))
	if err != nil {
		return cas.Key{}, err
	}

	opts := []model.CommitDescriptorOption{
		model.CommitMessage(fmt.Sprintf("merge remote history of %v", layer)),
		model.CommitParents(localHead.String(), remoteHead.String()),
	}
	if w.contributor != (model.Contributor{}) {
		opts = append(opts, model.CommitContributors(w.contributor))
	}
	return w.objects.PutCommit(ctx, model.NewCommitDescriptor(layer, treeKey.String(), opts...))
}

// mergePath reconciles one path across base, local and remote trees.
// A path only one side touched takes that side. A path both sides
// touched is reconciled per format: structured content deep-merges with
// the local version as the overlay, text goes through a three way line
// merge, anything else keeps the local version and is reported
// unresolved.
func (w *Workspace) mergePath(ctx context.Context, layer model.LayerID, pth string, baseTree, localTree, remoteTree *model.TreeDescriptor, summary *SyncSummary) (model.TreeEntry, bool, error) {
	baseEntry, inBase := baseTree.Lookup(pth)
	localEntry, inLocal := localTree.Lookup(pth)
	remoteEntry, inRemote := remoteTree.Lookup(pth)

	switch {
	case !inLocal && !inRemote:
		return model.TreeEntry{}, false, nil
	case inLocal && inRemote && localEntry.Hash == remoteEntry.Hash:
		return localEntry, true, nil
	}

	localChanged := inLocal != inBase || (inLocal && localEntry.Hash != baseEntry.Hash)
	remoteChanged := inRemote != inBase || (inRemote && remoteEntry.Hash != baseEntry.Hash)

	switch {
	case !localChanged:
		if !inRemote {
			return model.TreeEntry{}, false, nil
		}
		return remoteEntry, true, nil
	case !remoteChanged:
		if !inLocal {
			return model.TreeEntry{}, false, nil
		}
		return localEntry, true, nil
	}

	if !inLocal || !inRemote {
		// an edit races a deletion, keep whatever the local side decided
		w.l.Warn("sync cannot reconcile an edit with a deletion, keeping the local side",
			zap.String("path", pth), zap.Stringer("layer", layer))
		summary.Unresolved = append(summary.Unresolved, pth)
		if !inLocal {
			return model.TreeEntry{}, false, nil
		}
		return localEntry, true, nil
	}

	localData, err := w.readBlob(ctx, localEntry.Hash)
	if err != nil {
		return model.TreeEntry{}, false, err
	}
	remoteData, err := w.readBlob(ctx, remoteEntry.Hash)
	if err != nil {
		return model.TreeEntry{}, false, err
	}
	var baseData []byte
	if inBase {
		if baseData, err = w.readBlob(ctx, baseEntry.Hash); err != nil {
			return model.TreeEntry{}, false, err
		}
	}

	if c, structured := codec.ForPath(pth); structured {
		if data, ok := w.mergeStructuredVersions(c, pth, localData, remoteData); ok {
			return w.storeMerged(ctx, pth, data, localEntry.Mode, summary)
		}
	}

	if isText(localData) && isText(remoteData) && (baseData == nil || isText(baseData)) {
		merged, conflicts := merge3Text(baseData, localData, remoteData,
			"local "+layer.String(), "remote "+layer.String())
		if conflicts == 0 {
			return w.storeMerged(ctx, pth, merged, localEntry.Mode, summary)
		}
		sidecar := model.GetConflictSidecarPath(pth)
		if err = w.writeFileAtomic(sidecar, merged, os.FileMode(model.DefaultFileMode)); err != nil {
			return model.TreeEntry{}, false, err
		}
		w.l.Warn("text merge conflicts, keeping the local version",
			zap.String("path", pth), zap.String("sidecar", sidecar), zap.Int("conflicts", conflicts))
		summary.Unresolved = append(summary.Unresolved, pth)
		summary.Sidecars = append(summary.Sidecars, sidecar)
		return localEntry, true, nil
	}

	w.l.Warn("binary content diverged, keeping the local version",
		zap.String("path", pth), zap.Stringer("layer", layer))
	summary.Unresolved = append(summary.Unresolved, pth)
	return localEntry, true, nil
}

// mergeStructuredVersions deep-merges two structured versions with the
// local side as the overlay. Content that fails to decode falls back to
// the text path.
func (w *Workspace) mergeStructuredVersions(c codec.Codec, pth string, localData, remoteData []byte) ([]byte, bool) {
	localValue, err := c.Decode(localData)
	if err != nil {
		w.l.Debug("local version is not structured content, trying a text merge",
			zap.String("path", pth), zap.String("format", c.Name()))
		return nil, false
	}
	remoteValue, err := c.Decode(remoteData)
	if err != nil {
		w.l.Debug("remote version is not structured content, trying a text merge",
			zap.String("path", pth), zap.String("format", c.Name()))
		return nil, false
	}
	out, err := c.Encode(merge.Merge(remoteValue, localValue))
	if err != nil {
		return nil, false
	}
	return out, true
}

func (w *Workspace) storeMerged(ctx context.Context, pth string, data []byte, mode model.FileMode, summary *SyncSummary) (model.TreeEntry, bool, error) {
	key, err := w.objects.PutBlob(ctx, data)
	if err != nil {
		return model.TreeEntry{}, false, err
	}
	summary.Merged = append(summary.Merged, pth)
	entry := model.TreeEntry{Path: pth, Hash: key.String(), Size: uint64(len(data)), Mode: mode}
	return entry, true, nil
}

// isText reports whether data looks like line oriented text
func isText(data []byte) bool {
	return utf8.Valid(data) && !bytes.Contains(data, []byte{0})
}
