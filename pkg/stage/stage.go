package stage

import (
	"bytes"
	"context"
	"io"
	"io/ioutil"
	"time"

	"github.com/strataconf/strata/pkg/cas"
	casstatus "github.com/strataconf/strata/pkg/cas/status"
	"github.com/strataconf/strata/pkg/errors"
	"github.com/strataconf/strata/pkg/model"
	"github.com/strataconf/strata/pkg/stage/status"
	"github.com/strataconf/strata/pkg/storage"
	storagestatus "github.com/strataconf/strata/pkg/storage/status"
	"github.com/strataconf/strata/pkg/zlog"
	"go.uber.org/zap"
)

// Stage buffers pending file changes until they are committed.
//
// Staged content lives as content-addressed blobs next to a single index
// descriptor. The blob is always written before the index references it,
// and the index is rewritten in one put, so an interrupted staging
// operation never leaves a half-persisted entry behind.
type Stage struct {
	backend storage.Store
	l       *zap.Logger
}

// Option to configure a stage
type Option func(*Stage)

// Logger sets a logger for this stage
func Logger(l *zap.Logger) Option {
	return func(s *Stage) {
		if l != nil {
			s.l = l
		}
	}
}

// New builds a stage over a storage backend
func New(backend storage.Store, opts ...Option) *Stage {
	s := &Stage{
		backend: backend,
		l:       zlog.MustGetLogger(zlog.LogLevelInfo),
	}
	for _, apply := range opts {
		apply(s)
	}
	return s
}

// AddEntry arguments for staging one file change
type AddEntry struct {
	Path   string
	Stream io.Reader
	Mtime  time.Time
	Mode   model.FileMode
	Layer  model.LayerID
	_      struct{}
}

// Add stages content for a path on a layer. Staging the same layer and
// path again overwrites the pending entry.
func (s *Stage) Add(ctx context.Context, add AddEntry) (Entry, error) {
	if err := model.ValidateLayerFilePath(add.Path); err != nil {
		return Entry{}, err
	}
	if err := add.Layer.Validate(); err != nil {
		return Entry{}, err
	}
	if add.Stream == nil {
		return Entry{}, status.ErrInvalidEntry.WrapMessage("no content stream for %q", add.Path)
	}

	data, err := ioutil.ReadAll(io.LimitReader(add.Stream, cas.MaxObjectSize+1))
	if err != nil {
		return Entry{}, err
	}
	if len(data) > cas.MaxObjectSize {
		return Entry{}, casstatus.ErrObjectTooLarge.WrapMessage("%q", add.Path)
	}

	hash := cas.HashBytes(data).String()
	if err = s.backend.Put(ctx, model.GetPathToStagedObject(hash), bytes.NewReader(data), storage.OverWrite); err != nil {
		return Entry{}, err
	}

	entry := Entry{
		Path:  add.Path,
		Layer: add.Layer,
		Hash:  hash,
		Size:  uint64(len(data)),
		Mtime: add.Mtime,
		Mode:  add.Mode,
		Op:    OpAdd,
	}
	if entry.Mode == 0 {
		entry.Mode = model.DefaultFileMode
	}
	if entry.Mtime.IsZero() {
		entry.Mtime = time.Now().UTC()
	}

	idx, err := s.loadIndex(ctx)
	if err != nil {
		return Entry{}, err
	}
	idx.upsert(entry)
	if err = s.saveIndex(ctx, idx); err != nil {
		return Entry{}, err
	}

	s.l.Debug("staged entry",
		zap.String("path", entry.Path), zap.Stringer("layer", entry.Layer), zap.String("hash", hash))
	return entry, nil
}

// MarkDelete stages the removal of a path from a layer
func (s *Stage) MarkDelete(ctx context.Context, pth string, layer model.LayerID) (Entry, error) {
	if err := model.ValidateLayerFilePath(pth); err != nil {
		return Entry{}, err
	}
	if err := layer.Validate(); err != nil {
		return Entry{}, err
	}

	entry := Entry{
		Path:  pth,
		Layer: layer,
		Mtime: time.Now().UTC(),
		Mode:  model.DefaultFileMode,
		Op:    OpDelete,
	}

	idx, err := s.loadIndex(ctx)
	if err != nil {
		return Entry{}, err
	}
	old, had := idx.remove(layer, pth)
	idx.upsert(entry)
	if err = s.saveIndex(ctx, idx); err != nil {
		return Entry{}, err
	}
	if had && old.Hash != "" && !idx.references(old.Hash) {
		s.dropStagedObject(ctx, old.Hash)
	}

	s.l.Debug("staged removal", zap.String("path", pth), zap.Stringer("layer", layer))
	return entry, nil
}

// Remove unstages a pending entry. Removing an entry that is not staged
// succeeds and reports false.
func (s *Stage) Remove(ctx context.Context, pth string, layer model.LayerID) (bool, error) {
	if err := layer.Validate(); err != nil {
		return false, err
	}

	idx, err := s.loadIndex(ctx)
	if err != nil {
		return false, err
	}
	old, had := idx.remove(layer, pth)
	if !had {
		return false, nil
	}
	if err = s.saveIndex(ctx, idx); err != nil {
		return false, err
	}
	if old.Hash != "" && !idx.references(old.Hash) {
		s.dropStagedObject(ctx, old.Hash)
	}
	return true, nil
}

// LayerChanges groups the pending entries of one target layer
type LayerChanges struct {
	Layer   model.LayerID
	Entries []Entry
	_       struct{}
}

// Pending returns all staged entries grouped by target layer, layers in
// ascending precedence order and paths sorted within each layer
func (s *Stage) Pending(ctx context.Context) ([]LayerChanges, error) {
	idx, err := s.loadIndex(ctx)
	if err != nil {
		return nil, err
	}
	idx.normalize()

	var res []LayerChanges
	for _, entry := range idx.Entries {
		if len(res) == 0 || res[len(res)-1].Layer != entry.Layer {
			res = append(res, LayerChanges{Layer: entry.Layer})
		}
		last := &res[len(res)-1]
		last.Entries = append(last.Entries, entry)
	}
	return res, nil
}

// GetBlob returns the staged content for a hash
func (s *Stage) GetBlob(ctx context.Context, hash string) ([]byte, error) {
	rdr, err := s.backend.Get(ctx, model.GetPathToStagedObject(hash))
	if err != nil {
		if errors.Is(err, storagestatus.ErrNotExists) {
			return nil, status.ErrNotStaged.WrapMessage("hash %s", hash)
		}
		return nil, err
	}
	defer func() { _ = rdr.Close() }()
	return ioutil.ReadAll(io.LimitReader(rdr, cas.MaxObjectSize))
}

// Clear empties the staging index and drops staged content. The index
// rewrite is the atomic step: content cleanup afterwards is best effort.
func (s *Stage) Clear(ctx context.Context) error {
	if err := s.saveIndex(ctx, newIndexDescriptor()); err != nil {
		return err
	}

	keys, _, err := s.backend.KeysPrefix(ctx, "", model.GetPathPrefixToStagedObjects(), "", 0)
	if err != nil {
		s.l.Warn("failed to list staged objects for cleanup", zap.Error(err))
		return nil
	}
	for _, key := range keys {
		if err := s.backend.Delete(ctx, key); err != nil {
			s.l.Warn("failed to drop staged object", zap.String("key", key), zap.Error(err))
		}
	}
	return nil
}

func (s *Stage) dropStagedObject(ctx context.Context, hash string) {
	if err := s.backend.Delete(ctx, model.GetPathToStagedObject(hash)); err != nil {
		s.l.Warn("failed to drop staged object", zap.String("hash", hash), zap.Error(err))
	}
}

func (s *Stage) loadIndex(ctx context.Context) (*indexDescriptor, error) {
	rdr, err := s.backend.Get(ctx, model.GetPathToStageIndex())
	if err != nil {
		if errors.Is(err, storagestatus.ErrNotExists) {
			return newIndexDescriptor(), nil
		}
		return nil, err
	}
	defer func() { _ = rdr.Close() }()

	b, err := ioutil.ReadAll(rdr)
	if err != nil {
		return nil, err
	}
	return unmarshalIndex(b)
}

func (s *Stage) saveIndex(ctx context.Context, idx *indexDescriptor) error {
	b, err := marshalIndex(idx)
	if err != nil {
		return err
	}
	return s.backend.Put(ctx, model.GetPathToStageIndex(), bytes.NewReader(b), storage.OverWrite)
}
