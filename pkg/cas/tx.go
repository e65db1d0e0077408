package cas

import (
	"context"
	"sort"
	"strings"

	"github.com/strataconf/strata/pkg/cas/status"
	"github.com/strataconf/strata/pkg/errors"
	"github.com/strataconf/strata/pkg/model"
	"github.com/strataconf/strata/pkg/storage"
	"go.uber.org/zap"
)

// RefUpdate describes one reference move within a transaction.
// Old is the head the reference is expected to hold right now, with the
// zero key standing for "no reference yet". New is the commit to record.
type RefUpdate struct {
	Layer model.LayerID
	Old   Key
	New   Key
	_     struct{}
}

// UpdateRefs moves a set of layer references in one atomic transaction.
//
// Every reference is locked first, in deterministic order, then every
// precondition is checked while all locks are held. Only when each
// reference still points at its expected head are the new heads written.
// Any lock timeout, precondition mismatch or write failure aborts the
// transaction with ErrTransactionFailed and leaves no partial update
// behind: refs written before a failure are restored to their prior head.
func (s *defaultStore) UpdateRefs(ctx context.Context, updates []RefUpdate) error {
	if err := validateRefUpdates(updates); err != nil {
		return err
	}

	// locking in reference path order keeps concurrent transactions deadlock free
	ordered := make([]RefUpdate, len(updates))
	copy(ordered, updates)
	sort.Slice(ordered, func(i, j int) bool {
		return model.GetRefPathToLayer(ordered[i].Layer) < model.GetRefPathToLayer(ordered[j].Layer)
	})

	locks := make([]*refLock, 0, len(ordered))
	defer func() {
		for i := len(locks) - 1; i >= 0; i-- {
			s.releaseLock(context.Background(), locks[i])
		}
	}()

	for _, update := range ordered {
		lk, err := s.acquireLock(ctx, update.Layer)
		if err != nil {
			return status.ErrTransactionFailed.WrapWithLog(s.l, err, zap.Stringer("layer", update.Layer))
		}
		locks = append(locks, lk)
	}

	// with all locks held, check every precondition before moving anything
	heads := make([]Key, len(ordered))
	for i, update := range ordered {
		head, err := s.ResolveRef(ctx, update.Layer)
		if err != nil && !errors.Is(err, status.ErrRefNotFound) {
			return status.ErrTransactionFailed.Wrap(err)
		}
		heads[i] = head
		if head != update.Old {
			return status.ErrTransactionFailed.WrapWithLog(s.l,
				status.ErrInvalidRefUpdate.WrapMessage("reference moved: expected %v, found %v", update.Old, head),
				zap.Stringer("layer", update.Layer))
		}
	}

	written := 0
	for i, update := range ordered {
		if err := s.writeRef(ctx, update.Layer, update.New); err != nil {
			s.rollbackRefs(ordered[:written], heads[:written])
			return status.ErrTransactionFailed.WrapWithLog(s.l, err, zap.Stringer("layer", update.Layer))
		}
		written = i + 1
	}

	s.l.Debug("updated references", zap.Int("count", len(ordered)))
	return nil
}

func validateRefUpdates(updates []RefUpdate) error {
	if len(updates) == 0 {
		return status.ErrInvalidRefUpdate.WrapMessage("empty transaction")
	}
	seen := make(map[string]struct{}, len(updates))
	for _, update := range updates {
		if err := update.Layer.Validate(); err != nil {
			return status.ErrInvalidRefUpdate.Wrap(err)
		}
		if update.New.IsZero() {
			return status.ErrInvalidRefUpdate.WrapMessage("layer %v has no new head", update.Layer)
		}
		id := update.Layer.String()
		if _, ok := seen[id]; ok {
			return status.ErrInvalidRefUpdate.WrapMessage("layer %v appears twice", update.Layer)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func (s *defaultStore) writeRef(ctx context.Context, layer model.LayerID, key Key) error {
	return s.backend.Put(ctx, model.GetRefPathToLayer(layer), strings.NewReader(key.String()), storage.OverWrite)
}

// rollbackRefs restores the prior heads of references already moved by a
// failed transaction. Best effort: the configuration they point at stays
// valid either way, so failures are only logged.
func (s *defaultStore) rollbackRefs(moved []RefUpdate, heads []Key) {
	ctx := context.Background()
	for i := len(moved) - 1; i >= 0; i-- {
		var err error
		if heads[i].IsZero() {
			err = s.backend.Delete(ctx, model.GetRefPathToLayer(moved[i].Layer))
		} else {
			err = s.writeRef(ctx, moved[i].Layer, heads[i])
		}
		if err != nil {
			s.l.Warn("failed to roll back reference",
				zap.Stringer("layer", moved[i].Layer), zap.Error(err))
		}
	}
}
