package cas

import (
	"bytes"
	"context"
	"time"

	"github.com/segmentio/ksuid"
	"github.com/strataconf/strata/pkg/cas/status"
	"github.com/strataconf/strata/pkg/errors"
	"github.com/strataconf/strata/pkg/model"
	"github.com/strataconf/strata/pkg/storage"
	storagestatus "github.com/strataconf/strata/pkg/storage/status"
	"go.uber.org/zap"
	yaml "gopkg.in/yaml.v2"
)

// lockDescriptor is the payload written into a reference lock file.
// The owner token ties a lock to the transaction that took it.
type lockDescriptor struct {
	Owner     string    `yaml:"owner"`
	CreatedAt time.Time `yaml:"created_at"`
	_         struct{}
}

// refLock is a held lock on one layer reference
type refLock struct {
	layer model.LayerID
	pth   string
	owner string
}

func newLockToken() (string, error) {
	k, err := ksuid.NewRandom()
	if err != nil {
		return "", err
	}
	return k.String(), nil
}

// acquireLock takes the lock file guarding one layer reference. The lock
// is created exclusively: when another writer holds it, acquisition polls
// until the lock is released, goes stale, or the timeout elapses.
func (s *defaultStore) acquireLock(ctx context.Context, layer model.LayerID) (*refLock, error) {
	owner, err := newLockToken()
	if err != nil {
		return nil, err
	}
	payload, err := yaml.Marshal(lockDescriptor{Owner: owner, CreatedAt: time.Now().UTC()})
	if err != nil {
		return nil, err
	}

	pth := model.GetLockPathToLayer(layer)
	deadline := time.Now().Add(s.lockTimeout)
	for {
		err = s.backend.Put(ctx, pth, bytes.NewReader(payload), storage.IfNotPresent)
		if err == nil {
			s.l.Debug("acquired reference lock", zap.Stringer("layer", layer), zap.String("owner", owner))
			return &refLock{layer: layer, pth: pth, owner: owner}, nil
		}
		if !errors.Is(err, storagestatus.ErrExists) {
			return nil, err
		}

		if s.evictStaleLock(ctx, pth) {
			continue
		}
		if time.Now().After(deadline) {
			return nil, status.ErrLockTimeout.WrapMessage("layer %v after %v", layer, s.lockTimeout)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.lockPoll):
		}
	}
}

// evictStaleLock removes a lock left behind by a crashed writer. Best
// effort: failures are logged and the caller keeps polling.
func (s *defaultStore) evictStaleLock(ctx context.Context, pth string) bool {
	attr, err := s.backend.GetAttr(ctx, pth)
	if err != nil {
		// the holder released in the meantime: retry right away
		return errors.Is(err, storagestatus.ErrNotExists)
	}
	age := time.Since(attr.Updated)
	if age <= s.staleLockAge {
		return false
	}
	s.l.Warn("evicting stale reference lock", zap.String("path", pth), zap.Duration("age", age))
	if err = s.backend.Delete(ctx, pth); err != nil {
		s.l.Warn("failed to evict stale reference lock", zap.String("path", pth), zap.Error(err))
		return false
	}
	return true
}

func (s *defaultStore) releaseLock(ctx context.Context, lk *refLock) {
	if err := s.backend.Delete(ctx, lk.pth); err != nil {
		s.l.Warn("failed to release reference lock",
			zap.String("path", lk.pth), zap.String("owner", lk.owner), zap.Error(err))
	}
}
