package cas

import (
	"bytes"
	"context"
	"io"
	"io/ioutil"
	"time"

	"github.com/docker/go-units"
	lru "github.com/hashicorp/golang-lru"
	"github.com/strataconf/strata/pkg/cas/status"
	"github.com/strataconf/strata/pkg/errors"
	"github.com/strataconf/strata/pkg/model"
	"github.com/strataconf/strata/pkg/storage"
	"github.com/strataconf/strata/pkg/storage/localfs"
	storagestatus "github.com/strataconf/strata/pkg/storage/status"
	"github.com/strataconf/strata/pkg/zlog"
	"go.uber.org/zap"
)

const (
	// MaxObjectSize bounds the size of a single object loaded into memory
	MaxObjectSize = 8 * units.MiB

	// DefaultCacheSize is the default number of objects kept in the read cache
	DefaultCacheSize = 1000

	// maxCachedObjectSize keeps oversized blobs out of the read cache
	maxCachedObjectSize = 1 * units.MiB

	// DefaultLockTimeout is how long a transaction waits for a reference lock
	DefaultLockTimeout = 10 * time.Second

	// DefaultLockPollInterval is the pause between attempts to take a held lock
	DefaultLockPollInterval = 100 * time.Millisecond

	// DefaultStaleLockAge is the age past which an abandoned lock is evicted
	DefaultStaleLockAge = 5 * time.Minute
)

// Store provides access to immutable configuration objects (blobs, trees,
// commits) addressed by their content key, and to the mutable reference
// namespace tracking the head commit of every layer.
type Store interface {
	PutBlob(ctx context.Context, data []byte) (Key, error)
	GetBlob(ctx context.Context, key Key) ([]byte, error)
	HasBlob(ctx context.Context, key Key) (bool, error)

	PutTree(ctx context.Context, tree *model.TreeDescriptor) (Key, error)
	GetTree(ctx context.Context, key Key) (*model.TreeDescriptor, error)

	PutCommit(ctx context.Context, commit *model.CommitDescriptor) (Key, error)
	GetCommit(ctx context.Context, key Key) (*model.CommitDescriptor, error)
	HasCommit(ctx context.Context, key Key) (bool, error)

	ResolveRef(ctx context.Context, layer model.LayerID) (Key, error)
	ListRefs(ctx context.Context) ([]model.LayerID, error)
	UpdateRefs(ctx context.Context, updates []RefUpdate) error
}

var _ Store = &defaultStore{}

func defaultsForStore() *defaultStore {
	return &defaultStore{
		backend:        localfs.New(nil),
		cacheSize:      DefaultCacheSize,
		lockTimeout:    DefaultLockTimeout,
		lockPoll:       DefaultLockPollInterval,
		staleLockAge:   DefaultStaleLockAge,
		withVerifyHash: true,
		l:              zlog.MustGetLogger(zlog.LogLevelInfo),
	}
}

// New creates a content-addressed object store over a storage backend
func New(opts ...Option) (Store, error) {
	s := defaultsForStore()
	for _, apply := range opts {
		apply(s)
	}

	var err error
	s.cache, err = lru.New(s.cacheSize)
	if err != nil {
		return nil, err
	}
	return s, nil
}

type defaultStore struct {
	backend        storage.Store
	cache          *lru.Cache
	cacheSize      int
	lockTimeout    time.Duration
	lockPoll       time.Duration
	staleLockAge   time.Duration
	withVerifyHash bool
	l              *zap.Logger
}

func (s *defaultStore) PutBlob(ctx context.Context, data []byte) (Key, error) {
	return s.putObject(ctx, data, model.GetPathToBlob)
}

func (s *defaultStore) GetBlob(ctx context.Context, key Key) ([]byte, error) {
	return s.getObject(ctx, key, model.GetPathToBlob)
}

func (s *defaultStore) HasBlob(ctx context.Context, key Key) (bool, error) {
	return s.backend.Has(ctx, model.GetPathToBlob(key.String()))
}

func (s *defaultStore) PutTree(ctx context.Context, tree *model.TreeDescriptor) (Key, error) {
	if err := tree.Validate(); err != nil {
		return Key{}, err
	}
	data, err := model.MarshalTree(tree)
	if err != nil {
		return Key{}, err
	}
	return s.putObject(ctx, data, model.GetPathToTree)
}

func (s *defaultStore) GetTree(ctx context.Context, key Key) (*model.TreeDescriptor, error) {
	data, err := s.getObject(ctx, key, model.GetPathToTree)
	if err != nil {
		return nil, err
	}
	tree, err := model.UnmarshalTree(data)
	if err != nil {
		return nil, status.ErrCorruptedObject.WrapWithLog(s.l, err, zap.Stringer("tree", key))
	}
	return tree, nil
}

func (s *defaultStore) PutCommit(ctx context.Context, commit *model.CommitDescriptor) (Key, error) {
	if err := commit.Validate(); err != nil {
		return Key{}, err
	}
	data, err := model.MarshalCommit(commit)
	if err != nil {
		return Key{}, err
	}
	return s.putObject(ctx, data, model.GetPathToCommit)
}

func (s *defaultStore) GetCommit(ctx context.Context, key Key) (*model.CommitDescriptor, error) {
	data, err := s.getObject(ctx, key, model.GetPathToCommit)
	if err != nil {
		return nil, err
	}
	commit, err := model.UnmarshalCommit(data)
	if err != nil {
		return nil, status.ErrCorruptedObject.WrapWithLog(s.l, err, zap.Stringer("commit", key))
	}
	return commit, nil
}

func (s *defaultStore) HasCommit(ctx context.Context, key Key) (bool, error) {
	return s.backend.Has(ctx, model.GetPathToCommit(key.String()))
}

// putObject writes content under its own hash. Writing the same bytes
// twice is a no-op: the first version is authoritative.
func (s *defaultStore) putObject(ctx context.Context, data []byte, pather func(string) string) (Key, error) {
	if len(data) > MaxObjectSize {
		return Key{}, status.ErrObjectTooLarge.WrapMessage("%s exceeds %s",
			units.HumanSize(float64(len(data))), units.HumanSize(float64(MaxObjectSize)))
	}
	key := HashBytes(data)
	pth := pather(key.String())

	found, err := s.backend.Has(ctx, pth)
	if err != nil {
		return Key{}, err
	}
	if !found {
		if err = s.backend.Put(ctx, pth, bytes.NewReader(data), storage.OverWrite); err != nil {
			return Key{}, err
		}
		s.l.Debug("wrote object", zap.Stringer("key", key), zap.Int("size", len(data)))
	}
	s.addToCache(pth, data)
	return key, nil
}

func (s *defaultStore) getObject(ctx context.Context, key Key, pather func(string) string) ([]byte, error) {
	pth := pather(key.String())
	if data, ok := s.cache.Get(pth); ok {
		return data.([]byte), nil
	}

	rdr, err := s.backend.Get(ctx, pth)
	if err != nil {
		if errors.Is(err, storagestatus.ErrNotExists) {
			return nil, status.ErrObjectNotFound.WrapMessage("key %v", key)
		}
		return nil, err
	}
	defer func() { _ = rdr.Close() }()

	data, err := ioutil.ReadAll(io.LimitReader(rdr, MaxObjectSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxObjectSize {
		return nil, status.ErrObjectTooLarge.WrapMessage("key %v", key)
	}

	if s.withVerifyHash {
		if computed := HashBytes(data); computed != key {
			return nil, status.ErrCorruptedObject.WrapWithLog(s.l, nil,
				zap.Stringer("key", key), zap.Stringer("computed", computed))
		}
	}
	s.addToCache(pth, data)
	return data, nil
}

func (s *defaultStore) addToCache(pth string, data []byte) {
	if len(data) > maxCachedObjectSize {
		return
	}
	_ = s.cache.Add(pth, data)
}
