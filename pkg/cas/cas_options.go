package cas

import (
	"time"

	"github.com/strataconf/strata/pkg/storage"
	"go.uber.org/zap"
)

// Option to configure a content-addressed store
type Option func(*defaultStore)

// Backend specifies the backend store
func Backend(store storage.Store) Option {
	return func(s *defaultStore) {
		if store != nil {
			s.backend = store
		}
	}
}

// Logger sets a logger for this store
func Logger(l *zap.Logger) Option {
	return func(s *defaultStore) {
		if l != nil {
			s.l = l
		}
	}
}

// CacheSize sets the size of the object read cache in number of objects
func CacheSize(size int) Option {
	return func(s *defaultStore) {
		if size < 1 {
			size = DefaultCacheSize
		}
		s.cacheSize = size
	}
}

// VerifyHash enables hash verification on objects read back from the backend
func VerifyHash(enabled bool) Option {
	return func(s *defaultStore) {
		s.withVerifyHash = enabled
	}
}

// LockTimeout bounds the wait for a reference lock during a transaction
func LockTimeout(d time.Duration) Option {
	return func(s *defaultStore) {
		if d > 0 {
			s.lockTimeout = d
		}
	}
}

// LockPollInterval sets the pause between attempts to take a held lock
func LockPollInterval(d time.Duration) Option {
	return func(s *defaultStore) {
		if d > 0 {
			s.lockPoll = d
		}
	}
}

// StaleLockAge sets the age past which an abandoned reference lock is evicted
func StaleLockAge(d time.Duration) Option {
	return func(s *defaultStore) {
		if d > 0 {
			s.staleLockAge = d
		}
	}
}
