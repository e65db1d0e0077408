// Package audit keeps the append-only trail of committed layer changes.
//
// Every record is keyed by a K-sortable ksuid token, so listing the
// trail in key order replays history in the order the commits landed.
package audit

import (
	"bytes"
	"context"
	"io"
	"io/ioutil"
	"time"

	"github.com/strataconf/strata/pkg/audit/status"
	"github.com/strataconf/strata/pkg/model"
	"github.com/strataconf/strata/pkg/storage"
	"github.com/strataconf/strata/pkg/zlog"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"
)

const (
	maxEntriesPerList = 1000
	maxEntrySize      = 1 * 1024 * 1024
)

// Sink receives one audit record per committed layer and returns the
// token the record was filed under
type Sink interface {
	Record(ctx context.Context, entry Entry) (string, error)
}

// Trail is a store-backed audit sink
type Trail struct {
	store              storage.Store
	tokenGeneratorPath string
	l                  *zap.Logger
}

var _ Sink = &Trail{}

// Option to configure an audit trail
type Option func(t *Trail)

// TokenGeneratorPath overrides the key of the token generator object
func TokenGeneratorPath(pth string) Option {
	return func(t *Trail) {
		if pth != "" {
			t.tokenGeneratorPath = pth
		}
	}
}

// Logger sets a logger for this trail
func Logger(logger *zap.Logger) Option {
	return func(t *Trail) {
		if logger != nil {
			t.l = logger
		}
	}
}

func defaultTrail() *Trail {
	return &Trail{
		tokenGeneratorPath: model.GetPathToAuditTokenGenerator(),
		l:                  zlog.MustGetLogger(zlog.LogLevelInfo),
	}
}

// New builds an audit trail over a storage backend
func New(store storage.Store, options ...Option) *Trail {
	t := defaultTrail()
	for _, option := range options {
		option(t)
	}
	t.store = store
	// make sure the token generator object exists
	_ = store.Put(context.Background(), t.tokenGeneratorPath, bytes.NewReader(nil), storage.OverWrite)
	return t
}

// getToken yields tokens that sort in the order the store observed them.
// The generator object is touched first so the token derives from the
// store's update time rather than the local wall clock.
func (t *Trail) getToken(ctx context.Context) (string, error) {
	if err := t.store.Touch(ctx, t.tokenGeneratorPath); err != nil {
		return "", status.ErrTokenGenUpdate.Wrap(err)
	}

	attr, err := t.store.GetAttr(ctx, t.tokenGeneratorPath)
	if err != nil {
		return "", status.ErrTokenAttributes.WrapWithLog(t.l, err, zap.String("token generator", t.tokenGeneratorPath))
	}

	k, err := ksuid.NewRandomWithTime(attr.Updated)
	if err != nil {
		return "", status.ErrKSUID.Wrap(err)
	}

	t.l.Debug("generated token", zap.String("token", k.String()), zap.Time("updateTime", attr.Updated))
	return k.String(), nil
}

// Record appends one entry to the trail and returns its token
func (t *Trail) Record(ctx context.Context, entry Entry) (string, error) {
	if err := entry.Validate(); err != nil {
		return "", err
	}

	token, err := t.getToken(ctx)
	if err != nil {
		return "", status.ErrRecordEntry.WrapWithLog(t.l, err, zap.Stringer("layer", entry.Layer))
	}
	entry.Token = token
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	b, err := Marshal(&entry)
	if err != nil {
		return "", status.ErrRecordEntry.Wrap(err)
	}
	// tokens are unique, a collision means something rewrote history
	if err = t.store.Put(ctx, model.GetPathToAuditEntry(token), bytes.NewReader(b), storage.NoOverWrite); err != nil {
		return "", status.ErrRecordEntry.WrapWithLog(t.l, err, zap.String("token", token))
	}

	t.l.Debug("recorded audit entry",
		zap.String("token", token), zap.Stringer("layer", entry.Layer), zap.String("commit", entry.Commit))
	return token, nil
}

// List returns up to max records in token order, starting after
// fromToken. An empty fromToken starts from the beginning of the trail.
// Pass the token of the last entry returned to fetch the next page.
func (t *Trail) List(ctx context.Context, fromToken string, max int) ([]Entry, error) {
	if max <= 0 || max > maxEntriesPerList {
		max = maxEntriesPerList
	}
	pageToken := ""
	if fromToken != "" {
		if _, err := ksuid.Parse(fromToken); err != nil {
			return nil, status.ErrListEntries.Wrap(err)
		}
		pageToken = model.GetPathToAuditEntry(fromToken)
	}

	keys, _, err := t.store.KeysPrefix(ctx, pageToken, model.GetPathPrefixToAudit(), "", 0)
	if err != nil {
		return nil, status.ErrListEntries.WrapWithLog(t.l, err, zap.String("fromToken", fromToken))
	}

	entries := make([]Entry, 0, max)
	for _, key := range keys {
		token, ok := model.IsAuditEntryPath(key)
		if !ok {
			continue
		}
		entry, err := t.read(ctx, key)
		if err != nil {
			return nil, err
		}
		if entry.Token == "" {
			entry.Token = token
		}
		entries = append(entries, *entry)
		if len(entries) == max {
			break
		}
	}
	return entries, nil
}

func (t *Trail) read(ctx context.Context, key string) (*Entry, error) {
	rdr, err := t.store.Get(ctx, key)
	if err != nil {
		return nil, status.ErrListEntries.WrapWithLog(t.l, err, zap.String("key", key))
	}
	defer func() { _ = rdr.Close() }()

	b, err := ioutil.ReadAll(io.LimitReader(rdr, maxEntrySize))
	if err != nil {
		return nil, status.ErrListEntries.Wrap(err)
	}
	return Unmarshal(b)
}
