package storage

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/docker/go-units"
)

// MaxObjectSizeInMemory bounds objects read wholesale into memory.
const MaxObjectSizeInMemory = 2 * units.GiB

// Settings for the Put operation
const (
	// OverWrite tolerates the overwriting of an existing object
	OverWrite = false

	// NoOverWrite makes a Put fail with ErrExists when the key is already present
	NoOverWrite = true

	// IfNotPresent is an alias for NoOverWrite
	IfNotPresent = true
)

// Attributes of an object in a store
type Attributes struct {
	Created time.Time
	Updated time.Time
	Size    int64
}

// Store implementations know how to write entries to a K/V store.
//
// Typically this is something file system-like. Examples are S3, local FS, NFS, ...
// Implementations of this interface are assumed to be fairly simple.
type Store interface {
	String() string
	Has(context.Context, string) (bool, error)
	Get(context.Context, string) (io.ReadCloser, error)
	GetAttr(context.Context, string) (Attributes, error)
	Touch(context.Context, string) error
	Put(ctx context.Context, key string, source io.Reader, exclusive bool) error
	Delete(context.Context, string) error
	Keys(context.Context) ([]string, error)
	KeysPrefix(ctx context.Context, pageToken, prefix, delimiter string, count int) ([]string, string, error)
	Clear(context.Context) error
}

const pipeBufferSize = 32 * units.KiB

var buffers = sync.Pool{
	New: func() interface{} {
		return make([]byte, pipeBufferSize)
	},
}

// PipeIO copies a reader to a writer using a pooled buffer
func PipeIO(writer io.Writer, reader io.Reader) (n int64, err error) {
	buf := buffers.Get().([]byte)
	defer buffers.Put(buf)
	return io.CopyBuffer(writer, reader, buf)
}
