package storage

import (
	"bytes"
	"context"
	"io"
	"sync"
)

// ReadTee reads from a source and duplicates the output to another destination store
func ReadTee(ctx context.Context, sStore Store, source string, dStore Store, destination string) ([]byte, error) {
	reader, err := sStore.Get(ctx, source)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	object, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	err = dStore.Put(ctx, destination, bytes.NewReader(object), NoOverWrite)
	if err != nil {
		return nil, err
	}
	return object, err
}

// MultiStoreUnit is used to specify multiple operations, some of which are tolerated to fail
type MultiStoreUnit struct {
	// Store is the backend to be accessed
	Store Store

	// TolerateFailure to false breaks multi-store operations whenever an error is encountered.
	TolerateFailure bool
}

// MultiPut duplicates write operations to an array of stores, under the same name
func MultiPut(ctx context.Context, stores []MultiStoreUnit, name string, buffer []byte, exclusive bool) error {
	errC := make(chan error, len(stores))
	var wg sync.WaitGroup

	for _, w := range stores {
		wg.Add(1)
		go func(w MultiStoreUnit, buffer []byte) {
			defer wg.Done()

			err := w.Store.Put(ctx, name, bytes.NewReader(buffer), exclusive)
			if w.TolerateFailure {
				return
			}
			if err != nil {
				errC <- err
			}
		}(w, buffer)
	}
	wg.Wait()
	close(errC)

	for err := range errC {
		if err != nil {
			return err
		}
	}
	return nil
}
