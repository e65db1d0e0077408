// Package storage provides an interface to handle backend storage objects.
//
// Stores are simple K/V-style object backends. The reference implementation
// is a local file system store backed by afero; remote backends may be
// plugged in by implementing the Store interface.
package storage
