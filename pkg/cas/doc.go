// Package cas provides a content-addressed store for configuration objects.
//
// All content is indexed by its Blake hash: a blob holds the raw bytes of
// one configuration file, a tree snapshots the files of a layer, a commit
// records a tree together with its ancestry. Objects are immutable: the
// same bytes always live under the same key and are never rewritten.
//
// Mutable state is confined to the reference namespace, where each layer
// points at its current head commit. References move only through
// UpdateRefs, a multi-reference transaction guarded by per-reference lock
// files: either every reference in the set moves, or none does.
package cas
