package stage

import (
	"sort"
	"time"

	"github.com/strataconf/strata/pkg/model"
	"github.com/strataconf/strata/pkg/stage/status"
	yaml "gopkg.in/yaml.v2"
)

// Op is the kind of change a staged entry records. The index persists
// add and delete; add is classified as modify by the commit pipeline
// when the path already exists in the layer's head tree.
type Op string

const (
	// OpAdd introduces or replaces content at a path
	OpAdd Op = "add"

	// OpModify replaces content at a path already tracked by the layer
	OpModify Op = "modify"

	// OpDelete removes a path from the layer
	OpDelete Op = "delete"
)

// IsValid tells whether this is a recognized operation
func (o Op) IsValid() bool {
	switch o {
	case OpAdd, OpModify, OpDelete:
		return true
	}
	return false
}

func (o Op) String() string {
	return string(o)
}

// Entry is one pending change, keyed by (layer, path)
type Entry struct {
	Path  string         `json:"path" yaml:"path"`
	Layer model.LayerID  `json:"layer" yaml:"layer"`
	Hash  string         `json:"hash,omitempty" yaml:"hash,omitempty"`
	Size  uint64         `json:"size,omitempty" yaml:"size,omitempty"`
	Mtime time.Time      `json:"mtime" yaml:"mtime"`
	Mode  model.FileMode `json:"mode" yaml:"mode"`
	Op    Op             `json:"op" yaml:"op"`
	_     struct{}
}

// CurrentIndexVersion is the schema version written into new indices.
const CurrentIndexVersion uint64 = 1

// indexDescriptor is the persisted staging index
type indexDescriptor struct {
	Entries []Entry `yaml:"entries"`
	Version uint64  `yaml:"version"`
	_       struct{}
}

func newIndexDescriptor() *indexDescriptor {
	return &indexDescriptor{Version: CurrentIndexVersion}
}

// upsert replaces the entry keyed like e, or appends it
func (idx *indexDescriptor) upsert(e Entry) {
	for i, known := range idx.Entries {
		if known.Layer == e.Layer && known.Path == e.Path {
			idx.Entries[i] = e
			return
		}
	}
	idx.Entries = append(idx.Entries, e)
}

// remove drops the entry keyed by (layer, path), reporting whether it existed
func (idx *indexDescriptor) remove(layer model.LayerID, pth string) (Entry, bool) {
	for i, known := range idx.Entries {
		if known.Layer == layer && known.Path == pth {
			idx.Entries = append(idx.Entries[:i], idx.Entries[i+1:]...)
			return known, true
		}
	}
	return Entry{}, false
}

// references tells whether any entry still points at a staged blob
func (idx *indexDescriptor) references(hash string) bool {
	for _, known := range idx.Entries {
		if known.Hash == hash {
			return true
		}
	}
	return false
}

// normalize sorts entries so the index marshals to deterministic bytes:
// layers ascending by precedence, paths ascending within a layer
func (idx *indexDescriptor) normalize() {
	sort.SliceStable(idx.Entries, func(i, j int) bool {
		ei, ej := idx.Entries[i], idx.Entries[j]
		if ei.Layer != ej.Layer {
			pi, pj := ei.Layer.Precedence(), ej.Layer.Precedence()
			if pi != pj {
				return pi < pj
			}
			return ei.Layer.String() < ej.Layer.String()
		}
		return ei.Path < ej.Path
	})
}

func unmarshalIndex(b []byte) (*indexDescriptor, error) {
	var idx indexDescriptor
	if err := yaml.Unmarshal(b, &idx); err != nil {
		return nil, status.ErrCorruptIndex.Wrap(err)
	}
	if idx.Version == 0 || idx.Version > CurrentIndexVersion {
		return nil, status.ErrCorruptIndex.WrapMessage("version %d is not supported", idx.Version)
	}
	for _, e := range idx.Entries {
		if !e.Op.IsValid() {
			return nil, status.ErrCorruptIndex.WrapMessage("entry %q has unknown operation %q", e.Path, e.Op)
		}
	}
	return &idx, nil
}

func marshalIndex(idx *indexDescriptor) ([]byte, error) {
	idx.normalize()
	return yaml.Marshal(idx)
}
