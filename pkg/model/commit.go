package model

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// CurrentCommitVersion is the schema version written into new commits.
const CurrentCommitVersion uint64 = 1

// Contributor identifies the author of a commit.
type Contributor struct {
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`
	_     struct{}
}

func (c *Contributor) String() string {
	if c.Email == "" {
		return c.Name
	}
	if c.Name == "" {
		return c.Email
	}
	return fmt.Sprintf("%s <%s>", c.Name, c.Email)
}

// TreeEntry records one file captured by a tree: its layer-relative
// path, the hash of the blob holding its content and the file mode to
// restore on checkout.
type TreeEntry struct {
	Path string   `json:"path" yaml:"path"`
	Hash string   `json:"hash" yaml:"hash"`
	Size uint64   `json:"size" yaml:"size"`
	Mode FileMode `json:"mode" yaml:"mode"`
	_    struct{}
}

// TreeDescriptor is the file tree snapshot a commit points at. Entries
// are kept sorted by path so equal trees marshal to equal bytes and
// hash to the same object.
type TreeDescriptor struct {
	Entries []TreeEntry `json:"entries" yaml:"entries"`
	_       struct{}
}

// NewTreeDescriptor builds a tree over the given entries, sorting them
// into canonical order.
func NewTreeDescriptor(entries ...TreeEntry) *TreeDescriptor {
	td := &TreeDescriptor{Entries: entries}
	sort.Slice(td.Entries, func(i, j int) bool {
		return td.Entries[i].Path < td.Entries[j].Path
	})
	return td
}

// Lookup finds the entry for a path.
func (t *TreeDescriptor) Lookup(filePath string) (TreeEntry, bool) {
	i := sort.Search(len(t.Entries), func(i int) bool {
		return t.Entries[i].Path >= filePath
	})
	if i < len(t.Entries) && t.Entries[i].Path == filePath {
		return t.Entries[i], true
	}
	return TreeEntry{}, false
}

// Validate checks entry paths and canonical ordering.
func (t *TreeDescriptor) Validate() error {
	for i, entry := range t.Entries {
		if err := ValidateLayerFilePath(entry.Path); err != nil {
			return err
		}
		if entry.Hash == "" {
			return ErrInvalidDescriptor.WrapMessage("tree entry %q has no hash", entry.Path)
		}
		if entry.Mode == 0 {
			return ErrInvalidDescriptor.WrapMessage("tree entry %q has no file mode", entry.Path)
		}
		if i > 0 && t.Entries[i-1].Path >= entry.Path {
			return ErrInvalidDescriptor.WrapMessage("tree entries out of order at %q", entry.Path)
		}
	}
	return nil
}

// CommitDescriptor is an immutable record of one layer revision: the
// tree it snapshots, the commits it descends from and who made it.
type CommitDescriptor struct {
	Tree         string        `json:"tree" yaml:"tree"`
	Parents      []string      `json:"parents,omitempty" yaml:"parents,omitempty"`
	Layer        LayerID       `json:"layer" yaml:"layer"`
	Message      string        `json:"message" yaml:"message"`
	Timestamp    time.Time     `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	Contributors []Contributor `json:"contributors" yaml:"contributors"`
	Version      uint64        `json:"version" yaml:"version"`
	_            struct{}
}

// CommitDescriptorOption selects optional fields on a new commit descriptor.
type CommitDescriptorOption func(descriptor *CommitDescriptor)

// CommitMessage sets the commit message.
func CommitMessage(message string) CommitDescriptorOption {
	return func(descriptor *CommitDescriptor) {
		descriptor.Message = message
	}
}

// CommitParents sets the parent commit hashes.
func CommitParents(parents ...string) CommitDescriptorOption {
	return func(descriptor *CommitDescriptor) {
		descriptor.Parents = parents
	}
}

// CommitContributors sets the commit authors.
func CommitContributors(contributors ...Contributor) CommitDescriptorOption {
	return func(descriptor *CommitDescriptor) {
		descriptor.Contributors = contributors
	}
}

// CommitTimestamp pins the commit time, overriding the default clock.
func CommitTimestamp(t time.Time) CommitDescriptorOption {
	return func(descriptor *CommitDescriptor) {
		descriptor.Timestamp = t
	}
}

// NewCommitDescriptor builds a commit descriptor for a layer revision
// snapshotting the tree with the given hash.
func NewCommitDescriptor(layer LayerID, tree string, opts ...CommitDescriptorOption) *CommitDescriptor {
	descriptor := &CommitDescriptor{
		Tree:      tree,
		Layer:     layer,
		Timestamp: GetCommitTimeStamp(),
		Version:   CurrentCommitVersion,
	}
	for _, apply := range opts {
		apply(descriptor)
	}
	return descriptor
}

// GetCommitTimeStamp returns the current UTC time, truncated to the
// second so a descriptor round-trips bit for bit through YAML.
func GetCommitTimeStamp() time.Time {
	t := time.Now()
	return t.UTC().Truncate(time.Second)
}

// Validate checks a commit descriptor for internal consistency.
func (c *CommitDescriptor) Validate() error {
	cause := ""
	switch {
	case c.Tree == "":
		cause = "tree hash is empty"
	case c.Version == 0 || c.Version > CurrentCommitVersion:
		cause = fmt.Sprintf("version %d is not supported", c.Version)
	}
	if cause != "" {
		return ErrInvalidDescriptor.WrapMessage("commit: %s", cause)
	}
	for _, parent := range c.Parents {
		if parent == "" {
			return ErrInvalidDescriptor.WrapMessage("commit has an empty parent hash")
		}
	}
	return c.Layer.Validate()
}

// UnmarshalCommit decodes a commit descriptor.
func UnmarshalCommit(b []byte) (*CommitDescriptor, error) {
	if b == nil {
		return nil, ErrInvalidDescriptor.WrapMessage("received nil entry to unmarshal")
	}
	var c CommitDescriptor
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// MarshalCommit encodes a commit descriptor to its canonical bytes.
func MarshalCommit(c *CommitDescriptor) ([]byte, error) {
	return yaml.Marshal(c)
}

// UnmarshalTree decodes a tree descriptor.
func UnmarshalTree(b []byte) (*TreeDescriptor, error) {
	if b == nil {
		return nil, ErrInvalidDescriptor.WrapMessage("received nil entry to unmarshal")
	}
	var t TreeDescriptor
	if err := yaml.Unmarshal(b, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// MarshalTree encodes a tree descriptor to its canonical bytes.
func MarshalTree(t *TreeDescriptor) ([]byte, error) {
	return yaml.Marshal(t)
}

// ValidateLayerFilePath checks that a path is usable as a layer-relative
// file path: slash separated, relative, clean and confined to the layer.
func ValidateLayerFilePath(filePath string) error {
	switch {
	case filePath == "":
		return ErrInvalidDescriptor.WrapMessage("file path is empty")
	case strings.HasPrefix(filePath, "/"):
		return ErrInvalidDescriptor.WrapMessage("file path %q is absolute", filePath)
	case strings.Contains(filePath, "\\"):
		return ErrInvalidDescriptor.WrapMessage("file path %q must use forward slashes", filePath)
	case path.Clean(filePath) != filePath:
		return ErrInvalidDescriptor.WrapMessage("file path %q is not clean", filePath)
	case filePath == ".." || strings.HasPrefix(filePath, "../"):
		return ErrInvalidDescriptor.WrapMessage("file path %q escapes the layer", filePath)
	}
	return nil
}
