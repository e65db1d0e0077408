package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreeDescriptor(t *testing.T) {
	tree := NewTreeDescriptor(
		TreeEntry{Path: "shell/env.toml", Hash: "bb22", Size: 64, Mode: 0755},
		TreeEntry{Path: "editor/settings.yaml", Hash: "aa11", Size: 128, Mode: DefaultFileMode},
	)
	require.NoError(t, tree.Validate())
	// entries are sorted into canonical order
	require.Equal(t, "editor/settings.yaml", tree.Entries[0].Path)

	entry, ok := tree.Lookup("shell/env.toml")
	require.True(t, ok)
	assert.Equal(t, "bb22", entry.Hash)
	assert.True(t, entry.Mode.IsExecutable())

	_, ok = tree.Lookup("missing.json")
	require.False(t, ok)

	b, err := MarshalTree(tree)
	require.NoError(t, err)
	back, err := UnmarshalTree(b)
	require.NoError(t, err)
	require.Equal(t, tree, back)

	again, err := MarshalTree(back)
	require.NoError(t, err)
	require.Equal(t, b, again, "equal trees must marshal to equal bytes")
}

func TestTreeDescriptorValidate(t *testing.T) {
	tests := []struct {
		name    string
		tree    *TreeDescriptor
		wantErr bool
	}{
		{
			name: "success",
			tree: NewTreeDescriptor(TreeEntry{Path: "a.json", Hash: "aa", Mode: DefaultFileMode}),
		},
		{
			name:    "absolute path",
			tree:    &TreeDescriptor{Entries: []TreeEntry{{Path: "/etc/passwd", Hash: "aa", Mode: DefaultFileMode}}},
			wantErr: true,
		},
		{
			name:    "path escaping the layer",
			tree:    &TreeDescriptor{Entries: []TreeEntry{{Path: "../a.json", Hash: "aa", Mode: DefaultFileMode}}},
			wantErr: true,
		},
		{
			name:    "unclean path",
			tree:    &TreeDescriptor{Entries: []TreeEntry{{Path: "a/./b.json", Hash: "aa", Mode: DefaultFileMode}}},
			wantErr: true,
		},
		{
			name:    "missing hash",
			tree:    &TreeDescriptor{Entries: []TreeEntry{{Path: "a.json", Mode: DefaultFileMode}}},
			wantErr: true,
		},
		{
			name:    "missing file mode",
			tree:    &TreeDescriptor{Entries: []TreeEntry{{Path: "a.json", Hash: "aa"}}},
			wantErr: true,
		},
		{
			name: "duplicate path",
			tree: &TreeDescriptor{Entries: []TreeEntry{
				{Path: "a.json", Hash: "aa", Mode: DefaultFileMode},
				{Path: "a.json", Hash: "bb", Mode: DefaultFileMode},
			}},
			wantErr: true,
		},
	}
	for _, tts := range tests {
		tt := tts
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if err := tt.tree.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCommitDescriptor(t *testing.T) {
	stamp := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	commit := NewCommitDescriptor(
		ModeLayer("vim"),
		"treehash",
		CommitMessage("tune line numbers"),
		CommitParents("parenthash"),
		CommitContributors(Contributor{Name: "dev", Email: "dev@example.com"}),
		CommitTimestamp(stamp),
	)
	require.NoError(t, commit.Validate())
	require.Equal(t, CurrentCommitVersion, commit.Version)

	b, err := MarshalCommit(commit)
	require.NoError(t, err)
	back, err := UnmarshalCommit(b)
	require.NoError(t, err)
	require.Equal(t, commit, back)

	again, err := MarshalCommit(back)
	require.NoError(t, err)
	require.Equal(t, b, again, "equal commits must marshal to equal bytes")
}

func TestCommitDescriptorValidate(t *testing.T) {
	require.Error(t, (&CommitDescriptor{Layer: GlobalLayer(), Version: 1}).Validate())

	tooNew := NewCommitDescriptor(GlobalLayer(), "treehash")
	tooNew.Version = CurrentCommitVersion + 1
	require.Error(t, tooNew.Validate())

	emptyParent := NewCommitDescriptor(GlobalLayer(), "treehash", CommitParents(""))
	require.Error(t, emptyParent.Validate())

	badLayer := NewCommitDescriptor(LayerID{Kind: KindMode}, "treehash")
	require.Error(t, badLayer.Validate())
}

func TestContributorString(t *testing.T) {
	assert.Equal(t, "dev <dev@example.com>", (&Contributor{Name: "dev", Email: "dev@example.com"}).String())
	assert.Equal(t, "dev", (&Contributor{Name: "dev"}).String())
	assert.Equal(t, "dev@example.com", (&Contributor{Email: "dev@example.com"}).String())
}
