package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func obj(fields ...Field) *Value { return Object(fields...) }
func kv(key string, value *Value) Field {
	return Field{Key: key, Value: value}
}

func TestMergeReplacement(t *testing.T) {
	tests := []struct {
		name          string
		base, overlay *Value
		want          *Value
	}{
		{
			name:    "scalar over scalar",
			base:    Integer(80),
			overlay: Integer(8080),
			want:    Integer(8080),
		},
		{
			name:    "type change replaces",
			base:    String("dark"),
			overlay: Bool(true),
			want:    Bool(true),
		},
		{
			name:    "null overlay replaces outside objects",
			base:    Integer(80),
			overlay: Null(),
			want:    Null(),
		},
		{
			name:    "object replaces scalar",
			base:    String("compact"),
			overlay: obj(kv("style", String("full"))),
			want:    obj(kv("style", String("full"))),
		},
		{
			name:    "unkeyed arrays replace wholesale",
			base:    Array(Integer(1), Integer(2), Integer(3)),
			overlay: Array(Integer(9)),
			want:    Array(Integer(9)),
		},
		{
			name:    "empty overlay array clears the base",
			base:    Array(obj(kv("id", Integer(1)))),
			overlay: Array(),
			want:    Array(),
		},
	}
	for _, tts := range tests {
		tt := tts
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Merge(tt.base, tt.overlay)
			require.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestMergeObjects(t *testing.T) {
	base := obj(
		kv("editor", obj(
			kv("theme", String("dark")),
			kv("width", Integer(120)),
		)),
		kv("pager", String("less")),
	)
	overlay := obj(
		kv("editor", obj(
			kv("width", Integer(100)),
			kv("wrap", Bool(true)),
		)),
		kv("shell", String("zsh")),
	)

	got := Merge(base, overlay)
	want := obj(
		kv("editor", obj(
			kv("theme", String("dark")),
			kv("width", Integer(100)),
			kv("wrap", Bool(true)),
		)),
		kv("pager", String("less")),
		kv("shell", String("zsh")),
	)
	require.True(t, want.Equal(got), "want %s, got %s", want, got)

	// base keys first in base order, then overlay-only keys in overlay order
	keys := make([]string, 0, got.Len())
	for _, field := range got.Fields() {
		keys = append(keys, field.Key)
	}
	assert.Equal(t, []string{"editor", "pager", "shell"}, keys)
}

func TestMergeNullDeletesKey(t *testing.T) {
	base := obj(
		kv("theme", String("dark")),
		kv("width", Integer(120)),
		kv("wrap", Bool(true)),
	)
	overlay := obj(
		kv("width", Null()),
		kv("missing", Null()),
	)

	got := Merge(base, overlay)

	_, ok := got.Get("width")
	require.False(t, ok, "null overlay must delete the key")
	theme, ok := got.Get("theme")
	require.True(t, ok, "siblings of a deleted key survive")
	assert.Equal(t, String("dark"), theme)
	_, ok = got.Get("wrap")
	require.True(t, ok)
	_, ok = got.Get("missing")
	require.False(t, ok, "deleting an absent key is a no-op")
	assert.Equal(t, 2, got.Len())
}

func TestMergeKeyedArrays(t *testing.T) {
	base := obj(kv("servers", Array(
		obj(kv("id", Integer(1)), kv("host", String("alpha")), kv("port", Integer(80))),
		obj(kv("id", Integer(2)), kv("host", String("beta"))),
	)))
	overlay := obj(kv("servers", Array(
		obj(kv("id", Integer(2)), kv("port", Integer(9090))),
		obj(kv("id", Integer(3)), kv("host", String("gamma"))),
	)))

	got := Merge(base, overlay)
	want := obj(kv("servers", Array(
		obj(kv("id", Integer(1)), kv("host", String("alpha")), kv("port", Integer(80))),
		obj(kv("id", Integer(2)), kv("host", String("beta")), kv("port", Integer(9090))),
		obj(kv("id", Integer(3)), kv("host", String("gamma"))),
	)))
	require.True(t, want.Equal(got), "want %s, got %s", want, got)

	// matched elements keep their base position
	servers, _ := got.Get("servers")
	first, _ := servers.Items()[0].Get("id")
	assert.True(t, Integer(1).Equal(first))
}

func TestMergeArraysKeyedByName(t *testing.T) {
	base := Array(
		obj(kv("name", String("lint")), kv("enabled", Bool(true))),
		obj(kv("name", String("fmt")), kv("enabled", Bool(true))),
	)
	overlay := Array(
		obj(kv("name", String("lint")), kv("enabled", Bool(false))),
	)

	got := Merge(base, overlay)
	require.Equal(t, 2, got.Len())
	lintEnabled, _ := got.Items()[0].Get("enabled")
	assert.True(t, Bool(false).Equal(lintEnabled))
	fmtEnabled, _ := got.Items()[1].Get("enabled")
	assert.True(t, Bool(true).Equal(fmtEnabled))
}

func TestMergeArraysWithoutUniformKey(t *testing.T) {
	// one base element lacks the identifier, so the overlay replaces
	base := Array(
		obj(kv("id", Integer(1)), kv("host", String("alpha"))),
		obj(kv("host", String("beta"))),
	)
	overlay := Array(
		obj(kv("id", Integer(1)), kv("port", Integer(9090))),
	)

	got := Merge(base, overlay)
	require.True(t, overlay.Equal(got), "want %s, got %s", overlay, got)
}

func TestMergeAll(t *testing.T) {
	global := obj(kv("theme", String("light")), kv("pager", String("less")))
	mode := obj(kv("theme", String("dark")))
	local := obj(kv("pager", Null()), kv("shell", String("zsh")))

	got := MergeAll(global, mode, local)
	want := obj(
		kv("theme", String("dark")),
		kv("shell", String("zsh")),
	)
	require.True(t, want.Equal(got), "want %s, got %s", want, got)

	require.True(t, MergeAll().IsNull())
	require.True(t, global.Equal(MergeAll(nil, global, nil)))
}

func TestMergeAllMatchesPairwiseFold(t *testing.T) {
	// folding a chain is defined as merging pairwise, left to right
	a := obj(
		kv("editor", obj(kv("theme", String("light")), kv("width", Integer(120)))),
		kv("servers", Array(obj(kv("id", Integer(1)), kv("host", String("alpha"))))),
	)
	b := obj(
		kv("editor", obj(kv("theme", String("dark")), kv("wrap", Bool(true)))),
		kv("servers", Array(obj(kv("id", Integer(2)), kv("host", String("beta"))))),
	)
	c := obj(
		kv("editor", obj(kv("width", Null()))),
		kv("servers", Array(obj(kv("id", Integer(1)), kv("port", Integer(443))))),
		kv("shell", String("zsh")),
	)

	folded := MergeAll(a, b, c)
	pairwise := Merge(Merge(a, b), c)
	require.True(t, pairwise.Equal(folded), "fold %s, pairwise %s", folded, pairwise)

	editor, _ := folded.Get("editor")
	_, hasWidth := editor.Get("width")
	require.False(t, hasWidth, "the last layer deletes editor.width")
	servers, _ := folded.Get("servers")
	require.Equal(t, 2, servers.Len())
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	base := obj(kv("editor", obj(kv("theme", String("dark")))))
	overlay := obj(kv("editor", obj(kv("theme", Null()), kv("wrap", Bool(true)))))
	baseBefore := base.String()
	overlayBefore := overlay.String()

	_ = Merge(base, overlay)

	assert.Equal(t, baseBefore, base.String())
	assert.Equal(t, overlayBefore, overlay.String())
}
