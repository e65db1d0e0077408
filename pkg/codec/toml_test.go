package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strataconf/strata/pkg/merge"
)

func TestTOMLDecode(t *testing.T) {
	c, _ := ForFormat("toml")

	doc := []byte(`title = "strata"
retries = 3
ratio = 0.5
enabled = true

[editor]
theme = "dark"
width = 120

[[servers]]
id = 1
host = "alpha"

[[servers]]
id = 2
host = "beta"
`)
	value, err := c.Decode(doc)
	require.NoError(t, err)
	require.Equal(t, merge.TypeObject, value.Type())

	// keys come back in file order, not map order
	keys := make([]string, 0, value.Len())
	for _, field := range value.Fields() {
		keys = append(keys, field.Key)
	}
	assert.Equal(t, []string{"title", "retries", "ratio", "enabled", "editor", "servers"}, keys)

	retries, _ := value.Get("retries")
	assert.Equal(t, merge.TypeInteger, retries.Type())
	ratio, _ := value.Get("ratio")
	assert.Equal(t, merge.TypeFloat, ratio.Type())

	editor, _ := value.Get("editor")
	require.Equal(t, merge.TypeObject, editor.Type())
	theme, _ := editor.Get("theme")
	s, _ := theme.AsString()
	assert.Equal(t, "dark", s)

	servers, _ := value.Get("servers")
	require.Equal(t, merge.TypeArray, servers.Type())
	require.Equal(t, 2, servers.Len())
	id, _ := servers.Items()[1].Get("id")
	i, _ := id.AsInteger()
	assert.Equal(t, int64(2), i)

	_, err = c.Decode([]byte("= broken"))
	require.Error(t, err)
}

func TestTOMLEncode(t *testing.T) {
	c, _ := ForFormat("toml")

	value := merge.Object(
		merge.Field{Key: "title", Value: merge.String("strata")},
		merge.Field{Key: "editor", Value: merge.Object(
			merge.Field{Key: "theme", Value: merge.String("dark")},
			merge.Field{Key: "width", Value: merge.Integer(120)},
		)},
		merge.Field{Key: "tags", Value: merge.Array(merge.String("a"), merge.String("b"))},
	)

	b, err := c.Encode(value)
	require.NoError(t, err)
	decoded, err := c.Decode(b)
	require.NoError(t, err)
	require.True(t, value.Equal(decoded), "want %s, got %s", value, decoded)

	again, err := c.Encode(decoded)
	require.NoError(t, err)
	require.Equal(t, b, again, "encoding must be deterministic")
}

func TestTOMLEncodeArrayOfTables(t *testing.T) {
	c, _ := ForFormat("toml")

	value := merge.Object(
		merge.Field{Key: "servers", Value: merge.Array(
			merge.Object(merge.Field{Key: "id", Value: merge.Integer(1)}),
			merge.Object(merge.Field{Key: "id", Value: merge.Integer(2)}),
		)},
	)
	b, err := c.Encode(value)
	require.NoError(t, err)

	decoded, err := c.Decode(b)
	require.NoError(t, err)
	require.True(t, value.Equal(decoded), "want %s, got %s", value, decoded)
}

func TestTOMLEncodeRejections(t *testing.T) {
	c, _ := ForFormat("toml")

	_, err := c.Encode(merge.String("scalar document"))
	require.Error(t, err)

	_, err = c.Encode(merge.Object(
		merge.Field{Key: "legacy", Value: merge.Null()},
	))
	require.Error(t, err, "TOML has no null")

	_, err = c.Encode(merge.Object(
		merge.Field{Key: "mixed", Value: merge.Array(
			merge.Integer(1),
			merge.Object(merge.Field{Key: "id", Value: merge.Integer(2)}),
		)},
	))
	require.Error(t, err)
}
