package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strataconf/strata/pkg/merge"
)

func TestJSONDecode(t *testing.T) {
	c, _ := ForFormat("json")

	doc := []byte(`{
  "zeta": "last in sort order, first in file",
  "editor": {"theme": "dark", "width": 120},
  "threshold": 0.75,
  "retries": 3,
  "enabled": true,
  "legacy": null,
  "tags": ["a", "b"]
}`)
	value, err := c.Decode(doc)
	require.NoError(t, err)
	require.Equal(t, merge.TypeObject, value.Type())

	// file order, not lexical order
	keys := make([]string, 0, value.Len())
	for _, field := range value.Fields() {
		keys = append(keys, field.Key)
	}
	assert.Equal(t, []string{"zeta", "editor", "threshold", "retries", "enabled", "legacy", "tags"}, keys)

	retries, _ := value.Get("retries")
	assert.Equal(t, merge.TypeInteger, retries.Type())
	threshold, _ := value.Get("threshold")
	assert.Equal(t, merge.TypeFloat, threshold.Type())
	legacy, _ := value.Get("legacy")
	assert.True(t, legacy.IsNull())
	tags, _ := value.Get("tags")
	assert.Equal(t, 2, tags.Len())
}

func TestJSONDecodeErrors(t *testing.T) {
	c, _ := ForFormat("json")

	for _, bad := range []string{
		``,
		`{`,
		`{"a": }`,
		`{"a": 1} trailing`,
		`[1, 2,]`,
	} {
		_, err := c.Decode([]byte(bad))
		require.Errorf(t, err, "input %q must not parse", bad)
	}
}

func TestJSONEncode(t *testing.T) {
	c, _ := ForFormat("json")

	value := merge.Object(
		merge.Field{Key: "theme", Value: merge.String("dark")},
		merge.Field{Key: "width", Value: merge.Integer(120)},
		merge.Field{Key: "plugins", Value: merge.Array(merge.String("lint"), merge.Null())},
	)
	b, err := c.Encode(value)
	require.NoError(t, err)
	assert.Equal(t, `{
  "theme": "dark",
  "width": 120,
  "plugins": [
    "lint",
    null
  ]
}
`, string(b))
}

func TestJSONRoundTrip(t *testing.T) {
	c, _ := ForFormat("json")

	original := merge.Object(
		merge.Field{Key: "b", Value: merge.Integer(2)},
		merge.Field{Key: "a", Value: merge.Object(
			merge.Field{Key: "nested", Value: merge.Float(0.5)},
			merge.Field{Key: "flag", Value: merge.Bool(false)},
		)},
		merge.Field{Key: "list", Value: merge.Array(merge.Integer(1), merge.String("two"))},
	)

	encoded, err := c.Encode(original)
	require.NoError(t, err)
	decoded, err := c.Decode(encoded)
	require.NoError(t, err)
	require.True(t, original.Equal(decoded), "want %s, got %s", original, decoded)

	// key order survives the round trip
	assert.Equal(t, "b", decoded.Fields()[0].Key)
	assert.Equal(t, "a", decoded.Fields()[1].Key)

	again, err := c.Encode(decoded)
	require.NoError(t, err)
	require.Equal(t, encoded, again)
}
