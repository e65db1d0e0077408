package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForPath(t *testing.T) {
	tests := []struct {
		path   string
		format string
	}{
		{path: "editor/settings.json", format: "json"},
		{path: "tools.yaml", format: "yaml"},
		{path: "tools.yml", format: "yaml"},
		{path: "shell/env.toml", format: "toml"},
		{path: "legacy.ini", format: "ini"},
		{path: "legacy.cfg", format: "ini"},
		{path: "SETTINGS.JSON", format: "json"},
		{path: "notes.txt", format: ""},
		{path: "Makefile", format: ""},
		{path: ".gitignore", format: ""},
	}
	for _, tts := range tests {
		tt := tts
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			c, ok := ForPath(tt.path)
			if tt.format == "" {
				require.False(t, ok)
				assert.False(t, IsStructuredPath(tt.path))
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.format, c.Name())
			assert.True(t, IsStructuredPath(tt.path))
		})
	}
}

func TestForFormat(t *testing.T) {
	for _, name := range Formats() {
		c, ok := ForFormat(name)
		require.True(t, ok)
		require.Equal(t, name, c.Name())
	}
	_, ok := ForFormat("xml")
	require.False(t, ok)

	require.Equal(t, []string{"json", "yaml", "toml", "ini"}, Formats())
}
