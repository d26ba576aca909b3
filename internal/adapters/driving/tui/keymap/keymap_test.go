package keymap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultKeyMap(t *testing.T) {
	km := DefaultKeyMap()

	require.NotNil(t, km)
	assert.Contains(t, km.Send.Keys(), "enter")
	assert.Contains(t, km.Reset.Keys(), "ctrl+r")
	assert.Contains(t, km.Quit.Keys(), "esc")
	assert.Contains(t, km.Quit.Keys(), "ctrl+c")
}

func TestKeyMap_ShortHelp(t *testing.T) {
	km := DefaultKeyMap()

	help := km.ShortHelp()

	require.Len(t, help, 3)
	assert.Equal(t, "ask", help[0].Help().Desc)
}

func TestKeyMap_FullHelp(t *testing.T) {
	km := DefaultKeyMap()

	assert.Len(t, km.FullHelp(), 3)
}

func TestMatches(t *testing.T) {
	km := DefaultKeyMap()

	tests := []struct {
		key  string
		want bool
	}{
		{"ctrl+r", true},
		{"r", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Matches(tt.key, km.Reset), tt.key)
	}
}
