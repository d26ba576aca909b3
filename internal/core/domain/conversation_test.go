package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneTurns(t *testing.T) {
	turns := []Turn{{Role: RoleUser, Content: "hi"}}

	cloned := CloneTurns(turns)
	cloned[0].Content = "changed"

	assert.Equal(t, "hi", turns[0].Content)
}

func TestCloneTurns_Nil(t *testing.T) {
	cloned := CloneTurns(nil)

	assert.NotNil(t, cloned)
	assert.Empty(t, cloned)
}

// TestTurn_DecodeIgnoresUnknownFields tests that additive fields in stored
// records do not break decoding.
func TestTurn_DecodeIgnoresUnknownFields(t *testing.T) {
	raw := `[{"role":"user","content":"q","ts":"2024-01-01"},{"role":"assistant","content":"a","model":"x"}]`

	var turns []Turn
	require.NoError(t, json.Unmarshal([]byte(raw), &turns))

	assert.Equal(t, []Turn{
		{Role: RoleUser, Content: "q"},
		{Role: RoleAssistant, Content: "a"},
	}, turns)
}
