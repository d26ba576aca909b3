package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sheetrag/internal/core/domain"
)

func TestSearchCmd_Use(t *testing.T) {
	assert.Equal(t, "search [upload-id] [query]", searchCmd.Use)
	assert.Equal(t, "Search an upload", searchCmd.Short)
}

func TestSearchCmd_RequiresTwoArgs(t *testing.T) {
	_, err := execute(t, "", "search", "u1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 2 arg(s)")
}

func TestSearchCmd_HasLimitFlag(t *testing.T) {
	flag := searchCmd.Flags().Lookup("limit")
	require.NotNil(t, flag, "limit flag should exist")
	assert.Equal(t, "k", flag.Shorthand)
	assert.Equal(t, "5", flag.DefValue)
}

func TestSearchCmd_Table(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "", "ingest", writeCSV(t), "--upload-id", "u1")
	require.NoError(t, err)

	out, err := execute(t, "", "search", "u1", "b", "-k", "1")

	require.NoError(t, err)
	assert.Contains(t, out, "[1] data.csv")
	assert.Contains(t, out, "b,2")
	assert.NotContains(t, out, "[2]")
}

func TestSearchCmd_JSON(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "", "ingest", writeCSV(t), "--upload-id", "u1")
	require.NoError(t, err)

	out, err := execute(t, "", "search", "u1", "b", "--json")
	require.NoError(t, err)

	var results []searchResultJSON
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 3)
	assert.Equal(t, "b,2", results[0].Text)
	assert.Equal(t, "data.csv", results[0].Metadata[domain.MetaSource])
}

func TestSearchCmd_UnknownUpload(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "", "search", "nope", "b")

	require.NoError(t, err)
	assert.Contains(t, out, "No results found.")
}

func TestSnippet(t *testing.T) {
	tests := []struct {
		name string
		text string
		n    int
		want string
	}{
		{name: "short", text: "a b", n: 10, want: "a b"},
		{name: "flattens whitespace", text: "a\n\n  b\tc", n: 10, want: "a b c"},
		{name: "truncates", text: "abcdef", n: 3, want: "abc..."},
		{name: "counts runes", text: "héllo wörld", n: 5, want: "héllo..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, snippet(tt.text, tt.n))
		})
	}
}
