package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/insightq/internal/schema"
)

func catalogPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "catalog.db")
}

func TestDatasets_AddListRemove(t *testing.T) {
	db := catalogPath(t)

	out, _, err := execute(t, testOptions(), "--catalog", db, "datasets", "add", "sections", "sections", "--rows", "64612")
	require.NoError(t, err)
	assert.Equal(t, "added dataset sections (sections)\n", out)

	_, _, err = execute(t, testOptions(), "--catalog", db, "datasets", "add", "rooms", "rooms", "--rows", "364")
	require.NoError(t, err)

	out, _, err = execute(t, testOptions(), "--catalog", db, "datasets", "list")
	require.NoError(t, err)
	newGoldie(t).Assert(t, "datasets_list", []byte(out))

	out, _, err = execute(t, testOptions(), "--catalog", db, "datasets", "remove", "rooms")
	require.NoError(t, err)
	assert.Equal(t, "removed dataset rooms\n", out)

	out, _, err = execute(t, testOptions(), "--catalog", db, "--format", "json", "datasets", "list")
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   []schema.Dataset `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, []schema.Dataset{{ID: "sections", Kind: schema.KindSections, Rows: 64612}}, resp.Data)
}

func TestDatasets_ListEmpty(t *testing.T) {
	out, _, err := execute(t, testOptions(), "--catalog", catalogPath(t), "datasets", "list")
	require.NoError(t, err)
	assert.Equal(t, "no datasets registered\n", out)
}

func TestDatasets_AddRejects(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code string
	}{
		{"unknown kind", []string{"courses", "courses"}, ErrCodeInvalidArgs},
		{"underscore in id", []string{"my_sections", "sections"}, ErrCodeInvalidArgs},
		{"negative rows", []string{"sections", "sections", "--rows", "-5"}, ErrCodeInvalidArgs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--catalog", catalogPath(t), "datasets", "add"}, tt.args...)
			out, _, err := execute(t, testOptions(), args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, "Error ["+tt.code+"]")
		})
	}
}

func TestDatasets_AddDuplicate(t *testing.T) {
	db := catalogPath(t)

	_, _, err := execute(t, testOptions(), "--catalog", db, "datasets", "add", "rooms", "rooms")
	require.NoError(t, err)

	out, _, err := execute(t, testOptions(), "--catalog", db, "--format", "json", "datasets", "add", "rooms", "sections")
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeCatalog, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "already exists")
	assert.Equal(t, "trace-test", resp.TraceID)
}

func TestDatasets_RemoveMissing(t *testing.T) {
	out, _, err := execute(t, testOptions(), "--catalog", catalogPath(t), "datasets", "remove", "rooms")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
}

func TestDatasets_RequiresCatalog(t *testing.T) {
	for _, args := range [][]string{
		{"datasets", "list"},
		{"datasets", "add", "rooms", "rooms"},
		{"datasets", "remove", "rooms"},
	} {
		t.Run(args[1], func(t *testing.T) {
			out, _, err := execute(t, testOptions(), args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Equal(t, "Error [E002]: --catalog is required\n", out)
		})
	}
}

func TestDatasets_Kinds(t *testing.T) {
	out, _, err := execute(t, testOptions(), "datasets", "kinds")
	require.NoError(t, err)
	newGoldie(t).Assert(t, "datasets_kinds", []byte(out))
}

func TestDatasets_KindsJSON(t *testing.T) {
	out, _, err := execute(t, testOptions(), "--format", "json", "datasets", "kinds")
	require.NoError(t, err)

	var resp struct {
		Data []KindInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, schema.KindSections, resp.Data[0].Kind)
	assert.Contains(t, resp.Data[0].Numeric, "avg")
	assert.Contains(t, resp.Data[1].String, "furniture")
}
