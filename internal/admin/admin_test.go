package admin

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justmcp/justmcp/internal/errs"
	"github.com/justmcp/justmcp/internal/parser"
	"github.com/justmcp/justmcp/internal/registry"
)

type stubWatcher struct {
	dirs           []string
	reconciled     int
	reconcileErr   error
}

func (s *stubWatcher) ReconcileNow(context.Context) error {
	s.reconciled++
	return s.reconcileErr
}
func (s *stubWatcher) Dirs() []string { return s.dirs }

func newTools(t *testing.T, dirs []string) (*Tools, *stubWatcher, *registry.Registry) {
	t.Helper()
	reg := registry.New()
	pipeline := parser.New(parser.Auto, "just", time.Second)
	w := &stubWatcher{dirs: dirs}
	return New(reg, w, pipeline), w, reg
}

func TestTools_Handles(t *testing.T) {
	tools, _, _ := newTools(t, []string{t.TempDir()})
	assert.True(t, tools.Handles("list_tools"))
	assert.True(t, tools.Handles("parser_doctor"))
	assert.False(t, tools.Handles("just_build"))
}

func TestTools_Definitions_HasFourTools(t *testing.T) {
	tools, _, _ := newTools(t, []string{t.TempDir()})
	defs := tools.Definitions()
	require.Len(t, defs, 4)

	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.Name
	}
	assert.ElementsMatch(t, []string{"list_tools", "refresh_tools", "search_tools", "parser_doctor"}, names)
}

func TestTools_ListTools_DumpsRegistryAsJSON(t *testing.T) {
	tools, _, reg := newTools(t, []string{t.TempDir()})
	require.NoError(t, reg.Add(registry.Descriptor{ToolID: "just_build", SourcePath: "/repo/justfile"}))

	result, err := tools.Call(context.Background(), "list_tools", nil)
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var decoded []registry.Descriptor
	require.NoError(t, json.Unmarshal([]byte(result.Text), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "just_build", decoded[0].ToolID)
}

func TestTools_RefreshTools_CallsWatcher(t *testing.T) {
	tools, w, _ := newTools(t, []string{t.TempDir()})

	result, err := tools.Call(context.Background(), "refresh_tools", nil)
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, 1, w.reconciled)
}

func TestTools_SearchTools_FuzzyMatchesDescriptions(t *testing.T) {
	tools, _, reg := newTools(t, []string{t.TempDir()})
	require.NoError(t, reg.Add(registry.Descriptor{ToolID: "just_build", Description: "builds the project", SourcePath: "/repo/justfile"}))
	require.NoError(t, reg.Add(registry.Descriptor{ToolID: "just_deploy", Description: "deploys to prod", SourcePath: "/repo/justfile"}))

	args, _ := json.Marshal(map[string]string{"query": "buld"})
	result, err := tools.Call(context.Background(), "search_tools", args)
	require.NoError(t, err)

	var decoded []registry.Descriptor
	require.NoError(t, json.Unmarshal([]byte(result.Text), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "just_build", decoded[0].ToolID)
}

func TestTools_ParserDoctor_NoWatchDirectories(t *testing.T) {
	tools, _, _ := newTools(t, nil)
	_, err := tools.Call(context.Background(), "parser_doctor", nil)
	require.Error(t, err)
	assert.Equal(t, errs.ErrNoWatchDirectories.Error(), err.Error())
}

func TestTools_ParserDoctor_AllDirectoriesMissingJustfile(t *testing.T) {
	tools, _, _ := newTools(t, []string{t.TempDir()})
	_, err := tools.Call(context.Background(), "parser_doctor", nil)
	require.Error(t, err)
}

func TestTools_ParserDoctor_RecognizesCaseInsensitiveJustfileNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "recipes.Just"), []byte("build:\n\tgo build\n"), 0o644))
	tools, _, _ := newTools(t, []string{dir})

	result, err := tools.Call(context.Background(), "parser_doctor", nil)
	require.NoError(t, err)
	assert.Contains(t, result.Text, "1 with a recognizable justfile")
}

func TestTools_ParserDoctor_NonVerboseReport(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "justfile"), []byte("build:\n\tgo build\n"), 0o644))
	tools, _, _ := newTools(t, []string{dir})

	result, err := tools.Call(context.Background(), "parser_doctor", nil)
	require.NoError(t, err)
	assert.Contains(t, result.Text, "# Parser Diagnostic Report")
	assert.Contains(t, result.Text, "## Summary")
	assert.NotContains(t, result.Text, "## AST Parser Issues")
}

func TestTools_ParserDoctor_VerboseReport(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "justfile"), []byte("build:\n\tgo build\n"), 0o644))
	tools, _, _ := newTools(t, []string{dir})

	args, _ := json.Marshal(map[string]bool{"verbose": true})
	result, err := tools.Call(context.Background(), "parser_doctor", args)
	require.NoError(t, err)
	assert.Contains(t, result.Text, "## AST Parser Issues")
	assert.Contains(t, result.Text, "## CLI Parser Issues")
}

func TestTools_Call_UnknownToolErrors(t *testing.T) {
	tools, _, _ := newTools(t, []string{t.TempDir()})
	_, err := tools.Call(context.Background(), "not_a_real_tool", nil)
	assert.Error(t, err)
}
