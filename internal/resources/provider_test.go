package resources

import (
	"encoding/json"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justmcp/justmcp/internal/registry"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	reg := registry.New()
	cfg := ConfigView{
		WatchDirectories: []string{"/repo"},
		ParserPreference: "auto",
		DefaultTimeout:   300 * time.Second,
		MultiDirectory:   false,
		JustBinary:       "just",
	}
	return New(NewCollector(reg, cfg))
}

func TestProvider_List_IncludesConfigAndGuides(t *testing.T) {
	p := newTestProvider(t)
	defs, next := p.List("")
	assert.Empty(t, next)

	uris := make([]string, len(defs))
	for i, d := range defs {
		uris[i] = d.URI
	}
	assert.Contains(t, uris, "file:///config.json")

	var sawGuide bool
	for _, u := range uris {
		if len(u) > len("file:///docs/guides/") && u[:len("file:///docs/guides/")] == "file:///docs/guides/" {
			sawGuide = true
		}
	}
	assert.True(t, sawGuide, "expected at least one embedded guide resource")
}

func TestProvider_Read_ConfigJSON(t *testing.T) {
	p := newTestProvider(t)
	content, err := p.Read("file:///config.json")
	require.NoError(t, err)
	assert.Equal(t, "application/json", content.MimeType)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(content.Text), &decoded))
	assert.Equal(t, "auto", decoded["parser_preference"])
}

func TestProvider_Read_Guide(t *testing.T) {
	p := newTestProvider(t)
	defs, _ := p.List("")

	var guideURI string
	for _, d := range defs {
		if d.MimeType == "text/markdown" {
			guideURI = d.URI
			break
		}
	}
	require.NotEmpty(t, guideURI, "expected at least one markdown guide")

	content, err := p.Read(guideURI)
	require.NoError(t, err)
	assert.Equal(t, "text/markdown", content.MimeType)
	assert.NotEmpty(t, content.Text)
}

func TestProvider_Read_UnknownURIFails(t *testing.T) {
	p := newTestProvider(t)
	_, err := p.Read("file:///docs/guides/does-not-exist")
	assert.Error(t, err)
}

func TestProvider_List_PaginationCursor(t *testing.T) {
	p := newTestProvider(t)
	all, _ := p.List("")
	require.NotEmpty(t, all)

	// A cursor at len(all) returns an empty final page and empty nextCursor.
	page, next := p.List(strconv.Itoa(len(all)))
	assert.Empty(t, next)
	assert.Empty(t, page)
}
