package resources

import (
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/justmcp/justmcp/internal/errs"
)

const configURI = "file:///config.json"

// pageSize bounds how many resource definitions resources/list returns per
// page, per spec.md §4.F's pagination requirement.
const pageSize = 50

// Definition is a resources/list entry, independent of the mcp package's
// wire type to avoid an import cycle between mcp and resources.
type Definition struct {
	URI         string
	Name        string
	Description string
	MimeType    string
}

// Content is a resources/read result, independent of the mcp package's
// wire type for the same reason.
type Content struct {
	URI      string
	MimeType string
	Text     string
}

// Provider serves the live config.json resource and the embedded reference
// guides.
type Provider struct {
	collector *Collector
}

// New creates a Provider backed by collector.
func New(collector *Collector) *Provider {
	return &Provider{collector: collector}
}

// List returns one page of resource definitions starting after cursor. An
// empty cursor starts from the beginning. The returned nextCursor is empty
// once the final page has been returned.
func (p *Provider) List(cursor string) ([]Definition, string) {
	all := p.allDefinitions()

	start := 0
	if cursor != "" {
		if n, err := strconv.Atoi(cursor); err == nil && n >= 0 && n <= len(all) {
			start = n
		}
	}

	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}

	next := ""
	if end < len(all) {
		next = strconv.Itoa(end)
	}
	return all[start:end], next
}

// Read returns the content of a single resource by URI.
func (p *Provider) Read(uri string) (Content, error) {
	if uri == configURI {
		snapshot := p.collector.Snapshot()
		b, err := json.MarshalIndent(snapshot, "", "  ")
		if err != nil {
			return Content{}, &errs.ResourceError{Kind: errs.ResourceReadFailed, URI: uri, Err: err}
		}
		return Content{URI: uri, MimeType: "application/json", Text: string(b)}, nil
	}

	if name, ok := strings.CutPrefix(uri, "file:///docs/guides/"); ok {
		text, err := readGuide(name)
		if err != nil {
			return Content{}, &errs.ResourceError{Kind: errs.ResourceNotFound, URI: uri, Err: err}
		}
		return Content{URI: uri, MimeType: "text/markdown", Text: text}, nil
	}

	return Content{}, &errs.ResourceError{Kind: errs.ResourceNotFound, URI: uri}
}

func (p *Provider) allDefinitions() []Definition {
	defs := []Definition{
		{
			URI:         configURI,
			Name:        "justmcp configuration",
			Description: "Live snapshot of watch directories, parser preference, and registry state",
			MimeType:    "application/json",
		},
	}
	defs = append(defs, guideDefinitions()...)
	sort.Slice(defs, func(i, j int) bool { return defs[i].URI < defs[j].URI })
	return defs
}

func guideDefinitions() []Definition {
	entries, err := guideFS.ReadDir(guideDir)
	if err != nil {
		return nil
	}

	defs := make([]Definition, 0, len(entries))
	for _, e := range entries {
		name := strings.TrimSuffix(e.Name(), ".md")
		defs = append(defs, Definition{
			URI:         "file:///docs/guides/" + name,
			Name:        titleize(name),
			Description: fmt.Sprintf("Reference guide: %s", titleize(name)),
			MimeType:    "text/markdown",
		})
	}
	return defs
}

func readGuide(name string) (string, error) {
	b, err := guideFS.ReadFile(path.Join(guideDir, name+".md"))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func titleize(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
