// Package admin implements the diagnostic MCP tools layered on top of the
// registry, watcher, and parser pipeline: list_tools, refresh_tools,
// search_tools, and parser_doctor.
//
// Grounded on original_source/tests/admin_parser_doctor_test.rs for
// parser_doctor's report structure (a "Parser Diagnostic Report" with a
// "## Summary" section always present, and "## AST Parser Issues"/
// "## CLI Parser Issues" sections only in verbose mode) and on the
// corpus's fuzzy command-palette matcher (github.com/sahilm/fuzzy) for
// search_tools.
package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/justmcp/justmcp/internal/errs"
	"github.com/justmcp/justmcp/internal/parser"
	"github.com/justmcp/justmcp/internal/registry"
)

// ToolDef is the admin package's tool-definition shape, kept independent of
// the mcp package's wire type to avoid an import cycle.
type ToolDef struct {
	Name        string
	Description string
	InputSchema json.RawMessage
}

// CallResult is the admin package's tool-result shape, for the same reason.
type CallResult struct {
	Text    string
	IsError bool
}

// watcherReconciler is the slice of *watcher.Watcher the Tools needs,
// expressed as an interface so admin does not import watcher directly and
// can be exercised with a stub in tests.
type watcherReconciler interface {
	ReconcileNow(ctx context.Context) error
	Dirs() []string
}

// Tools implements the four admin MCP tools.
type Tools struct {
	reg      *registry.Registry
	watcher  watcherReconciler
	pipeline *parser.Pipeline
}

// New creates a Tools instance wired to reg, w, and pipeline.
func New(reg *registry.Registry, w watcherReconciler, pipeline *parser.Pipeline) *Tools {
	return &Tools{reg: reg, watcher: w, pipeline: pipeline}
}

var toolNames = []string{"list_tools", "refresh_tools", "search_tools", "parser_doctor"}

// Definitions returns the MCP tool definitions for all four admin tools.
func (t *Tools) Definitions() []ToolDef {
	return []ToolDef{
		{
			Name:        "list_tools",
			Description: "Dump every registered tool with its source path and source hash (recipe line numbers are not included)",
			InputSchema: json.RawMessage(`{"type":"object","properties":{}}`),
		},
		{
			Name:        "refresh_tools",
			Description: "Force an immediate reconciliation pass over all watched directories",
			InputSchema: json.RawMessage(`{"type":"object","properties":{}}`),
		},
		{
			Name:        "search_tools",
			Description: "Fuzzy-search registered tools by name or description",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"query":{"type":"string"}},"required":["query"]}`),
		},
		{
			Name:        "parser_doctor",
			Description: "Report parser layer health as per-layer attempt and success counts (no per-file diagnostics)",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"verbose":{"type":"boolean"}}}`),
		},
	}
}

// Handles reports whether name is one of this package's tools.
func (t *Tools) Handles(name string) bool {
	for _, n := range toolNames {
		if n == name {
			return true
		}
	}
	return false
}

// Call dispatches to the named admin tool.
func (t *Tools) Call(ctx context.Context, name string, arguments json.RawMessage) (*CallResult, error) {
	switch name {
	case "list_tools":
		return t.listTools()
	case "refresh_tools":
		return t.refreshTools(ctx)
	case "search_tools":
		return t.searchTools(arguments)
	case "parser_doctor":
		return t.parserDoctor(arguments)
	default:
		return nil, fmt.Errorf("unknown admin tool: %s", name)
	}
}

func (t *Tools) listTools() (*CallResult, error) {
	descriptors := t.reg.List()
	b, err := json.MarshalIndent(descriptors, "", "  ")
	if err != nil {
		return nil, err
	}
	return &CallResult{Text: string(b)}, nil
}

func (t *Tools) refreshTools(ctx context.Context) (*CallResult, error) {
	if err := t.watcher.ReconcileNow(ctx); err != nil {
		return &CallResult{Text: err.Error(), IsError: true}, nil
	}
	return &CallResult{Text: fmt.Sprintf("reconciled; registry now at revision %d with %d tools", t.reg.Revision(), len(t.reg.List()))}, nil
}

type searchArgs struct {
	Query string `json:"query"`
}

func (t *Tools) searchTools(arguments json.RawMessage) (*CallResult, error) {
	var args searchArgs
	if err := json.Unmarshal(arguments, &args); err != nil {
		return nil, err
	}

	descriptors := t.reg.List()
	haystack := make([]string, len(descriptors))
	for i, d := range descriptors {
		haystack[i] = d.ToolID + " " + d.Description
	}

	matches := fuzzy.Find(args.Query, haystack)
	results := make([]registry.Descriptor, 0, len(matches))
	for _, m := range matches {
		results = append(results, descriptors[m.Index])
	}

	b, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return nil, err
	}
	return &CallResult{Text: string(b)}, nil
}

type doctorArgs struct {
	Verbose bool `json:"verbose"`
}

// parserDoctor builds the diagnostic report per original_source's
// admin_parser_doctor_test.rs: a non-verbose report always has a
// "## Summary" section; a verbose report additionally has "## AST Parser
// Issues" and "## CLI Parser Issues" sections.
func (t *Tools) parserDoctor(arguments json.RawMessage) (*CallResult, error) {
	var args doctorArgs
	if len(arguments) > 0 {
		if err := json.Unmarshal(arguments, &args); err != nil {
			return nil, err
		}
	}

	dirs := t.watcher.Dirs()
	if len(dirs) == 0 {
		return nil, errs.ErrNoWatchDirectories
	}

	var missing []string
	for _, dir := range dirs {
		if !hasJustfile(dir) {
			missing = append(missing, dir)
		}
	}
	if len(missing) == len(dirs) {
		return nil, errs.NoJustfileError(missing[0])
	}

	snap := t.pipeline.Metrics.Snapshot()

	var b strings.Builder
	b.WriteString("# Parser Diagnostic Report\n\n")
	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "Expected: %d watched directories, %d with a recognizable justfile\n", len(dirs), len(dirs)-len(missing))
	fmt.Fprintf(&b, "AST parser: %d attempts, %d successes\n", snap.ASTAttempts, snap.ASTSuccesses)
	fmt.Fprintf(&b, "CLI parser: %d attempts, %d successes\n", snap.CLIAttempts, snap.CLISuccesses)
	fmt.Fprintf(&b, "Regex parser: %d attempts, %d successes\n", snap.RegexAttempts, snap.RegexSuccesses)
	fmt.Fprintf(&b, "Minimal fallback: %d attempts, %d successes\n", snap.MinimalAttempts, snap.MinimalSuccesses)

	if args.Verbose {
		b.WriteString("\n## AST Parser Issues\n\n")
		if snap.ASTAttempts > snap.ASTSuccesses {
			fmt.Fprintf(&b, "%d of %d attempts fell through to a lower layer\n", snap.ASTAttempts-snap.ASTSuccesses, snap.ASTAttempts)
		} else {
			b.WriteString("none observed\n")
		}

		b.WriteString("\n## CLI Parser Issues\n\n")
		if snap.CLIAttempts > snap.CLISuccesses {
			fmt.Fprintf(&b, "%d of %d attempts fell through to a lower layer\n", snap.CLIAttempts-snap.CLISuccesses, snap.CLIAttempts)
		} else {
			b.WriteString("none observed\n")
		}

		if len(missing) > 0 {
			b.WriteString("\n## Missing Justfiles\n\n")
			for _, dir := range missing {
				fmt.Fprintf(&b, "- %s\n", dir)
			}
		}
	}

	return &CallResult{Text: b.String()}, nil
}

// isJustfileName reports whether name matches one of the recognized
// justfile conventions, case-insensitively: `justfile`/`Justfile` or a
// `.just`/`.justfile` extension, per spec.md §4.D/§6. Duplicated from
// internal/watcher rather than imported, so admin never depends on watcher
// concretely (see watcherReconciler above).
func isJustfileName(name string) bool {
	if strings.EqualFold(name, "justfile") {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".just" || ext == ".justfile"
}

func hasJustfile(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() && isJustfileName(e.Name()) {
			return true
		}
	}
	return false
}
