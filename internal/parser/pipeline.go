// Package parser implements the layered justfile parsing strategy described
// in spec.md §4.B: a precise syntax-tree parse, an external-tool
// cross-check/fallback, a regular-expression scanner, and a minimal
// last-resort fallback that never fails open.
package parser

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/justmcp/justmcp/internal/errs"
	"github.com/justmcp/justmcp/internal/task"
)

// Preference selects which parser layers a Pipeline is allowed to use.
type Preference int

const (
	// Auto tries ast, then cli, then regex, then the minimal fallback.
	Auto Preference = iota
	// Ast uses only the syntax-tree layer (plus the minimal fallback).
	Ast
	// Cli uses only the external-tool layer (plus the minimal fallback).
	Cli
	// Regex uses only the regular-expression layer (plus the minimal fallback).
	Regex
)

func (p Preference) String() string {
	switch p {
	case Ast:
		return "ast"
	case Cli:
		return "cli"
	case Regex:
		return "regex"
	default:
		return "auto"
	}
}

// ParsePreferenceFromString parses a config/CLI string into a Preference.
// Unrecognized values fall back to Auto.
func ParsePreferenceFromString(s string) Preference {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ast":
		return Ast
	case "cli":
		return Cli
	case "regex":
		return Regex
	default:
		return Auto
	}
}

// Pipeline parses a justfile's bytes into Tasks using the layered strategy.
// A Pipeline is safe for concurrent use; its Metrics are shared across
// calls.
type Pipeline struct {
	preference Preference
	ast        *astParser
	cli        *cliParser
	regex      *regexParser
	Metrics    *Metrics
}

// New creates a Pipeline with the given preference and external-tool
// invocation settings.
func New(preference Preference, justBinary string, cliTimeout time.Duration) *Pipeline {
	return &Pipeline{
		preference: preference,
		ast:        newASTParser(),
		cli:        newCLIParser(justBinary, cliTimeout),
		regex:      newRegexParser(),
		Metrics:    &Metrics{},
	}
}

// Preference returns the pipeline's configured parser preference.
func (p *Pipeline) Preference() Preference { return p.preference }

// ParseFile parses one file's bytes into Tasks and raw Imports, without
// resolving the imports. Blank and comment-only files short-circuit to an
// empty result with no error, per spec.md §4.B edge policies.
func (p *Pipeline) ParseFile(ctx context.Context, path string, content []byte) ([]task.Task, []task.Import, error) {
	if isBlankOrCommentOnly(content) {
		return nil, nil, nil
	}

	switch p.preference {
	case Ast:
		tasks, imports, err := p.tryAST(path, content)
		if err == nil {
			return tasks, imports, nil
		}
		return p.minimal(path, content), nil, nil

	case Cli:
		tasks, err := p.tryCLI(ctx, path, content)
		if err == nil {
			return tasks, nil, nil
		}
		return p.minimal(path, content), nil, nil

	case Regex:
		tasks, imports, err := p.tryRegex(path, content)
		if err == nil {
			return tasks, imports, nil
		}
		return p.minimal(path, content), nil, nil

	default: // Auto
		if tasks, imports, err := p.tryAST(path, content); err == nil {
			return tasks, imports, nil
		}
		if tasks, err := p.tryCLI(ctx, path, content); err == nil {
			return tasks, nil, nil
		}
		if tasks, imports, err := p.tryRegex(path, content); err == nil {
			return tasks, imports, nil
		}
		return p.minimal(path, content), nil, nil
	}
}

func (p *Pipeline) tryAST(path string, content []byte) ([]task.Task, []task.Import, error) {
	tasks, imports, err := p.ast.parseFile(path, content)
	p.Metrics.recordAST(err == nil)
	return tasks, imports, err
}

func (p *Pipeline) tryCLI(ctx context.Context, path string, content []byte) ([]task.Task, error) {
	tasks, err := p.cli.parseFile(ctx, path, content)
	p.Metrics.recordCLI(err == nil)
	return tasks, err
}

func (p *Pipeline) tryRegex(path string, content []byte) ([]task.Task, []task.Import, error) {
	tasks, imports, ok := p.regex.parseFile(path, content)
	p.Metrics.recordRegex(ok)
	if !ok {
		return nil, nil, &errs.ParseError{Kind: errs.Regex, File: path, Msg: "regex layer matched nothing in " + path}
	}
	return tasks, imports, nil
}

func (p *Pipeline) minimal(path string, content []byte) []task.Task {
	p.Metrics.recordMinimal(true)
	return []task.Task{minimalFallback(path, content)}
}

// isBlankOrCommentOnly reports whether content has no non-comment,
// non-whitespace lines.
func isBlankOrCommentOnly(content []byte) bool {
	for _, line := range strings.Split(string(content), "\n") {
		t := strings.TrimSpace(line)
		if t == "" {
			continue
		}
		if strings.HasPrefix(t, "#") {
			continue
		}
		return false
	}
	return true
}

// ReadAndParseFile reads path from disk and parses it, without resolving
// imports.
func (p *Pipeline) ReadAndParseFile(ctx context.Context, path string) ([]task.Task, []task.Import, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return p.ParseFile(ctx, path, content)
}
