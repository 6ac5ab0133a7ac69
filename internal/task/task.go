// Package task holds the canonical in-memory representation of a parsed
// justfile recipe, independent of which parser layer produced it.
package task

import (
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Parameter is a single recipe parameter.
type Parameter struct {
	Name      string
	Default   string // raw source text between quotes or after '=', empty if required
	HasDefault bool
	Variadic  bool // true for *name / +name
}

// Import is a raw `import`/`import?` directive as encountered in a file,
// resolved once its target has been located on disk.
type Import struct {
	RawPath  string
	Optional bool
	Resolved string // absolute path once resolved; empty until then
}

// Task is one extracted recipe.
type Task struct {
	Name         string
	Comments     []string // leading comment block, in source order
	Parameters   []Parameter
	Dependencies []string
	Body         string // normalized to LF line endings
	Group        string
	Private      bool
	RequiresConfirmation bool
	ConfirmMessage       string
	AcceptsVariadic      bool
	SourcePath   string
	Line         int // 1-based line number of the recipe header

	// Attrs carries opaque/unknown attribute markers verbatim so the parser
	// never fails on an attribute it doesn't specifically understand.
	Attrs []string
}

// Description derives the tool-facing description: the first comment line,
// else the body's first non-empty line, else empty.
func (t Task) Description() string {
	for _, c := range t.Comments {
		c = strings.TrimSpace(c)
		if c != "" {
			return c
		}
	}
	for _, line := range strings.Split(t.Body, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return ""
}

// SourceHash returns a stable 64-bit digest of the task's semantic content,
// excluding comments so that comment-only edits never force republication.
func (t Task) SourceHash() uint64 {
	var b strings.Builder
	b.WriteString(t.Name)
	b.WriteByte(0)

	params := make([]Parameter, len(t.Parameters))
	copy(params, t.Parameters)
	for _, p := range params {
		b.WriteString(p.Name)
		b.WriteByte('=')
		if p.HasDefault {
			b.WriteString(p.Default)
		}
		if p.Variadic {
			b.WriteByte('*')
		}
		b.WriteByte(0)
	}

	deps := make([]string, len(t.Dependencies))
	copy(deps, t.Dependencies)
	for _, d := range deps {
		b.WriteString(d)
		b.WriteByte(0)
	}

	b.WriteString(t.Body)
	b.WriteByte(0)
	b.WriteString(t.Group)
	b.WriteByte(0)

	if t.Private {
		b.WriteByte('P')
	}
	if t.RequiresConfirmation {
		b.WriteByte('C')
		b.WriteString(t.ConfirmMessage)
	}
	if t.AcceptsVariadic {
		b.WriteByte('V')
	}

	attrs := make([]string, len(t.Attrs))
	copy(attrs, t.Attrs)
	sort.Strings(attrs)
	for _, a := range attrs {
		b.WriteString(a)
		b.WriteByte(0)
	}

	return xxhash.Sum64String(b.String())
}

// ValidName reports whether s is a legal task or parameter name: non-empty,
// alphanumeric plus '-' and '_'.
func ValidName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return false
		}
	}
	return true
}

// NormalizeLineEndings converts CRLF and CR line endings to LF.
func NormalizeLineEndings(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return s
}
