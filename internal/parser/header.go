package parser

import (
	"strings"

	"github.com/justmcp/justmcp/internal/task"
)

// splitHeader splits a recipe header line `name p1 p2="x": dep1 dep2` into
// its name, raw parameter segment, and raw dependency segment. The header
// must not be indented. Returns ok=false if line doesn't look like a header.
func splitHeader(line string) (name, paramsSeg, depsSeg string, ok bool) {
	line = strings.TrimRight(line, " \t")
	if line == "" || line[0] == ' ' || line[0] == '\t' {
		return "", "", "", false
	}
	colon := findHeaderColon(line)
	if colon < 0 {
		return "", "", "", false
	}
	head := strings.TrimSpace(line[:colon])
	depsSeg = strings.TrimSpace(line[colon+1:])

	fields := strings.Fields(head)
	if len(fields) == 0 {
		return "", "", "", false
	}
	name = fields[0]
	if !task.ValidName(name) {
		return "", "", "", false
	}
	paramsSeg = strings.TrimSpace(strings.TrimPrefix(head, name))
	return name, paramsSeg, depsSeg, true
}

// findHeaderColon finds the ':' that separates a recipe header from its
// dependency list, skipping any ':' embedded inside a quoted default value.
func findHeaderColon(line string) int {
	inQuote := byte(0)
	for i := 0; i < len(line); i++ {
		c := line[i]
		if inQuote != 0 {
			if c == inQuote {
				inQuote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			inQuote = c
		case ':':
			// A colon immediately followed by '=' is the `:=` assignment
			// operator and is skipped; any other colon outside quotes is the
			// header delimiter.
			if i+1 < len(line) && line[i+1] == '=' {
				continue
			}
			return i
		}
	}
	return -1
}

// parseParams tokenizes a recipe's raw parameter segment into Parameters,
// quote-aware so default values containing spaces or ':' survive intact.
func parseParams(seg string) []task.Parameter {
	var params []task.Parameter
	i, n := 0, len(seg)
	for i < n {
		for i < n && seg[i] == ' ' {
			i++
		}
		if i >= n {
			break
		}
		start := i
		variadic := false
		if seg[i] == '*' || seg[i] == '+' {
			variadic = true
			i++
		}
		nameStart := i
		for i < n && seg[i] != ' ' && seg[i] != '=' {
			i++
		}
		name := seg[nameStart:i]
		if name == "" {
			i = start + 1
			continue
		}
		p := task.Parameter{Name: name, Variadic: variadic}
		if i < n && seg[i] == '=' {
			i++
			def, newI := readDefault(seg, i)
			p.Default = def
			p.HasDefault = true
			i = newI
		}
		params = append(params, p)
	}
	return params
}

// readDefault reads a parameter default expression starting at i: either a
// quoted literal (quotes stripped) or a bare token up to the next space.
func readDefault(seg string, i int) (string, int) {
	n := len(seg)
	if i < n && (seg[i] == '"' || seg[i] == '\'') {
		q := seg[i]
		j := i + 1
		for j < n && seg[j] != q {
			j++
		}
		if j < n {
			return seg[i+1 : j], j + 1
		}
		return seg[i+1:], n
	}
	j := i
	for j < n && seg[j] != ' ' {
		j++
	}
	return seg[i:j], j
}

// parseDeps splits a dependency segment into an ordered list of bare names,
// ignoring any parenthesized dependency arguments.
func parseDeps(seg string) []string {
	var deps []string
	for _, f := range strings.Fields(seg) {
		if i := strings.IndexByte(f, '('); i >= 0 {
			f = f[:i]
		}
		if f != "" {
			deps = append(deps, f)
		}
	}
	return deps
}
