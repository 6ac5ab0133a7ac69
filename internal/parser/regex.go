package parser

import (
	"regexp"
	"strings"

	"github.com/justmcp/justmcp/internal/task"
)

// regexParser is the layer-3 line-oriented scanner. It is deliberately
// simpler than astParser: correct on the common subset of justfile syntax,
// but known-lossy on multi-line expressions and stacked attributes (only
// the last attribute line immediately above a header is honored), per
// spec.md §4.B.
type regexParser struct{}

func newRegexParser() *regexParser { return &regexParser{} }

var (
	reHeader    = regexp.MustCompile(`^([A-Za-z0-9_-]+)([^:]*):(.*)$`)
	reAttr      = regexp.MustCompile(`^\[([A-Za-z0-9_-]+)(?:\(([^)]*)\))?\]$`)
	reImport    = regexp.MustCompile(`^import(\?)?\s+['"]([^'"]+)['"]$`)
	reComment   = regexp.MustCompile(`^#([^!].*)?$`)
	reVariable  = regexp.MustCompile(`^(?:export\s+)?[A-Za-z0-9_-]+\s*:?=`)
)

func (p *regexParser) parseFile(path string, content []byte) (tasks []task.Task, imports []task.Import, ok bool) {
	lines := strings.Split(task.NormalizeLineEndings(string(content)), "\n")

	var lastComment []string
	var lastAttr attribute
	haveAttr := false
	i := 0
	for i < len(lines) {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			lastComment = nil
			haveAttr = false
			i++

		case isIndented(line):
			i++ // stray body line with no header; regex layer just skips it

		case reComment.MatchString(trimmed):
			lastComment = append(lastComment, strings.TrimSpace(strings.TrimPrefix(trimmed, "#")))
			i++

		case reImport.MatchString(trimmed):
			m := reImport.FindStringSubmatch(trimmed)
			imports = append(imports, task.Import{RawPath: m[2], Optional: m[1] == "?"})
			lastComment = nil
			haveAttr = false
			i++

		case reAttr.MatchString(trimmed):
			m := reAttr.FindStringSubmatch(trimmed)
			lastAttr = attribute{Name: m[1], Arg: unquote(m[2])}
			haveAttr = true
			i++

		case reVariable.MatchString(trimmed):
			lastComment = nil
			haveAttr = false
			i++

		case reHeader.MatchString(trimmed) && task.ValidName(reHeader.FindStringSubmatch(trimmed)[1]):
			m := reHeader.FindStringSubmatch(trimmed)
			t := task.Task{
				Name:         m[1],
				Comments:     lastComment,
				Parameters:   parseParams(strings.TrimSpace(m[2])),
				Dependencies: parseDeps(m[3]),
				SourcePath:   path,
				Line:         i + 1,
			}
			if haveAttr {
				applyAttribute(&t, lastAttr)
			}
			for _, pm := range t.Parameters {
				if pm.Variadic {
					t.AcceptsVariadic = true
				}
			}
			lastComment = nil
			haveAttr = false

			var body []string
			j := i + 1
			for j < len(lines) && isIndented(lines[j]) {
				body = append(body, dedent(lines[j]))
				j++
			}
			t.Body = task.NormalizeLineEndings(strings.Join(body, "\n"))
			tasks = append(tasks, t)
			i = j

		default:
			// Unrecognized line: the regex layer tolerates it silently
			// rather than failing, since it is explicitly the lossy layer.
			lastComment = nil
			haveAttr = false
			i++
		}
	}

	return tasks, imports, len(tasks) > 0 || len(imports) > 0
}
