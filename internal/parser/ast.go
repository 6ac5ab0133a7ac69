package parser

import (
	"fmt"
	"strings"

	"github.com/justmcp/justmcp/internal/errs"
	"github.com/justmcp/justmcp/internal/task"
)

// astParser is the layer-1 "syntax-tree" parser. It is not a real
// tree-sitter grammar (none exists for justfiles in this repo's dependency
// corpus — see DESIGN.md) but builds an equivalent concrete tree: a flat
// ordered list of typed nodes, walked the way a tree-sitter query result
// would be, so callers get the same "structural queries over a parse tree"
// contract spec.md §4.B describes.
type astParser struct{}

func newASTParser() *astParser { return &astParser{} }

type nodeKind int

const (
	nodeRecipe nodeKind = iota
	nodeImport
	nodeVariable
)

type astNode struct {
	kind   nodeKind
	task   task.Task
	imp    task.Import
	line   int
}

type astTree struct {
	nodes    []astNode
	errLine  int
	errText  string
}

func (t *astTree) hasError() bool { return t.errLine != 0 }

// parse builds the concrete tree for one file's raw lines.
func (p *astParser) parse(path string, lines []string) *astTree {
	tree := &astTree{}

	var pendingComments []string
	var pendingAttrs []attribute
	i := 0
	for i < len(lines) {
		raw := lines[i]
		line := raw
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			pendingComments = nil
			pendingAttrs = nil
			i++
			continue

		case strings.HasPrefix(trimmed, "#") && !strings.HasPrefix(trimmed, "#!"):
			pendingComments = append(pendingComments, strings.TrimSpace(strings.TrimPrefix(trimmed, "#")))
			i++
			continue

		case isIndented(line):
			// Body line with no preceding header: malformed.
			tree.errLine = i + 1
			tree.errText = "unexpected indented line outside recipe body"
			return tree

		case strings.HasPrefix(trimmed, "["):
			a, ok := parseAttributeLine(trimmed)
			if !ok {
				tree.errLine = i + 1
				tree.errText = "malformed attribute: " + trimmed
				return tree
			}
			pendingAttrs = append(pendingAttrs, a)
			i++
			continue

		case strings.HasPrefix(trimmed, "import"):
			imp, ok := parseImportLine(trimmed)
			if !ok {
				tree.errLine = i + 1
				tree.errText = "malformed import: " + trimmed
				return tree
			}
			tree.nodes = append(tree.nodes, astNode{kind: nodeImport, imp: imp, line: i + 1})
			pendingComments = nil
			pendingAttrs = nil
			i++
			continue

		default:
			if name, paramsSeg, depsSeg, ok := splitHeader(trimmed); ok {
				t := task.Task{
					Name:         name,
					Comments:     pendingComments,
					Parameters:   parseParams(paramsSeg),
					Dependencies: parseDeps(depsSeg),
					SourcePath:   path,
					Line:         i + 1,
				}
				for _, a := range pendingAttrs {
					applyAttribute(&t, a)
				}
				for _, pm := range t.Parameters {
					if pm.Variadic {
						t.AcceptsVariadic = true
					}
				}
				pendingComments = nil
				pendingAttrs = nil

				body, next := scanBody(lines, i+1)
				t.Body = task.NormalizeLineEndings(strings.Join(body, "\n"))
				tree.nodes = append(tree.nodes, astNode{kind: nodeRecipe, task: t, line: i + 1})
				i = next
				continue
			}

			if isVariableAssignment(trimmed) {
				tree.nodes = append(tree.nodes, astNode{kind: nodeVariable, line: i + 1})
				pendingComments = nil
				pendingAttrs = nil
				i++
				continue
			}

			tree.errLine = i + 1
			tree.errText = "unrecognized top-level statement: " + trimmed
			return tree
		}
	}

	return tree
}

func isIndented(line string) bool {
	return len(line) > 0 && (line[0] == ' ' || line[0] == '\t')
}

func isVariableAssignment(line string) bool {
	line = strings.TrimPrefix(line, "export ")
	idx := strings.Index(line, ":=")
	if idx <= 0 {
		idx = strings.IndexByte(line, '=')
		if idx <= 0 {
			return false
		}
	}
	name := strings.TrimSpace(line[:idx])
	name = strings.TrimSuffix(name, ":")
	return task.ValidName(strings.TrimSpace(name))
}

// scanBody consumes the indented (or blank-within-body) lines following a
// recipe header and returns them dedented, plus the index of the next
// unconsumed line.
func scanBody(lines []string, start int) ([]string, int) {
	var body []string
	i := start
	for i < len(lines) {
		if strings.TrimSpace(lines[i]) == "" {
			// A blank line only continues the body if a later indented line
			// follows before the file ends or another header begins.
			j := i
			for j < len(lines) && strings.TrimSpace(lines[j]) == "" {
				j++
			}
			if j < len(lines) && isIndented(lines[j]) {
				for ; i < j; i++ {
					body = append(body, "")
				}
				continue
			}
			break
		}
		if !isIndented(lines[i]) {
			break
		}
		body = append(body, dedent(lines[i]))
		i++
	}
	return body, i
}

func dedent(line string) string {
	return strings.TrimPrefix(strings.TrimPrefix(line, "\t"), "    ")
}

// importPrefixRe-free lexing: explicitly recognize `import?` before
// `import`, per DESIGN NOTES §9 ("explicitly lex the import? token before
// path parsing").
func parseImportLine(line string) (task.Import, bool) {
	rest := strings.TrimSpace(strings.TrimPrefix(line, "import"))
	optional := false
	if strings.HasPrefix(rest, "?") {
		optional = true
		rest = strings.TrimSpace(rest[1:])
	}
	if len(rest) < 2 {
		return task.Import{}, false
	}
	q := rest[0]
	if q != '"' && q != '\'' {
		return task.Import{}, false
	}
	end := strings.IndexByte(rest[1:], q)
	if end < 0 {
		return task.Import{}, false
	}
	path := rest[1 : 1+end]
	return task.Import{RawPath: path, Optional: optional}, true
}

// parseFile runs the AST layer over one file's bytes.
func (p *astParser) parseFile(path string, content []byte) ([]task.Task, []task.Import, error) {
	lines := strings.Split(task.NormalizeLineEndings(string(content)), "\n")
	tree := p.parse(path, lines)
	if tree.hasError() {
		return nil, nil, &errs.ParseError{Kind: errs.SyntaxTree, File: path, Line: tree.errLine, Msg: fmt.Sprintf("syntax tree error at %s:%d: %s", path, tree.errLine, tree.errText)}
	}

	var tasks []task.Task
	var imports []task.Import
	var sawAny bool
	for _, n := range tree.nodes {
		switch n.kind {
		case nodeRecipe:
			tasks = append(tasks, n.task)
			sawAny = true
		case nodeImport:
			imports = append(imports, n.imp)
			sawAny = true
		case nodeVariable:
			sawAny = true
		}
	}
	if len(tasks) == 0 && !sawAny {
		return nil, nil, &errs.ParseError{Kind: errs.SyntaxTree, File: path, Msg: "syntax tree has zero recipe children"}
	}
	return tasks, imports, nil
}
