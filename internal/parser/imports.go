package parser

import (
	"context"
	"os"
	"path/filepath"

	"github.com/justmcp/justmcp/internal/errs"
	"github.com/justmcp/justmcp/internal/task"
)

// ParseFileWithImports resolves path's full import graph depth-first and
// returns the combined, override-resolved Task list. Per spec.md §4.B:
//
//   - imports are resolved depth-first starting at the root file
//   - each path is canonicalised against the importing file's directory
//   - a depth-first traversal maintains an in_progress set; re-entering it
//     is a CircularImport error carrying the full chain
//   - a missing non-optional import is a MissingImport error; a missing
//     optional import is silently skipped
//   - recipes are appended in post-order (imported before importer), but a
//     later recipe with the same name overrides an earlier one
//
// The import graph is walked as a flat list with an explicit visited set,
// never as a graph of back-links, per DESIGN NOTES §9.
func (p *Pipeline) ParseFileWithImports(ctx context.Context, rootPath string) ([]task.Task, error) {
	abs, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, err
	}

	r := &importResolver{pipeline: p, ctx: ctx, inProgress: map[string]bool{}}
	ordered, err := r.visit(abs, nil)
	if err != nil {
		return nil, err
	}
	return mergeByNameOverride(ordered), nil
}

type importResolver struct {
	pipeline   *Pipeline
	ctx        context.Context
	inProgress map[string]bool
}

// visit parses path (and everything it imports) and returns tasks in
// post-order: every task from an import arrives before any task defined
// directly in path.
func (r *importResolver) visit(path string, chain []string) ([]task.Task, error) {
	if r.inProgress[path] {
		return nil, errs.CircularImportError(append(append([]string{}, chain...), path))
	}
	r.inProgress[path] = true
	defer delete(r.inProgress, path)

	chain = append(chain, path)

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	tasks, imports, err := r.pipeline.ParseFile(r.ctx, path, content)
	if err != nil {
		return nil, err
	}

	var result []task.Task
	dir := filepath.Dir(path)
	for _, imp := range imports {
		target := imp.Resolved
		if target == "" {
			target = filepath.Clean(filepath.Join(dir, imp.RawPath))
		}

		if _, statErr := os.Stat(target); statErr != nil {
			if imp.Optional {
				continue
			}
			return nil, errs.MissingImportError(imp.RawPath)
		}

		imported, err := r.visit(target, chain)
		if err != nil {
			return nil, err
		}
		result = append(result, imported...)
	}

	result = append(result, tasks...)
	return result, nil
}

// mergeByNameOverride keeps each task's last occurrence by name while
// preserving the position of its first occurrence, so an importer's recipe
// overrides an imported recipe of the same name without reordering the
// published tool list underneath callers.
func mergeByNameOverride(tasks []task.Task) []task.Task {
	lastIndex := map[string]int{}
	order := make([]string, 0, len(tasks))
	for i, t := range tasks {
		if _, seen := lastIndex[t.Name]; !seen {
			order = append(order, t.Name)
		}
		lastIndex[t.Name] = i
	}

	out := make([]task.Task, 0, len(order))
	for _, name := range order {
		out = append(out, tasks[lastIndex[name]])
	}
	return out
}
