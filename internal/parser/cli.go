package parser

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/justmcp/justmcp/internal/errs"
	"github.com/justmcp/justmcp/internal/task"
)

// cliParser is the layer-2 external-tool parser: it shells out to the
// `just` binary itself and parses its textual recipe listing. The listing
// carries only recipe names; parameters, dependencies, line and body are
// recovered from the file's recipe headers, but comments are not. It exists
// to cross-check the AST layer's recipe names and as an explicit fallback.
type cliParser struct {
	binary  string
	timeout time.Duration
}

func newCLIParser(binary string, timeout time.Duration) *cliParser {
	if binary == "" {
		binary = "just"
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &cliParser{binary: binary, timeout: timeout}
}

// summary invokes `just --summary` in the file's directory and returns the
// bare recipe names it lists, in the order `just` printed them.
func (p *cliParser) summary(ctx context.Context, path string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	dir := filepath.Dir(path)
	cmd := exec.CommandContext(ctx, p.binary, "--summary", "--justfile", path)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &errs.ParseError{
			Kind: errs.ExternalTool,
			File: path,
			Msg:  "just --summary failed for " + path + ": " + err.Error() + ": " + stderr.String(),
		}
	}

	return strings.Fields(stdout.String()), nil
}

// parseFile runs the CLI layer over one file: it reads the recipe name
// list from `just --summary` and pairs it with a best-effort read of the
// file to recover each recipe's parameters, dependencies, line number and
// body, since the summary output alone carries none of them.
func (p *cliParser) parseFile(ctx context.Context, path string, content []byte) ([]task.Task, error) {
	names, err := p.summary(ctx, path)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, &errs.ParseError{Kind: errs.ExternalTool, File: path, Msg: "just --summary returned no recipes for " + path}
	}

	lines := strings.Split(task.NormalizeLineEndings(string(content)), "\n")
	tasks := make([]task.Task, 0, len(names))
	for _, name := range names {
		t := task.Task{Name: name, SourcePath: path}
		for i, line := range lines {
			if n, paramsSeg, depsSeg, ok := splitHeader(strings.TrimSpace(line)); ok && n == name {
				t.Parameters = parseParams(paramsSeg)
				t.Dependencies = parseDeps(depsSeg)
				t.Line = i + 1
				body, _ := scanBody(lines, i+1)
				t.Body = task.NormalizeLineEndings(strings.Join(body, "\n"))
				break
			}
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}
