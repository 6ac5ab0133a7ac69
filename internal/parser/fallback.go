package parser

import (
	"path/filepath"
	"strings"

	"github.com/justmcp/justmcp/internal/task"
)

// minimalFallback builds the single synthetic Task emitted when every other
// layer has failed on a non-empty file, per spec.md §4.B: "never fail
// open". The task is named from the file stem and its body is the first
// non-empty line of the file.
func minimalFallback(path string, content []byte) task.Task {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if !task.ValidName(stem) {
		stem = sanitizeName(stem)
	}

	body := ""
	for _, line := range strings.Split(task.NormalizeLineEndings(string(content)), "\n") {
		if strings.TrimSpace(line) != "" {
			body = line
			break
		}
	}

	return task.Task{
		Name:       stem,
		Body:       body,
		SourcePath: path,
		Line:       1,
	}
}

func sanitizeName(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := b.String()
	if out == "" {
		out = "recipe"
	}
	return out
}
