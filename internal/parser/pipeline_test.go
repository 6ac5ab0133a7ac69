package parser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipeline_BlankOrCommentOnlyShortCircuits(t *testing.T) {
	p := New(Auto, "just", time.Second)

	tasks, imports, err := p.ParseFile(context.Background(), "justfile", []byte("# just comments\n\n  \n"))
	require.NoError(t, err)
	assert.Nil(t, tasks)
	assert.Nil(t, imports)
}

func TestPipeline_AutoPrefersAST(t *testing.T) {
	p := New(Auto, "just", time.Second)

	tasks, _, err := p.ParseFile(context.Background(), "justfile", []byte("build:\n\tgo build\n"))
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "build", tasks[0].Name)

	snap := p.Metrics.Snapshot()
	assert.Equal(t, int64(1), snap.ASTAttempts)
	assert.Equal(t, int64(1), snap.ASTSuccesses)
	assert.Equal(t, int64(0), snap.CLIAttempts)
}

func TestPipeline_AstPreferenceFallsBackToMinimalOnError(t *testing.T) {
	p := New(Ast, "just", time.Second)

	// Indented line with no preceding header is a syntax tree error.
	tasks, _, err := p.ParseFile(context.Background(), "weird.just", []byte("\tgo build\n"))
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "weird", tasks[0].Name)

	snap := p.Metrics.Snapshot()
	assert.Equal(t, int64(1), snap.ASTAttempts)
	assert.Equal(t, int64(0), snap.ASTSuccesses)
	assert.Equal(t, int64(1), snap.MinimalAttempts)
}

func TestPipeline_RegexPreference(t *testing.T) {
	p := New(Regex, "just", time.Second)

	tasks, _, err := p.ParseFile(context.Background(), "justfile", []byte("build:\n\tgo build\n"))
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "build", tasks[0].Name)

	snap := p.Metrics.Snapshot()
	assert.Equal(t, int64(1), snap.RegexAttempts)
	assert.Equal(t, int64(1), snap.RegexSuccesses)
}

func TestParsePreferenceFromString(t *testing.T) {
	cases := map[string]Preference{
		"ast":     Ast,
		"CLI":     Cli,
		"regex":   Regex,
		"":        Auto,
		"bogus":   Auto,
		" Regex ": Regex,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParsePreferenceFromString(in), "input %q", in)
	}
}

func TestPreference_String(t *testing.T) {
	assert.Equal(t, "auto", Auto.String())
	assert.Equal(t, "ast", Ast.String())
	assert.Equal(t, "cli", Cli.String())
	assert.Equal(t, "regex", Regex.String())
}
