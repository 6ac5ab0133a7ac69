package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTask_Description_PrefersLeadingComment(t *testing.T) {
	tk := Task{
		Comments: []string{"  ", "builds the project"},
		Body:     "go build ./...",
	}
	assert.Equal(t, "builds the project", tk.Description())
}

func TestTask_Description_FallsBackToBody(t *testing.T) {
	tk := Task{
		Body: "\n  go test ./...\n",
	}
	assert.Equal(t, "go test ./...", tk.Description())
}

func TestTask_Description_EmptyWhenNothingToShow(t *testing.T) {
	var tk Task
	assert.Equal(t, "", tk.Description())
}

func TestTask_SourceHash_StableForIdenticalTasks(t *testing.T) {
	mk := func() Task {
		return Task{
			Name: "build",
			Parameters: []Parameter{
				{Name: "target", HasDefault: true, Default: "all"},
			},
			Dependencies: []string{"deps"},
			Body:         "go build {{target}}",
			Group:        "ci",
			Attrs:        []string{"linux", "confirm"},
		}
	}
	require.Equal(t, mk().SourceHash(), mk().SourceHash())
}

func TestTask_SourceHash_IgnoresCommentChanges(t *testing.T) {
	base := Task{Name: "deploy", Body: "./deploy.sh"}
	withComment := base
	withComment.Comments = []string{"deploys to prod"}

	assert.Equal(t, base.SourceHash(), withComment.SourceHash())
}

func TestTask_SourceHash_ChangesWithBody(t *testing.T) {
	a := Task{Name: "build", Body: "go build"}
	b := Task{Name: "build", Body: "go build ./..."}
	assert.NotEqual(t, a.SourceHash(), b.SourceHash())
}

func TestTask_SourceHash_AttrOrderIndependent(t *testing.T) {
	a := Task{Name: "x", Attrs: []string{"a", "b", "c"}}
	b := Task{Name: "x", Attrs: []string{"c", "a", "b"}}
	assert.Equal(t, a.SourceHash(), b.SourceHash())
}

func TestTask_SourceHash_ConfirmationAffectsHash(t *testing.T) {
	plain := Task{Name: "rm", Body: "rm -rf target"}
	confirmed := plain
	confirmed.RequiresConfirmation = true
	confirmed.ConfirmMessage = "are you sure?"
	assert.NotEqual(t, plain.SourceHash(), confirmed.SourceHash())
}

func TestValidName(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want bool
	}{
		{"alnum", "build2", true},
		{"dashes", "build-release", true},
		{"underscores", "run_tests", true},
		{"empty", "", false},
		{"space", "build release", false},
		{"dot", "build.release", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, ValidName(c.in))
		})
	}
}

func TestNormalizeLineEndings(t *testing.T) {
	assert.Equal(t, "a\nb\nc", NormalizeLineEndings("a\r\nb\rc"))
	assert.Equal(t, "no-change", NormalizeLineEndings("no-change"))
}
