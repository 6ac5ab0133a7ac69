package toolid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSingle(t *testing.T) {
	assert.Equal(t, "just_build", Single("build"))
}

func TestMulti(t *testing.T) {
	id := Multi("build", "/repo/backend/justfile", []string{"/repo/frontend/justfile"})
	assert.Equal(t, "just_build@backend/justfile", id)
}

func TestShortestUniqueSuffix_DisambiguatesOnImmediateParent(t *testing.T) {
	got := ShortestUniqueSuffix("/repo/backend/justfile", []string{"/repo/frontend/justfile"})
	assert.Equal(t, "backend/justfile", got)
}

func TestShortestUniqueSuffix_GrowsWhenParentAlsoCollides(t *testing.T) {
	// Both candidates share "services/justfile" as their last two segments,
	// so the suffix must grow one more segment to disambiguate.
	got := ShortestUniqueSuffix(
		"/repo/api/services/justfile",
		[]string{"/repo/web/services/justfile"},
	)
	assert.Equal(t, "api/services/justfile", got)
}

func TestShortestUniqueSuffix_NoOthersReturnsBaseName(t *testing.T) {
	got := ShortestUniqueSuffix("/repo/backend/justfile", nil)
	assert.Equal(t, "justfile", got)
}

func TestShortestUniqueSuffix_IgnoresSelfInOthers(t *testing.T) {
	path := "/repo/backend/justfile"
	got := ShortestUniqueSuffix(path, []string{path})
	assert.Equal(t, "justfile", got)
}

func TestShortestUniqueSuffix_DeterministicAcrossCalls(t *testing.T) {
	others := []string{"/repo/frontend/justfile", "/repo/tools/justfile"}
	first := ShortestUniqueSuffix("/repo/backend/justfile", others)
	second := ShortestUniqueSuffix("/repo/backend/justfile", others)
	assert.Equal(t, first, second)
}

func TestShortestUniqueSuffix_ShorterOtherPathHandledSafely(t *testing.T) {
	// other has fewer segments than the candidate length being tried.
	got := ShortestUniqueSuffix("/a/b/c/justfile", []string{"/c/justfile"})
	assert.NotEmpty(t, got)
}
