package resources

import "embed"

// guideFS embeds the reference guides served under file:///docs/guides/<name>.
//
//go:embed docs/guides/*.md
var guideFS embed.FS

const guideDir = "docs/guides"
