// Package resources serves justmcp's virtual MCP resources: a live
// "file:///config.json" snapshot of the running server's configuration and
// registry state, plus a set of embedded reference guides.
//
// Grounded on original_source/src/config_resource/mod.rs's collector/
// provider split (a ConfigDataCollector that gathers live state, and a
// ConfigResourceProvider that serves it as a resource), reimplemented here
// as Collector/Provider, and on the teacher's internal/content static
// resource pattern (one Definition+Read pair per resource) for the
// embedded guides.
package resources

import (
	"time"

	"github.com/justmcp/justmcp/internal/registry"
)

// ConfigView is the subset of the running configuration the config.json
// resource reports. It mirrors internal/config.Config's watcher-relevant
// fields rather than embedding that package, so resources has no
// dependency on config.
type ConfigView struct {
	WatchDirectories []string
	ParserPreference string
	DefaultTimeout   time.Duration
	MultiDirectory   bool
	JustBinary       string
}

// Collector gathers the live state exposed by the config.json resource.
type Collector struct {
	reg *registry.Registry
	cfg ConfigView
}

// NewCollector creates a Collector over reg and the static config view cfg.
func NewCollector(reg *registry.Registry, cfg ConfigView) *Collector {
	return &Collector{reg: reg, cfg: cfg}
}

// Snapshot gathers a point-in-time view of the server's configuration and
// registry state, suitable for JSON encoding.
func (c *Collector) Snapshot() map[string]any {
	descriptors := c.reg.List()
	sources := make(map[string]int, len(c.cfg.WatchDirectories))
	for _, d := range descriptors {
		sources[d.SourcePath]++
	}

	return map[string]any{
		"watch_directories": c.cfg.WatchDirectories,
		"multi_directory":   c.cfg.MultiDirectory,
		"parser_preference": c.cfg.ParserPreference,
		"default_timeout":   c.cfg.DefaultTimeout.String(),
		"just_binary":       c.cfg.JustBinary,
		"registry_revision": c.reg.Revision(),
		"tool_count":        len(descriptors),
		"tools_per_source":  sources,
	}
}
