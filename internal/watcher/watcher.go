// Package watcher keeps the tool registry in sync with a set of watched
// directories' justfiles, per spec.md §4.D.
//
// Grounded on the debounced fsnotify reconciliation loop in
// theRebelliousNerd-codenerd/internal/core/mangle_watcher.go: a
// fsnotify.Watcher feeding a per-path debounce map, flushed on a ticker,
// with explicit Start/Stop and stopCh/doneCh lifecycle channels. Cross-file
// reconciliation fans out with golang.org/x/sync/errgroup; each individual
// path is always reconciled by a single goroutine at a time.
package watcher

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/justmcp/justmcp/internal/errs"
	"github.com/justmcp/justmcp/internal/parser"
	"github.com/justmcp/justmcp/internal/registry"
	"github.com/justmcp/justmcp/internal/task"
	"github.com/justmcp/justmcp/internal/toolid"
)

// flushInterval is how often the debounce map is checked for expired entries.
const flushInterval = 50 * time.Millisecond

// isJustfileName reports whether name matches one of the recognized
// justfile conventions, case-insensitively: `justfile`/`Justfile` or a
// `.just`/`.justfile` extension, per spec.md §4.D/§6.
func isJustfileName(name string) bool {
	if strings.EqualFold(name, "justfile") {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".just" || ext == ".justfile"
}

// Watcher reconciles one or more directories' justfiles into a Registry.
type Watcher struct {
	fsw      *fsnotify.Watcher
	dirs     []string
	pipeline *parser.Pipeline
	reg      *registry.Registry
	debounce time.Duration
	multiDir bool
	logger   *slog.Logger

	mu      sync.Mutex
	pending map[string]time.Time

	pathLocks sync.Map // source path -> *sync.Mutex serializing reconcilePath

	stopCh chan struct{}
	doneCh chan struct{}
}

// New creates a Watcher over dirs. multiDir enables the "@suffix"
// disambiguation in tool_id construction and should be set whenever len(dirs)
// > 1, per spec.md §3.
func New(dirs []string, pipeline *parser.Pipeline, reg *registry.Registry, debounce time.Duration, multiDir bool, logger *slog.Logger) (*Watcher, error) {
	if len(dirs) == 0 {
		return nil, errs.ErrNoWatchDirectories
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, &errs.WatcherError{Kind: errs.IoError, Path: dir, Err: err}
		}
	}

	return &Watcher{
		fsw:      fsw,
		dirs:     dirs,
		pipeline: pipeline,
		reg:      reg,
		debounce: debounce,
		multiDir: multiDir,
		logger:   logger,
		pending:  make(map[string]time.Time),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start performs an initial full reconciliation of every watched directory,
// then launches the debounced event loop in a background goroutine.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.reconcileAll(ctx); err != nil {
		return err
	}
	go w.loop(ctx)
	return nil
}

// Stop signals the event loop to exit and waits for it to finish.
func (w *Watcher) Stop() {
	close(w.stopCh)
	<-w.doneCh
	w.fsw.Close()
}

// ReconcileNow forces an immediate full reconciliation of every watched
// directory, bypassing the debounce window. Used by the refresh_tools admin
// tool.
func (w *Watcher) ReconcileNow(ctx context.Context) error {
	return w.reconcileAll(ctx)
}

// Dirs returns the watcher's configured directories.
func (w *Watcher) Dirs() []string { return w.dirs }

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !isRelevant(ev.Name) {
				continue
			}
			w.markPending(ev.Name)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "err", err)

		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

func (w *Watcher) markPending(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] = time.Now().Add(w.debounce)
}

// flush reconciles every path whose debounce window has elapsed. Distinct
// paths are reconciled concurrently; each path is handled by exactly one
// goroutine.
func (w *Watcher) flush(ctx context.Context) {
	now := time.Now()

	w.mu.Lock()
	var ready []string
	for path, due := range w.pending {
		if now.After(due) || now.Equal(due) {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	if len(ready) == 0 {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, path := range ready {
		path := path
		g.Go(func() error {
			w.reconcilePath(gctx, path)
			return nil
		})
	}
	_ = g.Wait()
}

// reconcileAll walks every watched directory's root justfile, parsing its
// full import graph and reconciling the result into the registry. A
// directory with no justfile left has every tool published from a file
// directly inside it removed.
func (w *Watcher) reconcileAll(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, dir := range w.dirs {
		dir := dir
		g.Go(func() error {
			root, err := findJustfile(dir)
			if err != nil {
				w.logger.Warn("no justfile in watched directory", "dir", dir)
				for _, d := range w.reg.List() {
					if filepath.Dir(d.SourcePath) == filepath.Clean(dir) {
						w.reg.RemoveBySource(d.SourcePath)
					}
				}
				return nil
			}
			w.reconcilePath(gctx, root)
			return nil
		})
	}
	return g.Wait()
}

// reconcilePath reparses path (or, if it no longer exists, removes whatever
// the registry previously published from it) and diffs the result against
// the registry's current contents for that source.
func (w *Watcher) reconcilePath(ctx context.Context, path string) {
	lk, _ := w.pathLocks.LoadOrStore(path, &sync.Mutex{})
	lk.(*sync.Mutex).Lock()
	defer lk.(*sync.Mutex).Unlock()

	if _, err := os.Stat(path); err != nil {
		removed := w.reg.RemoveBySource(path)
		if removed > 0 {
			w.logger.Info("removed tools for deleted source", "path", path, "count", removed)
		}
		return
	}

	tasks, err := w.pipeline.ParseFileWithImports(ctx, path)
	if err != nil {
		w.logger.Warn("parse failed, keeping existing descriptors", "path", path, "err", err)
		return
	}

	existing := w.reg.ToolIDsForSource(path)
	seen := make(map[string]bool, len(tasks))

	var sourcePaths []string
	for _, dir := range w.dirs {
		if root, err := findJustfile(dir); err == nil {
			sourcePaths = append(sourcePaths, root)
		}
	}

	for _, t := range tasks {
		if t.Private {
			continue
		}
		id := w.toolID(t.Name, path, sourcePaths)
		seen[id] = true

		schema, err := inputSchema(t)
		if err != nil {
			w.logger.Warn("schema build failed", "tool", t.Name, "err", err)
			continue
		}

		params := make([]registry.ParamSpec, len(t.Parameters))
		for i, p := range t.Parameters {
			params[i] = registry.ParamSpec{
				Name:       p.Name,
				HasDefault: p.HasDefault,
				Default:    p.Default,
				Variadic:   p.Variadic,
			}
		}

		d := registry.Descriptor{
			ToolID:               id,
			Name:                 t.Name,
			Description:          t.Description(),
			InputSchema:          schema,
			SourcePath:           path,
			RecipeName:           t.Name,
			SourceHash:           t.SourceHash(),
			Parameters:           params,
			RequiresConfirmation: t.RequiresConfirmation,
		}

		if _, err := w.reg.Get(id); err != nil {
			if addErr := w.reg.Add(d); addErr != nil {
				w.logger.Warn("add failed", "tool", id, "err", addErr)
			}
		} else if updErr := w.reg.Update(id, d); updErr != nil {
			w.logger.Warn("update failed", "tool", id, "err", updErr)
		}
	}

	for _, id := range existing {
		if !seen[id] {
			_ = w.reg.Remove(id)
		}
	}
}

// toolID builds name's tool_id for path. In multi-directory mode every entry
// of allSources other than path competes for the suffix, whether or not that
// file defines a recipe called name; candidates are not filtered by recipe
// name.
func (w *Watcher) toolID(name, path string, allSources []string) string {
	if !w.multiDir {
		return toolid.Single(name)
	}
	others := make([]string, 0, len(allSources))
	for _, s := range allSources {
		if s != path {
			others = append(others, s)
		}
	}
	return toolid.Multi(name, path, others)
}

// inputSchema builds the JSON Schema object per spec.md §6: each parameter
// is a string property described by its default (if any), required unless
// it has a default or is variadic; confirm-required recipes additionally
// require a boolean "confirm" property.
func inputSchema(t task.Task) (json.RawMessage, error) {
	props := make(map[string]any, len(t.Parameters)+1)
	var required []string
	for _, p := range t.Parameters {
		prop := map[string]any{"type": "string"}
		if p.HasDefault {
			prop["description"] = "default: " + p.Default
		}
		props[p.Name] = prop
		if !p.HasDefault && !p.Variadic {
			required = append(required, p.Name)
		}
	}

	if t.RequiresConfirmation {
		props["confirm"] = map[string]any{"type": "boolean"}
		required = append(required, "confirm")
	}

	sort.Strings(required)

	schema := map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return json.Marshal(schema)
}

// findJustfile locates dir's root justfile, preferring an exact (but
// case-insensitive) `justfile` match and falling back to the first
// `*.just`/`*.Justfile` file found, in directory listing order.
func findJustfile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", errs.NoJustfileError(dir)
	}

	var fallback string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.EqualFold(name, "justfile") {
			return filepath.Join(dir, name), nil
		}
		if fallback == "" && isJustfileName(name) {
			fallback = name
		}
	}

	if fallback != "" {
		return filepath.Join(dir, fallback), nil
	}
	return "", errs.NoJustfileError(dir)
}

func isRelevant(name string) bool {
	return isJustfileName(filepath.Base(name))
}
