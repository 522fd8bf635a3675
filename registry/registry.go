// Package registry implements the Toolset Registry & Cache:
// process-wide state mapping canonical compiler paths to Toolsets,
// with a coalesced, atomically-written snapshot on disk. Writes go
// through an atomic temp-file-then-rename, and concurrent writers are
// coalesced with golang.org/x/sync/singleflight.
package registry

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/fearthecowboy/toolsight/definition"
	"github.com/fearthecowboy/toolsight/intellisense"
	"github.com/fearthecowboy/toolsight/render"
	"github.com/fearthecowboy/toolsight/toolset"
	"github.com/fearthecowboy/toolsight/xlog"
)

const snapshotFile = "detected-toolsets.json"

// Registry holds every discovered Toolset, keyed by canonical
// compilerPath, and persists a snapshot for the next process's
// loadCachedEntries.
type Registry struct {
	storagePath string

	mu      sync.RWMutex
	entries map[string]*toolset.Toolset
	order   []string // insertion order, for matchByName's tie-break
	sf      singleflight.Group
}

// New returns an empty Registry that will snapshot to storagePath.
// storagePath may be empty, in which case Persist is a no-op.
func New(storagePath string) *Registry {
	return &Registry{
		storagePath: storagePath,
		entries:     map[string]*toolset.Toolset{},
	}
}

// Set registers ts under its canonical compilerPath.
func (r *Registry) Set(ts *toolset.Toolset) {
	r.mu.Lock()
	if _, exists := r.entries[ts.CompilerPath]; !exists {
		r.order = append(r.order, ts.CompilerPath)
	}
	r.entries[ts.CompilerPath] = ts
	r.mu.Unlock()
}

// Get returns the Toolset registered under path.
func (r *Registry) Get(path string) (*toolset.Toolset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ts, ok := r.entries[path]
	return ts, ok
}

// All returns every registered Toolset in registration order.
func (r *Registry) All() []*toolset.Toolset {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*toolset.Toolset, 0, len(r.order))
	for _, path := range r.order {
		out = append(out, r.entries[path])
	}
	return out
}

// Reset clears the registry, for a non-quick re-initialize.
func (r *Registry) Reset() {
	r.mu.Lock()
	r.entries = map[string]*toolset.Toolset{}
	r.order = nil
	r.mu.Unlock()
}

// snapshotEntry is the on-disk shape of one registered Toolset. The
// definition is split into the pieces a rehydrated *definition.File
// needs to behave like the original: its intellisense defaults (for
// render lookups), its name/version (for name-matching), and its
// discover/analysis blocks (for re-running either stream later).
type snapshotEntry struct {
	CompilerPath   string                               `json:"compilerPath"`
	Name           string                               `json:"name"`
	Version        string                               `json:"version"`
	Definition     map[string]any                       `json:"definition"`
	DiscoverKeys   []string                              `json:"discoverKeys,omitempty"`
	DiscoverValues map[string]any                        `json:"discoverValues,omitempty"`
	AnalysisKeys   []string                              `json:"analysisKeys,omitempty"`
	AnalysisValues map[string]any                        `json:"analysisValues,omitempty"`
	Queries        map[string]string                     `json:"queries"`
	Analysis       map[string]intellisense.Configuration `json:"analysis"`
}

// Persist schedules a write of the full registry to
// <storagePath>/detected-toolsets.json. Concurrent calls coalesce into
// a single pending write via singleflight, so a single pending write
// covers any number of set operations.
func (r *Registry) Persist(ctx context.Context) error {
	if r.storagePath == "" {
		return nil
	}
	_, err, _ := r.sf.Do("persist", func() (any, error) {
		return nil, r.writeSnapshot()
	})
	return err
}

func (r *Registry) writeSnapshot() error {
	r.mu.RLock()
	snapshot := make(map[string]snapshotEntry, len(r.entries))
	for path, ts := range r.entries {
		discoverKeys, discoverValues := ts.Definition.DiscoverBlock()
		analysisKeys, analysisValues := ts.Definition.AnalysisBlock()
		snapshot[path] = snapshotEntry{
			CompilerPath:   ts.CompilerPath,
			Name:           ts.Definition.Name,
			Version:        ts.Definition.Version,
			Definition:     ts.Definition.Intellisense,
			DiscoverKeys:   discoverKeys,
			DiscoverValues: discoverValues,
			AnalysisKeys:   analysisKeys,
			AnalysisValues: analysisValues,
			Queries:        ts.ExportQueries(),
			Analysis:       ts.ExportAnalysis(),
		}
	}
	r.mu.RUnlock()

	if err := os.MkdirAll(r.storagePath, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}
	final := filepath.Join(r.storagePath, snapshotFile)
	tmp, err := os.CreateTemp(r.storagePath, "detected-toolsets-*.json.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, final)
}

// Load rehydrates Toolsets from the on-disk snapshot, keyed by
// compilerPath; malformed entries are dropped silently since a
// stale/corrupt cache should never prevent startup.
func (r *Registry) Load(ctx context.Context, resolverFor func(def *definition.File, compilerPath string) render.Resolver) {
	path := filepath.Join(r.storagePath, snapshotFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	var raw map[string]snapshotEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		xlog.Warnf(ctx, "registry: malformed snapshot %s: %v", path, err)
		return
	}
	paths := make([]string, 0, len(raw))
	for p := range raw {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		entry := raw[p]
		if entry.CompilerPath == "" {
			continue
		}
		if _, err := os.Stat(entry.CompilerPath); err != nil {
			// Loading the cache never produces a Toolset whose
			// compilerPath fails to exist when next validated.
			continue
		}
		def := &definition.File{
			Name:         entry.Name,
			Version:      entry.Version,
			Intellisense: entry.Definition,
			SourcePath:   entry.CompilerPath,
		}
		def.SetDiscoverBlock(entry.DiscoverKeys, entry.DiscoverValues)
		def.SetAnalysisBlock(entry.AnalysisKeys, entry.AnalysisValues)
		ts := toolset.New(entry.CompilerPath, def, resolverFor(def, entry.CompilerPath))
		ts.ImportQueries(entry.Queries)
		ts.ImportAnalysis(entry.Analysis)
		r.Set(ts)
	}
}
