// Package toolset implements the Toolset type: one identified
// compiler, carrying the cloned definition it was discovered under,
// the per-candidate resolver built from that definition, and the two
// caches the analysis engine reads and writes.
package toolset

import (
	"sync"

	"github.com/fearthecowboy/toolsight/definition"
	"github.com/fearthecowboy/toolsight/intellisense"
	"github.com/fearthecowboy/toolsight/render"
)

// Toolset is one identified compiler installation.
type Toolset struct {
	// CompilerPath is the canonical, absolute path to the compiler
	// binary this Toolset was discovered from. Immutable after
	// construction.
	CompilerPath string

	// Definition is this Toolset's own clone of the DefinitionFile it
	// was discovered under, carrying any fragments merged in during
	// discovery (e.g. a `match` block's version/architecture).
	Definition *definition.File

	// Resolver is the shared expression resolver closure built for this
	// Toolset: env/definition/config/host/compilerPath and the
	// definition's own intellisense fields.
	Resolver render.Resolver

	mu            sync.Mutex
	queryCache    map[string]string
	analysisCache map[string]intellisense.Configuration
}

// New constructs a Toolset bound to compilerPath and def (already
// cloned and condition-resolved by the caller).
func New(compilerPath string, def *definition.File, resolver render.Resolver) *Toolset {
	return &Toolset{
		CompilerPath:  compilerPath,
		Definition:    def,
		Resolver:      resolver,
		queryCache:    map[string]string{},
		analysisCache: map[string]intellisense.Configuration{},
	}
}

// Name is the Toolset's stable identity:
// "<definition.name>/<version>/<architecture>/<hostArchitecture>".
func (t *Toolset) Name() string {
	arch, _ := t.Definition.Field("architecture")
	hostArch, _ := t.Definition.Field("hostArchitecture")
	return t.Definition.Name + "/" + t.Definition.Version + "/" + toStringOrEmpty(arch) + "/" + toStringOrEmpty(hostArch)
}

func toStringOrEmpty(v any) string {
	s, _ := v.(string)
	return s
}

// CachedQuery returns a previously captured query's combined output.
func (t *Toolset) CachedQuery(command string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.queryCache[command]
	return v, ok
}

// StoreQuery records a query's combined output under the rendered
// command that produced it.
func (t *Toolset) StoreQuery(command, output string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.queryCache[command] = output
}

// CachedAnalysis returns a previously computed configuration for a
// canonicalized argv key.
func (t *Toolset) CachedAnalysis(key string) (intellisense.Configuration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.analysisCache[key]
	return v, ok
}

// StoreAnalysis records a computed configuration under its
// canonicalized argv key.
func (t *Toolset) StoreAnalysis(key string, cfg intellisense.Configuration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.analysisCache[key] = cfg
}

// ExportQueries returns a copy of the query cache, for snapshotting
// (registry.Registry.Persist).
func (t *Toolset) ExportQueries() map[string]string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]string, len(t.queryCache))
	for k, v := range t.queryCache {
		out[k] = v
	}
	return out
}

// ExportAnalysis returns a copy of the analysis cache, for
// snapshotting.
func (t *Toolset) ExportAnalysis() map[string]intellisense.Configuration {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]intellisense.Configuration, len(t.analysisCache))
	for k, v := range t.analysisCache {
		out[k] = v
	}
	return out
}

// ImportQueries restores a snapshotted query cache (registry.Load).
func (t *Toolset) ImportQueries(queries map[string]string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for k, v := range queries {
		t.queryCache[k] = v
	}
}

// ImportAnalysis restores a snapshotted analysis cache.
func (t *Toolset) ImportAnalysis(analysis map[string]intellisense.Configuration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for k, v := range analysis {
		t.analysisCache[k] = v
	}
}
