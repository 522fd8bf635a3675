// Package toolsight is the public facade: it loads toolchain
// definitions, drives discovery into a persistent registry, and runs
// per-invocation analysis on demand.
package toolsight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/fearthecowboy/toolsight/analysis"
	"github.com/fearthecowboy/toolsight/definition"
	"github.com/fearthecowboy/toolsight/discovery"
	"github.com/fearthecowboy/toolsight/hostconfig"
	"github.com/fearthecowboy/toolsight/intellisense"
	"github.com/fearthecowboy/toolsight/registry"
	"github.com/fearthecowboy/toolsight/render"
	"github.com/fearthecowboy/toolsight/toolset"
	"github.com/fearthecowboy/toolsight/xlog"
)

// ErrNotInitialized is returned by every facade method other than
// Initialize when called before initialization has completed.
var ErrNotInitialized = errors.New("toolsight: not initialized")

// ErrNoSuchToolset is returned by IdentifyToolset when candidate
// matches no known or discoverable toolset.
var ErrNoSuchToolset = errors.New("toolsight: no such toolset")

// ErrDefinitionParse wraps a malformed definition file. It is only
// ever logged; it is exported so a caller inspecting logs with
// errors.As can recognize the kind, not because Initialize returns it.
var ErrDefinitionParse = definition.ErrParse

// InitOptions configures Initialize.
type InitOptions struct {
	// Quick, when set, preserves the existing registry and in-progress
	// search state across re-initialization instead of resetting them.
	Quick bool
	// StoragePath is the directory the persistent cache and host
	// settings file live under. Empty disables persistence.
	StoragePath string
}

// Engine is process-wide toolchain discovery/analysis state. The zero
// value is not usable; construct with New.
type Engine struct {
	mu           sync.Mutex
	initialized  bool
	initErr      error
	initializing chan struct{}

	storagePath  string
	definitions  []*definition.File
	registry     *registry.Registry
	hostSettings *hostconfig.Settings

	searching   map[string]chan struct{}
	identifying map[string]chan identifyResult
}

type identifyResult struct {
	ts  *toolset.Toolset
	err error
}

// New returns an uninitialized Engine.
func New() *Engine {
	return &Engine{
		searching:   map[string]chan struct{}{},
		identifying: map[string]chan identifyResult{},
	}
}

// Initialize loads definitions from configFolders and the persisted
// cache under opts.StoragePath. It is idempotent: a second call while
// the first is still running awaits the same in-flight initialization
// rather than starting a duplicate one, and a second call after
// completion simply re-runs (picking up any new definition files)
// unless opts.Quick preserves the prior registry.
func (e *Engine) Initialize(ctx context.Context, configFolders []string, opts InitOptions) (map[string]*toolset.Toolset, error) {
	e.mu.Lock()
	if ch := e.initializing; ch != nil {
		e.mu.Unlock()
		<-ch
		e.mu.Lock()
		defer e.mu.Unlock()
		return e.snapshotLocked(), e.initErr
	}
	ch := make(chan struct{})
	e.initializing = ch
	e.mu.Unlock()

	err := e.doInitialize(ctx, configFolders, opts)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.initErr = err
	e.initialized = err == nil
	e.initializing = nil
	close(ch)
	return e.snapshotLocked(), err
}

func (e *Engine) doInitialize(ctx context.Context, configFolders []string, opts InitOptions) error {
	e.mu.Lock()
	if !opts.Quick || e.registry == nil {
		e.registry = registry.New(opts.StoragePath)
		e.searching = map[string]chan struct{}{}
		e.identifying = map[string]chan identifyResult{}
	}
	e.storagePath = opts.StoragePath
	e.mu.Unlock()

	hostSettings, err := hostconfig.Load(opts.StoragePath)
	if err != nil {
		xlog.Warnf(ctx, "toolsight: host settings: %v", err)
		hostSettings = nil
	}

	definitions := definition.Load(ctx, configFolders)

	e.mu.Lock()
	e.hostSettings = hostSettings
	e.definitions = definitions
	reg := e.registry
	e.mu.Unlock()

	reg.Load(ctx, e.resolverFor)
	return nil
}

func (e *Engine) resolverFor(def *definition.File, compilerPath string) render.Resolver {
	e.mu.Lock()
	hostSettings := e.hostSettings
	e.mu.Unlock()
	base := def.Resolver(compilerPath)
	if hostSettings == nil {
		return base
	}
	return render.Chain(render.ResolverFunc(func(ctx context.Context, prefix, expr string) (any, bool) {
		if prefix != "config" {
			return nil, false
		}
		return hostSettings.Lookup(expr)
	}), base)
}

func (e *Engine) isInitialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initialized
}

func (e *Engine) snapshotLocked() map[string]*toolset.Toolset {
	if e.registry == nil {
		return map[string]*toolset.Toolset{}
	}
	out := map[string]*toolset.Toolset{}
	for _, ts := range e.registry.All() {
		out[ts.CompilerPath] = ts
	}
	return out
}

// GetToolsets returns every registered toolset, first running
// discovery for any loaded definition that hasn't been searched yet
// (once per definition, for the lifetime of the Engine or until the
// next non-quick Initialize). Concurrent callers share the same
// in-flight searches.
func (e *Engine) GetToolsets(ctx context.Context) (map[string]*toolset.Toolset, error) {
	if !e.isInitialized() {
		return nil, ErrNotInitialized
	}

	e.mu.Lock()
	defs := append([]*definition.File(nil), e.definitions...)
	reg := e.registry
	e.mu.Unlock()

	waiters := make([]chan struct{}, 0, len(defs))
	for _, def := range defs {
		waiters = append(waiters, e.startSearch(ctx, def, reg))
	}
	for _, ch := range waiters {
		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err := reg.Persist(ctx); err != nil {
		xlog.Warnf(ctx, "toolsight: persist registry: %v", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked(), nil
}

// startSearch returns the channel that closes when def's discovery
// search completes, starting that search if it hasn't already begun.
func (e *Engine) startSearch(ctx context.Context, def *definition.File, reg *registry.Registry) chan struct{} {
	key := def.SourcePath
	if key == "" {
		key = def.Name
	}
	e.mu.Lock()
	if ch, ok := e.searching[key]; ok {
		e.mu.Unlock()
		return ch
	}
	ch := make(chan struct{})
	e.searching[key] = ch
	e.mu.Unlock()

	go func() {
		defer close(ch)
		found, err := discovery.Discover(ctx, def)
		if err != nil {
			// Discovery failure for a definition never escapes the
			// facade; it is logged and that definition simply
			// contributes no toolsets.
			xlog.Warnf(ctx, "toolsight: discover %q: %v", def.Name, err)
			return
		}
		for _, ts := range found {
			reg.Set(ts)
		}
	}()
	return ch
}

// IdentifyToolset resolves candidate to a Toolset:
//   - if candidate is an absolute path to an existing executable, its
//     definitions are searched directly (definitions whose
//     discover.binary includes the stem, Windows-insensitive to .exe);
//   - otherwise candidate is matched as a glob pattern (only `*`
//     wildcards) against registered toolsets' Name, preferring
//     registered toolsets and retrying a fresh search once on a miss.
//
// Concurrent calls for the same candidate share one in-flight result.
func (e *Engine) IdentifyToolset(ctx context.Context, candidate string) (*toolset.Toolset, error) {
	if !e.isInitialized() {
		return nil, ErrNotInitialized
	}

	e.mu.Lock()
	if ch, ok := e.identifying[candidate]; ok {
		e.mu.Unlock()
		// Take the single buffered result and put it back for the
		// next waiter.
		res := <-ch
		ch <- res
		return res.ts, res.err
	}
	ch := make(chan identifyResult, 1)
	e.identifying[candidate] = ch
	e.mu.Unlock()

	ts, err := e.identifyUncached(ctx, candidate)

	e.mu.Lock()
	delete(e.identifying, candidate)
	e.mu.Unlock()
	ch <- identifyResult{ts: ts, err: err}
	return ts, err
}

func (e *Engine) identifyUncached(ctx context.Context, candidate string) (*toolset.Toolset, error) {
	if isExistingExecutable(candidate) {
		return e.identifyByBinary(ctx, candidate)
	}

	if _, err := e.GetToolsets(ctx); err != nil {
		return nil, err
	}
	if ts := matchByName(e.orderedToolsets(), candidate); ts != nil {
		return ts, nil
	}
	// Registry had nothing matching yet; GetToolsets above already
	// ran every pending search, so a second attempt only helps if a
	// concurrent Initialize added new definitions mid-flight. Retry
	// once.
	if _, err := e.GetToolsets(ctx); err != nil {
		return nil, err
	}
	if ts := matchByName(e.orderedToolsets(), candidate); ts != nil {
		return ts, nil
	}
	return nil, ErrNoSuchToolset
}

// orderedToolsets returns every registered toolset in registration
// order, the order ties in matchByName break on.
func (e *Engine) orderedToolsets() []*toolset.Toolset {
	e.mu.Lock()
	reg := e.registry
	e.mu.Unlock()
	if reg == nil {
		return nil
	}
	return reg.All()
}

func (e *Engine) identifyByBinary(ctx context.Context, candidatePath string) (*toolset.Toolset, error) {
	e.mu.Lock()
	defs := append([]*definition.File(nil), e.definitions...)
	e.mu.Unlock()

	stem := executableStem(candidatePath)
	for _, def := range defs {
		binary, ok := def.DiscoverField("binary")
		if !ok {
			continue
		}
		names := definition.StringList(binary)
		matches := false
		for _, name := range names {
			if strings.EqualFold(executableStem(name), stem) {
				matches = true
				break
			}
		}
		if !matches {
			continue
		}
		if ts, ok := discovery.Verify(ctx, def, candidatePath); ok {
			e.registry.Set(ts)
			return ts, nil
		}
	}
	return nil, ErrNoSuchToolset
}

func isExistingExecutable(candidate string) bool {
	if !filepath.IsAbs(candidate) {
		return false
	}
	info, err := os.Stat(candidate)
	if err != nil || info.IsDir() {
		return false
	}
	return true
}

func executableStem(p string) string {
	base := filepath.Base(p)
	if runtime.GOOS == "windows" && strings.EqualFold(filepath.Ext(base), ".exe") {
		base = base[:len(base)-len(filepath.Ext(base))]
	}
	return base
}

// matchByName finds the toolset whose Name matches pattern (only `*`
// wildcards supported), preferring higher semver-ish version strings
// and, among ties, earlier-registered toolsets. toolsets must already
// be in registration order for the tie-break to be deterministic.
func matchByName(toolsets []*toolset.Toolset, pattern string) *toolset.Toolset {
	var matched []*toolset.Toolset
	for _, ts := range toolsets {
		if globMatch(pattern, ts.Name()) {
			matched = append(matched, ts)
		}
	}
	if len(matched) == 0 {
		return nil
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return compareVersions(matched[i].Definition.Version, matched[j].Definition.Version) > 0
	})
	return matched[0]
}

// globMatch implements "only `*` wildcards" pattern matching, via
// path.Match's existing glob semantics restricted to `*`.
func globMatch(pattern, name string) bool {
	ok, err := path.Match(pattern, name)
	return err == nil && ok
}

// compareVersions orders two dotted version strings descending;
// non-numeric or ragged components compare as equal at that position
// rather than erroring, since Toolset names are not guaranteed to
// carry strict semver.
func compareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) || i < len(bs); i++ {
		var av, bv int
		if i < len(as) {
			fmt.Sscanf(as[i], "%d", &av)
		}
		if i < len(bs) {
			fmt.Sscanf(bs[i], "%d", &bv)
		}
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}
	return 0
}

// GetIntellisenseConfiguration runs Toolset.Resolver/analysis over
// argv for ts.
func GetIntellisenseConfiguration(ctx context.Context, ts *toolset.Toolset, argv []string, opts analysis.Options) (intellisense.Configuration, error) {
	opts.CompilerArgs = argv
	return analysis.Analyze(ctx, ts, opts)
}
