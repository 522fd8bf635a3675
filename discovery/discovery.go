// Package discovery enumerates candidate compiler binaries for a
// toolset definition and verifies each one against the definition's
// discover action stream, producing zero or more Toolsets. Candidates
// are found with the finder package and checked concurrently with an
// errgroup.WithContext fan-out-and-join.
package discovery

import (
	"context"
	"os"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/fearthecowboy/toolsight/action"
	"github.com/fearthecowboy/toolsight/binscan"
	"github.com/fearthecowboy/toolsight/definition"
	"github.com/fearthecowboy/toolsight/finder"
	"github.com/fearthecowboy/toolsight/merge"
	"github.com/fearthecowboy/toolsight/render"
	"github.com/fearthecowboy/toolsight/toolset"
	"github.com/fearthecowboy/toolsight/xlog"
)

const recursiveDepth = 10

// Discover runs candidate enumeration and verification for one
// definition, returning every candidate that completed the discover
// block successfully. Per-candidate failures emit nothing and are not
// reported upward.
func Discover(ctx context.Context, def *definition.File) ([]*toolset.Toolset, error) {
	names := definition.StringList(mustField(def, "binary"))
	if len(names) == 0 {
		return nil, nil
	}

	seedResolver := def.Resolver("")

	f := finder.New(names, finder.Options{Executable: true, ExecutableExtensions: executableExtensions()})
	f.Scan(ctx, 0, pathDirs()...)
	if locations := renderedLocations(ctx, def, seedResolver); len(locations) > 0 {
		f.Scan(ctx, recursiveDepth, locations...)
	}
	if roots := platformRoots(); len(roots) > 0 {
		f.Scan(ctx, recursiveDepth, roots...)
	}

	var mu sync.Mutex
	var found []*toolset.Toolset
	eg, ectx := errgroup.WithContext(ctx)
	for candidate := range f.Results() {
		candidate := candidate
		eg.Go(func() error {
			ts, ok := verifyCandidate(ectx, def, candidate)
			if ok {
				mu.Lock()
				found = append(found, ts)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return found, nil
}

func mustField(def *definition.File, name string) any {
	v, _ := def.DiscoverField(name)
	return v
}

func renderedLocations(ctx context.Context, def *definition.File, resolver render.Resolver) []string {
	raw := definition.StringList(mustField(def, "locations"))
	out := make([]string, 0, len(raw))
	for _, loc := range raw {
		r, err := render.Render(ctx, loc, resolver)
		if err != nil {
			xlog.Warnf(ctx, "discovery: render location %q: %v", loc, err)
			continue
		}
		out = append(out, r)
	}
	return out
}

// platformRoots are extra, platform-specific search roots beyond PATH.
func platformRoots() []string {
	switch runtime.GOOS {
	case "windows":
		var roots []string
		for _, envVar := range []string{"ProgramFiles", "ProgramW6432", "ProgramFiles(x86)", "ProgramFiles(Arm)"} {
			if v := os.Getenv(envVar); v != "" {
				roots = append(roots, v)
			}
		}
		return roots
	case "linux":
		return []string{"/usr/lib/"}
	default:
		return nil
	}
}

func pathDirs() []string {
	return strings.Split(os.Getenv("PATH"), string(os.PathListSeparator))
}

// executableExtensions lists the suffixes Windows treats a file's
// stem as carrying, sourced from PATHEXT the way cmd.exe itself
// resolves a bare command name; POSIX has no such notion so this is
// only consulted when GOOS is windows.
func executableExtensions() []string {
	if raw := os.Getenv("PATHEXT"); raw != "" {
		return strings.Split(raw, string(os.PathListSeparator))
	}
	return []string{".exe", ".bat", ".cmd", ".com"}
}

// Verify runs def's discover action stream against one already-known
// candidate path, for identifying a compiler given directly by path
// rather than found by searching.
func Verify(ctx context.Context, def *definition.File, candidatePath string) (*toolset.Toolset, bool) {
	return verifyCandidate(ctx, def, candidatePath)
}

// verifyCandidate runs the discover action stream against one
// candidate path.
func verifyCandidate(ctx context.Context, def *definition.File, candidatePath string) (*toolset.Toolset, bool) {
	resolver := def.Resolver(candidatePath)

	fragment := map[string]any{}
	for _, entry := range def.DiscoverActions() {
		switch entry.Action {
		case "match":
			frag, ok := runMatch(ctx, candidatePath, entry, resolver)
			if !ok {
				return nil, false
			}
			fragment = merge.Merge(fragment, frag)
		case "expression":
			if !runExpression(ctx, entry, resolver) {
				return nil, false
			}
		}
	}

	cloned := def.Clone()
	cloned.Intellisense = merge.Merge(cloned.Intellisense, fragment)
	ts := toolset.New(candidatePath, cloned, resolver)
	return ts, true
}

// runMatch implements the `match` discover action.
func runMatch(ctx context.Context, path string, entry action.Entry, resolver render.Resolver) (map[string]any, bool) {
	block, ok := entry.Block.(map[string]any)
	if !ok {
		return nil, true
	}
	oneof := entry.HasFlag("oneof")
	optional := entry.HasFlag("optional")

	acc := map[string]any{}
	matchedAny := false
	allMatched := true
	for regex, fragVal := range block {
		fragment, _ := fragVal.(map[string]any)
		renderedRegex, err := render.Render(ctx, regex, resolver)
		if err != nil {
			allMatched = false
			continue
		}
		m, found, err := binscan.First(ctx, path, renderedRegex)
		if err != nil || !found {
			allMatched = false
			continue
		}
		matchedAny = true

		data := make(map[string]any, len(m.Groups))
		for k, v := range m.Groups {
			data[k] = v
		}
		captureResolver := render.Chain(render.ResolverFunc(func(_ context.Context, prefix, expr string) (any, bool) {
			if prefix != "" {
				return nil, false
			}
			v, ok := data[expr]
			return v, ok
		}), resolver)
		rendered, err := render.RecursiveRender(ctx, fragment, captureResolver)
		if err == nil {
			if rf, ok := rendered.(map[string]any); ok {
				acc = merge.Merge(acc, rf)
			}
		}
		if oneof {
			break
		}
	}
	if oneof {
		if !matchedAny && !optional {
			return nil, false
		}
		return acc, true
	}
	if !allMatched && !optional {
		return nil, false
	}
	return acc, true
}

// runExpression implements the `expression` discover action.
func runExpression(ctx context.Context, entry action.Entry, resolver render.Resolver) bool {
	exprs := action.BlockStrings(entry.Block)
	oneof := entry.HasFlag("oneof")
	optional := entry.HasFlag("optional")
	folder := entry.HasFlag("folder")
	file := entry.HasFlag("file")

	succeededAny := false
	for _, expr := range exprs {
		rendered, err := render.Render(ctx, expr, resolver)
		ok := err == nil && rendered != ""
		if ok && folder {
			info, statErr := os.Stat(rendered)
			ok = statErr == nil && info.IsDir()
		}
		if ok && file {
			info, statErr := os.Stat(rendered)
			ok = statErr == nil && !info.IsDir()
		}
		if ok {
			succeededAny = true
			if oneof {
				break
			}
			continue
		}
		if !oneof && !optional {
			return false
		}
	}
	if oneof {
		return succeededAny || optional
	}
	return true
}
