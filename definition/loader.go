package definition

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fearthecowboy/toolsight/xlog"
)

// Load reads every toolset.*.json file under roots, parses it,
// resolves inherits transitively across the whole loaded set, and
// evaluates conditions once per definition with a bare resolver (no
// compiler context). Malformed files are logged and skipped; a root
// directory that doesn't exist is likewise skipped rather than failing
// the whole load, since configured roots routinely include optional,
// user-specific locations.
func Load(ctx context.Context, roots []string) []*File {
	var raw []*File
	for _, root := range roots {
		matches, err := filepath.Glob(filepath.Join(root, "toolset.*.json"))
		if err != nil {
			xlog.Warnf(ctx, "definition: bad glob root %q: %v", root, err)
			continue
		}
		for _, path := range matches {
			src, err := os.ReadFile(path)
			if err != nil {
				xlog.Warnf(ctx, "definition: read %q: %v", path, err)
				continue
			}
			f, err := parseFile(path, src)
			if err != nil {
				xlog.Warnf(ctx, "definition: %v", err)
				continue
			}
			raw = append(raw, f)
		}
	}

	byName := make(map[string]*File, len(raw))
	for _, f := range raw {
		byName[f.Name] = f
	}
	lookup := func(name string) (*File, bool) {
		f, ok := byName[name]
		return f, ok
	}

	resolved := make([]*File, 0, len(raw))
	for _, f := range raw {
		merged := resolveInherits(f, lookup, map[string]bool{})
		// Conditions are evaluated with a bare resolver, no compiler
		// context, since no candidate binary is known yet.
		applyConditions(ctx, merged, merged.Resolver(""))
		resolved = append(resolved, merged)
	}
	return resolved
}
