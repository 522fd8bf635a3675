// Package definition loads toolset definition files (JSONC documents
// describing one family of compilers) and resolves their inherits and
// conditions.
package definition

import (
	"context"
	"fmt"

	"github.com/fearthecowboy/toolsight/action"
	"github.com/fearthecowboy/toolsight/merge"
	"github.com/fearthecowboy/toolsight/render"
)

// File is a declarative description of one family of compilers.
type File struct {
	Name     string
	Version  string
	Inherits []string

	// Intellisense is the partial default IntelliSense configuration
	// applied before discovery/analysis.
	Intellisense map[string]any

	// discoverKeys/discoverValues and analysisKeys/analysisValues
	// preserve the source order of the discover:/analysis: blocks, for
	// the action parser's positional-priority fallback.
	discoverKeys   []string
	discoverValues map[string]any

	analysisKeys   []string
	analysisValues map[string]any

	// conditionKeys/conditionValues: expression -> fragment, evaluated
	// once before the definition is used.
	conditionKeys   []string
	conditionValues map[string]any

	// SourcePath is the file the definition was loaded from, used for
	// diagnostics. inherits resolves parents by Name, not by path.
	SourcePath string
}

// SetDiscoverBlock installs a discover: block directly, in source
// order, bypassing JSONC decoding. Used by callers (and tests) that
// build a File programmatically rather than from a toolset.*.json
// document.
func (f *File) SetDiscoverBlock(keys []string, values map[string]any) {
	f.discoverKeys = keys
	f.discoverValues = values
}

// SetAnalysisBlock is SetDiscoverBlock's analysis: counterpart.
func (f *File) SetAnalysisBlock(keys []string, values map[string]any) {
	f.analysisKeys = keys
	f.analysisValues = values
}

// DiscoverBlock returns the discover block's keys (in source order)
// and values, for callers that need to serialize or rebuild a File
// (e.g. the registry's on-disk cache).
func (f *File) DiscoverBlock() ([]string, map[string]any) {
	return f.discoverKeys, f.discoverValues
}

// AnalysisBlock is DiscoverBlock's analysis: counterpart.
func (f *File) AnalysisBlock() ([]string, map[string]any) {
	return f.analysisKeys, f.analysisValues
}

// DiscoverActions returns the discover block's priority-sorted action
// stream.
func (f *File) DiscoverActions() []action.Entry {
	return action.Parse(f.discoverKeys, f.discoverValues, action.DiscoverTable)
}

// AnalysisActions returns the analysis block's priority-sorted action
// stream.
func (f *File) AnalysisActions() []action.Entry {
	return action.Parse(f.analysisKeys, f.analysisValues, action.AnalysisTable)
}

// DiscoverField returns a plain (non-action) field of the discover
// block, such as "binary" or "locations".
func (f *File) DiscoverField(name string) (any, bool) {
	v, ok := f.discoverValues[name]
	return v, ok
}

// Field looks up a top-level field of the definition by name, for the
// "definition:" resolver prefix.
func (f *File) Field(name string) (any, bool) {
	switch name {
	case "name":
		return f.Name, true
	case "version":
		return f.Version, true
	}
	if v, ok := f.Intellisense[name]; ok {
		return v, true
	}
	return nil, false
}

// Resolver builds the shared expression resolver for f:
// env/definition/config/host and the empty-prefix fields, bound to
// compilerPath (pass "" before a candidate binary is known, e.g. for
// condition evaluation at load time).
func (f *File) Resolver(compilerPath string) render.Resolver {
	return render.Base(render.BaseOptions{
		CompilerPath:    compilerPath,
		Name:            f.Name,
		DefinitionField: f.Field,
		IntellisenseField: func(field string) (any, bool) {
			v, ok := f.Intellisense[field]
			return v, ok
		},
	})
}

// Clone returns a deep copy of f, so discovery/analysis can mutate a
// per-candidate working copy without affecting the shared, loaded
// definition.
func (f *File) Clone() *File {
	clone := &File{
		Name:           f.Name,
		Version:        f.Version,
		Inherits:       append([]string(nil), f.Inherits...),
		Intellisense:   merge.Clone(f.Intellisense).(map[string]any),
		discoverKeys:   append([]string(nil), f.discoverKeys...),
		discoverValues: merge.Clone(f.discoverValues).(map[string]any),
		analysisKeys:   append([]string(nil), f.analysisKeys...),
		analysisValues: merge.Clone(f.analysisValues).(map[string]any),
		SourcePath:     f.SourcePath,
	}
	clone.conditionKeys = append([]string(nil), f.conditionKeys...)
	clone.conditionValues = merge.Clone(f.conditionValues).(map[string]any)
	return clone
}

// parseFile decodes one JSONC definition document into a File, without
// resolving inherits or conditions (the loader does that once it has
// every definition available to inherit from).
func parseFile(path string, src []byte) (*File, error) {
	root, err := decodeOrdered(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParse, path, err)
	}
	if err := validateSchema(root); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParse, path, err)
	}
	f := &File{SourcePath: path}
	if v, ok := root.Get("name"); ok {
		f.Name, _ = v.(string)
	}
	if v, ok := root.Get("version"); ok {
		f.Version = fmt.Sprint(v)
	}
	f.Inherits = stringList(mustGet(root, "inherits"))
	if v, ok := root.Get("intellisense"); ok {
		if om, ok := v.(*OrderedMap); ok {
			f.Intellisense = om.ToMap()
		}
	}
	if f.Intellisense == nil {
		f.Intellisense = map[string]any{}
	}
	if v, ok := root.Get("discover"); ok {
		if om, ok := v.(*OrderedMap); ok {
			f.discoverKeys = om.Keys()
			f.discoverValues = om.ToMap()
		}
	}
	if v, ok := root.Get("analysis"); ok {
		if om, ok := v.(*OrderedMap); ok {
			f.analysisKeys = om.Keys()
			f.analysisValues = om.ToMap()
		}
	}
	if v, ok := root.Get("conditions"); ok {
		if om, ok := v.(*OrderedMap); ok {
			f.conditionKeys = om.Keys()
			f.conditionValues = om.ToMap()
		}
	}
	if f.Name == "" {
		return nil, fmt.Errorf("%w: %s: missing required \"name\"", ErrParse, path)
	}
	return f, nil
}

func mustGet(m *OrderedMap, key string) any {
	v, _ := m.Get(key)
	return toPlain(v)
}

// StringList normalizes a decoded JSON value (nil, a single string, or
// a list of strings) the way `inherits`/`binary`/`locations` fields
// are normalized, for callers outside this package (discovery's
// candidate-name and location-root lookups).
func StringList(v any) []string {
	return stringList(v)
}

func stringList(v any) []string {
	switch vv := v.(type) {
	case nil:
		return nil
	case string:
		return []string{vv}
	case []any:
		out := make([]string, 0, len(vv))
		for _, e := range vv {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// applyConditions evaluates every condition expression once (with a
// bare resolver, no compiler context) and merges each matching
// fragment into f's intellisense defaults.
func applyConditions(ctx context.Context, f *File, resolver render.Resolver) {
	for _, expr := range f.conditionKeys {
		fragment, _ := f.conditionValues[expr].(map[string]any)
		data := map[string]any{}
		for k, v := range f.Intellisense {
			data[k] = v
		}
		if render.EvaluateExpression(ctx, expr, data, resolver) {
			f.Intellisense = merge.Merge(f.Intellisense, fragment)
		}
	}
}

// resolveInherits deep-merges the base definition(s) into a clone of
// child, base losing on every conflict (child wins). lookup resolves a
// parent by name; missing parents are simply skipped rather than
// failing the whole definition on a dangling inherits reference.
func resolveInherits(child *File, lookup func(name string) (*File, bool), seen map[string]bool) *File {
	if len(child.Inherits) == 0 || seen[child.Name] {
		return child
	}
	seen[child.Name] = true
	merged := &File{
		Name:           child.Name,
		Version:        child.Version,
		Intellisense:   map[string]any{},
		discoverValues: map[string]any{},
		analysisValues: map[string]any{},
		SourcePath:     child.SourcePath,
	}
	for _, parentName := range child.Inherits {
		parent, ok := lookup(parentName)
		if !ok {
			continue
		}
		parent = resolveInherits(parent, lookup, seen)
		merged.Intellisense = merge.Merge(merged.Intellisense, parent.Intellisense)
		merged.discoverValues = merge.Merge(merged.discoverValues, parent.discoverValues)
		merged.discoverKeys = mergeKeyOrder(merged.discoverKeys, parent.discoverKeys)
		merged.analysisValues = merge.Merge(merged.analysisValues, parent.analysisValues)
		merged.analysisKeys = mergeKeyOrder(merged.analysisKeys, parent.analysisKeys)
	}
	merged.Intellisense = merge.Merge(merged.Intellisense, child.Intellisense)
	merged.discoverValues = merge.Merge(merged.discoverValues, child.discoverValues)
	merged.discoverKeys = mergeKeyOrder(merged.discoverKeys, child.discoverKeys)
	merged.analysisValues = merge.Merge(merged.analysisValues, child.analysisValues)
	merged.analysisKeys = mergeKeyOrder(merged.analysisKeys, child.analysisKeys)
	merged.conditionKeys = child.conditionKeys
	merged.conditionValues = child.conditionValues
	return merged
}

func mergeKeyOrder(base, addition []string) []string {
	seen := map[string]bool{}
	for _, k := range base {
		seen[k] = true
	}
	out := append([]string(nil), base...)
	for _, k := range addition {
		if !seen[k] {
			out = append(out, k)
			seen[k] = true
		}
	}
	return out
}
