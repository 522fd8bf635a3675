// Package action decodes the ordered, flagged keys of a definition
// block (discover/analysis) into a priority-sorted action stream. Each
// key is an action word, optionally followed by `:` and `,`-delimited
// flags and a `#comment`, matched against a table of legal
// (action prefix, flags) pairs for that block kind.
package action

import (
	"sort"
	"strconv"
	"strings"
)

// Entry is one parsed action-block entry: the matched action name, its
// raw value (the action block, typically a map[string]any), the flags
// retained for that action, and its resolved priority.
type Entry struct {
	Action   string
	Block    any
	Flags    map[string]string
	Priority int
}

// Spec declares one legal action for a block: Name is the canonical
// action identifier, Prefix is the first-four-letters (lowercased)
// match key, and LegalFlags is the set of flag names retained for
// this action.
type Spec struct {
	Name       string
	Prefix     string
	LegalFlags map[string]bool
}

// Table is an ordered set of legal actions for one block kind
// (discover or analysis). Prefix matching tries entries in order, so
// put more specific prefixes first if ambiguity is possible.
type Table []Spec

// Parse decodes block (the ordered discover:/analysis: mapping) into a
// priority-sorted action stream. Go maps have no inherent order, so
// callers must supply keys in source order via orderedKeys (typically
// produced by a JSON decoder that preserves key order, see
// definition/orderedmap.go).
func Parse(orderedKeys []string, values map[string]any, table Table) []Entry {
	var entries []Entry
	for i, key := range orderedKeys {
		word, flagPart, _ := splitKey(key)
		spec, ok := matchAction(word, table)
		if !ok {
			continue
		}
		flags := parseFlags(flagPart, spec.LegalFlags)
		priority := i
		if p, ok := flags["priority"]; ok {
			if n, err := strconv.Atoi(p); err == nil {
				priority = n
			}
		}
		entries = append(entries, Entry{
			Action:   spec.Name,
			Block:    values[key],
			Flags:    flags,
			Priority: priority,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Priority < entries[j].Priority
	})
	return entries
}

// splitKey decodes "word[:flag[,flag]*][#comment]" into its word,
// raw-flags substring, and comment.
func splitKey(key string) (word, flagPart, comment string) {
	if i := strings.IndexByte(key, '#'); i >= 0 {
		comment = key[i+1:]
		key = key[:i]
	}
	if i := strings.IndexByte(key, ':'); i >= 0 {
		return key[:i], key[i+1:], comment
	}
	return key, "", comment
}

func matchAction(word string, table Table) (Spec, bool) {
	w := strings.ToLower(word)
	prefix := w
	if len(prefix) > 4 {
		prefix = prefix[:4]
	}
	for _, spec := range table {
		if strings.HasPrefix(strings.ToLower(spec.Prefix), prefix) {
			return spec, true
		}
	}
	return Spec{}, false
}

func parseFlags(flagPart string, legal map[string]bool) map[string]string {
	flags := map[string]string{}
	if flagPart == "" {
		return flags
	}
	for _, f := range strings.Split(flagPart, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		name, value := f, "true"
		if i := strings.IndexByte(f, '='); i >= 0 {
			name, value = f[:i], f[i+1:]
		}
		if legal != nil && !legal[name] && name != "priority" {
			continue
		}
		flags[name] = value
	}
	return flags
}

// HasFlag reports whether flag is present (as a bare flag or
// flag=value) on the entry.
func (e Entry) HasFlag(name string) bool {
	_, ok := e.Flags[name]
	return ok
}

// BlockStrings normalizes an action's block into an ordered list of
// strings. It is the common shape for action kinds whose block is
// simply "one or more expression/task names" (the discover block's
// `expression` action, the analysis block's `task` action): a single
// string, or ordinarily a JSON array (preserving the order semantics
// "oneof"/sequential execution need). A bare map is tolerated with
// its keys taken in sorted order as a best effort, since a plain JSON
// object has no preserved member order once decoded.
func BlockStrings(block any) []string {
	switch b := block.(type) {
	case string:
		return []string{b}
	case []any:
		out := make([]string, 0, len(b))
		for _, v := range b {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case map[string]any:
		keys := make([]string, 0, len(b))
		for k := range b {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return keys
	default:
		return nil
	}
}

// DiscoverTable is the legal action set for a definition's discover block.
var DiscoverTable = Table{
	{Name: "match", Prefix: "match", LegalFlags: map[string]bool{"optional": true, "priority": true, "oneof": true}},
	{Name: "expression", Prefix: "expr", LegalFlags: map[string]bool{"oneof": true, "optional": true, "priority": true, "folder": true, "file": true}},
}

// AnalysisTable is the legal action set for a toolset's analysis block.
var AnalysisTable = Table{
	{Name: "task", Prefix: "task", LegalFlags: map[string]bool{"priority": true, "c": true, "cpp": true, "c++": true}},
	{Name: "query", Prefix: "quer", LegalFlags: map[string]bool{"priority": true, "c": true, "cpp": true, "c++": true}},
	{Name: "command", Prefix: "comm", LegalFlags: map[string]bool{"priority": true, "c": true, "cpp": true, "c++": true, "no_consume": true}},
	{Name: "expression", Prefix: "expr", LegalFlags: map[string]bool{"priority": true, "c": true, "cpp": true, "c++": true}},
}

// LanguageSkipped reports whether entry should be skipped for the
// given effective language ("c", "cpp", or "c++"): a block flagged
// "c" only runs for C, a block flagged "cpp"/"c++" only runs for C++.
func LanguageSkipped(e Entry, language string) bool {
	_, wantC := e.Flags["c"]
	_, wantCpp1 := e.Flags["cpp"]
	_, wantCpp2 := e.Flags["c++"]
	wantCpp := wantCpp1 || wantCpp2
	if !wantC && !wantCpp {
		return false
	}
	isCpp := language == "cpp" || language == "c++"
	if wantC && language != "c" {
		return true
	}
	if wantCpp && !isCpp {
		return true
	}
	return false
}
