// Package regexutil holds small regexp helpers shared by every package
// that compiles a definition-supplied pattern (binscan, and analysis's
// command/query actions).
package regexutil

import "regexp"

// namedCapture matches a PCRE-style named capture group opening,
// `(?<name>`, the form toolset definitions use throughout (e.g. a
// version capture written `(?<version>[\d\.]+)`). Go's regexp package
// only accepts the `(?P<name>` spelling and otherwise rejects the
// pattern as invalid syntax, so this is left unmatched: a pattern
// already written `(?P<name>` passes through unchanged.
var namedCapture = regexp.MustCompile(`\(\?<([^>]+)>`)

// TranslateNamedCaptures rewrites `(?<name>...)` named captures to Go's
// `(?P<name>...)` form. Callers should apply this to a rendered pattern
// before passing it to regexp.Compile.
func TranslateNamedCaptures(pattern string) string {
	return namedCapture.ReplaceAllString(pattern, `(?P<$1>`)
}
