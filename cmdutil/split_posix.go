//go:build unix

package cmdutil

import "mvdan.cc/sh/v3/shell"

// Split tokenizes a POSIX shell-style command line with shell.Fields
// for gcc/clang response-file and `_CL_`-equivalent argument inlining.
// Quoting is honored, every `$VAR` expands to the empty string, and
// shell.Fields' brace, tilde and glob expansion apply.
func Split(cmdline string) ([]string, error) {
	return shell.Fields(cmdline, func(string) string { return "" })
}
