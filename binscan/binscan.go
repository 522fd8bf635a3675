// Package binscan implements a binary-safe grep: it streams over the
// raw bytes of an executable, splitting on NUL rather than newline,
// and yields the named capture groups of successive regex matches
// without ever decoding the file as UTF-8 text.
package binscan

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/fearthecowboy/toolsight/regexutil"
	"github.com/fearthecowboy/toolsight/xlog"
)

// Match is one regex match against a single NUL-delimited record of a
// scanned binary, carrying the named capture groups the caller's
// pattern declared.
type Match struct {
	// Groups maps each named capture group to its matched text. Only
	// groups given a `(?P<name>...)` name appear here; positional
	// captures are discarded since callers only ever reference
	// expression data by name.
	Groups map[string]string
}

// compile builds a case-insensitive regexp from pattern. Definitions
// write named captures PCRE-style, `(?<name>...)`, so that's
// translated to Go's `(?P<name>...)` spelling before compiling.
func compile(pattern string) (*regexp.Regexp, error) {
	rx, err := regexp.Compile(`(?i)` + regexutil.TranslateNamedCaptures(pattern))
	if err != nil {
		return nil, fmt.Errorf("binscan: bad pattern %q: %w", pattern, err)
	}
	return rx, nil
}

// splitNUL is a bufio.SplitFunc that treats 0x00 as the record
// separator, mirroring what a binary-mode grep does with a binary
// file: it never requires the data between separators to be valid
// UTF-8.
func splitNUL(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := indexByte(data, 0); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

// Scan streams path, splitting its bytes on NUL, and calls yield once
// per record that matches pattern. yield returning false stops the
// scan early, which lazy single-match callers use to avoid reading
// the rest of a large binary.
func Scan(ctx context.Context, path, pattern string, yield func(Match) bool) error {
	rx, err := compile(pattern)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("binscan: open %s: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	sc.Split(splitNUL)
	names := rx.SubexpNames()
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		record := sc.Bytes()
		m := rx.FindSubmatch(record)
		if m == nil {
			continue
		}
		match := Match{Groups: map[string]string{}}
		for i, name := range names {
			if name == "" || i >= len(m) {
				continue
			}
			match.Groups[name] = string(m[i])
		}
		if !yield(match) {
			return nil
		}
	}
	if err := sc.Err(); err != nil && err != io.EOF {
		xlog.Debugf(ctx, "binscan: %s: %v", path, err)
		return fmt.Errorf("binscan: scan %s: %w", path, err)
	}
	return nil
}

// First returns the first match of pattern in path, stopping the scan
// as soon as one is found.
func First(ctx context.Context, path, pattern string) (Match, bool, error) {
	var found Match
	ok := false
	err := Scan(ctx, path, pattern, func(m Match) bool {
		found, ok = m, true
		return false
	})
	return found, ok, err
}
