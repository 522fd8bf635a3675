package binscan

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeBinary(t *testing.T, records ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "candidate.bin")
	var buf []byte
	for _, r := range records {
		buf = append(buf, []byte(r)...)
		buf = append(buf, 0)
	}
	if err := os.WriteFile(path, buf, 0o755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestFirstReturnsFirstMatch(t *testing.T) {
	path := writeBinary(t, "garbage\x01\x02", "clang version (?P<version>\\d+\\.\\d+\\.\\d+)", "clang version 17.0.6 (tag)", "trailing junk")
	m, ok, err := First(context.Background(), path, `clang version (?P<version>[0-9.]+)`)
	if err != nil {
		t.Fatalf("First: %v", err)
	}
	if !ok {
		t.Fatalf("expected a match")
	}
	if got := m.Groups["version"]; got != "17.0.6" {
		t.Fatalf("version = %q, want 17.0.6", got)
	}
}

func TestFirstTranslatesNamedCaptureSyntax(t *testing.T) {
	path := writeBinary(t, "garbage", "clang version 17.0.6 (tag)")
	m, ok, err := First(context.Background(), path, `clang version (?<version>[0-9.]+)`)
	if err != nil {
		t.Fatalf("First: %v", err)
	}
	if !ok {
		t.Fatalf("expected a match")
	}
	if got := m.Groups["version"]; got != "17.0.6" {
		t.Fatalf("version = %q, want 17.0.6", got)
	}
}

func TestFirstCaseInsensitive(t *testing.T) {
	path := writeBinary(t, "MICROSOFT (R) C/C++ OPTIMIZING COMPILER")
	_, ok, err := First(context.Background(), path, `microsoft \(r\) c/c\+\+`)
	if err != nil {
		t.Fatalf("First: %v", err)
	}
	if !ok {
		t.Fatalf("expected case-insensitive match")
	}
}

func TestFirstNoMatch(t *testing.T) {
	path := writeBinary(t, "nothing interesting here")
	_, ok, err := First(context.Background(), path, `clang version`)
	if err != nil {
		t.Fatalf("First: %v", err)
	}
	if ok {
		t.Fatalf("expected no match")
	}
}

func TestScanStopsEarly(t *testing.T) {
	path := writeBinary(t, "match-a 1", "match-a 2", "match-a 3")
	var seen int
	err := Scan(context.Background(), path, `match-a (?P<n>\d)`, func(m Match) bool {
		seen++
		return false
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if seen != 1 {
		t.Fatalf("seen = %d, want 1", seen)
	}
}

func TestScanBadPattern(t *testing.T) {
	path := writeBinary(t, "x")
	if err := Scan(context.Background(), path, `(unclosed`, func(Match) bool { return true }); err == nil {
		t.Fatalf("expected error for invalid pattern")
	}
}
