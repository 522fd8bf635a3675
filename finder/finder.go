// Package finder implements the fast, bounded-depth filesystem walk
// that seeds toolchain discovery: a breadth-first search bounded by a
// sync/semaphore-limited pool of concurrent directory reads, since it
// is expected to fan out across PATH, platform program-files roots,
// and user-configured locations concurrently.
package finder

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/fearthecowboy/toolsight/sync/semaphore"
)

const dirReadSemaphore = "finder.dirread"

func init() {
	if _, err := semaphore.Lookup(dirReadSemaphore); err != nil {
		semaphore.New(dirReadSemaphore, runtime.NumCPU()*4)
	}
}

// Options configures a Finder.
type Options struct {
	// Executable requires matched files to be executable. On POSIX
	// this checks the file's permission bits; on Windows, where
	// permission bits don't express executability, it is inferred
	// from ExecutableExtensions membership.
	Executable bool

	// ExecutableExtensions lists the extensions (e.g. ".exe", ".bat")
	// a Windows stem is stripped of before comparing against names,
	// and the set used to infer executability on Windows.
	ExecutableExtensions []string
}

// Finder walks one or more root directories looking for files whose
// stem is in names, streaming absolute paths to Results().
type Finder struct {
	names map[string]bool
	opts  Options

	out chan string
	wg  sync.WaitGroup

	mu   sync.Mutex
	seen map[string]bool

	closeOnce sync.Once
}

// New creates a Finder matching any of names.
func New(names []string, opts Options) *Finder {
	f := &Finder{
		names: make(map[string]bool, len(names)),
		opts:  opts,
		out:   make(chan string),
		seen:  make(map[string]bool),
	}
	for _, n := range names {
		f.names[strings.ToLower(n)] = true
	}
	return f
}

// Results is the asynchronous sequence of qualifying absolute paths.
// It is closed once every scan added so far (and, racily, any scan
// added while still draining) has completed; callers that need to add
// more scans after the channel appears to have drained should issue
// all Scan calls before ranging over Results.
func (f *Finder) Results() <-chan string {
	return f.out
}

// Scan walks depth levels (0 = roots only) under each of roots,
// emitting every previously-unseen qualifying path to Results. It
// returns immediately; the walk runs in the background. Scan may be
// called again, including after Results has begun being consumed.
func (f *Finder) Scan(ctx context.Context, depth int, roots ...string) {
	for _, root := range roots {
		if root == "" {
			continue
		}
		f.wg.Add(1)
		go func(root string) {
			defer f.wg.Done()
			f.walk(ctx, root, depth)
		}(root)
	}
	go func() {
		f.wg.Wait()
		f.closeOnce.Do(func() { close(f.out) })
	}()
}

type queued struct {
	dir   string
	depth int
}

func (f *Finder) walk(ctx context.Context, root string, maxDepth int) {
	queue := []queued{{dir: root, depth: 0}}
	for len(queue) > 0 {
		if ctx.Err() != nil {
			return
		}
		cur := queue[0]
		queue = queue[1:]

		entries, ok := f.readDir(ctx, cur.dir)
		if !ok {
			continue
		}
		for _, entry := range entries {
			full := filepath.Join(cur.dir, entry.Name())
			if entry.IsDir() {
				if cur.depth < maxDepth {
					queue = append(queue, queued{dir: full, depth: cur.depth + 1})
				}
				continue
			}
			if f.qualifies(entry, full) {
				f.emit(ctx, full)
			}
		}
	}
}

// readDir lists dir under the bounded directory-read semaphore,
// releasing the slot (and any handle) before returning. Per-directory
// errors are swallowed: the walk continues past unreadable or
// permission-denied directories instead of failing the whole search.
func (f *Finder) readDir(ctx context.Context, dir string) ([]fs.DirEntry, bool) {
	sem, err := semaphore.Lookup(dirReadSemaphore)
	if err != nil {
		return nil, false
	}
	release, err := sem.WaitAcquire(ctx)
	if err != nil {
		return nil, false
	}
	defer release()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, false
	}
	return entries, true
}

func (f *Finder) qualifies(entry fs.DirEntry, full string) bool {
	stem := stem(entry.Name(), f.opts.ExecutableExtensions)
	if !f.names[strings.ToLower(stem)] {
		return false
	}
	if !f.opts.Executable {
		return true
	}
	if runtime.GOOS == "windows" {
		return hasExecutableExtension(entry.Name(), f.opts.ExecutableExtensions)
	}
	info, err := entry.Info()
	if err != nil {
		return false
	}
	return info.Mode()&0o111 != 0
}

// stem strips, on Windows, each configured executable extension from
// name's suffix (case-insensitive); elsewhere it strips nothing beyond
// what the name already is, since POSIX executables carry no
// conventional extension.
func stem(name string, extensions []string) string {
	if runtime.GOOS != "windows" {
		return name
	}
	lower := strings.ToLower(name)
	for _, ext := range extensions {
		ext = strings.ToLower(ext)
		if strings.HasSuffix(lower, ext) {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}

func hasExecutableExtension(name string, extensions []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range extensions {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

func (f *Finder) emit(ctx context.Context, path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	f.mu.Lock()
	if f.seen[abs] {
		f.mu.Unlock()
		return
	}
	f.seen[abs] = true
	f.mu.Unlock()

	select {
	case f.out <- abs:
	case <-ctx.Done():
	}
}
