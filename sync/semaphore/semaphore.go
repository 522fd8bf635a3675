// Package semaphore provides named, process-wide counting semaphores
// used to bound concurrent filesystem walks and compiler subprocesses.
package semaphore

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

var (
	mu         sync.Mutex
	semaphores = map[string]*Semaphore{}
)

// Semaphore is a named counting semaphore.
type Semaphore struct {
	name string
	ch   chan int

	waits atomic.Int64
	reqs  atomic.Int64
}

// Lookup returns the semaphore registered under name.
func Lookup(name string) (*Semaphore, error) {
	mu.Lock()
	defer mu.Unlock()
	s, ok := semaphores[name]
	if !ok {
		return nil, fmt.Errorf("semaphore: no semaphore named %q", name)
	}
	return s, nil
}

// New creates a new semaphore with name and capacity n, and registers
// it for lookup by name. Creating a semaphore with an already-used
// name replaces the previous registration.
func New(name string, n int) *Semaphore {
	if n < 1 {
		n = 1
	}
	ch := make(chan int, n)
	for i := 0; i < n; i++ {
		ch <- i + 1
	}
	s := &Semaphore{
		name: name,
		ch:   ch,
	}
	mu.Lock()
	semaphores[name] = s
	mu.Unlock()
	return s
}

// WaitAcquire blocks until a slot is available or ctx is done. The
// returned release func must be called exactly once to free the slot.
func (s *Semaphore) WaitAcquire(ctx context.Context) (release func(), err error) {
	s.waits.Add(1)
	defer s.waits.Add(-1)
	select {
	case tid := <-s.ch:
		s.reqs.Add(1)
		return func() { s.ch <- tid }, nil
	case <-ctx.Done():
		return func() {}, ctx.Err()
	}
}

// Do runs f while holding a slot of the semaphore.
func (s *Semaphore) Do(ctx context.Context, f func(ctx context.Context) error) error {
	release, err := s.WaitAcquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return f(ctx)
}

// Name returns the semaphore's name.
func (s *Semaphore) Name() string { return s.name }

// Capacity returns the semaphore's total number of slots.
func (s *Semaphore) Capacity() int {
	if s == nil {
		return 0
	}
	return cap(s.ch)
}

// NumServs returns the number of slots currently held.
func (s *Semaphore) NumServs() int {
	return cap(s.ch) - len(s.ch)
}

// NumWaits returns the number of goroutines currently blocked in
// WaitAcquire.
func (s *Semaphore) NumWaits() int {
	return int(s.waits.Load())
}
