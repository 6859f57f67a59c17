package lock

import "sync"

// Locker is the serialization gate contract. Every operation that reads then
// rewrites one of the whole-document stores must run between Acquire and
// Release; the gate is global, not per-record, because the backing documents
// are replaced wholesale and interleaved read-modify-write cycles would
// silently lose one side's update.
type Locker interface {
	Acquire()
	Release()
}

// Gate is the process-wide mutual-exclusion gate. Acquisition blocks until
// the previous holder releases; there is no timeout and no reentrancy.
type Gate struct {
	mu sync.Mutex
}

func NewGate() *Gate {
	return &Gate{}
}

func (g *Gate) Acquire() {
	g.mu.Lock()
}

func (g *Gate) Release() {
	g.mu.Unlock()
}

// Do runs fn inside the gate's critical section. Release happens on every
// exit path, including panics inside fn.
func (g *Gate) Do(fn func() error) error {
	g.Acquire()
	defer g.Release()
	return fn()
}
