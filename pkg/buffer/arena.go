package buffer

import (
	"sync"
	"sync/atomic"
)

// ScratchArena keeps transient allocations alive until they are released
// all at once.
//
// It is meant to outlive the call that fills it: data handed to an
// asynchronous consumer is copied into the arena, and the owner releases
// the arena of generation N only once generation N+1 has taken over.
// Add is safe for concurrent use.
type ScratchArena struct {
	released atomic.Bool

	lk    sync.Mutex
	nodes [][]byte
	size  int
}

// NewScratchArena returns an empty arena.
func NewScratchArena() *ScratchArena {
	return &ScratchArena{}
}

// Add copies p into a buffer owned by the arena and returns that copy.
// The copy stays valid until Release.
//
// Add panics when called on a released arena.
func (a *ScratchArena) Add(p []byte) []byte {
	if a.released.Load() {
		panic("arena: use after Release()")
	}

	owned := make([]byte, len(p))
	copy(owned, p)

	a.lk.Lock()
	a.nodes = append(a.nodes, owned)
	a.size += len(owned)
	a.lk.Unlock()
	return owned
}

// Len returns the number of allocations held.
func (a *ScratchArena) Len() int {
	a.lk.Lock()
	defer a.lk.Unlock()
	return len(a.nodes)
}

// Size returns the number of bytes held.
func (a *ScratchArena) Size() int {
	a.lk.Lock()
	defer a.lk.Unlock()
	return a.size
}

// Released reports whether Release has been called.
func (a *ScratchArena) Released() bool {
	return a.released.Load()
}

// Release zeroes and drops every allocation. Only the first call does
// anything.
func (a *ScratchArena) Release() {
	if !a.released.CompareAndSwap(false, true) {
		return
	}

	a.lk.Lock()
	defer a.lk.Unlock()
	for i, node := range a.nodes {
		clear(node)
		a.nodes[i] = nil
	}
	a.nodes = nil
	a.size = 0
}
