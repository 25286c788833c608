package vkframe

import (
	"fmt"
	"sync"
)

// Allocation is a range inside a memory heap.
type Allocation struct {
	Offset uint64
	Size   uint64
}

func (a *Allocation) String() string {
	return fmt.Sprintf("[%d %d]", a.Offset, a.Size)
}

// MemoryAllocator sub-allocates ranges from a single heap.
type MemoryAllocator interface {
	Allocate(size, align uint64) *Allocation
	Free(a *Allocation)
}

// LinearAllocator is a first-fit allocator over a fixed size heap. Allocations are kept
// sorted by offset. It is safe for concurrent use.
type LinearAllocator struct {
	Size uint64

	mu     sync.Mutex
	allocs []*Allocation
}

// NewLinearAllocator returns an allocator over size bytes.
func NewLinearAllocator(size uint64) *LinearAllocator {
	return &LinearAllocator{Size: size}
}

func makeAlignUp(a, align uint64) uint64 {
	if align <= 1 {
		return a
	}
	if m := a % align; m != 0 {
		return a - m + align
	}
	return a
}

// Allocate returns the first aligned range of size bytes that fits, or nil.
func (p *LinearAllocator) Allocate(size, align uint64) *Allocation {
	if size == 0 || size > p.Size {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	var low uint64
	for i, c := range p.allocs {
		start := makeAlignUp(low, align)
		if start+size <= c.Offset {
			na := &Allocation{Offset: start, Size: size}
			p.allocs = append(p.allocs[:i], append([]*Allocation{na}, p.allocs[i:]...)...)
			return na
		}
		low = c.Offset + c.Size
	}
	start := makeAlignUp(low, align)
	if start+size > p.Size {
		return nil
	}
	na := &Allocation{Offset: start, Size: size}
	p.allocs = append(p.allocs, na)
	return na
}

// Free releases an allocation returned by Allocate. Unknown allocations are ignored.
func (p *LinearAllocator) Free(fa *Allocation) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, a := range p.allocs {
		if a == fa {
			p.allocs = append(p.allocs[:i], p.allocs[i+1:]...)
			return
		}
	}
}

// Used returns the number of bytes currently allocated.
func (p *LinearAllocator) Used() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	var n uint64
	for _, a := range p.allocs {
		n += a.Size
	}
	return n
}

func (p *LinearAllocator) String() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fmt.Sprintf("%v", p.allocs)
}
