package medviz

import (
	"sync"

	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Releasable represents any resource that can be released to free memory.
type Releasable interface {
	Release()
}

// MemoryManager tracks the Arrow-backed tables created during a run and
// releases them together. It is safe for concurrent use.
//
//	err := medviz.WithMemoryManager(mem, func(manager *medviz.MemoryManager) error {
//		df, err := exam.Load(path, options, manager.Allocator())
//		if err != nil {
//			return err
//		}
//		manager.Track(df)
//		return process(df)
//	})
type MemoryManager struct {
	allocator memory.Allocator
	resources []Releasable
	mu        sync.Mutex
}

// NewMemoryManager creates a new memory manager with the given allocator.
// A nil allocator selects the Go allocator.
func NewMemoryManager(allocator memory.Allocator) *MemoryManager {
	if allocator == nil {
		allocator = memory.NewGoAllocator()
	}
	return &MemoryManager{
		allocator: allocator,
		resources: make([]Releasable, 0),
	}
}

// Allocator returns the allocator new tables should be built with
func (m *MemoryManager) Allocator() memory.Allocator {
	return m.allocator
}

// Track adds a resource to be released by ReleaseAll
func (m *MemoryManager) Track(resource Releasable) {
	if resource != nil {
		m.mu.Lock()
		m.resources = append(m.resources, resource)
		m.mu.Unlock()
	}
}

// Count returns the number of tracked resources
func (m *MemoryManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.resources)
}

// ReleaseAll releases all tracked resources, most recent first, and clears
// the tracking list
func (m *MemoryManager) ReleaseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.resources) - 1; i >= 0; i-- {
		m.resources[i].Release()
	}
	m.resources = m.resources[:0]
}

// WithMemoryManager creates a memory manager, executes a function with it, and releases all tracked resources
func WithMemoryManager(allocator memory.Allocator, fn func(*MemoryManager) error) error {
	manager := NewMemoryManager(allocator)
	defer manager.ReleaseAll()
	return fn(manager)
}
