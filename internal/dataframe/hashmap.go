package dataframe

import (
	xxhash "github.com/cespare/xxhash/v2"
)

const (
	hashMapLoadFactor     = 0.75 // load factor for the group hash map
	hashMapGrowthFactor   = 2    // growth factor for hash map resize
	hashMapCapacityFactor = 1.3  // capacity factor for initial hash map size
)

// groupHashMap assigns dense group ids to composite string keys using xxhash
// buckets. Ids are handed out in first-seen order.
type groupHashMap struct {
	buckets  [][]groupEntry
	capacity int
	groups   []groupStats
}

type groupEntry struct {
	key string
	id  int
}

// groupStats is what CountBy needs per group: a representative row and a count
type groupStats struct {
	firstRow int
	count    int64
}

// newGroupHashMap creates a hash map sized for roughly estimatedSize keys.
func newGroupHashMap(estimatedSize int) *groupHashMap {
	capacity := nextPowerOfTwo(int(float64(estimatedSize) * hashMapCapacityFactor))
	return &groupHashMap{
		buckets:  make([][]groupEntry, capacity),
		capacity: capacity,
	}
}

// Add records row under key and returns the group id.
func (m *groupHashMap) Add(key string, row int) int {
	idx := m.bucketIndex(key, m.capacity)

	for _, entry := range m.buckets[idx] {
		if entry.key == key {
			m.groups[entry.id].count++
			return entry.id
		}
	}

	id := len(m.groups)
	m.buckets[idx] = append(m.buckets[idx], groupEntry{key: key, id: id})
	m.groups = append(m.groups, groupStats{firstRow: row, count: 1})

	if float64(len(m.groups)) > float64(m.capacity)*hashMapLoadFactor {
		m.resize()
	}
	return id
}

// Len returns the number of distinct keys.
func (m *groupHashMap) Len() int {
	return len(m.groups)
}

func (m *groupHashMap) bucketIndex(key string, capacity int) int {
	//nolint:gosec // capacity is always a positive power of two
	return int(xxhash.Sum64String(key) & uint64(capacity-1))
}

// resize doubles the capacity and rehashes all entries.
func (m *groupHashMap) resize() {
	newCapacity := m.capacity * hashMapGrowthFactor
	newBuckets := make([][]groupEntry, newCapacity)

	for _, bucket := range m.buckets {
		for _, entry := range bucket {
			idx := m.bucketIndex(entry.key, newCapacity)
			newBuckets[idx] = append(newBuckets[idx], entry)
		}
	}

	m.buckets = newBuckets
	m.capacity = newCapacity
}

// nextPowerOfTwo returns the next power of two >= n.
func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	power := 1
	for power < n {
		power <<= 1
	}
	return power
}
