package session

import (
	"sync"
	"time"
)

// Collection names one of the four mirrored resource sets.
type Collection string

const (
	Sites    Collection = "sites"
	Keywords Collection = "keywords"
	Tasks    Collection = "tasks"
	Results  Collection = "results"
)

// Collections lists every collection in refresh order.
var Collections = []Collection{Sites, Keywords, Tasks, Results}

// Singular returns the name of one member, for messages.
func (c Collection) Singular() string {
	switch c {
	case Sites:
		return "site"
	case Keywords:
		return "keyword"
	case Tasks:
		return "task"
	case Results:
		return "result"
	default:
		return string(c)
	}
}

// cloner is a record that can copy itself without sharing slices or
// pointers.
type cloner[T any] interface {
	Clone() T
}

func cloneAll[T cloner[T]](items []T) []T {
	cp := make([]T, len(items))
	for i, item := range items {
		cp[i] = item.Clone()
	}
	return cp
}

// mirror holds the last fetched copy of one collection. It is only ever
// replaced wholesale, and its records never share memory with callers.
type mirror[T cloner[T]] struct {
	mu        sync.RWMutex
	items     []T
	fetchedAt time.Time
}

func (m *mirror[T]) replace(items []T) {
	cp := cloneAll(items)
	m.mu.Lock()
	m.items = cp
	m.fetchedAt = time.Now()
	m.mu.Unlock()
}

func (m *mirror[T]) snapshot() []T {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneAll(m.items)
}

func (m *mirror[T]) count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

func (m *mirror[T]) lastFetched() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fetchedAt
}
