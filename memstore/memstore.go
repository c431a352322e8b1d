// Package memstore provides an in-memory hubx.Store.
//
// Memstore keeps values for the lifetime of the process only, so a
// credential saved in it is forgotten on restart. It is meant for tests
// and throwaway runs; use gormstore, mysqlstore or redisstore to keep the
// session across restarts.
package memstore

import (
	"sync"
)

// Memstore is an in-memory key-value store.
// It is safe for concurrent use by multiple goroutines.
type Memstore struct {
	values sync.Map
}

// New creates and returns a new Memstore instance.
func New() *Memstore {
	return &Memstore{}
}

// Get retrieves the data stored under key. Returns the data, a boolean
// indicating whether the key was found, and an error.
func (m *Memstore) Get(key string) ([]byte, bool, error) {
	v, ok := m.values.Load(key)
	if !ok {
		return []byte{}, false, nil
	}

	data := v.([]byte)
	return append([]byte(nil), data...), true, nil
}

// Set stores a copy of data under key, overwriting any previous value.
func (m *Memstore) Set(key string, data []byte) error {
	m.values.Store(key, append([]byte(nil), data...))
	return nil
}

// Delete removes the value stored under key. If the key does not exist,
// this is a no-op.
func (m *Memstore) Delete(key string) error {
	m.values.Delete(key)
	return nil
}

// Count returns the number of stored values.
func (m *Memstore) Count() int {
	n := 0
	m.values.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
