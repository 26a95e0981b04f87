// Package store holds the authoritative in-memory room entities and the
// storage abstraction the application service mutates.
//
// Entities are not safe for concurrent use. The application service is the
// single writer and serialises every access behind its own mutex.
package store

// Store keeps live rooms by code.
type Store interface {
	Get(code string) (*Room, bool)
	Put(room *Room)
	Delete(code string)
	Has(code string) bool
	Codes() []string
	Len() int
	// Range visits rooms in code order until fn returns false.
	Range(fn func(room *Room) bool)
}
