package librarytest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/schoollibrary/circulation/library"
	"github.com/schoollibrary/circulation/library/memengine"
)

// NewMemoryStore creates an empty in-memory engine.
func NewMemoryStore(t testing.TB, options ...memengine.Option) *memengine.Engine {
	engine, err := memengine.NewEngine(options...)
	require.NoError(t, err, "error creating the in-memory engine in test setup")

	return engine
}

// GivenStores returns a fresh in-memory store and a fresh SQLite store, keyed by a name
// suitable for t.Run, so handler tests can run against both engines.
func GivenStores(t testing.TB) map[string]library.Store {
	return map[string]library.Store{
		"memory": NewMemoryStore(t),
		"sqlite": NewSQLiteEngine(t),
	}
}
