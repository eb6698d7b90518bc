// Package state holds parameter store implementations and the contract they
// share.
//
// Every backend satisfies params.Store:
//   - Get returns params.ErrNotFound for an absent key.
//   - Set overwrites unconditionally (last writer wins).
//   - Has never reads the value itself.
//
// MemoryStore keeps values in process and is the fake of choice for tests.
// The redisstore and sqlitestore subpackages persist JSON-encoded values, so
// reads hand back generic JSON shapes (float64, []any, map[string]any) that
// the engine coerces like any other raw store value.
//
// Backends that can enumerate keys also implement Lister, which Dump uses to
// export a namespace for inspection. statetest.Run exercises the contract
// against any backend.
package state
