// Package storage persists family trees behind a small [Store] interface.
//
// Five backends are available:
//
//   - [Memory]: process-local map, the default
//   - [File]: one JSON file per tree under ~/.config/kintree/trees
//   - [SQLite]: a single database file via the pure Go modernc.org/sqlite driver
//   - [Redis]: JSON values plus an index set in a Redis server
//   - [Mongo]: one document per tree in a MongoDB collection
//
// [Open] picks a backend from a [Config] and wraps it with [Instrument],
// which reports every call to the observability storage hooks.
//
// Records carry the tree in its exchange form ([io.Document]), so a stored
// tree can be exported or re-imported without conversion.
package storage
