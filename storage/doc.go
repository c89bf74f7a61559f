// Package storage persists retrieval engine snapshots. A snapshot is written
// as three artifacts (serialized index, chunk sequence, document mapping) and
// every store publishes them atomically: a reader sees either the previous
// snapshot or the new one, never a mix.
//
// Two durable stores are provided: FileStore keeps one directory per revision
// and swaps a CURRENT pointer file, SQLiteStore rewrites artifact rows inside
// a single transaction and journals every change.
package storage
