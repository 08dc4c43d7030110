// Package kv defines the narrow interface chainkv needs from an ordered,
// persistent key-value engine, and provides three concrete backends
// (pebble, badger, bbolt) that satisfy it. Nothing above this package
// knows which engine is in use.
package kv

// DB is a point-get/ordered-iterate/atomic-batch key-value engine. All
// three backends in this package (Pebble, Badger, Bolt) implement it.
type DB interface {
	// Get returns the value stored at key, or found=false if key is
	// absent. The returned slice is only valid until the next call on
	// the DB; callers that need to retain it must copy.
	Get(key []byte) (value []byte, found bool, err error)

	// NewBatch returns an empty batch that can accumulate puts, deletes,
	// and range-deletes before being written atomically with WriteBatch.
	NewBatch() Batch

	// WriteBatch applies every operation staged in b atomically. The
	// write-ahead log is disabled for this path; durability is only
	// obtained via Flush.
	WriteBatch(b Batch) error

	// NewIterator returns a cursor over the whole keyspace, initially
	// invalid (positioned before any Seek/SeekToLast call).
	NewIterator() Iterator

	// Flush forces previously written batches to durable storage.
	// allowStall permits the call to block if the engine is applying
	// backpressure; wait blocks until the flush completes rather than
	// just scheduling it. Backends without an asynchronous flush
	// (badger, bbolt) block until the flush completes either way.
	Flush(allowStall, wait bool) error

	// Close releases all resources held by the engine. No further calls
	// may be made on the DB or on any Iterator/Batch derived from it.
	Close() error
}

// Batch accumulates a set of mutations to be applied atomically by
// DB.WriteBatch.
type Batch interface {
	Put(key, value []byte)
	Delete(key []byte)
	// DeleteRange removes every key in [start, end).
	DeleteRange(start, end []byte)
	// Len reports the number of operations staged so far.
	Len() int
}

// Iterator is a bidirectional cursor over a DB's keyspace. It starts
// invalid; Seek or SeekToLast must be called before Key/Value are legal
// to call. Iterators are not safe for concurrent use and must be closed
// exactly once.
type Iterator interface {
	// Seek positions the iterator at the first key >= target, or makes
	// it invalid if no such key exists.
	Seek(target []byte) bool
	// SeekToLast positions the iterator at the last key in the
	// keyspace, or makes it invalid if the keyspace is empty.
	SeekToLast() bool
	// Next advances to the next key in ascending order.
	Next() bool
	// Prev moves to the previous key in ascending order.
	Prev() bool
	// Valid reports whether the iterator is positioned on a key.
	Valid() bool
	// Key returns the key at the current position. Only valid to call
	// when Valid() is true; the returned slice may be reused by the
	// next positioning call.
	Key() []byte
	// Value returns the value at the current position, under the same
	// validity and reuse rules as Key.
	Value() []byte
	// Status returns any error encountered while iterating. It must be
	// checked after a Seek/Next/Prev call returns false, since false
	// alone does not distinguish "exhausted" from "failed".
	Status() error
	// Close releases the iterator's resources.
	Close() error
}
