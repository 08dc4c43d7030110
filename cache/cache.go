// Package cache implements the write session's in-memory, ordered map
// from full key to cache entry: the substrate spec.md's iterator design
// merges with the underlying store. It is built on github.com/google/btree,
// the same ordered container storage/rowcols uses for its in-memory row
// index and storage/kvrows/btree.go uses for its btree-backed KV backend.
package cache

import (
	"bytes"

	"github.com/google/btree"
)

// Entry is one cached key's bookkeeping, matching spec.md §3's cache
// entry exactly: the original on-disk value (or absence), the value
// currently visible to readers in this session, an erase generation used
// to invalidate parked iterators, and the entry's membership in the
// session's change list.
//
// OrigValue changes only when write_changes has written the entry's
// current value to the store, which then becomes its original value;
// everything else mutates in place.
// Entries are never removed from the cache before session end (C2);
// pointers to an Entry stay valid for the life of the session.
type Entry struct {
	FullKey []byte

	OrigValue    []byte
	OrigPresent  bool
	CurrentValue []byte
	CurPresent   bool

	NumErases uint64

	InChangeList   bool
	ChangeListNext *Entry
}

// Dirty reports whether the entry's current value differs from its
// original value: invariant C1's dirtiness test.
func (e *Entry) Dirty() bool {
	if e.OrigPresent != e.CurPresent {
		return true
	}
	if !e.OrigPresent {
		return false
	}
	return !bytes.Equal(e.OrigValue, e.CurrentValue)
}

// item adapts *Entry to btree.Item by full-key byte ordering.
type item struct {
	e *Entry
}

func (a item) Less(other btree.Item) bool {
	return bytes.Compare(a.e.FullKey, other.(item).e.FullKey) < 0
}

// Cache is the ordered map of *Entry keyed by full key, plus the head of
// the session's change list (a LIFO of dirty entries, consumed once by
// write_changes).
type Cache struct {
	tree      *btree.BTree
	changeHead *Entry
}

// New returns an empty cache. degree matches storage/rowcols and
// storage/kvrows/btree.go's btree.New(16).
func New() *Cache {
	return &Cache{tree: btree.New(16)}
}

// Get returns the entry at fullKey, or nil if the cache has never
// observed that key.
func (c *Cache) Get(fullKey []byte) *Entry {
	found := c.tree.Get(item{e: &Entry{FullKey: fullKey}})
	if found == nil {
		return nil
	}
	return found.(item).e
}

// Insert adds a new entry to the cache. The caller must not call Insert
// twice for the same full key; use Get first to check.
func (c *Cache) Insert(e *Entry) {
	c.tree.ReplaceOrInsert(item{e: e})
}

// Changed links e onto the head of the change list unless it is already
// linked, keeping the LIFO-of-dirty-entries invariant: every dirty entry
// reachable from the head exactly once.
func (c *Cache) Changed(e *Entry) {
	if e.InChangeList {
		return
	}
	e.InChangeList = true
	e.ChangeListNext = c.changeHead
	c.changeHead = e
}

// ChangeList returns every entry currently linked into the change list,
// in LIFO order (most recently dirtied first). It does not clear the
// list; callers that consume it should call ClearChangeList afterward.
func (c *Cache) ChangeList() []*Entry {
	var out []*Entry
	for e := c.changeHead; e != nil; e = e.ChangeListNext {
		out = append(out, e)
	}
	return out
}

// ClearChangeList unlinks every entry from the change list and resets it
// to empty, called once write_changes has consumed the list.
func (c *Cache) ClearChangeList() {
	for e := c.changeHead; e != nil; {
		next := e.ChangeListNext
		e.InChangeList = false
		e.ChangeListNext = nil
		e = next
	}
	c.changeHead = nil
}

// AscendGreaterOrEqual walks every entry with FullKey >= fullKey in
// ascending order, stopping early if fn returns false.
func (c *Cache) AscendGreaterOrEqual(fullKey []byte, fn func(e *Entry) bool) {
	c.tree.AscendGreaterOrEqual(item{e: &Entry{FullKey: fullKey}}, func(i btree.Item) bool {
		return fn(i.(item).e)
	})
}

// DescendLessOrEqual walks every entry with FullKey <= fullKey in
// descending order, stopping early if fn returns false.
func (c *Cache) DescendLessOrEqual(fullKey []byte, fn func(e *Entry) bool) {
	c.tree.DescendLessOrEqual(item{e: &Entry{FullKey: fullKey}}, func(i btree.Item) bool {
		return fn(i.(item).e)
	})
}

// LowerBound returns the first entry with FullKey >= fullKey, or nil if
// the cache holds nothing at or beyond fullKey.
func (c *Cache) LowerBound(fullKey []byte) *Entry {
	var out *Entry
	c.AscendGreaterOrEqual(fullKey, func(e *Entry) bool {
		out = e
		return false
	})
	return out
}

// NextEntry returns the entry immediately after fullKey in ascending
// order, or nil if fullKey names the last entry. Used by the view
// iterator to emulate map::iterator's operator++ over a key that may be
// rebalanced to a different tree node between calls (spec.md §9: an
// ordered container without node-stable iterators must re-look-up
// positions by key).
func (c *Cache) NextEntry(fullKey []byte) *Entry {
	var out *Entry
	first := true
	c.AscendGreaterOrEqual(fullKey, func(e *Entry) bool {
		if first {
			first = false
			return true
		}
		out = e
		return false
	})
	return out
}

// PrevEntry returns the entry immediately before fullKey in ascending
// order, or nil if fullKey names the first entry.
func (c *Cache) PrevEntry(fullKey []byte) *Entry {
	var out *Entry
	first := true
	c.DescendLessOrEqual(fullKey, func(e *Entry) bool {
		if first {
			first = false
			return true
		}
		out = e
		return false
	})
	return out
}
