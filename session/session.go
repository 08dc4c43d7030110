// Package session implements the write session: the mediator between a
// host, an in-memory cache that shadows original values, and the
// underlying store. spec.md §4.3.
package session

import (
	"bytes"

	"github.com/maho-db/chainkv/cache"
	"github.com/maho-db/chainkv/kv"
	"github.com/maho-db/chainkv/kverrors"
)

// Session buffers mutations in a cache keyed by full key, shadowing the
// value each key had in the store at the time the session first observed
// it. It is not safe for concurrent use: spec.md §5 mandates one logical
// agent driving a session at a time.
type Session struct {
	db    kv.DB
	cache *cache.Cache
}

// New returns a write session over db, with an empty cache.
func New(db kv.DB) *Session {
	return &Session{db: db, cache: cache.New()}
}

// Cache exposes the session's underlying cache to the view/undo packages,
// which need to fill it from their own store iteration and consume its
// change list.
func (s *Session) Cache() *cache.Cache { return s.cache }

// DB exposes the underlying store so the view iterator can drive its own
// cursor over it; the cache, not the cursor, is the iteration's source of
// truth (spec.md §9).
func (s *Session) DB() kv.DB { return s.db }

// Get returns the value at fullKey as visible to this session: the
// cached current value if the key has been observed before, otherwise a
// fresh point_get against the store. A key found in the store is seeded
// into the cache as a clean entry so later calls don't re-hit the store;
// a key not found is not cached.
func (s *Session) Get(fullKey []byte) ([]byte, bool, error) {
	if e := s.cache.Get(fullKey); e != nil {
		if !e.CurPresent {
			return nil, false, nil
		}
		return append([]byte(nil), e.CurrentValue...), true, nil
	}

	val, found, err := s.db.Get(fullKey)
	if err != nil {
		return nil, false, kverrors.Store("session: get", err)
	}
	if !found {
		return nil, false, nil
	}

	s.cache.Insert(&cache.Entry{
		FullKey:      append([]byte(nil), fullKey...),
		OrigPresent:  true,
		OrigValue:    val,
		CurPresent:   true,
		CurrentValue: val,
	})
	return append([]byte(nil), val...), true, nil
}

// Set stores v at fullKey, visible to subsequent Gets in this session and
// persisted on the next WriteChanges. If fullKey is new to the cache, its
// original value is looked up from the store so the entry's dirtiness is
// computed correctly.
//
// A set to a value equal to what is already the cached current value is
// a no-op. Per spec.md §9's preserved open question, a *new* entry is
// still always materialized even when the incoming value equals the
// store's original value, so a later overwrite back to that original
// value remains individually detectable.
func (s *Session) Set(fullKey, v []byte) error {
	v = append([]byte(nil), v...)

	if e := s.cache.Get(fullKey); e != nil {
		if !e.CurPresent || !bytes.Equal(e.CurrentValue, v) {
			e.CurPresent = true
			e.CurrentValue = v
			s.cache.Changed(e)
		}
		return nil
	}

	orig, found, err := s.db.Get(fullKey)
	if err != nil {
		return kverrors.Store("session: set", err)
	}

	e := &cache.Entry{
		FullKey:      append([]byte(nil), fullKey...),
		OrigPresent:  found,
		OrigValue:    orig,
		CurPresent:   true,
		CurrentValue: v,
	}
	s.cache.Insert(e)
	if !found || !bytes.Equal(orig, v) {
		s.cache.Changed(e)
	}
	return nil
}

// Erase removes fullKey's value, visible to subsequent Gets in this
// session and persisted as a delete on the next WriteChanges. Erasing an
// already-absent key is a no-op.
func (s *Session) Erase(fullKey []byte) error {
	if e := s.cache.Get(fullKey); e != nil {
		if !e.CurPresent {
			return nil
		}
		e.NumErases++
		e.CurPresent = false
		e.CurrentValue = nil
		s.cache.Changed(e)
		return nil
	}

	orig, found, err := s.db.Get(fullKey)
	if err != nil {
		return kverrors.Store("session: erase", err)
	}

	e := &cache.Entry{
		FullKey:     append([]byte(nil), fullKey...),
		OrigPresent: found,
		OrigValue:   orig,
	}
	if found {
		e.NumErases = 1
		s.cache.Insert(e)
		s.cache.Changed(e)
	} else {
		s.cache.Insert(e)
	}
	return nil
}

// FillCache ensures fullKey is present in the cache as a clean entry
// reflecting the store's value v (found=false meaning absent). It is
// idempotent: a key already in the cache is left untouched. The view
// iterator calls this whenever its underlying store cursor observes a
// new key, so the cache stays the single source of truth for merged
// iteration order (spec.md §4.5, §9).
func (s *Session) FillCache(fullKey []byte, v []byte, found bool) {
	if s.cache.Get(fullKey) != nil {
		return
	}
	e := &cache.Entry{
		FullKey:     append([]byte(nil), fullKey...),
		OrigPresent: found,
		CurPresent:  found,
	}
	if found {
		e.OrigValue = append([]byte(nil), v...)
		e.CurrentValue = e.OrigValue
	}
	s.cache.Insert(e)
}
