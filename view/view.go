// Package view implements a prefixed, contract-scoped sub-keyspace over a
// write session, with a forward/backward iterator whose semantics are
// consistent across both cached changes and on-disk data. Grounded on
// _examples/original_source/include/chain_kv/chain_kv.hpp's view/iterator.
package view

import (
	"github.com/maho-db/chainkv/keycodec"
	"github.com/maho-db/chainkv/kv"
	"github.com/maho-db/chainkv/session"
)

// View binds a write session to a fixed prefix, scoping every get/set/
// erase/iterator call by a per-call contract id.
type View struct {
	session *session.Session
	prefix  []byte
}

// New returns a view rooted at prefix, which must satisfy the same
// sentinel-avoidance rule as every other chainkv key prefix: non-empty,
// first byte in [0x01,0xfe].
func New(s *session.Session, prefix []byte) (*View, error) {
	if err := kv.CheckPrefix(prefix); err != nil {
		return nil, err
	}
	return &View{session: s, prefix: append([]byte(nil), prefix...)}, nil
}

func (v *View) fullKey(contract uint64, userKey []byte) []byte {
	return keycodec.FullKey(v.prefix, contract, userKey)
}

// Get returns the value at (contract, userKey) as visible to the
// underlying write session.
func (v *View) Get(contract uint64, userKey []byte) ([]byte, bool, error) {
	return v.session.Get(v.fullKey(contract, userKey))
}

// Set stores v at (contract, userKey).
func (v *View) Set(contract uint64, userKey, val []byte) error {
	return v.session.Set(v.fullKey(contract, userKey), val)
}

// Erase removes the value at (contract, userKey).
func (v *View) Erase(contract uint64, userKey []byte) error {
	return v.session.Erase(v.fullKey(contract, userKey))
}

// NewIterator returns an iterator over every key under (contract,
// userPrefix), primed and positioned at the end state per spec.md §4.5.
func (v *View) NewIterator(contract uint64, userPrefix []byte) (*Iterator, error) {
	return newIterator(v, contract, userPrefix)
}

// Reader is a view with Set/Erase withheld, for hosts that want a
// handle they can pass around without risking an accidental write.
// Grounded on the distinction the original draws between a view and a
// const-qualified view used only for reads in view_tests.cpp.
type Reader interface {
	Get(contract uint64, userKey []byte) ([]byte, bool, error)
	NewIterator(contract uint64, userPrefix []byte) (*Iterator, error)
}

// Reader returns v itself, narrowed to the Reader interface.
func (v *View) Reader() Reader {
	return v
}
