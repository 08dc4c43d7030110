package view

import (
	"bytes"

	"github.com/maho-db/chainkv/cache"
	"github.com/maho-db/chainkv/keycodec"
	"github.com/maho-db/chainkv/kv"
	"github.com/maho-db/chainkv/kverrors"
)

// Iterator is a bidirectional cursor over one (contract, userPrefix)
// range within a view. It is not safe for concurrent use and must be
// closed when no longer needed. The cache, not the underlying store cursor, is
// the source of truth for iteration order (spec.md §4.5/§9): the store
// cursor is advanced only to discover keys not yet in the cache.
type Iterator struct {
	view             *View
	fullPrefix       []byte
	userPrefix       []byte
	hiddenPrefixSize int
	nextPrefix       []byte
	storeIt          kv.Iterator

	cur          *cache.Entry // nil means the "end" position
	curNumErases uint64
	closed       bool
}

func newIterator(v *View, contract uint64, userPrefix []byte) (*Iterator, error) {
	fullPrefix := keycodec.FullKey(v.prefix, contract, userPrefix)
	it := &Iterator{
		view:             v,
		fullPrefix:       fullPrefix,
		userPrefix:       append([]byte(nil), userPrefix...),
		hiddenPrefixSize: len(v.prefix) + keycodec.ContractSize,
		nextPrefix:       keycodec.NextPrefix(fullPrefix),
		storeIt:          v.session.DB().NewIterator(),
	}

	if err := it.primeAt(fullPrefix); err != nil {
		it.storeIt.Close()
		return nil, err
	}
	if err := it.primePrev(); err != nil {
		it.storeIt.Close()
		return nil, err
	}
	if err := it.primeAt(it.nextPrefix); err != nil {
		it.storeIt.Close()
		return nil, err
	}

	it.MoveToEnd()
	return it, nil
}

// Close releases the iterator's store cursor. Safe to call more than
// once.
func (it *Iterator) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true
	return it.storeIt.Close()
}

// fillAtCursor materializes the store cursor's current position into the
// cache as a clean entry, if the cursor is on a valid key.
func (it *Iterator) fillAtCursor() error {
	if !it.storeIt.Valid() {
		return kverrors.Store("view: iterate", it.storeIt.Status())
	}
	it.view.session.FillCache(it.storeIt.Key(), it.storeIt.Value(), true)
	return nil
}

func (it *Iterator) primeAt(key []byte) error {
	if !it.storeIt.Seek(key) {
		if err := it.storeIt.Status(); err != nil {
			return kverrors.Store("view: iterate", err)
		}
	}
	return it.fillAtCursor()
}

func (it *Iterator) primePrev() error {
	if !it.storeIt.Prev() {
		if err := it.storeIt.Status(); err != nil {
			return kverrors.Store("view: iterate", err)
		}
	}
	return it.fillAtCursor()
}

// MoveToBegin positions the iterator at the first live key in range.
func (it *Iterator) MoveToBegin() error {
	return it.lowerBoundFullKey(it.fullPrefix)
}

// MoveToEnd positions the iterator at the end state.
func (it *Iterator) MoveToEnd() {
	it.cur = nil
}

// LowerBound positions the iterator at the first live key >= userKey
// within range, clamping userKey up to the iterator's userPrefix if it
// sorts below it.
func (it *Iterator) LowerBound(userKey []byte) error {
	if bytes.Compare(userKey, it.userPrefix) < 0 {
		userKey = it.userPrefix
	}
	fullKey := make([]byte, 0, it.hiddenPrefixSize+len(userKey))
	fullKey = append(fullKey, it.fullPrefix[:it.hiddenPrefixSize]...)
	fullKey = append(fullKey, userKey...)
	return it.lowerBoundFullKey(fullKey)
}

func (it *Iterator) lowerBoundFullKey(fullKey []byte) error {
	if !it.storeIt.Seek(fullKey) {
		if err := it.storeIt.Status(); err != nil {
			return kverrors.Store("view: iterate", err)
		}
	}
	if err := it.fillAtCursor(); err != nil {
		return err
	}

	var cur *cache.Entry
	if bytes.Equal(it.storeIt.Key(), fullKey) {
		cur = it.view.session.Cache().Get(it.storeIt.Key())
	} else {
		cur = it.view.session.Cache().LowerBound(fullKey)
	}

	for cur != nil && !cur.CurPresent {
		for bytes.Compare(it.storeIt.Key(), cur.FullKey) <= 0 {
			if !it.storeIt.Next() {
				if err := it.storeIt.Status(); err != nil {
					return kverrors.Store("view: iterate", err)
				}
				break
			}
			if err := it.fillAtCursor(); err != nil {
				return err
			}
		}
		cur = it.view.session.Cache().NextEntry(cur.FullKey)
	}

	if cur == nil || bytes.Compare(cur.FullKey, it.nextPrefix) >= 0 {
		it.cur = nil
	} else {
		it.cur = cur
		it.curNumErases = cur.NumErases
	}
	return nil
}

// stale reports whether the iterator is positioned on an entry that has
// since been erased elsewhere in the same session. Overwriting the entry
// does not make the iterator stale; GetKV then returns the new value.
func (it *Iterator) stale() bool {
	return it.cur != nil && it.curNumErases != it.cur.NumErases
}

// Next advances the iterator to the next live key in range. From the end
// state it moves to the beginning.
func (it *Iterator) Next() error {
	if it.cur == nil {
		return it.MoveToBegin()
	}
	if it.stale() {
		return kverrors.Programming("view: iterator is at an erased value")
	}

	cur := it.cur
	for {
		for bytes.Compare(it.storeIt.Key(), cur.FullKey) <= 0 {
			if !it.storeIt.Next() {
				if err := it.storeIt.Status(); err != nil {
					return kverrors.Store("view: iterate", err)
				}
				break
			}
			if err := it.fillAtCursor(); err != nil {
				return err
			}
		}
		cur = it.view.session.Cache().NextEntry(cur.FullKey)
		if cur == nil || cur.CurPresent {
			break
		}
	}

	if cur == nil || bytes.Compare(cur.FullKey, it.nextPrefix) >= 0 {
		it.cur = nil
	} else {
		it.cur = cur
		it.curNumErases = cur.NumErases
	}
	return nil
}

// Prev moves the iterator to the previous live key in range. From the
// end state it moves to the last key in range.
func (it *Iterator) Prev() error {
	var cur *cache.Entry
	if it.cur == nil {
		if !it.storeIt.Seek(it.nextPrefix) {
			if err := it.storeIt.Status(); err != nil {
				return kverrors.Store("view: iterate", err)
			}
		}
		if err := it.fillAtCursor(); err != nil {
			return err
		}
		if bytes.Equal(it.storeIt.Key(), it.nextPrefix) {
			cur = it.view.session.Cache().Get(it.storeIt.Key())
		} else {
			cur = it.view.session.Cache().LowerBound(it.nextPrefix)
		}
	} else if it.stale() {
		return kverrors.Programming("view: iterator is at an erased value")
	} else {
		cur = it.cur
	}

	for {
		for bytes.Compare(it.storeIt.Key(), cur.FullKey) >= 0 {
			if !it.storeIt.Prev() {
				if err := it.storeIt.Status(); err != nil {
					return kverrors.Store("view: iterate", err)
				}
				break
			}
			if err := it.fillAtCursor(); err != nil {
				return err
			}
		}
		cur = it.view.session.Cache().PrevEntry(cur.FullKey)
		if cur == nil || cur.CurPresent {
			break
		}
	}

	if cur == nil || bytes.Compare(cur.FullKey, it.fullPrefix) < 0 {
		it.cur = nil
	} else {
		it.cur = cur
		it.curNumErases = cur.NumErases
	}
	return nil
}

// Valid reports whether the iterator is positioned on a live, unstale
// key.
func (it *Iterator) Valid() bool {
	return it.cur != nil && !it.stale()
}

// GetKV returns the current position's user key (with the view prefix
// and contract id stripped) and value. found is false at the end
// position.
func (it *Iterator) GetKV() (userKey, value []byte, found bool, err error) {
	if it.cur == nil {
		return nil, nil, false, nil
	}
	if it.stale() {
		return nil, nil, false, kverrors.Programming("view: iterator is at an erased value")
	}
	key := it.cur.FullKey[it.hiddenPrefixSize:]
	return append([]byte(nil), key...), append([]byte(nil), it.cur.CurrentValue...), true, nil
}
