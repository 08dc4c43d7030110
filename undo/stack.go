package undo

import (
	"encoding/binary"

	"github.com/maho-db/chainkv/cache"
	"github.com/maho-db/chainkv/kv"
	"github.com/maho-db/chainkv/kverrors"
)

// DefaultTargetSegmentSize is the threshold (in encoded bytes) at which
// write_changes flushes an in-progress segment and starts a new one,
// matching chain_kv.hpp's default.
const DefaultTargetSegmentSize = 64 * 1024 * 1024

// Stack is an undo stack rooted at a caller-chosen prefix. Its bookkeeping
// record lives at prefix‖0x00; its segments live at prefix‖0x80‖be_u64(id).
// Grounded on chain_kv.hpp's undo_stack.
type Stack struct {
	db                kv.DB
	statePrefix       []byte
	segmentPrefix     []byte
	targetSegmentSize int
	state             state
}

// Open loads (or initializes) the undo stack rooted at prefix, which must
// satisfy the same sentinel-avoidance rule as every other chainkv key
// prefix: it may not begin with 0x00 or 0xff.
func Open(db kv.DB, prefix []byte, targetSegmentSize int) (*Stack, error) {
	if err := kv.CheckPrefix(prefix); err != nil {
		return nil, err
	}
	if targetSegmentSize <= 0 {
		targetSegmentSize = DefaultTargetSegmentSize
	}

	statePrefix := append(append([]byte(nil), prefix...), 0x00)
	segmentPrefix := append(append([]byte(nil), prefix...), 0x80)

	s := &Stack{
		db:                db,
		statePrefix:       statePrefix,
		segmentPrefix:     segmentPrefix,
		targetSegmentSize: targetSegmentSize,
	}

	raw, found, err := db.Get(statePrefix)
	if err != nil {
		return nil, kverrors.Store("undo: open", err)
	}
	if found {
		st, err := decodeState(raw)
		if err != nil {
			return nil, err
		}
		s.state = st
	}
	return s, nil
}

// Revision returns the current revision number.
func (s *Stack) Revision() int64 { return s.state.Revision }

// Depth reports the number of frames currently on the undo stack, so a
// caller can decide whether Squash or Undo are legal before calling
// them, mirroring undo_stack.undo_stack.size() in the original.
func (s *Stack) Depth() int { return len(s.state.UndoStack) }

// SetRevision sets the current revision directly. Only legal while the
// undo stack is empty (no pushed frames to renumber), and revision may
// never decrease.
func (s *Stack) SetRevision(revision int64) error {
	if len(s.state.UndoStack) != 0 {
		return kverrors.InvalidState("undo: cannot set revision while undo stack is non-empty")
	}
	if revision < s.state.Revision {
		return kverrors.InvalidState("undo: revision cannot decrease (have %d, want %d)", s.state.Revision, revision)
	}
	s.state.Revision = revision
	return s.writeState(s.db.NewBatch())
}

// Push creates a new frame on the undo stack and advances the revision.
func (s *Stack) Push() error {
	s.state.UndoStack = append(s.state.UndoStack, 0)
	s.state.Revision++
	return s.writeState(s.db.NewBatch())
}

// Squash combines the top two frames into one, discarding the boundary
// between them without reverting any data.
func (s *Stack) Squash() error {
	if len(s.state.UndoStack) < 2 {
		return kverrors.InvalidState("undo: nothing to squash")
	}
	n := s.state.UndoStack[len(s.state.UndoStack)-1]
	s.state.UndoStack = s.state.UndoStack[:len(s.state.UndoStack)-1]
	s.state.UndoStack[len(s.state.UndoStack)-1] += n
	s.state.Revision--
	return s.writeState(s.db.NewBatch())
}

// Undo reverts the store to the state at the top of the undo stack,
// replaying the top frame's segments in descending segment-id order so
// that interleaved writes to the same key within the frame unwind in the
// correct order, then pops the frame.
func (s *Stack) Undo() error {
	if len(s.state.UndoStack) == 0 {
		return kverrors.InvalidState("undo: nothing to undo")
	}
	top := s.state.UndoStack[len(s.state.UndoStack)-1]
	first := s.state.NextUndoSegment - top

	b := s.db.NewBatch()
	for id := s.state.NextUndoSegment; id > first; id-- {
		segID := id - 1
		key := segmentKey(s.segmentPrefix, segID)
		data, found, err := s.db.Get(key)
		if err != nil {
			return kverrors.Store("undo: undo", err)
		}
		if !found {
			return kverrors.InvalidState("undo: missing segment %d", segID)
		}
		records, err := decodeSegment(data)
		if err != nil {
			return err
		}
		for _, r := range records {
			switch r.Tag {
			case tagRemove:
				b.Delete(r.Key)
			case tagPut:
				b.Put(r.Key, r.Value)
			}
		}
		b.Delete(key)
	}

	s.state.NextUndoSegment = first
	s.state.UndoStack = s.state.UndoStack[:len(s.state.UndoStack)-1]
	s.state.Revision--

	return s.writeState(b)
}

// Commit discards undo history for every revision below revision,
// clamped to the current revision. It never touches the current
// revision number or live data, only the segments needed to undo past
// revisions already committed.
func (s *Stack) Commit(revision int64) error {
	if revision > s.state.Revision {
		revision = s.state.Revision
	}
	firstRevision := s.state.Revision - int64(len(s.state.UndoStack))
	if firstRevision >= revision {
		return nil
	}

	drop := int(revision - firstRevision)
	s.state.UndoStack = s.state.UndoStack[drop:]

	keepUndoSegment := s.state.NextUndoSegment
	for _, n := range s.state.UndoStack {
		keepUndoSegment -= n
	}

	b := s.db.NewBatch()
	if keepUndoSegment > 0 {
		b.DeleteRange(segmentKey(s.segmentPrefix, 0), segmentKey(s.segmentPrefix, keepUndoSegment))
	}
	return s.writeState(b)
}

// WriteChanges persists every dirty entry in changeList to the store and,
// if a frame is active, records a reverse-delta segment capable of
// undoing them. changeList is typically cache.Cache.ChangeList(); once
// the batch is written successfully, each written entry's original value
// is set to its current value and the cache's change list is cleared.
func (s *Stack) WriteChanges(c *cache.Cache, changeList []*cache.Entry) error {
	b := s.db.NewBatch()
	var segment []byte

	flushSegment := func() {
		if len(segment) == 0 {
			return
		}
		key := segmentKey(s.segmentPrefix, s.state.NextUndoSegment)
		s.state.NextUndoSegment++
		b.Put(key, segment)
		s.state.UndoStack[len(s.state.UndoStack)-1]++
		segment = nil
	}

	recording := len(s.state.UndoStack) > 0

	for _, e := range changeList {
		if !e.Dirty() {
			continue
		}
		if e.CurPresent {
			b.Put(e.FullKey, e.CurrentValue)
		} else {
			b.Delete(e.FullKey)
		}

		if !recording {
			continue
		}
		var rec record
		if e.OrigPresent {
			rec = record{Tag: tagPut, Key: e.FullKey, Value: e.OrigValue}
		} else {
			rec = record{Tag: tagRemove, Key: e.FullKey}
		}
		encoded := appendRecord(nil, rec)
		if len(segment)+len(encoded) > s.targetSegmentSize {
			flushSegment()
		}
		segment = append(segment, encoded...)
	}
	flushSegment()

	if err := s.writeState(b); err != nil {
		return err
	}
	// The store now holds each entry's current value; make it the
	// entry's original value so later writes in this session record
	// reverse deltas against what was actually written.
	for _, e := range changeList {
		e.OrigPresent = e.CurPresent
		e.OrigValue = e.CurrentValue
	}
	c.ClearChangeList()
	return nil
}

func (s *Stack) writeState(b kv.Batch) error {
	b.Put(s.statePrefix, encodeState(s.state))
	if err := s.db.WriteBatch(b); err != nil {
		return kverrors.Store("undo: write state", err)
	}
	return nil
}

func segmentKey(prefix []byte, id uint64) []byte {
	key := make([]byte, 0, len(prefix)+8)
	key = append(key, prefix...)
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], id)
	return append(key, buf[:]...)
}
