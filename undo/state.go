package undo

import (
	"encoding/binary"

	"github.com/maho-db/chainkv/kverrors"
)

const formatVersion uint8 = 0

// state is the undo stack's persisted bookkeeping record: the current
// revision, the number of segments needed to undo back past each pushed
// frame, and the next segment id to allocate. Mirrors chain_kv.hpp's
// undo_state exactly.
type state struct {
	FormatVersion   uint8
	Revision        int64
	UndoStack       []uint64
	NextUndoSegment uint64
}

func encodeState(s state) []byte {
	buf := make([]byte, 0, 32)
	buf = append(buf, s.FormatVersion)

	var rev [8]byte
	binary.BigEndian.PutUint64(rev[:], uint64(s.Revision))
	buf = append(buf, rev[:]...)

	buf = binary.AppendUvarint(buf, uint64(len(s.UndoStack)))
	for _, n := range s.UndoStack {
		buf = binary.AppendUvarint(buf, n)
	}

	var next [8]byte
	binary.BigEndian.PutUint64(next[:], s.NextUndoSegment)
	buf = append(buf, next[:]...)
	return buf
}

func decodeState(data []byte) (state, error) {
	var s state
	if len(data) < 1 {
		return s, kverrors.Serialization("undo: empty state record")
	}
	s.FormatVersion = data[0]
	if s.FormatVersion != formatVersion {
		return s, kverrors.Serialization("undo: unsupported state format %d", s.FormatVersion)
	}
	data = data[1:]

	if len(data) < 8 {
		return s, kverrors.Serialization("undo: truncated state revision")
	}
	s.Revision = int64(binary.BigEndian.Uint64(data[:8]))
	data = data[8:]

	count, sz := binary.Uvarint(data)
	if sz <= 0 {
		return s, kverrors.Serialization("undo: truncated undo_stack length")
	}
	data = data[sz:]

	s.UndoStack = make([]uint64, count)
	for i := range s.UndoStack {
		n, sz := binary.Uvarint(data)
		if sz <= 0 {
			return s, kverrors.Serialization("undo: truncated undo_stack entry %d", i)
		}
		s.UndoStack[i] = n
		data = data[sz:]
	}

	if len(data) < 8 {
		return s, kverrors.Serialization("undo: truncated next_undo_segment")
	}
	s.NextUndoSegment = binary.BigEndian.Uint64(data[:8])
	return s, nil
}
