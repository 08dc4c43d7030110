// Package undo implements the undo stack: a log of reverse-delta segments
// keyed under a caller-chosen prefix, replayed in descending segment-id
// order to roll a revision back. Grounded on
// _examples/original_source/include/chain_kv/chain_kv.hpp's undo_stack.
package undo

import (
	"encoding/binary"

	"github.com/maho-db/chainkv/kverrors"
)

// recordTag distinguishes the two kinds of reverse-delta record a segment
// can hold, matching chain_kv.hpp's undo_type enum.
type recordTag uint8

const (
	tagRemove recordTag = 0
	tagPut    recordTag = 1
)

// record is one reverse delta: the operation that, applied forward, undoes
// a single change made to the store. A remove record carries only the key
// (the key did not exist before the change); a put record carries the
// key's original value.
type record struct {
	Tag   recordTag
	Key   []byte
	Value []byte
}

func appendLengthPrefixed(buf, b []byte) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(b)))
	return append(buf, b...)
}

func readLengthPrefixed(buf []byte) (value, rest []byte, err error) {
	n, sz := binary.Uvarint(buf)
	if sz <= 0 {
		return nil, nil, kverrors.Serialization("undo: truncated length prefix")
	}
	buf = buf[sz:]
	if uint64(len(buf)) < n {
		return nil, nil, kverrors.Serialization("undo: truncated record payload")
	}
	return buf[:n], buf[n:], nil
}

// appendRecord encodes a reverse-delta record onto buf.
func appendRecord(buf []byte, r record) []byte {
	buf = append(buf, byte(r.Tag))
	buf = appendLengthPrefixed(buf, r.Key)
	if r.Tag == tagPut {
		buf = appendLengthPrefixed(buf, r.Value)
	}
	return buf
}

// decodeSegment splits a segment's bytes into its constituent records, in
// the order they were written.
func decodeSegment(data []byte) ([]record, error) {
	var out []record
	for len(data) > 0 {
		tag := recordTag(data[0])
		data = data[1:]

		key, rest, err := readLengthPrefixed(data)
		if err != nil {
			return nil, err
		}
		data = rest

		r := record{Tag: tag, Key: append([]byte(nil), key...)}
		switch tag {
		case tagRemove:
		case tagPut:
			val, rest2, err := readLengthPrefixed(data)
			if err != nil {
				return nil, err
			}
			data = rest2
			r.Value = append([]byte(nil), val...)
		default:
			return nil, kverrors.Serialization("undo: unknown record tag %d", tag)
		}
		out = append(out, r)
	}
	return out, nil
}
