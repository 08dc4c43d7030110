// Package keycodec builds and decomposes the composite keys chainkv stores
// in the underlying engine: view_prefix ‖ contract(8 bytes big-endian) ‖
// user_key. It also computes the lexicographic successor of a prefix,
// used to bound range scans.
package keycodec

import "encoding/binary"

// ContractSize is the width, in bytes, of the big-endian contract id
// embedded in every composite key.
const ContractSize = 8

// AppendUint64 appends v to buf as 8 octets, most-significant first.
func AppendUint64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}

// DecodeUint64 reads a big-endian uint64 from the first 8 bytes of buf.
// Callers must ensure len(buf) >= 8.
func DecodeUint64(buf []byte) uint64 {
	return binary.BigEndian.Uint64(buf)
}

// FullKey builds prefix ‖ be_u64(contract) ‖ userKey. The returned slice
// is freshly allocated and safe to retain.
func FullKey(prefix []byte, contract uint64, userKey []byte) []byte {
	buf := make([]byte, 0, len(prefix)+ContractSize+len(userKey))
	buf = append(buf, prefix...)
	buf = AppendUint64(buf, contract)
	buf = append(buf, userKey...)
	return buf
}

// NextPrefix returns the smallest byte string that is strictly greater
// than every string starting with p: the last byte of p is incremented,
// dropping trailing 0xff bytes that would overflow, so the shortened
// prefix still bounds above every extension of p. If p is empty, or
// consists entirely of 0xff bytes, NextPrefix returns nil, meaning "no
// upper bound": callers must treat a nil result as unbounded.
//
// Because every legal view/undo prefix in chainkv starts with a byte in
// [0x01,0xfe] and the 0xff sentinel is always present, NextPrefix never
// actually returns nil for a real prefix used by this package; it is
// handled anyway because spec.md requires it.
func NextPrefix(p []byte) []byte {
	out := append([]byte(nil), p...)
	for len(out) > 0 {
		last := len(out) - 1
		if out[last] == 0xff {
			out = out[:last]
			continue
		}
		out[last]++
		return out
	}
	return nil
}

// StripPrefix removes the view prefix and contract id from a full key,
// returning the user-key suffix. Callers must ensure fullKey actually
// begins with prefix ‖ be_u64(contract).
func StripPrefix(fullKey, prefix []byte) []byte {
	return fullKey[len(prefix)+ContractSize:]
}
